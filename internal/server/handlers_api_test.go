package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/pscheid92/notifly/internal/config"
	"github.com/pscheid92/notifly/internal/domain"
	apperrors "github.com/pscheid92/notifly/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Mock implementations ---

type mockApp struct {
	createAndDispatchFn func(ctx context.Context, userID, notificationType, message string) (*domain.Notification, error)
	getPageFn           func(ctx context.Context, userID string, page, limit int) (*domain.NotificationPage, error)
}

func (m *mockApp) CreateAndDispatch(ctx context.Context, userID, notificationType, message string) (*domain.Notification, error) {
	if m.createAndDispatchFn != nil {
		return m.createAndDispatchFn(ctx, userID, notificationType, message)
	}
	return nil, fmt.Errorf("not implemented")
}

func (m *mockApp) GetPage(ctx context.Context, userID string, page, limit int) (*domain.NotificationPage, error) {
	if m.getPageFn != nil {
		return m.getPageFn(ctx, userID, page, limit)
	}
	return nil, fmt.Errorf("not implemented")
}

type mockHub struct{}

func (m *mockHub) Connect(conn *websocket.Conn) uuid.UUID         { return uuid.New() }
func (m *mockHub) Join(connectionID uuid.UUID, userID string) error { return nil }
func (m *mockHub) Disconnect(connectionID uuid.UUID)              {}

func testServer(t *testing.T, app appService) *Server {
	t.Helper()

	cfg := &config.Config{
		AppEnv:            "development",
		Port:              "8080",
		MaxClientsPerUser: 50,
	}
	return NewServer(cfg, app, &mockHub{}, nil)
}

// --- Create ---

func TestHandleCreateNotification_Success(t *testing.T) {
	created := &domain.Notification{
		ID:        1,
		UserID:    "1",
		Type:      "like",
		Message:   "A liked your post",
		CreatedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	app := &mockApp{
		createAndDispatchFn: func(ctx context.Context, userID, notificationType, message string) (*domain.Notification, error) {
			assert.Equal(t, "1", userID)
			assert.Equal(t, "like", notificationType)
			assert.Equal(t, "A liked your post", message)
			return created, nil
		},
	}
	srv := testServer(t, app)

	body := `{"userId":"1","type":"like","message":"A liked your post"}`
	req := httptest.NewRequest(http.MethodPost, "/api/notifications", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	srv.echo.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	var resp createNotificationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "notification created", resp.Message)
	require.NotNil(t, resp.Notification)
	assert.Equal(t, int64(1), resp.Notification.ID)
	assert.False(t, resp.Notification.IsRead)
	assert.False(t, resp.Notification.CreatedAt.IsZero())
}

func TestHandleCreateNotification_NumericUserID(t *testing.T) {
	created := &domain.Notification{
		ID:        1,
		UserID:    "1",
		Type:      "like",
		Message:   "A liked your post",
		CreatedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	app := &mockApp{
		createAndDispatchFn: func(ctx context.Context, userID, notificationType, message string) (*domain.Notification, error) {
			assert.Equal(t, "1", userID)
			return created, nil
		},
	}
	srv := testServer(t, app)

	// Browser clients send userId as a JSON number; it coerces to the string key.
	body := `{"userId":1,"type":"like","message":"A liked your post"}`
	req := httptest.NewRequest(http.MethodPost, "/api/notifications", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	srv.echo.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	var resp createNotificationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Notification)
	assert.Equal(t, "1", resp.Notification.UserID)
}

func TestHandleCreateNotification_ValidationError(t *testing.T) {
	app := &mockApp{
		createAndDispatchFn: func(ctx context.Context, userID, notificationType, message string) (*domain.Notification, error) {
			return nil, apperrors.ValidationError("message is required")
		},
	}
	srv := testServer(t, app)

	body := `{"userId":"1","type":"like","message":""}`
	req := httptest.NewRequest(http.MethodPost, "/api/notifications", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	srv.echo.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp apperrors.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, apperrors.TypeValidation, resp.Type)
	assert.Equal(t, "message is required", resp.Error)
}

func TestHandleCreateNotification_StorageError(t *testing.T) {
	app := &mockApp{
		createAndDispatchFn: func(ctx context.Context, userID, notificationType, message string) (*domain.Notification, error) {
			return nil, apperrors.StorageError("failed to store notification", fmt.Errorf("connection refused"))
		},
	}
	srv := testServer(t, app)

	body := `{"userId":"1","type":"like","message":"hello"}`
	req := httptest.NewRequest(http.MethodPost, "/api/notifications", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	srv.echo.ServeHTTP(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestHandleCreateNotification_MalformedBody(t *testing.T) {
	srv := testServer(t, &mockApp{})

	req := httptest.NewRequest(http.MethodPost, "/api/notifications", strings.NewReader("{not json"))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	srv.echo.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

// --- List ---

func TestHandleListNotifications_Success(t *testing.T) {
	app := &mockApp{
		getPageFn: func(ctx context.Context, userID string, page, limit int) (*domain.NotificationPage, error) {
			assert.Equal(t, "1", userID)
			assert.Equal(t, 2, page)
			assert.Equal(t, 5, limit)
			return &domain.NotificationPage{
				Items: []domain.Notification{
					{ID: 7, UserID: "1", Type: "like", Message: "newest"},
					{ID: 6, UserID: "1", Type: "comment", Message: "older"},
				},
				Page:  2,
				Limit: 5,
				Total: 12,
			}, nil
		},
	}
	srv := testServer(t, app)

	req := httptest.NewRequest(http.MethodGet, "/api/notifications/1?page=2&limit=5", nil)
	rec := httptest.NewRecorder()

	srv.echo.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp listNotificationsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Notifications, 2)
	assert.Equal(t, int64(7), resp.Notifications[0].ID)
	assert.Equal(t, int64(6), resp.Notifications[1].ID)
	assert.Equal(t, 2, resp.Pagination.Page)
	assert.Equal(t, 5, resp.Pagination.Limit)
	assert.Equal(t, 12, resp.Pagination.Total)
}

func TestHandleListNotifications_MalformedPagingPassesZero(t *testing.T) {
	app := &mockApp{
		getPageFn: func(ctx context.Context, userID string, page, limit int) (*domain.NotificationPage, error) {
			// Malformed query values reach the store as zero and are coerced there.
			assert.Equal(t, 0, page)
			assert.Equal(t, 0, limit)
			return &domain.NotificationPage{Items: []domain.Notification{}, Page: 1, Limit: 20, Total: 0}, nil
		},
	}
	srv := testServer(t, app)

	req := httptest.NewRequest(http.MethodGet, "/api/notifications/1?page=abc&limit=-3x", nil)
	rec := httptest.NewRecorder()

	srv.echo.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp listNotificationsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Pagination.Page)
	assert.Equal(t, 20, resp.Pagination.Limit)
}

func TestHandleListNotifications_UnknownUserReturnsEmptyPage(t *testing.T) {
	app := &mockApp{
		getPageFn: func(ctx context.Context, userID string, page, limit int) (*domain.NotificationPage, error) {
			return &domain.NotificationPage{Items: []domain.Notification{}, Page: 1, Limit: 20, Total: 0}, nil
		},
	}
	srv := testServer(t, app)

	req := httptest.NewRequest(http.MethodGet, "/api/notifications/nobody", nil)
	rec := httptest.NewRecorder()

	srv.echo.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp listNotificationsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Empty(t, resp.Notifications)
	assert.Equal(t, 0, resp.Pagination.Total)
}

// --- Health ---

func TestHandleLiveness(t *testing.T) {
	srv := testServer(t, &mockApp{})

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	rec := httptest.NewRecorder()

	srv.echo.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestHandleReadiness_FailingCheck(t *testing.T) {
	cfg := &config.Config{AppEnv: "development", Port: "8080", MaxClientsPerUser: 50}
	checks := []HealthCheck{
		{Name: "postgres", Check: func(ctx context.Context) error { return fmt.Errorf("down") }},
	}
	srv := NewServer(cfg, &mockApp{}, &mockHub{}, checks)

	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	rec := httptest.NewRecorder()

	srv.echo.ServeHTTP(rec, req)

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "postgres")
}
