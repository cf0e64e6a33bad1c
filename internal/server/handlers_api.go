package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pscheid92/notifly/internal/domain"
	apperrors "github.com/pscheid92/notifly/internal/errors"
)

// userIDValue accepts a userId as either a JSON string or a JSON number.
// Browser clients historically sent the numeric form; both coerce to the
// opaque string key the rest of the system uses.
type userIDValue string

func (v *userIDValue) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*v = userIDValue(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("userId must be a string or a number")
	}
	*v = userIDValue(n.String())
	return nil
}

type createNotificationRequest struct {
	UserID  userIDValue `json:"userId"`
	Type    string      `json:"type"`
	Message string      `json:"message"`
}

type createNotificationResponse struct {
	Notification *domain.Notification `json:"notification"`
	Message      string               `json:"message"`
}

type paginationResponse struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
}

type listNotificationsResponse struct {
	Notifications []domain.Notification `json:"notifications"`
	Pagination    paginationResponse    `json:"pagination"`
}

func (s *Server) handleCreateNotification(c echo.Context) error {
	ctx := c.Request().Context()

	var req createNotificationRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}

	n, err := s.app.CreateAndDispatch(ctx, string(req.UserID), req.Type, req.Message)
	if err != nil {
		return err
	}

	response := createNotificationResponse{
		Notification: n,
		Message:      "notification created",
	}
	if err := c.JSON(http.StatusCreated, response); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleListNotifications(c echo.Context) error {
	ctx := c.Request().Context()

	userID := c.Param("userId")

	// Absent or malformed paging values fall through as zero and are coerced
	// to the defaults by the store, never rejected.
	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	result, err := s.app.GetPage(ctx, userID, page, limit)
	if err != nil {
		return err
	}

	response := listNotificationsResponse{
		Notifications: result.Items,
		Pagination: paginationResponse{
			Page:  result.Page,
			Limit: result.Limit,
			Total: result.Total,
		},
	}
	if err := c.JSON(http.StatusOK, response); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}
