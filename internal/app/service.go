package app

import (
	"context"

	"github.com/pscheid92/notifly/internal/domain"
	apperrors "github.com/pscheid92/notifly/internal/errors"
	"github.com/pscheid92/notifly/internal/metrics"
)

// NotificationStore is the durable notification record store.
type NotificationStore interface {
	Create(ctx context.Context, userID, notificationType, message string) (*domain.Notification, error)
	List(ctx context.Context, userID string, page, limit int) (*domain.NotificationPage, error)
}

// NotificationBus fans a persisted notification out to live sessions.
// Publish is fire-and-forget: it never fails and never blocks on a client.
type NotificationBus interface {
	Publish(n *domain.Notification)
}

// Service orchestrates notification dispatch: validate, persist, then fan
// out. Publish only happens after a successful write, so a client never sees
// a push for a record it cannot read back.
type Service struct {
	store NotificationStore
	bus   NotificationBus
}

// NewService creates the application layer service.
func NewService(store NotificationStore, bus NotificationBus) *Service {
	return &Service{store: store, bus: bus}
}

// CreateAndDispatch validates the input, writes the notification through the
// store, and hands the persisted record to the bus. A validation failure
// leaves no state behind; a storage failure aborts before any publish.
func (s *Service) CreateAndDispatch(ctx context.Context, userID, notificationType, message string) (*domain.Notification, error) {
	if userID == "" {
		return nil, apperrors.ValidationError("userId is required")
	}
	if notificationType == "" {
		return nil, apperrors.ValidationError("type is required")
	}
	if message == "" {
		return nil, apperrors.ValidationError("message is required")
	}

	n, err := s.store.Create(ctx, userID, notificationType, message)
	if err != nil {
		return nil, apperrors.StorageError("failed to store notification", err).WithField("user_id", userID)
	}
	metrics.NotificationsCreatedTotal.Inc()

	s.bus.Publish(n)

	return n, nil
}

// GetPage returns one page of a user's notification history. The read path
// consults the store only and never touches the bus.
func (s *Service) GetPage(ctx context.Context, userID string, page, limit int) (*domain.NotificationPage, error) {
	result, err := s.store.List(ctx, userID, page, limit)
	if err != nil {
		return nil, apperrors.StorageError("failed to list notifications", err).WithField("user_id", userID)
	}
	return result, nil
}
