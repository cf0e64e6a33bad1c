package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pscheid92/notifly/internal/domain"
)

const (
	defaultPage  = 1
	defaultLimit = 20
)

// notificationColumns must match the Scan order in scanNotification.
const notificationColumns = `id, user_id, type, message, is_read, created_at`

// NotificationRepo is the durable notification store backed by PostgreSQL.
// It is the sole mutator of notification rows.
type NotificationRepo struct {
	pool *pgxpool.Pool
}

func NewNotificationRepo(pool *pgxpool.Pool) *NotificationRepo {
	return &NotificationRepo{pool: pool}
}

// Create persists a notification and returns the full record with its
// store-assigned id and timestamp. Identity columns guarantee unique,
// monotonically increasing ids under concurrent inserts.
func (r *NotificationRepo) Create(ctx context.Context, userID, notificationType, message string) (*domain.Notification, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO notifications (user_id, type, message)
		VALUES ($1, $2, $3)
		RETURNING `+notificationColumns,
		userID, notificationType, message,
	)

	var n domain.Notification
	if err := row.Scan(&n.ID, &n.UserID, &n.Type, &n.Message, &n.IsRead, &n.CreatedAt); err != nil {
		return nil, fmt.Errorf("failed to insert notification: %w", err)
	}
	return &n, nil
}

// List returns one page of a user's notifications, newest first, together
// with the total row count for that user. Non-positive page or limit values
// are coerced to the defaults rather than rejected. An unknown user yields an
// empty page with total 0, not an error.
func (r *NotificationRepo) List(ctx context.Context, userID string, page, limit int) (*domain.NotificationPage, error) {
	if page < 1 {
		page = defaultPage
	}
	if limit < 1 {
		limit = defaultLimit
	}
	offset := (page - 1) * limit

	// Window and count must see the same snapshot, or a concurrent insert
	// makes total disagree with the page contents.
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.RepeatableRead,
		AccessMode: pgx.ReadOnly,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to begin read transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	rows, err := tx.Query(ctx, `
		SELECT `+notificationColumns+`
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3`,
		userID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query notifications: %w", err)
	}
	defer rows.Close()

	items := make([]domain.Notification, 0, limit)
	for rows.Next() {
		var n domain.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Message, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		items = append(items, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read notifications: %w", err)
	}
	rows.Close()

	var total int
	err = tx.QueryRow(ctx, `SELECT COUNT(*) FROM notifications WHERE user_id = $1`, userID).Scan(&total)
	if err != nil {
		return nil, fmt.Errorf("failed to count notifications: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit read transaction: %w", err)
	}

	return &domain.NotificationPage{
		Items: items,
		Page:  page,
		Limit: limit,
		Total: total,
	}, nil
}
