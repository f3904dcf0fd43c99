package notification

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

var ErrNotificationNotFound = errors.New("notification not found")

const notificationColumns = `id, user_id, title, message, type, is_read, related_entity_type, related_entity_id, created_at`

// ListLimit caps how many notifications a listing returns.
const ListLimit = 50

type NotificationRepo struct {
	db sqlx.ExtContext
}

func NewNotificationRepo(db sqlx.ExtContext) *NotificationRepo {
	return &NotificationRepo{db: db}
}

func (r *NotificationRepo) Create(ctx context.Context, req *CreateNotificationRequest) (*Notification, error) {
	query := `
		INSERT INTO notifications (user_id, title, message, type, related_entity_type, related_entity_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + notificationColumns

	var n Notification
	err := sqlx.GetContext(ctx, r.db, &n, query, req.UserID, req.Title, req.Message, req.Type, req.RelatedEntityType, req.RelatedEntityID)
	if err != nil {
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}
	return &n, nil
}

// ListByUser returns the newest notifications of a user first
func (r *NotificationRepo) ListByUser(ctx context.Context, userID int64) ([]*Notification, error) {
	query := `
		SELECT ` + notificationColumns + `
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

	notifications := []*Notification{}
	if err := sqlx.SelectContext(ctx, r.db, &notifications, query, userID, ListLimit); err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return notifications, nil
}

func (r *NotificationRepo) MarkRead(ctx context.Context, id, userID int64) (*Notification, error) {
	query := `
		UPDATE notifications SET is_read = TRUE
		WHERE id = $1 AND user_id = $2
		RETURNING ` + notificationColumns

	var n Notification
	err := sqlx.GetContext(ctx, r.db, &n, query, id, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotificationNotFound
		}
		return nil, fmt.Errorf("failed to mark notification read: %w", err)
	}
	return &n, nil
}

func (r *NotificationRepo) UnreadCount(ctx context.Context, userID int64) (int64, error) {
	var count int64
	err := sqlx.GetContext(ctx, r.db, &count, `SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND is_read = FALSE`, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return count, nil
}

func (r *NotificationRepo) Delete(ctx context.Context, id, userID int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM notifications WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete notification: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotificationNotFound
	}
	return nil
}
