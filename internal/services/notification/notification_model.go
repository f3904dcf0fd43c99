package notification

import "time"

const (
	TypeInfo       = "info"
	TypeAssignment = "assignment"
	TypeSuccess    = "success"
	TypeWarning    = "warning"
	TypePayment    = "payment"

	EntitySystem  = "system"
	EntityTask    = "task"
	EntityProject = "project"
	EntityPayment = "payment"
)

type Notification struct {
	ID                int64     `db:"id" json:"id"`
	UserID            int64     `db:"user_id" json:"user_id"`
	Title             string    `db:"title" json:"title"`
	Message           string    `db:"message" json:"message"`
	Type              string    `db:"type" json:"type"`
	IsRead            bool      `db:"is_read" json:"is_read"`
	RelatedEntityType *string   `db:"related_entity_type" json:"related_entity_type"`
	RelatedEntityID   *int64    `db:"related_entity_id" json:"related_entity_id"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
}

// CreateNotificationRequest captures payload for creating a notification
type CreateNotificationRequest struct {
	UserID            int64   `json:"user_id"`
	Title             string  `json:"title"`
	Message           string  `json:"message"`
	Type              string  `json:"type"`
	RelatedEntityType *string `json:"related_entity_type"`
	RelatedEntityID   *int64  `json:"related_entity_id"`
}

type UnreadCount struct {
	Count int64 `json:"count"`
}
