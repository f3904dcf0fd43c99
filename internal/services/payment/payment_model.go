package payment

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/curaious/projecthub/internal/db"
)

const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
)

func ValidStatus(s string) bool {
	return s == StatusPending || s == StatusCompleted
}

type Payment struct {
	ID          int64           `db:"id" json:"id"`
	ProjectID   int64           `db:"project_id" json:"project_id"`
	Amount      decimal.Decimal `db:"amount" json:"amount"`
	Description string          `db:"description" json:"description"`
	Status      string          `db:"status" json:"status"`
	DueDate     *db.Date        `db:"due_date" json:"due_date"`
	PaidAt      *time.Time      `db:"paid_at" json:"paid_at"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
}

// CreatePaymentRequest captures payload for recording a payment
type CreatePaymentRequest struct {
	ProjectID   int64           `json:"project_id"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Status      string          `json:"status"`
	DueDate     *db.Date        `json:"due_date"`
}

var RequestAliases = map[string]string{
	"projectId": "project_id",
	"dueDate":   "due_date",
}

type StatusUpdateRequest struct {
	Status string `json:"status"`
}

// Summary compares what a project has been billed with what has been paid.
type Summary struct {
	Total   decimal.Decimal `db:"total" json:"total"`
	Paid    decimal.Decimal `db:"paid" json:"paid"`
	Pending decimal.Decimal `db:"pending" json:"pending"`
	Count   int64           `db:"count" json:"count"`
}
