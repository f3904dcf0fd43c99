package payment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

var ErrPaymentNotFound = errors.New("payment not found")

const paymentColumns = `id, project_id, amount, description, status, due_date, paid_at, created_at`

// PaymentRepo handles database operations for payments
type PaymentRepo struct {
	db sqlx.ExtContext
}

func NewPaymentRepo(db sqlx.ExtContext) *PaymentRepo {
	return &PaymentRepo{db: db}
}

func (r *PaymentRepo) get(ctx context.Context, query string, args ...interface{}) (*Payment, error) {
	var p Payment
	if err := sqlx.GetContext(ctx, r.db, &p, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPaymentNotFound
		}
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}
	return &p, nil
}

// Create inserts a payment. paid_at is stamped when it is recorded as completed.
func (r *PaymentRepo) Create(ctx context.Context, req *CreatePaymentRequest) (*Payment, error) {
	return r.get(ctx, `
		INSERT INTO payments (project_id, amount, description, status, due_date, paid_at)
		VALUES ($1, $2, $3, $4::varchar, $5, CASE WHEN $4::varchar = 'completed' THEN NOW() ELSE NULL END)
		RETURNING `+paymentColumns,
		req.ProjectID, req.Amount, req.Description, req.Status, req.DueDate)
}

func (r *PaymentRepo) GetByID(ctx context.Context, id int64) (*Payment, error) {
	return r.get(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = $1`, id)
}

func (r *PaymentRepo) ListByProject(ctx context.Context, projectID int64) ([]*Payment, error) {
	payments := []*Payment{}
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE project_id = $1 ORDER BY due_date ASC NULLS LAST, id ASC`
	if err := sqlx.SelectContext(ctx, r.db, &payments, query, projectID); err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	return payments, nil
}

// UpdateStatus stamps paid_at on completion and clears it for any other status.
func (r *PaymentRepo) UpdateStatus(ctx context.Context, id int64, status string) (*Payment, error) {
	return r.get(ctx, `
		UPDATE payments
		SET status = $1::varchar, paid_at = CASE WHEN $1::varchar = 'completed' THEN NOW() ELSE NULL END
		WHERE id = $2
		RETURNING `+paymentColumns, status, id)
}

func (r *PaymentRepo) Summary(ctx context.Context, projectID int64) (*Summary, error) {
	query := `
		SELECT
			COALESCE(SUM(amount), 0) AS total,
			COALESCE(SUM(amount) FILTER (WHERE status = 'completed'), 0) AS paid,
			COALESCE(SUM(amount) FILTER (WHERE status <> 'completed'), 0) AS pending,
			COUNT(*) AS count
		FROM payments
		WHERE project_id = $1`

	var s Summary
	if err := sqlx.GetContext(ctx, r.db, &s, query, projectID); err != nil {
		return nil, fmt.Errorf("failed to get payment summary: %w", err)
	}
	return &s, nil
}
