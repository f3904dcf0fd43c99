package notification

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/curaious/projecthub/internal/db"
	"github.com/curaious/projecthub/internal/mailer"
	"github.com/curaious/projecthub/internal/services/user"
)

type UserLookup interface {
	GetByID(ctx context.Context, id int64) (*user.User, error)
}

type TaskAssigned struct {
	AssigneeID   int64
	TaskID       int64
	TaskTitle    string
	ProjectTitle string
	DueDate      *db.Date
}

type ProjectCompleted struct {
	ClientID     int64
	ProjectID    int64
	ProjectTitle string
}

type TaskOverdue struct {
	AssigneeID   int64
	TaskID       int64
	TaskTitle    string
	ProjectTitle string
	DueDate      *db.Date
}

type PaymentDue struct {
	ClientID     int64
	PaymentID    int64
	ProjectTitle string
	Amount       decimal.Decimal
	DueDate      *db.Date
}

// Dispatcher turns domain events into an in-app notification plus an email. Only the
// in-app write can fail the call; email goes out in the background and failures are logged.
type Dispatcher struct {
	store        Store
	users        UserLookup
	mailer       mailer.Mailer
	emailTimeout time.Duration
	wg           sync.WaitGroup
}

func NewDispatcher(store Store, users UserLookup, m mailer.Mailer) *Dispatcher {
	return &Dispatcher{
		store:        store,
		users:        users,
		mailer:       m,
		emailTimeout: 30 * time.Second,
	}
}

func (d *Dispatcher) NotifyTaskAssigned(ctx context.Context, ev TaskAssigned) error {
	return d.dispatch(ctx, &CreateNotificationRequest{
		UserID:            ev.AssigneeID,
		Title:             "New Task Assigned",
		Message:           fmt.Sprintf("You have been assigned a new task: %q in project %q", ev.TaskTitle, ev.ProjectTitle),
		Type:              TypeAssignment,
		RelatedEntityType: strPtr(EntityTask),
		RelatedEntityID:   &ev.TaskID,
	}, emailData{
		Heading:      "New Task Assigned",
		Accent:       "#2563eb",
		TaskTitle:    ev.TaskTitle,
		ProjectTitle: ev.ProjectTitle,
		DueDate:      formatDate(ev.DueDate),
	})
}

func (d *Dispatcher) NotifyProjectCompleted(ctx context.Context, ev ProjectCompleted) error {
	return d.dispatch(ctx, &CreateNotificationRequest{
		UserID:            ev.ClientID,
		Title:             "Project Completed",
		Message:           fmt.Sprintf("Project %q has been marked as completed", ev.ProjectTitle),
		Type:              TypeSuccess,
		RelatedEntityType: strPtr(EntityProject),
		RelatedEntityID:   &ev.ProjectID,
	}, emailData{
		Heading:      "Project Completed",
		Accent:       "#16a34a",
		ProjectTitle: ev.ProjectTitle,
	})
}

func (d *Dispatcher) NotifyTaskOverdue(ctx context.Context, ev TaskOverdue) error {
	return d.dispatch(ctx, &CreateNotificationRequest{
		UserID:            ev.AssigneeID,
		Title:             "Task Overdue",
		Message:           fmt.Sprintf("Task %q in project %q is overdue", ev.TaskTitle, ev.ProjectTitle),
		Type:              TypeWarning,
		RelatedEntityType: strPtr(EntityTask),
		RelatedEntityID:   &ev.TaskID,
	}, emailData{
		Heading:      "Task Overdue",
		Accent:       "#dc2626",
		TaskTitle:    ev.TaskTitle,
		ProjectTitle: ev.ProjectTitle,
		DueDate:      formatDate(ev.DueDate),
	})
}

func (d *Dispatcher) NotifyPaymentDue(ctx context.Context, ev PaymentDue) error {
	message := fmt.Sprintf("Payment of $%s for project %q is due", ev.Amount.StringFixed(2), ev.ProjectTitle)
	if ev.DueDate != nil {
		message += " on " + ev.DueDate.String()
	}

	return d.dispatch(ctx, &CreateNotificationRequest{
		UserID:            ev.ClientID,
		Title:             "Payment Due Soon",
		Message:           message,
		Type:              TypePayment,
		RelatedEntityType: strPtr(EntityPayment),
		RelatedEntityID:   &ev.PaymentID,
	}, emailData{
		Heading:      "Payment Due Soon",
		Accent:       "#d97706",
		ProjectTitle: ev.ProjectTitle,
		Amount:       "$" + ev.Amount.StringFixed(2),
		DueDate:      formatDate(ev.DueDate),
	})
}

// Wait blocks until background emails have been handed to the mailer.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) dispatch(ctx context.Context, req *CreateNotificationRequest, data emailData) error {
	n, err := d.store.Create(ctx, req)
	if err != nil {
		return fmt.Errorf("failed to write %s notification: %w", req.Type, err)
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		emailCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.emailTimeout)
		defer cancel()
		d.sendEmail(emailCtx, n, data)
	}()

	return nil
}

func (d *Dispatcher) sendEmail(ctx context.Context, n *Notification, data emailData) {
	l := slog.With(slog.Int64("notification_id", n.ID), slog.Int64("user_id", n.UserID), slog.String("type", n.Type))

	recipient, err := d.users.GetByID(ctx, n.UserID)
	if err != nil {
		l.WarnContext(ctx, "Unable to load email recipient, skipping email", slog.Any("error", err))
		return
	}

	data.Name = recipient.Name
	html, err := renderEmail(n.Type, data)
	if err != nil {
		l.ErrorContext(ctx, "Unable to render email", slog.Any("error", err))
		return
	}

	if err := d.mailer.Send(ctx, mailer.Message{To: recipient.Email, Subject: n.Title, HTML: html}); err != nil {
		l.WarnContext(ctx, "Unable to send notification email", slog.Any("error", err))
		return
	}
}

func formatDate(d *db.Date) string {
	if d == nil {
		return ""
	}
	return d.String()
}

func strPtr(s string) *string {
	return &s
}
