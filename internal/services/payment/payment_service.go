package payment

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/curaious/projecthub/internal/perrors"
	"github.com/curaious/projecthub/internal/services/notification"
	"github.com/curaious/projecthub/internal/services/project"
	"github.com/curaious/projecthub/internal/services/user"
)

type Store interface {
	Create(ctx context.Context, req *CreatePaymentRequest) (*Payment, error)
	GetByID(ctx context.Context, id int64) (*Payment, error)
	ListByProject(ctx context.Context, projectID int64) ([]*Payment, error)
	UpdateStatus(ctx context.Context, id int64, status string) (*Payment, error)
	Summary(ctx context.Context, projectID int64) (*Summary, error)
}

type ProjectLookup interface {
	GetByID(ctx context.Context, id int64) (*project.ProjectView, error)
}

type Notifier interface {
	NotifyPaymentDue(ctx context.Context, ev notification.PaymentDue) error
}

type PaymentService struct {
	repo     Store
	projects ProjectLookup
	notifier Notifier
}

func NewPaymentService(repo Store, projects ProjectLookup, notifier Notifier) *PaymentService {
	return &PaymentService{repo: repo, projects: projects, notifier: notifier}
}

// Create records a payment on a project the actor manages. A pending payment notifies the client.
func (s *PaymentService) Create(ctx context.Context, actor *user.User, req *CreatePaymentRequest) (*Payment, error) {
	if req.ProjectID == 0 {
		return nil, perrors.NewErrBadRequest("project_id is required", nil)
	}
	if !req.Amount.IsPositive() {
		return nil, perrors.NewErrBadRequest("amount must be greater than zero", nil)
	}
	req.Status = strings.TrimSpace(req.Status)
	if req.Status == "" {
		req.Status = StatusPending
	}
	if !ValidStatus(req.Status) {
		return nil, perrors.NewErrBadRequest("status must be pending or completed", fmt.Errorf("invalid status %q", req.Status))
	}

	p, err := s.managed(ctx, actor, req.ProjectID)
	if err != nil {
		return nil, err
	}

	payment, err := s.repo.Create(ctx, req)
	if err != nil {
		return nil, err
	}

	if payment.Status == StatusPending && s.notifier != nil {
		err := s.notifier.NotifyPaymentDue(ctx, notification.PaymentDue{
			ClientID:     p.ClientID,
			PaymentID:    payment.ID,
			ProjectTitle: p.Title,
			Amount:       payment.Amount,
			DueDate:      payment.DueDate,
		})
		if err != nil {
			slog.WarnContext(ctx, "Unable to notify payment due", slog.Int64("payment_id", payment.ID), slog.Any("error", err))
		}
	}
	return payment, nil
}

func (s *PaymentService) ListByProject(ctx context.Context, actor *user.User, projectID int64) ([]*Payment, error) {
	if err := s.member(ctx, actor, projectID); err != nil {
		return nil, err
	}
	return s.repo.ListByProject(ctx, projectID)
}

func (s *PaymentService) Summary(ctx context.Context, actor *user.User, projectID int64) (*Summary, error) {
	if err := s.member(ctx, actor, projectID); err != nil {
		return nil, err
	}
	return s.repo.Summary(ctx, projectID)
}

func (s *PaymentService) UpdateStatus(ctx context.Context, actor *user.User, id int64, req *StatusUpdateRequest) (*Payment, error) {
	status := strings.TrimSpace(req.Status)
	if !ValidStatus(status) {
		return nil, perrors.NewErrBadRequest("status must be pending or completed", fmt.Errorf("invalid status %q", req.Status))
	}

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.managed(ctx, actor, current.ProjectID); err != nil {
		return nil, err
	}
	return s.repo.UpdateStatus(ctx, id, status)
}

func (s *PaymentService) managed(ctx context.Context, actor *user.User, projectID int64) (*project.ProjectView, error) {
	p, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if p.ManagerID != actor.ID {
		return nil, perrors.NewErrForbidden("Only the project manager can manage payments", fmt.Errorf("user %d is not the manager of project %d", actor.ID, projectID))
	}
	return p, nil
}

func (s *PaymentService) member(ctx context.Context, actor *user.User, projectID int64) error {
	p, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		return err
	}
	if !p.IsMember(actor.ID) {
		return perrors.NewErrForbidden("You do not have access to this project", nil)
	}
	return nil
}
