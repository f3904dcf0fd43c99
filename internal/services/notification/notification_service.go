package notification

import (
	"context"
	"strings"

	"github.com/curaious/projecthub/internal/perrors"
	"github.com/curaious/projecthub/internal/services/user"
)

type Store interface {
	Create(ctx context.Context, req *CreateNotificationRequest) (*Notification, error)
	ListByUser(ctx context.Context, userID int64) ([]*Notification, error)
	MarkRead(ctx context.Context, id, userID int64) (*Notification, error)
	UnreadCount(ctx context.Context, userID int64) (int64, error)
	Delete(ctx context.Context, id, userID int64) error
}

type NotificationService struct {
	repo Store
}

func NewNotificationService(repo Store) *NotificationService {
	return &NotificationService{repo: repo}
}

// Create writes a notification for req.UserID. Type defaults to info and the related entity
// type to system.
func (s *NotificationService) Create(ctx context.Context, req *CreateNotificationRequest) (*Notification, error) {
	req.Title = strings.TrimSpace(req.Title)
	req.Message = strings.TrimSpace(req.Message)
	if req.UserID == 0 || req.Title == "" || req.Message == "" {
		return nil, perrors.NewErrBadRequest("user_id, title and message are required", nil)
	}
	if req.Type == "" {
		req.Type = TypeInfo
	}
	if req.RelatedEntityType == nil || *req.RelatedEntityType == "" {
		system := EntitySystem
		req.RelatedEntityType = &system
	}

	n, err := s.repo.Create(ctx, req)
	if err != nil {
		if perrors.IsForeignKeyViolation(err) {
			return nil, perrors.NewErrBadRequest("user_id must reference an existing user", err)
		}
		return nil, err
	}
	return n, nil
}

func (s *NotificationService) List(ctx context.Context, actor *user.User) ([]*Notification, error) {
	return s.repo.ListByUser(ctx, actor.ID)
}

func (s *NotificationService) MarkRead(ctx context.Context, actor *user.User, id int64) (*Notification, error) {
	return s.repo.MarkRead(ctx, id, actor.ID)
}

func (s *NotificationService) UnreadCount(ctx context.Context, actor *user.User) (*UnreadCount, error) {
	count, err := s.repo.UnreadCount(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	return &UnreadCount{Count: count}, nil
}

func (s *NotificationService) Delete(ctx context.Context, actor *user.User, id int64) error {
	return s.repo.Delete(ctx, id, actor.ID)
}
