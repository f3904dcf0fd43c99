package project

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/curaious/projecthub/internal/boardsync"
	"github.com/curaious/projecthub/internal/perrors"
	"github.com/curaious/projecthub/internal/services/notification"
	"github.com/curaious/projecthub/internal/services/user"
)

// UpcomingDeadlineLimit caps the client dashboard deadline list.
const UpcomingDeadlineLimit = 5

type Store interface {
	InTx(ctx context.Context, fn func(Store) error) error
	Create(ctx context.Context, req *CreateProjectRequest) (*Project, error)
	GetByID(ctx context.Context, id int64) (*ProjectView, error)
	ListByManager(ctx context.Context, managerID int64, archived bool) ([]*ProjectView, error)
	ListByClient(ctx context.Context, clientID int64) ([]*ProjectView, error)
	UpcomingDeadlines(ctx context.Context, clientID int64, limit int) ([]*ProjectView, error)
	Update(ctx context.Context, id int64, req *UpdateProjectRequest) (*Project, error)
	UpdateProgress(ctx context.Context, id int64, percentage int) (*Project, error)
	SetArchived(ctx context.Context, id int64, archived bool) (*Project, error)
	SetBoardID(ctx context.Context, id int64, boardID string) error
	Delete(ctx context.Context, id int64) error
	Stats(ctx context.Context, managerID int64) (*Stats, error)
	ClientStats(ctx context.Context, clientID int64) (*ClientStats, error)
}

type UserLookup interface {
	GetByID(ctx context.Context, id int64) (*user.User, error)
}

type Notifier interface {
	NotifyProjectCompleted(ctx context.Context, ev notification.ProjectCompleted) error
}

type ProjectService struct {
	repo     Store
	users    UserLookup
	boards   boardsync.Service
	notifier Notifier
}

func NewProjectService(repo Store, users UserLookup, boards boardsync.Service, notifier Notifier) *ProjectService {
	return &ProjectService{
		repo:     repo,
		users:    users,
		boards:   boards,
		notifier: notifier,
	}
}

// Create inserts a project managed by actor. The board is created in the same transaction
// as the row; a board failure is logged and the project is kept without one. A board created
// for a transaction that rolls back is deleted again.
func (s *ProjectService) Create(ctx context.Context, actor *user.User, req *CreateProjectRequest) (*Project, error) {
	if !actor.IsManager() {
		return nil, perrors.NewErrForbidden("Only managers can create projects", nil)
	}

	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" || req.ClientID == 0 {
		return nil, perrors.NewErrBadRequest("title and client_id are required", nil)
	}
	if req.Budget.IsNegative() {
		return nil, perrors.NewErrBadRequest("budget cannot be negative", nil)
	}
	if req.Status == "" {
		req.Status = StatusActive
	}

	client, err := s.users.GetByID(ctx, req.ClientID)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return nil, perrors.NewErrBadRequest("client_id must reference an existing client", err)
		}
		return nil, err
	}
	if client.Role != user.RoleClient {
		return nil, perrors.NewErrBadRequest("client_id must reference a user with the client role", nil)
	}
	req.ManagerID = actor.ID

	var (
		created *Project
		board   *boardsync.Board
	)
	err = s.repo.InTx(ctx, func(tx Store) error {
		p, err := tx.Create(ctx, req)
		if err != nil {
			return err
		}
		created = p

		if s.boards == nil {
			return nil
		}
		b, err := s.boards.CreateBoard(ctx, p.Title, p.Description)
		if err != nil {
			slog.WarnContext(ctx, "Unable to create project board", slog.Int64("project_id", p.ID), slog.Any("error", err))
			return nil
		}
		board = b
		if err := tx.SetBoardID(ctx, p.ID, b.ID); err != nil {
			return err
		}
		created.BoardID = &b.ID
		return nil
	})
	if err != nil {
		if board != nil {
			if delErr := s.boards.DeleteBoard(context.WithoutCancel(ctx), board.ID); delErr != nil {
				slog.WarnContext(ctx, "Unable to remove board of rolled back project", slog.String("board_id", board.ID), slog.Any("error", delErr))
			}
		}
		return nil, err
	}
	return created, nil
}

// Get returns a project to its manager or client.
func (s *ProjectService) Get(ctx context.Context, actor *user.User, id int64) (*ProjectView, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.IsMember(actor.ID) {
		return nil, perrors.NewErrForbidden("You do not have access to this project", nil, map[string]interface{}{"project_id": id})
	}
	return p, nil
}

func (s *ProjectService) ListForManager(ctx context.Context, actor *user.User) ([]*ProjectView, error) {
	return s.repo.ListByManager(ctx, actor.ID, false)
}

func (s *ProjectService) ListArchived(ctx context.Context, actor *user.User) ([]*ProjectView, error) {
	return s.repo.ListByManager(ctx, actor.ID, true)
}

func (s *ProjectService) ListForClient(ctx context.Context, actor *user.User) ([]*ProjectView, error) {
	return s.repo.ListByClient(ctx, actor.ID)
}

func (s *ProjectService) UpcomingDeadlines(ctx context.Context, actor *user.User) ([]*ProjectView, error) {
	return s.repo.UpcomingDeadlines(ctx, actor.ID, UpcomingDeadlineLimit)
}

// Update applies the fields present in req. Only the project's manager may call it.
func (s *ProjectService) Update(ctx context.Context, actor *user.User, id int64, req *UpdateProjectRequest) (*Project, error) {
	current, err := s.managed(ctx, actor, id, "Only the project manager can update project details")
	if err != nil {
		return nil, err
	}

	if req.Empty() {
		return nil, perrors.NewErrBadRequest("No fields to update", nil)
	}
	if req.Title.Set && (req.Title.Null || strings.TrimSpace(req.Title.Value) == "") {
		return nil, perrors.NewErrBadRequest("title cannot be empty", nil)
	}
	if req.Status.Set && (req.Status.Null || req.Status.Value == "") {
		return nil, perrors.NewErrBadRequest("status cannot be empty", nil)
	}
	if req.Budget.Set && (req.Budget.Null || req.Budget.Value.IsNegative()) {
		return nil, perrors.NewErrBadRequest("budget must be a non-negative amount", nil)
	}
	if req.Description.Null {
		req.Description.Null, req.Description.Value = false, ""
	}
	if req.CompletionPercentage.Set {
		if req.CompletionPercentage.Null {
			return nil, perrors.NewErrBadRequest("completion_percentage cannot be null", nil)
		}
		if err := validatePercentage(req.CompletionPercentage.Value); err != nil {
			return nil, err
		}
	}

	updated, err := s.repo.Update(ctx, id, req)
	if err != nil {
		return nil, err
	}

	if updated.Status == StatusCompleted && current.Status != StatusCompleted && s.notifier != nil {
		err := s.notifier.NotifyProjectCompleted(ctx, notification.ProjectCompleted{
			ClientID:     updated.ClientID,
			ProjectID:    updated.ID,
			ProjectTitle: updated.Title,
		})
		if err != nil {
			slog.WarnContext(ctx, "Unable to notify project completion", slog.Int64("project_id", id), slog.Any("error", err))
		}
	}
	return updated, nil
}

// UpdateProgress lets the project's client report completion. Notes are logged only.
func (s *ProjectService) UpdateProgress(ctx context.Context, actor *user.User, id int64, req *UpdateProgressRequest) (*Project, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.ClientID != actor.ID {
		return nil, perrors.NewErrForbidden("Only the project client can update progress", nil, map[string]interface{}{"project_id": id})
	}
	if req.CompletionPercentage == nil {
		return nil, perrors.NewErrBadRequest("completion_percentage is required", nil)
	}
	if err := validatePercentage(*req.CompletionPercentage); err != nil {
		return nil, err
	}

	if req.Notes != nil && *req.Notes != "" {
		slog.InfoContext(ctx, "Client progress notes", slog.Int64("project_id", id), slog.Int64("client_id", actor.ID), slog.String("notes", *req.Notes))
	}
	return s.repo.UpdateProgress(ctx, id, *req.CompletionPercentage)
}

func (s *ProjectService) Archive(ctx context.Context, actor *user.User, id int64) (*Project, error) {
	if _, err := s.managed(ctx, actor, id, "Only the project manager can archive this project"); err != nil {
		return nil, err
	}
	return s.repo.SetArchived(ctx, id, true)
}

func (s *ProjectService) Unarchive(ctx context.Context, actor *user.User, id int64) (*Project, error) {
	if _, err := s.managed(ctx, actor, id, "Only the project manager can unarchive this project"); err != nil {
		return nil, err
	}
	return s.repo.SetArchived(ctx, id, false)
}

// Delete removes the project with its tasks and payments. The board is removed best-effort.
func (s *ProjectService) Delete(ctx context.Context, actor *user.User, id int64) error {
	p, err := s.managed(ctx, actor, id, "Only the project manager can delete this project")
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	if p.BoardID != nil && s.boards != nil {
		if err := s.boards.DeleteBoard(ctx, *p.BoardID); err != nil {
			slog.WarnContext(ctx, "Unable to delete project board", slog.Int64("project_id", id), slog.String("board_id", *p.BoardID), slog.Any("error", err))
		}
	}
	return nil
}

func (s *ProjectService) Stats(ctx context.Context, actor *user.User) (*Stats, error) {
	return s.repo.Stats(ctx, actor.ID)
}

func (s *ProjectService) ClientStats(ctx context.Context, actor *user.User) (*ClientStats, error) {
	return s.repo.ClientStats(ctx, actor.ID)
}

// SyncBoard copies the board progress into the completion percentage, creating the board
// first when the project has none.
func (s *ProjectService) SyncBoard(ctx context.Context, actor *user.User, id int64) (*Project, error) {
	p, err := s.managed(ctx, actor, id, "Only the project manager can sync the board")
	if err != nil {
		return nil, err
	}
	if s.boards == nil {
		return nil, perrors.NewErrBadRequest("Board sync is not configured", nil)
	}

	boardID := ""
	if p.BoardID != nil {
		boardID = *p.BoardID
	} else {
		board, err := s.boards.CreateBoard(ctx, p.Title, p.Description)
		if err != nil {
			return nil, perrors.NewErrInternalServerError("Unable to create project board", err)
		}
		if err := s.repo.SetBoardID(ctx, id, board.ID); err != nil {
			return nil, err
		}
		boardID = board.ID
	}

	progress, err := s.boards.Progress(ctx, boardID)
	if err != nil {
		return nil, perrors.NewErrInternalServerError("Unable to read board progress", err)
	}
	updated, err := s.repo.UpdateProgress(ctx, id, progress)
	if err != nil {
		return nil, err
	}
	updated.BoardID = &boardID
	return updated, nil
}

func (s *ProjectService) managed(ctx context.Context, actor *user.User, id int64, denied string) (*ProjectView, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.ManagerID != actor.ID {
		return nil, perrors.NewErrForbidden(denied, fmt.Errorf("user %d is not the manager of project %d", actor.ID, id))
	}
	return p, nil
}

func validatePercentage(v int) error {
	if v < 0 || v > 100 {
		return perrors.NewErrBadRequest("completion_percentage must be between 0 and 100", fmt.Errorf("got %d", v))
	}
	return nil
}
