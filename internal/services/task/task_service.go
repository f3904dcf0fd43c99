package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/curaious/projecthub/internal/boardsync"
	"github.com/curaious/projecthub/internal/perrors"
	"github.com/curaious/projecthub/internal/services/notification"
	"github.com/curaious/projecthub/internal/services/project"
	"github.com/curaious/projecthub/internal/services/user"
)

type Store interface {
	Create(ctx context.Context, req *CreateTaskRequest) (*Task, error)
	GetByID(ctx context.Context, id int64) (*TaskView, error)
	ListByProject(ctx context.Context, projectID int64, byPriority bool) ([]*TaskView, error)
	ListByManager(ctx context.Context, managerID int64) ([]*TaskView, error)
	ListOverdue(ctx context.Context, userID int64) ([]*TaskView, error)
	UpdateStatus(ctx context.Context, id int64, status string, description *string) (*Task, error)
	Update(ctx context.Context, id int64, req *UpdateTaskRequest) (*Task, error)
	SetBoardCardID(ctx context.Context, id int64, cardID string) error
	Delete(ctx context.Context, id int64) error
}

type ProjectLookup interface {
	GetByID(ctx context.Context, id int64) (*project.ProjectView, error)
}

type UserLookup interface {
	GetByID(ctx context.Context, id int64) (*user.User, error)
}

type Notifier interface {
	NotifyTaskAssigned(ctx context.Context, ev notification.TaskAssigned) error
	NotifyTaskOverdue(ctx context.Context, ev notification.TaskOverdue) error
}

type TaskService struct {
	repo     Store
	projects ProjectLookup
	users    UserLookup
	boards   boardsync.Service
	notifier Notifier

	// requireMembership restricts task mutations to the project's manager and client.
	requireMembership bool
}

func NewTaskService(repo Store, projects ProjectLookup, users UserLookup, boards boardsync.Service, notifier Notifier, requireMembership bool) *TaskService {
	return &TaskService{
		repo:              repo,
		projects:          projects,
		users:             users,
		boards:            boards,
		notifier:          notifier,
		requireMembership: requireMembership,
	}
}

func (s *TaskService) Create(ctx context.Context, actor *user.User, req *CreateTaskRequest) (*Task, error) {
	req.Title = strings.TrimSpace(req.Title)
	if req.ProjectID == 0 || req.Title == "" {
		return nil, perrors.NewErrBadRequest("project_id and name are required", nil)
	}
	if req.Priority == "" {
		req.Priority = PriorityMedium
	}
	if !ValidPriority(req.Priority) {
		return nil, perrors.NewErrBadRequest("priority must be one of low, medium, high, urgent", fmt.Errorf("invalid priority %q", req.Priority))
	}
	req.Status = normalizeStatus(req.Status)
	if req.Status == "" {
		req.Status = StatusTodo
	}

	p, err := s.authorize(ctx, actor, req.ProjectID, true)
	if err != nil {
		return nil, err
	}
	if err := s.checkAssignee(ctx, req.AssignedTo); err != nil {
		return nil, err
	}

	t, err := s.repo.Create(ctx, req)
	if err != nil {
		return nil, err
	}

	if p.BoardID != nil && s.boards != nil {
		s.createCard(ctx, *p.BoardID, t)
	}
	if t.AssignedTo != nil {
		s.notifyAssigned(ctx, t, p.Title)
	}
	return t, nil
}

func (s *TaskService) Get(ctx context.Context, actor *user.User, id int64) (*TaskView, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.authorize(ctx, actor, t.ProjectID, false); err != nil {
		return nil, err
	}
	return t, nil
}

// ListByProject lists the project's tasks by due date, or by priority when byPriority is set.
func (s *TaskService) ListByProject(ctx context.Context, actor *user.User, projectID int64, byPriority bool) ([]*TaskView, error) {
	if _, err := s.authorize(ctx, actor, projectID, false); err != nil {
		return nil, err
	}
	return s.repo.ListByProject(ctx, projectID, byPriority)
}

func (s *TaskService) ListForManager(ctx context.Context, actor *user.User) ([]*TaskView, error) {
	return s.repo.ListByManager(ctx, actor.ID)
}

func (s *TaskService) ListOverdue(ctx context.Context, actor *user.User) ([]*TaskView, error) {
	return s.repo.ListOverdue(ctx, actor.ID)
}

// UpdateStatus accepts any status label.
func (s *TaskService) UpdateStatus(ctx context.Context, actor *user.User, id int64, req *StatusUpdateRequest) (*Task, error) {
	return s.changeStatus(ctx, actor, id, req.Status, nil)
}

// ClientUpdate changes the status and replaces the description with non-null notes.
func (s *TaskService) ClientUpdate(ctx context.Context, actor *user.User, id int64, req *ClientUpdateRequest) (*Task, error) {
	return s.changeStatus(ctx, actor, id, req.Status, req.Notes)
}

func (s *TaskService) changeStatus(ctx context.Context, actor *user.User, id int64, status string, notes *string) (*Task, error) {
	status = normalizeStatus(status)
	if status == "" {
		return nil, perrors.NewErrBadRequest("status is required", nil)
	}

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.authorize(ctx, actor, current.ProjectID, true); err != nil {
		return nil, err
	}

	t, err := s.repo.UpdateStatus(ctx, id, status, notes)
	if err != nil {
		return nil, err
	}
	s.moveCard(ctx, t)
	return t, nil
}

// Update applies the fields present in req.
func (s *TaskService) Update(ctx context.Context, actor *user.User, id int64, req *UpdateTaskRequest) (*Task, error) {
	if req.Empty() {
		return nil, perrors.NewErrBadRequest("No fields to update", nil)
	}
	if req.Title.Set && (req.Title.Null || strings.TrimSpace(req.Title.Value) == "") {
		return nil, perrors.NewErrBadRequest("title cannot be empty", nil)
	}
	if req.Status.Set {
		req.Status.Value = normalizeStatus(req.Status.Value)
		if req.Status.Null || req.Status.Value == "" {
			return nil, perrors.NewErrBadRequest("status cannot be empty", nil)
		}
	}
	if req.Priority.Set && (req.Priority.Null || !ValidPriority(req.Priority.Value)) {
		return nil, perrors.NewErrBadRequest("priority must be one of low, medium, high, urgent", nil)
	}

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.authorize(ctx, actor, current.ProjectID, true); err != nil {
		return nil, err
	}
	if req.AssignedTo.HasValue() {
		if err := s.checkAssignee(ctx, req.AssignedTo.Value); err != nil {
			return nil, err
		}
	}

	t, err := s.repo.Update(ctx, id, req)
	if err != nil {
		return nil, err
	}

	if req.Status.Set && t.Status != current.Status {
		s.moveCard(ctx, t)
	}
	if t.AssignedTo != nil && (current.AssignedTo == nil || *current.AssignedTo != *t.AssignedTo) {
		title := ""
		if current.ProjectTitle != nil {
			title = *current.ProjectTitle
		}
		s.notifyAssigned(ctx, t, title)
	}
	return t, nil
}

func (s *TaskService) Delete(ctx context.Context, actor *user.User, id int64) error {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if _, err := s.authorize(ctx, actor, current.ProjectID, true); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// SweepOverdue notifies the assignee of every overdue task and returns how many
// notifications were written.
func (s *TaskService) SweepOverdue(ctx context.Context) (int, error) {
	overdue, err := s.repo.ListOverdue(ctx, 0)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, t := range overdue {
		if t.AssignedTo == nil {
			continue
		}
		ev := notification.TaskOverdue{
			AssigneeID: *t.AssignedTo,
			TaskID:     t.ID,
			TaskTitle:  t.Title,
			DueDate:    t.DueDate,
		}
		if t.ProjectTitle != nil {
			ev.ProjectTitle = *t.ProjectTitle
		}
		if err := s.notifier.NotifyTaskOverdue(ctx, ev); err != nil {
			slog.WarnContext(ctx, "Unable to notify overdue task", slog.Int64("task_id", t.ID), slog.Any("error", err))
			continue
		}
		sent++
	}
	return sent, nil
}

// authorize loads the project and checks that actor may read it, or mutate its tasks.
// Reads always require membership; mutations only when requireMembership is set.
func (s *TaskService) authorize(ctx context.Context, actor *user.User, projectID int64, mutation bool) (*project.ProjectView, error) {
	p, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if mutation && !s.requireMembership {
		return p, nil
	}
	if !p.IsMember(actor.ID) {
		return nil, perrors.NewErrForbidden("You do not have access to this project", fmt.Errorf("user %d is not a member of project %d", actor.ID, projectID))
	}
	return p, nil
}

func (s *TaskService) checkAssignee(ctx context.Context, id AssigneeID) error {
	if id == 0 {
		return nil
	}
	if _, err := s.users.GetByID(ctx, int64(id)); err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return perrors.NewErrBadRequest("assigned_to must reference an existing user", err)
		}
		return err
	}
	return nil
}

func (s *TaskService) createCard(ctx context.Context, boardID string, t *Task) {
	in := boardsync.CardInput{Name: t.Title, Status: t.Status}
	if t.Description != nil {
		in.Description = *t.Description
	}
	if t.DueDate != nil {
		due := t.DueDate.Time
		in.Due = &due
	}

	card, err := s.boards.CreateCard(ctx, boardID, in)
	if err != nil {
		slog.WarnContext(ctx, "Unable to create board card", slog.Int64("task_id", t.ID), slog.Any("error", err))
		return
	}
	if err := s.repo.SetBoardCardID(ctx, t.ID, card.ID); err != nil {
		slog.WarnContext(ctx, "Unable to store board card id", slog.Int64("task_id", t.ID), slog.Any("error", err))
		return
	}
	t.BoardCardID = &card.ID
}

func (s *TaskService) moveCard(ctx context.Context, t *Task) {
	if t.BoardCardID == nil || s.boards == nil {
		return
	}
	if _, err := s.boards.UpdateCardStatus(ctx, *t.BoardCardID, t.Status); err != nil {
		slog.WarnContext(ctx, "Unable to move board card", slog.Int64("task_id", t.ID), slog.String("card_id", *t.BoardCardID), slog.Any("error", err))
	}
}

func (s *TaskService) notifyAssigned(ctx context.Context, t *Task, projectTitle string) {
	if s.notifier == nil {
		return
	}
	err := s.notifier.NotifyTaskAssigned(ctx, notification.TaskAssigned{
		AssigneeID:   *t.AssignedTo,
		TaskID:       t.ID,
		TaskTitle:    t.Title,
		ProjectTitle: projectTitle,
		DueDate:      t.DueDate,
	})
	if err != nil {
		slog.WarnContext(ctx, "Unable to notify task assignment", slog.Int64("task_id", t.ID), slog.Any("error", err))
	}
}
