package task

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/curaious/projecthub/internal/db"
)

var ErrTaskNotFound = errors.New("task not found")

const taskColumns = `id, project_id, title, description, status, due_date, assigned_to, priority, board_card_id, created_at, updated_at`

const selectTaskView = `
	SELECT t.id, t.project_id, t.title, t.description, t.status, t.due_date, t.assigned_to, t.priority,
		t.board_card_id, t.created_at, t.updated_at,
		p.title AS project_title, u.name AS assignee_name
	FROM tasks t
	JOIN projects p ON p.id = t.project_id
	LEFT JOIN users u ON u.id = t.assigned_to`

const priorityRank = `CASE t.priority WHEN 'urgent' THEN 1 WHEN 'high' THEN 2 WHEN 'medium' THEN 3 WHEN 'low' THEN 4 ELSE 5 END`

// TaskRepo handles database operations for tasks
type TaskRepo struct {
	db sqlx.ExtContext
}

func NewTaskRepo(db sqlx.ExtContext) *TaskRepo {
	return &TaskRepo{db: db}
}

func (r *TaskRepo) get(ctx context.Context, query string, args ...interface{}) (*Task, error) {
	var t Task
	if err := sqlx.GetContext(ctx, r.db, &t, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return &t, nil
}

func (r *TaskRepo) selectViews(ctx context.Context, query string, args ...interface{}) ([]*TaskView, error) {
	tasks := []*TaskView{}
	if err := sqlx.SelectContext(ctx, r.db, &tasks, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

func (r *TaskRepo) Create(ctx context.Context, req *CreateTaskRequest) (*Task, error) {
	return r.get(ctx, `
		INSERT INTO tasks (project_id, title, description, status, priority, due_date, assigned_to)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+taskColumns,
		req.ProjectID, req.Title, req.Description, req.Status, req.Priority, req.DueDate, req.AssignedTo.Ptr())
}

func (r *TaskRepo) GetByID(ctx context.Context, id int64) (*TaskView, error) {
	var t TaskView
	if err := sqlx.GetContext(ctx, r.db, &t, selectTaskView+` WHERE t.id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return &t, nil
}

// ListByProject orders by due date, or by priority rank then due date. Tasks without a due
// date come last.
func (r *TaskRepo) ListByProject(ctx context.Context, projectID int64, byPriority bool) ([]*TaskView, error) {
	order := `t.due_date ASC NULLS LAST, t.id ASC`
	if byPriority {
		order = priorityRank + `, t.due_date ASC NULLS LAST, t.id ASC`
	}
	return r.selectViews(ctx, selectTaskView+` WHERE t.project_id = $1 ORDER BY `+order, projectID)
}

// ListByManager returns the tasks of every non-archived project the manager runs.
func (r *TaskRepo) ListByManager(ctx context.Context, managerID int64) ([]*TaskView, error) {
	return r.selectViews(ctx, selectTaskView+`
		WHERE p.manager_id = $1 AND COALESCE(p.is_archived, FALSE) = FALSE
		ORDER BY t.due_date ASC NULLS LAST, t.id ASC`, managerID)
}

// ListOverdue returns incomplete tasks past their due date on non-archived projects where
// userID is manager or client. userID 0 lists them for every project.
func (r *TaskRepo) ListOverdue(ctx context.Context, userID int64) ([]*TaskView, error) {
	return r.selectViews(ctx, selectTaskView+`
		WHERE t.due_date < CURRENT_DATE
			AND t.status <> 'completed'
			AND COALESCE(p.is_archived, FALSE) = FALSE
			AND ($1::bigint = 0 OR p.manager_id = $1 OR p.client_id = $1)
		ORDER BY t.due_date ASC, t.id ASC`, userID)
}

// UpdateStatus sets the status. A nil description keeps the current one.
func (r *TaskRepo) UpdateStatus(ctx context.Context, id int64, status string, description *string) (*Task, error) {
	return r.get(ctx, `
		UPDATE tasks
		SET status = $1, description = COALESCE($2, description), updated_at = NOW()
		WHERE id = $3
		RETURNING `+taskColumns, status, description, id)
}

func (r *TaskRepo) Update(ctx context.Context, id int64, req *UpdateTaskRequest) (*Task, error) {
	b := db.NewUpdate("tasks")
	db.SetField(b, "title", req.Title)
	db.SetField(b, "description", req.Description)
	db.SetField(b, "status", req.Status)
	db.SetField(b, "priority", req.Priority)
	db.SetField(b, "due_date", req.DueDate)
	if req.AssignedTo.Set {
		b.Set("assigned_to", req.AssignedTo.Value.Ptr())
	}
	if b.Empty() {
		return nil, fmt.Errorf("no fields to update for task %d", id)
	}

	query, args := b.SetExpr("updated_at = NOW()").
		Where("id = ?", id).
		Returning(taskColumns).
		Build()
	return r.get(ctx, query, args...)
}

func (r *TaskRepo) SetBoardCardID(ctx context.Context, id int64, cardID string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE tasks SET board_card_id = $1 WHERE id = $2`, cardID, id)
	if err != nil {
		return fmt.Errorf("failed to set board card id: %w", err)
	}
	return nil
}

func (r *TaskRepo) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrTaskNotFound
	}
	return nil
}
