package project

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/curaious/projecthub/internal/db"
)

var ErrProjectNotFound = errors.New("project not found")

const projectColumns = `id, title, description, manager_id, client_id, budget, status, start_date, deadline,
	completion_percentage, COALESCE(is_archived, FALSE) AS is_archived, board_id, created_at, updated_at`

const selectProjectView = `
	SELECT p.id, p.title, p.description, p.manager_id, p.client_id, p.budget, p.status, p.start_date, p.deadline,
		p.completion_percentage, COALESCE(p.is_archived, FALSE) AS is_archived, p.board_id, p.created_at, p.updated_at,
		m.name AS manager_name, m.email AS manager_email,
		c.name AS client_name, c.email AS client_email,
		(SELECT COUNT(*) FROM tasks t WHERE t.project_id = p.id) AS total_tasks,
		(SELECT COUNT(*) FROM tasks t WHERE t.project_id = p.id AND t.status = 'completed') AS completed_tasks,
		(SELECT COALESCE(SUM(pay.amount), 0) FROM payments pay WHERE pay.project_id = p.id AND pay.status = 'completed') AS total_paid
	FROM projects p
	LEFT JOIN users m ON m.id = p.manager_id
	LEFT JOIN users c ON c.id = p.client_id`

// ProjectRepo handles database operations for projects
type ProjectRepo struct {
	db   sqlx.ExtContext
	conn *sqlx.DB
}

func NewProjectRepo(conn *sqlx.DB) *ProjectRepo {
	return &ProjectRepo{db: conn, conn: conn}
}

// InTx runs fn against a repo bound to a single transaction. Nested calls reuse the
// current transaction.
func (r *ProjectRepo) InTx(ctx context.Context, fn func(Store) error) error {
	if r.conn == nil {
		return fn(r)
	}
	return db.RunInTx(ctx, r.conn, func(tx *sqlx.Tx) error {
		return fn(&ProjectRepo{db: tx})
	})
}

func (r *ProjectRepo) get(ctx context.Context, query string, args ...interface{}) (*Project, error) {
	var p Project
	if err := sqlx.GetContext(ctx, r.db, &p, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	return &p, nil
}

func (r *ProjectRepo) selectViews(ctx context.Context, query string, args ...interface{}) ([]*ProjectView, error) {
	projects := []*ProjectView{}
	if err := sqlx.SelectContext(ctx, r.db, &projects, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	return projects, nil
}

func (r *ProjectRepo) Create(ctx context.Context, req *CreateProjectRequest) (*Project, error) {
	query := `
		INSERT INTO projects (title, description, manager_id, client_id, budget, status, start_date, deadline)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + projectColumns

	var p Project
	err := sqlx.GetContext(ctx, r.db, &p, query,
		req.Title, req.Description, req.ManagerID, req.ClientID, req.Budget, req.Status, req.StartDate, req.Deadline)
	if err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}
	return &p, nil
}

func (r *ProjectRepo) GetByID(ctx context.Context, id int64) (*ProjectView, error) {
	var p ProjectView
	if err := sqlx.GetContext(ctx, r.db, &p, selectProjectView+` WHERE p.id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	return &p, nil
}

// ListByManager returns the manager's projects, newest first. archived selects the archived
// rows instead of the active listing, ordered by when they were archived.
func (r *ProjectRepo) ListByManager(ctx context.Context, managerID int64, archived bool) ([]*ProjectView, error) {
	if archived {
		return r.selectViews(ctx, selectProjectView+`
			WHERE p.manager_id = $1 AND COALESCE(p.is_archived, FALSE) = TRUE
			ORDER BY p.updated_at DESC`, managerID)
	}
	return r.selectViews(ctx, selectProjectView+`
		WHERE p.manager_id = $1 AND COALESCE(p.is_archived, FALSE) = FALSE
		ORDER BY p.created_at DESC`, managerID)
}

func (r *ProjectRepo) ListByClient(ctx context.Context, clientID int64) ([]*ProjectView, error) {
	return r.selectViews(ctx, selectProjectView+`
		WHERE p.client_id = $1 AND COALESCE(p.is_archived, FALSE) = FALSE
		ORDER BY p.created_at DESC`, clientID)
}

// UpcomingDeadlines lists active, non-archived projects of a client due after today.
func (r *ProjectRepo) UpcomingDeadlines(ctx context.Context, clientID int64, limit int) ([]*ProjectView, error) {
	return r.selectViews(ctx, selectProjectView+`
		WHERE p.client_id = $1
			AND p.status = 'active'
			AND COALESCE(p.is_archived, FALSE) = FALSE
			AND p.deadline > CURRENT_DATE
		ORDER BY p.deadline ASC
		LIMIT $2`, clientID, limit)
}

func (r *ProjectRepo) Update(ctx context.Context, id int64, req *UpdateProjectRequest) (*Project, error) {
	b := db.NewUpdate("projects")
	db.SetField(b, "title", req.Title)
	db.SetField(b, "description", req.Description)
	db.SetField(b, "budget", req.Budget)
	db.SetField(b, "status", req.Status)
	db.SetField(b, "start_date", req.StartDate)
	db.SetField(b, "deadline", req.Deadline)
	db.SetField(b, "completion_percentage", req.CompletionPercentage)
	if b.Empty() {
		return nil, fmt.Errorf("no fields to update for project %d", id)
	}

	query, args := b.SetExpr("updated_at = NOW()").
		Where("id = ?", id).
		Returning(projectColumns).
		Build()
	return r.get(ctx, query, args...)
}

func (r *ProjectRepo) UpdateProgress(ctx context.Context, id int64, percentage int) (*Project, error) {
	return r.get(ctx, `
		UPDATE projects SET completion_percentage = $1, updated_at = NOW()
		WHERE id = $2
		RETURNING `+projectColumns, percentage, id)
}

func (r *ProjectRepo) SetArchived(ctx context.Context, id int64, archived bool) (*Project, error) {
	return r.get(ctx, `
		UPDATE projects SET is_archived = $1, updated_at = NOW()
		WHERE id = $2
		RETURNING `+projectColumns, archived, id)
}

func (r *ProjectRepo) SetBoardID(ctx context.Context, id int64, boardID string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE projects SET board_id = $1 WHERE id = $2`, boardID, id)
	if err != nil {
		return fmt.Errorf("failed to set board id: %w", err)
	}
	return nil
}

// Delete removes the project. Tasks and payments go with it through ON DELETE CASCADE.
func (r *ProjectRepo) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrProjectNotFound
	}
	return nil
}

func (r *ProjectRepo) Stats(ctx context.Context, managerID int64) (*Stats, error) {
	query := `
		SELECT
			COUNT(*) AS total_projects,
			COUNT(*) FILTER (WHERE status = 'active') AS active_projects,
			COUNT(*) FILTER (WHERE status = 'completed') AS completed_projects,
			COALESCE(SUM(budget), 0) AS total_budget,
			ROUND(COALESCE(AVG(completion_percentage), 0), 2)::float8 AS average_completion
		FROM projects
		WHERE manager_id = $1 AND COALESCE(is_archived, FALSE) = FALSE`

	var stats Stats
	if err := sqlx.GetContext(ctx, r.db, &stats, query, managerID); err != nil {
		return nil, fmt.Errorf("failed to get project stats: %w", err)
	}
	return &stats, nil
}

func (r *ProjectRepo) ClientStats(ctx context.Context, clientID int64) (*ClientStats, error) {
	query := `
		SELECT
			COUNT(*) AS total_projects,
			COUNT(*) FILTER (WHERE status = 'active') AS active_projects,
			COUNT(*) FILTER (WHERE status = 'completed') AS completed_projects,
			COALESCE(SUM(budget), 0) AS total_investment
		FROM projects
		WHERE client_id = $1 AND COALESCE(is_archived, FALSE) = FALSE`

	var stats ClientStats
	if err := sqlx.GetContext(ctx, r.db, &stats, query, clientID); err != nil {
		return nil, fmt.Errorf("failed to get client stats: %w", err)
	}
	return &stats, nil
}
