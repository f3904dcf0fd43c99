package project

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/curaious/projecthub/internal/db"
	"github.com/curaious/projecthub/internal/optional"
)

const (
	StatusActive    = "active"
	StatusCompleted = "completed"
)

type Project struct {
	ID                   int64           `db:"id" json:"id"`
	Title                string          `db:"title" json:"title"`
	Description          string          `db:"description" json:"description"`
	ManagerID            int64           `db:"manager_id" json:"manager_id"`
	ClientID             int64           `db:"client_id" json:"client_id"`
	Budget               decimal.Decimal `db:"budget" json:"budget"`
	Status               string          `db:"status" json:"status"`
	StartDate            *db.Date        `db:"start_date" json:"start_date"`
	Deadline             *db.Date        `db:"deadline" json:"deadline"`
	CompletionPercentage int             `db:"completion_percentage" json:"completion_percentage"`
	IsArchived           bool            `db:"is_archived" json:"is_archived"`
	BoardID              *string         `db:"board_id" json:"board_id,omitempty"`
	CreatedAt            time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time       `db:"updated_at" json:"updated_at"`
}

// IsMember reports whether userID is the manager or the client of the project.
func (p *Project) IsMember(userID int64) bool {
	return p.ManagerID == userID || p.ClientID == userID
}

// ProjectView is a project joined with its counterpart users and task/payment aggregates.
type ProjectView struct {
	Project
	ManagerName    *string         `db:"manager_name" json:"manager_name"`
	ManagerEmail   *string         `db:"manager_email" json:"manager_email"`
	ClientName     *string         `db:"client_name" json:"client_name"`
	ClientEmail    *string         `db:"client_email" json:"client_email"`
	TotalTasks     int64           `db:"total_tasks" json:"total_tasks"`
	CompletedTasks int64           `db:"completed_tasks" json:"completed_tasks"`
	TotalPaid      decimal.Decimal `db:"total_paid" json:"total_paid"`
}

// CreateProjectRequest captures payload for creating a project
type CreateProjectRequest struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	ClientID    int64           `json:"client_id"`
	Budget      decimal.Decimal `json:"budget"`
	Status      string          `json:"status"`
	StartDate   *db.Date        `json:"start_date"`
	Deadline    *db.Date        `json:"deadline"`
	ManagerID   int64           `json:"-"`
}

// CreateAliases maps accepted synonyms to the canonical create fields.
var CreateAliases = map[string]string{
	"startDate": "start_date",
	"end_date":  "deadline",
	"endDate":   "deadline",
	"clientId":  "client_id",
}

// UpdateProjectRequest carries the manager-editable fields. Only fields present in the
// payload are written.
type UpdateProjectRequest struct {
	Title                optional.Field[string]          `json:"title"`
	Description          optional.Field[string]          `json:"description"`
	Budget               optional.Field[decimal.Decimal] `json:"budget"`
	Status               optional.Field[string]          `json:"status"`
	StartDate            optional.Field[db.Date]         `json:"start_date"`
	Deadline             optional.Field[db.Date]         `json:"deadline"`
	CompletionPercentage optional.Field[int]             `json:"completion_percentage"`
}

var UpdateAliases = map[string]string{
	"startDate":            "start_date",
	"end_date":             "deadline",
	"endDate":              "deadline",
	"completionPercentage": "completion_percentage",
}

func (r *UpdateProjectRequest) Empty() bool {
	return !r.Title.Set && !r.Description.Set && !r.Budget.Set && !r.Status.Set &&
		!r.StartDate.Set && !r.Deadline.Set && !r.CompletionPercentage.Set
}

type UpdateProgressRequest struct {
	CompletionPercentage *int    `json:"completion_percentage"`
	Notes                *string `json:"notes"`
}

var ProgressAliases = map[string]string{
	"completionPercentage": "completion_percentage",
	"progress":             "completion_percentage",
}

type Stats struct {
	TotalProjects     int64           `db:"total_projects" json:"total_projects"`
	ActiveProjects    int64           `db:"active_projects" json:"active_projects"`
	CompletedProjects int64           `db:"completed_projects" json:"completed_projects"`
	TotalBudget       decimal.Decimal `db:"total_budget" json:"total_budget"`
	AverageCompletion float64         `db:"average_completion" json:"average_completion"`
}

type ClientStats struct {
	TotalProjects     int64           `db:"total_projects" json:"total_projects"`
	ActiveProjects    int64           `db:"active_projects" json:"active_projects"`
	CompletedProjects int64           `db:"completed_projects" json:"completed_projects"`
	TotalInvestment   decimal.Decimal `db:"total_investment" json:"total_investment"`
}
