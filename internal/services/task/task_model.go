package task

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/curaious/projecthub/internal/db"
	"github.com/curaious/projecthub/internal/optional"
)

const (
	StatusTodo       = "todo"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusPending    = "pending"

	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

func ValidPriority(p string) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

type Task struct {
	ID          int64     `db:"id" json:"id"`
	ProjectID   int64     `db:"project_id" json:"project_id"`
	Title       string    `db:"title" json:"title"`
	Description *string   `db:"description" json:"description"`
	Status      string    `db:"status" json:"status"`
	DueDate     *db.Date  `db:"due_date" json:"due_date"`
	AssignedTo  *int64    `db:"assigned_to" json:"assigned_to"`
	Priority    string    `db:"priority" json:"priority"`
	BoardCardID *string   `db:"board_card_id" json:"board_card_id,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

type TaskView struct {
	Task
	ProjectTitle *string `db:"project_title" json:"project_title"`
	AssigneeName *string `db:"assignee_name" json:"assignee_name"`
}

// AssigneeID accepts a user id as a JSON number or numeric string. An empty string means
// unassigned and decodes to 0.
type AssigneeID int64

func (a *AssigneeID) UnmarshalJSON(b []byte) error {
	s := string(bytes.Trim(bytes.TrimSpace(b), `"`))
	if s == "" || s == "null" {
		*a = 0
		return nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid assigned_to %q", s)
	}
	*a = AssigneeID(v)
	return nil
}

// Ptr returns nil for the unassigned value.
func (a AssigneeID) Ptr() *int64 {
	if a == 0 {
		return nil
	}
	v := int64(a)
	return &v
}

// CreateTaskRequest captures payload for creating a task
type CreateTaskRequest struct {
	ProjectID   int64      `json:"project_id"`
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	DueDate     *db.Date   `json:"due_date"`
	AssignedTo  AssigneeID `json:"assigned_to"`
}

// RequestAliases maps accepted synonyms to canonical task fields.
var RequestAliases = map[string]string{
	"name":       "title",
	"projectId":  "project_id",
	"assignedTo": "assigned_to",
	"dueDate":    "due_date",
}

// UpdateTaskRequest is the full update. Omitted fields keep their value, explicit null
// clears nullable columns.
type UpdateTaskRequest struct {
	Title       optional.Field[string]     `json:"title"`
	Description optional.Field[string]     `json:"description"`
	Status      optional.Field[string]     `json:"status"`
	Priority    optional.Field[string]     `json:"priority"`
	DueDate     optional.Field[db.Date]    `json:"due_date"`
	AssignedTo  optional.Field[AssigneeID] `json:"assigned_to"`
}

func (r *UpdateTaskRequest) Empty() bool {
	return !r.Title.Set && !r.Description.Set && !r.Status.Set && !r.Priority.Set && !r.DueDate.Set && !r.AssignedTo.Set
}

type StatusUpdateRequest struct {
	Status string `json:"status"`
}

// ClientUpdateRequest changes the status and, when Notes is non-null, replaces the description.
type ClientUpdateRequest struct {
	Status string  `json:"status"`
	Notes  *string `json:"notes"`
}

func normalizeStatus(s string) string {
	return strings.TrimSpace(s)
}
