package task

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curaious/projecthub/internal/optional"
)

var taskCols = []string{"id", "project_id", "title", "description", "status", "due_date", "assigned_to", "priority", "board_card_id", "created_at", "updated_at"}

func newMockRepo(t *testing.T) (*TaskRepo, sqlmock.Sqlmock) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return NewTaskRepo(sqlx.NewDb(conn, "postgres")), mock
}

func TestTaskRepo_ListByProjectPriorityOrder(t *testing.T) {
	repo, mock := newMockRepo(t)
	cols := append(append([]string{}, taskCols...), "project_title", "assignee_name")
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY CASE t.priority WHEN 'urgent' THEN 1 WHEN 'high' THEN 2 WHEN 'medium' THEN 3 WHEN 'low' THEN 4 ELSE 5 END, t.due_date ASC NULLS LAST")).
		WithArgs(int64(10)).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(2, 10, "Fix login", nil, "todo", "2024-02-01", 3, "urgent", nil, now, now, "Redesign", "Ana").
			AddRow(1, 10, "Polish", "details", "todo", nil, nil, "low", nil, now, now, "Redesign", nil))

	tasks, err := repo.ListByProject(context.Background(), 10, true)

	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, "urgent", tasks[0].Priority)
	assert.Equal(t, "Ana", *tasks[0].AssigneeName)
	assert.Nil(t, tasks[1].DueDate)
	assert.Nil(t, tasks[1].AssigneeName)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskRepo_UpdateStatusKeepsDescriptionOnNilNotes(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("description = COALESCE($2, description)")).
		WithArgs("completed", nil, int64(5)).
		WillReturnRows(sqlmock.NewRows(taskCols).
			AddRow(5, 10, "Copy", "Initial scope", "completed", nil, nil, "medium", nil, now, now))

	task, err := repo.UpdateStatus(context.Background(), 5, "completed", nil)

	require.NoError(t, err)
	assert.Equal(t, "Initial scope", *task.Description)
}

func TestTaskRepo_UpdateClearsAssignee(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE tasks SET assigned_to = $1, updated_at = NOW() WHERE id = $2")).
		WithArgs(nil, int64(5)).
		WillReturnRows(sqlmock.NewRows(taskCols).
			AddRow(5, 10, "Copy", nil, "todo", nil, nil, "medium", nil, now, now))

	task, err := repo.Update(context.Background(), 5, &UpdateTaskRequest{AssignedTo: optional.Of(AssigneeID(0))})

	require.NoError(t, err)
	assert.Nil(t, task.AssignedTo)
}

func TestTaskRepo_ListOverdueScope(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery(regexp.QuoteMeta("t.due_date < CURRENT_DATE")).
		WithArgs(int64(0)).
		WillReturnRows(sqlmock.NewRows(taskCols))

	tasks, err := repo.ListOverdue(context.Background(), 0)

	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestTaskRepo_DeleteMissing(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM tasks WHERE id = $1")).
		WithArgs(int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, repo.Delete(context.Background(), 5), ErrTaskNotFound)
}
