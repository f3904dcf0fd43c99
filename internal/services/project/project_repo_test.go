package project

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curaious/projecthub/internal/db"
	"github.com/curaious/projecthub/internal/optional"
)

var projectCols = []string{"id", "title", "description", "manager_id", "client_id", "budget", "status", "start_date", "deadline",
	"completion_percentage", "is_archived", "board_id", "created_at", "updated_at"}

func newMockRepo(t *testing.T) (*ProjectRepo, sqlmock.Sqlmock) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return NewProjectRepo(sqlx.NewDb(conn, "postgres")), mock
}

func TestProjectRepo_UpdateOnlyPresentFields(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE projects SET title = $1, deadline = $2, updated_at = NOW() WHERE id = $3 RETURNING")).
		WithArgs("Redesign v2", nil, int64(7)).
		WillReturnRows(sqlmock.NewRows(projectCols).
			AddRow(7, "Redesign v2", "", 1, 3, "5000.00", "active", "2024-01-01", nil, 0, false, nil, now, now))

	p, err := repo.Update(context.Background(), 7, &UpdateProjectRequest{
		Title:    optional.Of("Redesign v2"),
		Deadline: optional.Field[db.Date]{Set: true, Null: true},
	})

	require.NoError(t, err)
	assert.Equal(t, "Redesign v2", p.Title)
	assert.Nil(t, p.Deadline)
	assert.Equal(t, "2024-01-01", p.StartDate.String())
	assert.Equal(t, "5000", p.Budget.String())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectRepo_UpdateNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE projects SET status = $1")).
		WithArgs("completed", int64(9)).
		WillReturnRows(sqlmock.NewRows(projectCols))

	_, err := repo.Update(context.Background(), 9, &UpdateProjectRequest{Status: optional.Of("completed")})

	assert.ErrorIs(t, err, ErrProjectNotFound)
}

func TestProjectRepo_ListArchivedFilter(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery(regexp.QuoteMeta("COALESCE(p.is_archived, FALSE) = TRUE")).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows(projectCols))

	list, err := repo.ListByManager(context.Background(), 1, true)

	require.NoError(t, err)
	assert.Empty(t, list)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectRepo_CreateBoardInTx(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO projects")).
		WillReturnRows(sqlmock.NewRows(projectCols).
			AddRow(1, "Redesign", "", 1, 3, "5000", "active", nil, nil, 0, false, nil, now, now))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE projects SET board_id = $1 WHERE id = $2")).
		WithArgs("board-1", int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.InTx(context.Background(), func(tx Store) error {
		p, err := tx.Create(context.Background(), redesignRequest())
		if err != nil {
			return err
		}
		return tx.SetBoardID(context.Background(), p.ID, "board-1")
	})

	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectRepo_Delete(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM projects WHERE id = $1")).
		WithArgs(int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, repo.Delete(context.Background(), 2), ErrProjectNotFound)
}

func TestProjectRepo_UpcomingDeadlinesExcludesToday(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery(regexp.QuoteMeta("AND p.deadline > CURRENT_DATE")).
		WithArgs(int64(3), UpcomingDeadlineLimit).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	got, err := repo.UpcomingDeadlines(context.Background(), 3, UpcomingDeadlineLimit)

	require.NoError(t, err)
	assert.Empty(t, got)
	require.NoError(t, mock.ExpectationsWereMet())
}
