package notification

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var notificationCols = []string{"id", "user_id", "title", "message", "type", "is_read", "related_entity_type", "related_entity_id", "created_at"}

func newMockRepo(t *testing.T) (*NotificationRepo, sqlmock.Sqlmock) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return NewNotificationRepo(sqlx.NewDb(conn, "postgres")), mock
}

func TestNotificationRepo_ListByUser(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY created_at DESC")).
		WithArgs(int64(3), ListLimit).
		WillReturnRows(sqlmock.NewRows(notificationCols).
			AddRow(2, 3, "Task Overdue", "m", "warning", false, "task", 9, time.Now()).
			AddRow(1, 3, "Hello", "m", "info", true, nil, nil, time.Now()))

	list, err := repo.ListByUser(context.Background(), 3)

	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, int64(9), *list[0].RelatedEntityID)
	assert.Nil(t, list[1].RelatedEntityType)
}

func TestNotificationRepo_MarkRead_NotOwned(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE notifications SET is_read = TRUE")).
		WithArgs(int64(1), int64(4)).
		WillReturnRows(sqlmock.NewRows(notificationCols))

	_, err := repo.MarkRead(context.Background(), 1, 4)

	assert.ErrorIs(t, err, ErrNotificationNotFound)
}

func TestNotificationRepo_UnreadCount(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery(regexp.QuoteMeta("is_read = FALSE")).
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))

	count, err := repo.UnreadCount(context.Background(), 3)

	require.NoError(t, err)
	assert.Equal(t, int64(4), count)
}

func TestNotificationRepo_Delete_NotFound(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM notifications")).
		WithArgs(int64(1), int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, repo.Delete(context.Background(), 1, 3), ErrNotificationNotFound)
}
