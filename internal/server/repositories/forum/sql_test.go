package forum

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/clubhouse/internal/common"
	"github.com/dmitrijs2005/clubhouse/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepoWithMock(t *testing.T) (*SQLRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewSQLRepository(db), mock
}

var threadCols = []string{"id", "title", "category_id", "user_id", "created_at", "username", "count"}

func TestListCategories(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	mock.ExpectQuery(`SELECT id, name, description FROM categories ORDER BY id`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "description"}).
			AddRow(int64(1), "Coding & Tech", "").
			AddRow(int64(2), "General Discussion", "misc"))

	got, err := repo.ListCategories(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "General Discussion", got[1].Name)
}

func TestGetCategory_NotFound(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	mock.ExpectQuery(`FROM categories WHERE id = \$1`).WithArgs(int64(9)).WillReturnError(sql.ErrNoRows)

	_, err := repo.GetCategory(context.Background(), 9)
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestListThreads(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	now := time.Now().UTC()

	mock.ExpectQuery(`(?s)FROM threads t.*WHERE t.category_id = \$1 ORDER BY t.created_at DESC`).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows(threadCols).
			AddRow(int64(4), "Go generics", int64(1), int64(2), now, "bob", 3))

	got, err := repo.ListThreads(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "bob", got[0].Author)
	assert.Equal(t, 3, got[0].PostCount)
}

func TestGetThread(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	mock.ExpectQuery(`(?s)FROM threads t.*WHERE t.id = \$1`).
		WithArgs(int64(4)).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(`(?s)FROM threads t.*WHERE t.id = \$1`).
		WithArgs(int64(5)).
		WillReturnError(errors.New("conn reset"))

	_, err := repo.GetThread(context.Background(), 4)
	assert.ErrorIs(t, err, common.ErrorNotFound)

	_, err = repo.GetThread(context.Background(), 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db error: conn reset")
}

func TestCreateThreadAndPost(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	now := time.Now().UTC()

	mock.ExpectQuery(`(?s)INSERT\s+INTO\s+threads`).
		WithArgs("Hello", int64(1), int64(2), now).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(11)))
	mock.ExpectQuery(`(?s)INSERT\s+INTO\s+posts`).
		WithArgs("first!", int64(11), int64(2), now).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(21)))

	th, err := repo.CreateThread(context.Background(), &models.Thread{Title: "Hello", CategoryID: 1, UserID: 2, CreatedAt: now})
	require.NoError(t, err)
	assert.Equal(t, int64(11), th.ID)

	p, err := repo.CreatePost(context.Background(), &models.Post{Content: "first!", ThreadID: th.ID, UserID: 2, CreatedAt: now})
	require.NoError(t, err)
	assert.Equal(t, int64(21), p.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListPosts(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	now := time.Now().UTC()

	mock.ExpectQuery(`(?s)FROM posts p.*WHERE p.thread_id = \$1`).
		WithArgs(int64(11)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "content", "thread_id", "user_id", "created_at", "username"}).
			AddRow(int64(1), "a", int64(11), int64(2), now, "bob").
			AddRow(int64(2), "b", int64(11), int64(3), now, "carol"))

	got, err := repo.ListPosts(context.Background(), 11)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "carol", got[1].Author)
}
