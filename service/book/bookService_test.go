package booksvc

import (
	"context"
	"database/sql"
	"testing"

	"librarymgmt/model"
	bookrepo "librarymgmt/repository/book"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
)

type mockRepo struct {
	createFn       func(ctx context.Context, b *model.Book) error
	getFn          func(ctx context.Context, id int64) (*model.Book, error)
	listFn         func(ctx context.Context) ([]model.Book, error)
	updateFn       func(ctx context.Context, id int64, patch model.BookPatch) (*model.Book, error)
	deleteFn       func(ctx context.Context, id int64) (bool, error)
	countHistoryFn func(ctx context.Context, id int64) (int64, error)
}

var _ bookrepo.Repo = (*mockRepo)(nil)

func (m *mockRepo) Create(ctx context.Context, b *model.Book) error {
	if m.createFn == nil {
		return nil
	}
	return m.createFn(ctx, b)
}
func (m *mockRepo) Get(ctx context.Context, id int64) (*model.Book, error) {
	if m.getFn == nil {
		return nil, nil
	}
	return m.getFn(ctx, id)
}
func (m *mockRepo) List(ctx context.Context) ([]model.Book, error) {
	if m.listFn == nil {
		return nil, nil
	}
	return m.listFn(ctx)
}
func (m *mockRepo) Update(ctx context.Context, id int64, patch model.BookPatch) (*model.Book, error) {
	if m.updateFn == nil {
		return nil, nil
	}
	return m.updateFn(ctx, id, patch)
}
func (m *mockRepo) Delete(ctx context.Context, id int64) (bool, error) {
	if m.deleteFn == nil {
		return false, nil
	}
	return m.deleteFn(ctx, id)
}
func (m *mockRepo) CountHistory(ctx context.Context, id int64) (int64, error) {
	if m.countHistoryFn == nil {
		return 0, nil
	}
	return m.countHistoryFn(ctx, id)
}
func (m *mockRepo) GetForUpdate(ctx context.Context, tx *sql.Tx, id int64) (*model.Book, error) {
	return nil, nil
}
func (m *mockRepo) SetAvailability(ctx context.Context, tx *sql.Tx, id int64, available bool) error {
	return nil
}

func uniqueViolation() error {
	return &pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "books_isbn_key"}
}

// --- tests ---

func TestCreate_Success(t *testing.T) {
	m := &mockRepo{
		createFn: func(ctx context.Context, b *model.Book) error {
			b.ID = 3
			b.Available = true
			return nil
		},
	}
	svc := New(m)

	b := &model.Book{Title: "Dune", Author: "Frank Herbert"}
	require.NoError(t, svc.Create(context.Background(), b))
	require.Equal(t, int64(3), b.ID)
	require.True(t, b.Available)
}

func TestCreate_BadInput(t *testing.T) {
	svc := New(&mockRepo{})
	err := svc.Create(context.Background(), &model.Book{Title: "  ", Author: "x"})
	require.Equal(t, ErrBadInput, Code(err))
}

func TestCreate_ISBNConflict(t *testing.T) {
	m := &mockRepo{
		createFn: func(ctx context.Context, b *model.Book) error { return uniqueViolation() },
	}
	svc := New(m)

	err := svc.Create(context.Background(), &model.Book{Title: "Dune", Author: "Frank Herbert"})
	require.Equal(t, ErrISBNTaken, Code(err))
}

func TestGet_NotFound(t *testing.T) {
	svc := New(&mockRepo{})
	_, err := svc.Get(context.Background(), 99)
	require.Equal(t, ErrNotFound, Code(err))
}

func TestUpdate_PassesPatchThrough(t *testing.T) {
	var got model.BookPatch
	m := &mockRepo{
		updateFn: func(ctx context.Context, id int64, patch model.BookPatch) (*model.Book, error) {
			got = patch
			return &model.Book{ID: id, Title: *patch.Title}, nil
		},
	}
	svc := New(m)

	title := "Dune Messiah"
	b, err := svc.Update(context.Background(), 3, model.BookPatch{Title: &title})
	require.NoError(t, err)
	require.Equal(t, "Dune Messiah", b.Title)
	require.NotNil(t, got.Title)
	require.Nil(t, got.Author)
	require.Nil(t, got.Available)
}

func TestUpdate_NotFound(t *testing.T) {
	svc := New(&mockRepo{})
	_, err := svc.Update(context.Background(), 99, model.BookPatch{})
	require.Equal(t, ErrNotFound, Code(err))
}

func TestDelete_Success(t *testing.T) {
	m := &mockRepo{
		deleteFn: func(ctx context.Context, id int64) (bool, error) { return true, nil },
	}
	require.NoError(t, New(m).Delete(context.Background(), 3))
}

func TestDelete_WithHistory(t *testing.T) {
	deleted := false
	m := &mockRepo{
		countHistoryFn: func(ctx context.Context, id int64) (int64, error) { return 2, nil },
		deleteFn: func(ctx context.Context, id int64) (bool, error) {
			deleted = true
			return true, nil
		},
	}
	err := New(m).Delete(context.Background(), 3)
	require.Equal(t, ErrHasHistory, Code(err))
	require.False(t, deleted)
}

func TestDelete_AlreadyGone(t *testing.T) {
	m := &mockRepo{
		deleteFn: func(ctx context.Context, id int64) (bool, error) { return false, nil },
	}
	err := New(m).Delete(context.Background(), 3)
	require.Equal(t, ErrNotFound, Code(err))

	// a second delete reports the same clean NotFound
	err = New(m).Delete(context.Background(), 3)
	require.Equal(t, ErrNotFound, Code(err))
}
