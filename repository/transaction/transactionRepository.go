package txrepo

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"librarymgmt/model"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
)

// AdminFilter narrows the admin listing. UnreturnedOnly takes priority
// over Status when both are set.
type AdminFilter struct {
	Status         *model.TxStatus
	UserID         *int64
	UnreturnedOnly bool
}

type Repo interface {
	InsertBorrow(ctx context.Context, tx *sql.Tx, userID, bookID int64, borrowDate, dueDate time.Time) (*model.Transaction, error)
	FindOpenForUpdate(ctx context.Context, tx *sql.Tx, userID, bookID int64) (*model.Transaction, error)
	CloseLoan(ctx context.Context, tx *sql.Tx, id int64, returnDate time.Time, status model.TxStatus) error

	ListForUser(ctx context.Context, userID int64) ([]model.Transaction, error)
	ListAdmin(ctx context.Context, f AdminFilter) ([]model.AdminTransaction, error)
}

type repo struct{ db *sql.DB }

func New(db *sql.DB) Repo { return &repo{db: db} }

var dialect = goqu.Dialect("postgres")

func (r *repo) InsertBorrow(ctx context.Context, tx *sql.Tx, userID, bookID int64, borrowDate, dueDate time.Time) (*model.Transaction, error) {
	const q = `
		INSERT INTO transactions (user_id, book_id, borrow_date, due_date, status)
		VALUES ($1,$2,$3,$4,'borrowed')
		RETURNING id`
	t := &model.Transaction{
		UserID:     userID,
		BookID:     bookID,
		BorrowDate: borrowDate,
		DueDate:    dueDate,
		Status:     model.TxBorrowed,
	}
	if err := tx.QueryRowContext(ctx, q, userID, bookID, borrowDate, dueDate).Scan(&t.ID); err != nil {
		return nil, err
	}
	return t, nil
}

// FindOpenForUpdate locks the most recent open loan for the pair. More than
// one open loan per pair should be impossible, the ordering makes the pick
// deterministic anyway.
func (r *repo) FindOpenForUpdate(ctx context.Context, tx *sql.Tx, userID, bookID int64) (*model.Transaction, error) {
	const q = `
		SELECT id, user_id, book_id, borrow_date, due_date, return_date, status
		FROM transactions
		WHERE user_id=$1 AND book_id=$2 AND status='borrowed'
		ORDER BY borrow_date DESC, id DESC
		LIMIT 1
		FOR UPDATE`
	t := &model.Transaction{}
	err := tx.QueryRowContext(ctx, q, userID, bookID).
		Scan(&t.ID, &t.UserID, &t.BookID, &t.BorrowDate, &t.DueDate, &t.ReturnDate, &t.Status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (r *repo) CloseLoan(ctx context.Context, tx *sql.Tx, id int64, returnDate time.Time, status model.TxStatus) error {
	const q = `
		UPDATE transactions
		SET return_date=$2, status=$3
		WHERE id=$1`
	_, err := tx.ExecContext(ctx, q, id, returnDate, status)
	return err
}

func (r *repo) ListForUser(ctx context.Context, userID int64) ([]model.Transaction, error) {
	const q = `
		SELECT id, user_id, book_id, borrow_date, due_date, return_date, status
		FROM transactions
		WHERE user_id=$1
		ORDER BY borrow_date DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Transaction
	for rows.Next() {
		var t model.Transaction
		if err := rows.Scan(&t.ID, &t.UserID, &t.BookID, &t.BorrowDate, &t.DueDate, &t.ReturnDate, &t.Status); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// adminListQuery builds the joined, filtered admin listing. UnreturnedOnly
// overrides an explicit status filter.
func adminListQuery(f AdminFilter) (string, []interface{}, error) {
	ds := dialect.
		From(goqu.T("transactions").As("t")).
		Join(goqu.T("users").As("u"), goqu.On(goqu.I("u.id").Eq(goqu.I("t.user_id")))).
		Join(goqu.T("books").As("b"), goqu.On(goqu.I("b.id").Eq(goqu.I("t.book_id")))).
		Select(
			goqu.I("t.id"), goqu.I("t.user_id"), goqu.I("u.username"),
			goqu.I("t.book_id"), goqu.I("b.title"),
			goqu.I("t.borrow_date"), goqu.I("t.due_date"), goqu.I("t.return_date"), goqu.I("t.status"),
		).
		Order(goqu.I("t.borrow_date").Desc(), goqu.I("t.id").Desc())

	if f.UserID != nil {
		ds = ds.Where(goqu.I("t.user_id").Eq(*f.UserID))
	}
	switch {
	case f.UnreturnedOnly:
		ds = ds.Where(goqu.I("t.status").In(string(model.TxBorrowed), string(model.TxOverdue)))
	case f.Status != nil:
		ds = ds.Where(goqu.I("t.status").Eq(string(*f.Status)))
	}

	return ds.Prepared(true).ToSQL()
}

func (r *repo) ListAdmin(ctx context.Context, f AdminFilter) ([]model.AdminTransaction, error) {
	q, args, err := adminListQuery(f)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.AdminTransaction
	for rows.Next() {
		var t model.AdminTransaction
		if err := rows.Scan(&t.ID, &t.UserID, &t.Username, &t.BookID, &t.BookTitle,
			&t.BorrowDate, &t.DueDate, &t.ReturnDate, &t.Status); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
