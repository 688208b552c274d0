package bookrepo

import (
	"context"
	"database/sql"
	"errors"

	"librarymgmt/model"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
)

// genre and shelf_location are nullable in the schema, the API treats
// absent as empty.
const bookCols = `id, title, author, isbn, COALESCE(genre,''), COALESCE(shelf_location,''), available, created_at`

type Repo interface {
	Create(ctx context.Context, b *model.Book) error
	Get(ctx context.Context, id int64) (*model.Book, error)
	List(ctx context.Context) ([]model.Book, error)
	Update(ctx context.Context, id int64, patch model.BookPatch) (*model.Book, error)
	Delete(ctx context.Context, id int64) (bool, error)
	CountHistory(ctx context.Context, id int64) (int64, error)

	// Used by the lending engine inside its transaction.
	GetForUpdate(ctx context.Context, tx *sql.Tx, id int64) (*model.Book, error)
	SetAvailability(ctx context.Context, tx *sql.Tx, id int64, available bool) error
}

type repo struct{ db *sql.DB }

func New(db *sql.DB) Repo { return &repo{db: db} }

var dialect = goqu.Dialect("postgres")

func scanBook(row interface{ Scan(...any) error }) (*model.Book, error) {
	b := &model.Book{}
	err := row.Scan(&b.ID, &b.Title, &b.Author, &b.ISBN, &b.Genre, &b.ShelfLocation, &b.Available, &b.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (r *repo) Create(ctx context.Context, b *model.Book) error {
	const q = `
		INSERT INTO books (title, author, isbn, genre, shelf_location)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING id, available, created_at`
	return r.db.QueryRowContext(ctx, q, b.Title, b.Author, b.ISBN, b.Genre, b.ShelfLocation).
		Scan(&b.ID, &b.Available, &b.CreatedAt)
}

func (r *repo) Get(ctx context.Context, id int64) (*model.Book, error) {
	const q = `SELECT ` + bookCols + ` FROM books WHERE id=$1`
	return scanBook(r.db.QueryRowContext(ctx, q, id))
}

func (r *repo) List(ctx context.Context) ([]model.Book, error) {
	const q = `SELECT ` + bookCols + ` FROM books ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Book
	for rows.Next() {
		var b model.Book
		if err := rows.Scan(&b.ID, &b.Title, &b.Author, &b.ISBN, &b.Genre, &b.ShelfLocation, &b.Available, &b.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// Update applies only the fields set in patch. With an empty patch it
// degenerates to Get.
func (r *repo) Update(ctx context.Context, id int64, patch model.BookPatch) (*model.Book, error) {
	rec := goqu.Record{}
	if patch.Title != nil {
		rec["title"] = *patch.Title
	}
	if patch.Author != nil {
		rec["author"] = *patch.Author
	}
	if patch.ISBN != nil {
		rec["isbn"] = *patch.ISBN
	}
	if patch.Genre != nil {
		rec["genre"] = *patch.Genre
	}
	if patch.ShelfLocation != nil {
		rec["shelf_location"] = *patch.ShelfLocation
	}
	if patch.Available != nil {
		rec["available"] = *patch.Available
	}
	if len(rec) == 0 {
		return r.Get(ctx, id)
	}

	q, args, err := dialect.Update("books").
		Set(rec).
		Where(goqu.C("id").Eq(id)).
		Returning(goqu.L(bookCols)).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, err
	}
	return scanBook(r.db.QueryRowContext(ctx, q, args...))
}

func (r *repo) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM books WHERE id=$1`, id)
	if err != nil {
		return false, err
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return aff > 0, nil
}

func (r *repo) CountHistory(ctx context.Context, id int64) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions WHERE book_id=$1`, id).Scan(&n)
	return n, err
}

func (r *repo) GetForUpdate(ctx context.Context, tx *sql.Tx, id int64) (*model.Book, error) {
	const q = `SELECT ` + bookCols + ` FROM books WHERE id=$1 FOR UPDATE`
	return scanBook(tx.QueryRowContext(ctx, q, id))
}

func (r *repo) SetAvailability(ctx context.Context, tx *sql.Tx, id int64, available bool) error {
	_, err := tx.ExecContext(ctx, `UPDATE books SET available=$2 WHERE id=$1`, id, available)
	return err
}
