package booksvc

import (
	"context"
	"errors"
	"strings"

	"librarymgmt/model"
	bookrepo "librarymgmt/repository/book"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrNotFound   = errors.New("book not found")
	ErrISBNTaken  = errors.New("isbn already registered")
	ErrHasHistory = errors.New("book has transaction history")
	ErrBadInput   = errors.New("bad input")
)

// Code reduces err to one of the package sentinels, or nil.
func Code(err error) error {
	for _, sentinel := range []error{ErrNotFound, ErrISBNTaken, ErrHasHistory, ErrBadInput} {
		if errors.Is(err, sentinel) {
			return sentinel
		}
	}
	return nil
}

type Service interface {
	Create(ctx context.Context, b *model.Book) error
	Get(ctx context.Context, id int64) (*model.Book, error)
	List(ctx context.Context) ([]model.Book, error)
	Update(ctx context.Context, id int64, patch model.BookPatch) (*model.Book, error)
	Delete(ctx context.Context, id int64) error
}

type service struct{ r bookrepo.Repo }

func New(r bookrepo.Repo) Service { return &service{r: r} }

func (s *service) Create(ctx context.Context, b *model.Book) error {
	if strings.TrimSpace(b.Title) == "" || strings.TrimSpace(b.Author) == "" {
		return ErrBadInput
	}
	if err := s.r.Create(ctx, b); err != nil {
		if isUniqueViolation(err) {
			return ErrISBNTaken
		}
		return err
	}
	return nil
}

func (s *service) Get(ctx context.Context, id int64) (*model.Book, error) {
	b, err := s.r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, ErrNotFound
	}
	return b, nil
}

func (s *service) List(ctx context.Context) ([]model.Book, error) {
	return s.r.List(ctx)
}

func (s *service) Update(ctx context.Context, id int64, patch model.BookPatch) (*model.Book, error) {
	b, err := s.r.Update(ctx, id, patch)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrISBNTaken
		}
		return nil, err
	}
	if b == nil {
		return nil, ErrNotFound
	}
	return b, nil
}

// Delete refuses to remove a book the ledger still references, open loan
// or not, so history rows keep their join target.
func (s *service) Delete(ctx context.Context, id int64) error {
	n, err := s.r.CountHistory(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return ErrHasHistory
	}
	ok, err := s.r.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}
