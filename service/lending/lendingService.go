package lendingsvc

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	"librarymgmt/model"
	txrepo "librarymgmt/repository/transaction"
)

// DefaultLoanDays is applied when a borrow request does not set days.
const DefaultLoanDays = 14

// errors used by controllers

type ErrCode string

const (
	ErrBookNotFound ErrCode = "BOOK_NOT_FOUND"
	ErrUnavailable  ErrCode = "BOOK_UNAVAILABLE"
	ErrNoOpenLoan   ErrCode = "NO_OPEN_LOAN"
)

type codedError struct{ code ErrCode }

func (e codedError) Error() string { return string(e.code) }
func (e codedError) Code() ErrCode { return e.code }
func makeErr(c ErrCode) error      { return codedError{code: c} }

// Code extracts error code
func Code(err error) ErrCode {
	var ce interface{ Code() ErrCode }
	if errors.As(err, &ce) {
		return ce.Code()
	}
	return ""
}

// Broadcaster receives the availability snapshot after a borrow or return
// commits. The notify hub implements it.
type Broadcaster interface {
	BroadcastBookUpdate(b model.Book)
}

// AdminFilter = ledger repository shape
type AdminFilter = txrepo.AdminFilter

// CatalogRepo is the slice of the book repository the engine mutates
// inside its transaction.
type CatalogRepo interface {
	GetForUpdate(ctx context.Context, tx *sql.Tx, id int64) (*model.Book, error)
	SetAvailability(ctx context.Context, tx *sql.Tx, id int64, available bool) error
}

type LedgerRepo interface {
	InsertBorrow(ctx context.Context, tx *sql.Tx, userID, bookID int64, borrowDate, dueDate time.Time) (*model.Transaction, error)
	FindOpenForUpdate(ctx context.Context, tx *sql.Tx, userID, bookID int64) (*model.Transaction, error)
	CloseLoan(ctx context.Context, tx *sql.Tx, id int64, returnDate time.Time, status model.TxStatus) error

	ListForUser(ctx context.Context, userID int64) ([]model.Transaction, error)
	ListAdmin(ctx context.Context, f AdminFilter) ([]model.AdminTransaction, error)
}

type Service interface {
	// Borrow: transition no-active-loan -> on-loan for (user, book).
	Borrow(ctx context.Context, userID, bookID int64, days int) (*model.Transaction, error)

	// Return: close the most recent open loan and free the book.
	Return(ctx context.Context, userID, bookID int64) (*model.Transaction, error)

	MyHistory(ctx context.Context, userID int64) ([]model.Transaction, error)
	AdminHistory(ctx context.Context, f AdminFilter) ([]model.AdminTransaction, error)
}

// ----- Service implementation -----

type service struct {
	db *sql.DB
	br CatalogRepo
	tr LedgerRepo
	bc Broadcaster

	// one writer at a time per book id, on top of the row locks, so the
	// availability flip and the ledger write are a single unit for every
	// concurrent observer
	mu    sync.Mutex
	locks map[int64]*bookLock

	now func() time.Time
}

// bookLock is a per-book mutex entry; refs counts holders and waiters so
// the entry can be dropped once nobody needs it.
type bookLock struct {
	mu   sync.Mutex
	refs int
}

func New(db *sql.DB, br CatalogRepo, tr LedgerRepo, bc Broadcaster) Service {
	return &service{
		db:    db,
		br:    br,
		tr:    tr,
		bc:    bc,
		locks: make(map[int64]*bookLock),
		now:   time.Now,
	}
}

func (s *service) lockBook(id int64) func() {
	s.mu.Lock()
	l, ok := s.locks[id]
	if !ok {
		l = &bookLock{}
		s.locks[id] = l
	}
	l.refs++
	s.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		s.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, id)
		}
		s.mu.Unlock()
	}
}

// today truncates the clock to a UTC calendar date; the ledger stores dates,
// not instants.
func (s *service) today() time.Time {
	y, m, d := s.now().UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func (s *service) Borrow(ctx context.Context, userID, bookID int64, days int) (_ *model.Transaction, err error) {
	if days <= 0 {
		days = DefaultLoanDays
	}
	unlock := s.lockBook(bookID)
	defer unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	b, err := s.br.GetForUpdate(ctx, tx, bookID)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, makeErr(ErrBookNotFound)
	}
	if !b.Available {
		return nil, makeErr(ErrUnavailable)
	}

	if err = s.br.SetAvailability(ctx, tx, bookID, false); err != nil {
		return nil, err
	}

	borrowDate := s.today()
	loan, err := s.tr.InsertBorrow(ctx, tx, userID, bookID, borrowDate, borrowDate.AddDate(0, 0, days))
	if err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}

	// broadcast only after the transaction is committed
	b.Available = false
	s.bc.BroadcastBookUpdate(*b)
	return loan, nil
}

func (s *service) Return(ctx context.Context, userID, bookID int64) (_ *model.Transaction, err error) {
	unlock := s.lockBook(bookID)
	defer unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	loan, err := s.tr.FindOpenForUpdate(ctx, tx, userID, bookID)
	if err != nil {
		return nil, err
	}
	if loan == nil {
		// no open loan: leave availability untouched
		return nil, makeErr(ErrNoOpenLoan)
	}

	returnDate := s.today()
	status := model.CloseStatus(returnDate, loan.DueDate)
	if err = s.tr.CloseLoan(ctx, tx, loan.ID, returnDate, status); err != nil {
		return nil, err
	}

	// the book row may be gone; availability is only repaired when it exists
	b, err := s.br.GetForUpdate(ctx, tx, bookID)
	if err != nil {
		return nil, err
	}
	if b != nil {
		if err = s.br.SetAvailability(ctx, tx, bookID, true); err != nil {
			return nil, err
		}
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}

	loan.ReturnDate = &returnDate
	loan.Status = status
	if b != nil {
		b.Available = true
		s.bc.BroadcastBookUpdate(*b)
	}
	return loan, nil
}

func (s *service) MyHistory(ctx context.Context, userID int64) ([]model.Transaction, error) {
	return s.tr.ListForUser(ctx, userID)
}

func (s *service) AdminHistory(ctx context.Context, f AdminFilter) ([]model.AdminTransaction, error) {
	return s.tr.ListAdmin(ctx, f)
}
