// model/transaction.go
package model

import "time"

type TxStatus string

const (
	TxBorrowed TxStatus = "borrowed"
	TxReturned TxStatus = "returned"
	TxOverdue  TxStatus = "overdue"
)

type Transaction struct {
	ID         int64      `json:"id"`
	UserID     int64      `json:"user_id"`
	BookID     int64      `json:"book_id"`
	BorrowDate time.Time  `json:"borrow_date"`
	DueDate    time.Time  `json:"due_date"`
	ReturnDate *time.Time `json:"return_date,omitempty"`
	Status     TxStatus   `json:"status"`
}

// AdminTransaction is a ledger row joined with the borrower's username
// and the book title for the admin listing.
type AdminTransaction struct {
	ID         int64      `json:"id"`
	UserID     int64      `json:"user_id"`
	Username   string     `json:"username"`
	BookID     int64      `json:"book_id"`
	BookTitle  string     `json:"book_title"`
	BorrowDate time.Time  `json:"borrow_date"`
	DueDate    time.Time  `json:"due_date"`
	ReturnDate *time.Time `json:"return_date,omitempty"`
	Status     TxStatus   `json:"status"`
}

// CloseStatus classifies a finished loan: on the due date or earlier the
// loan counts as returned, strictly after it counts as overdue.
func CloseStatus(returnDate, dueDate time.Time) TxStatus {
	if returnDate.After(dueDate) {
		return TxOverdue
	}
	return TxReturned
}
