// internal/circulation/store.go
package circulation

import (
	"context"
	"time"

	"github.com/NureKhodanytskaYelyzaveta/ark-pzpi-23-3-khodanytska-yelyzaveta/internal/catalog"
)

// Tx is the transactional surface a state-changing operation works
// against. Row reads lock the row for the rest of the transaction, so
// concurrent operations on the same book or reservation serialize.
type Tx interface {
	// BookStatusForUpdate locks the book row and returns its status.
	// Returns catalog.ErrBookNotFound if the book does not exist.
	BookStatusForUpdate(ctx context.Context, bookID int64) (catalog.Status, error)
	SetBookStatus(ctx context.Context, bookID int64, status catalog.Status) error

	// OldestActiveReservation returns the book's oldest reservation that
	// is active and unexpired at now, or nil if there is none.
	OldestActiveReservation(ctx context.Context, bookID int64, now time.Time) (*Reservation, error)
	// OtherActiveReservation is OldestActiveReservation excluding one
	// reservation id.
	OtherActiveReservation(ctx context.Context, bookID, excludeID int64, now time.Time) (*Reservation, error)
	ReservationForUpdate(ctx context.Context, id int64) (*Reservation, error)
	SetReservationStatus(ctx context.Context, id int64, status ReservationStatus) error
	// InsertReservation stores r and fills in its generated ID.
	InsertReservation(ctx context.Context, r *Reservation) error

	LoanForUpdate(ctx context.Context, id int64) (*Loan, error)
	// OpenLoanForBook locks the book's loan with no return date, or
	// returns ErrNoActiveLoan.
	OpenLoanForBook(ctx context.Context, bookID int64) (*Loan, error)
	// InsertLoan stores l and fills in its generated ID.
	InsertLoan(ctx context.Context, l *Loan) error
	SetLoanReturned(ctx context.Context, id int64, at time.Time) error
	SetLoanDueDate(ctx context.Context, id int64, due time.Time) error
}

// Store provides transactions plus the read-only queries that back the
// listing endpoints and the OTP scan.
type Store interface {
	WithinTx(ctx context.Context, name string, fn func(Tx) error) error

	GetReservation(ctx context.Context, id int64) (*Reservation, error)
	// ActiveReservations lists every reservation active and unexpired at
	// now, oldest first. This is the OTP verification scan set.
	ActiveReservations(ctx context.Context, now time.Time) ([]*Reservation, error)
	// ActiveReservationFor returns the active unexpired reservation held
	// by a specific user on a specific book, or nil.
	ActiveReservationFor(ctx context.Context, userID, bookID int64, now time.Time) (*Reservation, error)
	UserActiveReservations(ctx context.Context, userID int64, now time.Time) ([]*Reservation, error)

	UserLoans(ctx context.Context, userID int64) ([]*Loan, error)
	UserActiveLoans(ctx context.Context, userID int64) ([]*Loan, error)
}
