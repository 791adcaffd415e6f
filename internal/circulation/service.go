// internal/circulation/service.go
package circulation

import "context"

// Service defines the interface for the circulation service: reservation
// and loan lifecycle plus the read-only listings.
type Service interface {
	// Reserve creates an active reservation for the user and flips an
	// available book to reserved. At most one active unexpired
	// reservation may exist per book, regardless of requester.
	Reserve(ctx context.Context, userID, bookID int64) (*Reservation, error)
	// Cancel closes an active reservation and, when nothing else holds
	// the book, reverts it to available.
	Cancel(ctx context.Context, reservationID int64) (*Reservation, error)

	// Issue creates a loan for days days (DefaultLoanDays when zero).
	// The requester's own active reservation is completed in the same
	// transaction; a reservation held by someone else rejects the issue.
	Issue(ctx context.Context, userID, bookID int64, days int) (*Loan, error)
	// Return closes a loan and moves the book to reserved or available
	// depending on whether another reader is waiting.
	Return(ctx context.Context, loanID int64) (*Loan, error)
	// ReturnByBook closes the book's open loan; used by the locker
	// terminal, which knows the book but not the loan.
	ReturnByBook(ctx context.Context, bookID int64) (*Loan, error)
	// Extend pushes the due date out by days days (DefaultExtensionDays
	// when zero).
	Extend(ctx context.Context, loanID int64, days int) (*Loan, error)

	GetReservation(ctx context.Context, id int64) (*Reservation, error)
	ActiveReservations(ctx context.Context) ([]*Reservation, error)
	ActiveReservationFor(ctx context.Context, userID, bookID int64) (*Reservation, error)
	UserActiveReservations(ctx context.Context, userID int64) ([]*Reservation, error)
	UserLoans(ctx context.Context, userID int64) ([]*Loan, error)
	UserActiveLoans(ctx context.Context, userID int64) ([]*Loan, error)
}
