// internal/circulation/domain.go
package circulation

import (
	"errors"
	"time"

	"github.com/NureKhodanytskaYelyzaveta/ark-pzpi-23-3-khodanytska-yelyzaveta/internal/catalog"
)

const (
	// DefaultLoanDays is the standard loan window.
	DefaultLoanDays = 14
	// DefaultReservationDays is the standard reservation window.
	DefaultReservationDays = 7
	// DefaultExtensionDays is added to the due date per extension.
	DefaultExtensionDays = 7
)

// ReservationStatus is the stored lifecycle state of a reservation. An
// expired reservation is a view, not a stored state: a reservation whose
// expiry date has passed stays "active" on disk and is filtered out at
// read time. Reservations are never deleted.
type ReservationStatus string

const (
	ReservationActive    ReservationStatus = "active"
	ReservationCompleted ReservationStatus = "completed"
	ReservationCancelled ReservationStatus = "cancelled"
)

var (
	ErrAlreadyReserved     = errors.New("book already has an active reservation")
	ErrReservationNotFound = errors.New("reservation not found")
	ErrReservationClosed   = errors.New("reservation is already cancelled or completed")
	ErrReservedByOther     = errors.New("book is reserved by another user")
	ErrAlreadyIssued       = errors.New("book is already issued")
	ErrBookWithdrawn       = errors.New("book is withdrawn from circulation")
	ErrLoanNotFound        = errors.New("loan not found")
	ErrAlreadyReturned     = errors.New("loan is already returned")
	ErrNoActiveLoan        = errors.New("no active loan for this book")
)

// Reservation holds a book for one reader until its expiry date.
type Reservation struct {
	ID              int64             `json:"reservation_id"`
	UserID          int64             `json:"user_id"`
	BookID          int64             `json:"book_id"`
	ReservationDate time.Time         `json:"reservation_date"`
	ExpiryDate      time.Time         `json:"expiry_date"`
	Status          ReservationStatus `json:"status"`
}

// ActiveAt reports whether the reservation can still be claimed at the
// given instant: stored status active and expiry strictly in the future.
func (r *Reservation) ActiveAt(now time.Time) bool {
	return r.Status == ReservationActive && r.ExpiryDate.After(now)
}

// Loan records a book issued to a reader. ReturnDate is nil while the loan
// is open; it is set exactly once.
type Loan struct {
	ID         int64      `json:"loan_id"`
	UserID     int64      `json:"user_id"`
	BookID     int64      `json:"book_id"`
	IssueDate  time.Time  `json:"issue_date"`
	DueDate    time.Time  `json:"due_date"`
	ReturnDate *time.Time `json:"return_date"`
}

// Returned reports whether the loan is closed.
func (l *Loan) Returned() bool {
	return l.ReturnDate != nil
}

// issueGuard applies the loan-creation preconditions in order: withdrawn,
// already issued, reserved by someone else. active is the book's oldest
// active non-expired reservation, or nil.
func issueGuard(status catalog.Status, active *Reservation, userID int64) error {
	switch status {
	case catalog.StatusWithdrawn:
		return ErrBookWithdrawn
	case catalog.StatusIssued:
		return ErrAlreadyIssued
	}
	if active != nil && active.UserID != userID {
		return ErrReservedByOther
	}
	return nil
}

// statusAfterReturn decides the book's next status once a loan closes:
// reserved when another reader is waiting, available otherwise.
func statusAfterReturn(waiting *Reservation) catalog.Status {
	if waiting != nil {
		return catalog.StatusReserved
	}
	return catalog.StatusAvailable
}
