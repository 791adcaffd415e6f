// internal/circulation/implementation.go
package circulation

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/NureKhodanytskaYelyzaveta/ark-pzpi-23-3-khodanytska-yelyzaveta/internal/catalog"
)

// service implements the Service interface. Every state-changing method
// runs as one store transaction: book status, reservation status and loan
// rows commit together or not at all.
type service struct {
	store       Store
	now         func() time.Time
	tracer      trace.Tracer
	loansIssued metric.Int64Counter
}

// NewService creates a new circulation service instance.
func NewService(store Store) Service {
	meter := otel.Meter("library/circulation")
	loansIssued, _ := meter.Int64Counter("library.loans.issued")
	return &service{
		store:       store,
		now:         time.Now,
		tracer:      otel.Tracer("library/circulation"),
		loansIssued: loansIssued,
	}
}

// Reserve creates a reservation with a 7-day window.
func (s *service) Reserve(ctx context.Context, userID, bookID int64) (*Reservation, error) {
	ctx, span := s.tracer.Start(ctx, "circulation.reserve",
		trace.WithAttributes(attribute.Int64("book.id", bookID), attribute.Int64("user.id", userID)),
	)
	defer span.End()

	now := s.now().UTC()
	reservation := &Reservation{
		UserID:          userID,
		BookID:          bookID,
		ReservationDate: now,
		ExpiryDate:      now.AddDate(0, 0, DefaultReservationDays),
		Status:          ReservationActive,
	}

	err := s.store.WithinTx(ctx, "circulation.reserve", func(tx Tx) error {
		status, err := tx.BookStatusForUpdate(ctx, bookID)
		if err != nil {
			return err
		}

		// The book row is locked, so this check and the insert below are
		// serialized against concurrent reserves on the same book.
		existing, err := tx.OldestActiveReservation(ctx, bookID, now)
		if err != nil {
			return err
		}
		if existing != nil {
			return ErrAlreadyReserved
		}

		if err := tx.InsertReservation(ctx, reservation); err != nil {
			return err
		}

		// An issued book keeps its status; the reservation queues behind
		// the open loan. Only an available book flips to reserved.
		if status == catalog.StatusAvailable {
			if err := tx.SetBookStatus(ctx, bookID, catalog.StatusReserved); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return reservation, nil
}

// Cancel closes an active reservation.
func (s *service) Cancel(ctx context.Context, reservationID int64) (*Reservation, error) {
	ctx, span := s.tracer.Start(ctx, "circulation.cancel",
		trace.WithAttributes(attribute.Int64("reservation.id", reservationID)),
	)
	defer span.End()

	now := s.now().UTC()
	var reservation *Reservation

	err := s.store.WithinTx(ctx, "circulation.cancel", func(tx Tx) error {
		res, err := tx.ReservationForUpdate(ctx, reservationID)
		if err != nil {
			return err
		}
		if res.Status != ReservationActive {
			return ErrReservationClosed
		}

		if err := tx.SetReservationStatus(ctx, res.ID, ReservationCancelled); err != nil {
			return err
		}
		res.Status = ReservationCancelled

		status, err := tx.BookStatusForUpdate(ctx, res.BookID)
		if err != nil {
			return err
		}
		if status == catalog.StatusReserved {
			// The single-active-reservation invariant means no other
			// holder should exist, but check before releasing the book.
			other, err := tx.OtherActiveReservation(ctx, res.BookID, res.ID, now)
			if err != nil {
				return err
			}
			if other == nil {
				if err := tx.SetBookStatus(ctx, res.BookID, catalog.StatusAvailable); err != nil {
					return err
				}
			}
		}

		reservation = res
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return reservation, nil
}

// Issue creates a loan, completing the requester's reservation if one is
// active.
func (s *service) Issue(ctx context.Context, userID, bookID int64, days int) (*Loan, error) {
	ctx, span := s.tracer.Start(ctx, "circulation.issue",
		trace.WithAttributes(attribute.Int64("book.id", bookID), attribute.Int64("user.id", userID)),
	)
	defer span.End()

	if days <= 0 {
		days = DefaultLoanDays
	}
	now := s.now().UTC()
	loan := &Loan{
		UserID:    userID,
		BookID:    bookID,
		IssueDate: now,
		DueDate:   now.AddDate(0, 0, days),
	}

	err := s.store.WithinTx(ctx, "circulation.issue", func(tx Tx) error {
		status, err := tx.BookStatusForUpdate(ctx, bookID)
		if err != nil {
			return err
		}

		active, err := tx.OldestActiveReservation(ctx, bookID, now)
		if err != nil {
			return err
		}
		if err := issueGuard(status, active, userID); err != nil {
			return err
		}

		if active != nil {
			if err := tx.SetReservationStatus(ctx, active.ID, ReservationCompleted); err != nil {
				return err
			}
		}
		if err := tx.InsertLoan(ctx, loan); err != nil {
			return err
		}
		return tx.SetBookStatus(ctx, bookID, catalog.StatusIssued)
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	s.loansIssued.Add(ctx, 1, metric.WithAttributes(attribute.Int64("book.id", bookID)))
	return loan, nil
}

// Return closes a loan by ID.
func (s *service) Return(ctx context.Context, loanID int64) (*Loan, error) {
	ctx, span := s.tracer.Start(ctx, "circulation.return",
		trace.WithAttributes(attribute.Int64("loan.id", loanID)),
	)
	defer span.End()

	var loan *Loan
	err := s.store.WithinTx(ctx, "circulation.return", func(tx Tx) error {
		l, err := tx.LoanForUpdate(ctx, loanID)
		if err != nil {
			return err
		}
		loan, err = s.closeLoan(ctx, tx, l)
		return err
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return loan, nil
}

// ReturnByBook closes the open loan for a book.
func (s *service) ReturnByBook(ctx context.Context, bookID int64) (*Loan, error) {
	ctx, span := s.tracer.Start(ctx, "circulation.return_by_book",
		trace.WithAttributes(attribute.Int64("book.id", bookID)),
	)
	defer span.End()

	var loan *Loan
	err := s.store.WithinTx(ctx, "circulation.return_by_book", func(tx Tx) error {
		l, err := tx.OpenLoanForBook(ctx, bookID)
		if err != nil {
			return err
		}
		loan, err = s.closeLoan(ctx, tx, l)
		return err
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return loan, nil
}

// closeLoan sets the return date and decides the book's next status:
// reserved when the oldest active unexpired reservation is waiting,
// available otherwise.
func (s *service) closeLoan(ctx context.Context, tx Tx, loan *Loan) (*Loan, error) {
	if loan.Returned() {
		return nil, ErrAlreadyReturned
	}

	now := s.now().UTC()
	if err := tx.SetLoanReturned(ctx, loan.ID, now); err != nil {
		return nil, err
	}
	loan.ReturnDate = &now

	if _, err := tx.BookStatusForUpdate(ctx, loan.BookID); err != nil {
		return nil, err
	}
	waiting, err := tx.OldestActiveReservation(ctx, loan.BookID, now)
	if err != nil {
		return nil, err
	}
	if err := tx.SetBookStatus(ctx, loan.BookID, statusAfterReturn(waiting)); err != nil {
		return nil, err
	}
	return loan, nil
}

// Extend pushes the due date of an open loan.
func (s *service) Extend(ctx context.Context, loanID int64, days int) (*Loan, error) {
	ctx, span := s.tracer.Start(ctx, "circulation.extend",
		trace.WithAttributes(attribute.Int64("loan.id", loanID)),
	)
	defer span.End()

	if days <= 0 {
		days = DefaultExtensionDays
	}

	var loan *Loan
	err := s.store.WithinTx(ctx, "circulation.extend", func(tx Tx) error {
		l, err := tx.LoanForUpdate(ctx, loanID)
		if err != nil {
			return err
		}
		if l.Returned() {
			return ErrAlreadyReturned
		}
		// TODO: cap the number of extensions once the lending policy
		// decides a limit; today they are unbounded.
		due := l.DueDate.AddDate(0, 0, days)
		if err := tx.SetLoanDueDate(ctx, l.ID, due); err != nil {
			return err
		}
		l.DueDate = due
		loan = l
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return loan, nil
}

func (s *service) GetReservation(ctx context.Context, id int64) (*Reservation, error) {
	return s.store.GetReservation(ctx, id)
}

func (s *service) ActiveReservations(ctx context.Context) ([]*Reservation, error) {
	return s.store.ActiveReservations(ctx, s.now().UTC())
}

func (s *service) ActiveReservationFor(ctx context.Context, userID, bookID int64) (*Reservation, error) {
	return s.store.ActiveReservationFor(ctx, userID, bookID, s.now().UTC())
}

func (s *service) UserActiveReservations(ctx context.Context, userID int64) ([]*Reservation, error) {
	return s.store.UserActiveReservations(ctx, userID, s.now().UTC())
}

func (s *service) UserLoans(ctx context.Context, userID int64) ([]*Loan, error) {
	return s.store.UserLoans(ctx, userID)
}

func (s *service) UserActiveLoans(ctx context.Context, userID int64) ([]*Loan, error) {
	return s.store.UserActiveLoans(ctx, userID)
}
