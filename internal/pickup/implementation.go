// internal/pickup/implementation.go
package pickup

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/NureKhodanytskaYelyzaveta/ark-pzpi-23-3-khodanytska-yelyzaveta/internal/circulation"
)

// service implements the Service interface on top of the circulation
// service, which owns the transactional reservation-to-loan handoff.
type service struct {
	circ      circulation.Service
	slotCount int
	now       func() time.Time
	tracer    trace.Tracer
	pickups   metric.Int64Counter
}

// NewService creates a new pickup orchestrator. slotCount <= 0 selects the
// default locker bank size.
func NewService(circ circulation.Service, slotCount int) Service {
	if slotCount <= 0 {
		slotCount = DefaultSlotCount
	}
	meter := otel.Meter("library/pickup")
	pickups, _ := meter.Int64Counter("library.pickups.confirmed")
	return &service{
		circ:      circ,
		slotCount: slotCount,
		now:       time.Now,
		tracer:    otel.Tracer("library/pickup"),
		pickups:   pickups,
	}
}

func (s *service) ReservationCode(ctx context.Context, reservationID int64) (string, time.Time, error) {
	ctx, span := s.tracer.Start(ctx, "pickup.reservation_code",
		trace.WithAttributes(attribute.Int64("reservation.id", reservationID)),
	)
	defer span.End()

	res, err := s.circ.GetReservation(ctx, reservationID)
	if err != nil {
		span.RecordError(err)
		return "", time.Time{}, err
	}

	now := s.now()
	if !res.ActiveAt(now) {
		return "", time.Time{}, ErrNoActiveReservation
	}
	return Code(res, now), bucketEnd(hourBucket(now)), nil
}

func (s *service) Unlock(ctx context.Context, code string) (*Session, error) {
	ctx, span := s.tracer.Start(ctx, "pickup.unlock")
	defer span.End()

	if !wellFormed(code) {
		return nil, ErrMalformedCode
	}

	// O(active reservations) scan; acceptable because the active set is
	// bounded by catalog size.
	actives, err := s.circ.ActiveReservations(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	now := s.now()
	for _, res := range actives {
		if Code(res, now) != code {
			continue
		}
		span.SetAttributes(attribute.Int64("reservation.id", res.ID))
		return &Session{
			ID:            uuid.New(),
			State:         SessionUnlocked,
			Slot:          slotFor(res.BookID, s.slotCount),
			ReservationID: res.ID,
			BookID:        res.BookID,
			UserID:        res.UserID,
			CreatedAt:     now,
		}, nil
	}
	return nil, ErrInvalidOTP
}

func (s *service) ConfirmPickup(ctx context.Context, userID, bookID int64) (*circulation.Loan, error) {
	ctx, span := s.tracer.Start(ctx, "pickup.confirm",
		trace.WithAttributes(attribute.Int64("book.id", bookID), attribute.Int64("user.id", userID)),
	)
	defer span.End()

	res, err := s.circ.ActiveReservationFor(ctx, userID, bookID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if res == nil {
		return nil, ErrNoActiveReservation
	}

	// Issue completes the reservation and flips the book inside one
	// transaction; a racing terminal's confirm fails cleanly after this
	// commits because the reservation is no longer active.
	loan, err := s.circ.Issue(ctx, userID, bookID, 0)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	s.pickups.Add(ctx, 1, metric.WithAttributes(attribute.Int64("book.id", bookID)))
	return loan, nil
}
