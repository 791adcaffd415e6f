// internal/pickup/implementation_test.go
package pickup

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"

	"github.com/NureKhodanytskaYelyzaveta/ark-pzpi-23-3-khodanytska-yelyzaveta/internal/circulation"
)

// fakeCirc implements the circulation methods the orchestrator uses;
// anything else panics via the embedded nil interface.
type fakeCirc struct {
	circulation.Service
	getReservation func(ctx context.Context, id int64) (*circulation.Reservation, error)
	actives        func(ctx context.Context) ([]*circulation.Reservation, error)
	activeFor      func(ctx context.Context, userID, bookID int64) (*circulation.Reservation, error)
	issue          func(ctx context.Context, userID, bookID int64, days int) (*circulation.Loan, error)
}

func (f *fakeCirc) GetReservation(ctx context.Context, id int64) (*circulation.Reservation, error) {
	return f.getReservation(ctx, id)
}

func (f *fakeCirc) ActiveReservations(ctx context.Context) ([]*circulation.Reservation, error) {
	return f.actives(ctx)
}

func (f *fakeCirc) ActiveReservationFor(ctx context.Context, userID, bookID int64) (*circulation.Reservation, error) {
	return f.activeFor(ctx, userID, bookID)
}

func (f *fakeCirc) Issue(ctx context.Context, userID, bookID int64, days int) (*circulation.Loan, error) {
	return f.issue(ctx, userID, bookID, days)
}

func newTestOrchestrator(circ circulation.Service, now time.Time) Service {
	counter, _ := otel.Meter("test").Int64Counter("test.pickups")
	return &service{
		circ:      circ,
		slotCount: DefaultSlotCount,
		now:       func() time.Time { return now },
		tracer:    otel.Tracer("test"),
		pickups:   counter,
	}
}

func claimable(id, userID, bookID int64) *circulation.Reservation {
	return &circulation.Reservation{
		ID:         id,
		UserID:     userID,
		BookID:     bookID,
		ExpiryDate: otpNow.AddDate(0, 0, 3),
		Status:     circulation.ReservationActive,
	}
}

func TestReservationCode(t *testing.T) {
	res := claimable(1, 7, 42)
	circ := &fakeCirc{
		getReservation: func(ctx context.Context, id int64) (*circulation.Reservation, error) {
			require.Equal(t, int64(1), id)
			return res, nil
		},
	}
	svc := newTestOrchestrator(circ, otpNow)

	code, validUntil, err := svc.ReservationCode(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, Code(res, otpNow), code)
	assert.Equal(t, time.Date(2026, time.March, 10, 13, 0, 0, 0, time.UTC), validUntil)
}

func TestReservationCodeInactive(t *testing.T) {
	expired := claimable(1, 7, 42)
	expired.ExpiryDate = otpNow.Add(-time.Minute)
	circ := &fakeCirc{
		getReservation: func(ctx context.Context, id int64) (*circulation.Reservation, error) {
			return expired, nil
		},
	}
	svc := newTestOrchestrator(circ, otpNow)

	_, _, err := svc.ReservationCode(context.Background(), 1)
	assert.ErrorIs(t, err, ErrNoActiveReservation)
}

func TestReservationCodeNotFound(t *testing.T) {
	circ := &fakeCirc{
		getReservation: func(ctx context.Context, id int64) (*circulation.Reservation, error) {
			return nil, circulation.ErrReservationNotFound
		},
	}
	svc := newTestOrchestrator(circ, otpNow)

	_, _, err := svc.ReservationCode(context.Background(), 404)
	assert.ErrorIs(t, err, circulation.ErrReservationNotFound)
}

func TestUnlockMatchesReservation(t *testing.T) {
	res := claimable(1, 7, 42)
	circ := &fakeCirc{
		actives: func(ctx context.Context) ([]*circulation.Reservation, error) {
			return []*circulation.Reservation{claimable(9, 3, 11), res}, nil
		},
	}
	svc := newTestOrchestrator(circ, otpNow)

	session, err := svc.Unlock(context.Background(), Code(res, otpNow))
	require.NoError(t, err)
	assert.Equal(t, SessionUnlocked, session.State)
	assert.Equal(t, "A3", session.Slot) // 42 mod 5 = 2 -> cell A3
	assert.Equal(t, int64(42), session.BookID)
	assert.Equal(t, int64(7), session.UserID)
	assert.Equal(t, int64(1), session.ReservationID)
	assert.NotEmpty(t, session.ID)
}

func TestUnlockStaleCodeFailsAfterRotation(t *testing.T) {
	res := claimable(1, 7, 42)
	circ := &fakeCirc{
		actives: func(ctx context.Context) ([]*circulation.Reservation, error) {
			return []*circulation.Reservation{res}, nil
		},
	}

	staleCode := Code(res, otpNow) // "043385"
	svc := newTestOrchestrator(circ, otpNow.Add(time.Hour))

	_, err := svc.Unlock(context.Background(), staleCode)
	assert.ErrorIs(t, err, ErrInvalidOTP)
}

func TestUnlockMalformedCodeSkipsStore(t *testing.T) {
	circ := &fakeCirc{
		actives: func(ctx context.Context) ([]*circulation.Reservation, error) {
			t.Fatal("store must not be touched for malformed input")
			return nil, nil
		},
	}
	svc := newTestOrchestrator(circ, otpNow)

	for _, code := range []string{"12345", "1234567", "12a456", ""} {
		_, err := svc.Unlock(context.Background(), code)
		assert.ErrorIs(t, err, ErrMalformedCode, "code %q", code)
	}
}

func TestUnlockNoMatch(t *testing.T) {
	circ := &fakeCirc{
		actives: func(ctx context.Context) ([]*circulation.Reservation, error) {
			return nil, nil
		},
	}
	svc := newTestOrchestrator(circ, otpNow)

	_, err := svc.Unlock(context.Background(), "000000")
	assert.ErrorIs(t, err, ErrInvalidOTP)
}

func TestConfirmPickupIssuesLoan(t *testing.T) {
	issued := false
	circ := &fakeCirc{
		activeFor: func(ctx context.Context, userID, bookID int64) (*circulation.Reservation, error) {
			return claimable(1, userID, bookID), nil
		},
		issue: func(ctx context.Context, userID, bookID int64, days int) (*circulation.Loan, error) {
			issued = true
			assert.Equal(t, int64(7), userID)
			assert.Equal(t, int64(42), bookID)
			assert.Zero(t, days, "pickup uses the default loan window")
			return &circulation.Loan{ID: 55, UserID: userID, BookID: bookID, DueDate: otpNow.AddDate(0, 0, 14)}, nil
		},
	}
	svc := newTestOrchestrator(circ, otpNow)

	loan, err := svc.ConfirmPickup(context.Background(), 7, 42)
	require.NoError(t, err)
	assert.True(t, issued)
	assert.Equal(t, int64(55), loan.ID)
}

func TestConfirmPickupWithoutReservation(t *testing.T) {
	circ := &fakeCirc{
		activeFor: func(ctx context.Context, userID, bookID int64) (*circulation.Reservation, error) {
			return nil, nil
		},
		issue: func(ctx context.Context, userID, bookID int64, days int) (*circulation.Loan, error) {
			t.Fatal("issue must not run without an active reservation")
			return nil, nil
		},
	}
	svc := newTestOrchestrator(circ, otpNow)

	// The losing terminal of a pickup race lands here: the winner's
	// commit already completed the reservation.
	_, err := svc.ConfirmPickup(context.Background(), 2, 5)
	assert.ErrorIs(t, err, ErrNoActiveReservation)
}
