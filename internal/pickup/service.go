// internal/pickup/service.go
package pickup

import (
	"context"
	"time"

	"github.com/NureKhodanytskaYelyzaveta/ark-pzpi-23-3-khodanytska-yelyzaveta/internal/circulation"
)

// Service defines the interface for the pickup orchestrator.
type Service interface {
	// ReservationCode returns the current pickup code for an active
	// reservation and the instant it stops working (the top of the
	// current hour).
	ReservationCode(ctx context.Context, reservationID int64) (string, time.Time, error)
	// Unlock matches a typed code against every active reservation and,
	// on a hit, returns an unlocked session with the locker cell to
	// open. Nothing is mutated server-side.
	Unlock(ctx context.Context, code string) (*Session, error)
	// ConfirmPickup finalizes the handoff: the reservation is completed
	// and the loan created in one atomic unit. The loser of a race on
	// the same reservation gets ErrNoActiveReservation.
	ConfirmPickup(ctx context.Context, userID, bookID int64) (*circulation.Loan, error)
}
