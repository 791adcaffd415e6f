// internal/pickup/domain.go
package pickup

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DefaultSlotCount matches the physical locker bank: cells A1 through A5.
const DefaultSlotCount = 5

var (
	ErrMalformedCode       = errors.New("OTP must be exactly 6 digits")
	ErrInvalidOTP          = errors.New("invalid or expired OTP")
	ErrNoActiveReservation = errors.New("no active reservation for this user and book")
)

// SessionState tracks a pickup session at the terminal.
type SessionState string

const (
	SessionAwaitingCode SessionState = "awaiting_code"
	SessionUnlocked     SessionState = "unlocked"
	SessionConfirmed    SessionState = "confirmed"
	SessionAbandoned    SessionState = "abandoned"
)

// Session is the value object handed to the terminal after a successful
// unlock. It is held by the caller, never persisted server-side: an
// abandoned session simply never comes back for confirmation and the
// reservation stays claimable until it expires.
type Session struct {
	ID            uuid.UUID    `json:"session_id"`
	State         SessionState `json:"state"`
	Slot          string       `json:"locker_id"`
	ReservationID int64        `json:"reservation_id"`
	BookID        int64        `json:"book_id"`
	UserID        int64        `json:"user_id"`
	CreatedAt     time.Time    `json:"created_at"`
}

// slotFor maps a book to a locker cell. Different books can share a cell;
// only one physical pickup is in flight at a time in this deployment, so
// the collision is harmless. A multi-terminal setup would need a real
// slot-allocation table.
func slotFor(bookID int64, slotCount int) string {
	return fmt.Sprintf("A%d", bookID%int64(slotCount)+1)
}
