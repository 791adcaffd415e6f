// internal/catalog/domain.go
package catalog

import (
	"errors"
	"fmt"
	"time"
)

// Status is the circulation status of a book. A single physical copy is
// tracked per record, so the status is the whole availability story.
type Status string

const (
	StatusAvailable Status = "available"
	StatusIssued    Status = "issued"
	StatusReserved  Status = "reserved"
	StatusWithdrawn Status = "withdrawn"
)

// Condition describes the physical condition of a copy.
type Condition string

const (
	ConditionNew  Condition = "new"
	ConditionGood Condition = "good"
	ConditionFair Condition = "fair"
	ConditionPoor Condition = "poor"
)

var (
	ErrBookNotFound      = errors.New("book not found")
	ErrBookNotWithdrawn  = errors.New("only withdrawn books may be deleted")
	ErrInvalidStatus     = errors.New("invalid book status")
	ErrInvalidCondition  = errors.New("invalid book condition")
	ErrInvalidTransition = errors.New("invalid book status transition")
	ErrISBNTaken         = errors.New("a book with this ISBN already exists")
)

// Book represents a single physical copy in the catalog.
type Book struct {
	ID        int64     `json:"book_id"`
	Title     string    `json:"title"`
	Author    string    `json:"author"`
	Category  string    `json:"category,omitempty"`
	ISBN      string    `json:"isbn,omitempty"`
	Condition Condition `json:"condition"`
	Status    Status    `json:"status"`
	Location  string    `json:"location,omitempty"`
	Tags      string    `json:"tags,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Valid reports whether s is a known status value.
func (s Status) Valid() bool {
	switch s {
	case StatusAvailable, StatusIssued, StatusReserved, StatusWithdrawn:
		return true
	}
	return false
}

// Valid reports whether c is a known condition value.
func (c Condition) Valid() bool {
	switch c {
	case ConditionNew, ConditionGood, ConditionFair, ConditionPoor:
		return true
	}
	return false
}

// Transition validates a status change. Withdrawn is terminal: nothing
// leads out of it, and a book enters it only via an explicit catalog
// update. Issued and reserved exclude each other per book; a reserved book
// becomes issued only through the reservation holder's pickup, which the
// circulation layer verifies before asking for this transition.
func Transition(from, to Status) error {
	if !to.Valid() {
		return ErrInvalidStatus
	}
	if from == to {
		return nil
	}
	if from == StatusWithdrawn {
		return fmt.Errorf("%w: book is withdrawn", ErrInvalidTransition)
	}
	switch to {
	case StatusAvailable, StatusIssued, StatusWithdrawn:
		return nil
	case StatusReserved:
		if from == StatusAvailable || from == StatusIssued {
			return nil
		}
		return fmt.Errorf("%w: cannot reserve a book in status %q", ErrInvalidTransition, from)
	}
	return ErrInvalidStatus
}
