// internal/circulation/fake_store_test.go
package circulation

import (
	"context"
	"time"

	"github.com/NureKhodanytskaYelyzaveta/ark-pzpi-23-3-khodanytska-yelyzaveta/internal/catalog"
)

// memStore is an in-memory Store for service tests. It applies writes
// directly; the rule-violation paths under test fail before any write, so
// rollback is not simulated.
type memStore struct {
	books        map[int64]catalog.Status
	reservations []*Reservation
	loans        []*Loan
	nextResID    int64
	nextLoanID   int64
}

func newMemStore() *memStore {
	return &memStore{
		books:      make(map[int64]catalog.Status),
		nextResID:  1,
		nextLoanID: 1,
	}
}

func (m *memStore) addBook(id int64, status catalog.Status) {
	m.books[id] = status
}

func (m *memStore) addReservation(r Reservation) *Reservation {
	r.ID = m.nextResID
	m.nextResID++
	stored := r
	m.reservations = append(m.reservations, &stored)
	return &stored
}

func (m *memStore) addLoan(l Loan) *Loan {
	l.ID = m.nextLoanID
	m.nextLoanID++
	stored := l
	m.loans = append(m.loans, &stored)
	return &stored
}

func (m *memStore) WithinTx(ctx context.Context, name string, fn func(Tx) error) error {
	return fn(m)
}

func (m *memStore) BookStatusForUpdate(ctx context.Context, bookID int64) (catalog.Status, error) {
	status, ok := m.books[bookID]
	if !ok {
		return "", catalog.ErrBookNotFound
	}
	return status, nil
}

func (m *memStore) SetBookStatus(ctx context.Context, bookID int64, status catalog.Status) error {
	m.books[bookID] = status
	return nil
}

func (m *memStore) OldestActiveReservation(ctx context.Context, bookID int64, now time.Time) (*Reservation, error) {
	return m.OtherActiveReservation(ctx, bookID, 0, now)
}

func (m *memStore) OtherActiveReservation(ctx context.Context, bookID, excludeID int64, now time.Time) (*Reservation, error) {
	for _, r := range m.reservations {
		if r.BookID == bookID && r.ID != excludeID && r.ActiveAt(now) {
			return r, nil
		}
	}
	return nil, nil
}

func (m *memStore) ReservationForUpdate(ctx context.Context, id int64) (*Reservation, error) {
	for _, r := range m.reservations {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, ErrReservationNotFound
}

func (m *memStore) SetReservationStatus(ctx context.Context, id int64, status ReservationStatus) error {
	r, err := m.ReservationForUpdate(ctx, id)
	if err != nil {
		return err
	}
	r.Status = status
	return nil
}

func (m *memStore) InsertReservation(ctx context.Context, r *Reservation) error {
	r.ID = m.nextResID
	m.nextResID++
	stored := *r
	m.reservations = append(m.reservations, &stored)
	return nil
}

func (m *memStore) LoanForUpdate(ctx context.Context, id int64) (*Loan, error) {
	for _, l := range m.loans {
		if l.ID == id {
			return l, nil
		}
	}
	return nil, ErrLoanNotFound
}

func (m *memStore) OpenLoanForBook(ctx context.Context, bookID int64) (*Loan, error) {
	for _, l := range m.loans {
		if l.BookID == bookID && !l.Returned() {
			return l, nil
		}
	}
	return nil, ErrNoActiveLoan
}

func (m *memStore) InsertLoan(ctx context.Context, l *Loan) error {
	l.ID = m.nextLoanID
	m.nextLoanID++
	stored := *l
	m.loans = append(m.loans, &stored)
	return nil
}

func (m *memStore) SetLoanReturned(ctx context.Context, id int64, at time.Time) error {
	l, err := m.LoanForUpdate(ctx, id)
	if err != nil {
		return err
	}
	l.ReturnDate = &at
	return nil
}

func (m *memStore) SetLoanDueDate(ctx context.Context, id int64, due time.Time) error {
	l, err := m.LoanForUpdate(ctx, id)
	if err != nil {
		return err
	}
	l.DueDate = due
	return nil
}

func (m *memStore) GetReservation(ctx context.Context, id int64) (*Reservation, error) {
	return m.ReservationForUpdate(ctx, id)
}

func (m *memStore) ActiveReservations(ctx context.Context, now time.Time) ([]*Reservation, error) {
	var out []*Reservation
	for _, r := range m.reservations {
		if r.ActiveAt(now) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memStore) ActiveReservationFor(ctx context.Context, userID, bookID int64, now time.Time) (*Reservation, error) {
	for _, r := range m.reservations {
		if r.UserID == userID && r.BookID == bookID && r.ActiveAt(now) {
			return r, nil
		}
	}
	return nil, nil
}

func (m *memStore) UserActiveReservations(ctx context.Context, userID int64, now time.Time) ([]*Reservation, error) {
	var out []*Reservation
	for _, r := range m.reservations {
		if r.UserID == userID && r.ActiveAt(now) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memStore) UserLoans(ctx context.Context, userID int64) ([]*Loan, error) {
	var out []*Loan
	for _, l := range m.loans {
		if l.UserID == userID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (m *memStore) UserActiveLoans(ctx context.Context, userID int64) ([]*Loan, error) {
	var out []*Loan
	for _, l := range m.loans {
		if l.UserID == userID && !l.Returned() {
			out = append(out, l)
		}
	}
	return out, nil
}
