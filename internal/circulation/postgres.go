// internal/circulation/postgres.go
package circulation

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/NureKhodanytskaYelyzaveta/ark-pzpi-23-3-khodanytska-yelyzaveta/internal/catalog"
	"github.com/NureKhodanytskaYelyzaveta/ark-pzpi-23-3-khodanytska-yelyzaveta/internal/store"
)

// postgresStore implements Store on top of *sql.DB.
type postgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates the production circulation store.
func NewPostgresStore(db *sql.DB) Store {
	return &postgresStore{db: db}
}

func (s *postgresStore) WithinTx(ctx context.Context, name string, fn func(Tx) error) error {
	return store.WithinTx(ctx, s.db, name, func(tx *sql.Tx) error {
		return fn(&pgTx{tx: tx})
	})
}

const reservationColumns = `reservation_id, user_id, book_id, reservation_date, expiry_date, status`
const loanColumns = `loan_id, user_id, book_id, issue_date, due_date, return_date`

func scanReservation(row interface{ Scan(...any) error }) (*Reservation, error) {
	r := &Reservation{}
	err := row.Scan(&r.ID, &r.UserID, &r.BookID, &r.ReservationDate, &r.ExpiryDate, &r.Status)
	if err != nil {
		return nil, err
	}
	return r, nil
}

func scanLoan(row interface{ Scan(...any) error }) (*Loan, error) {
	l := &Loan{}
	var returned sql.NullTime
	err := row.Scan(&l.ID, &l.UserID, &l.BookID, &l.IssueDate, &l.DueDate, &returned)
	if err != nil {
		return nil, err
	}
	if returned.Valid {
		t := returned.Time
		l.ReturnDate = &t
	}
	return l, nil
}

func (s *postgresStore) GetReservation(ctx context.Context, id int64) (*Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE reservation_id = $1`
	r, err := scanReservation(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrReservationNotFound
		}
		return nil, fmt.Errorf("get reservation: %w", err)
	}
	return r, nil
}

func (s *postgresStore) ActiveReservations(ctx context.Context, now time.Time) ([]*Reservation, error) {
	query := `
		SELECT ` + reservationColumns + `
		FROM reservations
		WHERE status = $1 AND expiry_date > $2
		ORDER BY reservation_date
	`
	return s.queryReservations(ctx, query, ReservationActive, now)
}

func (s *postgresStore) ActiveReservationFor(ctx context.Context, userID, bookID int64, now time.Time) (*Reservation, error) {
	query := `
		SELECT ` + reservationColumns + `
		FROM reservations
		WHERE user_id = $1 AND book_id = $2 AND status = $3 AND expiry_date > $4
		ORDER BY reservation_date
		LIMIT 1
	`
	r, err := scanReservation(s.db.QueryRowContext(ctx, query, userID, bookID, ReservationActive, now))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("active reservation for user/book: %w", err)
	}
	return r, nil
}

func (s *postgresStore) UserActiveReservations(ctx context.Context, userID int64, now time.Time) ([]*Reservation, error) {
	query := `
		SELECT ` + reservationColumns + `
		FROM reservations
		WHERE user_id = $1 AND status = $2 AND expiry_date > $3
		ORDER BY reservation_date
	`
	return s.queryReservations(ctx, query, userID, ReservationActive, now)
}

func (s *postgresStore) queryReservations(ctx context.Context, query string, args ...any) ([]*Reservation, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query reservations: %w", err)
	}
	defer rows.Close()

	var out []*Reservation
	for rows.Next() {
		r, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reservation: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reservations: %w", err)
	}
	return out, nil
}

func (s *postgresStore) UserLoans(ctx context.Context, userID int64) ([]*Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE user_id = $1 ORDER BY issue_date`
	return s.queryLoans(ctx, query, userID)
}

func (s *postgresStore) UserActiveLoans(ctx context.Context, userID int64) ([]*Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE user_id = $1 AND return_date IS NULL ORDER BY issue_date`
	return s.queryLoans(ctx, query, userID)
}

func (s *postgresStore) queryLoans(ctx context.Context, query string, args ...any) ([]*Loan, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query loans: %w", err)
	}
	defer rows.Close()

	var out []*Loan
	for rows.Next() {
		l, err := scanLoan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan loan: %w", err)
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate loans: %w", err)
	}
	return out, nil
}

// pgTx implements Tx over a live transaction.
type pgTx struct {
	tx *sql.Tx
}

func (t *pgTx) BookStatusForUpdate(ctx context.Context, bookID int64) (catalog.Status, error) {
	var status catalog.Status
	err := t.tx.QueryRowContext(ctx, `SELECT status FROM books WHERE book_id = $1 FOR UPDATE`, bookID).Scan(&status)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", catalog.ErrBookNotFound
		}
		return "", fmt.Errorf("lock book: %w", err)
	}
	return status, nil
}

func (t *pgTx) SetBookStatus(ctx context.Context, bookID int64, status catalog.Status) error {
	_, err := t.tx.ExecContext(ctx, `UPDATE books SET status = $1 WHERE book_id = $2`, status, bookID)
	if err != nil {
		return fmt.Errorf("update book status: %w", err)
	}
	return nil
}

func (t *pgTx) OldestActiveReservation(ctx context.Context, bookID int64, now time.Time) (*Reservation, error) {
	query := `
		SELECT ` + reservationColumns + `
		FROM reservations
		WHERE book_id = $1 AND status = $2 AND expiry_date > $3
		ORDER BY reservation_date
		LIMIT 1
	`
	r, err := scanReservation(t.tx.QueryRowContext(ctx, query, bookID, ReservationActive, now))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("oldest active reservation: %w", err)
	}
	return r, nil
}

func (t *pgTx) OtherActiveReservation(ctx context.Context, bookID, excludeID int64, now time.Time) (*Reservation, error) {
	query := `
		SELECT ` + reservationColumns + `
		FROM reservations
		WHERE book_id = $1 AND reservation_id <> $2 AND status = $3 AND expiry_date > $4
		ORDER BY reservation_date
		LIMIT 1
	`
	r, err := scanReservation(t.tx.QueryRowContext(ctx, query, bookID, excludeID, ReservationActive, now))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("other active reservation: %w", err)
	}
	return r, nil
}

func (t *pgTx) ReservationForUpdate(ctx context.Context, id int64) (*Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE reservation_id = $1 FOR UPDATE`
	r, err := scanReservation(t.tx.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrReservationNotFound
		}
		return nil, fmt.Errorf("lock reservation: %w", err)
	}
	return r, nil
}

func (t *pgTx) SetReservationStatus(ctx context.Context, id int64, status ReservationStatus) error {
	_, err := t.tx.ExecContext(ctx, `UPDATE reservations SET status = $1 WHERE reservation_id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("update reservation status: %w", err)
	}
	return nil
}

func (t *pgTx) InsertReservation(ctx context.Context, r *Reservation) error {
	query := `
		INSERT INTO reservations (user_id, book_id, reservation_date, expiry_date, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING reservation_id
	`
	err := t.tx.QueryRowContext(ctx, query, r.UserID, r.BookID, r.ReservationDate, r.ExpiryDate, r.Status).Scan(&r.ID)
	if err != nil {
		return fmt.Errorf("insert reservation: %w", err)
	}
	return nil
}

func (t *pgTx) LoanForUpdate(ctx context.Context, id int64) (*Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE loan_id = $1 FOR UPDATE`
	l, err := scanLoan(t.tx.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrLoanNotFound
		}
		return nil, fmt.Errorf("lock loan: %w", err)
	}
	return l, nil
}

func (t *pgTx) OpenLoanForBook(ctx context.Context, bookID int64) (*Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE book_id = $1 AND return_date IS NULL FOR UPDATE`
	l, err := scanLoan(t.tx.QueryRowContext(ctx, query, bookID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNoActiveLoan
		}
		return nil, fmt.Errorf("lock open loan: %w", err)
	}
	return l, nil
}

func (t *pgTx) InsertLoan(ctx context.Context, l *Loan) error {
	query := `
		INSERT INTO loans (user_id, book_id, issue_date, due_date)
		VALUES ($1, $2, $3, $4)
		RETURNING loan_id
	`
	err := t.tx.QueryRowContext(ctx, query, l.UserID, l.BookID, l.IssueDate, l.DueDate).Scan(&l.ID)
	if err != nil {
		return fmt.Errorf("insert loan: %w", err)
	}
	return nil
}

func (t *pgTx) SetLoanReturned(ctx context.Context, id int64, at time.Time) error {
	_, err := t.tx.ExecContext(ctx, `UPDATE loans SET return_date = $1 WHERE loan_id = $2`, at, id)
	if err != nil {
		return fmt.Errorf("update loan return date: %w", err)
	}
	return nil
}

func (t *pgTx) SetLoanDueDate(ctx context.Context, id int64, due time.Time) error {
	_, err := t.tx.ExecContext(ctx, `UPDATE loans SET due_date = $1 WHERE loan_id = $2`, due, id)
	if err != nil {
		return fmt.Errorf("update loan due date: %w", err)
	}
	return nil
}
