// internal/reports/implementation.go
package reports

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

const defaultLimit = 10

// service implements the Service interface.
type service struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewService creates a new reports service instance.
func NewService(db *sql.DB) Service {
	return &service{
		db:  sqlx.NewDb(db, "postgres"),
		now: time.Now,
	}
}

func (s *service) PopularBooks(ctx context.Context, limit int) ([]PopularBook, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	query := `
		SELECT b.book_id, b.title, b.author, COUNT(l.loan_id) AS loan_count
		FROM books b
		JOIN loans l ON l.book_id = b.book_id
		GROUP BY b.book_id, b.title, b.author
		ORDER BY loan_count DESC
		LIMIT $1
	`
	books := []PopularBook{}
	if err := s.db.SelectContext(ctx, &books, query, limit); err != nil {
		return nil, fmt.Errorf("popular books: %w", err)
	}
	return books, nil
}

func (s *service) OverdueLoans(ctx context.Context) ([]OverdueLoan, error) {
	query := `
		SELECT l.loan_id, u.name AS user_name, u.email AS user_email,
		       b.title AS book_title, l.due_date
		FROM loans l
		JOIN users u ON u.user_id = l.user_id
		JOIN books b ON b.book_id = l.book_id
		WHERE l.return_date IS NULL AND l.due_date < $1
		ORDER BY l.due_date
	`
	loans := []OverdueLoan{}
	if err := s.db.SelectContext(ctx, &loans, query, s.now().UTC()); err != nil {
		return nil, fmt.Errorf("overdue loans: %w", err)
	}
	return loans, nil
}

func (s *service) ReaderActivity(ctx context.Context, limit int) ([]ReaderActivity, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	query := `
		SELECT u.user_id, u.name, u.email, COUNT(l.loan_id) AS loan_count
		FROM users u
		JOIN loans l ON l.user_id = u.user_id
		WHERE u.role = 'reader'
		GROUP BY u.user_id, u.name, u.email
		ORDER BY loan_count DESC
		LIMIT $1
	`
	readers := []ReaderActivity{}
	if err := s.db.SelectContext(ctx, &readers, query, limit); err != nil {
		return nil, fmt.Errorf("reader activity: %w", err)
	}
	return readers, nil
}
