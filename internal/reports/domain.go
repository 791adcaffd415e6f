// internal/reports/domain.go
package reports

import "time"

// PopularBook is a catalog entry ranked by how often it was loaned.
type PopularBook struct {
	BookID    int64  `db:"book_id" json:"book_id"`
	Title     string `db:"title" json:"title"`
	Author    string `db:"author" json:"author"`
	LoanCount int    `db:"loan_count" json:"loan_count"`
}

// OverdueLoan is an open loan past its due date, joined with the reader
// and book for the report.
type OverdueLoan struct {
	LoanID    int64     `db:"loan_id" json:"loan_id"`
	UserName  string    `db:"user_name" json:"user"`
	UserEmail string    `db:"user_email" json:"email"`
	BookTitle string    `db:"book_title" json:"book"`
	DueDate   time.Time `db:"due_date" json:"due_date"`
}

// ReaderActivity ranks readers by total loans taken.
type ReaderActivity struct {
	UserID    int64  `db:"user_id" json:"user_id"`
	Name      string `db:"name" json:"name"`
	Email     string `db:"email" json:"email"`
	LoanCount int    `db:"loan_count" json:"loan_count"`
}
