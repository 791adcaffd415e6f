// internal/reports/service.go
package reports

import "context"

// Service exposes the admin reports. All three are read-only projections
// over loans; nothing here mutates state.
type Service interface {
	PopularBooks(ctx context.Context, limit int) ([]PopularBook, error)
	OverdueLoans(ctx context.Context) ([]OverdueLoan, error)
	ReaderActivity(ctx context.Context, limit int) ([]ReaderActivity, error)
}
