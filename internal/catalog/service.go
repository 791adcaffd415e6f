// internal/catalog/service.go
package catalog

import "context"

// NewBook carries the fields accepted when a librarian adds a copy.
type NewBook struct {
	Title     string    `json:"title"`
	Author    string    `json:"author"`
	Category  string    `json:"category"`
	ISBN      string    `json:"isbn"`
	Condition Condition `json:"condition"`
	Location  string    `json:"location"`
	Tags      string    `json:"tags"`
}

// BookUpdate is a partial update; nil fields are left untouched. A status
// change is validated against the transition rules before it is applied.
type BookUpdate struct {
	Title     *string    `json:"title"`
	Author    *string    `json:"author"`
	Category  *string    `json:"category"`
	ISBN      *string    `json:"isbn"`
	Condition *Condition `json:"condition"`
	Status    *Status    `json:"status"`
	Location  *string    `json:"location"`
	Tags      *string    `json:"tags"`
}

// Service defines the interface for the catalog service.
type Service interface {
	AddBook(ctx context.Context, nb NewBook) (*Book, error)
	GetBook(ctx context.Context, id int64) (*Book, error)
	UpdateBook(ctx context.Context, id int64, upd BookUpdate) (*Book, error)
	DeleteBook(ctx context.Context, id int64) error
	Search(ctx context.Context, query string) ([]*Book, error)
}
