// internal/catalog/implementation.go
package catalog

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/NureKhodanytskaYelyzaveta/ark-pzpi-23-3-khodanytska-yelyzaveta/internal/store"
)

// service implements the Service interface.
type service struct {
	db *sql.DB
}

// NewService creates a new catalog service instance.
func NewService(db *sql.DB) Service {
	return &service{db: db}
}

const bookColumns = `book_id, title, author, COALESCE(category, ''), COALESCE(isbn, ''), condition, status, COALESCE(location, ''), COALESCE(tags, ''), created_at`

func scanBook(row interface{ Scan(...any) error }) (*Book, error) {
	book := &Book{}
	err := row.Scan(
		&book.ID,
		&book.Title,
		&book.Author,
		&book.Category,
		&book.ISBN,
		&book.Condition,
		&book.Status,
		&book.Location,
		&book.Tags,
		&book.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return book, nil
}

// AddBook creates a new catalog entry in status available.
func (s *service) AddBook(ctx context.Context, nb NewBook) (*Book, error) {
	if nb.Title == "" || nb.Author == "" {
		return nil, fmt.Errorf("title and author are required")
	}
	if nb.Condition == "" {
		nb.Condition = ConditionGood
	}
	if !nb.Condition.Valid() {
		return nil, ErrInvalidCondition
	}

	query := `
		INSERT INTO books (title, author, category, isbn, condition, status, location, tags)
		VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), $5, $6, NULLIF($7, ''), NULLIF($8, ''))
		RETURNING ` + bookColumns
	row := s.db.QueryRowContext(ctx, query,
		nb.Title, nb.Author, nb.Category, nb.ISBN, nb.Condition, StatusAvailable, nb.Location, nb.Tags)

	book, err := scanBook(row)
	if err != nil {
		if store.IsUniqueViolation(err) {
			return nil, ErrISBNTaken
		}
		return nil, fmt.Errorf("insert book: %w", err)
	}
	return book, nil
}

// GetBook retrieves a book by its ID.
func (s *service) GetBook(ctx context.Context, id int64) (*Book, error) {
	query := `SELECT ` + bookColumns + ` FROM books WHERE book_id = $1`
	book, err := scanBook(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrBookNotFound
		}
		return nil, fmt.Errorf("get book: %w", err)
	}
	return book, nil
}

// UpdateBook applies a partial update. Status changes go through the
// transition rules, which is also the only door into withdrawn.
func (s *service) UpdateBook(ctx context.Context, id int64, upd BookUpdate) (*Book, error) {
	if upd.Condition != nil && !upd.Condition.Valid() {
		return nil, ErrInvalidCondition
	}
	if upd.Status != nil && !upd.Status.Valid() {
		return nil, ErrInvalidStatus
	}

	var book *Book
	err := store.WithinTx(ctx, s.db, "catalog.update_book", func(tx *sql.Tx) error {
		query := `SELECT ` + bookColumns + ` FROM books WHERE book_id = $1 FOR UPDATE`
		current, err := scanBook(tx.QueryRowContext(ctx, query, id))
		if err != nil {
			if err == sql.ErrNoRows {
				return ErrBookNotFound
			}
			return fmt.Errorf("lock book: %w", err)
		}

		if upd.Status != nil {
			if err := Transition(current.Status, *upd.Status); err != nil {
				return err
			}
			current.Status = *upd.Status
		}
		if upd.Title != nil {
			current.Title = *upd.Title
		}
		if upd.Author != nil {
			current.Author = *upd.Author
		}
		if upd.Category != nil {
			current.Category = *upd.Category
		}
		if upd.ISBN != nil {
			current.ISBN = *upd.ISBN
		}
		if upd.Condition != nil {
			current.Condition = *upd.Condition
		}
		if upd.Location != nil {
			current.Location = *upd.Location
		}
		if upd.Tags != nil {
			current.Tags = *upd.Tags
		}

		updateQuery := `
			UPDATE books
			SET title = $1, author = $2, category = NULLIF($3, ''), isbn = NULLIF($4, ''),
			    condition = $5, status = $6, location = NULLIF($7, ''), tags = NULLIF($8, '')
			WHERE book_id = $9
		`
		_, err = tx.ExecContext(ctx, updateQuery,
			current.Title, current.Author, current.Category, current.ISBN,
			current.Condition, current.Status, current.Location, current.Tags, id)
		if err != nil {
			if store.IsUniqueViolation(err) {
				return ErrISBNTaken
			}
			return fmt.Errorf("update book: %w", err)
		}

		book = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return book, nil
}

// DeleteBook removes a catalog entry. Only withdrawn books may be deleted.
func (s *service) DeleteBook(ctx context.Context, id int64) error {
	return store.WithinTx(ctx, s.db, "catalog.delete_book", func(tx *sql.Tx) error {
		var status Status
		err := tx.QueryRowContext(ctx, `SELECT status FROM books WHERE book_id = $1 FOR UPDATE`, id).Scan(&status)
		if err != nil {
			if err == sql.ErrNoRows {
				return ErrBookNotFound
			}
			return fmt.Errorf("lock book: %w", err)
		}
		if status != StatusWithdrawn {
			return ErrBookNotWithdrawn
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM books WHERE book_id = $1`, id); err != nil {
			return fmt.Errorf("delete book: %w", err)
		}
		return nil
	})
}

// Search finds books whose title, author or tags contain the query.
func (s *service) Search(ctx context.Context, query string) ([]*Book, error) {
	dbQuery := `
		SELECT ` + bookColumns + `
		FROM books
		WHERE title ILIKE $1 OR author ILIKE $1 OR tags ILIKE $1
		ORDER BY book_id
		LIMIT 50
	`
	rows, err := s.db.QueryContext(ctx, dbQuery, "%"+query+"%")
	if err != nil {
		return nil, fmt.Errorf("search books: %w", err)
	}
	defer rows.Close()

	var books []*Book
	for rows.Next() {
		book, err := scanBook(rows)
		if err != nil {
			return nil, fmt.Errorf("scan book: %w", err)
		}
		books = append(books, book)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate books: %w", err)
	}
	return books, nil
}
