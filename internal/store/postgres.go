// internal/store/postgres.go
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Open connects to Postgres and verifies the connection.
func Open(dbURL string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return db, nil
}

var tracer = otel.Tracer("library/store")

// WithinTx runs fn inside a single transaction. The transaction is rolled
// back if fn returns an error or panics; otherwise it is committed. Every
// state-changing operation in the service goes through here so that book
// status, reservation status and loan rows land all-or-nothing.
func WithinTx(ctx context.Context, db *sql.DB, name string, fn func(*sql.Tx) error) error {
	ctx, span := tracer.Start(ctx, "store.tx",
		trace.WithAttributes(attribute.String("tx.name", name)),
	)
	defer span.End()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		span.RecordError(err)
		return err
	}

	if err := tx.Commit(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("commit transaction: %w", err)
	}

	span.SetAttributes(attribute.Bool("tx.committed", true))
	return nil
}

// IsUniqueViolation reports whether err is a Postgres unique constraint
// violation (a concurrent insert won the race).
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
