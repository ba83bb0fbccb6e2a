// Package store is the data-access layer for the assistant's domain records.
// Records are addressed by entity name (see internal/models) and filtered with
// column predicates, so the dispatcher stays independent of the backing engine.
package store

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound      = errors.New("RECORD_NOT_FOUND")
	ErrUnknownEntity = errors.New("UNKNOWN_ENTITY")
	ErrTxClosed      = errors.New("TRANSACTION_CLOSED")
)

// Predicate maps a column to a required value. Values are matched by equality
// unless they are a Range or Compare, which express interval and threshold
// conditions respectively.
type Predicate map[string]any

// Range filters a timestamp column to [From, To).
type Range struct {
	From time.Time
	To   time.Time
}

// Compare filters a numeric column against a threshold.
// Op is one of ">", "<", "=".
type Compare struct {
	Op    string
	Value float64
}

// Options control result ordering and size for FindMany.
type Options struct {
	OrderBy    string
	Descending bool
	Limit      int
}

// Reader is the query half of the store.
type Reader interface {
	// FindOne returns the record with the given id or ErrNotFound.
	FindOne(ctx context.Context, entity string, id int64) (any, error)
	// FindMany returns all records matching pred, subject to opts.
	FindMany(ctx context.Context, entity string, pred Predicate, opts Options) ([]any, error)
	// Count returns the number of records matching pred.
	Count(ctx context.Context, entity string, pred Predicate) (int64, error)
}

// Writer is the mutation half of the store.
type Writer interface {
	// Create persists a new record and returns its assigned id.
	Create(ctx context.Context, entity string, record any) (int64, error)
	// Update sets the given columns on the record with the given id.
	Update(ctx context.Context, entity string, id int64, fields map[string]any) error
	// Delete removes the record with the given id.
	Delete(ctx context.Context, entity string, id int64) error
}

// Store is implemented by the postgres backend and by the in-memory backend
// used in tests and dev mode.
type Store interface {
	Reader
	Writer
	// Begin opens a transaction. Every multi-step mutation in the dispatcher
	// runs inside one so partial failures roll back cleanly.
	Begin(ctx context.Context) (Tx, error)
}

// Tx is a transactional view of the store.
type Tx interface {
	Reader
	Writer
	Commit() error
	Rollback() error
}
