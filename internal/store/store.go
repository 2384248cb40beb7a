package store

import (
	"context"
	"errors"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidState = errors.New("invalid state transition")
	ErrInvalidInput = errors.New("invalid input")
)

// Collection keys. Each key holds one JSON array of the matching entity.
const (
	KeyUsers           = "users"
	KeyProducts        = "products"
	KeyInventory       = "inventory"
	KeyTransactions    = "transactions"
	KeySuspendedOrders = "suspended_orders"
	KeyExpenses        = "expenses"
	KeyInitialized     = "galaxy_inn_initialized"
)

// Entry is one key/value pair of a SetMany batch. Value is JSON-encoded by the backend.
type Entry struct {
	Key   string
	Value any
}

// KV is the persistence provider behind the repository. Get decodes the stored JSON
// document into dest and reports whether the key existed. SetMany writes all entries
// or none.
type KV interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any) error
	SetMany(ctx context.Context, entries []Entry) error
	Close() error
}
