// Package store provides the item storage contract and its backend
// implementations: an ephemeral in-memory map, a file-backed SQLite store,
// and a Redis-backed key-value store. All backends expose identical
// semantics for filtering, partial updates, identifier assignment, and
// not-found signaling.
package store

import (
	"context"
	"errors"
	"strings"

	"github.com/storeswitch/itemapi/internal/model"
)

// Store errors.
var (
	// ErrNotFound signals that no item exists for the requested ID. It is
	// a normal outcome, not a backend failure; backend faults are returned
	// as distinct wrapped errors and are never folded into ErrNotFound.
	ErrNotFound = errors.New("item not found")
)

// ListFilter narrows the result of List. The zero value matches every item.
//
// Name, when non-empty, selects items whose name contains it as a
// case-insensitive substring. MinPrice, when greater than zero, selects
// items with price >= MinPrice; a zero MinPrice means "no price filter".
// The zero-means-unset policy is safe because the transport layer rejects
// an explicit min_price <= 0 before the store is ever invoked.
type ListFilter struct {
	Name     string
	MinPrice float64
}

// Matches reports whether the item satisfies every active filter.
func (f ListFilter) Matches(item model.Item) bool {
	if f.Name != "" && !containsFold(item.Name, f.Name) {
		return false
	}

	if f.MinPrice > 0 && item.Price < f.MinPrice {
		return false
	}

	return true
}

// containsFold reports whether s contains substr ignoring case.
func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// Store defines the interface every storage backend must satisfy.
type Store interface {
	// List returns all items matching the filter. Result order is
	// backend-defined except for the SQLite backend, which orders by ID.
	List(ctx context.Context, filter ListFilter) ([]model.Item, error)

	// Get retrieves an item by its ID, or ErrNotFound.
	Get(ctx context.Context, id int64) (*model.Item, error)

	// Create stores a new item with a freshly allocated unique ID and
	// returns the stored record.
	Create(ctx context.Context, draft model.ItemDraft) (*model.Item, error)

	// Update merges the set fields of the patch onto the existing item and
	// persists the merged record, returning it. Fields omitted from the
	// patch keep their stored values. Returns ErrNotFound without writing
	// when the ID does not exist.
	Update(ctx context.Context, id int64, patch model.ItemPatch) (*model.Item, error)

	// Delete removes the item if present. The boolean reports whether a
	// record was actually removed.
	Delete(ctx context.Context, id int64) (bool, error)
}
