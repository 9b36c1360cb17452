package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/storeswitch/itemapi/internal/model"
)

// MemoryStore implements Store with an in-process map. It is intentionally
// non-durable: destroying the instance destroys all data, which makes it
// suitable for development and as a test double.
//
// A single MemoryStore may be shared across concurrent requests; the mutex
// covers both the item map and the ID counter, so ID allocation cannot race.
type MemoryStore struct {
	mu     sync.RWMutex
	items  map[int64]model.Item
	nextID int64
}

// NewMemoryStore creates a new MemoryStore instance.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		items:  make(map[int64]model.Item),
		nextID: 1,
	}
}

// List returns all items matching the filter, applied by a full scan.
func (s *MemoryStore) List(ctx context.Context, filter ListFilter) ([]model.Item, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("list items: %w", ctx.Err())
	default:
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]model.Item, 0, len(s.items))
	for _, item := range s.items {
		if filter.Matches(item) {
			items = append(items, item)
		}
	}

	return items, nil
}

// Get retrieves an item by its ID.
func (s *MemoryStore) Get(ctx context.Context, id int64) (*model.Item, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("get item: %w", ctx.Err())
	default:
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	item, exists := s.items[id]
	if !exists {
		return nil, ErrNotFound
	}

	return &item, nil
}

// Create stores a new item under a freshly allocated ID. IDs are assigned
// monotonically and never reused within the lifetime of the instance.
func (s *MemoryStore) Create(ctx context.Context, draft model.ItemDraft) (*model.Item, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("create item: %w", ctx.Err())
	default:
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	item := model.Item{
		ID:          s.nextID,
		Name:        draft.Name,
		Description: draft.Description,
		Price:       draft.Price,
	}

	s.items[item.ID] = item
	s.nextID++

	return &item, nil
}

// Update merges the patch onto an existing item and stores the result.
func (s *MemoryStore) Update(ctx context.Context, id int64, patch model.ItemPatch) (*model.Item, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("update item: %w", ctx.Err())
	default:
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.items[id]
	if !exists {
		return nil, ErrNotFound
	}

	merged := patch.Apply(existing)
	s.items[id] = merged

	return &merged, nil
}

// Delete removes the item if present and reports whether a record was
// actually removed.
func (s *MemoryStore) Delete(ctx context.Context, id int64) (bool, error) {
	select {
	case <-ctx.Done():
		return false, fmt.Errorf("delete item: %w", ctx.Err())
	default:
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.items[id]; !exists {
		return false, nil
	}

	delete(s.items, id)

	return true, nil
}
