package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/storeswitch/itemapi/internal/model"
)

// Redis key layout. The counter key deliberately lives outside the item
// prefix so a SCAN over items never picks it up.
const (
	itemKeyPrefix = "item:"
	nextIDKey     = "next_item_id"

	// scanBatchSize is the COUNT hint passed to SCAN.
	scanBatchSize = 100
)

// RedisStore implements Store on per-item JSON records in Redis. One
// RedisStore wraps the process-wide shared client and is safe for
// concurrent callers: ID allocation uses Redis INCR, which is atomic across
// everything sharing the client.
//
// Update is a read-modify-write, not a compare-and-swap: two concurrent
// updates to the same ID can lose one writer's change (last write wins).
// This is an accepted limitation of the backend, not a bug.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a RedisStore over the shared client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// itemKey builds the storage key for an item ID.
func itemKey(id int64) string {
	return fmt.Sprintf("%s%d", itemKeyPrefix, id)
}

// List enumerates all item keys with a cursor-based SCAN (never a blocking
// KEYS), bulk-fetches the records with MGET, and applies the filters in
// application code. No ordering is guaranteed.
func (s *RedisStore) List(ctx context.Context, filter ListFilter) ([]model.Item, error) {
	var keys []string

	iter := s.client.Scan(ctx, 0, itemKeyPrefix+"*", scanBatchSize).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scan item keys: %w", err)
	}

	items := make([]model.Item, 0, len(keys))
	if len(keys) == 0 {
		return items, nil
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("fetch items: %w", err)
	}

	for _, value := range values {
		raw, ok := value.(string)
		if !ok {
			// Key deleted between SCAN and MGET.
			continue
		}

		var item model.Item
		if err := json.Unmarshal([]byte(raw), &item); err != nil {
			return nil, fmt.Errorf("decode item record: %w", err)
		}

		if filter.Matches(item) {
			items = append(items, item)
		}
	}

	return items, nil
}

// Get fetches and decodes a single item record.
func (s *RedisStore) Get(ctx context.Context, id int64) (*model.Item, error) {
	raw, err := s.client.Get(ctx, itemKey(id)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}

	var item model.Item
	if err := json.Unmarshal([]byte(raw), &item); err != nil {
		return nil, fmt.Errorf("decode item record: %w", err)
	}

	return &item, nil
}

// Create allocates a fresh ID with an atomic INCR on the counter key and
// stores the serialized record. INCR guarantees uniqueness even when many
// concurrent requests share the client.
func (s *RedisStore) Create(ctx context.Context, draft model.ItemDraft) (*model.Item, error) {
	id, err := s.client.Incr(ctx, nextIDKey).Result()
	if err != nil {
		return nil, fmt.Errorf("allocate item ID: %w", err)
	}

	item := model.Item{
		ID:          id,
		Name:        draft.Name,
		Description: draft.Description,
		Price:       draft.Price,
	}

	if err := s.setItem(ctx, item); err != nil {
		return nil, err
	}

	return &item, nil
}

// Update fetches the current record, merges the patch, and overwrites the
// same key. See the type comment for the accepted last-write-wins race.
func (s *RedisStore) Update(ctx context.Context, id int64, patch model.ItemPatch) (*model.Item, error) {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	merged := patch.Apply(*existing)

	if err := s.setItem(ctx, merged); err != nil {
		return nil, err
	}

	return &merged, nil
}

// Delete removes the item key; the count of removed keys determines the
// result.
func (s *RedisStore) Delete(ctx context.Context, id int64) (bool, error) {
	removed, err := s.client.Del(ctx, itemKey(id)).Result()
	if err != nil {
		return false, fmt.Errorf("delete item: %w", err)
	}

	return removed > 0, nil
}

// setItem serializes and stores an item under its key.
func (s *RedisStore) setItem(ctx context.Context, item model.Item) error {
	raw, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("encode item record: %w", err)
	}

	if err := s.client.Set(ctx, itemKey(item.ID), raw, 0).Err(); err != nil {
		return fmt.Errorf("store item: %w", err)
	}

	return nil
}
