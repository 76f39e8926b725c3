// Package cache puts a read-through cache in front of a tag store's ranking
// queries. Any fiber storage works as the backend; production uses Redis.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"tagratio/internal/models"
	"tagratio/internal/store"
)

// DefaultTTL bounds how long a ranking stays cached.
const DefaultTTL = 5 * time.Minute

const (
	keyPrefix     = "tagratio:top:"
	generationKey = keyPrefix + "generation"
)

// Storage is the subset of fiber.Storage the cache needs.
type Storage interface {
	Get(key string) ([]byte, error)
	Set(key string, val []byte, exp time.Duration) error
}

// Store caches TopTags results of the wrapped store. Cached rankings are
// keyed by a generation that every successful write bumps, so a ranking
// computed before a write is never served after it.
type Store struct {
	store.Store
	storage Storage
	ttl     time.Duration
	log     *zap.Logger
}

// New wraps s with a cache backed by storage.
func New(s store.Store, storage Storage, ttl time.Duration, log *zap.Logger) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{Store: s, storage: storage, ttl: ttl, log: log}
}

// TopTags serves from the cache, falling back to the wrapped store on a miss
// or a cache error.
func (c *Store) TopTags(ctx context.Context, n int) ([]string, error) {
	if n <= 0 {
		return nil, store.ErrInvalidTopN
	}

	key := c.key(n)
	if data, err := c.storage.Get(key); err != nil {
		c.log.Warn("cache get failed", zap.String("key", key), zap.Error(err))
	} else if data != nil {
		var tags []string
		if err := json.Unmarshal(data, &tags); err == nil && len(tags) > 0 {
			return tags, nil
		}
	}

	tags, err := c.Store.TopTags(ctx, n)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(tags); err == nil {
		if err := c.storage.Set(key, data, c.ttl); err != nil {
			c.log.Warn("cache set failed", zap.String("key", key), zap.Error(err))
		}
	}
	return tags, nil
}

// MergeTagRecords writes through and invalidates cached rankings.
func (c *Store) MergeTagRecords(ctx context.Context, records map[string]models.TagRecord) error {
	if err := c.Store.MergeTagRecords(ctx, records); err != nil {
		return err
	}
	return c.invalidate()
}

// ReplaceAllTagRecords writes through and invalidates cached rankings.
func (c *Store) ReplaceAllTagRecords(ctx context.Context, records map[string]models.TagRecord) error {
	if err := c.Store.ReplaceAllTagRecords(ctx, records); err != nil {
		return err
	}
	return c.invalidate()
}

func (c *Store) generation() string {
	data, err := c.storage.Get(generationKey)
	if err != nil || len(data) == 0 {
		return "0"
	}
	return string(data)
}

func (c *Store) key(n int) string {
	return keyPrefix + c.generation() + ":" + strconv.Itoa(n)
}

func (c *Store) invalidate() error {
	gen := strconv.FormatInt(time.Now().UnixNano(), 10)
	if err := c.storage.Set(generationKey, []byte(gen), 0); err != nil {
		return fmt.Errorf("failed to invalidate ranking cache: %w", err)
	}
	return nil
}
