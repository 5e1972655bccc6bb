package storage

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/xaenox/cvformat-bot/internal/models"
)

const defaultMemoryCapacity = 10000

// MemoryStorage keeps pending states in an expiring LRU. The LRU evicts in the
// background; Get also checks the record age so expiry does not depend on the
// eviction tick.
type MemoryStorage struct {
	cache *expirable.LRU[string, models.PendingState]
	ttl   time.Duration
	now   func() time.Time
}

type MemoryOption func(*MemoryStorage)

// WithClock replaces time.Now, used by tests.
func WithClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStorage) {
		s.now = now
	}
}

func NewMemoryStorage(opts ...MemoryOption) *MemoryStorage {
	s := &MemoryStorage{
		ttl: PendingTTL,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	// The LRU only sweeps; its TTL is padded so the on-read check decides expiry.
	s.cache = expirable.NewLRU[string, models.PendingState](defaultMemoryCapacity, nil, s.ttl+time.Minute)
	return s
}

func (s *MemoryStorage) Put(ctx context.Context, key string, action models.Action) error {
	s.cache.Add(key, models.PendingState{
		ConversationKey: key,
		Action:          action,
		CreatedAt:       s.now(),
	})
	return nil
}

func (s *MemoryStorage) Get(ctx context.Context, key string) (*models.PendingState, error) {
	state, ok := s.cache.Get(key)
	if !ok {
		return nil, nil
	}
	if state.Expired(s.now(), s.ttl) {
		s.cache.Remove(key)
		return nil, nil
	}
	return &state, nil
}

func (s *MemoryStorage) Clear(ctx context.Context, key string) error {
	s.cache.Remove(key)
	return nil
}

func (s *MemoryStorage) Close() error {
	// Nothing to close for in-memory storage
	s.cache.Purge()
	return nil
}
