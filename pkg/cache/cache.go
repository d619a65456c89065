package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/unieats/unieats-backend/pkg/redis"
)

// Store is the subset of the redis client the cache needs.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	CacheKey(parts ...string) string
}

// Service is a read-through response cache keyed by resource identifiers.
// The TTL is fixed at construction so every caller of one instance shares a
// single staleness window.
type Service struct {
	store Store
	ttl   time.Duration
}

// NewService builds a cache over the given store with a fixed TTL.
func NewService(store Store, ttl time.Duration) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("ttl must be positive")
	}
	return &Service{store: store, ttl: ttl}, nil
}

// GetJSON loads the cached value at the derived key into dest. It returns
// false on a miss; a corrupt entry counts as a miss so callers re-fetch.
func (s *Service) GetJSON(ctx context.Context, dest any, keyParts ...string) (bool, error) {
	raw, err := s.store.Get(ctx, s.store.CacheKey(keyParts...))
	if err != nil {
		if redis.IsNil(err) {
			return false, nil
		}
		return false, fmt.Errorf("cache get: %w", err)
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		return false, nil
	}
	return true, nil
}

// SetJSON stores value at the derived key for the configured TTL.
func (s *Service) SetJSON(ctx context.Context, value any, keyParts ...string) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache marshal: %w", err)
	}
	if err := s.store.Set(ctx, s.store.CacheKey(keyParts...), string(raw), s.ttl); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

// Invalidate drops the entry at the derived key.
func (s *Service) Invalidate(ctx context.Context, keyParts ...string) error {
	return s.store.Del(ctx, s.store.CacheKey(keyParts...))
}
