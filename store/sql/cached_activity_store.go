package sqlstore

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/goliatone/go-contact-relay/core"
	repositorycache "github.com/goliatone/go-repository-cache/cache"
)

const activityCacheKeyPrefix = "contact-relay::activity::v1::limit::"

// ActivityBackend is the store a CachedActivityStore reads through to.
type ActivityBackend interface {
	core.ActivityRecorder
	core.ActivityReader
}

// CachedActivityStore serves List from a go-repository-cache service. Every
// Record drops the cached pages it has handed out. A page fetched while a
// Record was in flight is dropped instead of kept.
type CachedActivityStore struct {
	base  ActivityBackend
	cache repositorycache.CacheService

	mu         sync.Mutex
	keys       map[string]struct{}
	generation uint64
}

func NewCachedActivityStore(base ActivityBackend, cacheService repositorycache.CacheService) (*CachedActivityStore, error) {
	if base == nil {
		return nil, fmt.Errorf("sqlstore: base activity store is required")
	}
	if cacheService == nil {
		return nil, fmt.Errorf("sqlstore: activity cache service is required")
	}
	return &CachedActivityStore{base: base, cache: cacheService, keys: map[string]struct{}{}}, nil
}

// ActivityCacheKey is the cache key for a page of the given size.
func ActivityCacheKey(limit int) string {
	return activityCacheKeyPrefix + strconv.Itoa(normalizeLimit(limit))
}

func (s *CachedActivityStore) List(ctx context.Context, limit int) ([]core.ActivityEntry, error) {
	if s == nil || s.base == nil || s.cache == nil {
		return nil, fmt.Errorf("sqlstore: cached activity store is not configured")
	}
	key := ActivityCacheKey(limit)
	s.mu.Lock()
	generation := s.generation
	s.mu.Unlock()

	entries, err := repositorycache.GetOrFetch(ctx, s.cache, key, func(ctx context.Context) ([]core.ActivityEntry, error) {
		return s.base.List(ctx, limit)
	})
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	stale := generation != s.generation
	if !stale {
		s.keys[key] = struct{}{}
	}
	s.mu.Unlock()
	if stale {
		if err := s.cache.Delete(ctx, key); err != nil {
			return nil, err
		}
	}
	return cloneEntries(entries), nil
}

func (s *CachedActivityStore) Record(ctx context.Context, entry core.ActivityEntry) error {
	if s == nil || s.base == nil || s.cache == nil {
		return fmt.Errorf("sqlstore: cached activity store is not configured")
	}
	if err := s.base.Record(ctx, entry); err != nil {
		return err
	}

	s.mu.Lock()
	s.generation++
	keys := make([]string, 0, len(s.keys))
	for key := range s.keys {
		keys = append(keys, key)
	}
	s.keys = map[string]struct{}{}
	s.mu.Unlock()

	for _, key := range keys {
		if err := s.cache.Delete(ctx, key); err != nil {
			return err
		}
	}
	return nil
}

func cloneEntries(entries []core.ActivityEntry) []core.ActivityEntry {
	out := make([]core.ActivityEntry, len(entries))
	for i, entry := range entries {
		out[i] = entry
		if entry.OccurredAt != nil {
			occurred := *entry.OccurredAt
			out[i].OccurredAt = &occurred
		}
	}
	return out
}
