package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"leaderboard-service/models"
	"leaderboard-service/utils"
)

// CacheBackend is the injected cache port. The layer treats the cache as a
// performance optimization, never a source of truth: any backend error makes
// a read fall back to direct computation.
type CacheBackend interface {
	Get(key string) ([]byte, bool, error)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
}

// MemoryCache is the default in-process backend.
type MemoryCache struct {
	store *gocache.Cache
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{store: gocache.New(gocache.NoExpiration, 10*time.Minute)}
}

func (m *MemoryCache) Get(key string) ([]byte, bool, error) {
	v, ok := m.store.Get(key)
	if !ok {
		return nil, false, nil
	}
	data, ok := v.([]byte)
	if !ok {
		return nil, false, nil
	}
	return data, true, nil
}

func (m *MemoryCache) Set(key string, value []byte, ttl time.Duration) error {
	m.store.Set(key, value, ttl)
	return nil
}

func (m *MemoryCache) Delete(key string) error {
	m.store.Delete(key)
	return nil
}

// cachedBoard is the serialized cache value.
type cachedBoard struct {
	Entries  []models.LeaderboardEntry `json:"entries"`
	CachedAt time.Time                 `json:"cached_at"`
}

// CacheLayer is the read-through cache over the computer, keyed per scope
// instance. TTLs scale with how slowly each scope changes.
type CacheLayer struct {
	Backend  CacheBackend
	Computer *LeaderboardComputer
	Settings *utils.Settings
}

func NewCacheLayer(backend CacheBackend, computer *LeaderboardComputer, settings *utils.Settings) *CacheLayer {
	return &CacheLayer{Backend: backend, Computer: computer, Settings: settings}
}

// TTLFor returns the staleness window for a scope: in-progress tournaments
// change by the minute, season boards hourly, all-time daily.
func (l *CacheLayer) TTLFor(scope models.Scope) time.Duration {
	switch scope.Type {
	case models.ScopeTournament:
		return l.Settings.TournamentTTL
	case models.ScopeSeason:
		return l.Settings.SeasonTTL
	default:
		return l.Settings.AllTimeTTL
	}
}

// GetOrCompute serves the scope from cache when fresh, computing and priming
// on a miss. With caching disabled every read recomputes and the backend is
// never written; with computation disabled it returns an empty list with an
// explicit marker so callers can tell "feature off" from "no data".
func (l *CacheLayer) GetOrCompute(ctx context.Context, scope models.Scope) ([]models.LeaderboardEntry, models.Metadata, error) {
	if err := scope.Validate(); err != nil {
		return nil, models.Metadata{}, err
	}
	if !l.Settings.ComputationEnabled {
		return []models.LeaderboardEntry{}, models.Metadata{ComputationDisabled: true}, nil
	}
	if !l.Settings.CacheEnabled {
		entries, err := l.Computer.Compute(ctx, scope)
		if err != nil {
			return nil, models.Metadata{}, err
		}
		return entries, models.Metadata{Count: len(entries)}, nil
	}

	key, err := scope.CacheKey()
	if err != nil {
		return nil, models.Metadata{}, err
	}

	if data, hit, err := l.Backend.Get(key); err != nil {
		// cache is an optimization — fall back to computing directly
		log.Printf("[Cache] backend read failed for %s, computing directly: %v", key, err)
	} else if hit {
		var board cachedBoard
		if err := json.Unmarshal(data, &board); err != nil {
			log.Printf("[Cache] corrupt entry for %s, recomputing: %v", key, err)
		} else {
			cachedAt := board.CachedAt
			return board.Entries, models.Metadata{
				Count:    len(board.Entries),
				CacheHit: true,
				CachedAt: &cachedAt,
			}, nil
		}
	}

	entries, err := l.Computer.Compute(ctx, scope)
	if err != nil {
		return nil, models.Metadata{}, err
	}

	board := cachedBoard{Entries: entries, CachedAt: time.Now().UTC()}
	if data, err := json.Marshal(board); err == nil {
		if err := l.Backend.Set(key, data, l.TTLFor(scope)); err != nil {
			log.Printf("[Cache] backend write failed for %s: %v", key, err)
		}
	}
	return entries, models.Metadata{Count: len(entries)}, nil
}

// Invalidate removes exactly the key for the given scope instance. A season
// scope without a season id is a configuration error, mirroring the read
// side.
func (l *CacheLayer) Invalidate(scope models.Scope) error {
	key, err := scope.CacheKey()
	if err != nil {
		return err
	}
	if err := l.Backend.Delete(key); err != nil {
		return fmt.Errorf("invalidate %s: %w", key, err)
	}
	log.Printf("[Cache] invalidated %s", key)
	return nil
}
