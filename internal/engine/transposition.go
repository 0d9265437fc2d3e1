package engine

import (
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"
)

// Bound indicates the type of score stored in the transposition cache.
type Bound uint8

const (
	BoundExact Bound = iota // Exact score
	BoundLower              // Failed high (beta cutoff)
	BoundUpper              // Failed low
)

// CacheEntry is the most deeply searched result known for one board key.
type CacheEntry struct {
	Score int32
	Depth int32
	Bound Bound
}

// CacheStore persists transposition entries between runs.
type CacheStore interface {
	LoadTranspositions() (map[string]CacheEntry, error)
	SaveTranspositions(entries map[string]CacheEntry) error
}

// TranspositionCache memoizes search results by board key.
type TranspositionCache struct {
	mu      sync.RWMutex
	entries map[string]CacheEntry
	dirty   map[string]struct{}
	limit   int

	// Statistics
	hits   atomic.Uint64
	probes atomic.Uint64
}

// NewTranspositionCache creates an empty cache holding at most limit entries (0 = unbounded).
func NewTranspositionCache(limit int) *TranspositionCache {
	return &TranspositionCache{
		entries: make(map[string]CacheEntry),
		dirty:   make(map[string]struct{}),
		limit:   limit,
	}
}

// Get looks up a key in the cache.
func (tc *TranspositionCache) Get(key string) (CacheEntry, bool) {
	tc.probes.Add(1)

	tc.mu.RLock()
	entry, ok := tc.entries[key]
	tc.mu.RUnlock()

	if ok {
		tc.hits.Add(1)
	}
	return entry, ok
}

// Contains reports whether key has an entry.
func (tc *TranspositionCache) Contains(key string) bool {
	tc.mu.RLock()
	defer tc.mu.RUnlock()
	_, ok := tc.entries[key]
	return ok
}

// Put stores an exact score searched to depth.
func (tc *TranspositionCache) Put(key string, score, depth int) {
	tc.PutBound(key, score, depth, BoundExact)
}

// PutBound stores a score of the given bound kind. An existing entry is only replaced when
// the new depth is at least the stored one.
func (tc *TranspositionCache) PutBound(key string, score, depth int, bound Bound) {
	tc.mu.Lock()
	defer tc.mu.Unlock()

	if old, ok := tc.entries[key]; ok {
		if int32(depth) < old.Depth {
			return
		}
	} else if tc.limit > 0 && len(tc.entries) >= tc.limit {
		return
	}

	tc.entries[key] = CacheEntry{Score: clampScore(score), Depth: int32(depth), Bound: bound}
	tc.dirty[key] = struct{}{}
}

// Len returns the number of entries.
func (tc *TranspositionCache) Len() int {
	tc.mu.RLock()
	defer tc.mu.RUnlock()
	return len(tc.entries)
}

// Clear removes all entries and statistics.
func (tc *TranspositionCache) Clear() {
	tc.mu.Lock()
	tc.entries = make(map[string]CacheEntry)
	tc.dirty = make(map[string]struct{})
	tc.mu.Unlock()
	tc.hits.Store(0)
	tc.probes.Store(0)
}

// Entries returns a copy of the full key -> entry mapping.
func (tc *TranspositionCache) Entries() map[string]CacheEntry {
	tc.mu.RLock()
	defer tc.mu.RUnlock()
	out := make(map[string]CacheEntry, len(tc.entries))
	for k, v := range tc.entries {
		out[k] = v
	}
	return out
}

// HitRate returns the cache hit rate as a percentage.
func (tc *TranspositionCache) HitRate() float64 {
	probes := tc.probes.Load()
	if probes == 0 {
		return 0
	}
	return float64(tc.hits.Load()) / float64(probes) * 100
}

// Load replaces the cache contents with what store holds. Any read or format failure leaves
// the cache empty; it is never fatal.
func (tc *TranspositionCache) Load(store CacheStore) {
	tc.Clear()
	if store == nil {
		return
	}
	entries, err := store.LoadTranspositions()
	if err != nil {
		log.Warn().Err(err).Msg("transposition cache unreadable, starting empty")
		return
	}

	tc.mu.Lock()
	for k, v := range entries {
		if tc.limit > 0 && len(tc.entries) >= tc.limit {
			break
		}
		tc.entries[k] = v
	}
	n := len(tc.entries)
	tc.mu.Unlock()
	log.Debug().Int("entries", n).Msg("transposition cache restored")
}

// Save writes every entry changed since the last save. Entries are never deleted, so the
// store ends up holding the full mapping.
func (tc *TranspositionCache) Save(store CacheStore) error {
	if store == nil {
		return nil
	}
	tc.mu.Lock()
	changed := make(map[string]CacheEntry, len(tc.dirty))
	for k := range tc.dirty {
		changed[k] = tc.entries[k]
	}
	tc.dirty = make(map[string]struct{})
	tc.mu.Unlock()

	if len(changed) == 0 {
		return nil
	}
	if err := store.SaveTranspositions(changed); err != nil {
		// Put them back so the next save retries.
		tc.mu.Lock()
		for k := range changed {
			tc.dirty[k] = struct{}{}
		}
		tc.mu.Unlock()
		return err
	}
	log.Debug().Int("entries", len(changed)).Msg("transposition cache saved")
	return nil
}

func clampScore(score int) int32 {
	if score > MaxScore {
		return MaxScore
	}
	if score < -MaxScore {
		return -MaxScore
	}
	return int32(score)
}
