package storage

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/hailam/chessmind/internal/engine"
)

// Storage keys
const (
	prefixTransposition = "tt/"
	prefixMatch         = "match/"
	keyStats            = "stats"
)

// entrySize is the encoded size of a transposition entry: score, depth, bound.
const entrySize = 4 + 4 + 1

// saveChunk bounds the number of transposition keys merged per transaction.
const saveChunk = 1000

// ErrCorruptEntry is returned when a stored transposition value has the wrong shape.
var ErrCorruptEntry = errors.New("corrupt transposition entry")

// MatchRecord describes a finished engine-vs-engine game.
type MatchRecord struct {
	ID       uuid.UUID     `json:"id"`
	White    string        `json:"white"`
	Black    string        `json:"black"`
	Result   string        `json:"result"` // "1-0", "0-1", "1/2-1/2" or "*" when unfinished
	Plies    int           `json:"plies"`
	Moves    []string      `json:"moves"`
	Duration time.Duration `json:"duration"`
	PlayedAt time.Time     `json:"played_at"`
}

// Stats aggregates all recorded matches.
type Stats struct {
	GamesPlayed   int           `json:"games_played"`
	WhiteWins     int           `json:"white_wins"`
	BlackWins     int           `json:"black_wins"`
	Draws         int           `json:"draws"`
	Unfinished    int           `json:"unfinished"`
	TotalPlies    int           `json:"total_plies"`
	TotalPlayTime time.Duration `json:"total_play_time"`
}

// WhiteScore returns White's score as a percentage (0-100), draws counting half.
func (s *Stats) WhiteScore() float64 {
	decided := s.WhiteWins + s.BlackWins + s.Draws
	if decided == 0 {
		return 0
	}
	return (float64(s.WhiteWins) + float64(s.Draws)/2) / float64(decided) * 100
}

// Storage wraps BadgerDB for persistent storage
type Storage struct {
	db *badger.DB
}

var _ engine.CacheStore = (*Storage)(nil)

// Open opens (creating if needed) the database in dir.
func Open(dir string) (*Storage, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil // Disable logging

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", dir, err)
	}
	return &Storage{db: db}, nil
}

// OpenDefault opens the database in the platform data directory.
func OpenDefault() (*Storage, error) {
	dbDir, err := GetDatabaseDir()
	if err != nil {
		return nil, err
	}
	return Open(dbDir)
}

// Close closes the database
func (s *Storage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func encodeEntry(e engine.CacheEntry) []byte {
	buf := make([]byte, entrySize)
	binary.BigEndian.PutUint32(buf[0:4], uint32(e.Score))
	binary.BigEndian.PutUint32(buf[4:8], uint32(e.Depth))
	buf[8] = byte(e.Bound)
	return buf
}

func decodeEntry(val []byte) (engine.CacheEntry, error) {
	if len(val) != entrySize || engine.Bound(val[8]) > engine.BoundUpper {
		return engine.CacheEntry{}, ErrCorruptEntry
	}
	return engine.CacheEntry{
		Score: int32(binary.BigEndian.Uint32(val[0:4])),
		Depth: int32(binary.BigEndian.Uint32(val[4:8])),
		Bound: engine.Bound(val[8]),
	}, nil
}

// LoadTranspositions reads every persisted transposition entry. A single malformed value
// fails the whole load; the stored entries are then dropped so later saves start from a
// readable store.
func (s *Storage) LoadTranspositions() (map[string]engine.CacheEntry, error) {
	entries := make(map[string]engine.CacheEntry)
	prefix := []byte(prefixTransposition)

	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			key := string(item.Key()[len(prefix):])
			err := item.Value(func(val []byte) error {
				e, err := decodeEntry(val)
				if err != nil {
					return fmt.Errorf("%w: key %q", err, key)
				}
				entries[key] = e
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if errors.Is(err, ErrCorruptEntry) {
		log.Warn().Err(err).Msg("dropping persisted transposition entries")
		if derr := s.ClearTranspositions(); derr != nil {
			return nil, errors.Join(err, derr)
		}
	}
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// SaveTranspositions merges entries into the store. A stored entry searched deeper than the
// incoming one is kept, so engines sharing a store never replace each other's deeper results.
func (s *Storage) SaveTranspositions(entries map[string]engine.CacheEntry) error {
	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for start := 0; start < len(keys); start += saveChunk {
		chunk := keys[start:min(start+saveChunk, len(keys))]
		var err error
		for attempt := 0; attempt < 3; attempt++ {
			err = s.db.Update(func(txn *badger.Txn) error {
				for _, k := range chunk {
					if err := mergeEntry(txn, k, entries[k]); err != nil {
						return err
					}
				}
				return nil
			})
			if !errors.Is(err, badger.ErrConflict) {
				break
			}
		}
		if err != nil {
			return fmt.Errorf("save transpositions: %w", err)
		}
	}
	return nil
}

// mergeEntry writes e under key unless the stored entry was searched deeper. An unreadable
// stored value is overwritten.
func mergeEntry(txn *badger.Txn, key string, e engine.CacheEntry) error {
	k := []byte(prefixTransposition + key)
	item, err := txn.Get(k)
	switch {
	case errors.Is(err, badger.ErrKeyNotFound):
	case err != nil:
		return err
	default:
		var old engine.CacheEntry
		err := item.Value(func(val []byte) error {
			var derr error
			old, derr = decodeEntry(val)
			return derr
		})
		if err == nil && old.Depth > e.Depth {
			return nil
		}
	}
	return txn.Set(k, encodeEntry(e))
}

// ClearTranspositions deletes every persisted transposition entry.
func (s *Storage) ClearTranspositions() error {
	return s.db.DropPrefix([]byte(prefixTransposition))
}

// RecordMatch stores a finished match and folds it into the statistics. A zero ID is
// replaced with a fresh one, which is returned.
func (s *Storage) RecordMatch(rec MatchRecord) (uuid.UUID, error) {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if rec.PlayedAt.IsZero() {
		rec.PlayedAt = time.Now()
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return uuid.Nil, err
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		stats, err := loadStats(txn)
		if err != nil {
			return err
		}
		stats.GamesPlayed++
		stats.TotalPlies += rec.Plies
		stats.TotalPlayTime += rec.Duration
		switch rec.Result {
		case engine.WhiteWins.String():
			stats.WhiteWins++
		case engine.BlackWins.String():
			stats.BlackWins++
		case engine.Draw.String():
			stats.Draws++
		default:
			stats.Unfinished++
		}

		statsData, err := json.Marshal(stats)
		if err != nil {
			return err
		}
		if err := txn.Set([]byte(keyStats), statsData); err != nil {
			return err
		}
		return txn.Set([]byte(prefixMatch+rec.ID.String()), data)
	})
	if err != nil {
		return uuid.Nil, err
	}

	log.Debug().Str("id", rec.ID.String()).Str("result", rec.Result).Int("plies", rec.Plies).Msg("match recorded")
	return rec.ID, nil
}

// LoadMatch returns one recorded match.
func (s *Storage) LoadMatch(id uuid.UUID) (*MatchRecord, error) {
	var rec MatchRecord
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(prefixMatch + id.String()))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		})
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// ListMatches returns all recorded matches, most recent first.
func (s *Storage) ListMatches() ([]MatchRecord, error) {
	var records []MatchRecord
	prefix := []byte(prefixMatch)

	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var rec MatchRecord
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			}); err != nil {
				return err
			}
			records = append(records, rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].PlayedAt.After(records[j].PlayedAt)
	})
	return records, nil
}

// LoadStats loads match statistics, returns empty stats if none were recorded
func (s *Storage) LoadStats() (*Stats, error) {
	var stats *Stats
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		stats, err = loadStats(txn)
		return err
	})
	return stats, err
}

func loadStats(txn *badger.Txn) (*Stats, error) {
	stats := &Stats{}
	item, err := txn.Get([]byte(keyStats))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return stats, nil // Use empty stats
	}
	if err != nil {
		return nil, err
	}
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, stats)
	})
	return stats, err
}
