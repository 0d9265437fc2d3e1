package engine

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"
)

// Config holds the tunable parameters of the engine.
type Config struct {
	MaxDepth          int          `json:"max_depth"`
	TimeBudgetMs      int          `json:"time_budget_ms"`
	QuiescenceDepth   int          `json:"quiescence_depth"`
	PieceValues       PieceValues  `json:"piece_values"`
	Jitter            bool         `json:"jitter"`
	Ordering          OrderingMode `json:"ordering"`
	SideAwareOrdering bool         `json:"side_aware_ordering"`
	CacheLimit        int          `json:"cache_limit"`
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() Config {
	return Config{
		MaxDepth:          3,
		TimeBudgetMs:      5000,
		QuiescenceDepth:   5,
		PieceValues:       StandardPieceValues,
		Ordering:          OrderByEvaluation,
		SideAwareOrdering: true,
	}
}

// TimeBudget returns the default wall-clock budget per decision.
func (c Config) TimeBudget() time.Duration {
	return time.Duration(c.TimeBudgetMs) * time.Millisecond
}

// Validate checks the configuration for values the search cannot work with.
func (c Config) Validate() error {
	if c.MaxDepth < 1 {
		return fmt.Errorf("%w: max depth %d", ErrInvalidDepth, c.MaxDepth)
	}
	if c.QuiescenceDepth < 0 {
		return fmt.Errorf("quiescence depth %d is negative", c.QuiescenceDepth)
	}
	if c.CacheLimit < 0 {
		return fmt.Errorf("cache limit %d is negative", c.CacheLimit)
	}
	return nil
}

// LoadConfig reads a JSON config file over the defaults. A missing file yields the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, err
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Difficulty represents the AI difficulty level.
type Difficulty int

const (
	Easy   Difficulty = iota // 2 ply, 1s
	Medium                   // 3 ply, 5s
	Hard                     // 4 ply, 10s
)

// DifficultySettings maps difficulty to search depth and time budget.
var DifficultySettings = map[Difficulty]struct {
	Depth  int
	Budget time.Duration
}{
	Easy:   {Depth: 2, Budget: time.Second},
	Medium: {Depth: 3, Budget: 5 * time.Second},
	Hard:   {Depth: 4, Budget: 10 * time.Second},
}

// ParseDifficulty converts a name to a Difficulty.
func ParseDifficulty(s string) (Difficulty, error) {
	switch s {
	case "easy":
		return Easy, nil
	case "medium":
		return Medium, nil
	case "hard":
		return Hard, nil
	}
	return Medium, fmt.Errorf("unknown difficulty %q", s)
}
