package engine

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()

	t.Run("Missing", func(t *testing.T) {
		cfg, err := LoadConfig(filepath.Join(dir, "none.json"))
		if err != nil {
			t.Fatal(err)
		}
		if cfg != DefaultConfig() {
			t.Errorf("missing file did not yield defaults: %+v", cfg)
		}
	})

	t.Run("Override", func(t *testing.T) {
		path := filepath.Join(dir, "cfg.json")
		data := `{"max_depth": 5, "jitter": true, "ordering": 1}`
		if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
			t.Fatal(err)
		}
		cfg, err := LoadConfig(path)
		if err != nil {
			t.Fatal(err)
		}
		if cfg.MaxDepth != 5 || !cfg.Jitter || cfg.Ordering != OrderByCapture {
			t.Errorf("overrides not applied: %+v", cfg)
		}
		if cfg.QuiescenceDepth != 5 || cfg.TimeBudget() != 5*time.Second {
			t.Errorf("defaults lost: %+v", cfg)
		}
	})

	t.Run("Invalid", func(t *testing.T) {
		path := filepath.Join(dir, "bad.json")
		if err := os.WriteFile(path, []byte(`{"max_depth": 0}`), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadConfig(path); !errors.Is(err, ErrInvalidDepth) {
			t.Errorf("err = %v, want ErrInvalidDepth", err)
		}
	})
}

func TestDifficulty(t *testing.T) {
	eng, err := NewEngine(DefaultConfig(), nil)
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"easy", "medium", "hard"} {
		d, err := ParseDifficulty(name)
		if err != nil {
			t.Fatal(err)
		}
		eng.SetDifficulty(d)
		cfg := eng.Config()
		want := DifficultySettings[d]
		if cfg.MaxDepth != want.Depth || cfg.TimeBudget() != want.Budget {
			t.Errorf("%s: depth %d budget %v", name, cfg.MaxDepth, cfg.TimeBudget())
		}
	}
	if _, err := ParseDifficulty("impossible"); err == nil {
		t.Error("expected error for unknown difficulty")
	}
}
