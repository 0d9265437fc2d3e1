// chessmind - watch the engine play itself, rendered with Ebitengine
package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hailam/chessmind/internal/engine"
	"github.com/hailam/chessmind/internal/match"
	"github.com/hailam/chessmind/internal/storage"
	"github.com/hailam/chessmind/internal/ui"
)

var (
	configPath = flag.String("config", "", "engine config file (JSON)")
	whiteDepth = flag.Int("white-depth", 0, "search depth for white (0 = config)")
	blackDepth = flag.Int("black-depth", 0, "search depth for black (0 = config)")
	budget     = flag.Duration("budget", 2*time.Second, "time budget per move")
	fen        = flag.String("fen", "", "start position (default: initial position)")
	persist    = flag.Bool("persist", true, "load and save the transposition cache")
	logLevel   = flag.String("log-level", "info", "log level")
)

func main() {
	flag.Parse()
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly})
	if lvl, err := zerolog.ParseLevel(*logLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	cfg, err := engine.LoadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	var store *storage.Storage
	if *persist {
		if store, err = storage.OpenDefault(); err != nil {
			log.Warn().Err(err).Msg("storage unavailable, cache will not persist")
			store = nil
		} else {
			defer store.Close()
		}
	}

	white := newPlayer(cfg, *whiteDepth, store)
	black := newPlayer(cfg, *blackDepth, store)

	m := match.New(white, black)
	if *fen != "" {
		if m, err = match.NewFromFEN(white, black, *fen); err != nil {
			log.Fatal().Err(err).Msg("invalid start position")
		}
	}

	viewer := ui.NewViewer("chessmind: " + white.Name() + " vs " + black.Name())
	m.Subscribe(viewer.Publish)
	white.Engine().OnInfo = viewer.ShowSearch
	black.Engine().OnInfo = viewer.ShowSearch

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		res, err := m.Play(ctx)
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("match aborted")
			return
		}
		if store != nil {
			if _, err := store.RecordMatch(res.Record(white.Name(), black.Name())); err != nil {
				log.Warn().Err(err).Msg("could not record match")
			}
		}
	}()

	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	if err := viewer.Run(); err != nil {
		log.Error().Err(err).Msg("viewer failed")
	}

	cancel()
	<-done
}

func newPlayer(cfg engine.Config, depth int, store *storage.Storage) *match.EnginePlayer {
	if depth > 0 {
		cfg.MaxDepth = depth
	}
	var cs engine.CacheStore
	if store != nil {
		cs = store
	}
	eng, err := engine.NewEngine(cfg, cs)
	if err != nil {
		log.Fatal().Err(err).Msg("cannot create engine")
	}
	return match.NewEnginePlayer(eng, *budget)
}
