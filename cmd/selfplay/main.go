// selfplay runs headless engine-vs-engine matches, records them and streams the live
// position to spectators over HTTP and WebSocket.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/hailam/chessmind/internal/engine"
	"github.com/hailam/chessmind/internal/match"
	"github.com/hailam/chessmind/internal/spectate"
	"github.com/hailam/chessmind/internal/storage"
)

var (
	games      = flag.Int("games", 1, "number of games; colours alternate")
	depthA     = flag.Int("depth-a", 3, "search depth of engine A")
	depthB     = flag.Int("depth-b", 2, "search depth of engine B")
	budget     = flag.Duration("budget", time.Second, "time budget per move")
	maxPlies   = flag.Int("max-plies", match.DefaultMaxPlies, "plies before a game is abandoned")
	configPath = flag.String("config", "", "engine config file (JSON)")
	dbDir      = flag.String("db", "", "database directory (default: platform data dir)")
	addr       = flag.String("addr", ":8080", "spectator listen address, empty to disable")
	logLevel   = flag.String("log-level", "info", "log level")
)

func main() {
	flag.Parse()
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly})
	if lvl, err := zerolog.ParseLevel(*logLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	if err := run(); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal().Err(err).Msg("selfplay failed")
	}
}

func run() error {
	cfg, err := engine.LoadConfig(*configPath)
	if err != nil {
		return err
	}

	var store *storage.Storage
	if *dbDir != "" {
		store, err = storage.Open(*dbDir)
	} else {
		store, err = storage.OpenDefault()
	}
	if err != nil {
		return err
	}
	defer store.Close()

	a, err := newPlayer(cfg, *depthA, store)
	if err != nil {
		return err
	}
	b, err := newPlayer(cfg, *depthB, store)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)

	hub := spectate.NewHub()
	srv := spectate.NewServer(hub, store, a.Engine().Cache(), b.Engine().Cache())
	if *addr != "" {
		server := &http.Server{Addr: *addr, Handler: srv.Router()}
		g.Go(func() error {
			hub.Run(ctx.Done())
			return nil
		})
		g.Go(func() error {
			log.Info().Str("addr", *addr).Msg("spectator server listening")
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		})
	}

	g.Go(func() error {
		defer stop() // the server goes down with the last game
		for i := 0; i < *games; i++ {
			white, black := a, b
			if i%2 == 1 {
				white, black = b, a
			}
			m := match.New(white, black)
			m.MaxPlies = *maxPlies
			m.Subscribe(srv.Publish)

			res, err := m.Play(ctx)
			if err != nil {
				return err
			}
			if _, err := store.RecordMatch(res.Record(white.Name(), black.Name())); err != nil {
				log.Warn().Err(err).Msg("could not record match")
			}
		}
		return nil
	})

	err = g.Wait()

	if stats, serr := store.LoadStats(); serr == nil {
		log.Info().
			Int("games", stats.GamesPlayed).
			Int("white_wins", stats.WhiteWins).
			Int("black_wins", stats.BlackWins).
			Int("draws", stats.Draws).
			Float64("white_score", stats.WhiteScore()).
			Msg("totals")
	}
	return err
}

func newPlayer(cfg engine.Config, depth int, store *storage.Storage) (*match.EnginePlayer, error) {
	cfg.MaxDepth = depth
	eng, err := engine.NewEngine(cfg, store)
	if err != nil {
		return nil, err
	}
	return match.NewEnginePlayer(eng, *budget), nil
}
