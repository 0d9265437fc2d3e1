package main

import (
	"flag"
	"os"

	"github.com/pkg/profile"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hailam/chessmind/internal/engine"
	"github.com/hailam/chessmind/internal/storage"
	"github.com/hailam/chessmind/internal/uci"
)

var (
	cpuprofile = flag.String("cpuprofile", "", "write a cpu profile to this directory")
	configPath = flag.String("config", "", "engine config file (JSON)")
	persist    = flag.Bool("persist", true, "load and save the transposition cache")
	logLevel   = flag.String("log-level", "warn", "log level (logs go to stderr)")
)

func main() {
	flag.Parse()

	// stdout belongs to the protocol.
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, NoColor: true})
	if lvl, err := zerolog.ParseLevel(*logLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	// Start CPU profiling if requested (via flag or environment variable)
	profilePath := *cpuprofile
	if profilePath == "" {
		profilePath = os.Getenv("CPUPROFILE")
	}
	if profilePath != "" {
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(profilePath), profile.Quiet).Stop()
		log.Info().Str("dir", profilePath).Msg("cpu profiling enabled")
	}

	cfg, err := engine.LoadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	var cs engine.CacheStore
	if *persist {
		store, err := storage.OpenDefault()
		if err != nil {
			log.Warn().Err(err).Msg("storage unavailable, cache will not persist")
		} else {
			defer store.Close()
			cs = store
		}
	}

	eng, err := engine.NewEngine(cfg, cs)
	if err != nil {
		log.Fatal().Err(err).Msg("cannot create engine")
	}

	protocol := uci.New(eng, os.Stdin, os.Stdout)
	if err := protocol.Run(); err != nil {
		log.Error().Err(err).Msg("reading commands")
	}
}
