package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/coreman2200/funtimes-touchharp/internal/app"
	"github.com/coreman2200/funtimes-touchharp/internal/config"
)

func main() {
	var (
		configPath = flag.String("config", "config.yaml", "path to config.yaml")
		simOnly    = flag.Bool("sim-only", false, "log notes and draw lights on the console instead of real outputs")
		debug      = flag.Bool("debug", false, "log every note event")
		writeCfg   = flag.Bool("write-config", false, "write the default config to -config and exit")
	)
	flag.Parse()

	// ---- Logging ----
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	if *writeCfg {
		if err := config.Save(*configPath, config.Default()); err != nil {
			log.Fatal().Err(err).Str("path", *configPath).Msg("write config")
		}
		log.Info().Str("path", *configPath).Msg("default config written")
		return
	}

	// ---- Config ----
	cfg, err := config.Load(*configPath)
	if errors.Is(err, os.ErrNotExist) {
		log.Warn().Str("path", *configPath).Msg("no config file; using defaults")
		cfg = config.Default()
	} else if err != nil {
		log.Fatal().Err(err).Str("path", *configPath).Msg("config")
	}

	// ---- Hardware ----
	loop, release, err := app.Build(cfg, *simOnly)
	if err != nil {
		log.Fatal().Err(err).Msg("harp setup failed")
	}
	defer release()

	// ---- Run until signalled ----
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := loop.Run(ctx); err != nil {
		log.Warn().Err(err).Msg("shutdown")
	}
}
