package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"hbnb_api/internal/adapters/observability"
	"hbnb_api/internal/app"
	"hbnb_api/internal/domain"
	"hbnb_api/internal/seed"
	"hbnb_api/internal/shared"
	"hbnb_api/internal/storage"
)

func main() {
	path := flag.String("f", "fixtures/sample.toml", "fixture file")
	workers := flag.Int("workers", 4, "records created concurrently per tier")
	flag.Parse()

	cfg := shared.Load()
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	f, err := os.Open(*path)
	if err != nil {
		log.Fatal().Err(err).Msg("open fixtures")
	}
	fx, err := seed.Parse(f)
	f.Close()
	if err != nil {
		log.Fatal().Err(err).Str("file", *path).Msg("parse fixtures")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	store, err := storage.Open(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("backend", cfg.StorageType).Msg("storage open failed")
	}
	defer store.Close()

	log.Info().Str("file", *path).Str("backend", cfg.StorageType).Int("workers", *workers).Msg("seed starting")
	start := time.Now()
	ids, err := seed.Apply(ctx, app.NewService(store, nil, 0), fx, *workers)
	if err != nil {
		_ = store.Close()
		log.Fatal().Err(err).Msg("seed failed")
	}
	ev := log.Info().Dur("took", time.Since(start))
	for _, k := range domain.Kinds {
		ev = ev.Int(k.Plural(), len(ids[k]))
	}
	ev.Msg("seed complete")
}
