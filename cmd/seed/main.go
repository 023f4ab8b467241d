// Package main seeds the station store with the sample charging stations.
package main

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/livecharge/livecharge/internal/database"
	"github.com/livecharge/livecharge/internal/seed"
)

// Version is set at compile time via ldflags.
var Version = "dev"

func main() {
	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", "livecharge-seed").
		Str("version", Version).
		Logger()

	if err := run(log); err != nil {
		log.Error().Err(err).Msg("seeding failed")
		os.Exit(1)
	}
	log.Info().Msg("seeding completed")
}

func run(log zerolog.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	stations, err := seed.Load(os.Getenv("SEED_FILE"))
	if err != nil {
		return err
	}

	backend, err := database.BackendFromEnv()
	if err != nil {
		return err
	}
	store, err := database.OpenStore(ctx, backend, log)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := store.Close(context.Background()); closeErr != nil {
			log.Error().Err(closeErr).Msg("failed to close station store")
		}
	}()

	if err := store.Repository.EnsureIndexes(ctx); err != nil {
		return err
	}
	if err := store.Repository.DeleteAll(ctx); err != nil {
		return err
	}
	log.Info().Msg("cleared existing stations")

	if err := store.Repository.Insert(ctx, stations...); err != nil {
		return err
	}
	log.Info().Int("count", len(stations)).Str("backend", string(backend)).Msg("inserted sample stations")
	return nil
}
