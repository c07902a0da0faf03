package main

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/safar/marketplace-orders/internal/config"
	"github.com/safar/marketplace-orders/internal/database"
	"github.com/safar/marketplace-orders/migrations"
)

func main() {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).With().Timestamp().Logger()

	if len(os.Args) < 2 {
		logger.Fatal().Msg("usage: migrate [up|down]")
	}
	direction := os.Args[1]

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("load config")
	}

	db, err := database.NewConnection(&cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect to database")
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	applied, err := database.Migrate(ctx, db, migrations.FS, direction)
	for _, name := range applied {
		logger.Info().Str("file", name).Msg("migration applied")
	}
	if err != nil {
		logger.Fatal().Err(err).Msg("run migrations")
	}

	logger.Info().Int("count", len(applied)).Str("direction", direction).Msg("migrations complete")
}
