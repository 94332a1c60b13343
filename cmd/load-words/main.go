package main

import (
	"context"
	"flag"

	"sketch-rooms/internal/config"
	"sketch-rooms/internal/db"
	"sketch-rooms/internal/logging"

	"github.com/rs/zerolog/log"
)

func main() {
	filePath := flag.String("file", "db/words.csv", "path to category,word csv")
	flag.Parse()

	if err := config.LoadDotEnv(".env"); err != nil {
		log.Warn().Err(err).Msg("failed to load .env")
	}
	cfg := config.Load()
	logging.Setup(cfg.LogLevel, cfg.LogPretty)

	conn, err := db.Open(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	if err := db.Migrate(conn); err != nil {
		log.Fatal().Err(err).Msg("database migration failed")
	}

	records, err := db.ReadWordCSV(*filePath)
	if err != nil {
		log.Fatal().Err(err).Str("path", *filePath).Msg("failed to read words")
	}
	inserted, err := db.LoadWordLibrary(context.Background(), conn, records)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load words")
	}
	log.Info().Int("read", len(records)).Int64("inserted", inserted).Msg("word library loaded")
}
