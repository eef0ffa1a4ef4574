package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"accounts/internal/config"
	"accounts/internal/db"
	"accounts/internal/logging"
	"accounts/internal/storage"
	"accounts/internal/tasks"

	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Setup(logging.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbConn, err := db.InitDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}

	uploader, err := storage.NewS3Uploader(ctx, cfg.S3Bucket, cfg.S3Region)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to set up object storage")
	}

	processor, err := tasks.NewTaskProcessor(dbConn, cfg, uploader)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to set up archiver")
	}

	summary, err := processor.ArchiveAccounts(ctx, cfg.PageSize)
	if err != nil {
		log.Fatal().Err(err).Msg("Archive run aborted")
	}

	log.Info().Str("run_id", summary.RunID).Int("archived", summary.Archived).Msg("Done")
}
