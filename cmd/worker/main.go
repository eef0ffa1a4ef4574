package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"accounts/internal/config"
	"accounts/internal/db"
	"accounts/internal/logging"
	"accounts/internal/storage"
	"accounts/internal/tasks"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// 03:00 on the first day of every month
const archiveSchedule = "0 3 1 * *"

// A run still in the queue blocks the next one for this long.
const archiveUniqueTTL = 24 * time.Hour

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Setup(logging.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty})

	dbConn, err := db.InitDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	log.Info().Msg("Worker connected to database.")

	redisOpt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to parse Redis URL")
	}

	uploader, err := storage.NewS3Uploader(context.Background(), cfg.S3Bucket, cfg.S3Region)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to set up object storage")
	}

	scheduler := asynq.NewScheduler(redisOpt, &asynq.SchedulerOpts{})
	archiveTask, err := tasks.NewArchiveAccountsTask(nil)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create archive accounts task")
	}

	entryID, err := scheduler.Register(archiveSchedule, archiveTask, asynq.Queue("default"), asynq.Unique(archiveUniqueTTL))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to register periodic task")
	}
	log.Info().Str("task", archiveTask.Type()).Str("entry_id", entryID).Msg("Registered periodic task")

	// Runs are strictly sequential, so a single worker is enough.
	srv := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Queues: map[string]int{
				"default": 1,
			},
			Concurrency: 1,
		},
	)

	taskProcessor, err := tasks.NewTaskProcessor(dbConn, cfg, uploader)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to set up task processor")
	}

	mux := asynq.NewServeMux()
	mux.HandleFunc(
		tasks.TypeTaskArchiveAccounts,
		taskProcessor.HandleArchiveAccountsTask,
	)

	metricsServer := &http.Server{Addr: cfg.HTTPAddr, Handler: promhttp.Handler()}

	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("Serving worker metrics...")
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("Metrics server stopped")
		}
	}()

	go func() {
		log.Info().Msg("Starting Asynq scheduler...")
		if err := scheduler.Run(); err != nil {
			log.Fatal().Err(err).Msg("Could not run Asynq scheduler")
		}
	}()

	go func() {
		log.Info().Msg("Starting Asynq worker server...")
		if err := srv.Run(mux); err != nil {
			log.Fatal().Err(err).Msg("Could not run Asynq worker server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit

	log.Info().Msg("Shutdown signal received, shutting down gracefully...")

	scheduler.Shutdown()
	log.Info().Msg("Asynq scheduler shut down.")

	srv.Shutdown()
	log.Info().Msg("Asynq worker server shut down.")

	metricsServer.Close()
	log.Info().Msg("Worker process shut down complete.")
}
