package main

import (
	"accounts/internal/config"
	"accounts/internal/db"
	"accounts/internal/logging"
	"accounts/internal/routes"

	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	logging.Setup(logging.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty})

	dbConn, err := db.InitDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}

	router := routes.SetupRouter(dbConn)

	log.Info().Str("addr", cfg.HTTPAddr).Msg("Starting server")
	if err := router.Run(cfg.HTTPAddr); err != nil {
		log.Fatal().Err(err).Msg("Failed to start server")
	}
}
