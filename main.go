package main

import (
	"context"
	"log"

	"review-api/cmd"
	"review-api/internal/data/repository"
	"review-api/internal/data/repository/memory"
	"review-api/internal/wire"
	"review-api/pkg/database"
	"review-api/pkg/mailer"
	"review-api/pkg/utils"

	"go.uber.org/zap"
)

func main() {
	// Load config
	config, err := utils.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logger, err := utils.InitLogger(config.App.LogPath, config.App.Name, config.App.Debug)
	if err != nil {
		log.Printf("Failed to init logger: %v. Using standard log.", err)
		logger, _ = zap.NewProduction()
	}
	defer logger.Sync()

	logger.Info("Starting application",
		zap.String("app", config.App.Name),
		zap.String("port", config.App.Port),
		zap.Bool("debug", config.App.Debug),
		zap.String("db_driver", config.Database.Driver),
	)

	if config.JWT.Secret == "" {
		logger.Fatal("JWT_SECRET is required")
	}

	repos, closeDB := openRepository(config, logger)
	defer closeDB()

	mail, err := mailer.New(config.Email, logger)
	if err != nil {
		logger.Fatal("Failed to init mailer", zap.Error(err))
	}

	tokens := utils.NewTokenIssuer(config.JWT)

	// Wire all dependencies
	app := wire.Wiring(repos, config, mail, tokens, logger)

	if err := cmd.APIServer(app.Router, config.App.Port, logger); err != nil {
		logger.Fatal("Server error", zap.Error(err))
	}
}

// openRepository connects the configured datastore. The memory driver keeps
// everything in process and is meant for local runs.
func openRepository(config *utils.Config, logger *zap.Logger) (*repository.Repository, func()) {
	if config.Database.Driver == "memory" {
		logger.Warn("Using in-memory datastore; data is lost on exit")
		return memory.New(), func() {}
	}

	db, err := database.InitDB(config.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}

	if err := repository.Migrate(context.Background(), db); err != nil {
		db.Close()
		logger.Fatal("Failed to migrate database", zap.Error(err))
	}

	logger.Info("Database connected successfully")
	return repository.NewRepository(db, logger), db.Close
}
