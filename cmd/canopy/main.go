package main

import (
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/canopy-dev/canopy/db"
	"github.com/canopy-dev/canopy/internal/auth"
	"github.com/canopy-dev/canopy/internal/config"
	"github.com/canopy-dev/canopy/internal/logger"
	"github.com/canopy-dev/canopy/internal/router"
)

func main() {
	logger.Init()

	if err := godotenv.Load(); err != nil {
		logger.L().Warn("no .env file loaded", zap.Error(err))
	}

	cfg, err := config.Load()

	if err != nil {
		logger.L().Fatal("invalid configuration", zap.Error(err))
	}

	if err := auth.Init(cfg.JWTSecret); err != nil {
		logger.L().Fatal("failed to initialize auth", zap.Error(err))
	}

	if err := db.ConnectDatabase(cfg.DatabaseURL); err != nil {
		logger.L().Fatal("failed to connect to database", zap.Error(err))
	}

	if err := db.MigrateDatabase(); err != nil {
		logger.L().Fatal("failed to migrate database", zap.Error(err))
	}

	r := router.NewRouter()

	logger.L().Info("starting server", zap.String("port", cfg.Port))

	if err := r.Run(":" + cfg.Port); err != nil {
		logger.L().Fatal("failed to start server", zap.Error(err))
	}
}
