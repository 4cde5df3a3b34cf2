package main

import (
	"log"

	"github.com/gin-gonic/gin"

	"github.com/kawafuchieirin/milestone-manager/internal"
	"github.com/kawafuchieirin/milestone-manager/internal/api"
	"github.com/kawafuchieirin/milestone-manager/internal/auth"
	"github.com/kawafuchieirin/milestone-manager/internal/config"
	"github.com/kawafuchieirin/milestone-manager/internal/storage"
)

func main() {
	cfg := config.Load()

	logger, err := internal.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}

	repos, err := storage.NewRepositories(cfg, logger)
	if err != nil {
		logger.Fatalf("failed to init storage: %v", err)
	}
	defer repos.Close()

	var provider auth.Provider
	if cfg.Env == "development" {
		provider = auth.NewLocalAuthProvider(cfg.MockToken, logger)
	} else {
		provider = auth.NewJWTAuthProvider(cfg.JWTSecret, logger)
	}

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	app := api.NewApp(logger, repos)
	r := api.NewRouter(app, provider, cfg)

	logger.Infof("starting server on :%s (env=%s, storage=%s)", cfg.Port, cfg.Env, cfg.StorageBackend)
	if err := r.Run(":" + cfg.Port); err != nil {
		logger.Fatalf("server exited: %v", err)
	}
}
