package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/anonto42/discuss/internal/router"
	"github.com/anonto42/discuss/pkg/config"
	"github.com/anonto42/discuss/pkg/firebase"
	"github.com/anonto42/discuss/pkg/log"
	"github.com/anonto42/discuss/pkg/metrics"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

func main() {
	logger := log.MustNew()
	defer logger.Sync()

	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := config.InitDB(cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize databases", zap.Error(err))
	}
	defer db.CloseDB()

	deps := router.Deps{
		Config:  cfg,
		SQL:     db.SQL,
		Mongo:   db.Mongo,
		Metrics: metrics.New(),
		Logger:  logger,
	}

	if cfg.FirebaseCredentialsPath != "" {
		firebaseApp, err := firebase.InitFirebase(ctx, cfg.FirebaseCredentialsPath)
		if err != nil {
			logger.Fatal("failed to initialize firebase", zap.Error(err))
		}
		deps.FirebaseAuth = firebaseApp.AuthClient
	}

	e := echo.New()
	e.HideBanner = true
	router.SetupMiddleware(e, logger, deps.Metrics)
	if err := router.SetupRoutes(e, deps); err != nil {
		logger.Fatal("failed to set up routes", zap.Error(err))
	}

	if cfg.MetricsPort != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", deps.Metrics.Handler())
			logger.Info("serving metrics", zap.String("port", cfg.MetricsPort))
			if err := http.ListenAndServe(":"+cfg.MetricsPort, mux); err != nil {
				logger.Error("metrics server stopped", zap.Error(err))
			}
		}()
	}

	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server stopped", zap.Error(err))
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}
