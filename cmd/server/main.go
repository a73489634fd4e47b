package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"go-pos-ledger/internal/auth"
	"go-pos-ledger/internal/config"
	"go-pos-ledger/internal/database"
	"go-pos-ledger/internal/engine"
	"go-pos-ledger/internal/handlers"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}
	defer logger.Sync() //nolint:errcheck

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsDevelopment() {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func run(cfg *config.Config, logger *zap.Logger) error {
	// 1. Persistence
	store, err := openStore(cfg, logger)
	if err != nil {
		return err
	}

	// 2. Loyalty program and engine
	program, err := config.LoadLoyalty(cfg.App.LoyaltyConfig)
	if err != nil {
		return err
	}
	eng := engine.New(store, program,
		engine.WithClock(engine.SystemClock{Location: cfg.App.Location}),
		engine.WithLogger(logger))
	if err := eng.EnsureSettings(context.Background()); err != nil {
		return fmt.Errorf("seed loyalty settings: %w", err)
	}

	// 3. HTTP
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default()
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.App.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	tokens := auth.NewTokens(cfg.Auth.JWTSecret, 24*time.Hour)
	handlers.New(eng, logger, cfg.App.Location).Register(r, tokens)

	srv := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("base_url", cfg.App.BaseURL), zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func openStore(cfg *config.Config, logger *zap.Logger) (engine.Store, error) {
	if cfg.Database.Driver == "memory" {
		logger.Warn("using the in-memory store, nothing survives a restart")
		return database.NewMemoryStore(nil), nil
	}
	db, err := database.Connect(cfg.Database.DSN, logger)
	if err != nil {
		return nil, err
	}
	store, err := database.NewGormStore(db)
	if err != nil {
		return nil, err
	}
	logger.Info("database schema synced")
	return store, nil
}
