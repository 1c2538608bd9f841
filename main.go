package main

import (
	"context"
	"fmt"
	"log/slog"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/giygas/medicine-shop/catalog"
	"github.com/giygas/medicine-shop/config"
	"github.com/giygas/medicine-shop/data"
	"github.com/giygas/medicine-shop/handlers"
	"github.com/giygas/medicine-shop/health"
	"github.com/giygas/medicine-shop/kvstore"
	"github.com/giygas/medicine-shop/logging"
	"github.com/giygas/medicine-shop/medications"
	"github.com/giygas/medicine-shop/metrics"
	"github.com/giygas/medicine-shop/scheduler"
	"github.com/giygas/medicine-shop/server"
	"github.com/giygas/medicine-shop/session"
	"github.com/giygas/medicine-shop/symptoms"
	"github.com/joho/godotenv"
)

func main() {
	loadEnv()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	logs := logging.Init(logging.Options{
		Dir:            cfg.LogDir,
		Level:          cfg.LogLevel,
		RetentionWeeks: cfg.LogRetentionWeeks,
		MaxFileSize:    cfg.MaxLogFileSize,
	})
	defer logs.Close()

	if err := run(cfg); err != nil {
		logging.Error("Server exited with error", "error", err)
		logs.Close()
		os.Exit(1)
	}
}

// loadEnv reads .env from the working directory, falling back to the
// directory of the executable.
func loadEnv() {
	if err := godotenv.Load(); err == nil {
		return
	}

	ex, err := os.Executable()
	if err != nil {
		slog.Warn("Failed to get executable path", "error", err)
		return
	}
	exPath := filepath.Dir(ex)
	if err := os.Chdir(exPath); err != nil {
		slog.Warn("Failed to change directory", "error", err)
		return
	}
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment only")
	}
}

func run(cfg *config.Config) error {
	ctx := context.Background()

	store, err := newStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logging.Error("Failed to close storage", "error", err)
		}
	}()

	container := data.NewCatalogContainer()
	container.SetServerStartTime(time.Now())

	interval := time.Duration(cfg.CatalogRefreshMinutes) * time.Minute
	sched := scheduler.NewScheduler(container, catalog.NewLoader(cfg.CatalogSource), interval)
	sched.OnUpdate(metrics.SetCatalogItems)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("failed to start catalog scheduler: %w", err)
	}
	defer sched.Stop()

	sessions, err := session.NewManager(cfg.SessionSecret, time.Duration(cfg.SessionTTLHours)*time.Hour, cfg.Env == "prod")
	if err != nil {
		return err
	}

	handler := handlers.NewHTTPHandler(handlers.Dependencies{
		DataStore:     container,
		Store:         store,
		Medications:   medications.NewService(store),
		Predictor:     newPredictor(cfg),
		HealthChecker: health.NewHealthChecker(container, store, interval, sched.LastError),
		Locks:         session.NewLocks(),
	})

	srv := server.NewServer(cfg, handler, sessions)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		logging.Info("Received shutdown signal", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}

// newStore opens the configured persistence backend
func newStore(ctx context.Context, cfg *config.Config) (kvstore.Store, error) {
	switch cfg.StorageBackend {
	case config.StorageMemory:
		logging.Warn("Using in-memory storage, carts and medications are lost on restart")
		return kvstore.NewMemoryStore(), nil
	case config.StorageFile:
		store, err := kvstore.NewFileStore(cfg.StorageDir)
		if err != nil {
			return nil, fmt.Errorf("failed to open file storage: %w", err)
		}
		logging.Info("Using file storage", "dir", cfg.StorageDir)
		return store, nil
	case config.StoragePostgres:
		connectCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()

		pool, err := kvstore.NewPool(connectCtx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
		if err != nil {
			return nil, err
		}
		store, err := kvstore.NewPostgresStore(connectCtx, pool)
		if err != nil {
			pool.Close()
			return nil, err
		}
		logging.Info("Using postgres storage", "max_conns", cfg.DBMaxConns)
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}

// newPredictor forwards to PREDICT_URL when set and echoes otherwise
func newPredictor(cfg *config.Config) symptoms.Predictor {
	if cfg.PredictURL == "" {
		logging.Info("PREDICT_URL not set, /predict echoes validated symptoms")
		return symptoms.EchoPredictor{}
	}
	return symptoms.NewHTTPPredictor(cfg.PredictURL)
}
