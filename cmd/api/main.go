package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/shinyyama/artoo-backend/internal/config"
	"github.com/shinyyama/artoo-backend/internal/db"
	"github.com/shinyyama/artoo-backend/internal/logging"
	appmw "github.com/shinyyama/artoo-backend/internal/middleware"
	"github.com/shinyyama/artoo-backend/internal/reaper"
	"github.com/shinyyama/artoo-backend/internal/repository"
	"github.com/shinyyama/artoo-backend/internal/repository/memstore"
	"github.com/shinyyama/artoo-backend/internal/server"
	"go.uber.org/zap"
)

// Set at build time with -ldflags.
var (
	gitSHA    = "dev"
	buildTime = ""
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}
	logger, err := logging.New(cfg.LogLevel, cfg.Development())
	if err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(cfg, logger)
	if err != nil {
		return err
	}

	authMw, err := appmw.NewAuthMiddleware(ctx, cfg.FirebaseProjectID)
	if err != nil {
		return err
	}

	var opts []reaper.Option
	if cfg.RedisURL != "" {
		client, err := reaper.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		defer client.Close()
		opts = append(opts, reaper.WithLocker(reaper.NewRedisLocker(client, reaper.LockKey, time.Hour)))
		logger.Info("reaper lock enabled", zap.String("key", reaper.LockKey))
	}
	r := reaper.New(store, cfg.UnpaidTTL, logger, opts...)
	if err := r.Start(cfg.ReaperSchedule, cfg.ReaperTimezone); err != nil {
		return err
	}

	srv := server.New(server.Deps{
		Config: cfg,
		Store:  store,
		Auth:   authMw,
		Logger: logger,
		Now:    time.Now,
		SHA:    gitSHA,
		Build:  buildTime,
	})

	errCh := make(chan error, 1)
	go func() {
		addr := ":" + cfg.Port
		logger.Info("starting server", zap.String("addr", addr), zap.String("store", cfg.StoreDriver))
		errCh <- srv.Start(addr)
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		logger.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	r.Stop(shutdownCtx)
	return srv.Shutdown(shutdownCtx)
}

func openStore(cfg *config.Config, logger *zap.Logger) (repository.Store, error) {
	if cfg.StoreDriver == config.StoreDriverMemory {
		logger.Warn("using in-memory store; data is lost on exit")
		return memstore.New(), nil
	}
	conn, err := db.Connect(cfg)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(conn); err != nil {
		return nil, err
	}
	return repository.NewStore(conn), nil
}
