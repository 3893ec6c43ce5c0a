// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jason-s-yu/meitra/internal/auth"
	"github.com/jason-s-yu/meitra/internal/cache"
	"github.com/jason-s-yu/meitra/internal/config"
	"github.com/jason-s-yu/meitra/internal/database"
	"github.com/jason-s-yu/meitra/internal/game"
	"github.com/jason-s-yu/meitra/internal/handlers"
	"github.com/sirupsen/logrus"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("config: %v", err)
	}
	logger.SetLevel(cfg.LogLevel)

	if err := auth.Init(cfg.TokenExpire); err != nil {
		logger.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := handlers.NewMatchServer(logger, houseRules(cfg))
	srv.AllowedOrigins = cfg.AllowedOrigins

	// Redis and Postgres are optional in development; matches run without
	// history when either is missing.
	if rdb, err := cache.ConnectRedis(ctx, cfg.RedisAddr, cfg.RedisDB); err != nil {
		optional(logger, cfg, "redis unavailable, action log disabled: %v", err)
	} else {
		defer rdb.Close()
		srv.Publisher = cache.NewQueue(rdb, cfg.QueueName)
	}
	if pool, err := database.Connect(ctx, cfg.DSN()); err != nil {
		optional(logger, cfg, "postgres unavailable, results not recorded: %v", err)
	} else {
		defer pool.Close()
		store := database.NewStore(pool)
		if err := store.Migrate(ctx); err != nil {
			logger.Fatalf("migrate: %v", err)
		}
		srv.Recorder = store
		srv.Stats = store
	}

	httpServer := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Infof("Running on %s", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("server exited: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	srv.Shutdown()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("http shutdown: %v", err)
	}
}

// houseRules are the defaults new matches start from.
func houseRules(cfg config.Config) game.HouseRules {
	rules := game.DefaultHouseRules()
	rules.PointsToWin = cfg.PointsToWin
	rules.ChomboPenalty = cfg.ChomboPenalty
	rules.RoundDelaySec = int(cfg.RoundDelay / time.Second)
	rules.ComDelayMs = int(cfg.ComDelay / time.Millisecond)
	return rules
}

// optional logs a missing backing service; production refuses to start
// without it.
func optional(logger *logrus.Logger, cfg config.Config, format string, err error) {
	if cfg.Production() {
		logger.Fatalf(format, err)
	}
	logger.Warnf(format, err)
}
