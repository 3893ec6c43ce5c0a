// cmd/historian/main.go is the asynchronous historian service: it pops match
// actions from the Redis queue and persists them to PostgreSQL.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/jason-s-yu/meitra/internal/cache"
	"github.com/jason-s-yu/meitra/internal/config"
	"github.com/jason-s-yu/meitra/internal/database"
	"github.com/jason-s-yu/meitra/internal/historian"
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rdb, err := cache.ConnectRedis(ctx, cfg.RedisAddr, cfg.RedisDB)
	if err != nil {
		logger.Fatal(err)
	}
	defer rdb.Close()

	pool, err := database.Connect(ctx, cfg.DSN())
	if err != nil {
		logger.Fatal(err)
	}
	defer pool.Close()

	store := database.NewStore(pool)
	if err := store.Migrate(ctx); err != nil {
		logger.Fatalf("migrate: %v", err)
	}

	hs := historian.New(cache.NewQueue(rdb, cfg.QueueName), store, historian.Options{
		BatchSize:  cfg.HistorianBatchSize,
		FlushDelay: cfg.HistorianFlush,
		Inactivity: cfg.MatchInactivity,
	}, logger)
	hs.Run(ctx)
	logger.Info("historian shutdown complete")
}
