// cmd/historian drains the room action queue from Redis into Postgres.
package main

import (
	"context"
	"flag"
	"os/signal"
	"syscall"
	"time"

	"github.com/jason-s-yu/uno/internal/cache"
	"github.com/jason-s-yu/uno/internal/config"
	"github.com/jason-s-yu/uno/internal/database"
	"github.com/jason-s-yu/uno/internal/historian"
	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
)

func main() {
	configPath := flag.String("config", "", "optional config file (yaml, toml or json)")
	flag.Parse()

	logger := logrus.New()
	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(level)
	}
	if cfg.RedisAddr == "" || cfg.DatabaseURL == "" {
		logger.Fatal("historian needs both REDIS_ADDR and DATABASE_URL")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rdb, err := cache.ConnectRedis(cfg.RedisAddr, cfg.RedisDB)
	if err != nil {
		logger.Fatalf("%v", err)
	}
	defer rdb.Close()

	dbCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	pool, err := database.Connect(dbCtx, cfg.DatabaseURL)
	if err == nil {
		err = database.EnsureSchema(dbCtx, pool)
	}
	cancel()
	if err != nil {
		logger.Fatalf("%v", err)
	}
	defer pool.Close()

	svc := historian.New(
		cache.NewActionQueue(rdb, cfg.HistorianQueueName),
		database.NewActionStore(pool),
		logger,
		historian.Options{
			BatchSize:  cfg.HistorianBatchSize,
			FlushDelay: cfg.FlushInterval(),
		},
	)
	if err := svc.Run(ctx); err != nil {
		logger.Errorf("historian stopped: %v", err)
	}
	logger.Info("Historian shutdown complete.")
}
