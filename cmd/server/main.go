// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jason-s-yu/uno/internal/auth"
	"github.com/jason-s-yu/uno/internal/cache"
	"github.com/jason-s-yu/uno/internal/config"
	"github.com/jason-s-yu/uno/internal/database"
	"github.com/jason-s-yu/uno/internal/handlers"
	"github.com/jason-s-yu/uno/internal/room"
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
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logger.Warnf("unknown log level %q, using info", cfg.LogLevel)
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	ttl, _ := cfg.TokenTTL()
	issuer, err := auth.NewIssuer(ttl)
	if err != nil {
		logger.Fatalf("failed to init auth: %v", err)
	}

	coord := room.NewCoordinator(logger)

	if cfg.RedisAddr != "" {
		rdb, err := cache.ConnectRedis(cfg.RedisAddr, cfg.RedisDB)
		if err != nil {
			logger.Fatalf("%v", err)
		}
		defer rdb.Close()
		coord.History = cache.NewActionQueue(rdb, cfg.HistorianQueueName)
		logger.Infof("publishing actions to Redis list %s", cfg.HistorianQueueName)
	}

	if cfg.DatabaseURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		pool, err := database.Connect(ctx, cfg.DatabaseURL)
		if err == nil {
			err = database.EnsureSchema(ctx, pool)
		}
		cancel()
		if err != nil {
			logger.Fatalf("%v", err)
		}
		defer pool.Close()
		coord.Results = database.NewResultStore(pool)
		logger.Info("recording game results to Postgres")
	}

	rs := handlers.NewRoomServer(coord, issuer, logger, cfg.RoomOutBuffer)
	server := &http.Server{
		Handler:     rs.Routes(),
		ReadTimeout: 10 * time.Second,
	}

	l, err := net.Listen("tcp", ":"+cfg.Port)
	if err != nil {
		logger.Fatalf("failed to listen: %v", err)
	}
	logger.Infof("Running on %s", l.Addr())

	errc := make(chan error, 1)
	go func() {
		errc <- server.Serve(l)
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("failed to serve: %v", err)
		}
	case sig := <-sigs:
		logger.Infof("terminating: %v", sig)
	}

	// Hijacked websocket connections are not tracked by Shutdown; close them through the coordinator.
	coord.CloseAll()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Warnf("shutdown: %v", err)
	}
}
