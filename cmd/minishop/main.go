package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"minishop/internal/auth"
	"minishop/internal/cache"
	"minishop/internal/config"
	"minishop/internal/http/handlers"
	applog "minishop/internal/log"
	"minishop/internal/notify"
	"minishop/internal/repos"
)

func main() {
	cfg := config.Load()

	logger, err := applog.New("minishop", cfg.LogDev)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()
	cfg.Log(logger)

	db, err := repos.OpenDB(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		logger.Fatal("open db", zap.Error(err))
	}
	defer db.Close()

	// Notifications: LINE push and/or Kafka; both are optional.
	var notifiers notify.Multi
	if cfg.LineChannelAccessToken != "" {
		notifiers = append(notifiers, notify.NewLineNotifier(cfg.LinePushURL, cfg.LineChannelAccessToken))
	}
	if len(cfg.KafkaBrokers) > 0 {
		kn, err := notify.NewKafkaNotifier(cfg.KafkaBrokers, cfg.KafkaTopicPrefix, logger)
		if err != nil {
			logger.Fatal("kafka producer", zap.Error(err), zap.Strings("brokers", cfg.KafkaBrokers))
		}
		defer kn.Close()
		notifiers = append(notifiers, kn)
	}
	if len(notifiers) == 0 {
		logger.Warn("no notifier configured; order events are dropped")
	}

	verifier := auth.NewLineVerifier(cfg.LineVerifyURL, cfg.LineLoginChannelID)
	deps := handlers.NewDeps(db, cfg, verifier, notifiers, logger)

	rc := handlers.DefaultRouteConfig()
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			logger.Fatal("redis ping", zap.Error(err), zap.String("addr", cfg.RedisAddr))
		}
		store := cache.NewRedisStorage(rdb, "minishop:limiter")
		defer store.Close()
		rc.Storage = store
	}

	app := handlers.NewApp(deps, rc)

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		logger.Info("shutting down", zap.Duration("timeout", cfg.ShutdownTimeout))
		if err := app.ShutdownWithTimeout(cfg.ShutdownTimeout); err != nil {
			logger.Error("shutdown", zap.Error(err))
		}
	}()

	logger.Info("listening", zap.String("port", cfg.Port))
	if err := app.Listen(":" + cfg.Port); err != nil {
		logger.Error("listen", zap.Error(err))
	}
}
