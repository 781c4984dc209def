package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/identitylab/account-service/internal/api"
	"github.com/identitylab/account-service/internal/infrastructure/db/mongo"
	"github.com/identitylab/account-service/internal/infrastructure/db/redis"
	"github.com/identitylab/account-service/internal/infrastructure/idp"
	"github.com/identitylab/account-service/internal/infrastructure/queue"
	"github.com/identitylab/account-service/internal/pkg/config"
	"github.com/identitylab/account-service/pkg/logger"
)

func main() {
	cfg := config.Load()

	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, db, err := mongo.Connect(ctx, mongo.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("mongodb connection failed")
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = client.Disconnect(disconnectCtx)
	}()

	if err := mongo.EnsureIndexes(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("index bootstrap failed")
	}

	rdb, err := redis.Connect(ctx, redis.Config{
		Addr: cfg.Redis.Addr,
		DB:   cfg.Redis.DB,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection failed")
	}
	defer rdb.Close()

	provider := idp.NewClient(idp.Config{
		BaseURL:       cfg.Keycloak.BaseURL,
		Realm:         cfg.Keycloak.Realm,
		ClientID:      cfg.Keycloak.ClientID,
		ClientSecret:  cfg.Keycloak.ClientSecret,
		AdminUsername: cfg.Keycloak.AdminUsername,
		AdminPassword: cfg.Keycloak.AdminPassword,
		Timeout:       cfg.Keycloak.Timeout,
	}, log)

	dispatcher := queue.NewDispatcher(0, mongo.NewAuditRepository(db), log)
	dispatcher.Start(ctx)

	e := api.NewRouter(cfg, db, rdb, provider, dispatcher, log)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := e.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("server shutdown failed")
		}
	}()

	log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("account service starting")
	if err := e.Start(":" + cfg.Port); err != nil {
		log.Info().Err(err).Msg("server stopped")
	}
}
