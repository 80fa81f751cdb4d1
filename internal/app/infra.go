package app

import (
	"context"
	"errors"

	"bot-panel/internal/config"
	"bot-panel/internal/db"
	"bot-panel/internal/logger"
	"bot-panel/internal/presence"
	"bot-panel/internal/redis"
	"bot-panel/internal/store"
)

// MemoryDSN selects the in-process gateway instead of Postgres.
const MemoryDSN = "memory"

type Infra struct {
	DB    *db.DB
	Redis *redis.Client

	Store    store.Gateway
	Presence presence.Store
}

func setupInfra(ctx context.Context, cfg config.Config) (*Infra, error) {
	infra := &Infra{}

	if cfg.DatabaseDSN == MemoryDSN {
		infra.Store = store.NewMemory()
		logger.Warn("using in-memory store, records are lost on restart", nil)
	} else {
		database, err := db.Open(ctx, cfg.DatabaseDSN)
		if err != nil {
			return nil, err
		}

		if err := db.RunPanelMigration(ctx, database.DB); err != nil {
			_ = database.Close()
			return nil, err
		}

		infra.DB = database
		infra.Store = store.NewPostgres(database)
		logger.Info("database ready", nil)
	}

	if cfg.RedisAddr == "" {
		infra.Presence = presence.Nop{}
		logger.Warn("redis not configured, presence disabled", nil)
		return infra, nil
	}

	redisClient, err := redis.New(ctx, cfg.RedisAddr, cfg.RedisPassword)
	if err != nil {
		_ = infra.Close()
		return nil, err
	}

	infra.Redis = redisClient
	infra.Presence = presence.NewRedisStore(redisClient.Client, cfg.PresenceTTL)
	logger.Info("redis ready", nil)

	return infra, nil
}

func (i *Infra) Close() error {
	var errs []error
	if i.Redis != nil {
		errs = append(errs, i.Redis.Close())
	}
	if i.DB != nil {
		errs = append(errs, i.DB.Close())
	}
	return errors.Join(errs...)
}
