package kv

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/ETAnderson/gatehouse/internal/db"
)

type FactoryConfig struct {
	Backend string // memory | redis | mysql

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	MySQLDSN string
}

type FactoryResult struct {
	Store Store
	DB    *sql.DB       // only set for mysql
	Redis *redis.Client // only set for redis
}

// NewStore builds the primary backend from config. The in-memory
// fallback is constructed separately by the caller; it is always a
// plain NewMemoryStore regardless of what the primary is.
func NewStore(ctx context.Context, cfg FactoryConfig) (FactoryResult, error) {
	backend := strings.ToLower(strings.TrimSpace(cfg.Backend))
	if backend == "" {
		backend = "memory"
	}

	switch backend {
	case "memory":
		return FactoryResult{Store: NewMemoryStore()}, nil

	case "redis":
		if strings.TrimSpace(cfg.RedisAddr) == "" {
			return FactoryResult{}, errors.New("REDIS_ADDR is required when KV_BACKEND=redis")
		}

		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})

		store, err := NewRedisStore(client)
		if err != nil {
			_ = client.Close()
			return FactoryResult{}, err
		}

		return FactoryResult{Store: store, Redis: client}, nil

	case "mysql":
		if strings.TrimSpace(cfg.MySQLDSN) == "" {
			return FactoryResult{}, errors.New("DB_DSN is required when KV_BACKEND=mysql")
		}

		sqlDB, err := db.Open(db.Config{DSN: cfg.MySQLDSN})
		if err != nil {
			return FactoryResult{}, err
		}

		if err := db.Ping(ctx, sqlDB); err != nil {
			_ = sqlDB.Close()
			return FactoryResult{}, err
		}

		return FactoryResult{
			Store: NewMySQLStore(sqlDB),
			DB:    sqlDB,
		}, nil

	default:
		return FactoryResult{}, errors.New("unknown KV_BACKEND (use memory, redis, or mysql)")
	}
}
