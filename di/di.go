package di

import (
	"database/sql"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"guildwarden/internal/gateway"
	"guildwarden/types/config"
)

// GetDependencies opens the configured storage backends and builds the full
// dependency graph around the supplied messaging gateway.
func GetDependencies(cfg *config.WardenConfig, messenger gateway.Messenger, logger *zap.Logger) (*WardenDependency, error) {
	sqlDB, redisClient, err := getStorageConnections(cfg)
	if err != nil {
		return nil, err
	}

	return createWardenDependency(cfg, sqlDB, redisClient, messenger, logger)
}

// getStorageConnections sets up the storage and cache backends based on the
// configuration.
func getStorageConnections(cfg *config.WardenConfig) (*sql.DB, *redis.Client, error) {
	var sqlDB *sql.DB
	var redisClient *redis.Client

	switch cfg.StorageDriver {
	case config.Postgres:
		db, err := getPG(cfg.PostgresConfig.ConnectionUrl)
		if err != nil {
			return nil, nil, err
		}
		sqlDB = db
	default:
		return nil, nil, fmt.Errorf("unsupported driver: %v", cfg.StorageDriver)
	}

	if cfg.CacheDriver == config.Redis {
		redisClient = getRedis(cfg.RedisConfig)
	}

	return sqlDB, redisClient, nil
}
