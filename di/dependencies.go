package di

import (
	"database/sql"

	"github.com/redis/go-redis/v9"

	"guildwarden/internal/cache"
	"guildwarden/internal/lock"
	"guildwarden/internal/store"
	"guildwarden/internal/store/postgres"
	"guildwarden/types/config"
)

func createJobStore(driver config.StorageDriver, db *sql.DB) store.JobStore {
	switch driver {
	case config.Postgres:
		return postgres.NewPostgresJobStore(db)
	default:
		panic("unsupported storage driver")
	}
}

func createMuteStore(driver config.StorageDriver, db *sql.DB) store.MuteStore {
	switch driver {
	case config.Postgres:
		return postgres.NewPostgresMuteStore(db)
	default:
		panic("unsupported storage driver")
	}
}

func createPollStore(driver config.StorageDriver, db *sql.DB) store.PollStore {
	switch driver {
	case config.Postgres:
		return postgres.NewPostgresPollStore(db)
	default:
		panic("unsupported storage driver")
	}
}

func createDistributedLockManager(driver config.StorageDriver, db *sql.DB) lock.DistributedLockManager {
	switch driver {
	case config.Postgres:
		return lock.NewPostgresDistributedLockManager(db)
	default:
		panic("unsupported storage driver")
	}
}

func createPollCache(driver config.CacheDriver, redisClient *redis.Client) cache.PollCache {
	switch driver {
	case config.Redis:
		return cache.NewRedisPollCache(redisClient)
	default:
		return cache.NewMemoryPollCache()
	}
}
