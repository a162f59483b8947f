package di

import (
	"database/sql"

	"github.com/redis/go-redis/v9"

	"guildwarden/types/config"
)

func getPG(connection string) (*sql.DB, error) {
	return sql.Open("postgres", connection)
}

func getRedis(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}
