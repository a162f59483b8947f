package cache

import (
	"context"

	"github.com/redis/go-redis/v9"
)

const activePollsKey = "guildwarden:polls:active"

type RedisPollCache struct {
	client *redis.Client
}

func NewRedisPollCache(client *redis.Client) *RedisPollCache {
	return &RedisPollCache{client: client}
}

func (c *RedisPollCache) Add(ctx context.Context, question string) error {
	return c.client.SAdd(ctx, activePollsKey, question).Err()
}

func (c *RedisPollCache) Remove(ctx context.Context, question string) error {
	return c.client.SRem(ctx, activePollsKey, question).Err()
}

func (c *RedisPollCache) Contains(ctx context.Context, question string) (bool, error) {
	return c.client.SIsMember(ctx, activePollsKey, question).Result()
}

func (c *RedisPollCache) Questions(ctx context.Context) ([]string, error) {
	return c.client.SMembers(ctx, activePollsKey).Result()
}

func (c *RedisPollCache) Close() error {
	return c.client.Close()
}
