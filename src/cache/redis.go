package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/brightboard/llmgateway/src/config"
)

// NewRedisClient connects to the shared key-value store backing the
// response cache, admission counters and cost ledger.
func NewRedisClient(cfg *config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return client, nil
}
