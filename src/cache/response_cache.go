package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/brightboard/llmgateway/src/models"
)

// ResponseCache stores completion responses keyed by request content.
// Staleness is bounded by the fixed TTL; there is no explicit invalidation
// path.
type ResponseCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewResponseCache(client *redis.Client, ttl time.Duration) *ResponseCache {
	return &ResponseCache{
		client: client,
		ttl:    ttl,
	}
}

// Lookup returns the cached response for an equivalent request, or
// (nil, nil) on a miss.
func (c *ResponseCache) Lookup(ctx context.Context, req *models.CompletionRequest) (*models.CompletionResponse, error) {
	val, err := c.client.Get(ctx, CacheKey(req)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var response models.CompletionResponse
	if err := json.Unmarshal([]byte(val), &response); err != nil {
		return nil, err
	}

	return &response, nil
}

func (c *ResponseCache) Store(ctx context.Context, req *models.CompletionRequest, resp *models.CompletionResponse) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return err
	}

	return c.client.Set(ctx, CacheKey(req), data, c.ttl).Err()
}
