package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const apiKeyPrefix = "api_key:"

// ErrKeyNotFound reports an API key with no registered user.
var ErrKeyNotFound = errors.New("api key not found")

// APIKeyStore maps API keys issued by the surrounding platform to user
// IDs. Key issuance and rotation belong to the excluded auth system; the
// gateway only resolves callers.
type APIKeyStore struct {
	client *redis.Client
}

func NewAPIKeyStore(client *redis.Client) *APIKeyStore {
	return &APIKeyStore{
		client: client,
	}
}

// ResolveUser returns the user ID that owns the given API key.
func (s *APIKeyStore) ResolveUser(ctx context.Context, apiKey string) (string, error) {
	userID, err := s.client.Get(ctx, apiKeyPrefix+apiKey).Result()
	if err == redis.Nil {
		return "", ErrKeyNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to resolve api key: %w", err)
	}
	return userID, nil
}

// SaveKey registers an API key for a user. Keys do not expire; revocation
// is explicit.
func (s *APIKeyStore) SaveKey(ctx context.Context, apiKey, userID string) error {
	if err := s.client.Set(ctx, apiKeyPrefix+apiKey, userID, 0).Err(); err != nil {
		return fmt.Errorf("failed to save api key: %w", err)
	}
	return nil
}

func (s *APIKeyStore) RevokeKey(ctx context.Context, apiKey string) error {
	if err := s.client.Del(ctx, apiKeyPrefix+apiKey).Err(); err != nil {
		return fmt.Errorf("failed to revoke api key: %w", err)
	}
	return nil
}
