package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/brightboard/llmgateway/src/models"
)

const cacheKeyPrefix = "llm_cache:"

// cacheKeyPayload is the canonical, order-preserving encoding of a request.
// Every field that changes the completion is part of the key.
type cacheKeyPayload struct {
	Messages     []models.Message `json:"messages"`
	SystemPrompt string           `json:"system_prompt"`
	Model        string           `json:"model"`
	Temperature  float32          `json:"temperature"`
	MaxTokens    int              `json:"max_tokens"`
}

// CacheKey derives the content-addressed key for a request. Structurally
// equal requests (message order included) always map to the same key.
func CacheKey(req *models.CompletionRequest) string {
	var temperature float32
	if req.Temperature != nil {
		temperature = *req.Temperature
	}

	payload := cacheKeyPayload{
		Messages:     req.Messages,
		SystemPrompt: req.SystemPrompt,
		Model:        req.Model,
		Temperature:  temperature,
		MaxTokens:    req.MaxTokens,
	}

	data, _ := json.Marshal(payload)
	hash := sha256.Sum256(data)
	return cacheKeyPrefix + hex.EncodeToString(hash[:])
}
