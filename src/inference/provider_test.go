package inference

import (
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightboard/llmgateway/src/config"
	"github.com/brightboard/llmgateway/src/models"
)

func TestNewOpenAIProvider_RequiresAPIKey(t *testing.T) {
	_, err := NewOpenAIProvider(&config.ProviderConfig{Name: "openai"})
	require.Error(t, err)
}

func TestNewOpenAIProvider_Name(t *testing.T) {
	provider, err := NewOpenAIProvider(&config.ProviderConfig{
		Name:   "openai",
		APIKey: "sk-test",
	})
	require.NoError(t, err)
	assert.Equal(t, "openai", provider.Name())
}

func TestMapFinishReason(t *testing.T) {
	assert.Equal(t, models.FinishStop, mapFinishReason(openai.FinishReasonStop))
	assert.Equal(t, models.FinishLength, mapFinishReason(openai.FinishReasonLength))
	assert.Equal(t, models.FinishStop, mapFinishReason(openai.FinishReasonNull))
	assert.Equal(t, models.FinishStop, mapFinishReason(""))

	// Abnormal terminations all surface as errors
	assert.Equal(t, models.FinishError, mapFinishReason(openai.FinishReasonContentFilter))
	assert.Equal(t, models.FinishError, mapFinishReason(openai.FinishReason("some_future_reason")))
}
