package inference

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/brightboard/llmgateway/src/config"
	"github.com/brightboard/llmgateway/src/models"
)

// OpenAIProvider is the single configured upstream provider, speaking the
// OpenAI chat completion API (directly or via a compatible endpoint).
type OpenAIProvider struct {
	cfg    *config.ProviderConfig
	client *openai.Client
}

func NewOpenAIProvider(cfg *config.ProviderConfig) (*OpenAIProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("provider API key is empty (check LLM_API_KEY environment variable)")
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.Endpoint != "" {
		clientCfg.BaseURL = cfg.Endpoint
	}

	return &OpenAIProvider{
		cfg:    cfg,
		client: openai.NewClientWithConfig(clientCfg),
	}, nil
}

func (p *OpenAIProvider) Name() string {
	return p.cfg.Name
}

// Complete performs exactly one upstream call and reports the provider's
// actual token usage. Callers bound it with a context deadline.
func (p *OpenAIProvider) Complete(ctx context.Context, req *models.CompletionRequest) (*models.ProviderResult, error) {
	chatMessages := make([]openai.ChatCompletionMessage, 0, len(req.Messages)+1)
	if req.SystemPrompt != "" {
		chatMessages = append(chatMessages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.SystemPrompt,
		})
	}
	for _, msg := range req.Messages {
		chatMessages = append(chatMessages, openai.ChatCompletionMessage{
			Role:    string(msg.Role),
			Content: msg.Content,
		})
	}

	var temperature float32
	if req.Temperature != nil {
		temperature = *req.Temperature
	}

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       req.Model,
		Messages:    chatMessages,
		Temperature: temperature,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		return nil, &models.ProviderError{Provider: p.Name(), Err: err}
	}
	if len(resp.Choices) == 0 {
		return nil, &models.ProviderError{Provider: p.Name(), Err: fmt.Errorf("provider returned no choices")}
	}

	choice := resp.Choices[0]
	return &models.ProviderResult{
		Content:          choice.Message.Content,
		Model:            resp.Model,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      resp.Usage.TotalTokens,
		FinishReason:     mapFinishReason(choice.FinishReason),
	}, nil
}

func mapFinishReason(reason openai.FinishReason) models.FinishReason {
	switch reason {
	case openai.FinishReasonLength:
		return models.FinishLength
	case openai.FinishReasonStop, openai.FinishReasonNull, "":
		return models.FinishStop
	default:
		// content_filter, function_call and anything the API adds later:
		// the completion did not terminate normally.
		return models.FinishError
	}
}
