package chat

import (
	"github.com/brightboard/llmgateway/src/models"
)

// TrimMessages bounds a conversation history before it is sent upstream.
// The most recent maxMessages entries are kept, then the oldest remaining
// messages are dropped until the estimated token size fits the budget.
//
// The single most recent message is never dropped, even if it alone
// exceeds the budget: an oversized message is passed through and the
// provider's size error is surfaced instead of silently corrupting it.
//
// Pure function of its inputs, safe for any number of concurrent callers.
func TrimMessages(messages []models.Message, systemPrompt string, maxMessages, maxTokenBudget int) []models.Message {
	trimmed := messages

	if maxMessages > 0 && len(trimmed) > maxMessages {
		trimmed = trimmed[len(trimmed)-maxMessages:]
	}

	if maxTokenBudget <= 0 {
		return trimmed
	}

	for len(trimmed) > 1 && estimateTokens(trimmed, systemPrompt) > maxTokenBudget {
		trimmed = trimmed[1:]
	}

	return trimmed
}

// estimateTokens uses the 4-characters-per-token heuristic over the whole
// payload, system prompt included.
func estimateTokens(messages []models.Message, systemPrompt string) int {
	chars := len(systemPrompt)
	for _, msg := range messages {
		chars += len(msg.Content)
	}
	return chars / 4
}
