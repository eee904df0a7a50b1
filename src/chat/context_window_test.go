package chat

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightboard/llmgateway/src/models"
)

func makeConversation(n, charsPerMessage int) []models.Message {
	messages := make([]models.Message, 0, n)
	for i := 0; i < n; i++ {
		role := models.RoleUser
		if i%2 == 1 {
			role = models.RoleAssistant
		}
		messages = append(messages, models.Message{
			Role:    role,
			Content: fmt.Sprintf("msg-%02d-%s", i, strings.Repeat("x", charsPerMessage)),
		})
	}
	return messages
}

func TestTrimMessages_WithinBudgetIsNoOp(t *testing.T) {
	messages := makeConversation(5, 40)

	trimmed := TrimMessages(messages, "be helpful", 20, 4000)
	assert.Equal(t, messages, trimmed)

	// Trimming an already-trimmed, within-budget list is a no-op
	again := TrimMessages(trimmed, "be helpful", 20, 4000)
	assert.Equal(t, trimmed, again)
}

func TestTrimMessages_MaxMessagesCap(t *testing.T) {
	messages := makeConversation(30, 10)

	trimmed := TrimMessages(messages, "", 20, 100000)
	require.Len(t, trimmed, 20)
	// The most recent entries survive, in order
	assert.Equal(t, messages[10:], trimmed)
}

func TestTrimMessages_DropsOldestUntilBudgetFits(t *testing.T) {
	// 20 messages of ~300 chars is roughly 1500 tokens; a budget of 500
	// (3x smaller) forces dropping from the front.
	messages := makeConversation(20, 293)

	trimmed := TrimMessages(messages, "", 20, 500)

	require.NotEmpty(t, trimmed)
	assert.LessOrEqual(t, estimateTokens(trimmed, ""), 500)
	// The most recent message always survives
	assert.Equal(t, messages[len(messages)-1], trimmed[len(trimmed)-1])

	// Smallest fitting suffix: keeping one more message would exceed budget
	dropped := len(messages) - len(trimmed)
	require.Greater(t, dropped, 0)
	withOneMore := messages[dropped-1:]
	assert.Greater(t, estimateTokens(withOneMore, ""), 500)
}

func TestTrimMessages_NeverDropsMostRecentMessage(t *testing.T) {
	oversized := models.Message{
		Role:    models.RoleUser,
		Content: strings.Repeat("x", 100000),
	}
	messages := append(makeConversation(3, 50), oversized)

	trimmed := TrimMessages(messages, "", 20, 100)

	// Even though the last message alone exceeds the budget, it is passed
	// through unmodified.
	require.Len(t, trimmed, 1)
	assert.Equal(t, oversized, trimmed[0])
}

func TestTrimMessages_SystemPromptCountsTowardBudget(t *testing.T) {
	messages := makeConversation(10, 40)
	systemPrompt := strings.Repeat("s", 4000) // ~1000 tokens on its own

	withPrompt := TrimMessages(messages, systemPrompt, 20, 1050)
	withoutPrompt := TrimMessages(messages, "", 20, 1050)

	assert.Less(t, len(withPrompt), len(withoutPrompt))
}

func TestTrimMessages_ZeroBudgetDisablesTokenTrim(t *testing.T) {
	messages := makeConversation(5, 400)

	trimmed := TrimMessages(messages, "", 20, 0)
	assert.Equal(t, messages, trimmed)
}

func TestTrimMessages_EmptyInput(t *testing.T) {
	assert.Empty(t, TrimMessages(nil, "prompt", 20, 100))
	assert.Empty(t, TrimMessages([]models.Message{}, "", 20, 100))
}
