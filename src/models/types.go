package models

import "time"

// Role identifies the author of a conversation message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Message is a single conversation turn. Ordering within a conversation
// is significant.
type Message struct {
	Role    Role   `json:"role" binding:"required"`
	Content string `json:"content" binding:"required"`
}

// CompletionRequest describes one completion call. Two requests with
// structurally equal fields (message order included) are equivalent and
// share a cache key.
type CompletionRequest struct {
	Messages     []Message `json:"messages" binding:"required"`
	SystemPrompt string    `json:"system_prompt,omitempty"`
	Model        string    `json:"model,omitempty"`
	// Temperature is a pointer so an explicit 0.0 is distinguishable from
	// "unset, use the configured default".
	Temperature *float32 `json:"temperature,omitempty"`
	MaxTokens   int      `json:"max_tokens,omitempty"`
}

type FinishReason string

const (
	FinishStop   FinishReason = "stop"
	FinishLength FinishReason = "length"
	FinishError  FinishReason = "error"
)

// CompletionResponse is the uniform envelope returned to callers.
// Cached copies carry Cached=true and keep the original cost and timestamp.
type CompletionResponse struct {
	Content          string       `json:"content"`
	Model            string       `json:"model"`
	Provider         string       `json:"provider"`
	TokensUsed       int          `json:"tokens_used"`
	PromptTokens     int          `json:"prompt_tokens"`
	CompletionTokens int          `json:"completion_tokens"`
	FinishReason     FinishReason `json:"finish_reason"`
	ResponseTimeMs   int64        `json:"response_time_ms"`
	Timestamp        time.Time    `json:"timestamp"`
	Cached           bool         `json:"cached"`
	CostUSD          float64      `json:"cost_usd"`
}

// ProviderResult is the raw upstream output before it is wrapped into a
// CompletionResponse.
type ProviderResult struct {
	Content          string
	Model            string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	FinishReason     FinishReason
}

// Rate limit window scopes.
const (
	ScopeMinute = "minute"
	ScopeDay    = "day"
)

type RateLimitResult struct {
	Allowed           bool   `json:"allowed"`
	RetryAfterSeconds int    `json:"retry_after_seconds,omitempty"`
	Scope             string `json:"scope,omitempty"`
}

// UsageStats is the read-only admission view exposed for UI display.
type UsageStats struct {
	RequestsThisMinute int `json:"requests_this_minute"`
	RequestsToday      int `json:"requests_today"`
	RequestsPerMinute  int `json:"requests_per_minute_limit"`
	RequestsPerDay     int `json:"requests_per_day_limit"`
}

// OperationRecord is per-operation ledger metadata, retained for a fixed
// audit window.
type OperationRecord struct {
	OperationID   string    `json:"operation_id"`
	UserID        string    `json:"user_id"`
	OperationType string    `json:"operation_type"`
	CostUSD       float64   `json:"cost_usd"`
	TokensUsed    int       `json:"tokens_used"`
	Model         string    `json:"model"`
	Timestamp     time.Time `json:"timestamp"`
}
