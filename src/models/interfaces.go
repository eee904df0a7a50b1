package models

import (
	"context"
)

// RateLimiter decides whether a caller may proceed based on rolling
// per-minute and per-day request counts.
type RateLimiter interface {
	CheckAndRecord(ctx context.Context, userID string) (*RateLimitResult, error)
	GetUsage(ctx context.Context, userID string) (*UsageStats, error)
}

// CostTracker records spend against a rolling daily budget and answers
// advisory budget checks.
type CostTracker interface {
	RecordCost(ctx context.Context, userID, operationType string, costUSD float64) error
	RecordOperation(ctx context.Context, userID, operationID, operationType string, costUSD float64, tokensUsed int, model string) error
	GetDailyCost(ctx context.Context, userID string) (float64, error)
	CheckWithinLimit(ctx context.Context, userID string, dailyLimitUSD float64) (bool, float64, error)
	CheckWarningThreshold(ctx context.Context, userID string, limitUSD, thresholdFraction float64) (bool, error)
	EstimateCost(tokens int, model string) float64
}

// CompletionCache is a content-addressed response cache. A nil response
// with a nil error is a miss.
type CompletionCache interface {
	Lookup(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)
	Store(ctx context.Context, req *CompletionRequest, resp *CompletionResponse) error
}

// CompletionProvider is the single upstream text-generation collaborator.
type CompletionProvider interface {
	Complete(ctx context.Context, req *CompletionRequest) (*ProviderResult, error)
	Name() string
}
