package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/brightboard/llmgateway/src/models"
)

// MockRateLimiter implements models.RateLimiter
type MockRateLimiter struct {
	mock.Mock
}

func (m *MockRateLimiter) CheckAndRecord(ctx context.Context, userID string) (*models.RateLimitResult, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RateLimitResult), args.Error(1)
}

func (m *MockRateLimiter) GetUsage(ctx context.Context, userID string) (*models.UsageStats, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UsageStats), args.Error(1)
}

// MockCostTracker implements models.CostTracker
type MockCostTracker struct {
	mock.Mock
}

func (m *MockCostTracker) RecordCost(ctx context.Context, userID, operationType string, costUSD float64) error {
	args := m.Called(ctx, userID, operationType, costUSD)
	return args.Error(0)
}

func (m *MockCostTracker) RecordOperation(ctx context.Context, userID, operationID, operationType string, costUSD float64, tokensUsed int, model string) error {
	args := m.Called(ctx, userID, operationID, operationType, costUSD, tokensUsed, model)
	return args.Error(0)
}

func (m *MockCostTracker) GetDailyCost(ctx context.Context, userID string) (float64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(float64), args.Error(1)
}

func (m *MockCostTracker) CheckWithinLimit(ctx context.Context, userID string, dailyLimitUSD float64) (bool, float64, error) {
	args := m.Called(ctx, userID, dailyLimitUSD)
	return args.Bool(0), args.Get(1).(float64), args.Error(2)
}

func (m *MockCostTracker) CheckWarningThreshold(ctx context.Context, userID string, limitUSD, thresholdFraction float64) (bool, error) {
	args := m.Called(ctx, userID, limitUSD, thresholdFraction)
	return args.Bool(0), args.Error(1)
}

func (m *MockCostTracker) EstimateCost(tokens int, model string) float64 {
	args := m.Called(tokens, model)
	return args.Get(0).(float64)
}

// MockCompletionCache implements models.CompletionCache
type MockCompletionCache struct {
	mock.Mock
}

func (m *MockCompletionCache) Lookup(ctx context.Context, req *models.CompletionRequest) (*models.CompletionResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CompletionResponse), args.Error(1)
}

func (m *MockCompletionCache) Store(ctx context.Context, req *models.CompletionRequest, resp *models.CompletionResponse) error {
	args := m.Called(ctx, req, resp)
	return args.Error(0)
}

// MockProvider implements models.CompletionProvider
type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) Complete(ctx context.Context, req *models.CompletionRequest) (*models.ProviderResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ProviderResult), args.Error(1)
}

func (m *MockProvider) Name() string {
	args := m.Called()
	return args.String(0)
}
