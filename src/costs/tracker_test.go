package costs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightboard/llmgateway/src/config"
	"github.com/brightboard/llmgateway/src/models"
)

func setupTestTracker(t *testing.T, cfg *config.BudgetConfig) (*Tracker, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	tracker := NewTracker(client, cfg)
	tracker.now = func() time.Time {
		return time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	}
	return tracker, mr
}

func TestTracker_RecordAndReadDailyCost(t *testing.T) {
	tracker, _ := setupTestTracker(t, &config.BudgetConfig{DailyLimitUSD: 1.00})
	ctx := context.Background()

	cost, err := tracker.GetDailyCost(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 0.0, cost)

	require.NoError(t, tracker.RecordCost(ctx, "user-1", "completion", 0.10))
	require.NoError(t, tracker.RecordCost(ctx, "user-1", "completion", 0.25))

	cost, err = tracker.GetDailyCost(ctx, "user-1")
	require.NoError(t, err)
	assert.InDelta(t, 0.35, cost, 1e-9)

	// Other callers are unaffected
	cost, err = tracker.GetDailyCost(ctx, "user-2")
	require.NoError(t, err)
	assert.Equal(t, 0.0, cost)
}

func TestTracker_RecordOperation(t *testing.T) {
	tracker, _ := setupTestTracker(t, &config.BudgetConfig{DailyLimitUSD: 1.00})
	ctx := context.Background()

	err := tracker.RecordOperation(ctx, "user-1", "op_1", "completion", 0.02, 1500, "gpt-4o-mini")
	require.NoError(t, err)
	err = tracker.RecordOperation(ctx, "user-1", "op_2", "completion", 0.03, 2100, "gpt-4o-mini")
	require.NoError(t, err)

	// Daily total equals the sum of recorded operation costs
	cost, err := tracker.GetDailyCost(ctx, "user-1")
	require.NoError(t, err)
	assert.InDelta(t, 0.05, cost, 1e-9)

	records, err := tracker.GetRecentOperations(ctx, "user-1", 10)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "user-1", records[0].UserID)
	assert.Equal(t, "completion", records[0].OperationType)
	assert.Equal(t, "gpt-4o-mini", records[0].Model)
}

func TestTracker_OperationRetentionWindow(t *testing.T) {
	tracker, _ := setupTestTracker(t, &config.BudgetConfig{DailyLimitUSD: 1.00})
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tracker.now = func() time.Time { return base }
	require.NoError(t, tracker.RecordOperation(ctx, "user-1", "op_old", "completion", 0.01, 100, "gpt-4o-mini"))

	// Eight days later the old record falls outside the audit window and
	// is pruned by the next write.
	tracker.now = func() time.Time { return base.Add(8 * 24 * time.Hour) }
	require.NoError(t, tracker.RecordOperation(ctx, "user-1", "op_new", "completion", 0.01, 100, "gpt-4o-mini"))

	records, err := tracker.GetRecentOperations(ctx, "user-1", 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "op_new", records[0].OperationID)
}

func TestTracker_CheckWithinLimit(t *testing.T) {
	tracker, _ := setupTestTracker(t, &config.BudgetConfig{DailyLimitUSD: 1.00})
	ctx := context.Background()

	require.NoError(t, tracker.RecordCost(ctx, "user-1", "completion", 0.96))

	// Strictly below the limit is still ok
	ok, current, err := tracker.CheckWithinLimit(ctx, "user-1", 1.00)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.InDelta(t, 0.96, current, 1e-9)

	// ... but past the warning threshold
	warned, err := tracker.CheckWarningThreshold(ctx, "user-1", 1.00, 0.8)
	require.NoError(t, err)
	assert.True(t, warned)

	// A further charge pushes the total to the limit
	require.NoError(t, tracker.RecordCost(ctx, "user-1", "completion", 0.05))

	ok, current, err = tracker.CheckWithinLimit(ctx, "user-1", 1.00)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.InDelta(t, 1.01, current, 1e-9)
}

func TestTracker_WarningThresholdNotReached(t *testing.T) {
	tracker, _ := setupTestTracker(t, &config.BudgetConfig{DailyLimitUSD: 1.00})
	ctx := context.Background()

	require.NoError(t, tracker.RecordCost(ctx, "user-1", "completion", 0.50))

	warned, err := tracker.CheckWarningThreshold(ctx, "user-1", 1.00, 0.8)
	require.NoError(t, err)
	assert.False(t, warned)
}

func TestTracker_FailClosedByDefault(t *testing.T) {
	tracker, mr := setupTestTracker(t, &config.BudgetConfig{DailyLimitUSD: 1.00})
	mr.Close()

	_, _, err := tracker.CheckWithinLimit(context.Background(), "user-1", 1.00)
	require.Error(t, err)

	var storeErr *models.StoreUnavailableError
	assert.True(t, errors.As(err, &storeErr))
}

func TestTracker_FailOpenWhenConfigured(t *testing.T) {
	tracker, mr := setupTestTracker(t, &config.BudgetConfig{DailyLimitUSD: 1.00, FailOpen: true})
	mr.Close()

	ok, _, err := tracker.CheckWithinLimit(context.Background(), "user-1", 1.00)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestTracker_DailyAccumulatorExpires(t *testing.T) {
	tracker, mr := setupTestTracker(t, &config.BudgetConfig{DailyLimitUSD: 1.00})
	ctx := context.Background()

	require.NoError(t, tracker.RecordCost(ctx, "user-1", "completion", 0.10))

	mr.FastForward(49 * time.Hour)

	cost, err := tracker.GetDailyCost(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 0.0, cost)
}
