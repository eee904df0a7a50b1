package costs

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/brightboard/llmgateway/src/config"
	"github.com/brightboard/llmgateway/src/models"
)

const (
	dailyCostKeyPrefix  = "llm_cost:daily:"
	operationsKeyPrefix = "llm_cost:ops:"

	// The daily accumulator outlives its calendar day so late writes near
	// midnight are not dropped by timezone skew.
	dailyCostTTL = 48 * time.Hour

	// Per-operation metadata is kept for a fixed audit window.
	operationRetention = 7 * 24 * time.Hour
	operationsKeyTTL   = 8 * 24 * time.Hour
)

// Tracker is the cost ledger: a per-(caller, day) monetary accumulator in
// Redis plus a bounded set of per-operation audit records. The accumulator
// uses atomic float increments so concurrent writers never lose updates.
//
// The ledger is advisory accounting, not a financial system of record.
// Budget checks are read-then-compare: a caller can overshoot its limit by
// at most one in-flight completion.
type Tracker struct {
	client  *redis.Client
	pricing *Pricing
	cfg     *config.BudgetConfig
	now     func() time.Time
}

func NewTracker(client *redis.Client, cfg *config.BudgetConfig) *Tracker {
	return &Tracker{
		client:  client,
		pricing: NewPricing(cfg),
		cfg:     cfg,
		now:     time.Now,
	}
}

// RecordCost adds to the caller's daily accumulator and re-arms its
// expiration.
func (t *Tracker) RecordCost(ctx context.Context, userID, operationType string, costUSD float64) error {
	key := t.dailyKey(userID)

	pipe := t.client.Pipeline()
	pipe.IncrByFloat(ctx, key, costUSD)
	pipe.Expire(ctx, key, dailyCostTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		return &models.StoreUnavailableError{Component: "cost ledger", Err: err}
	}
	return nil
}

// RecordOperation records the spend plus a per-operation audit record.
// Records older than the retention window are pruned on each write.
func (t *Tracker) RecordOperation(ctx context.Context, userID, operationID, operationType string, costUSD float64, tokensUsed int, model string) error {
	now := t.now().UTC()

	record := models.OperationRecord{
		OperationID:   operationID,
		UserID:        userID,
		OperationType: operationType,
		CostUSD:       costUSD,
		TokensUsed:    tokensUsed,
		Model:         model,
		Timestamp:     now,
	}
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal operation record: %w", err)
	}

	dailyKey := t.dailyKey(userID)
	opsKey := operationsKeyPrefix + userID
	cutoff := now.Add(-operationRetention).Unix()

	pipe := t.client.Pipeline()
	pipe.IncrByFloat(ctx, dailyKey, costUSD)
	pipe.Expire(ctx, dailyKey, dailyCostTTL)
	pipe.ZAdd(ctx, opsKey, redis.Z{Score: float64(now.Unix()), Member: data})
	pipe.ZRemRangeByScore(ctx, opsKey, "-inf", strconv.FormatInt(cutoff, 10))
	pipe.Expire(ctx, opsKey, operationsKeyTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		return &models.StoreUnavailableError{Component: "cost ledger", Err: err}
	}
	return nil
}

// GetDailyCost returns the caller's accumulated spend for the current UTC
// day. A missing accumulator means zero spend.
func (t *Tracker) GetDailyCost(ctx context.Context, userID string) (float64, error) {
	val, err := t.client.Get(ctx, t.dailyKey(userID)).Result()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, &models.StoreUnavailableError{Component: "cost ledger", Err: err}
	}

	cost, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, fmt.Errorf("corrupt daily cost value %q: %w", val, err)
	}
	return cost, nil
}

// CheckWithinLimit reports whether the caller is strictly below its daily
// budget. Advisory: the true cost of a completion is only known after the
// provider responds, so this is checked before the call is issued.
func (t *Tracker) CheckWithinLimit(ctx context.Context, userID string, dailyLimitUSD float64) (bool, float64, error) {
	current, err := t.GetDailyCost(ctx, userID)
	if err != nil {
		if t.cfg.FailOpen {
			log.Printf("cost ledger unavailable, failing open: %v", err)
			return true, 0, nil
		}
		return false, 0, err
	}
	return current < dailyLimitUSD, current, nil
}

// CheckWarningThreshold reports whether spend has reached the given
// fraction of the limit.
func (t *Tracker) CheckWarningThreshold(ctx context.Context, userID string, limitUSD, thresholdFraction float64) (bool, error) {
	current, err := t.GetDailyCost(ctx, userID)
	if err != nil {
		return false, err
	}
	return current >= limitUSD*thresholdFraction, nil
}

// GetRecentOperations returns the newest audit records for a caller, most
// recent first.
func (t *Tracker) GetRecentOperations(ctx context.Context, userID string, limit int) ([]models.OperationRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	vals, err := t.client.ZRevRange(ctx, operationsKeyPrefix+userID, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, &models.StoreUnavailableError{Component: "cost ledger", Err: err}
	}

	records := make([]models.OperationRecord, 0, len(vals))
	for _, v := range vals {
		var record models.OperationRecord
		if err := json.Unmarshal([]byte(v), &record); err != nil {
			log.Printf("skipping corrupt operation record: %v", err)
			continue
		}
		records = append(records, record)
	}
	return records, nil
}

// EstimateCost converts actual token usage into USD via the static price
// table.
func (t *Tracker) EstimateCost(tokens int, model string) float64 {
	return t.pricing.EstimateCost(tokens, model)
}

func (t *Tracker) dailyKey(userID string) string {
	return fmt.Sprintf("%s%s:%s", dailyCostKeyPrefix, userID, t.now().UTC().Format("2006-01-02"))
}
