package gateway

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/brightboard/llmgateway/src/cache"
	"github.com/brightboard/llmgateway/src/chat"
	"github.com/brightboard/llmgateway/src/config"
	"github.com/brightboard/llmgateway/src/costs"
	"github.com/brightboard/llmgateway/src/metrics"
	"github.com/brightboard/llmgateway/src/models"
)

const operationTypeCompletion = "completion"

// Options control per-call gateway behavior. Both default to enabled.
type Options struct {
	UseCache    bool
	TrimContext bool
}

func DefaultOptions() Options {
	return Options{UseCache: true, TrimContext: true}
}

// Service orchestrates admission control, budget checks, context trimming,
// response caching and the single upstream provider call. It holds no
// shared mutable state of its own; everything shared lives in the
// externally backed stores, so one Service is safe for any number of
// concurrent callers across process instances.
type Service struct {
	provider models.CompletionProvider
	limiter  models.RateLimiter
	costs    models.CostTracker
	cache    models.CompletionCache
	cfg      *config.Config
	flight   singleflight.Group
}

func NewService(
	provider models.CompletionProvider,
	limiter models.RateLimiter,
	costs models.CostTracker,
	responseCache models.CompletionCache,
	cfg *config.Config,
) *Service {
	return &Service{
		provider: provider,
		limiter:  limiter,
		costs:    costs,
		cache:    responseCache,
		cfg:      cfg,
	}
}

// GenerateCompletion turns an application-level completion request into a
// safe call against the paid provider: fail fast on admission and budget,
// trim context, serve from cache when possible, and record cost only for
// actually-billed usage. At most one provider call is made per invocation;
// retries are the caller's responsibility.
func (s *Service) GenerateCompletion(ctx context.Context, userID string, req *models.CompletionRequest, opts Options) (*models.CompletionResponse, error) {
	started := time.Now()

	if userID != "" {
		admission, err := s.limiter.CheckAndRecord(ctx, userID)
		if err != nil {
			metrics.CompletionRequests.WithLabelValues(metrics.OutcomeStoreError).Inc()
			return nil, err
		}
		if !admission.Allowed {
			metrics.CompletionRequests.WithLabelValues(metrics.OutcomeRateLimited).Inc()
			return nil, &models.RateLimitError{
				Scope:             admission.Scope,
				RetryAfterSeconds: admission.RetryAfterSeconds,
			}
		}

		ok, current, err := s.costs.CheckWithinLimit(ctx, userID, s.cfg.Budget.DailyLimitUSD)
		if err != nil {
			metrics.CompletionRequests.WithLabelValues(metrics.OutcomeStoreError).Inc()
			return nil, err
		}
		if !ok {
			metrics.CompletionRequests.WithLabelValues(metrics.OutcomeBudgetExceeded).Inc()
			return nil, &models.BudgetExceededError{
				UserID:      userID,
				CurrentCost: current,
				DailyLimit:  s.cfg.Budget.DailyLimitUSD,
			}
		}
		if current >= s.cfg.Budget.DailyLimitUSD*s.cfg.Budget.WarningThreshold {
			log.Printf("user %s is at %.0f%% of daily budget ($%.4f of $%.2f)",
				userID, current/s.cfg.Budget.DailyLimitUSD*100, current, s.cfg.Budget.DailyLimitUSD)
		}
	}

	r := s.withDefaults(req)
	if opts.TrimContext {
		r.Messages = chat.TrimMessages(r.Messages, r.SystemPrompt, s.cfg.Context.MaxMessages, s.cfg.Context.MaxTokenBudget)
	}

	useCache := opts.UseCache && s.cfg.Cache.Enabled
	if useCache {
		cached, err := s.cache.Lookup(ctx, r)
		if err != nil {
			// The cache is an optimization layer, never a correctness
			// dependency: a failed lookup is a miss.
			log.Printf("cache lookup failed, treating as miss: %v", err)
		} else if cached != nil {
			hit := *cached
			hit.Cached = true
			hit.ResponseTimeMs = time.Since(started).Milliseconds()
			metrics.CompletionRequests.WithLabelValues(metrics.OutcomeCacheHit).Inc()
			return &hit, nil
		}
	}

	resp, err := s.completeUncached(ctx, userID, r, useCache)
	if err != nil {
		var perr *models.ProviderError
		if errors.As(err, &perr) {
			metrics.CompletionRequests.WithLabelValues(metrics.OutcomeProviderError).Inc()
		} else {
			metrics.CompletionRequests.WithLabelValues(metrics.OutcomeStoreError).Inc()
		}
		return nil, err
	}

	metrics.CompletionRequests.WithLabelValues(metrics.OutcomeSuccess).Inc()
	return resp, nil
}

// completeUncached collapses concurrent identical cache misses into one
// in-flight provider call. Followers share the leader's response; only the
// leader stores the cache entry and records cost.
func (s *Service) completeUncached(ctx context.Context, userID string, req *models.CompletionRequest, useCache bool) (*models.CompletionResponse, error) {
	if !useCache {
		// Caller explicitly asked for a fresh call; don't collapse it
		// into someone else's.
		return s.callProvider(ctx, userID, req, false)
	}

	v, err, _ := s.flight.Do(cache.CacheKey(req), func() (interface{}, error) {
		return s.callProvider(ctx, userID, req, true)
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.CompletionResponse), nil
}

func (s *Service) callProvider(ctx context.Context, userID string, req *models.CompletionRequest, storeInCache bool) (*models.CompletionResponse, error) {
	callCtx := ctx
	if s.cfg.Provider.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, s.cfg.Provider.Timeout)
		defer cancel()
	}

	started := time.Now()
	result, err := s.provider.Complete(callCtx, req)
	elapsed := time.Since(started)
	metrics.ProviderLatency.Observe(elapsed.Seconds())

	// On failure or timeout nothing is cached and no cost is recorded;
	// only actually-billed usage enters the ledger.
	if err != nil {
		var perr *models.ProviderError
		if errors.As(err, &perr) {
			return nil, err
		}
		return nil, &models.ProviderError{Provider: s.provider.Name(), Err: err}
	}

	tokensUsed := result.TotalTokens
	if tokensUsed == 0 {
		tokensUsed = result.PromptTokens + result.CompletionTokens
	}
	if tokensUsed == 0 {
		// Some OpenAI-compatible endpoints omit usage entirely; fall back
		// to the length heuristic so the call is still charged.
		tokensUsed = estimateUsage(req, result.Content)
	}
	costUSD := s.costs.EstimateCost(tokensUsed, result.Model)

	resp := &models.CompletionResponse{
		Content:          result.Content,
		Model:            result.Model,
		Provider:         s.provider.Name(),
		TokensUsed:       tokensUsed,
		PromptTokens:     result.PromptTokens,
		CompletionTokens: result.CompletionTokens,
		FinishReason:     result.FinishReason,
		ResponseTimeMs:   elapsed.Milliseconds(),
		Timestamp:        time.Now().UTC(),
		Cached:           false,
		CostUSD:          costUSD,
	}

	if storeInCache {
		if err := s.cache.Store(ctx, req, resp); err != nil {
			log.Printf("cache store failed, continuing without cache: %v", err)
		}
	}

	if userID != "" {
		operationID := "op_" + uuid.New().String()
		if err := s.costs.RecordOperation(ctx, userID, operationID, operationTypeCompletion, costUSD, tokensUsed, result.Model); err != nil {
			// The completion already happened and was billed upstream;
			// returning an error here would waste it. Surface in logs.
			log.Printf("failed to record cost for user %s (op %s): %v", userID, operationID, err)
		} else {
			metrics.CostRecordedUSD.Add(costUSD)
		}
	}

	return resp, nil
}

// GetUserUsage exposes the caller's admission counters for UI display.
func (s *Service) GetUserUsage(ctx context.Context, userID string) (*models.UsageStats, error) {
	return s.limiter.GetUsage(ctx, userID)
}

// GetDailyCost exposes the caller's spend plus whether it has crossed the
// configured warning threshold.
func (s *Service) GetDailyCost(ctx context.Context, userID string) (float64, bool, error) {
	cost, err := s.costs.GetDailyCost(ctx, userID)
	if err != nil {
		return 0, false, err
	}
	warning, err := s.costs.CheckWarningThreshold(ctx, userID, s.cfg.Budget.DailyLimitUSD, s.cfg.Budget.WarningThreshold)
	if err != nil {
		return cost, false, err
	}
	return cost, warning, nil
}

// estimateUsage approximates billed tokens from the exchanged text when a
// provider response carries no usage data.
func estimateUsage(req *models.CompletionRequest, content string) int {
	total := costs.EstimateTokens(req.SystemPrompt) + costs.EstimateTokens(content)
	for _, msg := range req.Messages {
		total += costs.EstimateTokens(msg.Content)
	}
	return total
}

// withDefaults fills unset request fields from provider config without
// mutating the caller's request.
func (s *Service) withDefaults(req *models.CompletionRequest) *models.CompletionRequest {
	r := *req
	if r.Model == "" {
		r.Model = s.cfg.Provider.Model
	}
	if r.Temperature == nil {
		temperature := s.cfg.Provider.Temperature
		r.Temperature = &temperature
	}
	if r.MaxTokens <= 0 {
		r.MaxTokens = s.cfg.Provider.MaxTokens
	}
	return &r
}
