package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Completion request outcomes.
const (
	OutcomeSuccess        = "success"
	OutcomeCacheHit       = "cache_hit"
	OutcomeRateLimited    = "rate_limited"
	OutcomeBudgetExceeded = "budget_exceeded"
	OutcomeProviderError  = "provider_error"
	OutcomeStoreError     = "store_error"
)

var (
	CompletionRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "llm_gateway_completion_requests_total",
		Help: "Completion requests handled by the gateway, labeled by outcome.",
	}, []string{"outcome"})

	ProviderLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "llm_gateway_provider_latency_seconds",
		Help:    "Latency of upstream provider calls.",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
	})

	CostRecordedUSD = promauto.NewCounter(prometheus.CounterOpts{
		Name: "llm_gateway_cost_recorded_usd_total",
		Help: "Total cost recorded to the ledger in USD.",
	})
)
