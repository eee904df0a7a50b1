package models

import "fmt"

// RateLimitError reports a rejected admission check. Retryable once the
// current window rolls over.
type RateLimitError struct {
	Scope             string
	RetryAfterSeconds int
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded for %s window, retry in %ds", e.Scope, e.RetryAfterSeconds)
}

// BudgetExceededError reports a caller at or past its daily spend limit.
type BudgetExceededError struct {
	UserID      string
	CurrentCost float64
	DailyLimit  float64
}

func (e *BudgetExceededError) Error() string {
	return fmt.Sprintf("daily budget exceeded: user=%s spent=%.4f limit=%.4f", e.UserID, e.CurrentCost, e.DailyLimit)
}

// ProviderError wraps an upstream completion failure.
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s failed: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// StoreUnavailableError reports backing-store degradation for a component
// configured to fail closed.
type StoreUnavailableError struct {
	Component string
	Err       error
}

func (e *StoreUnavailableError) Error() string {
	return fmt.Sprintf("%s store unavailable: %v", e.Component, e.Err)
}

func (e *StoreUnavailableError) Unwrap() error { return e.Err }
