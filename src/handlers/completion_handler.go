package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/brightboard/llmgateway/src/gateway"
	"github.com/brightboard/llmgateway/src/middleware"
	"github.com/brightboard/llmgateway/src/models"
)

type CompletionHandler struct {
	gateway *gateway.Service
}

func NewCompletionHandler(svc *gateway.Service) *CompletionHandler {
	return &CompletionHandler{
		gateway: svc,
	}
}

type completionRequestBody struct {
	Messages     []models.Message `json:"messages" binding:"required,min=1"`
	SystemPrompt string           `json:"system_prompt,omitempty"`
	Model        string           `json:"model,omitempty"`
	Temperature  *float32         `json:"temperature,omitempty"`
	MaxTokens    int              `json:"max_tokens,omitempty"`
	UseCache     *bool            `json:"use_cache,omitempty"`
	TrimContext  *bool            `json:"trim_context,omitempty"`
}

func (h *CompletionHandler) HandleCompletion(c *gin.Context) {
	var body completionRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	opts := gateway.DefaultOptions()
	if body.UseCache != nil {
		opts.UseCache = *body.UseCache
	}
	if body.TrimContext != nil {
		opts.TrimContext = *body.TrimContext
	}

	req := &models.CompletionRequest{
		Messages:     body.Messages,
		SystemPrompt: body.SystemPrompt,
		Model:        body.Model,
		Temperature:  body.Temperature,
		MaxTokens:    body.MaxTokens,
	}

	userID := c.GetString(middleware.ContextUserID)

	resp, err := h.gateway.GenerateCompletion(c.Request.Context(), userID, req, opts)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// writeError maps gateway errors to HTTP responses. Admission and budget
// failures carry enough structure for a helpful message; infrastructure
// failures are logged in full and surfaced generically.
func (h *CompletionHandler) writeError(c *gin.Context, err error) {
	var rateErr *models.RateLimitError
	if errors.As(err, &rateErr) {
		c.Header("Retry-After", strconv.Itoa(rateErr.RetryAfterSeconds))
		c.JSON(http.StatusTooManyRequests, gin.H{
			"error":               "rate limit exceeded",
			"scope":               rateErr.Scope,
			"retry_after_seconds": rateErr.RetryAfterSeconds,
		})
		return
	}

	var budgetErr *models.BudgetExceededError
	if errors.As(err, &budgetErr) {
		c.JSON(http.StatusPaymentRequired, gin.H{
			"error":            "daily budget exceeded",
			"current_cost_usd": budgetErr.CurrentCost,
			"daily_limit_usd":  budgetErr.DailyLimit,
		})
		return
	}

	var providerErr *models.ProviderError
	if errors.As(err, &providerErr) {
		log.Printf("provider call failed: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "completion failed, try again"})
		return
	}

	var storeErr *models.StoreUnavailableError
	if errors.As(err, &storeErr) {
		log.Printf("backing store degraded: %v", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "service temporarily unavailable, try again"})
		return
	}

	log.Printf("completion failed: %v", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}

// GetUsage returns the caller's current admission counters and limits.
func (h *CompletionHandler) GetUsage(c *gin.Context) {
	userID := c.GetString(middleware.ContextUserID)

	stats, err := h.gateway.GetUserUsage(c.Request.Context(), userID)
	if err != nil {
		log.Printf("usage lookup failed for user %s: %v", userID, err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "service temporarily unavailable, try again"})
		return
	}

	c.JSON(http.StatusOK, stats)
}

// GetDailyCost returns the caller's spend for the current UTC day.
func (h *CompletionHandler) GetDailyCost(c *gin.Context) {
	userID := c.GetString(middleware.ContextUserID)

	cost, warning, err := h.gateway.GetDailyCost(c.Request.Context(), userID)
	if err != nil {
		log.Printf("cost lookup failed for user %s: %v", userID, err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "service temporarily unavailable, try again"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"daily_cost_usd": cost,
		"budget_warning": warning,
	})
}

func (h *CompletionHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now(),
	})
}
