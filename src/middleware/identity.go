package middleware

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/brightboard/llmgateway/src/auth"
)

// ContextUserID is the gin context key carrying the resolved caller.
const ContextUserID = "user_id"

// IdentityMiddleware resolves the caller for admission control and cost
// accounting. Authentication itself (login, sessions, OAuth) lives in the
// surrounding platform; this boundary only needs a caller ID.
type IdentityMiddleware struct {
	keys          *auth.APIKeyStore
	requireAPIKey bool
}

func NewIdentityMiddleware(keys *auth.APIKeyStore, requireAPIKey bool) *IdentityMiddleware {
	return &IdentityMiddleware{
		keys:          keys,
		requireAPIKey: requireAPIKey,
	}
}

func (m *IdentityMiddleware) ResolveCaller() gin.HandlerFunc {
	return func(c *gin.Context) {
		apiKey := c.GetHeader("X-API-Key")
		if apiKey == "" {
			authHeader := c.GetHeader("Authorization")
			if strings.HasPrefix(authHeader, "Bearer ") {
				apiKey = strings.TrimPrefix(authHeader, "Bearer ")
			}
		}

		if apiKey != "" {
			userID, err := m.keys.ResolveUser(c.Request.Context(), apiKey)
			if err != nil {
				if errors.Is(err, auth.ErrKeyNotFound) {
					c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid API key"})
				} else {
					log.Printf("api key resolution failed: %v", err)
					c.JSON(http.StatusServiceUnavailable, gin.H{"error": "service temporarily unavailable, try again"})
				}
				c.Abort()
				return
			}
			c.Set(ContextUserID, userID)
			c.Next()
			return
		}

		// Without key auth the gateway trusts the identity the upstream
		// web layer resolved.
		if !m.requireAPIKey {
			if userID := c.GetHeader("X-User-ID"); userID != "" {
				c.Set(ContextUserID, userID)
				c.Next()
				return
			}
		}

		c.JSON(http.StatusUnauthorized, gin.H{"error": "caller identity required"})
		c.Abort()
	}
}
