package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/brightboard/llmgateway/src/auth"
	"github.com/brightboard/llmgateway/src/cache"
	"github.com/brightboard/llmgateway/src/config"
	"github.com/brightboard/llmgateway/src/costs"
	"github.com/brightboard/llmgateway/src/gateway"
	"github.com/brightboard/llmgateway/src/handlers"
	"github.com/brightboard/llmgateway/src/inference"
	"github.com/brightboard/llmgateway/src/middleware"
	"github.com/brightboard/llmgateway/src/ratelimit"
)

func init() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, using system environment variables")
	} else {
		log.Println("✅ Loaded .env file")
	}
}

func main() {
	if os.Getenv("LLM_API_KEY") == "" {
		log.Fatal("❌ LLM_API_KEY not set in environment or .env file")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	log.Printf("✓ Config loaded successfully")

	redisClient, err := cache.NewRedisClient(&cfg.Redis)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()
	log.Printf("✓ Redis connected")

	provider, err := inference.NewOpenAIProvider(&cfg.Provider)
	if err != nil {
		log.Fatalf("Failed to initialize provider: %v", err)
	}
	log.Printf("✓ Provider ready: %s (%s)", cfg.Provider.Name, cfg.Provider.Model)

	limiter := ratelimit.NewLimiter(redisClient, &cfg.RateLimit)
	log.Printf("✓ Rate limiter ready (%d/min, %d/day)", cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.RequestsPerDay)

	costTracker := costs.NewTracker(redisClient, &cfg.Budget)
	log.Printf("✓ Cost ledger ready (daily limit $%.2f)", cfg.Budget.DailyLimitUSD)

	responseCache := cache.NewResponseCache(redisClient, cfg.Cache.TTL)
	log.Printf("✓ Response cache ready (TTL %s)", cfg.Cache.TTL)

	gatewaySvc := gateway.NewService(provider, limiter, costTracker, responseCache, cfg)
	log.Printf("✓ Gateway service initialized")

	keyStore := auth.NewAPIKeyStore(redisClient)
	identity := middleware.NewIdentityMiddleware(keyStore, cfg.Auth.RequireAPIKey)

	gin.SetMode(gin.ReleaseMode)
	r := gin.Default()
	r.Use(gin.Recovery())
	r.Use(corsMiddleware())

	completionHandler := handlers.NewCompletionHandler(gatewaySvc)

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/api/v1")
	{
		v1.GET("/health", completionHandler.HealthCheck)

		protected := v1.Group("")
		protected.Use(identity.ResolveCaller())
		{
			protected.POST("/completions", completionHandler.HandleCompletion)
			protected.GET("/usage", completionHandler.GetUsage)
			protected.GET("/usage/cost", completionHandler.GetDailyCost)
		}
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	log.Printf("🚀 LLM gateway running on port %s", cfg.Server.Port)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}

func corsMiddleware() gin.HandlerFunc {
	allowedOriginsEnv := os.Getenv("ALLOWED_ORIGINS")
	var allowedOrigins []string

	if allowedOriginsEnv != "" {
		allowedOrigins = strings.Split(allowedOriginsEnv, ",")
		for i := range allowedOrigins {
			allowedOrigins[i] = strings.TrimSpace(allowedOrigins[i])
		}
	} else {
		// Default for local development
		allowedOrigins = []string{
			"http://localhost:3000",
			"http://localhost:3001",
		}
	}

	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		// Requests without an Origin header (curl, health checks) pass through
		if origin == "" {
			c.Next()
			return
		}

		allowed := false
		for _, allowedOrigin := range allowedOrigins {
			if origin == allowedOrigin {
				allowed = true
				c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
				break
			}
		}

		if !allowed {
			c.AbortWithStatus(403)
			return
		}

		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-API-Key, X-User-ID")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
