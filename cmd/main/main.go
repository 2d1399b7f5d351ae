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
	"github.com/redis/go-redis/v9"

	"github.com/talentbase/nl2sql/src/cache"
	"github.com/talentbase/nl2sql/src/config"
	"github.com/talentbase/nl2sql/src/embedding"
	"github.com/talentbase/nl2sql/src/handlers"
	"github.com/talentbase/nl2sql/src/llm"
	"github.com/talentbase/nl2sql/src/schema"
	"github.com/talentbase/nl2sql/src/translator"
	"github.com/talentbase/nl2sql/src/validation"
	"github.com/talentbase/nl2sql/src/vectorstore"
)

func init() {

	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, using system environment variables")
	} else {
		log.Println("✅ Loaded .env file")
	}
}

func main() {

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	log.Printf("✓ Config loaded successfully (default provider: %s)", cfg.LLM.DefaultProvider)

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		pingCancel()
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	pingCancel()
	log.Printf("✓ Redis connected (%s)", cfg.Redis.Address)

	resultCache := cache.NewResultCache(redisClient, cfg.Cache.Strict)
	defer resultCache.Close()

	embedder := embedding.NewClient(cfg.LLM.EmbeddingAPIKey, cfg.LLM.EmbeddingModel)
	log.Printf("✓ Embedding client ready: %s", cfg.LLM.EmbeddingModel)

	store := vectorstore.NewStore(redisClient)
	log.Printf("✓ Vector store ready")

	registry := llm.NewRegistry(cfg)
	log.Printf("✓ Provider registry initialized: %s", strings.Join(registry.ConfiguredProviders(), ", "))

	llmService := llm.NewService(registry)

	validationService := validation.NewService(
		validation.NewFrameworkValidator(),
		validation.NewSecurityValidator(),
		validation.NewSemanticValidator(llmService),
		cfg.Translation.SQLReadOnly,
	)
	log.Printf("✓ Validation engine ready (read-only: %t)", cfg.Translation.SQLReadOnly)

	schemaLoader := schema.NewLoader(cfg.Translation.SchemaDir)

	translationService := translator.NewService(
		cfg,
		llmService,
		registry,
		embedder,
		store,
		validationService,
		schemaLoader,
		resultCache,
	)
	translationService.SetCacheStats(resultCache.Stats)
	log.Printf("✓ Translation pipeline ready")

	gin.SetMode(gin.ReleaseMode)
	r := gin.Default()
	r.Use(gin.Recovery())
	r.Use(corsMiddleware())

	handler := handlers.NewTranslationHandler(translationService, registry, validationService, schemaLoader)

	v1 := r.Group("/api/v1")
	{
		v1.GET("/health", handler.HandleHealth)
		v1.GET("/models", handler.HandleModels)
		v1.GET("/schemas", handler.HandleSchemas)
		v1.POST("/translate", handler.HandleTranslate)
		v1.POST("/validate", handler.HandleValidate)
		v1.POST("/cache/invalidate", handler.HandleInvalidateCache)
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

	log.Printf("🚀 NL2SQL service running on port %s", cfg.Server.Port)

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
		allowedOrigins = []string{
			"http://localhost:3000",
			"http://localhost:3001",
		}
	}

	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

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
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
