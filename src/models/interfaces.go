package models

import (
	"context"
	"time"
)

// Provider is the uniform interface over the interchangeable LLM backends.
// Each implementation owns its wire format, model catalog and retry policy.
type Provider interface {
	Name() string
	DefaultModel() string
	AvailableModels() []ModelInfo
	GenerateCompletion(ctx context.Context, messages []ChatMessage, model string, opts GenerateOptions) (string, error)
	HealthCheck(ctx context.Context) map[string]any
}

// Generator is the registry-level generation contract consumed by the
// task-specific operations (SQL generation, semantic check, explanation,
// relevance). An empty provider selects the configured default.
type Generator interface {
	GenerateCompletion(ctx context.Context, messages []ChatMessage, provider, model string, opts GenerateOptions) (string, error)
}

// Embedder converts text into an embedding vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	HealthCheck(ctx context.Context) map[string]any
}

// VectorStore is the retrieval collaborator: nearest-neighbor search over
// stored question/SQL examples plus best-effort upserts of accepted results.
type VectorStore interface {
	// FindSimilar returns up to topK matches ordered by descending score.
	FindSimilar(ctx context.Context, vector []float32, topK int) ([]SimilarQueryMatch, error)
	Store(ctx context.Context, question string, vector []float32, sql string) error
	HealthCheck(ctx context.Context) map[string]any
}

// ResultCache is the best-effort translation result cache.
type ResultCache interface {
	Get(ctx context.Context, key string) (*TranslationResult, error)
	Set(ctx context.Context, key string, result *TranslationResult, ttl time.Duration) error
	Invalidate(ctx context.Context, pattern string) (int, error)
	Close() error
}

// SchemaLoader resolves a schema path into its textual description.
type SchemaLoader interface {
	Load(path string) (string, error)
}
