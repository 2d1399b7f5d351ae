package llm

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/talentbase/nl2sql/src/config"
	"github.com/talentbase/nl2sql/src/models"
)

// Registry creates provider clients on first use and caches them for the
// process lifetime. Construction is guarded with double-checked locking so
// concurrent requests for the same provider build a single client.
type Registry struct {
	cfg       *config.Config
	mu        sync.RWMutex
	providers map[string]models.Provider
	stats     *Stats
}

func NewRegistry(cfg *config.Config) *Registry {
	return &Registry{
		cfg:       cfg,
		providers: make(map[string]models.Provider),
		stats:     NewStats(),
	}
}

func (r *Registry) Stats() *Stats { return r.stats }

// GetProvider returns the cached client for name, building it on first use.
// An empty name selects the configured default provider.
func (r *Registry) GetProvider(ctx context.Context, name string) (models.Provider, error) {
	name = normalizeProviderName(name)
	if name == "" {
		name = r.cfg.LLM.DefaultProvider
	}

	r.mu.RLock()
	p, ok := r.providers[name]
	r.mu.RUnlock()
	if ok {
		return p, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.providers[name]; ok {
		return p, nil
	}

	p, err := r.build(ctx, name)
	if err != nil {
		return nil, err
	}
	r.providers[name] = p
	log.Printf("✓ Fournisseur LLM initialisé: %s (modèle %s)", name, p.DefaultModel())
	return p, nil
}

func (r *Registry) build(ctx context.Context, name string) (models.Provider, error) {
	switch name {
	case "openai":
		return NewOpenAIProvider(&r.cfg.LLM)
	case "anthropic":
		return NewAnthropicProvider(&r.cfg.LLM)
	case "google":
		return NewGoogleProvider(ctx, &r.cfg.LLM)
	}
	return nil, models.NewLLMConfigError(name, fmt.Sprintf("fournisseur inconnu: %s", name))
}

// GenerateCompletion routes a chat completion to the named provider and
// records the outcome. Implements models.Generator.
func (r *Registry) GenerateCompletion(ctx context.Context, messages []models.ChatMessage, provider, model string, opts models.GenerateOptions) (string, error) {
	p, err := r.GetProvider(ctx, provider)
	if err != nil {
		return "", err
	}
	result, err := p.GenerateCompletion(ctx, messages, model, opts)
	if err != nil {
		r.stats.RecordFailure(p.Name())
		return "", err
	}
	r.stats.RecordSuccess(p.Name())
	return result, nil
}

// ConfiguredProviders lists the provider names that have an API key set.
func (r *Registry) ConfiguredProviders() []string {
	var names []string
	for _, name := range []string{"openai", "anthropic", "google"} {
		if r.cfg.ProviderKey(name) != "" {
			names = append(names, name)
		}
	}
	return names
}

// AvailableModels lists the catalogs of every configured provider. Providers
// that fail to initialize are reported with an error entry rather than
// failing the whole listing.
func (r *Registry) AvailableModels(ctx context.Context) (map[string][]models.ModelInfo, map[string]string) {
	catalogs := make(map[string][]models.ModelInfo)
	failures := make(map[string]string)
	for _, name := range r.ConfiguredProviders() {
		p, err := r.GetProvider(ctx, name)
		if err != nil {
			failures[name] = err.Error()
			continue
		}
		catalogs[name] = p.AvailableModels()
	}
	return catalogs, failures
}

// HealthCheckAll runs a health check against every configured provider.
func (r *Registry) HealthCheckAll(ctx context.Context) map[string]any {
	out := make(map[string]any)
	for _, name := range r.ConfiguredProviders() {
		p, err := r.GetProvider(ctx, name)
		if err != nil {
			out[name] = map[string]any{"status": "unhealthy", "error": err.Error()}
			continue
		}
		out[name] = p.HealthCheck(ctx)
	}
	return out
}
