package llm

import (
	"fmt"

	"github.com/tmc/langchaingo/llms/anthropic"

	"github.com/talentbase/nl2sql/src/config"
	"github.com/talentbase/nl2sql/src/models"
)

var anthropicCatalog = []models.ModelInfo{
	{Provider: "anthropic", ID: "claude-3-5-sonnet-20241022", Name: "Claude 3.5 Sonnet", ContextLength: 200000},
	{Provider: "anthropic", ID: "claude-3-opus-20240229", Name: "Claude 3 Opus", ContextLength: 200000},
	{Provider: "anthropic", ID: "claude-3-sonnet-20240229", Name: "Claude 3 Sonnet", ContextLength: 200000},
	{Provider: "anthropic", ID: "claude-3-haiku-20240307", Name: "Claude 3 Haiku", ContextLength: 200000},
}

func NewAnthropicProvider(cfg *config.LLMConfig) (models.Provider, error) {
	if cfg.Anthropic.APIKey == "" {
		return nil, models.NewLLMConfigError("anthropic", "clé API Anthropic manquante")
	}
	model := cfg.Anthropic.Model
	if model == "" {
		model = "claude-3-5-sonnet-20241022"
	}

	llm, err := anthropic.New(
		anthropic.WithToken(cfg.Anthropic.APIKey),
		anthropic.WithModel(model),
	)
	if err != nil {
		return nil, models.NewLLMConfigError("anthropic", fmt.Sprintf("initialisation du client impossible: %v", err))
	}

	return &client{
		name:         "anthropic",
		defaultModel: model,
		catalog:      anthropicCatalog,
		timeout:      cfg.Timeout,
		maxRetries:   cfg.MaxRetries,
		llm:          llm,
	}, nil
}
