package llm

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms/googleai"

	"github.com/talentbase/nl2sql/src/config"
	"github.com/talentbase/nl2sql/src/models"
)

var googleCatalog = []models.ModelInfo{
	{Provider: "google", ID: "gemini-1.5-pro", Name: "Gemini 1.5 Pro", ContextLength: 1048576},
	{Provider: "google", ID: "gemini-1.5-flash", Name: "Gemini 1.5 Flash", ContextLength: 1048576},
	{Provider: "google", ID: "gemini-pro", Name: "Gemini Pro", ContextLength: 32768},
}

func NewGoogleProvider(ctx context.Context, cfg *config.LLMConfig) (models.Provider, error) {
	if cfg.Google.APIKey == "" {
		return nil, models.NewLLMConfigError("google", "clé API Google manquante")
	}
	model := cfg.Google.Model
	if model == "" {
		model = "gemini-1.5-pro"
	}

	llm, err := googleai.New(ctx,
		googleai.WithAPIKey(cfg.Google.APIKey),
		googleai.WithDefaultModel(model),
	)
	if err != nil {
		return nil, models.NewLLMConfigError("google", fmt.Sprintf("initialisation du client impossible: %v", err))
	}

	return &client{
		name:         "google",
		defaultModel: model,
		catalog:      googleCatalog,
		timeout:      cfg.Timeout,
		maxRetries:   cfg.MaxRetries,
		llm:          llm,
		foldSystem:   true,
	}, nil
}
