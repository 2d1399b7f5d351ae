package llm

import (
	"fmt"

	"github.com/tmc/langchaingo/llms/openai"

	"github.com/talentbase/nl2sql/src/config"
	"github.com/talentbase/nl2sql/src/models"
)

var openAICatalog = []models.ModelInfo{
	{Provider: "openai", ID: "gpt-4o", Name: "GPT-4o", ContextLength: 128000},
	{Provider: "openai", ID: "gpt-4o-mini", Name: "GPT-4o mini", ContextLength: 128000},
	{Provider: "openai", ID: "gpt-4-turbo", Name: "GPT-4 Turbo", ContextLength: 128000},
	{Provider: "openai", ID: "gpt-4", Name: "GPT-4", ContextLength: 8192},
	{Provider: "openai", ID: "gpt-3.5-turbo", Name: "GPT-3.5 Turbo", ContextLength: 16385},
}

func NewOpenAIProvider(cfg *config.LLMConfig) (models.Provider, error) {
	if cfg.OpenAI.APIKey == "" {
		return nil, models.NewLLMConfigError("openai", "clé API OpenAI manquante")
	}
	model := cfg.OpenAI.Model
	if model == "" {
		model = "gpt-4o"
	}

	llm, err := openai.New(
		openai.WithToken(cfg.OpenAI.APIKey),
		openai.WithModel(model),
	)
	if err != nil {
		return nil, models.NewLLMConfigError("openai", fmt.Sprintf("initialisation du client impossible: %v", err))
	}

	return &client{
		name:         "openai",
		defaultModel: model,
		catalog:      openAICatalog,
		timeout:      cfg.Timeout,
		maxRetries:   cfg.MaxRetries,
		llm:          llm,
	}, nil
}
