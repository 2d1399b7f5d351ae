// Package llm provides the multi-provider language model layer: provider
// clients, a lazy registry, retry with error classification and the
// higher-level generation service used by the translator.
package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"

	"github.com/talentbase/nl2sql/src/models"
)

// client is the shared provider implementation. The per-provider
// constructors differ only in SDK setup, model catalog and message shaping.
type client struct {
	name         string
	defaultModel string
	catalog      []models.ModelInfo
	timeout      time.Duration
	maxRetries   int
	llm          llms.Model
	// foldSystem merges the system message into the first user turn for
	// backends that reject a dedicated system role.
	foldSystem bool
}

func (c *client) Name() string { return c.name }

func (c *client) DefaultModel() string { return c.defaultModel }

func (c *client) AvailableModels() []models.ModelInfo {
	out := make([]models.ModelInfo, len(c.catalog))
	copy(out, c.catalog)
	return out
}

func (c *client) supportsModel(model string) bool {
	for _, m := range c.catalog {
		if m.ID == model {
			return true
		}
	}
	return false
}

func (c *client) GenerateCompletion(ctx context.Context, messages []models.ChatMessage, model string, opts models.GenerateOptions) (string, error) {
	if model == "" {
		model = c.defaultModel
	}
	if !c.supportsModel(model) {
		return "", models.NewLLMConfigError(c.name, fmt.Sprintf("modèle inconnu: %s", model))
	}
	content := toMessageContent(messages, c.foldSystem)
	if len(content) == 0 {
		return "", models.NewLLMConfigError(c.name, "aucun message à envoyer")
	}

	callOpts := []llms.CallOption{llms.WithModel(model)}
	if opts.Temperature != nil {
		callOpts = append(callOpts, llms.WithTemperature(*opts.Temperature))
	}
	if opts.MaxTokens > 0 {
		callOpts = append(callOpts, llms.WithMaxTokens(opts.MaxTokens))
	}

	return withRetry(ctx, c.name, c.timeout, c.maxRetries, func(attemptCtx context.Context) (string, error) {
		resp, err := c.llm.GenerateContent(attemptCtx, content, callOpts...)
		if err != nil {
			return "", err
		}
		if len(resp.Choices) == 0 {
			return "", fmt.Errorf("réponse vide du fournisseur")
		}
		return resp.Choices[0].Content, nil
	})
}

// HealthCheck issues a minimal one-token completion against the default
// model. Kept cheap on purpose; failures carry the classified error text.
func (c *client) HealthCheck(ctx context.Context) map[string]any {
	status := map[string]any{
		"provider": c.name,
		"model":    c.defaultModel,
	}
	start := time.Now()
	_, err := c.GenerateCompletion(ctx,
		[]models.ChatMessage{{Role: models.RoleUser, Content: "test"}},
		c.defaultModel,
		models.GenerateOptions{Temperature: models.Temp(0), MaxTokens: 1},
	)
	status["latency_ms"] = time.Since(start).Milliseconds()
	if err != nil {
		status["status"] = "unhealthy"
		status["error"] = err.Error()
	} else {
		status["status"] = "healthy"
	}
	return status
}

// toMessageContent converts the service chat shape into langchaingo parts.
// With fold enabled the system text is prepended to the first user message.
func toMessageContent(messages []models.ChatMessage, fold bool) []llms.MessageContent {
	var system string
	out := make([]llms.MessageContent, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case models.RoleSystem:
			if fold {
				system = m.Content
				continue
			}
			out = append(out, llms.TextParts(llms.ChatMessageTypeSystem, m.Content))
		case models.RoleAssistant:
			out = append(out, llms.TextParts(llms.ChatMessageTypeAI, m.Content))
		default:
			content := m.Content
			if fold && system != "" {
				content = fmt.Sprintf("Instructions système: %s\n\n%s", system, content)
				system = ""
			}
			out = append(out, llms.TextParts(llms.ChatMessageTypeHuman, content))
		}
	}
	if fold && system != "" {
		// System-only input, no user turn to fold into.
		out = append(out, llms.TextParts(llms.ChatMessageTypeHuman, system))
	}
	return out
}

func normalizeProviderName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
