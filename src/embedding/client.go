// Package embedding wraps the OpenAI embeddings API behind the
// models.Embedder interface.
package embedding

import (
	"context"
	"math"

	"github.com/sashabaranov/go-openai"

	"github.com/talentbase/nl2sql/src/models"
)

// maxInputChars bounds the text sent to the embeddings endpoint. Longer
// questions are truncated rather than rejected.
const maxInputChars = 8192

type Client struct {
	api   *openai.Client
	model openai.EmbeddingModel
}

// NewClient builds a client for the given embedding model. An empty model
// name falls back to ada-002.
func NewClient(apiKey, model string) *Client {
	if model == "" {
		model = string(openai.AdaEmbeddingV2)
	}
	return &Client{
		api:   openai.NewClient(apiKey),
		model: openai.EmbeddingModel(model),
	}
}

func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, &models.EmbeddingError{Message: "texte vide, impossible de calculer un embedding", Model: string(c.model)}
	}
	if len(text) > maxInputChars {
		text = text[:maxInputChars]
	}

	resp, err := c.api.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: c.model,
	})
	if err != nil {
		return nil, &models.EmbeddingError{Message: "appel au service d'embedding échoué: " + err.Error(), Model: string(c.model)}
	}
	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, &models.EmbeddingError{Message: "embedding vide retourné par le service", Model: string(c.model)}
	}

	vec := resp.Data[0].Embedding
	for _, v := range vec {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			return nil, &models.EmbeddingError{Message: "embedding invalide (valeurs non finies)", Model: string(c.model)}
		}
	}
	return vec, nil
}

func (c *Client) HealthCheck(ctx context.Context) map[string]any {
	status := map[string]any{"model": string(c.model)}
	if _, err := c.Embed(ctx, "test"); err != nil {
		status["status"] = "unhealthy"
		status["error"] = err.Error()
	} else {
		status["status"] = "healthy"
	}
	return status
}
