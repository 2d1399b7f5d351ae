package llm

import (
	"context"
	"strings"

	"github.com/talentbase/nl2sql/src/models"
	"github.com/talentbase/nl2sql/src/prompts"
)

// Generation sentinels returned by the model instead of SQL.
const (
	SentinelImpossible        = "IMPOSSIBLE"
	SentinelReadOnlyViolation = "READONLY_VIOLATION"
)

// SemanticVerdict is the outcome of the LLM judge pass.
type SemanticVerdict struct {
	Valid   bool
	Verdict string
	Message string
}

// Service exposes the translation-specific LLM operations on top of a
// Generator (normally the provider registry).
type Service struct {
	generator models.Generator
}

func NewService(generator models.Generator) *Service {
	return &Service{generator: generator}
}

// GenerateSQL asks the model to translate a natural language question into
// SQL, seeding the prompt with the schema and retrieved similar examples.
// The returned string may be one of the sentinels; callers must check.
func (s *Service) GenerateSQL(ctx context.Context, question, schema string, similar []models.SimilarQueryMatch, provider, model, userIDPlaceholder string) (string, error) {
	prompt, err := prompts.RenderSQLGeneration(schema, question, similar, userIDPlaceholder)
	if err != nil {
		return "", err
	}
	messages := []models.ChatMessage{
		{Role: models.RoleSystem, Content: prompts.SystemMessage},
		{Role: models.RoleUser, Content: prompt},
	}
	raw, err := s.generator.GenerateCompletion(ctx, messages, provider, model, models.GenerateOptions{
		Temperature: models.Temp(0.2),
		MaxTokens:   1024,
	})
	if err != nil {
		return "", err
	}
	return CleanSQLResponse(raw), nil
}

// ValidateSQLSemantically asks the model whether the SQL answers the
// question. Unexpected judge output degrades to valid-with-caveat instead
// of blocking the translation.
func (s *Service) ValidateSQLSemantically(ctx context.Context, question, sql, provider, model string) (SemanticVerdict, error) {
	prompt, err := prompts.RenderSemanticValidation(question, sql)
	if err != nil {
		return SemanticVerdict{}, err
	}
	raw, err := s.generator.GenerateCompletion(ctx,
		[]models.ChatMessage{{Role: models.RoleUser, Content: prompt}},
		provider, model,
		models.GenerateOptions{Temperature: models.Temp(0.1), MaxTokens: 16},
	)
	if err != nil {
		return SemanticVerdict{}, err
	}

	verdict := strings.ToUpper(strings.TrimSpace(raw))
	switch {
	case strings.HasPrefix(verdict, "OUI"):
		return SemanticVerdict{Valid: true, Verdict: "OUI"}, nil
	case strings.HasPrefix(verdict, "NON"):
		return SemanticVerdict{Valid: false, Verdict: "NON", Message: "La requête générée ne semble pas répondre à la question posée"}, nil
	case strings.Contains(verdict, "HORS"):
		return SemanticVerdict{Valid: false, Verdict: "HORS_SUJET", Message: "La question ne concerne pas le domaine RH"}, nil
	}
	return SemanticVerdict{Valid: true, Verdict: verdict, Message: "Validation sémantique ambiguë, requête acceptée avec réserve"}, nil
}

// ExplainSQL returns a short non-technical explanation of the query.
func (s *Service) ExplainSQL(ctx context.Context, question, sql, provider, model string) (string, error) {
	prompt, err := prompts.RenderExplanation(question, sql)
	if err != nil {
		return "", err
	}
	raw, err := s.generator.GenerateCompletion(ctx,
		[]models.ChatMessage{{Role: models.RoleUser, Content: prompt}},
		provider, model,
		models.GenerateOptions{Temperature: models.Temp(0.3), MaxTokens: 256},
	)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(raw), nil
}

// CheckRelevance asks the model whether the question belongs to the HR
// database domain. Errors propagate unchanged; the caller decides the
// fail-open or fail-closed policy.
func (s *Service) CheckRelevance(ctx context.Context, question, provider, model string) (bool, error) {
	prompt, err := prompts.RenderRelevanceCheck(question)
	if err != nil {
		return false, err
	}
	raw, err := s.generator.GenerateCompletion(ctx,
		[]models.ChatMessage{{Role: models.RoleUser, Content: prompt}},
		provider, model,
		models.GenerateOptions{Temperature: models.Temp(0.1), MaxTokens: 8},
	)
	if err != nil {
		return false, err
	}
	return strings.Contains(strings.ToUpper(raw), "OUI"), nil
}

// CleanSQLResponse strips markdown code fences and surrounding noise from a
// raw model response, keeping sentinels intact.
func CleanSQLResponse(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```sql")
		s = strings.TrimPrefix(s, "```SQL")
		s = strings.TrimPrefix(s, "```")
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
	}
	s = strings.TrimSpace(s)

	upper := strings.ToUpper(s)
	if strings.HasPrefix(upper, SentinelImpossible) {
		return SentinelImpossible
	}
	if strings.HasPrefix(upper, SentinelReadOnlyViolation) {
		return SentinelReadOnlyViolation
	}
	return s
}
