package validation

import (
	"context"
	"log"

	"github.com/talentbase/nl2sql/src/llm"
)

// SemanticValidator delegates the "does this SQL answer the question" check
// to an LLM judge. Provider failures degrade to a skipped check; this pass
// must never be the sole cause of a hard failure.
type SemanticValidator struct {
	llm *llm.Service
}

func NewSemanticValidator(service *llm.Service) *SemanticValidator {
	return &SemanticValidator{llm: service}
}

// ValidateSemantics reports whether the SQL answers the question. The
// warning flag marks accepted-with-caveat outcomes (ambiguous judge reply,
// judge unreachable) so callers can surface them instead of a clean pass.
func (v *SemanticValidator) ValidateSemantics(ctx context.Context, sql, question, provider, model string) (valid, warning bool, message string) {
	verdict, err := v.llm.ValidateSQLSemantically(ctx, question, sql, provider, model)
	if err != nil {
		log.Printf("⚠ Validation sémantique ignorée: %v", err)
		return true, true, "Validation ignorée due à une erreur"
	}
	if verdict.Valid && verdict.Message == "" {
		return true, false, "La requête répond à la question"
	}
	return verdict.Valid, verdict.Valid, verdict.Message
}
