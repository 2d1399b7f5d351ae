// Package translator implements the translation pipeline: input checks,
// relevance gate, retrieval, generation or exact-match reuse, validation,
// explanation and caching, executed strictly in that order for each request.
package translator

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/talentbase/nl2sql/src/cache"
	"github.com/talentbase/nl2sql/src/config"
	"github.com/talentbase/nl2sql/src/llm"
	"github.com/talentbase/nl2sql/src/models"
	"github.com/talentbase/nl2sql/src/validation"
	"github.com/talentbase/nl2sql/src/vectorstore"
)

// forbiddenWordRe matches write-operation keywords literally present in the
// user's natural language question. Matching here aborts before any network
// call, the cheapest possible rejection.
var forbiddenWordRe = regexp.MustCompile(`(?i)\b(INSERT|UPDATE|DELETE|DROP|TRUNCATE|ALTER|CREATE)\b`)

// yearRe extracts 4-digit year tokens for the exact-match staleness guard.
var yearRe = regexp.MustCompile(`\b(20\d{2})\b`)

// ProviderHealth is the slice of the registry the health endpoint needs.
type ProviderHealth interface {
	HealthCheckAll(ctx context.Context) map[string]any
}

type Service struct {
	cfg        *config.Config
	llm        *llm.Service
	providers  ProviderHealth
	embedder   models.Embedder
	store      models.VectorStore
	validator  *validation.Service
	schemas    models.SchemaLoader
	cache      models.ResultCache
	cacheStats func(ctx context.Context) map[string]any
}

func NewService(
	cfg *config.Config,
	llmService *llm.Service,
	providers ProviderHealth,
	embedder models.Embedder,
	store models.VectorStore,
	validator *validation.Service,
	schemas models.SchemaLoader,
	resultCache models.ResultCache,
) *Service {
	return &Service{
		cfg:       cfg,
		llm:       llmService,
		providers: providers,
		embedder:  embedder,
		store:     store,
		validator: validator,
		schemas:   schemas,
		cache:     resultCache,
	}
}

// Translate runs the full pipeline for one request. Expected failure modes
// never surface as errors: they are folded into an error-status result with
// a human-readable message.
func (s *Service) Translate(ctx context.Context, req *models.TranslationRequest) (res *models.TranslationResult, err error) {
	if req == nil {
		return nil, &models.ValidationError{Message: "requête nulle"}
	}

	start := time.Now()
	result := &models.TranslationResult{
		Query:    req.Query,
		Status:   models.StatusProcessing,
		Provider: s.providerName(req),
		Model:    req.Model,
	}
	res = result
	defer func() {
		if res != nil {
			s.finalize(res, start)
		}
	}()

	// Input validation.
	question := s.validator.Security().SanitizeUserInput(req.Query)
	if ok, msg := s.validator.Security().ValidateUserInput(question); !ok {
		return s.fail(result, msg), nil
	}
	if m := forbiddenWordRe.FindString(question); m != "" {
		return s.fail(result, fmt.Sprintf("Opération interdite dans la question: %s. Seules les consultations sont autorisées.", strings.ToUpper(m))), nil
	}

	// Cache lookup.
	cacheKey := cache.TranslationKey(req)
	if req.UseCache && s.cfg.Cache.Enabled {
		if cached, err := s.cache.Get(ctx, cacheKey); err != nil {
			return s.fail(result, "Cache indisponible: "+err.Error()), nil
		} else if cached != nil {
			cached.FromCache = true
			log.Printf("✓ Traduction servie depuis le cache (%s)", truncate(question, 60))
			res = cached
			return res, nil
		}
	}

	// Relevance gate. Network errors fail open; auth and quota errors mean
	// the provider is unusable for the rest of the pipeline too.
	relevant, err := s.llm.CheckRelevance(ctx, question, req.Provider, req.Model)
	if err != nil {
		if llmErr, ok := models.AsLLMError(err); ok && models.IsLLMUnusable(err) {
			return s.fail(result, "Service LLM temporairement indisponible: "+llmErr.Message), nil
		}
		log.Printf("⚠ Contrôle de pertinence ignoré (%v), question traitée comme pertinente", err)
		relevant = true
	}
	if !relevant {
		return s.fail(result, "La question ne semble pas concerner le domaine RH. Reformulez-la en termes d'employés, contrats, absences ou salaires."), nil
	}

	// Schema.
	schemaPath := req.SchemaPath
	if schemaPath == "" {
		schemaPath = s.cfg.Translation.SchemaPath
	}
	schemaText, err := s.schemas.Load(schemaPath)
	if err != nil {
		return s.fail(result, err.Error()), nil
	}

	// Retrieval.
	vector, err := s.embedder.Embed(ctx, question)
	if err != nil {
		return s.fail(result, err.Error()), nil
	}
	similar, err := s.store.FindSimilar(ctx, vector, s.cfg.Translation.TopKResults)
	if err != nil {
		return s.fail(result, err.Error()), nil
	}
	s.attachSimilar(result, req, similar)

	// Exact-match short circuit, guarded against stale year references.
	var sql string
	if match, ok := vectorstore.CheckExactMatch(similar, s.cfg.Translation.ExactMatchThreshold); ok && !staleYear(question, match.SQL) {
		sql = match.SQL
		result.IsExactMatch = true
		log.Printf("✓ Correspondance exacte trouvée (score %.3f)", match.Score)
	} else {
		sql, err = s.llm.GenerateSQL(ctx, question, schemaText, similar, req.Provider, req.Model, req.UserIDPlaceholder)
		if err != nil {
			return s.fail(result, generationErrorMessage(err)), nil
		}
		switch sql {
		case llm.SentinelImpossible:
			return s.fail(result, "Cette question ne peut pas être traduite en SQL avec le schéma disponible. Reformulez-la ou précisez les données recherchées."), nil
		case llm.SentinelReadOnlyViolation:
			return s.fail(result, "La question demande une modification de données. Seules les consultations sont autorisées."), nil
		}
	}

	// Validation with one auto-fix attempt. Syntax, security and compliance
	// failures are always fatal, whatever the caller asked for: the Validate
	// flag only gates the semantic judge. An internal validator error is not
	// the user's problem: the SQL is returned with a caveat.
	var warning bool
	report, err := s.validator.ValidateComplete(ctx, sql, question, req.Provider, req.Model, req.Validate)
	if err != nil {
		var fwErr *models.FrameworkError
		if errors.As(err, &fwErr) {
			return s.fail(result, fwErr.Message), nil
		}
		valid := true
		result.Valid = &valid
		result.ValidationMessage = "Validation ignorée due à une erreur"
		result.SQL = &sql
	} else {
		final := report.FinalQuery
		result.SQL = &final
		result.Valid = &report.Valid
		result.ValidationMessage = report.Message
		if report.Framework != nil {
			result.FrameworkCompliant = report.Framework.Compliant
			result.FrameworkDetails = report.Framework.Elements
		}
		if !report.Valid {
			result.SQL = nil
			return s.fail(result, report.Message), nil
		}
		warning = report.Warning
	}

	// Explanation is best-effort.
	if req.Explain && result.SQL != nil {
		explanation, err := s.llm.ExplainSQL(ctx, question, *result.SQL, req.Provider, req.Model)
		if err != nil {
			log.Printf("⚠ Génération de l'explication échouée: %v", err)
			explanation = "Explication indisponible pour cette requête."
		}
		result.Explanation = explanation
	}

	if warning {
		result.Status = models.StatusWarning
	} else {
		result.Status = models.StatusSuccess
	}

	// Best-effort persistence: feed the accepted pair back into the
	// retrieval corpus and cache the result.
	if req.StoreResult && result.SQL != nil && !result.IsExactMatch {
		if err := s.store.Store(ctx, question, vector, *result.SQL); err != nil {
			log.Printf("⚠ Stockage de l'exemple échoué: %v", err)
		}
	}
	if req.UseCache && s.cfg.Cache.Enabled {
		if err := s.cache.Set(ctx, cacheKey, result, s.cfg.Cache.TTL); err != nil {
			log.Printf("⚠ Mise en cache du résultat échouée: %v", err)
		}
	}

	return result, nil
}

// InvalidateCache removes cached translations matching pattern.
func (s *Service) InvalidateCache(ctx context.Context, pattern string) (int, error) {
	return s.cache.Invalidate(ctx, pattern)
}

// SetCacheStats installs the cache statistics callback for HealthStatus.
func (s *Service) SetCacheStats(fn func(ctx context.Context) map[string]any) {
	s.cacheStats = fn
}

// HealthStatus aggregates the health of every collaborator.
func (s *Service) HealthStatus(ctx context.Context) map[string]any {
	status := map[string]any{
		"embedding":    s.embedder.HealthCheck(ctx),
		"vector_store": s.store.HealthCheck(ctx),
		"llm":          s.providers.HealthCheckAll(ctx),
	}
	if s.cacheStats != nil {
		status["cache"] = s.cacheStats(ctx)
	}
	return status
}

func (s *Service) providerName(req *models.TranslationRequest) string {
	if req.Provider != "" {
		return req.Provider
	}
	return s.cfg.LLM.DefaultProvider
}

func (s *Service) attachSimilar(result *models.TranslationResult, req *models.TranslationRequest, similar []models.SimilarQueryMatch) {
	if req.IncludeSimilarDetails {
		result.SimilarQueriesDetails = similar
		return
	}
	if req.ReturnSimilarQueries {
		summaries := make([]models.SimilarQuerySummary, 0, len(similar))
		for _, m := range similar {
			summaries = append(summaries, models.SimilarQuerySummary{Score: m.Score, Query: m.Question, SQL: m.SQL})
		}
		result.SimilarQueries = summaries
	}
}

func (s *Service) fail(result *models.TranslationResult, message string) *models.TranslationResult {
	result.Status = models.StatusError
	result.ValidationMessage = message
	return result
}

// finalize stamps the timing and resolves a still-processing status.
func (s *Service) finalize(result *models.TranslationResult, start time.Time) {
	result.ProcessingTime = time.Since(start).Seconds()
	if result.Status == models.StatusProcessing {
		if result.SQL != nil {
			result.Status = models.StatusSuccess
		} else {
			result.Status = models.StatusError
		}
	}
	log.Printf("Traduction terminée: statut=%s, exact=%t, durée=%.2fs", result.Status, result.IsExactMatch, result.ProcessingTime)
}

// staleYear rejects an exact-match candidate when the question and the
// candidate SQL reference different 4-digit years. Embedding similarity
// cannot tell "mai 2023" from "mai 2024".
func staleYear(question, candidateSQL string) bool {
	qYear := yearRe.FindString(question)
	sYear := yearRe.FindString(candidateSQL)
	return qYear != "" && sYear != "" && qYear != sYear
}

func generationErrorMessage(err error) string {
	llmErr, ok := models.AsLLMError(err)
	if !ok {
		return "Génération de la requête échouée: " + err.Error()
	}
	switch {
	case isQuota(err):
		return "Quota du fournisseur LLM dépassé. Réessayez plus tard ou changez de fournisseur."
	case isAuth(err):
		return "Configuration du fournisseur LLM invalide: " + llmErr.Message
	default:
		return "Génération de la requête échouée: " + llmErr.Message
	}
}

func isQuota(err error) bool {
	var e *models.LLMQuotaError
	return errors.As(err, &e)
}

func isAuth(err error) bool {
	var e *models.LLMAuthError
	return errors.As(err, &e)
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
