package translator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/talentbase/nl2sql/src/config"
	"github.com/talentbase/nl2sql/src/llm"
	"github.com/talentbase/nl2sql/src/mocks"
	"github.com/talentbase/nl2sql/src/models"
	"github.com/talentbase/nl2sql/src/validation"
)

const testSchema = "CREATE TABLE DEPOT (ID INT, ID_USER INT, TYPE_CONTRAT VARCHAR(10));"

type pipeline struct {
	svc      *Service
	gen      *mocks.MockGenerator
	embedder *mocks.MockEmbedder
	store    *mocks.MockVectorStore
	cache    *mocks.MockResultCache
	schemas  *mocks.MockSchemaLoader
}

func newPipeline(t *testing.T) *pipeline {
	t.Helper()

	cfg := &config.Config{
		Cache: config.CacheConfig{Enabled: true, TTL: time.Hour},
		LLM:   config.LLMConfig{DefaultProvider: "openai"},
		Translation: config.TranslationConfig{
			SchemaPath:          "schemas/hr.sql",
			TopKResults:         5,
			ExactMatchThreshold: 0.95,
			SQLReadOnly:         true,
		},
	}

	gen := &mocks.MockGenerator{}
	llmService := llm.NewService(gen)
	validationService := validation.NewService(
		validation.NewFrameworkValidator(),
		validation.NewSecurityValidator(),
		validation.NewSemanticValidator(llmService),
		true,
	)

	embedder := &mocks.MockEmbedder{}
	store := &mocks.MockVectorStore{}
	resultCache := &mocks.MockResultCache{}
	schemas := &mocks.MockSchemaLoader{}
	health := &mocks.MockProviderHealth{}

	svc := NewService(cfg, llmService, health, embedder, store, validationService, schemas, resultCache)
	return &pipeline{svc: svc, gen: gen, embedder: embedder, store: store, cache: resultCache, schemas: schemas}
}

// expectRelevance stubs the relevance gate. The gate sends a single user
// message; generation sends system plus user.
func (p *pipeline) expectRelevance(reply string, err error) {
	p.gen.On("GenerateCompletion", mock.Anything, mock.MatchedBy(func(msgs []models.ChatMessage) bool {
		return len(msgs) == 1
	}), "", "", mock.Anything).Return(reply, err).Once()
}

func (p *pipeline) expectGeneration(reply string, err error) {
	p.gen.On("GenerateCompletion", mock.Anything, mock.MatchedBy(func(msgs []models.ChatMessage) bool {
		return len(msgs) == 2 && msgs[0].Role == models.RoleSystem
	}), "", "", mock.Anything).Return(reply, err).Once()
}

func (p *pipeline) expectRetrieval(matches []models.SimilarQueryMatch) {
	p.embedder.On("Embed", mock.Anything, mock.Anything).Return([]float32{1, 0}, nil)
	p.store.On("FindSimilar", mock.Anything, []float32{1, 0}, 5).Return(matches, nil)
}

func (p *pipeline) expectCacheMiss() {
	p.cache.On("Get", mock.Anything, mock.Anything).Return(nil, nil)
}

func TestService_TranslateGeneratedQuery(t *testing.T) {
	p := newPipeline(t)
	p.expectCacheMiss()
	p.expectRelevance("OUI", nil)
	p.schemas.On("Load", "schemas/hr.sql").Return(testSchema, nil)
	p.expectRetrieval(nil)
	p.expectGeneration("SELECT * FROM DEPOT d WHERE d.ID_USER = ? #DEPOT_d#", nil)
	p.cache.On("Set", mock.Anything, mock.Anything, mock.Anything, time.Hour).Return(nil)

	result, err := p.svc.Translate(context.Background(), &models.TranslationRequest{
		Query:    "Liste des CDI",
		UseCache: true,
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusSuccess, result.Status)
	require.NotNil(t, result.SQL)
	assert.Contains(t, *result.SQL, "ID_USER")
	assert.True(t, result.FrameworkCompliant)
	assert.False(t, result.IsExactMatch)
	assert.Greater(t, result.ProcessingTime, 0.0)
}

// Scenario: a high-scoring retrieval hit lacking the user filter is reused
// and auto-fixed instead of triggering generation.
func TestService_TranslateExactMatchAutoFixed(t *testing.T) {
	p := newPipeline(t)
	p.expectCacheMiss()
	p.expectRelevance("OUI", nil)
	p.schemas.On("Load", "schemas/hr.sql").Return(testSchema, nil)
	p.expectRetrieval([]models.SimilarQueryMatch{
		{Score: 0.97, Question: "Liste des CDI", SQL: "SELECT * FROM DEPOT d WHERE d.TYPE_CONTRAT = 'CDI'"},
	})

	result, err := p.svc.Translate(context.Background(), &models.TranslationRequest{Query: "Liste des CDI"})
	require.NoError(t, err)
	assert.Equal(t, models.StatusSuccess, result.Status)
	assert.True(t, result.IsExactMatch)
	assert.True(t, result.FrameworkCompliant)
	require.NotNil(t, result.SQL)
	assert.Contains(t, *result.SQL, "d.ID_USER = ?")

	// No generation call was made: only the relevance check hit the LLM.
	p.gen.AssertNumberOfCalls(t, "GenerateCompletion", 1)
}

// A destructive statement coming back from retrieval must never reach a
// success status, even when the caller disabled semantic validation.
func TestService_TranslateDestructiveExactMatchAlwaysFatal(t *testing.T) {
	p := newPipeline(t)
	p.expectCacheMiss()
	p.expectRelevance("OUI", nil)
	p.schemas.On("Load", "schemas/hr.sql").Return(testSchema, nil)
	p.expectRetrieval([]models.SimilarQueryMatch{
		{Score: 0.97, Question: "Liste des CDI", SQL: "DELETE FROM DEPOT WHERE TYPE_CONTRAT = 'CDI'"},
	})

	result, err := p.svc.Translate(context.Background(), &models.TranslationRequest{
		Query:    "Liste des CDI",
		UseCache: true,
		Validate: false,
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusError, result.Status)
	assert.Contains(t, result.ValidationMessage, "autorisée")
	assert.Nil(t, result.SQL)

	// The rejected result must not be cached.
	p.cache.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

// Same guard for generated SQL: a syntax or security failure is fatal
// regardless of the Validate flag.
func TestService_TranslateNonCompliantGenerationAlwaysFatal(t *testing.T) {
	p := newPipeline(t)
	p.expectCacheMiss()
	p.expectRelevance("OUI", nil)
	p.schemas.On("Load", "schemas/hr.sql").Return(testSchema, nil)
	p.expectRetrieval(nil)
	p.expectGeneration("DROP TABLE DEPOT", nil)

	result, err := p.svc.Translate(context.Background(), &models.TranslationRequest{
		Query:    "Liste des CDI",
		Validate: false,
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusError, result.Status)
	require.NotNil(t, result.Valid)
	assert.False(t, *result.Valid)
}

// An ambiguous semantic verdict finishes as a warning, not a clean success.
func TestService_TranslateAmbiguousSemanticIsWarning(t *testing.T) {
	p := newPipeline(t)
	p.expectCacheMiss()
	p.expectRelevance("OUI", nil)
	p.schemas.On("Load", "schemas/hr.sql").Return(testSchema, nil)
	p.expectRetrieval(nil)
	p.expectGeneration("SELECT * FROM DEPOT d WHERE d.ID_USER = ? #DEPOT_d#", nil)
	// The semantic judge sends a single user message, like the relevance
	// gate; the Once() stubs are consumed in order.
	p.gen.On("GenerateCompletion", mock.Anything, mock.MatchedBy(func(msgs []models.ChatMessage) bool {
		return len(msgs) == 1
	}), "", "", mock.Anything).Return("PEUT-ÊTRE", nil).Once()

	result, err := p.svc.Translate(context.Background(), &models.TranslationRequest{
		Query:    "Liste des CDI",
		Validate: true,
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusWarning, result.Status)
	require.NotNil(t, result.SQL)
	assert.Contains(t, result.ValidationMessage, "réserve")
}

// Scenario: off-topic question is rejected by the relevance gate before any
// generation happens.
func TestService_TranslateIrrelevantQuestion(t *testing.T) {
	p := newPipeline(t)
	p.expectCacheMiss()
	p.expectRelevance("NON", nil)

	result, err := p.svc.Translate(context.Background(), &models.TranslationRequest{
		Query:    "Quelle est la météo à Paris ?",
		UseCache: true,
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusError, result.Status)
	assert.Contains(t, result.ValidationMessage, "domaine RH")

	p.embedder.AssertNotCalled(t, "Embed", mock.Anything, mock.Anything)
	p.gen.AssertNumberOfCalls(t, "GenerateCompletion", 1)
}

// Scenario: a forbidden keyword in the question aborts before any network
// call, including the embedding.
func TestService_TranslateForbiddenOperationInQuestion(t *testing.T) {
	p := newPipeline(t)

	result, err := p.svc.Translate(context.Background(), &models.TranslationRequest{
		Query: "DELETE tous les salariés partis",
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusError, result.Status)
	assert.Contains(t, result.ValidationMessage, "DELETE")

	p.gen.AssertNotCalled(t, "GenerateCompletion", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	p.embedder.AssertNotCalled(t, "Embed", mock.Anything, mock.Anything)
}

// Scenario: quota exhaustion during generation surfaces a quota-specific
// message with no orchestrator-level retry.
func TestService_TranslateQuotaError(t *testing.T) {
	p := newPipeline(t)
	p.expectCacheMiss()
	p.expectRelevance("OUI", nil)
	p.schemas.On("Load", "schemas/hr.sql").Return(testSchema, nil)
	p.expectRetrieval(nil)
	p.expectGeneration("", models.NewLLMQuotaError("openai", "", ""))

	result, err := p.svc.Translate(context.Background(), &models.TranslationRequest{
		Query:    "Liste des CDI",
		UseCache: true,
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusError, result.Status)
	assert.Contains(t, result.ValidationMessage, "Quota")

	p.gen.AssertNumberOfCalls(t, "GenerateCompletion", 2)
}

func TestService_TranslateRelevanceFailsOpenOnNetworkError(t *testing.T) {
	p := newPipeline(t)
	p.expectCacheMiss()
	p.expectRelevance("", models.NewLLMNetworkError("openai", "connexion perdue", nil))
	p.schemas.On("Load", "schemas/hr.sql").Return(testSchema, nil)
	p.expectRetrieval(nil)
	p.expectGeneration("SELECT * FROM DEPOT d WHERE d.ID_USER = ? #DEPOT_d#", nil)

	result, err := p.svc.Translate(context.Background(), &models.TranslationRequest{Query: "Liste des CDI"})
	require.NoError(t, err)
	assert.Equal(t, models.StatusSuccess, result.Status)
}

func TestService_TranslateRelevanceAuthErrorAborts(t *testing.T) {
	p := newPipeline(t)
	p.expectCacheMiss()
	p.expectRelevance("", models.NewLLMAuthError("openai", ""))

	result, err := p.svc.Translate(context.Background(), &models.TranslationRequest{
		Query:    "Liste des CDI",
		UseCache: true,
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusError, result.Status)
	assert.Contains(t, result.ValidationMessage, "indisponible")

	p.embedder.AssertNotCalled(t, "Embed", mock.Anything, mock.Anything)
}

func TestService_TranslateImpossibleSentinel(t *testing.T) {
	p := newPipeline(t)
	p.expectCacheMiss()
	p.expectRelevance("OUI", nil)
	p.schemas.On("Load", "schemas/hr.sql").Return(testSchema, nil)
	p.expectRetrieval(nil)
	p.expectGeneration("IMPOSSIBLE", nil)

	result, err := p.svc.Translate(context.Background(), &models.TranslationRequest{Query: "Liste des licornes"})
	require.NoError(t, err)
	assert.Equal(t, models.StatusError, result.Status)
	assert.Contains(t, result.ValidationMessage, "ne peut pas être traduite")
}

func TestService_TranslateReadOnlySentinel(t *testing.T) {
	p := newPipeline(t)
	p.expectCacheMiss()
	p.expectRelevance("OUI", nil)
	p.schemas.On("Load", "schemas/hr.sql").Return(testSchema, nil)
	p.expectRetrieval(nil)
	p.expectGeneration("READONLY_VIOLATION", nil)

	result, err := p.svc.Translate(context.Background(), &models.TranslationRequest{Query: "Augmente tous les salaires"})
	require.NoError(t, err)
	assert.Equal(t, models.StatusError, result.Status)
	assert.Contains(t, result.ValidationMessage, "modification de données")
}

// Anti-staleness: a candidate referencing a different year than the
// question must not be reused as an exact match.
func TestService_TranslateExactMatchStaleYearRejected(t *testing.T) {
	p := newPipeline(t)
	p.expectCacheMiss()
	p.expectRelevance("OUI", nil)
	p.schemas.On("Load", "schemas/hr.sql").Return(testSchema, nil)
	p.expectRetrieval([]models.SimilarQueryMatch{
		{Score: 0.98, Question: "Absences en mai 2023", SQL: "SELECT * FROM DEPOT d WHERE d.ID_USER = ? AND d.ANNEE = 2023 #DEPOT_d# #PERIODE#"},
	})
	p.expectGeneration("SELECT * FROM DEPOT d WHERE d.ID_USER = ? AND d.ANNEE = 2024 #DEPOT_d# #PERIODE#", nil)

	result, err := p.svc.Translate(context.Background(), &models.TranslationRequest{Query: "Absences en mai 2024"})
	require.NoError(t, err)
	assert.Equal(t, models.StatusSuccess, result.Status)
	assert.False(t, result.IsExactMatch)
	require.NotNil(t, result.SQL)
	assert.Contains(t, *result.SQL, "2024")
}

func TestService_TranslateServedFromCache(t *testing.T) {
	p := newPipeline(t)

	sql := "SELECT * FROM DEPOT d WHERE d.ID_USER = ? #DEPOT_d#"
	cached := &models.TranslationResult{Query: "Liste des CDI", SQL: &sql, Status: models.StatusSuccess}
	p.cache.On("Get", mock.Anything, mock.Anything).Return(cached, nil)

	result, err := p.svc.Translate(context.Background(), &models.TranslationRequest{
		Query:    "Liste des CDI",
		UseCache: true,
	})
	require.NoError(t, err)
	assert.True(t, result.FromCache)
	assert.Equal(t, models.StatusSuccess, result.Status)

	p.gen.AssertNotCalled(t, "GenerateCompletion", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

// A cache hit carries the timing of this request, not the stored value from
// when the entry was produced.
func TestService_TranslateCacheHitRestampsProcessingTime(t *testing.T) {
	p := newPipeline(t)

	sql := "SELECT * FROM DEPOT d WHERE d.ID_USER = ? #DEPOT_d#"
	cached := &models.TranslationResult{Query: "Liste des CDI", SQL: &sql, Status: models.StatusSuccess, ProcessingTime: 42.0}
	p.cache.On("Get", mock.Anything, mock.Anything).Return(cached, nil)

	result, err := p.svc.Translate(context.Background(), &models.TranslationRequest{
		Query:    "Liste des CDI",
		UseCache: true,
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusSuccess, result.Status)
	assert.Less(t, result.ProcessingTime, 1.0)
}

func TestService_TranslateStoresResult(t *testing.T) {
	p := newPipeline(t)
	p.expectCacheMiss()
	p.expectRelevance("OUI", nil)
	p.schemas.On("Load", "schemas/hr.sql").Return(testSchema, nil)
	p.expectRetrieval(nil)
	p.expectGeneration("SELECT * FROM DEPOT d WHERE d.ID_USER = ? #DEPOT_d#", nil)
	p.store.On("Store", mock.Anything, "Liste des CDI", []float32{1, 0}, mock.Anything).Return(nil)

	result, err := p.svc.Translate(context.Background(), &models.TranslationRequest{
		Query:       "Liste des CDI",
		StoreResult: true,
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusSuccess, result.Status)
	p.store.AssertCalled(t, "Store", mock.Anything, "Liste des CDI", []float32{1, 0}, mock.Anything)
}

func TestService_TranslateStoreFailureDoesNotAlterResult(t *testing.T) {
	p := newPipeline(t)
	p.expectCacheMiss()
	p.expectRelevance("OUI", nil)
	p.schemas.On("Load", "schemas/hr.sql").Return(testSchema, nil)
	p.expectRetrieval(nil)
	p.expectGeneration("SELECT * FROM DEPOT d WHERE d.ID_USER = ? #DEPOT_d#", nil)
	p.store.On("Store", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(models.NewVectorSearchError("écriture refusée", nil))

	result, err := p.svc.Translate(context.Background(), &models.TranslationRequest{
		Query:       "Liste des CDI",
		StoreResult: true,
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusSuccess, result.Status)
}

func TestService_TranslateEmbeddingFailureIsFatal(t *testing.T) {
	p := newPipeline(t)
	p.expectCacheMiss()
	p.expectRelevance("OUI", nil)
	p.schemas.On("Load", "schemas/hr.sql").Return(testSchema, nil)
	p.embedder.On("Embed", mock.Anything, mock.Anything).Return(nil, models.NewEmbeddingError("service indisponible", ""))

	result, err := p.svc.Translate(context.Background(), &models.TranslationRequest{Query: "Liste des CDI"})
	require.NoError(t, err)
	assert.Equal(t, models.StatusError, result.Status)
	assert.Contains(t, result.ValidationMessage, "embedding")
}

func TestService_TranslateSchemaFailureIsFatal(t *testing.T) {
	p := newPipeline(t)
	p.expectCacheMiss()
	p.expectRelevance("OUI", nil)
	p.schemas.On("Load", "schemas/hr.sql").Return("", models.NewSchemaError("fichier introuvable", "schemas/hr.sql"))

	result, err := p.svc.Translate(context.Background(), &models.TranslationRequest{Query: "Liste des CDI"})
	require.NoError(t, err)
	assert.Equal(t, models.StatusError, result.Status)
	assert.Contains(t, result.ValidationMessage, "schéma")
}

func TestService_TranslateNilRequest(t *testing.T) {
	p := newPipeline(t)

	_, err := p.svc.Translate(context.Background(), nil)
	require.Error(t, err)

	var valErr *models.ValidationError
	assert.ErrorAs(t, err, &valErr)
}

func TestService_TranslateTooShortQuestion(t *testing.T) {
	p := newPipeline(t)

	result, err := p.svc.Translate(context.Background(), &models.TranslationRequest{Query: "ab"})
	require.NoError(t, err)
	assert.Equal(t, models.StatusError, result.Status)
	assert.Contains(t, result.ValidationMessage, "courte")
}

func TestService_TranslateSimilarQueriesReturned(t *testing.T) {
	p := newPipeline(t)
	p.expectCacheMiss()
	p.expectRelevance("OUI", nil)
	p.schemas.On("Load", "schemas/hr.sql").Return(testSchema, nil)
	p.expectRetrieval([]models.SimilarQueryMatch{
		{Score: 0.80, Question: "Nombre de CDI", SQL: "SELECT COUNT(*) FROM DEPOT d WHERE d.ID_USER = ? #DEPOT_d#"},
	})
	p.expectGeneration("SELECT * FROM DEPOT d WHERE d.ID_USER = ? #DEPOT_d#", nil)

	result, err := p.svc.Translate(context.Background(), &models.TranslationRequest{
		Query:                "Liste des CDI",
		ReturnSimilarQueries: true,
	})
	require.NoError(t, err)
	require.Len(t, result.SimilarQueries, 1)
	assert.Equal(t, "Nombre de CDI", result.SimilarQueries[0].Query)
	assert.Empty(t, result.SimilarQueriesDetails)
}

func TestStaleYear(t *testing.T) {
	assert.True(t, staleYear("Absences en 2024", "SELECT ... 2023"))
	assert.False(t, staleYear("Absences en 2024", "SELECT ... 2024"))
	assert.False(t, staleYear("Absences récentes", "SELECT ... 2023"))
	assert.False(t, staleYear("Absences en 2024", "SELECT sans année"))
}
