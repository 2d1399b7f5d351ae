package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/talentbase/nl2sql/src/models"
)

// MockGenerator implements models.Generator
type MockGenerator struct {
	mock.Mock
}

func (m *MockGenerator) GenerateCompletion(ctx context.Context, messages []models.ChatMessage, provider, model string, opts models.GenerateOptions) (string, error) {
	args := m.Called(ctx, messages, provider, model, opts)
	return args.String(0), args.Error(1)
}

// MockProvider implements models.Provider
type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) Name() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockProvider) DefaultModel() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockProvider) AvailableModels() []models.ModelInfo {
	args := m.Called()
	return args.Get(0).([]models.ModelInfo)
}

func (m *MockProvider) GenerateCompletion(ctx context.Context, messages []models.ChatMessage, model string, opts models.GenerateOptions) (string, error) {
	args := m.Called(ctx, messages, model, opts)
	return args.String(0), args.Error(1)
}

func (m *MockProvider) HealthCheck(ctx context.Context) map[string]any {
	args := m.Called(ctx)
	return args.Get(0).(map[string]any)
}

// MockEmbedder implements models.Embedder
type MockEmbedder struct {
	mock.Mock
}

func (m *MockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]float32), args.Error(1)
}

func (m *MockEmbedder) HealthCheck(ctx context.Context) map[string]any {
	args := m.Called(ctx)
	return args.Get(0).(map[string]any)
}

// MockVectorStore implements models.VectorStore
type MockVectorStore struct {
	mock.Mock
}

func (m *MockVectorStore) FindSimilar(ctx context.Context, vector []float32, topK int) ([]models.SimilarQueryMatch, error) {
	args := m.Called(ctx, vector, topK)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.SimilarQueryMatch), args.Error(1)
}

func (m *MockVectorStore) Store(ctx context.Context, question string, vector []float32, sql string) error {
	args := m.Called(ctx, question, vector, sql)
	return args.Error(0)
}

func (m *MockVectorStore) HealthCheck(ctx context.Context) map[string]any {
	args := m.Called(ctx)
	return args.Get(0).(map[string]any)
}

// MockResultCache implements models.ResultCache
type MockResultCache struct {
	mock.Mock
}

func (m *MockResultCache) Get(ctx context.Context, key string) (*models.TranslationResult, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TranslationResult), args.Error(1)
}

func (m *MockResultCache) Set(ctx context.Context, key string, result *models.TranslationResult, ttl time.Duration) error {
	args := m.Called(ctx, key, result, ttl)
	return args.Error(0)
}

func (m *MockResultCache) Invalidate(ctx context.Context, pattern string) (int, error) {
	args := m.Called(ctx, pattern)
	return args.Int(0), args.Error(1)
}

func (m *MockResultCache) Close() error {
	args := m.Called()
	return args.Error(0)
}

// MockSchemaLoader implements models.SchemaLoader
type MockSchemaLoader struct {
	mock.Mock
}

func (m *MockSchemaLoader) Load(path string) (string, error) {
	args := m.Called(path)
	return args.String(0), args.Error(1)
}

// MockProviderHealth implements translator.ProviderHealth
type MockProviderHealth struct {
	mock.Mock
}

func (m *MockProviderHealth) HealthCheckAll(ctx context.Context) map[string]any {
	args := m.Called(ctx)
	return args.Get(0).(map[string]any)
}
