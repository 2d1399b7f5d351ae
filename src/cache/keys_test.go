package cache

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/talentbase/nl2sql/src/models"
)

func TestTranslationKey_Deterministic(t *testing.T) {
	req := &models.TranslationRequest{Query: "Liste des CDI", Provider: "openai", Validate: true}

	assert.Equal(t, TranslationKey(req), TranslationKey(req))
}

func TestTranslationKey_IgnoresVolatileFlags(t *testing.T) {
	base := &models.TranslationRequest{Query: "Liste des CDI", Provider: "openai"}
	toggled := &models.TranslationRequest{Query: "Liste des CDI", Provider: "openai", UseCache: true, StoreResult: true}

	assert.Equal(t, TranslationKey(base), TranslationKey(toggled))
}

// The similar-queries flags change the response payload, so they must not
// share a cache entry with a payload-free request.
func TestTranslationKey_SimilarQueryFlagsChangeKey(t *testing.T) {
	base := &models.TranslationRequest{Query: "Liste des CDI", Provider: "openai"}
	summaries := &models.TranslationRequest{Query: "Liste des CDI", Provider: "openai", ReturnSimilarQueries: true}
	details := &models.TranslationRequest{Query: "Liste des CDI", Provider: "openai", IncludeSimilarDetails: true}

	assert.NotEqual(t, TranslationKey(base), TranslationKey(summaries))
	assert.NotEqual(t, TranslationKey(base), TranslationKey(details))
	assert.NotEqual(t, TranslationKey(summaries), TranslationKey(details))
}

func TestTranslationKey_SignificantArgumentsChangeKey(t *testing.T) {
	base := &models.TranslationRequest{Query: "Liste des CDI", Provider: "openai"}

	variants := []*models.TranslationRequest{
		{Query: "Liste des CDD", Provider: "openai"},
		{Query: "Liste des CDI", Provider: "anthropic"},
		{Query: "Liste des CDI", Provider: "openai", Model: "gpt-4o-mini"},
		{Query: "Liste des CDI", Provider: "openai", Validate: true},
		{Query: "Liste des CDI", Provider: "openai", SchemaPath: "schemas/paie.sql"},
	}
	for _, v := range variants {
		assert.NotEqual(t, TranslationKey(base), TranslationKey(v))
	}
}

func TestTranslationKey_LongRequestFallsBackToDigest(t *testing.T) {
	long := &models.TranslationRequest{Query: strings.Repeat("salariés absents en mai ", 40)}

	key := TranslationKey(long)
	assert.True(t, strings.HasPrefix(key, translationPrefix))
	assert.LessOrEqual(t, len(key), maxKeyLength)
	// md5 hex digest after the prefix.
	assert.Len(t, key[len(translationPrefix):], 32)
}
