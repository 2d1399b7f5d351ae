package cache

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"

	"github.com/talentbase/nl2sql/src/models"
)

const (
	translationPrefix = "nl2sql:translation:"
	// Keys above this length are replaced by their hash. Redis tolerates
	// much longer keys; the bound keeps them readable in monitoring tools.
	maxKeyLength = 250
)

// TranslationKey derives the deterministic cache key for a request. Only
// arguments that change the translation outcome or the shape of the
// response payload participate: volatile flags
// like UseCache and StoreResult are excluded so toggling them still hits the
// same entry. encoding/json marshals map keys in sorted order, which makes
// the serialization canonical. Short requests keep the serialized form in
// the key for debuggability; long ones collapse to an md5 digest.
func TranslationKey(req *models.TranslationRequest) string {
	significant := map[string]any{
		"query":               req.Query,
		"schema_path":         req.SchemaPath,
		"provider":            req.Provider,
		"model":               req.Model,
		"validate":            req.Validate,
		"explain":             req.Explain,
		"return_similar":      req.ReturnSimilarQueries,
		"similar_details":     req.IncludeSimilarDetails,
		"user_id_placeholder": req.UserIDPlaceholder,
	}
	data, _ := json.Marshal(significant)

	key := translationPrefix + string(data)
	if len(key) > maxKeyLength {
		sum := md5.Sum(data)
		key = translationPrefix + hex.EncodeToString(sum[:])
	}
	return key
}
