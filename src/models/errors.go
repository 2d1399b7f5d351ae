package models

import (
	"errors"
	"fmt"
)

// Closed error taxonomy for the translation pipeline. Provider-call failures
// are split into distinct kinds so callers can tell "try again later" apart
// from "fix configuration"; collaborator failures carry the collaborator
// identity for targeted messages.

// LLMError is the base kind for provider-call failures. StatusCode carries
// the HTTP-status-equivalent classification.
type LLMError struct {
	Provider   string
	Message    string
	StatusCode int
	Err        error
}

func (e *LLMError) Error() string { return fmt.Sprintf("[%s] %s", e.Provider, e.Message) }
func (e *LLMError) Unwrap() error { return e.Err }

func NewLLMError(provider, message string, statusCode int) *LLMError {
	return &LLMError{Provider: provider, Message: message, StatusCode: statusCode}
}

// LLMNetworkError marks transient failures (timeout, connection error,
// 5xx-equivalent). The provider client retries these locally.
type LLMNetworkError struct{ LLMError }

func NewLLMNetworkError(provider, message string, cause error) *LLMNetworkError {
	return &LLMNetworkError{LLMError{Provider: provider, Message: "erreur réseau: " + message, StatusCode: 503, Err: cause}}
}

// LLMAuthError marks 401/403-equivalent failures. Never retried.
type LLMAuthError struct{ LLMError }

func NewLLMAuthError(provider, message string) *LLMAuthError {
	if message == "" {
		message = "clé API invalide ou expirée"
	}
	return &LLMAuthError{LLMError{Provider: provider, Message: message, StatusCode: 401}}
}

// LLMQuotaError marks 429-equivalent failures. Not retried locally; the
// retry-after hint, when present, is surfaced for the caller to decide.
type LLMQuotaError struct {
	LLMError
	RetryAfter string
}

func NewLLMQuotaError(provider, message, retryAfter string) *LLMQuotaError {
	if message == "" {
		message = "limite de débit ou quota dépassé"
	}
	return &LLMQuotaError{LLMError: LLMError{Provider: provider, Message: message, StatusCode: 429}, RetryAfter: retryAfter}
}

// LLMConfigError marks a provider that cannot be constructed (missing or
// invalid credentials, unknown provider name). Raised at first use, before
// any network call.
type LLMConfigError struct{ LLMError }

func NewLLMConfigError(provider, message string) *LLMConfigError {
	return &LLMConfigError{LLMError{Provider: provider, Message: "erreur de configuration: " + message, StatusCode: 500}}
}

// AsLLMError extracts the base LLMError from any kind in the taxonomy.
func AsLLMError(err error) (*LLMError, bool) {
	var netErr *LLMNetworkError
	if errors.As(err, &netErr) {
		return &netErr.LLMError, true
	}
	var authErr *LLMAuthError
	if errors.As(err, &authErr) {
		return &authErr.LLMError, true
	}
	var quotaErr *LLMQuotaError
	if errors.As(err, &quotaErr) {
		return &quotaErr.LLMError, true
	}
	var cfgErr *LLMConfigError
	if errors.As(err, &cfgErr) {
		return &cfgErr.LLMError, true
	}
	var base *LLMError
	if errors.As(err, &base) {
		return base, true
	}
	return nil, false
}

// IsLLMUnusable reports whether the error means the provider cannot serve
// the rest of the pipeline either (auth, quota, configuration).
func IsLLMUnusable(err error) bool {
	var authErr *LLMAuthError
	var quotaErr *LLMQuotaError
	var cfgErr *LLMConfigError
	return errors.As(err, &authErr) || errors.As(err, &quotaErr) || errors.As(err, &cfgErr)
}

// ValidationError marks malformed caller input. Never retried.
type ValidationError struct {
	Message string
	Field   string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation échouée: %s (champ: %s)", e.Message, e.Field)
	}
	return "validation échouée: " + e.Message
}

func NewValidationError(message, field string) *ValidationError {
	return &ValidationError{Message: message, Field: field}
}

// FrameworkError means the compliance rules cannot be satisfied even after
// auto-fix; it carries the offending SQL.
type FrameworkError struct {
	Message string
	SQL     string
}

func (e *FrameworkError) Error() string { return "framework non respecté: " + e.Message }

func NewFrameworkError(message, sql string) *FrameworkError {
	return &FrameworkError{Message: message, SQL: sql}
}

// EmbeddingError marks a failure of the embedding collaborator. Fatal for
// the pipeline.
type EmbeddingError struct {
	Message string
	Model   string
}

func (e *EmbeddingError) Error() string {
	if e.Model != "" {
		return fmt.Sprintf("erreur embedding: %s (modèle: %s)", e.Message, e.Model)
	}
	return "erreur embedding: " + e.Message
}

func NewEmbeddingError(message, model string) *EmbeddingError {
	return &EmbeddingError{Message: message, Model: model}
}

// VectorSearchError marks a failure of the vector-search collaborator.
// Fatal for the pipeline.
type VectorSearchError struct {
	Message string
	Err     error
}

func (e *VectorSearchError) Error() string { return "erreur recherche vectorielle: " + e.Message }
func (e *VectorSearchError) Unwrap() error { return e.Err }

func NewVectorSearchError(message string, cause error) *VectorSearchError {
	return &VectorSearchError{Message: message, Err: cause}
}

// SchemaError marks a missing or unreadable schema file. Fatal.
type SchemaError struct {
	Message string
	Path    string
}

func (e *SchemaError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("erreur schéma: %s (chemin: %s)", e.Message, e.Path)
	}
	return "erreur schéma: " + e.Message
}

func NewSchemaError(message, path string) *SchemaError {
	return &SchemaError{Message: message, Path: path}
}

// CacheError marks a best-effort cache failure. Degrades to a cache miss
// outside strict mode.
type CacheError struct {
	Message   string
	Operation string
	Err       error
}

func (e *CacheError) Error() string {
	if e.Operation != "" {
		return fmt.Sprintf("erreur cache: %s (opération: %s)", e.Message, e.Operation)
	}
	return "erreur cache: " + e.Message
}

func (e *CacheError) Unwrap() error { return e.Err }

func NewCacheError(message, operation string, cause error) *CacheError {
	return &CacheError{Message: message, Operation: operation, Err: cause}
}
