package models

// Translation statuses. A result starts in StatusProcessing and is resolved
// to exactly one terminal status during finalization.
const (
	StatusProcessing = "processing"
	StatusSuccess    = "success"
	StatusWarning    = "warning"
	StatusError      = "error"
)

// Chat message roles shared by every provider wire format.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// TranslationRequest is the immutable input of one translate call.
type TranslationRequest struct {
	Query                 string `json:"query" binding:"required,min=3,max=1000"`
	SchemaPath            string `json:"schema_path,omitempty"`
	Provider              string `json:"provider,omitempty"`
	Model                 string `json:"model,omitempty"`
	Validate              bool   `json:"validate"`
	Explain               bool   `json:"explain"`
	UseCache              bool   `json:"use_cache"`
	StoreResult           bool   `json:"store_result"`
	ReturnSimilarQueries  bool   `json:"return_similar_queries"`
	IncludeSimilarDetails bool   `json:"include_similar_details"`
	UserIDPlaceholder     string `json:"user_id_placeholder,omitempty"`
}

// TranslationResult is filled in progressively by the pipeline stages and
// finalized (timing, status resolution) regardless of the exit path.
type TranslationResult struct {
	Query                 string                `json:"query"`
	SQL                   *string               `json:"sql"`
	Valid                 *bool                 `json:"valid"`
	ValidationMessage     string                `json:"validation_message,omitempty"`
	Explanation           string                `json:"explanation,omitempty"`
	IsExactMatch          bool                  `json:"is_exact_match"`
	Status                string                `json:"status"`
	ProcessingTime        float64               `json:"processing_time"`
	SimilarQueries        []SimilarQuerySummary `json:"similar_queries,omitempty"`
	SimilarQueriesDetails []SimilarQueryMatch   `json:"similar_queries_details,omitempty"`
	FromCache             bool                  `json:"from_cache"`
	FrameworkCompliant    bool                  `json:"framework_compliant"`
	FrameworkDetails      *FrameworkElements    `json:"framework_details,omitempty"`
	Provider              string                `json:"provider"`
	Model                 string                `json:"model,omitempty"`
}

// SimilarQueryMatch is a read-only projection of one retrieval hit.
// Wherever a slice of matches is consumed, it is ordered by descending score.
type SimilarQueryMatch struct {
	Score    float64 `json:"score"`
	Question string  `json:"question"`
	SQL      string  `json:"sql"`
	ID       string  `json:"id"`
}

// SimilarQuerySummary is the simplified shape exposed on the result when the
// caller asked for similar queries without full details.
type SimilarQuerySummary struct {
	Score float64 `json:"score"`
	Query string  `json:"query"`
	SQL   string  `json:"sql"`
}

// FrameworkElements is the ephemeral analysis of one SQL string against the
// mandatory framework rules. It is recomputed on every validation call and
// never persisted.
type FrameworkElements struct {
	HasUserFilter    bool     `json:"has_user_filter"`
	HasDepotTable    bool     `json:"has_depot_table"`
	HasHashtags      bool     `json:"has_hashtags"`
	IsSelectQuery    bool     `json:"is_select_query"`
	HasWhereClause   bool     `json:"has_where_clause"`
	HasJoinDepot     bool     `json:"has_join_depot"`
	DepotAliases     []string `json:"depot_aliases"`
	FactsAliases     []string `json:"facts_aliases"`
	FoundHashtags    []string `json:"found_hashtags"`
	HasDepotHashtag  bool     `json:"has_depot_hashtag"`
	HasFactsHashtag  bool     `json:"has_facts_hashtag"`
	HasPeriodHashtag bool     `json:"has_periode_hashtag"`
}

// ValidationReport is the accumulated outcome of a complete validation pass
// (syntax, security, framework with one auto-fix attempt, semantic).
type ValidationReport struct {
	OriginalQuery  string            `json:"original_query"`
	FinalQuery     string            `json:"final_query"`
	Valid          bool              `json:"valid"`
	Warning        bool              `json:"warning,omitempty"`
	Message        string            `json:"message"`
	AutoFixApplied bool              `json:"auto_fix_applied"`
	Syntax         *CheckOutcome     `json:"syntax,omitempty"`
	Security       *CheckOutcome     `json:"security,omitempty"`
	Framework      *FrameworkOutcome `json:"framework,omitempty"`
	Semantic       *CheckOutcome     `json:"semantic,omitempty"`
}

type CheckOutcome struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message"`
}

type FrameworkOutcome struct {
	Compliant   bool               `json:"compliant"`
	Message     string             `json:"message"`
	Elements    *FrameworkElements `json:"elements,omitempty"`
	Suggestions []string           `json:"suggestions,omitempty"`
}

// ModelInfo describes one selectable model of a provider.
type ModelInfo struct {
	Provider      string `json:"provider"`
	ID            string `json:"id"`
	Name          string `json:"name"`
	ContextLength int    `json:"context_length,omitempty"`
}

// GenerateOptions carries the optional per-call generation parameters.
// A nil Temperature means "use the provider default".
type GenerateOptions struct {
	Temperature *float64
	MaxTokens   int
}

// Temp is a convenience constructor for GenerateOptions.Temperature.
func Temp(v float64) *float64 { return &v }
