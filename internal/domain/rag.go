package domain

import (
	"strings"
	"time"
)

// QueryIntent is a coarse classification of what kind of answer a query
// seeks, used only to pick an execution strategy
type QueryIntent string

const (
	IntentCaseSpecific QueryIntent = "case_specific"
	IntentGeneralLegal QueryIntent = "general_legal"
	IntentProcedural   QueryIntent = "procedural"
	IntentPrecedent    QueryIntent = "precedent"
	IntentContextual   QueryIntent = "contextual"
)

// ExecutionMode is the order in which context fetch and retrieval run
type ExecutionMode string

const (
	ModeContextFirst  ExecutionMode = "context_first"
	ModeRetrieveFirst ExecutionMode = "retrieve_first"
	ModeParallel      ExecutionMode = "parallel"
	// ModeAdaptive is never a terminal mode: it always resolves to one of
	// the other three before execution
	ModeAdaptive ExecutionMode = "adaptive"
)

// Valid reports whether the execution mode is known
func (m ExecutionMode) Valid() bool {
	switch m {
	case ModeContextFirst, ModeRetrieveFirst, ModeParallel, ModeAdaptive:
		return true
	}
	return false
}

const (
	// DefaultContextDepth is the graph-traversal depth requested from the
	// context service when the caller does not specify one
	DefaultContextDepth = 3
	// MaxContextDepth bounds context traversal
	MaxContextDepth = 10
)

// RAGQuery is a natural-language question scoped to a tenant and optionally
// a case
type RAGQuery struct {
	Query            string        `json:"query"`
	TenantID         string        `json:"tenant_id"`
	CaseID           string        `json:"case_id,omitempty"`
	Mode             ExecutionMode `json:"mode"`
	MaxResults       int           `json:"max_results"`
	IncludeContext   bool          `json:"include_context"`
	IncludeReasoning bool          `json:"include_reasoning"`
	QualityThreshold float64       `json:"quality_threshold"`
	ContextDepth     int           `json:"context_depth"`
	SearchTypes      []SearchType  `json:"search_types,omitempty"`

	// Filters narrow retrieval to matching attribute values, on top of any
	// filters derived from fetched context
	Filters map[string]string `json:"filters,omitempty"`
}

// Normalize fills defaults for optional fields. It does not validate.
func (q *RAGQuery) Normalize() {
	if q.Mode == "" {
		q.Mode = ModeAdaptive
	}
	if q.MaxResults == 0 {
		q.MaxResults = DefaultSearchLimit
	}
	if q.ContextDepth == 0 {
		q.ContextDepth = DefaultContextDepth
	}
	if len(q.SearchTypes) == 0 {
		q.SearchTypes = []SearchType{SearchTypeSemantic, SearchTypeHybrid}
	}
}

// Validate checks the query before any remote call is made
func (q *RAGQuery) Validate() error {
	if strings.TrimSpace(q.Query) == "" {
		return ErrEmptyQuery
	}
	if q.TenantID == "" {
		return ErrMissingTenant
	}
	if !q.Mode.Valid() {
		return ErrInvalidExecutionMode
	}
	if q.MaxResults < 1 || q.MaxResults > MaxSearchLimit {
		return ErrInvalidLimit
	}
	if q.QualityThreshold < 0 || q.QualityThreshold > 1 {
		return ErrInvalidThreshold
	}
	if q.ContextDepth < 1 || q.ContextDepth > MaxContextDepth {
		return ErrInvalidContextDepth
	}
	for _, st := range q.SearchTypes {
		if !st.Valid() {
			return ErrInvalidSearchType
		}
	}
	return nil
}

// Evidence is one structured fact/source pair in the evidence chain
type Evidence struct {
	Fact   string  `json:"fact"`
	Source string  `json:"source"`
	Score  float64 `json:"score"`
}

// RAGDurations holds per-phase wall-clock measurements for one call
type RAGDurations struct {
	Total     time.Duration `json:"total"`
	Context   time.Duration `json:"context"`
	Retrieval time.Duration `json:"retrieval"`
	Synthesis time.Duration `json:"synthesis"`
}

// QueryComplexity is a coarse label derived from query word count
type QueryComplexity string

const (
	ComplexityLow    QueryComplexity = "low"
	ComplexityMedium QueryComplexity = "medium"
	ComplexityHigh   QueryComplexity = "high"
)

// RAGMetadata records which services were consulted and the assessed
// complexity of the query
type RAGMetadata struct {
	ServicesUsed []string        `json:"services_used"`
	Complexity   QueryComplexity `json:"complexity"`
}

// RAGResult is the synthesized outcome of one orchestrated query.
// ModeUsed is never ModeAdaptive; ConfidenceScore is clamped to [0,1].
type RAGResult struct {
	Query            string                 `json:"query"`
	Intent           QueryIntent            `json:"intent"`
	ModeUsed         ExecutionMode          `json:"mode_used"`
	Context          *CaseContext           `json:"context,omitempty"`
	ContextQuality   float64                `json:"context_quality"`
	Retrieval        *AggregateSearchResult `json:"retrieval,omitempty"`
	RetrievalQuality float64                `json:"retrieval_quality"`
	Response         string                 `json:"response,omitempty"`
	Evidence         []Evidence             `json:"evidence,omitempty"`
	ConfidenceScore  float64                `json:"confidence_score"`
	Durations        RAGDurations           `json:"durations"`
	Metadata         RAGMetadata            `json:"metadata"`
	CreatedAt        time.Time              `json:"created_at"`
}

// ComplexityForQuery labels a query by word count: <=10 low, 11-30 medium,
// >30 high
func ComplexityForQuery(query string) QueryComplexity {
	words := len(strings.Fields(query))
	switch {
	case words <= 10:
		return ComplexityLow
	case words <= 30:
		return ComplexityMedium
	default:
		return ComplexityHigh
	}
}
