package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/brianjwalters/graphrag-service/internal/domain"
	"github.com/brianjwalters/graphrag-service/internal/metrics"
	"github.com/brianjwalters/graphrag-service/internal/telemetry"
)

// Confidence weights. Fixed and hand-tuned. When a component is absent its
// term contributes 0; the remaining weights deliberately do not renormalize.
const (
	confidenceContextWeight   = 0.3
	confidenceRetrievalWeight = 0.5
	confidenceIntentWeight    = 0.2
	intentConfidence          = 0.8
)

// Context quality indicator values
const (
	contextCaseFieldCount = 4
	contextPartiesScore   = 0.8
	contextDeadlinesScore = 0.7
)

// maxEntityHints bounds how many retrieved entities inform a follow-up
// context request
const maxEntityHints = 3

// ContextRequest describes one call to the external context service
type ContextRequest struct {
	TenantID       string
	CaseID         string
	Depth          int
	EntityHints    []domain.EntityMatch
	CommunityHints []string
}

// ContextProvider is the consumer interface for the external context service
type ContextProvider interface {
	GetContext(ctx context.Context, req ContextRequest) (*domain.CaseContext, error)
}

// Retriever is the consumer interface for the vector search engine
type Retriever interface {
	Search(ctx context.Context, query domain.SearchQuery) (*domain.AggregateSearchResult, error)
}

// RAGService orchestrates retrieval and context fetching into a synthesized,
// confidence-scored answer. No state persists across calls.
type RAGService struct {
	retriever  Retriever
	contextSvc ContextProvider
	classifier IntentClassifier
	logger     *zap.Logger
}

// NewRAGService creates the orchestrator. contextSvc may be nil when no
// context service is configured; every call then degrades to empty context.
func NewRAGService(retriever Retriever, contextSvc ContextProvider, classifier IntentClassifier, logger *zap.Logger) *RAGService {
	if classifier == nil {
		classifier = NewRuleClassifier()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RAGService{
		retriever:  retriever,
		contextSvc: contextSvc,
		classifier: classifier,
		logger:     logger,
	}
}

// ProcessQuery runs the full orchestration for one query. A RAGResult is
// always returned when retrieval succeeded, even if context, synthesis, or
// reasoning are absent.
func (s *RAGService) ProcessQuery(ctx context.Context, query domain.RAGQuery) (*domain.RAGResult, error) {
	query.Normalize()
	if err := query.Validate(); err != nil {
		return nil, err
	}

	ctx, span := telemetry.StartSpan(ctx, "RAGService.ProcessQuery", telemetry.SpanAttributes{
		TenantID:  query.TenantID,
		CaseID:    query.CaseID,
		Operation: "rag_query",
	})
	defer span.End()

	start := time.Now()

	// Intent and mode are fixed before any sub-call executes, so they stay
	// stable even if sub-calls are retried.
	intent := s.classifier.Classify(query.Query, query.CaseID != "")
	mode := resolveMode(query.Mode, intent)

	result := &domain.RAGResult{
		Query:    query.Query,
		Intent:   intent,
		ModeUsed: mode,
		Metadata: domain.RAGMetadata{
			Complexity: domain.ComplexityForQuery(query.Query),
		},
		CreatedAt: time.Now().UTC(),
	}

	var err error
	switch mode {
	case domain.ModeContextFirst:
		err = s.executeContextFirst(ctx, query, result)
	case domain.ModeRetrieveFirst:
		err = s.executeRetrieveFirst(ctx, query, result)
	case domain.ModeParallel:
		err = s.executeParallel(ctx, query, result)
	default:
		// adaptive always resolves before this switch; an unknown mode is
		// a programming error surfaced explicitly
		err = domain.ErrInvalidExecutionMode
	}
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	if result.Retrieval != nil {
		result.RetrievalQuality = result.Retrieval.QualityScore
		result.Evidence = buildEvidence(result.Retrieval)
	}
	result.ContextQuality = contextQuality(result.Context)

	if query.IncludeReasoning && result.Context != nil && result.Retrieval != nil {
		synthStart := time.Now()
		result.Response = synthesize(result)
		result.Durations.Synthesis = time.Since(synthStart)
	}

	result.ConfidenceScore = confidenceScore(result)
	result.Metadata.ServicesUsed = servicesUsed(result)
	result.Durations.Total = time.Since(start)

	metrics.RAGQueryDuration.WithLabelValues(string(result.ModeUsed), string(result.Intent)).Observe(result.Durations.Total.Seconds())

	s.logger.Debug("rag query completed",
		zap.String("tenant_id", query.TenantID),
		zap.String("intent", string(result.Intent)),
		zap.String("mode", string(result.ModeUsed)),
		zap.Float64("confidence", result.ConfidenceScore),
		zap.Duration("duration", result.Durations.Total),
	)

	return result, nil
}

// ContextualRetrieval is a preset for case-grounded questions: context is
// fetched first and folded into retrieval.
func (s *RAGService) ContextualRetrieval(ctx context.Context, tenantID, query, caseID string, maxResults int) (*domain.RAGResult, error) {
	return s.ProcessQuery(ctx, domain.RAGQuery{
		Query:            query,
		TenantID:         tenantID,
		CaseID:           caseID,
		Mode:             domain.ModeContextFirst,
		MaxResults:       maxResults,
		IncludeContext:   true,
		IncludeReasoning: true,
		SearchTypes:      []domain.SearchType{domain.SearchTypeSemantic, domain.SearchTypeHybrid},
	})
}

// PrecedentAnalysis is a preset for precedent research: retrieval leads and
// the optional jurisdiction/case-type narrow the corpus.
func (s *RAGService) PrecedentAnalysis(ctx context.Context, tenantID, query, jurisdiction, caseType string) (*domain.RAGResult, error) {
	filters := make(map[string]string)
	if jurisdiction != "" {
		filters["jurisdiction"] = jurisdiction
	}
	if caseType != "" {
		filters["case_type"] = caseType
	}
	return s.ProcessQuery(ctx, domain.RAGQuery{
		Query:            query,
		TenantID:         tenantID,
		Mode:             domain.ModeRetrieveFirst,
		IncludeContext:   false,
		IncludeReasoning: true,
		SearchTypes:      []domain.SearchType{domain.SearchTypeHybrid, domain.SearchTypeGlobal},
		Filters:          filters,
	})
}

// resolveMode maps adaptive mode to a terminal mode by intent. A concrete
// caller-specified mode is used unchanged.
func resolveMode(mode domain.ExecutionMode, intent domain.QueryIntent) domain.ExecutionMode {
	if mode != domain.ModeAdaptive {
		return mode
	}
	switch intent {
	case domain.IntentCaseSpecific, domain.IntentContextual:
		return domain.ModeContextFirst
	case domain.IntentPrecedent, domain.IntentGeneralLegal:
		return domain.ModeRetrieveFirst
	default:
		return domain.ModeParallel
	}
}

// executeContextFirst fetches context, folds context-derived filters into an
// enhanced retrieval query, then retrieves. Context failure degrades;
// retrieval failure propagates.
func (s *RAGService) executeContextFirst(ctx context.Context, query domain.RAGQuery, result *domain.RAGResult) error {
	if query.IncludeContext {
		ctxStart := time.Now()
		caseContext, err := s.fetchContext(ctx, ContextRequest{
			TenantID: query.TenantID,
			CaseID:   query.CaseID,
			Depth:    query.ContextDepth,
		})
		result.Durations.Context = time.Since(ctxStart)
		if err != nil {
			metrics.ContextFailuresTotal.WithLabelValues(string(domain.ModeContextFirst)).Inc()
			s.logger.Warn("context fetch failed, continuing with empty context", zap.Error(err))
		} else {
			result.Context = caseContext
		}
	}

	retStart := time.Now()
	retrieval, err := s.retrieve(ctx, query, contextFilters(result.Context))
	result.Durations.Retrieval = time.Since(retStart)
	if err != nil {
		return err
	}
	result.Retrieval = retrieval
	return nil
}

// executeRetrieveFirst retrieves, then fetches context informed by the top
// retrieved entities and communities.
func (s *RAGService) executeRetrieveFirst(ctx context.Context, query domain.RAGQuery, result *domain.RAGResult) error {
	retStart := time.Now()
	retrieval, err := s.retrieve(ctx, query, nil)
	result.Durations.Retrieval = time.Since(retStart)
	if err != nil {
		return err
	}
	result.Retrieval = retrieval

	if !query.IncludeContext {
		return nil
	}

	hints := retrieval.EntityMatches
	if len(hints) > maxEntityHints {
		hints = hints[:maxEntityHints]
	}

	ctxStart := time.Now()
	caseContext, err := s.fetchContext(ctx, ContextRequest{
		TenantID:       query.TenantID,
		CaseID:         query.CaseID,
		Depth:          query.ContextDepth,
		EntityHints:    hints,
		CommunityHints: retrieval.Communities,
	})
	result.Durations.Context = time.Since(ctxStart)
	if err != nil {
		metrics.ContextFailuresTotal.WithLabelValues(string(domain.ModeRetrieveFirst)).Inc()
		s.logger.Warn("context fetch failed, continuing with empty context", zap.Error(err))
		return nil
	}
	result.Context = caseContext
	return nil
}

type contextOutcome struct {
	context  *domain.CaseContext
	err      error
	duration time.Duration
}

type retrievalOutcome struct {
	result   *domain.AggregateSearchResult
	err      error
	duration time.Duration
}

// executeParallel issues the context fetch and the retrieval concurrently
// and joins both before proceeding. Each side is an independent failure
// domain: a context failure degrades, a retrieval failure propagates, and
// neither cancels the other.
func (s *RAGService) executeParallel(ctx context.Context, query domain.RAGQuery, result *domain.RAGResult) error {
	var (
		wg      sync.WaitGroup
		ctxOut  contextOutcome
		retrOut retrievalOutcome
	)

	if query.IncludeContext {
		wg.Add(1)
		go func() {
			defer wg.Done()
			start := time.Now()
			caseContext, err := s.fetchContext(ctx, ContextRequest{
				TenantID: query.TenantID,
				CaseID:   query.CaseID,
				Depth:    query.ContextDepth,
			})
			ctxOut = contextOutcome{context: caseContext, err: err, duration: time.Since(start)}
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		start := time.Now()
		retrieval, err := s.retrieve(ctx, query, nil)
		retrOut = retrievalOutcome{result: retrieval, err: err, duration: time.Since(start)}
	}()

	wg.Wait()

	result.Durations.Context = ctxOut.duration
	result.Durations.Retrieval = retrOut.duration

	if retrOut.err != nil {
		return retrOut.err
	}
	result.Retrieval = retrOut.result

	if query.IncludeContext {
		if ctxOut.err != nil {
			metrics.ContextFailuresTotal.WithLabelValues(string(domain.ModeParallel)).Inc()
			s.logger.Warn("context fetch failed, continuing with empty context", zap.Error(ctxOut.err))
		} else {
			result.Context = ctxOut.context
		}
	}
	return nil
}

// retrieve walks the preferred search types in order, returning the first
// non-empty result set; an empty final attempt is still a valid result.
// Search errors propagate immediately.
func (s *RAGService) retrieve(ctx context.Context, query domain.RAGQuery, extraFilters map[string]string) (*domain.AggregateSearchResult, error) {
	filters := mergeFilters(query.Filters, extraFilters)

	var last *domain.AggregateSearchResult
	for _, searchType := range query.SearchTypes {
		searchQuery := domain.SearchQuery{
			Query:            query.Query,
			TenantID:         query.TenantID,
			SearchType:       searchType,
			Limit:            query.MaxResults,
			Threshold:        query.QualityThreshold,
			Filters:          filters,
			HybridAlpha:      domain.DefaultHybridAlpha,
			IncludeReasoning: query.IncludeReasoning,
		}
		result, err := s.retriever.Search(ctx, searchQuery)
		if err != nil {
			return nil, err
		}
		last = result
		if result.Total > 0 {
			return result, nil
		}
	}
	return last, nil
}

func (s *RAGService) fetchContext(ctx context.Context, req ContextRequest) (*domain.CaseContext, error) {
	if s.contextSvc == nil {
		return nil, domain.ErrContextUnavailable
	}
	return s.contextSvc.GetContext(ctx, req)
}

// contextFilters derives retrieval filters from a context payload
func contextFilters(caseContext *domain.CaseContext) map[string]string {
	if caseContext == nil || caseContext.Case == nil {
		return nil
	}
	filters := make(map[string]string)
	if caseContext.Case.Jurisdiction != "" {
		filters["jurisdiction"] = caseContext.Case.Jurisdiction
	}
	if caseContext.Case.CaseType != "" {
		filters["case_type"] = caseContext.Case.CaseType
	}
	if len(filters) == 0 {
		return nil
	}
	return filters
}

func mergeFilters(base, extra map[string]string) map[string]string {
	if len(base) == 0 {
		return extra
	}
	merged := make(map[string]string, len(base)+len(extra))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range extra {
		merged[k] = v
	}
	return merged
}

// contextQuality averages up to three indicators: case-record completeness
// (fraction of 4 expected fields), flat 0.8 when any party is listed, flat
// 0.7 when any deadline is listed. No context at all scores 0.0.
func contextQuality(caseContext *domain.CaseContext) float64 {
	if caseContext.Empty() {
		return 0
	}

	var indicators []float64
	if caseContext.Case != nil {
		present := 0
		for _, field := range []string{
			caseContext.Case.CaseNumber,
			caseContext.Case.Title,
			caseContext.Case.Status,
			caseContext.Case.Jurisdiction,
		} {
			if field != "" {
				present++
			}
		}
		indicators = append(indicators, float64(present)/contextCaseFieldCount)
	}
	if len(caseContext.Parties) > 0 {
		indicators = append(indicators, contextPartiesScore)
	}
	if len(caseContext.Deadlines) > 0 {
		indicators = append(indicators, contextDeadlinesScore)
	}

	if len(indicators) == 0 {
		return 0
	}
	var sum float64
	for _, v := range indicators {
		sum += v
	}
	return clamp01(sum / float64(len(indicators)))
}

// confidenceScore sums the weighted qualities of the components that are
// present. Weights do not renormalize when a component is absent.
func confidenceScore(result *domain.RAGResult) float64 {
	var confidence float64
	if result.Context != nil {
		confidence += confidenceContextWeight * result.ContextQuality
	}
	if result.Retrieval != nil {
		confidence += confidenceRetrievalWeight * result.RetrievalQuality
	}
	confidence += confidenceIntentWeight * intentConfidence
	return clamp01(confidence)
}

func servicesUsed(result *domain.RAGResult) []string {
	services := make([]string, 0, 2)
	if result.Retrieval != nil {
		services = append(services, "vector_search")
	}
	if result.Context != nil {
		services = append(services, "context_service")
	}
	return services
}
