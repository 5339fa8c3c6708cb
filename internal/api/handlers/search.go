package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/brianjwalters/graphrag-service/internal/api"
	"github.com/brianjwalters/graphrag-service/internal/domain"
)

type SearchService interface {
	Search(ctx context.Context, query domain.SearchQuery) (*domain.AggregateSearchResult, error)
}

type SearchHandler struct {
	svc SearchService
}

func NewSearchHandler(svc SearchService) *SearchHandler {
	return &SearchHandler{svc: svc}
}

type SearchRequest struct {
	Query            string            `json:"query"`
	TenantID         string            `json:"tenant_id"`
	SearchType       string            `json:"search_type,omitempty"`
	SearchScope      string            `json:"search_scope,omitempty"`
	Limit            int               `json:"limit,omitempty"`
	Threshold        float64           `json:"threshold,omitempty"`
	Filters          map[string]string `json:"filters,omitempty"`
	HybridAlpha      *float64          `json:"hybrid_alpha,omitempty"`
	IncludeReasoning bool              `json:"include_reasoning,omitempty"`
}

type SearchResultResponse struct {
	ID       string            `json:"id"`
	Content  string            `json:"content"`
	Score    float64           `json:"score"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

type SearchResponse struct {
	Query          string                  `json:"query"`
	Results        []*SearchResultResponse `json:"results"`
	Total          int                     `json:"total"`
	Communities    []string                `json:"communities,omitempty"`
	EntityMatches  []domain.EntityMatch    `json:"entity_matches,omitempty"`
	ReasoningChain []string                `json:"reasoning_chain,omitempty"`
	QualityScore   float64                 `json:"quality_score"`
	DurationMS     int64                   `json:"duration_ms"`
}

func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	query := domain.SearchQuery{
		Query:            req.Query,
		TenantID:         req.TenantID,
		SearchType:       domain.SearchType(req.SearchType),
		SearchScope:      domain.SearchScope(req.SearchScope),
		Limit:            req.Limit,
		Threshold:        req.Threshold,
		Filters:          req.Filters,
		IncludeReasoning: req.IncludeReasoning,
	}
	// distinguish "0.0 requested" from "not set": 0.0 means pure keyword
	if req.HybridAlpha != nil {
		query.HybridAlpha = *req.HybridAlpha
	} else {
		query.HybridAlpha = domain.DefaultHybridAlpha
	}

	result, err := h.svc.Search(r.Context(), query)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, toSearchResponse(result))
}

func toSearchResponse(result *domain.AggregateSearchResult) SearchResponse {
	results := make([]*SearchResultResponse, len(result.Results))
	for i, r := range result.Results {
		results[i] = &SearchResultResponse{
			ID:       r.ID,
			Content:  r.Content,
			Score:    r.Score,
			Metadata: r.Metadata,
		}
	}
	return SearchResponse{
		Query:          result.Query,
		Results:        results,
		Total:          result.Total,
		Communities:    result.Communities,
		EntityMatches:  result.EntityMatches,
		ReasoningChain: result.ReasoningChain,
		QualityScore:   result.QualityScore,
		DurationMS:     result.Duration.Milliseconds(),
	}
}
