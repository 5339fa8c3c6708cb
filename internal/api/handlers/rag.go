package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/brianjwalters/graphrag-service/internal/api"
	"github.com/brianjwalters/graphrag-service/internal/domain"
)

type RAGService interface {
	ProcessQuery(ctx context.Context, query domain.RAGQuery) (*domain.RAGResult, error)
	ContextualRetrieval(ctx context.Context, tenantID, query, caseID string, maxResults int) (*domain.RAGResult, error)
	PrecedentAnalysis(ctx context.Context, tenantID, query, jurisdiction, caseType string) (*domain.RAGResult, error)
}

type RAGHandler struct {
	svc RAGService
}

func NewRAGHandler(svc RAGService) *RAGHandler {
	return &RAGHandler{svc: svc}
}

type RAGQueryRequest struct {
	Query            string            `json:"query"`
	TenantID         string            `json:"tenant_id"`
	CaseID           string            `json:"case_id,omitempty"`
	Mode             string            `json:"mode,omitempty"`
	MaxResults       int               `json:"max_results,omitempty"`
	IncludeContext   bool              `json:"include_context,omitempty"`
	IncludeReasoning bool              `json:"include_reasoning,omitempty"`
	QualityThreshold float64           `json:"quality_threshold,omitempty"`
	ContextDepth     int               `json:"context_depth,omitempty"`
	SearchTypes      []string          `json:"search_types,omitempty"`
	Filters          map[string]string `json:"filters,omitempty"`
}

type ContextualRequest struct {
	Query      string `json:"query"`
	TenantID   string `json:"tenant_id"`
	CaseID     string `json:"case_id"`
	MaxResults int    `json:"max_results,omitempty"`
}

type PrecedentRequest struct {
	Query        string `json:"query"`
	TenantID     string `json:"tenant_id"`
	Jurisdiction string `json:"jurisdiction,omitempty"`
	CaseType     string `json:"case_type,omitempty"`
}

type RAGResponse struct {
	Query            string              `json:"query"`
	Intent           string              `json:"intent"`
	ModeUsed         string              `json:"mode_used"`
	Context          *domain.CaseContext `json:"context,omitempty"`
	ContextQuality   float64             `json:"context_quality"`
	Retrieval        *SearchResponse     `json:"retrieval,omitempty"`
	RetrievalQuality float64             `json:"retrieval_quality"`
	Response         string              `json:"response,omitempty"`
	Evidence         []domain.Evidence   `json:"evidence,omitempty"`
	ConfidenceScore  float64             `json:"confidence_score"`
	Durations        map[string]int64    `json:"durations_ms"`
	Metadata         domain.RAGMetadata  `json:"metadata"`
}

func (h *RAGHandler) Query(w http.ResponseWriter, r *http.Request) {
	var req RAGQueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	searchTypes := make([]domain.SearchType, 0, len(req.SearchTypes))
	for _, st := range req.SearchTypes {
		searchTypes = append(searchTypes, domain.SearchType(st))
	}

	result, err := h.svc.ProcessQuery(r.Context(), domain.RAGQuery{
		Query:            req.Query,
		TenantID:         req.TenantID,
		CaseID:           req.CaseID,
		Mode:             domain.ExecutionMode(req.Mode),
		MaxResults:       req.MaxResults,
		IncludeContext:   req.IncludeContext,
		IncludeReasoning: req.IncludeReasoning,
		QualityThreshold: req.QualityThreshold,
		ContextDepth:     req.ContextDepth,
		SearchTypes:      searchTypes,
		Filters:          req.Filters,
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, toRAGResponse(result))
}

func (h *RAGHandler) Contextual(w http.ResponseWriter, r *http.Request) {
	var req ContextualRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.svc.ContextualRetrieval(r.Context(), req.TenantID, req.Query, req.CaseID, req.MaxResults)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, toRAGResponse(result))
}

func (h *RAGHandler) Precedent(w http.ResponseWriter, r *http.Request) {
	var req PrecedentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.svc.PrecedentAnalysis(r.Context(), req.TenantID, req.Query, req.Jurisdiction, req.CaseType)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, toRAGResponse(result))
}

func toRAGResponse(result *domain.RAGResult) RAGResponse {
	resp := RAGResponse{
		Query:            result.Query,
		Intent:           string(result.Intent),
		ModeUsed:         string(result.ModeUsed),
		Context:          result.Context,
		ContextQuality:   result.ContextQuality,
		RetrievalQuality: result.RetrievalQuality,
		Response:         result.Response,
		Evidence:         result.Evidence,
		ConfidenceScore:  result.ConfidenceScore,
		Durations: map[string]int64{
			"total":     result.Durations.Total.Milliseconds(),
			"context":   result.Durations.Context.Milliseconds(),
			"retrieval": result.Durations.Retrieval.Milliseconds(),
			"synthesis": result.Durations.Synthesis.Milliseconds(),
		},
		Metadata: result.Metadata,
	}
	if result.Retrieval != nil {
		retrieval := toSearchResponse(result.Retrieval)
		resp.Retrieval = &retrieval
	}
	return resp
}
