package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/brianjwalters/graphrag-service/internal/domain"
)

// MockRAGService is a mock implementation of RAGService
type MockRAGService struct {
	mock.Mock
}

func (m *MockRAGService) ProcessQuery(ctx context.Context, query domain.RAGQuery) (*domain.RAGResult, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RAGResult), args.Error(1)
}

func (m *MockRAGService) ContextualRetrieval(ctx context.Context, tenantID, query, caseID string, maxResults int) (*domain.RAGResult, error) {
	args := m.Called(ctx, tenantID, query, caseID, maxResults)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RAGResult), args.Error(1)
}

func (m *MockRAGService) PrecedentAnalysis(ctx context.Context, tenantID, query, jurisdiction, caseType string) (*domain.RAGResult, error) {
	args := m.Called(ctx, tenantID, query, jurisdiction, caseType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RAGResult), args.Error(1)
}

func ragResult() *domain.RAGResult {
	return &domain.RAGResult{
		Query:            "What are the upcoming deadlines in our case?",
		Intent:           domain.IntentCaseSpecific,
		ModeUsed:         domain.ModeContextFirst,
		ContextQuality:   0.8,
		RetrievalQuality: 0.7,
		ConfidenceScore:  0.75,
		Retrieval: &domain.AggregateSearchResult{
			Results: []domain.SearchResult{{ID: "r1", Score: 0.9}},
			Total:   1,
		},
		Metadata: domain.RAGMetadata{
			ServicesUsed: []string{"vector_search", "context_service"},
			Complexity:   domain.ComplexityLow,
		},
	}
}

func TestRAGHandler_Query(t *testing.T) {
	t.Run("returns orchestrated result", func(t *testing.T) {
		svc := new(MockRAGService)
		svc.On("ProcessQuery", mock.Anything, mock.MatchedBy(func(q domain.RAGQuery) bool {
			return q.TenantID == "t1" && q.CaseID == "case-1" && q.Mode == domain.ExecutionMode("adaptive")
		})).Return(ragResult(), nil)
		handler := NewRAGHandler(svc)

		payload, _ := json.Marshal(RAGQueryRequest{
			Query:    "What are the upcoming deadlines in our case?",
			TenantID: "t1",
			CaseID:   "case-1",
			Mode:     "adaptive",
		})
		req := httptest.NewRequest(http.MethodPost, "/v1/rag/query", bytes.NewReader(payload))
		rec := httptest.NewRecorder()
		handler.Query(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			Data RAGResponse `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "case_specific", resp.Data.Intent)
		assert.Equal(t, "context_first", resp.Data.ModeUsed)
		assert.Equal(t, 1, resp.Data.Retrieval.Total)
		svc.AssertExpectations(t)
	})

	t.Run("invalid body", func(t *testing.T) {
		svc := new(MockRAGService)
		handler := NewRAGHandler(svc)

		req := httptest.NewRequest(http.MethodPost, "/v1/rag/query", bytes.NewReader([]byte("{")))
		rec := httptest.NewRecorder()
		handler.Query(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		svc.AssertNotCalled(t, "ProcessQuery")
	})

	t.Run("retrieval failure maps to 502", func(t *testing.T) {
		svc := new(MockRAGService)
		svc.On("ProcessQuery", mock.Anything, mock.Anything).Return(nil, domain.ErrSearchFailed)
		handler := NewRAGHandler(svc)

		payload, _ := json.Marshal(RAGQueryRequest{Query: "q", TenantID: "t1"})
		req := httptest.NewRequest(http.MethodPost, "/v1/rag/query", bytes.NewReader(payload))
		rec := httptest.NewRecorder()
		handler.Query(rec, req)

		assert.Equal(t, http.StatusBadGateway, rec.Code)
	})
}

func TestRAGHandler_Contextual(t *testing.T) {
	svc := new(MockRAGService)
	svc.On("ContextualRetrieval", mock.Anything, "t1", "What happened at the hearing?", "case-1", 5).
		Return(ragResult(), nil)
	handler := NewRAGHandler(svc)

	payload, _ := json.Marshal(ContextualRequest{
		Query:      "What happened at the hearing?",
		TenantID:   "t1",
		CaseID:     "case-1",
		MaxResults: 5,
	})
	req := httptest.NewRequest(http.MethodPost, "/v1/rag/contextual", bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	handler.Contextual(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	svc.AssertExpectations(t)
}

func TestRAGHandler_Precedent(t *testing.T) {
	svc := new(MockRAGService)
	svc.On("PrecedentAnalysis", mock.Anything, "t1", "qualified immunity", "California", "civil").
		Return(ragResult(), nil)
	handler := NewRAGHandler(svc)

	payload, _ := json.Marshal(PrecedentRequest{
		Query:        "qualified immunity",
		TenantID:     "t1",
		Jurisdiction: "California",
		CaseType:     "civil",
	})
	req := httptest.NewRequest(http.MethodPost, "/v1/rag/precedent", bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	handler.Precedent(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	svc.AssertExpectations(t)
}
