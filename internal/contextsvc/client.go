// Package contextsvc is the HTTP client for the external case context
// service. The orchestrator decides whether a failure here degrades or
// propagates; this client only reports it.
package contextsvc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/brianjwalters/graphrag-service/internal/domain"
	"github.com/brianjwalters/graphrag-service/internal/service"
)

// DefaultTimeout bounds one context fetch. Kept short so a slow context
// service cannot stall an orchestrated query.
const DefaultTimeout = 3 * time.Second

// Config holds client construction parameters
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client calls the context service over HTTP with JSON bodies
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// New creates a context service client. BaseURL is required; wiring that has
// no context service configured should skip construction and hand the
// orchestrator a nil ContextProvider instead.
func New(cfg Config, logger *zap.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, domain.NewDomainError(domain.ErrCodeNotConfigured, "context service URL not configured")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: logger,
	}, nil
}

type contextRequestBody struct {
	TenantID       string   `json:"tenant_id"`
	CaseID         string   `json:"case_id,omitempty"`
	Depth          int      `json:"depth"`
	EntityHints    []string `json:"entity_hints,omitempty"`
	CommunityHints []string `json:"community_hints,omitempty"`
}

type contextResponseBody struct {
	Data  *domain.CaseContext `json:"data,omitempty"`
	Error string              `json:"error,omitempty"`
}

// GetContext fetches the case context for one request
func (c *Client) GetContext(ctx context.Context, req service.ContextRequest) (*domain.CaseContext, error) {
	body := contextRequestBody{
		TenantID:       req.TenantID,
		CaseID:         req.CaseID,
		Depth:          req.Depth,
		CommunityHints: req.CommunityHints,
	}
	for _, hint := range req.EntityHints {
		body.EntityHints = append(body.EntityHints, hint.EntityID)
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal context request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/context", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create context request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeContext, "context service unreachable", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeContext, "read context response", err)
	}

	var parsed contextResponseBody
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeContext, "parse context response", err)
	}

	if resp.StatusCode >= 400 {
		message := parsed.Error
		if message == "" {
			message = fmt.Sprintf("context service returned status %d", resp.StatusCode)
		}
		return nil, domain.NewDomainError(domain.ErrCodeContext, message)
	}
	if parsed.Data == nil {
		return nil, domain.NewDomainError(domain.ErrCodeContext, "context service returned no payload")
	}

	c.logger.Debug("context fetched",
		zap.String("tenant_id", req.TenantID),
		zap.String("case_id", req.CaseID),
		zap.Int("parties", len(parsed.Data.Parties)),
		zap.Int("deadlines", len(parsed.Data.Deadlines)),
	)
	return parsed.Data, nil
}
