package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/nornweave/nornweave/internal/config"
	"github.com/nornweave/nornweave/internal/domain"
)

// HTTPClassifier delegates classification to an external model endpoint.
// The endpoint is opaque: anything that accepts the request JSON and
// returns signals (and optional per-domain rewrites) works, whether it is
// a trained text classifier or an LLM adapter.
type HTTPClassifier struct {
	cfg        config.ClassifierConfig
	logger     *zap.Logger
	httpClient *http.Client
}

// NewHTTPClassifier creates a new HTTP classifier
func NewHTTPClassifier(cfg config.ClassifierConfig, logger *zap.Logger) *HTTPClassifier {
	return &HTTPClassifier{
		cfg:    cfg,
		logger: logger,
		httpClient: &http.Client{
			Timeout: cfg.Budget() + time.Second,
		},
	}
}

// Name returns the backend name
func (h *HTTPClassifier) Name() string { return "http" }

type classifyRequest struct {
	Query   string             `json:"query"`
	Domains []domainDescriptor `json:"domains"`
}

type domainDescriptor struct {
	DomainID    string `json:"domainId"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type classifyResponse struct {
	Signals  []domain.DomainSignal      `json:"signals"`
	Rewrites map[domain.DomainID]string `json:"rewrites,omitempty"`
}

// Classify posts the query and domain descriptors to the configured
// endpoint. The caller bounds the call with the classification budget via
// ctx; any error here triggers the selector's broadcast fallback.
func (h *HTTPClassifier) Classify(ctx context.Context, queryText string, domains []domain.DomainDescriptor) (*Classification, error) {
	reqBody := classifyRequest{Query: queryText}
	for _, d := range domains {
		reqBody.Domains = append(reqBody.Domains, domainDescriptor{
			DomainID:    string(d.DomainID),
			Name:        d.Name,
			Description: d.Description,
		})
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to encode classify request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.cfg.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create classify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if h.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+h.cfg.APIKey)
	}

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("classify call failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read classify response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("classify endpoint returned status %d: %s", resp.StatusCode, string(body))
	}

	var parsed classifyResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode classify response: %w", err)
	}

	return &Classification{
		Signals:  parsed.Signals,
		Rewrites: parsed.Rewrites,
	}, nil
}
