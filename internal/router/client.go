package router

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/nornweave/nornweave/internal/domain"
	"github.com/nornweave/nornweave/internal/pkg/circuitbreaker"
	apperrors "github.com/nornweave/nornweave/internal/pkg/errors"
)

// RecallClient performs a recall round trip against one memory agent
type RecallClient interface {
	Recall(ctx context.Context, baseURL string, req *domain.RecallRequest) (*domain.RecallResponse, error)
}

// HTTPRecallClient is the production RecallClient. Each agent base URL gets
// its own circuit breaker so one misbehaving agent cannot trip the rest.
type HTTPRecallClient struct {
	httpClient *http.Client
	breakers   *circuitbreaker.Registry
	logger     *zap.Logger
}

// NewHTTPRecallClient creates a recall client with pooled connections
func NewHTTPRecallClient(breakers *circuitbreaker.Registry, logger *zap.Logger) *HTTPRecallClient {
	return &HTTPRecallClient{
		httpClient: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 16,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		breakers: breakers,
		logger:   logger,
	}
}

// Recall posts the request to {baseURL}/recall. Call deadlines come from
// ctx; the client itself sets no timeout.
func (c *HTTPRecallClient) Recall(ctx context.Context, baseURL string, req *domain.RecallRequest) (*domain.RecallResponse, error) {
	cb := c.breakers.Get("agent:" + baseURL)

	return circuitbreaker.ExecuteWithResult(cb, ctx, func() (*domain.RecallResponse, error) {
		return c.doRecall(ctx, baseURL, req)
	})
}

func (c *HTTPRecallClient) doRecall(ctx context.Context, baseURL string, req *domain.RecallRequest) (*domain.RecallResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal recall request: %w", err)
	}

	url := strings.TrimRight(baseURL, "/") + "/recall"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build recall request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Trace-Id", string(req.TraceID))

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Warn("recall request rejected",
			zap.String("url", url),
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(snippet)),
		)
		return nil, apperrors.Internal(fmt.Sprintf("agent returned status %d", resp.StatusCode))
	}

	var recallResp domain.RecallResponse
	if err := json.NewDecoder(resp.Body).Decode(&recallResp); err != nil {
		return nil, fmt.Errorf("decode recall response: %w", err)
	}

	return &recallResp, nil
}
