package fusion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/nornweave/nornweave/internal/config"
	"github.com/nornweave/nornweave/internal/domain"
)

// Synthesizer turns the top ranked items into a narrative digest. Any
// failure is a soft degradation handled by the pipeline, never an abort.
type Synthesizer interface {
	Synthesize(ctx context.Context, queryText string, items []domain.FusedItem,
		conflicts []domain.ConflictRecord, gaps []domain.CoverageGap) (string, error)
	Name() string
}

// HTTPSynthesizer calls an external text-generation endpoint
type HTTPSynthesizer struct {
	cfg        config.SynthesisConfig
	httpClient *http.Client
	logger     *zap.Logger
}

// NewHTTPSynthesizer creates a synthesizer backed by a generation endpoint
func NewHTTPSynthesizer(cfg config.SynthesisConfig, logger *zap.Logger) *HTTPSynthesizer {
	return &HTTPSynthesizer{
		cfg:        cfg,
		httpClient: &http.Client{},
		logger:     logger,
	}
}

// Name returns the backend identifier
func (s *HTTPSynthesizer) Name() string { return "http" }

type synthesizeRequest struct {
	Prompt   string `json:"prompt"`
	MaxChars int    `json:"maxChars"`
}

type synthesizeResponse struct {
	Text string `json:"text"`
}

// Synthesize formats the top-N items into a cited prompt and posts it to
// the generation endpoint. The caller bounds the call through ctx.
func (s *HTTPSynthesizer) Synthesize(
	ctx context.Context,
	queryText string,
	items []domain.FusedItem,
	conflicts []domain.ConflictRecord,
	gaps []domain.CoverageGap,
) (string, error) {
	topN := s.cfg.TopN
	if topN <= 0 {
		topN = 10
	}
	if len(items) < topN {
		topN = len(items)
	}

	body, err := json.Marshal(synthesizeRequest{
		Prompt:   buildPrompt(queryText, items[:topN], conflicts, gaps, s.cfg.MaxChars),
		MaxChars: s.cfg.MaxChars,
	})
	if err != nil {
		return "", fmt.Errorf("marshal synthesis request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build synthesis request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("synthesis endpoint returned status %d: %s", resp.StatusCode, string(snippet))
	}

	var synthResp synthesizeResponse
	if err := json.NewDecoder(resp.Body).Decode(&synthResp); err != nil {
		return "", fmt.Errorf("decode synthesis response: %w", err)
	}

	return synthResp.Text, nil
}

func buildPrompt(
	queryText string,
	items []domain.FusedItem,
	conflicts []domain.ConflictRecord,
	gaps []domain.CoverageGap,
	maxChars int,
) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Answer the question using only the sources below. Cite sources by number.\n")
	fmt.Fprintf(&b, "Question: %s\n\nSources:\n", queryText)

	for i, item := range items {
		fmt.Fprintf(&b, "[%d] (domain=%s score=%.2f path=%s) %s\n",
			i+1, item.SourceDomainID, item.RankScore, item.Citation.SourcePath, item.Content)
	}

	unresolved := 0
	for _, conflict := range conflicts {
		if !conflict.Resolved() {
			unresolved++
		}
	}
	if unresolved > 0 {
		fmt.Fprintf(&b, "\n%d contradiction(s) between sources remain unresolved; acknowledge them rather than picking a side.\n", unresolved)
	}

	if len(gaps) > 0 {
		names := make([]string, 0, len(gaps))
		for _, gap := range gaps {
			names = append(names, string(gap.DomainID))
		}
		fmt.Fprintf(&b, "\nNo answer was available from: %s. Note this coverage gap.\n", strings.Join(names, ", "))
	}

	if maxChars > 0 {
		fmt.Fprintf(&b, "\nKeep the answer under %d characters.\n", maxChars)
	}

	return b.String()
}
