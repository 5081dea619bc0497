package fusion

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/nornweave/nornweave/internal/config"
	"github.com/nornweave/nornweave/internal/domain"
	"github.com/nornweave/nornweave/internal/middleware"
	apperrors "github.com/nornweave/nornweave/internal/pkg/errors"
)

// Pipeline runs the six fusion stages in strict sequence over one query's
// collected responses. It is stateless; every Run is independent and safe
// to execute concurrently with others.
type Pipeline struct {
	cfg      config.FusionConfig
	synthCfg config.SynthesisConfig
	synth    Synthesizer
	logger   *zap.Logger
}

// NewPipeline creates a fusion pipeline. synth may be nil when narrative
// synthesis is disabled.
func NewPipeline(cfg config.FusionConfig, synthCfg config.SynthesisConfig, synth Synthesizer, logger *zap.Logger) *Pipeline {
	return &Pipeline{cfg: cfg, synthCfg: synthCfg, synth: synth, logger: logger}
}

// Run merges the collected responses into one ranked result. Apart from
// the optional synthesis call the whole run is deterministic: the same
// input, configuration and clock produce the identical result. now is
// passed in so ranking recency has a single consistent reference point.
func (p *Pipeline) Run(
	ctx context.Context,
	req *domain.FuseRequest,
	domainTypes map[domain.DomainID]domain.DomainType,
	now time.Time,
) (*domain.FusionResult, error) {
	start := time.Now()

	stageStart := time.Now()
	collected := collect(req.Responses, req.CoverageGaps)
	middleware.RecordFusionStage("collect", time.Since(stageStart))

	if err := checkItemInvariants(collected.Items); err != nil {
		return nil, err
	}

	stageStart = time.Now()
	normalized := normalize(collected.Items)
	middleware.RecordFusionStage("normalize", time.Since(stageStart))

	stageStart = time.Now()
	deduped, duplicatesRemoved := deduplicate(normalized, p.cfg.DedupThreshold)
	middleware.RecordFusionStage("dedup", time.Since(stageStart))
	middleware.RecordDuplicatesRemoved(duplicatesRemoved)

	strategy := req.ConflictStrategy
	if strategy == "" {
		strategy = domain.ConflictStrategy(p.cfg.DefaultStrategy)
	}

	stageStart = time.Now()
	resolver := &conflictResolver{cfg: p.cfg, domainTypes: domainTypes}
	resolved, conflicts := resolver.resolve(deduped, strategy, req.OriginalText)
	middleware.RecordFusionStage("conflict", time.Since(stageStart))
	for _, conflict := range conflicts {
		middleware.RecordConflict(string(conflict.Resolution), conflict.Resolved())
	}

	signalScores := make(map[domain.DomainID]float64, len(req.Signals))
	for _, sig := range req.Signals {
		signalScores[sig.DomainID] = sig.Score
	}

	stageStart = time.Now()
	ranked := rank(resolved, signalScores, p.cfg, now)
	middleware.RecordFusionStage("rank", time.Since(stageStart))

	result := &domain.FusionResult{
		QueryID:        req.QueryID,
		Items:          ranked,
		Conflicts:      conflicts,
		CoverageGaps:   collected.Gaps,
		DomainsQueried: collected.Domains,
		TraceID:        req.TraceID,
	}

	if req.Synthesize && p.synthCfg.Enabled && p.synth != nil && len(ranked) > 0 {
		result.Synthesis = p.synthesize(ctx, req, result)
	}

	result.TotalLatencyMs = time.Since(start).Milliseconds()

	p.logger.Debug("fusion pipeline completed",
		zap.String("query_id", string(req.QueryID)),
		zap.Int("items", len(ranked)),
		zap.Int("duplicates_removed", duplicatesRemoved),
		zap.Int("conflicts", len(conflicts)),
		zap.Int("coverage_gaps", len(collected.Gaps)),
		zap.Int("agents_responded", collected.AgentsResponded),
		zap.Int("total_searched", collected.TotalCandidatesSearched),
	)

	return result, nil
}

// synthesize is always a soft degradation: any failure logs, counts, and
// returns nil rather than failing the request.
func (p *Pipeline) synthesize(ctx context.Context, req *domain.FuseRequest, result *domain.FusionResult) *string {
	synthCtx, cancel := context.WithTimeout(ctx, p.synthCfg.Timeout())
	defer cancel()

	stageStart := time.Now()
	text, err := p.synth.Synthesize(synthCtx, req.OriginalText, result.Items, result.Conflicts, result.CoverageGaps)
	middleware.RecordFusionStage("synthesize", time.Since(stageStart))
	if err != nil {
		middleware.RecordSynthesisFailure()
		p.logger.Warn("synthesis failed, returning result without digest",
			zap.String("query_id", string(req.QueryID)),
			zap.Error(err),
		)
		return nil
	}
	if text == "" {
		return nil
	}
	return &text
}

// checkItemInvariants rejects malformed input before any stage consumes
// it. A violation here is pipeline-fatal, the one error class that fails
// the whole request.
func checkItemInvariants(items []TaggedItem) error {
	for _, item := range items {
		if math.IsNaN(item.Score) || item.Score < 0 || item.Score > 1 {
			return apperrors.PipelineFatal(
				fmt.Sprintf("item %s from agent %s has raw score %v outside [0,1]",
					item.ChunkID, item.SourceAgentID, item.Score))
		}
		if item.ChunkID == "" {
			return apperrors.PipelineFatal(
				fmt.Sprintf("item from agent %s has no chunk id", item.SourceAgentID))
		}
	}
	return nil
}
