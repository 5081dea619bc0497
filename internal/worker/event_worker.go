package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/nornweave/nornweave/internal/domain"
	"github.com/nornweave/nornweave/internal/middleware"
	"github.com/nornweave/nornweave/internal/service"
)

const (
	contributionsKey = "nornweave:stats:domain_contributions"
	gapsKey          = "nornweave:stats:domain_gaps"
	queriesKey       = "nornweave:stats:queries_total"
	statsTTL         = 30 * 24 * time.Hour
)

// EventWorker consumes advisory query-completion events and maintains
// per-domain contribution statistics. Events are at-least-once, so all
// updates here are simple counters that tolerate the occasional replay.
type EventWorker struct {
	logger *zap.Logger
	redis  *redis.Client
}

// NewEventWorker creates a new event worker
func NewEventWorker(logger *zap.Logger, rdb *redis.Client) *EventWorker {
	return &EventWorker{logger: logger, redis: rdb}
}

// RegisterHandlers registers all event task handlers
func (w *EventWorker) RegisterHandlers(mux *asynq.ServeMux) {
	mux.HandleFunc(service.TypeQueryCompleted, w.HandleQueryCompleted)
}

// HandleQueryCompleted processes a query-completion event
func (w *EventWorker) HandleQueryCompleted(ctx context.Context, t *asynq.Task) error {
	var event domain.QueryCompletedEvent
	if err := json.Unmarshal(t.Payload(), &event); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	for _, domainID := range event.ContributingDomains {
		middleware.RecordDomainContribution(string(domainID))
	}

	pipe := w.redis.Pipeline()
	pipe.Incr(ctx, queriesKey)
	pipe.Expire(ctx, queriesKey, statsTTL)
	for _, domainID := range event.ContributingDomains {
		pipe.HIncrBy(ctx, contributionsKey, string(domainID), 1)
	}
	for _, domainID := range event.GapDomains {
		pipe.HIncrBy(ctx, gapsKey, string(domainID), 1)
	}
	pipe.Expire(ctx, contributionsKey, statsTTL)
	pipe.Expire(ctx, gapsKey, statsTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to update domain stats: %w", err)
	}

	w.logger.Info("processed query completed event",
		zap.String("query_id", string(event.QueryID)),
		zap.Int("contributing_domains", len(event.ContributingDomains)),
		zap.Int("gap_domains", len(event.GapDomains)),
		zap.Bool("broadcast_fallback", event.BroadcastFallback),
	)

	return nil
}
