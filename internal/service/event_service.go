package service

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/nornweave/nornweave/internal/domain"
)

const (
	// TypeQueryCompleted is the task type for advisory query-completion events
	TypeQueryCompleted = "events:query_completed"

	// QueueEvents is the low-priority queue advisory events go to
	QueueEvents = "events"
)

// EventService emits advisory events after a query completes. Emission is
// fire-and-forget: the pipeline calls it but never awaits or blocks on it,
// and a broker failure is logged, not propagated.
type EventService struct {
	client *asynq.Client
	logger *zap.Logger
}

// NewEventService creates a new event service. A nil client disables
// emission entirely, which is a valid degraded mode.
func NewEventService(client *asynq.Client, logger *zap.Logger) *EventService {
	return &EventService{client: client, logger: logger}
}

// EmitQueryCompleted enqueues a query-completion event on the events
// queue. Safe to call from the request path; returns immediately.
func (s *EventService) EmitQueryCompleted(event *domain.QueryCompletedEvent) {
	if s.client == nil {
		return
	}

	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.Error("failed to marshal query completed event",
			zap.String("query_id", string(event.QueryID)),
			zap.Error(err),
		)
		return
	}

	task := asynq.NewTask(TypeQueryCompleted, payload)
	if _, err := s.client.Enqueue(task,
		asynq.Queue(QueueEvents),
		asynq.MaxRetry(3),
		asynq.Timeout(30*time.Second),
	); err != nil {
		s.logger.Warn("failed to enqueue query completed event",
			zap.String("query_id", string(event.QueryID)),
			zap.Error(err),
		)
	}
}
