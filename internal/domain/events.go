package domain

import "time"

// QueryCompletedEvent is the advisory event emitted after a query finishes,
// describing which domains contributed usefully. Delivery is best-effort
// and at-least-once; consumers must treat it as idempotent advice, never
// as the authoritative record of the query.
type QueryCompletedEvent struct {
	QueryID              QueryID    `json:"queryId"`
	TraceID              TraceID    `json:"traceId"`
	DomainsQueried       []DomainID `json:"domainsQueried"`
	ContributingDomains  []DomainID `json:"contributingDomains"`
	GapDomains           []DomainID `json:"gapDomains"`
	ItemCount            int        `json:"itemCount"`
	ConflictCount        int        `json:"conflictCount"`
	BroadcastFallback    bool       `json:"broadcastFallback"`
	TotalLatencyMs       int64      `json:"totalLatencyMs"`
	CompletedAt          time.Time  `json:"completedAt"`
}
