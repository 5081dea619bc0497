package classifier

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/nornweave/nornweave/internal/config"
	"github.com/nornweave/nornweave/internal/domain"
)

// Classification is the signal source's full answer for one query: a
// weighted relevance signal per domain, optionally with a rewritten query
// per domain.
type Classification struct {
	Signals  []domain.DomainSignal
	Rewrites map[domain.DomainID]string
}

// Classifier produces weighted domain signals for a query. Implementations
// may be rule-based, statistical, or generative; the router is indifferent
// to which. The backend is selected by configuration at process start.
type Classifier interface {
	Classify(ctx context.Context, queryText string, domains []domain.DomainDescriptor) (*Classification, error)
	Name() string
}

// New creates the configured classifier backend
func New(cfg config.ClassifierConfig, logger *zap.Logger) (Classifier, error) {
	switch cfg.Backend {
	case "keyword":
		return NewKeywordClassifier(logger), nil
	case "http":
		return NewHTTPClassifier(cfg, logger), nil
	default:
		return nil, fmt.Errorf("unknown classifier backend %q", cfg.Backend)
	}
}
