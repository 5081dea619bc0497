package router

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/nornweave/nornweave/internal/config"
	"github.com/nornweave/nornweave/internal/domain"
	apperrors "github.com/nornweave/nornweave/internal/pkg/errors"
)

// Selector turns classifier signals into a bounded, ordered list of
// routing targets. Pure function of signals plus a registry snapshot; the
// only side effect is a warning log for unregistered domains.
type Selector struct {
	cfg    config.RouterConfig
	logger *zap.Logger
}

// NewSelector creates a new target selector
func NewSelector(cfg config.RouterConfig, logger *zap.Logger) *Selector {
	return &Selector{cfg: cfg, logger: logger}
}

// Selection is the outcome of target selection
type Selection struct {
	Targets   []domain.RoutingTarget
	Broadcast bool
}

// Select applies the threshold/budget rules: primaries (score >= primary
// threshold) first, padded with secondaries up to the domain cap; if no
// signal reaches the secondary threshold anywhere, broadcast to every
// registered domain rather than drop the query silently.
func (s *Selector) Select(
	signals []domain.DomainSignal,
	registered []domain.AgentRegistration,
	rewrites map[domain.DomainID]string,
	originalQuery string,
) (*Selection, error) {
	byDomain := dispatchableByDomain(registered)

	ordered := make([]domain.DomainSignal, len(signals))
	copy(ordered, signals)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Score != ordered[j].Score {
			return ordered[i].Score > ordered[j].Score
		}
		return ordered[i].DomainID < ordered[j].DomainID
	})

	var primaries, secondaries []domain.DomainSignal
	for _, sig := range ordered {
		if sig.Score < 0 || sig.Score > 1 {
			// Producer bug: surface it, never clamp
			return nil, apperrors.Unprocessable(
				fmt.Sprintf("domain signal score %.4f for %q is outside [0,1]", sig.Score, sig.DomainID))
		}
		if _, ok := byDomain[sig.DomainID]; !ok {
			s.logger.Warn("skipping signal for unregistered domain",
				zap.String("domain_id", string(sig.DomainID)),
				zap.Float64("score", sig.Score),
			)
			continue
		}
		switch {
		case sig.Score >= s.cfg.PrimaryThreshold:
			primaries = append(primaries, sig)
		case sig.Score >= s.cfg.SecondaryThreshold:
			secondaries = append(secondaries, sig)
		}
	}

	selected := primaries
	if len(selected) > 0 {
		for _, sig := range secondaries {
			if len(selected) >= s.cfg.MaxDomains {
				break
			}
			selected = append(selected, sig)
		}
	} else {
		selected = secondaries
	}
	if len(selected) > s.cfg.MaxDomains {
		selected = selected[:s.cfg.MaxDomains]
	}

	if len(selected) == 0 {
		return s.broadcast(signals, registered, rewrites, originalQuery), nil
	}

	targets := make([]domain.RoutingTarget, 0, len(selected))
	for _, sig := range selected {
		reg := byDomain[sig.DomainID]
		targets = append(targets, domain.RoutingTarget{
			DomainID:       sig.DomainID,
			AgentID:        reg.AgentID,
			Relevance:      sig.Score,
			RewrittenQuery: s.validRewrite(rewrites[sig.DomainID], originalQuery),
		})
	}

	return &Selection{Targets: targets}, nil
}

// SelectExplicit bypasses classification: the caller-named domains become
// the target list verbatim, still subject to registry validation. An
// unknown or non-dispatchable domain is a client input error.
func (s *Selector) SelectExplicit(
	domains []domain.DomainID,
	registered []domain.AgentRegistration,
) (*Selection, error) {
	byDomain := dispatchableByDomain(registered)

	targets := make([]domain.RoutingTarget, 0, len(domains))
	for _, domainID := range domains {
		reg, ok := byDomain[domainID]
		if !ok {
			return nil, apperrors.BadRequest(fmt.Sprintf("unknown or unavailable domain %q", domainID))
		}
		targets = append(targets, domain.RoutingTarget{
			DomainID:  domainID,
			AgentID:   reg.AgentID,
			Relevance: 1.0,
		})
	}

	return &Selection{Targets: targets}, nil
}

// broadcast selects every registered domain, carrying whatever signal
// score exists for observability. Safety net: never drop a query silently.
func (s *Selector) broadcast(
	signals []domain.DomainSignal,
	registered []domain.AgentRegistration,
	rewrites map[domain.DomainID]string,
	originalQuery string,
) *Selection {
	scoreFor := make(map[domain.DomainID]float64, len(signals))
	for _, sig := range signals {
		scoreFor[sig.DomainID] = sig.Score
	}

	var targets []domain.RoutingTarget
	for _, reg := range registered {
		if !reg.Status.Dispatchable() {
			continue
		}
		targets = append(targets, domain.RoutingTarget{
			DomainID:       reg.Domain.DomainID,
			AgentID:        reg.AgentID,
			Relevance:      scoreFor[reg.Domain.DomainID],
			RewrittenQuery: s.validRewrite(rewrites[reg.Domain.DomainID], originalQuery),
		})
	}
	sort.Slice(targets, func(i, j int) bool {
		return targets[i].DomainID < targets[j].DomainID
	})

	return &Selection{Targets: targets, Broadcast: true}
}

// validRewrite validates a backend-proposed rewrite. Empty, over the token
// budget, or identical to the original all fall back to nil, which means
// identity passthrough of the original text.
func (s *Selector) validRewrite(rewrite, original string) *string {
	trimmed := strings.TrimSpace(rewrite)
	if trimmed == "" {
		return nil
	}
	if trimmed == original {
		return nil
	}
	if s.cfg.RewriteTokenBudget > 0 && len(strings.Fields(trimmed)) > s.cfg.RewriteTokenBudget {
		return nil
	}
	return &trimmed
}

func dispatchableByDomain(registered []domain.AgentRegistration) map[domain.DomainID]domain.AgentRegistration {
	byDomain := make(map[domain.DomainID]domain.AgentRegistration, len(registered))
	for _, reg := range registered {
		if reg.Status.Dispatchable() {
			byDomain[reg.Domain.DomainID] = reg
		}
	}
	return byDomain
}
