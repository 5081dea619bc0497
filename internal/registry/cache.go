package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/nornweave/nornweave/internal/config"
	"github.com/nornweave/nornweave/internal/domain"
	apperrors "github.com/nornweave/nornweave/internal/pkg/errors"
)

// Cache is a TTL-cached view of the agent registry. Registrations live in
// Redis with a TTL; the cache keeps a process-local snapshot refreshed
// periodically. The selector reads the snapshot, never Redis, on the
// query hot path, so a registration can be up to one TTL stale.
type Cache struct {
	rdb    *redis.Client
	cfg    config.RegistryConfig
	logger *zap.Logger

	mu     sync.RWMutex
	agents map[domain.DomainID]domain.AgentRegistration
}

// NewCache creates a new registry cache
func NewCache(rdb *redis.Client, cfg config.RegistryConfig, logger *zap.Logger) *Cache {
	return &Cache{
		rdb:    rdb,
		cfg:    cfg,
		logger: logger,
		agents: make(map[domain.DomainID]domain.AgentRegistration),
	}
}

func (c *Cache) key(agentID domain.AgentID) string {
	return c.cfg.KeyPrefix + string(agentID)
}

// Register stores an agent registration in Redis and updates the local
// snapshot immediately so the agent is routable without waiting a refresh.
func (c *Cache) Register(ctx context.Context, input *domain.AgentRegisterInput) (*domain.AgentRegistration, error) {
	now := time.Now().UTC()
	reg := domain.AgentRegistration{
		AgentID:         input.AgentID,
		Domain:          input.Domain,
		BaseURL:         input.BaseURL,
		Status:          domain.AgentStatusStarting,
		RegisteredAt:    now,
		LastHeartbeatAt: now,
	}

	if err := c.store(ctx, &reg); err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.agents[reg.Domain.DomainID] = reg
	c.mu.Unlock()

	c.logger.Info("agent registered",
		zap.String("agent_id", string(reg.AgentID)),
		zap.String("domain_id", string(reg.Domain.DomainID)),
		zap.String("base_url", reg.BaseURL),
	)

	return &reg, nil
}

// Heartbeat updates an agent's status and heartbeat timestamp, renewing
// its Redis TTL.
func (c *Cache) Heartbeat(ctx context.Context, agentID domain.AgentID, status domain.AgentStatus) (*domain.AgentRegistration, error) {
	data, err := c.rdb.Get(ctx, c.key(agentID)).Result()
	if err == redis.Nil {
		return nil, apperrors.NotFound("agent")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read registration: %w", err)
	}

	var reg domain.AgentRegistration
	if err := json.Unmarshal([]byte(data), &reg); err != nil {
		return nil, fmt.Errorf("failed to decode registration: %w", err)
	}

	reg.Status = status
	reg.LastHeartbeatAt = time.Now().UTC()

	if err := c.store(ctx, &reg); err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.agents[reg.Domain.DomainID] = reg
	c.mu.Unlock()

	return &reg, nil
}

func (c *Cache) store(ctx context.Context, reg *domain.AgentRegistration) error {
	payload, err := json.Marshal(reg)
	if err != nil {
		return fmt.Errorf("failed to encode registration: %w", err)
	}
	if err := c.rdb.Set(ctx, c.key(reg.AgentID), payload, c.cfg.TTL()).Err(); err != nil {
		return fmt.Errorf("failed to store registration: %w", err)
	}
	return nil
}

// Refresh replaces the local snapshot with the current Redis contents.
// Registrations whose TTL expired simply disappear from the scan.
func (c *Cache) Refresh(ctx context.Context) error {
	fresh := make(map[domain.DomainID]domain.AgentRegistration)

	var cursor uint64
	for {
		keys, next, err := c.rdb.Scan(ctx, cursor, c.cfg.KeyPrefix+"*", 100).Result()
		if err != nil {
			return fmt.Errorf("failed to scan registry keys: %w", err)
		}

		for _, key := range keys {
			data, err := c.rdb.Get(ctx, key).Result()
			if err != nil {
				// Expired between SCAN and GET
				continue
			}
			var reg domain.AgentRegistration
			if err := json.Unmarshal([]byte(data), &reg); err != nil {
				c.logger.Warn("skipping malformed registration", zap.String("key", key), zap.Error(err))
				continue
			}
			fresh[reg.Domain.DomainID] = reg
		}

		cursor = next
		if cursor == 0 {
			break
		}
	}

	c.mu.Lock()
	c.agents = fresh
	c.mu.Unlock()

	return nil
}

// Start runs the periodic refresh loop until ctx is cancelled
func (c *Cache) Start(ctx context.Context) {
	ticker := time.NewTicker(c.cfg.RefreshInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.Refresh(ctx); err != nil {
				c.logger.Warn("registry refresh failed", zap.Error(err))
			}
		}
	}
}

// Lookup returns the registration serving a domain, if any
func (c *Cache) Lookup(domainID domain.DomainID) (domain.AgentRegistration, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	reg, ok := c.agents[domainID]
	return reg, ok
}

// Snapshot returns all registrations ordered by domain id
func (c *Cache) Snapshot() []domain.AgentRegistration {
	c.mu.RLock()
	defer c.mu.RUnlock()

	regs := make([]domain.AgentRegistration, 0, len(c.agents))
	for _, reg := range c.agents {
		regs = append(regs, reg)
	}
	sort.Slice(regs, func(i, j int) bool {
		return regs[i].Domain.DomainID < regs[j].Domain.DomainID
	})
	return regs
}

// Descriptors returns the domain descriptors of all registered agents,
// ordered by domain id. Classifier backends use these to understand what
// each domain holds.
func (c *Cache) Descriptors() []domain.DomainDescriptor {
	regs := c.Snapshot()
	descs := make([]domain.DomainDescriptor, 0, len(regs))
	for _, reg := range regs {
		descs = append(descs, reg.Domain)
	}
	return descs
}
