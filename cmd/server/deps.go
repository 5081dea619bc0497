package main

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/nornweave/nornweave/internal/classifier"
	"github.com/nornweave/nornweave/internal/config"
	"github.com/nornweave/nornweave/internal/fusion"
	"github.com/nornweave/nornweave/internal/handler"
	"github.com/nornweave/nornweave/internal/middleware"
	"github.com/nornweave/nornweave/internal/pkg/circuitbreaker"
	"github.com/nornweave/nornweave/internal/registry"
	"github.com/nornweave/nornweave/internal/router"
	"github.com/nornweave/nornweave/internal/service"
)

// Handlers holds all HTTP handlers
type Handlers struct {
	Query  *handler.QueryHandler
	Fuse   *handler.FuseHandler
	Agents *handler.AgentsHandler
	Health *handler.HealthHandler
}

// Dependencies holds all application dependencies
type Dependencies struct {
	Config *config.Config
	Logger *zap.Logger

	Redis       *redis.Client
	AsynqClient *asynq.Client

	Registry *registry.Cache

	QueryService *service.QueryService
	FuseService  *service.FuseService
	AgentService *service.AgentService
	EventService *service.EventService

	Handlers            *Handlers
	RateLimitMiddleware *middleware.RateLimitMiddleware
}

// initDependencies wires up the application
func initDependencies(cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	asynqClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	registryCache := registry.NewCache(rdb, cfg.Registry, logger)
	if err := registryCache.Refresh(pingCtx); err != nil {
		logger.Warn("initial registry refresh failed, starting with empty snapshot", zap.Error(err))
	}

	cls, err := classifier.New(cfg.Classifier, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create classifier: %w", err)
	}
	logger.Info("classifier backend selected", zap.String("backend", cls.Name()))

	breakers := circuitbreaker.NewRegistry()
	recallClient := router.NewHTTPRecallClient(breakers, logger)
	selector := router.NewSelector(cfg.Router, logger)
	orchestrator := router.NewOrchestrator(recallClient, logger)

	var synthesizer fusion.Synthesizer
	if cfg.Synthesis.Enabled {
		synthesizer = fusion.NewHTTPSynthesizer(cfg.Synthesis, logger)
	}
	pipeline := fusion.NewPipeline(cfg.Fusion, cfg.Synthesis, synthesizer, logger)

	eventService := service.NewEventService(asynqClient, logger)
	agentService := service.NewAgentService(registryCache, logger)
	fuseService := service.NewFuseService(pipeline, registryCache, logger)
	queryService := service.NewQueryService(
		cfg, cls, selector, orchestrator, registryCache, pipeline, eventService, logger,
	)

	handlers := &Handlers{
		Query:  handler.NewQueryHandler(queryService, logger),
		Fuse:   handler.NewFuseHandler(fuseService, logger),
		Agents: handler.NewAgentsHandler(agentService, logger),
		Health: handler.NewHealthHandler(rdb, appVersion),
	}

	return &Dependencies{
		Config:              cfg,
		Logger:              logger,
		Redis:               rdb,
		AsynqClient:         asynqClient,
		Registry:            registryCache,
		QueryService:        queryService,
		FuseService:         fuseService,
		AgentService:        agentService,
		EventService:        eventService,
		Handlers:            handlers,
		RateLimitMiddleware: middleware.NewRateLimitMiddleware(rdb),
	}, nil
}

// Close releases all held resources
func (d *Dependencies) Close() {
	if d.AsynqClient != nil {
		if err := d.AsynqClient.Close(); err != nil {
			d.Logger.Error("failed to close asynq client", zap.Error(err))
		}
	}
	if d.Redis != nil {
		if err := d.Redis.Close(); err != nil {
			d.Logger.Error("failed to close redis client", zap.Error(err))
		}
	}
}
