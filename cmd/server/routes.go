package main

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// registerRoutes registers all HTTP routes
func registerRoutes(app *fiber.App, deps *Dependencies) {
	h := deps.Handlers

	// Health check routes
	app.Get("/health", h.Health.Health)
	app.Get("/healthz", h.Health.Health)
	app.Get("/livez", h.Health.Liveness)
	app.Get("/readyz", h.Health.Readiness)

	// Prometheus scrape endpoint
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	v1 := app.Group("/v1")
	if deps.Config.RateLimit.Enabled {
		v1.Use(deps.RateLimitMiddleware.Handler())
	}

	// Query and fusion
	v1.Post("/query", h.Query.SubmitQuery)
	v1.Post("/fuse", h.Fuse.Fuse)

	// Agent registry
	v1.Post("/agents", h.Agents.RegisterAgent)
	v1.Get("/agents", h.Agents.ListAgents)
	v1.Post("/agents/:agentId/heartbeat", h.Agents.Heartbeat)
	v1.Get("/domains", h.Agents.ListDomains)
}
