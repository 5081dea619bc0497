package handler

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/nornweave/nornweave/internal/domain"
	"github.com/nornweave/nornweave/internal/service"
	"github.com/nornweave/nornweave/internal/validator"
)

// AgentsHandler handles agent registry endpoints
type AgentsHandler struct {
	agentService *service.AgentService
	logger       *zap.Logger
}

// NewAgentsHandler creates a new agents handler
func NewAgentsHandler(agentService *service.AgentService, logger *zap.Logger) *AgentsHandler {
	return &AgentsHandler{
		agentService: agentService,
		logger:       logger,
	}
}

// RegisterAgent handles POST /v1/agents
func (h *AgentsHandler) RegisterAgent(c *fiber.Ctx) error {
	var input domain.AgentRegisterInput
	if err := c.BodyParser(&input); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body")
	}

	if err := validator.Validate(&input); err != nil {
		if errs, ok := err.(validator.ValidationErrors); ok {
			return validationResponse(c, errs)
		}
		return errorResponse(c, fiber.StatusBadRequest, err.Error())
	}

	if input.Domain.Type != "" && !input.Domain.Type.IsValid() {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid domain type")
	}

	reg, err := h.agentService.Register(c.Context(), &input)
	if err != nil {
		h.logger.Error("failed to register agent",
			zap.String("agent_id", string(input.AgentID)),
			zap.Error(err),
		)
		return appErrorResponse(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(reg)
}

// Heartbeat handles POST /v1/agents/:agentId/heartbeat
func (h *AgentsHandler) Heartbeat(c *fiber.Ctx) error {
	agentID := domain.AgentID(c.Params("agentId"))
	if agentID == "" {
		return errorResponse(c, fiber.StatusBadRequest, "Agent ID required")
	}

	var input domain.HeartbeatInput
	if err := c.BodyParser(&input); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body")
	}

	if err := validator.Validate(&input); err != nil {
		if errs, ok := err.(validator.ValidationErrors); ok {
			return validationResponse(c, errs)
		}
		return errorResponse(c, fiber.StatusBadRequest, err.Error())
	}

	reg, err := h.agentService.Heartbeat(c.Context(), agentID, input.Status)
	if err != nil {
		return appErrorResponse(c, err)
	}

	return c.JSON(reg)
}

// ListAgents handles GET /v1/agents
func (h *AgentsHandler) ListAgents(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"data": h.agentService.List(),
	})
}

// ListDomains handles GET /v1/domains
func (h *AgentsHandler) ListDomains(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"data": h.agentService.Domains(),
	})
}
