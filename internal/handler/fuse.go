package handler

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/nornweave/nornweave/internal/domain"
	"github.com/nornweave/nornweave/internal/service"
	"github.com/nornweave/nornweave/internal/validator"
)

// FuseHandler handles the standalone fusion endpoint
type FuseHandler struct {
	fuseService *service.FuseService
	logger      *zap.Logger
}

// NewFuseHandler creates a new fuse handler
func NewFuseHandler(fuseService *service.FuseService, logger *zap.Logger) *FuseHandler {
	return &FuseHandler{
		fuseService: fuseService,
		logger:      logger,
	}
}

// Fuse handles POST /v1/fuse
func (h *FuseHandler) Fuse(c *fiber.Ctx) error {
	var req domain.FuseRequest
	if err := c.BodyParser(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body")
	}

	if err := validator.Validate(&req); err != nil {
		if errs, ok := err.(validator.ValidationErrors); ok {
			return validationResponse(c, errs)
		}
		return errorResponse(c, fiber.StatusBadRequest, err.Error())
	}

	result, err := h.fuseService.Fuse(c.Context(), &req)
	if err != nil {
		h.logger.Error("fusion failed",
			zap.String("query_id", string(req.QueryID)),
			zap.Error(err),
		)
		return appErrorResponse(c, err)
	}

	return c.JSON(result)
}
