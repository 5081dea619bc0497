package handler

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/nornweave/nornweave/internal/domain"
	"github.com/nornweave/nornweave/internal/middleware"
	apperrors "github.com/nornweave/nornweave/internal/pkg/errors"
	"github.com/nornweave/nornweave/internal/service"
	"github.com/nornweave/nornweave/internal/validator"
)

// QueryHandler handles the query endpoint
type QueryHandler struct {
	queryService *service.QueryService
	logger       *zap.Logger
}

// NewQueryHandler creates a new query handler
func NewQueryHandler(queryService *service.QueryService, logger *zap.Logger) *QueryHandler {
	return &QueryHandler{
		queryService: queryService,
		logger:       logger,
	}
}

// QueryResponse wraps the fused result with the partial-success marker
type QueryResponse struct {
	Partial bool                 `json:"partial"`
	Result  *domain.FusionResult `json:"result"`
}

// SubmitQuery handles POST /v1/query
func (h *QueryHandler) SubmitQuery(c *fiber.Ctx) error {
	var req domain.QueryRequest
	if err := c.BodyParser(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body")
	}

	if err := validator.Validate(&req); err != nil {
		if errs, ok := err.(validator.ValidationErrors); ok {
			return validationResponse(c, errs)
		}
		return errorResponse(c, fiber.StatusBadRequest, err.Error())
	}

	traceID := domain.TraceID(middleware.GetRequestID(c))

	result, err := h.queryService.Execute(c.Context(), &req, traceID)
	if err != nil {
		if apperrors.IsPipelineFatal(err) || !apperrors.IsAppError(err) {
			h.logger.Error("query execution failed",
				zap.String("trace_id", string(traceID)),
				zap.Error(err),
			)
		}
		return appErrorResponse(c, err)
	}

	return c.JSON(QueryResponse{
		Partial: result.Partial(),
		Result:  result,
	})
}
