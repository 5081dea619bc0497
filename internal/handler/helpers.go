package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	apperrors "github.com/nornweave/nornweave/internal/pkg/errors"
	"github.com/nornweave/nornweave/internal/validator"
)

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// errorResponse creates a standardized JSON error response.
func errorResponse(c *fiber.Ctx, statusCode int, message string) error {
	errorName := "Error"
	switch statusCode {
	case fiber.StatusBadRequest:
		errorName = "Bad Request"
	case fiber.StatusNotFound:
		errorName = "Not Found"
	case fiber.StatusConflict:
		errorName = "Conflict"
	case fiber.StatusUnprocessableEntity:
		errorName = "Unprocessable Entity"
	case fiber.StatusTooManyRequests:
		errorName = "Too Many Requests"
	case fiber.StatusInternalServerError:
		errorName = "Internal Server Error"
	}

	return c.Status(statusCode).JSON(ErrorResponse{
		Error:   errorName,
		Message: message,
	})
}

// validationResponse returns a 400 with per-field validation details
func validationResponse(c *fiber.Ctx, errs validator.ValidationErrors) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error":   "Bad Request",
		"message": "Validation failed",
		"details": errs,
	})
}

// appErrorResponse maps a service error to its HTTP response
func appErrorResponse(c *fiber.Ctx, err error) error {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		return validationResponse(c, validationErrs)
	}

	if appErr := apperrors.GetAppError(err); appErr != nil {
		return errorResponse(c, appErr.StatusCode, appErr.Message)
	}

	return errorResponse(c, fiber.StatusInternalServerError, "Internal server error")
}
