// Package errors provides application error types for NornWeave.
//
// This package defines:
//   - AppError type with error classification
//   - Error constructors for common error types
//   - Error type checking helpers
//   - HTTP status code mapping
//
// # Error Types
//
//   - BadRequest / Validation: Invalid client input (400)
//   - NotFound: Resource does not exist (404)
//   - Unprocessable: Well-formed but unusable input (422)
//   - PipelineFatal: Unrecoverable fusion pipeline fault (500)
//   - Internal: Unexpected server error (500)
//
// # Usage
//
// Create errors using constructor functions:
//
//	return apperrors.NotFound("domain")
//	return apperrors.Validation("queryText is required")
//
// Check error types:
//
//	if apperrors.IsPipelineFatal(err) {
//	    // Only class that surfaces as a hard failure response
//	}
//
// # Error Wrapping
//
// Errors support wrapping with fmt.Errorf:
//
//	return fmt.Errorf("fusion failed: %w", apperrors.PipelineFatal("malformed item"))
package errors
