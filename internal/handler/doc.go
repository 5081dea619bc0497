// Package handler contains the fiber HTTP handlers for the query, fusion,
// agent registry, and health endpoints. Handlers translate between the
// HTTP surface and the service layer; they hold no business logic.
package handler
