// Package service contains the business logic between the HTTP handlers
// and the routing/fusion machinery. QueryService runs the full query
// lifecycle, AgentService fronts the registry cache, and EventService is
// the best-effort advisory side channel.
package service
