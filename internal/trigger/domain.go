// Package trigger materializes matches when a trip request opens, when an
// agent becomes eligible, or when an agent asks for a refresh. Creation is
// idempotent at the storage layer, so duplicate trigger deliveries are
// harmless regardless of ordering.
package trigger

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

var (
	ErrRequestNotFound     = errors.New("request_not_found")
	ErrRequestNotMatchable = errors.New("request_not_matchable")
	ErrAgentNotFound       = errors.New("agent_not_found")
)

// Service creates matches from the three trigger paths.
type Service interface {
	// MatchRequest pairs an open request with the current eligible agent
	// pool. Returns how many matches were created.
	MatchRequest(ctx context.Context, requestID snowflake.ID) (int, error)

	// OnboardAgent pairs a newly eligible agent with all open requests.
	OnboardAgent(ctx context.Context, agentID snowflake.ID) (int, error)

	// Refresh is the agent-initiated variant of OnboardAgent.
	Refresh(ctx context.Context, agentID snowflake.ID) (int, error)
}
