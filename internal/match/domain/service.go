package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

// Service governs the match lifecycle on behalf of agents.
type Service interface {
	ListForAgent(ctx context.Context, agentID snowflake.ID, limit, offset int) ([]Match, error)
	Accept(ctx context.Context, agentID, matchID snowflake.ID) (*Match, error)
	Decline(ctx context.Context, agentID, matchID snowflake.ID, reason string) (*Match, error)
}
