package verification

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	agentdomain "github.com/howweplan/matchd/internal/agent/domain"
	"github.com/howweplan/matchd/internal/cache"
	"gorm.io/gorm"
)

// Directory resolves a platform user to their agent profile. Verification
// callers often only know the authenticated user id, not the agent id.
type Directory interface {
	ResolveAgent(ctx context.Context, userID snowflake.ID) (snowflake.ID, error)
}

type dbDirectory struct {
	db    *gorm.DB
	repo  agentdomain.Repository
	cache cache.Cache[snowflake.ID, snowflake.ID]
	ttl   time.Duration
}

// NewDirectory builds the database-backed directory. Lookups are cached
// because payment and communication both verify on their hot paths.
func NewDirectory(db *gorm.DB, repo agentdomain.Repository, ttl time.Duration) Directory {
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &dbDirectory{
		db:    db,
		repo:  repo,
		cache: cache.NewTTLCache[snowflake.ID, snowflake.ID](),
		ttl:   ttl,
	}
}

func (d *dbDirectory) ResolveAgent(ctx context.Context, userID snowflake.ID) (snowflake.ID, error) {
	if agentID, ok := d.cache.Get(userID); ok {
		return agentID, nil
	}
	agent, err := d.repo.FindByUserID(ctx, d.db, userID)
	if err != nil {
		return 0, err
	}
	if agent == nil {
		return 0, nil
	}
	d.cache.Set(userID, agent.ID, d.ttl)
	return agent.ID, nil
}
