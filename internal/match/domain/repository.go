package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// BacklogEntry is a request with fewer matches than the oversight threshold.
type BacklogEntry struct {
	RequestID  snowflake.ID
	MatchCount int
	CreatedAt  time.Time
}

// Repository persists matches. Idempotency lives here, at the storage
// layer: the unique (request_id, agent_id) constraint makes concurrent
// duplicate creation safe without application-level locking.
type Repository interface {
	// CreateIfAbsent inserts the match unless the (request, agent) pair
	// already exists. Returns whether a row was actually created.
	CreateIfAbsent(ctx context.Context, db *gorm.DB, match *Match) (bool, error)

	// CreateBatch attempts creation for every candidate and returns the
	// matches actually inserted. Pairs that already existed are omitted.
	CreateBatch(ctx context.Context, db *gorm.DB, matches []Match) ([]Match, error)

	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Match, error)
	ListByAgent(ctx context.Context, db *gorm.DB, agentID snowflake.ID, limit, offset int) ([]Match, error)

	// FindActive returns the agent's match on the request whose status is in
	// the given set, or nil.
	FindActive(ctx context.Context, db *gorm.DB, agentID, requestID snowflake.ID, statuses []Status) (*Match, error)

	// UpdateStatusIfPending performs the conditional transition out of
	// pending. Returns false when the match was not pending, giving
	// at-most-one-winner semantics under concurrent accept/decline.
	UpdateStatusIfPending(ctx context.Context, db *gorm.DB, id snowflake.ID, to Status, respondedAt time.Time, declineReason *string) (bool, error)

	CountByRequest(ctx context.Context, db *gorm.DB, requestID snowflake.ID) (int64, error)
	ListBacklog(ctx context.Context, db *gorm.DB, threshold, limit int) ([]BacklogEntry, error)
}
