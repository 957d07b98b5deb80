package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	matchdomain "github.com/howweplan/matchd/internal/match/domain"
	"gorm.io/gorm"
)

type repo struct{}

// Provide returns the gorm-backed match repository.
func Provide() matchdomain.Repository {
	return repo{}
}

func (repo) CreateIfAbsent(ctx context.Context, db *gorm.DB, match *matchdomain.Match) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`INSERT INTO matches (id, request_id, agent_id, status, score, created_at, expires_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (request_id, agent_id) DO NOTHING`,
		match.ID,
		match.RequestID,
		match.AgentID,
		match.Status,
		match.Score,
		match.CreatedAt,
		match.ExpiresAt,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r repo) CreateBatch(ctx context.Context, db *gorm.DB, matches []matchdomain.Match) ([]matchdomain.Match, error) {
	created := make([]matchdomain.Match, 0, len(matches))
	for i := range matches {
		ok, err := r.CreateIfAbsent(ctx, db, &matches[i])
		if err != nil {
			return created, err
		}
		if ok {
			created = append(created, matches[i])
		}
	}
	return created, nil
}

func (repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*matchdomain.Match, error) {
	var match matchdomain.Match
	err := db.WithContext(ctx).Where("id = ?", id).First(&match).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &match, nil
}

func (repo) ListByAgent(ctx context.Context, db *gorm.DB, agentID snowflake.ID, limit, offset int) ([]matchdomain.Match, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	var matches []matchdomain.Match
	err := db.WithContext(ctx).
		Where("agent_id = ?", agentID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&matches).Error
	if err != nil {
		return nil, err
	}
	return matches, nil
}

func (repo) FindActive(ctx context.Context, db *gorm.DB, agentID, requestID snowflake.ID, statuses []matchdomain.Status) (*matchdomain.Match, error) {
	if len(statuses) == 0 {
		statuses = matchdomain.ActiveStatuses
	}
	var match matchdomain.Match
	err := db.WithContext(ctx).
		Where("agent_id = ? AND request_id = ? AND status IN ?", agentID, requestID, statuses).
		First(&match).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &match, nil
}

func (repo) UpdateStatusIfPending(ctx context.Context, db *gorm.DB, id snowflake.ID, to matchdomain.Status, respondedAt time.Time, declineReason *string) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE matches
		 SET status = ?, responded_at = ?, decline_reason = ?
		 WHERE id = ? AND status = ?`,
		to,
		respondedAt,
		declineReason,
		id,
		matchdomain.StatusPending,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (repo) CountByRequest(ctx context.Context, db *gorm.DB, requestID snowflake.ID) (int64, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&matchdomain.Match{}).
		Where("request_id = ?", requestID).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (repo) ListBacklog(ctx context.Context, db *gorm.DB, threshold, limit int) ([]matchdomain.BacklogEntry, error) {
	if threshold <= 0 {
		threshold = 3
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var entries []matchdomain.BacklogEntry
	err := db.WithContext(ctx).Raw(
		`SELECT r.id AS request_id, COUNT(m.id) AS match_count, r.created_at
		 FROM trip_requests r
		 LEFT JOIN matches m ON m.request_id = r.id
		 WHERE r.status IN ?
		 GROUP BY r.id, r.created_at
		 HAVING COUNT(m.id) < ?
		 ORDER BY r.created_at ASC
		 LIMIT ?`,
		[]string{"open", "matching"},
		threshold,
		limit,
	).Scan(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}
