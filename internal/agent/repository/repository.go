package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	agentdomain "github.com/howweplan/matchd/internal/agent/domain"
	"gorm.io/gorm"
)

type repo struct{}

// Provide returns the gorm-backed agent repository.
func Provide() agentdomain.Repository {
	return repo{}
}

func (repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*agentdomain.Agent, error) {
	var agent agentdomain.Agent
	err := db.WithContext(ctx).Where("id = ?", id).First(&agent).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &agent, nil
}

func (repo) FindByUserID(ctx context.Context, db *gorm.DB, userID snowflake.ID) (*agentdomain.Agent, error) {
	var agent agentdomain.Agent
	err := db.WithContext(ctx).Where("user_id = ?", userID).First(&agent).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &agent, nil
}

func (repo) ListEligible(ctx context.Context, db *gorm.DB, limit int) ([]agentdomain.Agent, error) {
	if limit <= 0 {
		limit = 50
	}
	var agents []agentdomain.Agent
	err := db.WithContext(ctx).
		Where("is_active = ? AND availability = ?", true, agentdomain.AvailabilityAvailable).
		Order("rating DESC, id ASC").
		Limit(limit).
		Find(&agents).Error
	if err != nil {
		return nil, err
	}
	return agents, nil
}
