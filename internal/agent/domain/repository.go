package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Repository reads agent snapshots.
type Repository interface {
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Agent, error)
	FindByUserID(ctx context.Context, db *gorm.DB, userID snowflake.ID) (*Agent, error)
	ListEligible(ctx context.Context, db *gorm.DB, limit int) ([]Agent, error)
}
