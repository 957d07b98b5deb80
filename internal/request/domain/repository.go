package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Repository reads trip request snapshots.
type Repository interface {
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*TripRequest, error)
	ListMatchable(ctx context.Context, db *gorm.DB, now time.Time, limit int) ([]TripRequest, error)
}
