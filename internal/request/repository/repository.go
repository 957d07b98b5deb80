package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	requestdomain "github.com/howweplan/matchd/internal/request/domain"
	"gorm.io/gorm"
)

type repo struct{}

// Provide returns the gorm-backed trip request repository.
func Provide() requestdomain.Repository {
	return repo{}
}

func (repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*requestdomain.TripRequest, error) {
	var request requestdomain.TripRequest
	err := db.WithContext(ctx).Where("id = ?", id).First(&request).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &request, nil
}

func (repo) ListMatchable(ctx context.Context, db *gorm.DB, now time.Time, limit int) ([]requestdomain.TripRequest, error) {
	if limit <= 0 {
		limit = 100
	}
	var requests []requestdomain.TripRequest
	err := db.WithContext(ctx).
		Where("status IN ?", []requestdomain.Status{requestdomain.StatusOpen, requestdomain.StatusMatching}).
		Where("expires_at IS NULL OR expires_at > ?", now).
		Order("created_at ASC").
		Limit(limit).
		Find(&requests).Error
	if err != nil {
		return nil, err
	}
	return requests, nil
}
