// Package domain holds the read-only trip request snapshot consumed by
// matching. The trip service owns these rows.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// TripType categorizes a trip request.
type TripType string

const (
	TripTypeHoneymoon  TripType = "HONEYMOON"
	TripTypeAdventure  TripType = "ADVENTURE"
	TripTypeFamily     TripType = "FAMILY"
	TripTypePilgrimage TripType = "PILGRIMAGE"
	TripTypeBusiness   TripType = "BUSINESS"
	TripTypeLeisure    TripType = "LEISURE"
)

// Status is the trip request lifecycle state.
type Status string

const (
	StatusOpen     Status = "open"
	StatusMatching Status = "matching"
	StatusClosed   Status = "closed"
)

// TripRequest is the snapshot of a traveler's request.
type TripRequest struct {
	ID            snowflake.ID                `gorm:"primaryKey"`
	RequesterID   snowflake.ID                `gorm:"not null;index"`
	Destinations  datatypes.JSONSlice[string] `gorm:"type:jsonb"`
	TripType      TripType                    `gorm:"type:text;not null;default:'LEISURE'"`
	TravelerCount int                         `gorm:"not null;default:1"`
	TravelStyle   string                      `gorm:"type:text"`
	Status        Status                      `gorm:"type:text;not null;default:'open';index"`
	ExpiresAt     *time.Time
	CreatedAt     time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt     time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (TripRequest) TableName() string { return "trip_requests" }

// Matchable reports whether the request may still receive matches.
func (r TripRequest) Matchable(now time.Time) bool {
	if r.Status != StatusOpen && r.Status != StatusMatching {
		return false
	}
	if r.ExpiresAt != nil && !r.ExpiresAt.After(now) {
		return false
	}
	return true
}
