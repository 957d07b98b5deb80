// Package domain holds the read-only agent snapshot consumed by matching.
// The profile service owns these rows; this service never writes them.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Tier is the two-level trust classification for agents.
type Tier string

const (
	TierStar  Tier = "STAR"
	TierBench Tier = "BENCH"
)

// Availability describes whether an agent can take on new trips.
type Availability string

const (
	AvailabilityAvailable Availability = "AVAILABLE"
	AvailabilityBusy      Availability = "BUSY"
	AvailabilityPaused    Availability = "PAUSED"
)

// Agent is the snapshot of a travel agent's matching-relevant profile.
type Agent struct {
	ID               snowflake.ID                `gorm:"primaryKey"`
	UserID           snowflake.ID                `gorm:"not null;uniqueIndex"`
	Tier             Tier                        `gorm:"type:text;not null;default:'BENCH'"`
	Rating           float64                     `gorm:"not null;default:0"`
	CompletedTrips   int                         `gorm:"not null;default:0"`
	AvgResponseHours float64                     `gorm:"not null;default:24"`
	Specializations  datatypes.JSONSlice[string] `gorm:"type:jsonb"`
	Regions          datatypes.JSONSlice[string] `gorm:"type:jsonb"`
	IsActive         bool                        `gorm:"not null;default:true"`
	Availability     Availability                `gorm:"type:text;not null;default:'AVAILABLE'"`
	CurrentTrips     int                         `gorm:"not null;default:0"`
	MaxTrips         int                         `gorm:"not null;default:5"`
	CreatedAt        time.Time                   `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt        time.Time                   `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Agent) TableName() string { return "agents" }

// Eligible reports whether the agent may receive new matches at all.
func (a Agent) Eligible() bool {
	return a.IsActive && a.Availability == AvailabilityAvailable && a.CurrentTrips < a.MaxTrips
}
