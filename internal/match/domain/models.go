// Package domain defines the match record and its canonical status set.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Status is the canonical match status shared by this service and its
// downstream collaborators. Matching only transitions pending -> accepted
// or pending -> declined; the later stages are written by the itinerary and
// booking services but live here so every service checks one enum.
type Status string

const (
	StatusPending            Status = "pending"
	StatusAccepted           Status = "accepted"
	StatusDeclined           Status = "declined"
	StatusItinerarySubmitted Status = "itinerary_submitted"
	StatusBooked             Status = "booked"
	StatusCompleted          Status = "completed"
	StatusCancelled          Status = "cancelled"
)

// ActiveStatuses is the status set treated as an active relationship by the
// verification gateway: the agent is still engaged with the request.
var ActiveStatuses = []Status{
	StatusPending,
	StatusAccepted,
	StatusItinerarySubmitted,
	StatusBooked,
}

// MaxDeclineReasonLen bounds the stored decline reason.
const MaxDeclineReasonLen = 500

// Match pairs a trip request with an agent. Rows are never deleted; a
// terminal status is the audit record.
type Match struct {
	ID            snowflake.ID `gorm:"primaryKey"`
	RequestID     snowflake.ID `gorm:"not null;uniqueIndex:uq_matches_request_agent"`
	AgentID       snowflake.ID `gorm:"not null;uniqueIndex:uq_matches_request_agent"`
	Status        Status       `gorm:"type:text;not null;default:'pending'"`
	Score         *float64
	DeclineReason *string   `gorm:"type:text"`
	CreatedAt     time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	RespondedAt   *time.Time
	ExpiresAt     *time.Time
}

// TableName sets the database table name.
func (Match) TableName() string { return "matches" }

// Pending reports whether the match still awaits an agent response.
func (m Match) Pending() bool { return m.Status == StatusPending }
