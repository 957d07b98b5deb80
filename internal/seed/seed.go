// Package seed populates development fixtures so the agent-facing and
// oversight endpoints have data to serve on a fresh database. Never runs
// in production.
package seed

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	agentdomain "github.com/howweplan/matchd/internal/agent/domain"
	requestdomain "github.com/howweplan/matchd/internal/request/domain"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// EnsureDevData inserts a small agent pool and one open trip request.
// Idempotent: existing rows are left untouched.
func EnsureDevData(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureAgents(ctx, tx); err != nil {
			return err
		}
		return ensureRequest(ctx, tx)
	})
}

func ensureAgents(ctx context.Context, tx *gorm.DB) error {
	now := time.Now().UTC()
	agents := []agentdomain.Agent{
		{
			ID:               snowflake.ID(1001),
			UserID:           snowflake.ID(2001),
			Tier:             agentdomain.TierStar,
			Rating:           4.8,
			CompletedTrips:   36,
			AvgResponseHours: 1,
			Specializations:  datatypes.NewJSONSlice([]string{"ADVENTURE", "TREKKING"}),
			Regions:          datatypes.NewJSONSlice([]string{"Nepal", "Bhutan"}),
			IsActive:         true,
			Availability:     agentdomain.AvailabilityAvailable,
			CurrentTrips:     1,
			MaxTrips:         6,
			CreatedAt:        now,
			UpdatedAt:        now,
		},
		{
			ID:               snowflake.ID(1002),
			UserID:           snowflake.ID(2002),
			Tier:             agentdomain.TierBench,
			Rating:           4.1,
			CompletedTrips:   8,
			AvgResponseHours: 6,
			Specializations:  datatypes.NewJSONSlice([]string{"FAMILY"}),
			Regions:          datatypes.NewJSONSlice([]string{"Thailand"}),
			IsActive:         true,
			Availability:     agentdomain.AvailabilityAvailable,
			CurrentTrips:     0,
			MaxTrips:         4,
			CreatedAt:        now,
			UpdatedAt:        now,
		},
	}

	for _, agent := range agents {
		if err := tx.WithContext(ctx).Exec(
			`INSERT INTO agents (id, user_id, tier, rating, completed_trips,
			                     avg_response_hours, specializations, regions,
			                     is_active, availability, current_trips, max_trips,
			                     created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT (id) DO NOTHING`,
			agent.ID, agent.UserID, agent.Tier, agent.Rating, agent.CompletedTrips,
			agent.AvgResponseHours, agent.Specializations, agent.Regions,
			agent.IsActive, agent.Availability, agent.CurrentTrips, agent.MaxTrips,
			agent.CreatedAt, agent.UpdatedAt,
		).Error; err != nil {
			return err
		}
	}
	return nil
}

func ensureRequest(ctx context.Context, tx *gorm.DB) error {
	now := time.Now().UTC()
	request := requestdomain.TripRequest{
		ID:           snowflake.ID(3001),
		RequesterID:  snowflake.ID(4001),
		TripType:     requestdomain.TripTypeAdventure,
		Destinations: datatypes.NewJSONSlice([]string{"Kathmandu", "Pokhara"}),
		Status:       requestdomain.StatusOpen,
		CreatedAt:    now,
	}

	return tx.WithContext(ctx).Exec(
		`INSERT INTO trip_requests (id, requester_id, trip_type, destinations,
		                            status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO NOTHING`,
		request.ID, request.RequesterID, request.TripType, request.Destinations,
		request.Status, request.CreatedAt,
	).Error
}
