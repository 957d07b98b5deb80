package trigger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	agentdomain "github.com/howweplan/matchd/internal/agent/domain"
	agentrepo "github.com/howweplan/matchd/internal/agent/repository"
	"github.com/howweplan/matchd/internal/clock"
	"github.com/howweplan/matchd/internal/config"
	"github.com/howweplan/matchd/internal/events"
	matchdomain "github.com/howweplan/matchd/internal/match/domain"
	matchrepo "github.com/howweplan/matchd/internal/match/repository"
	requestdomain "github.com/howweplan/matchd/internal/request/domain"
	requestrepo "github.com/howweplan/matchd/internal/request/repository"
	"github.com/howweplan/matchd/internal/scoring"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTriggerDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(
		&agentdomain.Agent{},
		&requestdomain.TripRequest{},
		&matchdomain.Match{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	stmts := []string{
		`CREATE TABLE match_events (
			id INTEGER PRIMARY KEY,
			type TEXT NOT NULL,
			payload TEXT NOT NULL DEFAULT '{}',
			dedupe_key TEXT,
			created_at DATETIME NOT NULL
		)`,
		`CREATE UNIQUE INDEX idx_match_events_dedupe
			ON match_events (dedupe_key) WHERE dedupe_key IS NOT NULL`,
	}
	for _, stmt := range stmts {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("create match_events: %v", err)
		}
	}
	return db
}

func newTriggerService(t *testing.T, db *gorm.DB, now time.Time) Service {
	t.Helper()
	node, err := snowflake.NewNode(2)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}
	engine, err := scoring.NewEngine(scoring.DefaultConfig())
	if err != nil {
		t.Fatalf("scoring engine: %v", err)
	}
	return NewService(ServiceParam{
		DB:          db,
		Log:         zap.NewNop(),
		GenID:       node,
		Clock:       clock.Fixed(now),
		Config:      *config.New(),
		Engine:      engine,
		AgentRepo:   agentrepo.Provide(),
		RequestRepo: requestrepo.Provide(),
		MatchRepo:   matchrepo.Provide(),
		Outbox:      events.NewOutbox(db, node),
	})
}

func seedAgent(t *testing.T, db *gorm.DB, id int64, mutate func(*agentdomain.Agent)) agentdomain.Agent {
	t.Helper()
	agent := agentdomain.Agent{
		ID:               snowflake.ID(id),
		UserID:           snowflake.ID(id + 8000),
		Tier:             agentdomain.TierBench,
		Rating:           4.0,
		CompletedTrips:   10,
		AvgResponseHours: 4,
		IsActive:         true,
		Availability:     agentdomain.AvailabilityAvailable,
		CurrentTrips:     1,
		MaxTrips:         5,
	}
	if mutate != nil {
		mutate(&agent)
	}
	if err := db.Create(&agent).Error; err != nil {
		t.Fatalf("seed agent: %v", err)
	}
	return agent
}

func seedRequest(t *testing.T, db *gorm.DB, id int64, status requestdomain.Status, createdAt time.Time) requestdomain.TripRequest {
	t.Helper()
	request := requestdomain.TripRequest{
		ID:          snowflake.ID(id),
		RequesterID: snowflake.ID(id + 9000),
		TripType:    requestdomain.TripTypeLeisure,
		Status:      status,
		CreatedAt:   createdAt,
	}
	if err := db.Create(&request).Error; err != nil {
		t.Fatalf("seed request: %v", err)
	}
	return request
}

func TestMatchRequestCreatesScoredMatches(t *testing.T) {
	db := setupTriggerDB(t)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc := newTriggerService(t, db, now)
	ctx := context.Background()

	request := seedRequest(t, db, 100, requestdomain.StatusOpen, now)
	seedAgent(t, db, 1, nil)
	seedAgent(t, db, 2, func(a *agentdomain.Agent) {
		a.Tier = agentdomain.TierStar
		a.Rating = 4.9
		a.CompletedTrips = 40
		a.AvgResponseHours = 1
	})
	seedAgent(t, db, 3, func(a *agentdomain.Agent) {
		a.Availability = agentdomain.AvailabilityPaused
	})

	created, err := svc.MatchRequest(ctx, request.ID)
	if err != nil {
		t.Fatalf("MatchRequest: %v", err)
	}
	if created != 2 {
		t.Fatalf("created = %d, want 2", created)
	}

	var matches []matchdomain.Match
	if err := db.Where("request_id = ?", request.ID).Find(&matches).Error; err != nil {
		t.Fatalf("load matches: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("match rows = %d, want 2", len(matches))
	}
	for _, m := range matches {
		if m.AgentID == snowflake.ID(3) {
			t.Fatalf("paused agent received a match")
		}
		if m.Status != matchdomain.StatusPending {
			t.Fatalf("status = %q, want pending", m.Status)
		}
		if m.Score == nil || *m.Score <= 0 {
			t.Fatalf("match missing score: %+v", m)
		}
	}

	var eventCount int64
	if err := db.Table("match_events").Where("type = ?", events.EventMatchCreated).Count(&eventCount).Error; err != nil {
		t.Fatalf("count events: %v", err)
	}
	if eventCount != 2 {
		t.Fatalf("match.created events = %d, want 2", eventCount)
	}
}

func TestMatchRequestIsIdempotent(t *testing.T) {
	db := setupTriggerDB(t)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc := newTriggerService(t, db, now)
	ctx := context.Background()

	request := seedRequest(t, db, 200, requestdomain.StatusMatching, now)
	seedAgent(t, db, 1, nil)
	seedAgent(t, db, 2, nil)

	first, err := svc.MatchRequest(ctx, request.ID)
	if err != nil {
		t.Fatalf("first trigger: %v", err)
	}
	if first != 2 {
		t.Fatalf("first created = %d, want 2", first)
	}

	second, err := svc.MatchRequest(ctx, request.ID)
	if err != nil {
		t.Fatalf("second trigger: %v", err)
	}
	if second != 0 {
		t.Fatalf("second created = %d, want 0", second)
	}

	var count int64
	if err := db.Model(&matchdomain.Match{}).Where("request_id = ?", request.ID).Count(&count).Error; err != nil {
		t.Fatalf("count matches: %v", err)
	}
	if count != 2 {
		t.Fatalf("match rows = %d, want 2", count)
	}
}

func TestMatchRequestRejectsUnmatchable(t *testing.T) {
	db := setupTriggerDB(t)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc := newTriggerService(t, db, now)
	ctx := context.Background()

	closed := seedRequest(t, db, 300, requestdomain.StatusClosed, now)
	if _, err := svc.MatchRequest(ctx, closed.ID); !errors.Is(err, ErrRequestNotMatchable) {
		t.Fatalf("closed request err = %v, want %v", err, ErrRequestNotMatchable)
	}

	if _, err := svc.MatchRequest(ctx, snowflake.ID(999999)); !errors.Is(err, ErrRequestNotFound) {
		t.Fatalf("unknown request err = %v, want %v", err, ErrRequestNotFound)
	}
}

func TestMatchRequestRejectsExpired(t *testing.T) {
	db := setupTriggerDB(t)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc := newTriggerService(t, db, now)

	expiry := now.Add(-time.Hour)
	request := requestdomain.TripRequest{
		ID:          snowflake.ID(310),
		RequesterID: snowflake.ID(9310),
		Status:      requestdomain.StatusOpen,
		ExpiresAt:   &expiry,
		CreatedAt:   now.Add(-48 * time.Hour),
	}
	if err := db.Create(&request).Error; err != nil {
		t.Fatalf("seed request: %v", err)
	}

	if _, err := svc.MatchRequest(context.Background(), request.ID); !errors.Is(err, ErrRequestNotMatchable) {
		t.Fatalf("expired request err = %v, want %v", err, ErrRequestNotMatchable)
	}
}

func TestOnboardAgentMatchesOpenRequests(t *testing.T) {
	db := setupTriggerDB(t)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc := newTriggerService(t, db, now)
	ctx := context.Background()

	agent := seedAgent(t, db, 1, nil)
	seedRequest(t, db, 400, requestdomain.StatusOpen, now)
	seedRequest(t, db, 401, requestdomain.StatusMatching, now)
	seedRequest(t, db, 402, requestdomain.StatusClosed, now)

	created, err := svc.OnboardAgent(ctx, agent.ID)
	if err != nil {
		t.Fatalf("OnboardAgent: %v", err)
	}
	if created != 2 {
		t.Fatalf("created = %d, want 2", created)
	}

	var count int64
	if err := db.Model(&matchdomain.Match{}).Where("agent_id = ?", agent.ID).Count(&count).Error; err != nil {
		t.Fatalf("count matches: %v", err)
	}
	if count != 2 {
		t.Fatalf("match rows = %d, want 2", count)
	}
}

func TestOnboardAgentNoOpenRequests(t *testing.T) {
	db := setupTriggerDB(t)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc := newTriggerService(t, db, now)

	agent := seedAgent(t, db, 1, nil)
	created, err := svc.OnboardAgent(context.Background(), agent.ID)
	if err != nil {
		t.Fatalf("OnboardAgent: %v", err)
	}
	if created != 0 {
		t.Fatalf("created = %d, want 0", created)
	}
}

func TestOnboardAgentSkipsIneligible(t *testing.T) {
	db := setupTriggerDB(t)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc := newTriggerService(t, db, now)
	ctx := context.Background()

	saturated := seedAgent(t, db, 1, func(a *agentdomain.Agent) {
		a.CurrentTrips = 5
		a.MaxTrips = 5
	})
	seedRequest(t, db, 500, requestdomain.StatusOpen, now)

	created, err := svc.OnboardAgent(ctx, saturated.ID)
	if err != nil {
		t.Fatalf("OnboardAgent: %v", err)
	}
	if created != 0 {
		t.Fatalf("created = %d, want 0", created)
	}

	if _, err := svc.OnboardAgent(ctx, snowflake.ID(424242)); !errors.Is(err, ErrAgentNotFound) {
		t.Fatalf("unknown agent err = %v, want %v", err, ErrAgentNotFound)
	}
}

func TestRefreshIsIdempotent(t *testing.T) {
	db := setupTriggerDB(t)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc := newTriggerService(t, db, now)
	ctx := context.Background()

	agent := seedAgent(t, db, 1, nil)
	seedRequest(t, db, 600, requestdomain.StatusOpen, now)

	first, err := svc.Refresh(ctx, agent.ID)
	if err != nil {
		t.Fatalf("first refresh: %v", err)
	}
	if first != 1 {
		t.Fatalf("first created = %d, want 1", first)
	}

	second, err := svc.Refresh(ctx, agent.ID)
	if err != nil {
		t.Fatalf("second refresh: %v", err)
	}
	if second != 0 {
		t.Fatalf("second created = %d, want 0", second)
	}
}
