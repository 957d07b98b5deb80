package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/howweplan/matchd/internal/clock"
	"github.com/howweplan/matchd/internal/events"
	matchdomain "github.com/howweplan/matchd/internal/match/domain"
	matchrepo "github.com/howweplan/matchd/internal/match/repository"
	requestdomain "github.com/howweplan/matchd/internal/request/domain"
	requestrepo "github.com/howweplan/matchd/internal/request/repository"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type fakeConversation struct {
	calls chan [3]snowflake.ID
	err   error
}

func newFakeConversation() *fakeConversation {
	return &fakeConversation{calls: make(chan [3]snowflake.ID, 1)}
}

func (f *fakeConversation) CreateConversation(_ context.Context, requesterID, agentID, requestID snowflake.ID) error {
	f.calls <- [3]snowflake.ID{requesterID, agentID, requestID}
	return f.err
}

func setupServiceTestDB(t *testing.T) *gorm.DB {
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
	if err := db.AutoMigrate(&requestdomain.TripRequest{}, &matchdomain.Match{}); err != nil {
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

func newTestService(t *testing.T, db *gorm.DB, conv *fakeConversation, now time.Time) *Service {
	t.Helper()
	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}
	svc := NewService(ServiceParam{
		DB:           db,
		Log:          zap.NewNop(),
		Clock:        clock.Fixed(now),
		MatchRepo:    matchrepo.Provide(),
		RequestRepo:  requestrepo.Provide(),
		Conversation: conv,
		Outbox:       events.NewOutbox(db, node),
	})
	return svc.(*Service)
}

func seedMatch(t *testing.T, db *gorm.DB, requestID, agentID int64) matchdomain.Match {
	t.Helper()
	request := requestdomain.TripRequest{
		ID:          snowflake.ID(requestID),
		RequesterID: snowflake.ID(requestID + 9000),
		Status:      requestdomain.StatusMatching,
		CreatedAt:   time.Now().UTC(),
	}
	if err := db.Create(&request).Error; err != nil {
		t.Fatalf("seed request: %v", err)
	}
	score := 80.0
	match := matchdomain.Match{
		ID:        snowflake.ID(requestID*10 + agentID),
		RequestID: snowflake.ID(requestID),
		AgentID:   snowflake.ID(agentID),
		Status:    matchdomain.StatusPending,
		Score:     &score,
		CreatedAt: time.Now().UTC(),
	}
	if err := db.Create(&match).Error; err != nil {
		t.Fatalf("seed match: %v", err)
	}
	return match
}

func TestAcceptTransitionsAndNotifies(t *testing.T) {
	db := setupServiceTestDB(t)
	conv := newFakeConversation()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestService(t, db, conv, now)

	match := seedMatch(t, db, 1, 2)

	accepted, err := svc.Accept(context.Background(), match.AgentID, match.ID)
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if accepted.Status != matchdomain.StatusAccepted {
		t.Fatalf("expected accepted, got %s", accepted.Status)
	}
	if accepted.RespondedAt == nil || !accepted.RespondedAt.Equal(now) {
		t.Fatalf("expected responded_at %v, got %v", now, accepted.RespondedAt)
	}

	select {
	case call := <-conv.calls:
		if call[1] != match.AgentID || call[2] != match.RequestID {
			t.Fatalf("unexpected conversation call: %v", call)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("expected conversation dispatch")
	}

	var eventCount int64
	if err := db.Table("match_events").Where("type = ?", events.EventMatchAccepted).Count(&eventCount).Error; err != nil {
		t.Fatalf("count events: %v", err)
	}
	if eventCount != 1 {
		t.Fatalf("expected one accepted event, got %d", eventCount)
	}
}

func TestAcceptAfterTerminalStateConflicts(t *testing.T) {
	db := setupServiceTestDB(t)
	svc := newTestService(t, db, newFakeConversation(), time.Now().UTC())

	match := seedMatch(t, db, 1, 2)
	if _, err := svc.Accept(context.Background(), match.AgentID, match.ID); err != nil {
		t.Fatalf("first accept: %v", err)
	}

	if _, err := svc.Accept(context.Background(), match.AgentID, match.ID); !errors.Is(err, matchdomain.ErrStateConflict) {
		t.Fatalf("expected state conflict, got %v", err)
	}
	if _, err := svc.Decline(context.Background(), match.AgentID, match.ID, "too late"); !errors.Is(err, matchdomain.ErrStateConflict) {
		t.Fatalf("expected state conflict on decline, got %v", err)
	}
}

func TestAcceptAuthorizesOwner(t *testing.T) {
	db := setupServiceTestDB(t)
	svc := newTestService(t, db, newFakeConversation(), time.Now().UTC())

	match := seedMatch(t, db, 1, 2)

	if _, err := svc.Accept(context.Background(), snowflake.ID(999), match.ID); !errors.Is(err, matchdomain.ErrNotMatchOwner) {
		t.Fatalf("expected owner error, got %v", err)
	}
	if _, err := svc.Accept(context.Background(), match.AgentID, snowflake.ID(424242)); !errors.Is(err, matchdomain.ErrMatchNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestDeclineTruncatesReason(t *testing.T) {
	db := setupServiceTestDB(t)
	svc := newTestService(t, db, newFakeConversation(), time.Now().UTC())

	match := seedMatch(t, db, 1, 2)
	longReason := strings.Repeat("x", matchdomain.MaxDeclineReasonLen+100)

	declined, err := svc.Decline(context.Background(), match.AgentID, match.ID, longReason)
	if err != nil {
		t.Fatalf("decline: %v", err)
	}
	if declined.Status != matchdomain.StatusDeclined {
		t.Fatalf("expected declined, got %s", declined.Status)
	}
	if declined.DeclineReason == nil || len(*declined.DeclineReason) != matchdomain.MaxDeclineReasonLen {
		t.Fatalf("expected reason truncated to %d chars", matchdomain.MaxDeclineReasonLen)
	}
}

func TestAcceptSurvivesConversationFailure(t *testing.T) {
	db := setupServiceTestDB(t)
	conv := newFakeConversation()
	conv.err = errors.New("conversation_down")
	svc := newTestService(t, db, conv, time.Now().UTC())

	match := seedMatch(t, db, 1, 2)

	accepted, err := svc.Accept(context.Background(), match.AgentID, match.ID)
	if err != nil {
		t.Fatalf("accept must not fail when conversation fails: %v", err)
	}
	if accepted.Status != matchdomain.StatusAccepted {
		t.Fatalf("expected accepted, got %s", accepted.Status)
	}

	<-conv.calls

	stored := matchdomain.Match{}
	if err := db.First(&stored, "id = ?", match.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if stored.Status != matchdomain.StatusAccepted {
		t.Fatalf("acceptance must not roll back, got %s", stored.Status)
	}
}
