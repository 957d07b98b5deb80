// Package verification answers one question for other services: does this
// agent have an active match on this trip request? Payment and
// communication gate sensitive agent actions on the answer.
package verification

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	matchdomain "github.com/howweplan/matchd/internal/match/domain"
	"github.com/howweplan/matchd/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Failure reasons carried inside a negative Result. These are domain
// outcomes, not transport errors: callers get a uniform envelope either way.
const (
	ReasonAgentNotFound = "agent_not_found"
	ReasonNoActiveMatch = "no_active_match"
)

// ErrMissingSubject is returned when neither an agent id nor a requester id
// is supplied.
var ErrMissingSubject = errors.New("missing_verification_subject")

// Query identifies the relationship to verify. Exactly one of AgentID or
// RequesterUserID must be set; the latter is resolved through the agent
// directory.
type Query struct {
	AgentID         snowflake.ID
	RequesterUserID snowflake.ID
	RequestID       snowflake.ID
}

// Result is the structured verification outcome.
type Result struct {
	OK     bool
	Reason string

	MatchID   snowflake.ID
	AgentID   snowflake.ID
	RequestID snowflake.ID
	Status    matchdomain.Status
}

// Service is the verification gateway.
type Service interface {
	Verify(ctx context.Context, query Query) (Result, error)
}

type service struct {
	db        *gorm.DB
	log       *zap.Logger
	directory Directory
	matchRepo matchdomain.Repository
}

type ServiceParam struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	Directory Directory
	MatchRepo matchdomain.Repository
}

func NewService(p ServiceParam) Service {
	return &service{
		db:        p.DB,
		log:       p.Log.Named("verification.service"),
		directory: p.Directory,
		matchRepo: p.MatchRepo,
	}
}

func (s *service) Verify(ctx context.Context, query Query) (Result, error) {
	agentID := query.AgentID
	if agentID == 0 {
		if query.RequesterUserID == 0 {
			return Result{}, ErrMissingSubject
		}
		resolved, err := s.directory.ResolveAgent(ctx, query.RequesterUserID)
		if err != nil {
			return Result{}, err
		}
		if resolved == 0 {
			metrics.VerificationChecks.WithLabelValues(ReasonAgentNotFound).Inc()
			return Result{Reason: ReasonAgentNotFound}, nil
		}
		agentID = resolved
	}

	match, err := s.matchRepo.FindActive(ctx, s.db, agentID, query.RequestID, matchdomain.ActiveStatuses)
	if err != nil {
		return Result{}, err
	}
	if match == nil {
		metrics.VerificationChecks.WithLabelValues(ReasonNoActiveMatch).Inc()
		return Result{Reason: ReasonNoActiveMatch}, nil
	}

	metrics.VerificationChecks.WithLabelValues("ok").Inc()
	return Result{
		OK:        true,
		MatchID:   match.ID,
		AgentID:   match.AgentID,
		RequestID: match.RequestID,
		Status:    match.Status,
	}, nil
}
