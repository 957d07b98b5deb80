package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/howweplan/matchd/internal/clock"
	"github.com/howweplan/matchd/internal/conversation"
	"github.com/howweplan/matchd/internal/events"
	matchdomain "github.com/howweplan/matchd/internal/match/domain"
	"github.com/howweplan/matchd/internal/observability/metrics"
	requestdomain "github.com/howweplan/matchd/internal/request/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// conversationTimeout bounds the fire-and-forget call to the conversation
// service. The accept response has already been returned by then.
const conversationTimeout = 5 * time.Second

type Service struct {
	db  *gorm.DB
	log *zap.Logger

	clock        clock.Clock
	matchRepo    matchdomain.Repository
	requestRepo  requestdomain.Repository
	conversation conversation.Client
	outbox       *events.Outbox
}

type ServiceParam struct {
	fx.In

	DB           *gorm.DB
	Log          *zap.Logger
	Clock        clock.Clock
	MatchRepo    matchdomain.Repository
	RequestRepo  requestdomain.Repository
	Conversation conversation.Client
	Outbox       *events.Outbox
}

func NewService(p ServiceParam) matchdomain.Service {
	return &Service{
		db:  p.DB,
		log: p.Log.Named("match.service"),

		clock:        p.Clock,
		matchRepo:    p.MatchRepo,
		requestRepo:  p.RequestRepo,
		conversation: p.Conversation,
		outbox:       p.Outbox,
	}
}

func (s *Service) ListForAgent(ctx context.Context, agentID snowflake.ID, limit, offset int) ([]matchdomain.Match, error) {
	return s.matchRepo.ListByAgent(ctx, s.db, agentID, limit, offset)
}

func (s *Service) Accept(ctx context.Context, agentID, matchID snowflake.ID) (*matchdomain.Match, error) {
	match, err := s.transition(ctx, agentID, matchID, matchdomain.StatusAccepted, nil)
	if err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.EventMatchAccepted, match, "")
	s.dispatchConversation(match)
	return match, nil
}

func (s *Service) Decline(ctx context.Context, agentID, matchID snowflake.ID, reason string) (*matchdomain.Match, error) {
	reason = strings.TrimSpace(reason)
	if len(reason) > matchdomain.MaxDeclineReasonLen {
		reason = reason[:matchdomain.MaxDeclineReasonLen]
	}
	var reasonValue *string
	if reason != "" {
		reasonValue = &reason
	}

	match, err := s.transition(ctx, agentID, matchID, matchdomain.StatusDeclined, reasonValue)
	if err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.EventMatchDeclined, match, reason)
	return match, nil
}

// transition authorizes the caller and performs the conditional update out
// of pending. Exactly one of two concurrent accept/decline calls wins; the
// loser observes a state conflict.
func (s *Service) transition(ctx context.Context, agentID, matchID snowflake.ID, to matchdomain.Status, declineReason *string) (*matchdomain.Match, error) {
	match, err := s.matchRepo.FindByID(ctx, s.db, matchID)
	if err != nil {
		return nil, err
	}
	if match == nil {
		return nil, matchdomain.ErrMatchNotFound
	}
	if match.AgentID != agentID {
		return nil, matchdomain.ErrNotMatchOwner
	}
	if !match.Pending() {
		return nil, matchdomain.ErrStateConflict
	}

	now := s.clock.Now()
	won, err := s.matchRepo.UpdateStatusIfPending(ctx, s.db, matchID, to, now, declineReason)
	if err != nil {
		return nil, err
	}
	if !won {
		return nil, matchdomain.ErrStateConflict
	}

	match.Status = to
	match.RespondedAt = &now
	match.DeclineReason = declineReason
	metrics.MatchTransitions.WithLabelValues(string(to)).Inc()
	return match, nil
}

func (s *Service) publishEvent(ctx context.Context, eventType string, match *matchdomain.Match, reason string) {
	if s.outbox == nil {
		return
	}
	payload := events.MatchPayload{
		MatchID:   match.ID.String(),
		RequestID: match.RequestID.String(),
		AgentID:   match.AgentID.String(),
		Status:    string(match.Status),
		Reason:    reason,
	}
	err := s.outbox.Publish(ctx, events.Event{
		Type:      eventType,
		Payload:   payload.ToMap(),
		DedupeKey: fmt.Sprintf("%s:%s", eventType, match.ID.String()),
	})
	if err != nil {
		s.log.Warn("publish match event failed",
			zap.String("event", eventType),
			zap.String("match_id", match.ID.String()),
			zap.Error(err),
		)
	}
}

// dispatchConversation opens the traveler-agent channel after an accept.
// Best-effort: runs detached from the request, failures are logged and the
// acceptance is never rolled back.
func (s *Service) dispatchConversation(match *matchdomain.Match) {
	if s.conversation == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), conversationTimeout)
		defer cancel()

		request, err := s.requestRepo.FindByID(ctx, s.db, match.RequestID)
		if err != nil || request == nil {
			s.log.Warn("conversation dispatch: request lookup failed",
				zap.String("request_id", match.RequestID.String()),
				zap.Error(err),
			)
			return
		}

		if err := s.conversation.CreateConversation(ctx, request.RequesterID, match.AgentID, match.RequestID); err != nil {
			s.log.Warn("conversation creation failed",
				zap.String("match_id", match.ID.String()),
				zap.Error(err),
			)
		}
	}()
}
