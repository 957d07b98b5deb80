package trigger

import (
	"context"
	"fmt"

	"github.com/bwmarrin/snowflake"
	agentdomain "github.com/howweplan/matchd/internal/agent/domain"
	"github.com/howweplan/matchd/internal/clock"
	"github.com/howweplan/matchd/internal/config"
	"github.com/howweplan/matchd/internal/events"
	matchdomain "github.com/howweplan/matchd/internal/match/domain"
	"github.com/howweplan/matchd/internal/observability/metrics"
	requestdomain "github.com/howweplan/matchd/internal/request/domain"
	"github.com/howweplan/matchd/internal/scoring"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type service struct {
	db  *gorm.DB
	log *zap.Logger

	genID       *snowflake.Node
	clock       clock.Clock
	engine      *scoring.Engine
	agentRepo   agentdomain.Repository
	requestRepo requestdomain.Repository
	matchRepo   matchdomain.Repository
	outbox      *events.Outbox

	maxAgentPool    int
	maxOpenRequests int
}

type ServiceParam struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Clock       clock.Clock
	Config      config.Config
	Engine      *scoring.Engine
	AgentRepo   agentdomain.Repository
	RequestRepo requestdomain.Repository
	MatchRepo   matchdomain.Repository
	Outbox      *events.Outbox
}

func NewService(p ServiceParam) Service {
	return &service{
		db:  p.DB,
		log: p.Log.Named("trigger.service"),

		genID:       p.GenID,
		clock:       p.Clock,
		engine:      p.Engine,
		agentRepo:   p.AgentRepo,
		requestRepo: p.RequestRepo,
		matchRepo:   p.MatchRepo,
		outbox:      p.Outbox,

		maxAgentPool:    p.Config.Matching.MaxAgentPool,
		maxOpenRequests: p.Config.Matching.MaxOpenRequests,
	}
}

func (s *service) MatchRequest(ctx context.Context, requestID snowflake.ID) (int, error) {
	request, err := s.requestRepo.FindByID(ctx, s.db, requestID)
	if err != nil {
		return 0, err
	}
	if request == nil {
		return 0, ErrRequestNotFound
	}
	now := s.clock.Now()
	if !request.Matchable(now) {
		return 0, ErrRequestNotMatchable
	}

	agents, err := s.agentRepo.ListEligible(ctx, s.db, s.maxAgentPool)
	if err != nil {
		return 0, err
	}

	ranked := s.engine.ScoreMany(agents, *request)
	candidates := make([]matchdomain.Match, 0, len(ranked))
	for _, scored := range ranked {
		score := scored.Total
		candidates = append(candidates, matchdomain.Match{
			ID:        s.genID.Generate(),
			RequestID: request.ID,
			AgentID:   scored.AgentID,
			Status:    matchdomain.StatusPending,
			Score:     &score,
			CreatedAt: now,
			ExpiresAt: request.ExpiresAt,
		})
	}

	created, err := s.matchRepo.CreateBatch(ctx, s.db, candidates)
	if err != nil {
		return len(created), err
	}
	s.publishCreated(ctx, created)

	s.log.Info("request matching complete",
		zap.String("request_id", request.ID.String()),
		zap.Int("candidates", len(candidates)),
		zap.Int("created", len(created)),
	)
	metrics.MatchesCreated.Add(float64(len(created)))
	return len(created), nil
}

func (s *service) OnboardAgent(ctx context.Context, agentID snowflake.ID) (int, error) {
	agent, err := s.agentRepo.FindByID(ctx, s.db, agentID)
	if err != nil {
		return 0, err
	}
	if agent == nil {
		return 0, ErrAgentNotFound
	}

	now := s.clock.Now()
	requests, err := s.requestRepo.ListMatchable(ctx, s.db, now, s.maxOpenRequests)
	if err != nil {
		return 0, err
	}
	if len(requests) == 0 {
		return 0, nil
	}

	candidates := make([]matchdomain.Match, 0, len(requests))
	for _, request := range requests {
		scored := s.engine.Score(*agent, request)
		if scored.Excluded() {
			continue
		}
		score := scored.Total
		candidates = append(candidates, matchdomain.Match{
			ID:        s.genID.Generate(),
			RequestID: request.ID,
			AgentID:   agent.ID,
			Status:    matchdomain.StatusPending,
			Score:     &score,
			CreatedAt: now,
			ExpiresAt: request.ExpiresAt,
		})
	}

	created, err := s.matchRepo.CreateBatch(ctx, s.db, candidates)
	if err != nil {
		return len(created), err
	}
	s.publishCreated(ctx, created)

	s.log.Info("agent onboarding complete",
		zap.String("agent_id", agent.ID.String()),
		zap.Int("open_requests", len(requests)),
		zap.Int("created", len(created)),
	)
	metrics.MatchesCreated.Add(float64(len(created)))
	return len(created), nil
}

func (s *service) Refresh(ctx context.Context, agentID snowflake.ID) (int, error) {
	return s.OnboardAgent(ctx, agentID)
}

func (s *service) publishCreated(ctx context.Context, created []matchdomain.Match) {
	if s.outbox == nil {
		return
	}
	for _, match := range created {
		payload := events.MatchPayload{
			MatchID:   match.ID.String(),
			RequestID: match.RequestID.String(),
			AgentID:   match.AgentID.String(),
			Status:    string(match.Status),
		}
		err := s.outbox.Publish(ctx, events.Event{
			Type:      events.EventMatchCreated,
			Payload:   payload.ToMap(),
			DedupeKey: fmt.Sprintf("%s:%s:%s", events.EventMatchCreated, match.RequestID.String(), match.AgentID.String()),
		})
		if err != nil {
			s.log.Warn("publish match created failed",
				zap.String("match_id", match.ID.String()),
				zap.Error(err),
			)
		}
	}
}
