package oversight

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	agentdomain "github.com/howweplan/matchd/internal/agent/domain"
	auditdomain "github.com/howweplan/matchd/internal/audit/domain"
	"github.com/howweplan/matchd/internal/clock"
	"github.com/howweplan/matchd/internal/config"
	matchdomain "github.com/howweplan/matchd/internal/match/domain"
	"github.com/howweplan/matchd/internal/principal"
	requestdomain "github.com/howweplan/matchd/internal/request/domain"
	"github.com/howweplan/matchd/internal/scoring"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Service is the read-only oversight surface plus the override entry point.
type Service interface {
	Backlog(ctx context.Context, threshold, limit int) ([]BacklogRequest, error)
	EligibleAgents(ctx context.Context, requestID snowflake.ID) ([]scoring.ScoredAgent, error)
	Override(ctx context.Context, actor principal.Principal, req OverrideRequest) error
	AuditTrail(ctx context.Context, filter auditdomain.ListFilter) ([]*auditdomain.AuditLog, error)
}

type service struct {
	db  *gorm.DB
	log *zap.Logger

	genID       *snowflake.Node
	clock       clock.Clock
	engine      *scoring.Engine
	agentRepo   agentdomain.Repository
	requestRepo requestdomain.Repository
	matchRepo   matchdomain.Repository
	auditRepo   auditdomain.Repository
	overrider   Overrider

	defaultThreshold int
	maxAgentPool     int
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
	AuditRepo   auditdomain.Repository
	Overrider   Overrider
}

func NewService(p ServiceParam) Service {
	return &service{
		db:  p.DB,
		log: p.Log.Named("oversight.service"),

		genID:       p.GenID,
		clock:       p.Clock,
		engine:      p.Engine,
		agentRepo:   p.AgentRepo,
		requestRepo: p.RequestRepo,
		matchRepo:   p.MatchRepo,
		auditRepo:   p.AuditRepo,
		overrider:   p.Overrider,

		defaultThreshold: p.Config.Matching.BacklogThreshold,
		maxAgentPool:     p.Config.Matching.MaxAgentPool,
	}
}

func (s *service) Backlog(ctx context.Context, threshold, limit int) ([]BacklogRequest, error) {
	if threshold <= 0 {
		threshold = s.defaultThreshold
	}
	entries, err := s.matchRepo.ListBacklog(ctx, s.db, threshold, limit)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	backlog := make([]BacklogRequest, 0, len(entries))
	for _, entry := range entries {
		backlog = append(backlog, BacklogRequest{
			RequestID:  entry.RequestID,
			MatchCount: entry.MatchCount,
			WaitingFor: now.Sub(entry.CreatedAt),
			CreatedAt:  entry.CreatedAt,
		})
	}
	return backlog, nil
}

func (s *service) EligibleAgents(ctx context.Context, requestID snowflake.ID) ([]scoring.ScoredAgent, error) {
	request, err := s.requestRepo.FindByID(ctx, s.db, requestID)
	if err != nil {
		return nil, err
	}
	if request == nil {
		return nil, matchdomain.ErrMatchNotFound
	}

	agents, err := s.agentRepo.ListEligible(ctx, s.db, s.maxAgentPool)
	if err != nil {
		return nil, err
	}
	return s.engine.ScoreMany(agents, *request), nil
}

// Override validates and audits the intervention, then delegates to the
// configured Overrider. With the default adapter every action is rejected
// after it has been logged.
func (s *service) Override(ctx context.Context, actor principal.Principal, req OverrideRequest) error {
	if !ValidAction(req.Action) {
		return ErrInvalidOverrideAction
	}
	req.Justification = strings.TrimSpace(req.Justification)
	if req.Justification == "" {
		return ErrJustificationRequired
	}

	s.recordAudit(ctx, actor, req)

	switch req.Action {
	case ActionForceAssign:
		return s.overrider.ForceAssign(ctx, req)
	case ActionForceUnassign:
		return s.overrider.ForceUnassign(ctx, req)
	case ActionPriorityBoost:
		return s.overrider.PriorityBoost(ctx, req)
	case ActionBlacklist:
		return s.overrider.Blacklist(ctx, req)
	}
	return ErrInvalidOverrideAction
}

// AuditTrail lists past oversight actions, newest first.
func (s *service) AuditTrail(ctx context.Context, filter auditdomain.ListFilter) ([]*auditdomain.AuditLog, error) {
	return s.auditRepo.List(ctx, s.db, filter)
}

func (s *service) recordAudit(ctx context.Context, actor principal.Principal, req OverrideRequest) {
	actorID := actor.UserID.String()
	targetID := req.MatchID.String()
	targetType := "match"
	if req.MatchID == 0 && req.AgentID != 0 {
		targetID = req.AgentID.String()
		targetType = "agent"
	}

	entry := &auditdomain.AuditLog{
		ID:         s.genID.Generate(),
		ActorType:  string(auditdomain.ActorTypeUser),
		ActorID:    &actorID,
		Action:     "oversight." + string(req.Action),
		TargetType: targetType,
		TargetID:   &targetID,
		Metadata: datatypes.JSONMap{
			"justification": req.Justification,
			"request_id":    req.RequestID.String(),
		},
		CreatedAt: s.clock.Now(),
	}
	if err := s.auditRepo.Insert(ctx, s.db, entry); err != nil {
		s.log.Warn("audit insert failed",
			zap.String("action", entry.Action),
			zap.Error(err),
		)
	}
}
