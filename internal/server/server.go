// Package server exposes the HTTP surface: internal trigger and
// verification endpoints for sibling services, agent-facing match
// lifecycle endpoints, and the admin oversight read surface.
package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/howweplan/matchd/internal/config"
	"github.com/howweplan/matchd/internal/logger"
	matchdomain "github.com/howweplan/matchd/internal/match/domain"
	"github.com/howweplan/matchd/internal/observability/metrics"
	"github.com/howweplan/matchd/internal/oversight"
	"github.com/howweplan/matchd/internal/trigger"
	"github.com/howweplan/matchd/internal/verification"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Server carries the handler dependencies. One instance serves all routes.
type Server struct {
	cfg config.Config
	log *zap.Logger
	db  *gorm.DB

	matchSvc        matchdomain.Service
	triggerSvc      trigger.Service
	verificationSvc verification.Service
	oversightSvc    oversight.Service

	refreshLimiter *rateLimiter
}

type Param struct {
	fx.In

	Config          config.Config
	Log             *zap.Logger
	DB              *gorm.DB
	MatchSvc        matchdomain.Service
	TriggerSvc      trigger.Service
	VerificationSvc verification.Service
	OversightSvc    oversight.Service
}

func NewServer(p Param) *Server {
	return &Server{
		cfg: p.Config,
		log: p.Log.Named("server"),
		db:  p.DB,

		matchSvc:        p.MatchSvc,
		triggerSvc:      p.TriggerSvc,
		verificationSvc: p.VerificationSvc,
		oversightSvc:    p.OversightSvc,

		refreshLimiter: newRateLimiter(
			p.Config.Matching.RefreshRateLimit,
			p.Config.Matching.RefreshRateWindow,
		),
	}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	if s.cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.GinMiddleware())
	r.Use(metrics.GinMiddleware())

	r.GET("/healthz", s.Healthz)
	r.GET("/metrics", metrics.Handler())

	internal := r.Group("/internal/v1", s.InternalAuthRequired())
	{
		internal.POST("/matching/trigger", s.TriggerMatching)
		internal.POST("/matching/onboard", s.OnboardAgent)
		internal.GET("/verification/match", s.VerifyMatch)
	}

	agent := r.Group("/v1/matches", s.PrincipalRequired(), s.AgentRequired())
	{
		agent.GET("", s.ListMatches)
		agent.POST("/refresh", s.RefreshMatches)
		agent.POST("/:id/accept", s.AcceptMatch)
		agent.POST("/:id/decline", s.DeclineMatch)
	}

	admin := r.Group("/v1/oversight", s.PrincipalRequired(), s.AdminRequired())
	{
		admin.GET("/backlog", s.Backlog)
		admin.GET("/requests/:id/agents", s.EligibleAgents)
		admin.GET("/audit", s.AuditTrail)
		admin.POST("/overrides", s.Override)
	}

	return r
}

// Run registers the HTTP listener with the fx lifecycle.
func Run(lc fx.Lifecycle, s *Server) {
	srv := &http.Server{
		Addr:    s.cfg.Server.Addr,
		Handler: s.Router(),
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				s.log.Info("http server listening", zap.String("addr", srv.Addr))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					s.log.Error("http server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, s.cfg.Server.ShutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}
