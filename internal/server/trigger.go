package server

import (
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// TriggerMatching is called by the trip-request service when a request
// opens. Re-delivery is safe: creation is idempotent per (request, agent).
func (s *Server) TriggerMatching(c *gin.Context) {
	var req struct {
		RequestID     string `json:"request_id"`
		CorrelationID string `json:"correlation_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	requestID, err := snowflake.ParseString(strings.TrimSpace(req.RequestID))
	if err != nil || requestID == 0 {
		AbortWithError(c, newValidationError("request_id", "invalid_request_id", "invalid request id"))
		return
	}

	created, err := s.triggerSvc.MatchRequest(c.Request.Context(), requestID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.log.Info("matching triggered",
		zap.String("request_id", requestID.String()),
		zap.String("correlation_id", strings.TrimSpace(req.CorrelationID)),
		zap.Int("created", created),
	)
	c.JSON(http.StatusOK, gin.H{"created": created})
}

// OnboardAgent is called by the profile service when an agent becomes
// eligible for matching.
func (s *Server) OnboardAgent(c *gin.Context) {
	var req struct {
		AgentID string `json:"agent_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	agentID, err := snowflake.ParseString(strings.TrimSpace(req.AgentID))
	if err != nil || agentID == 0 {
		AbortWithError(c, newValidationError("agent_id", "invalid_agent_id", "invalid agent id"))
		return
	}

	created, err := s.triggerSvc.OnboardAgent(c.Request.Context(), agentID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"created": created})
}
