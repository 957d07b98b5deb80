package server

import (
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	auditdomain "github.com/howweplan/matchd/internal/audit/domain"
	"github.com/howweplan/matchd/internal/oversight"
)

func (s *Server) Backlog(c *gin.Context) {
	threshold := queryInt(c, "threshold", 0)
	limit := queryInt(c, "limit", 50)
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	backlog, err := s.oversightSvc.Backlog(c.Request.Context(), threshold, limit)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	type entry struct {
		RequestID  string `json:"request_id"`
		MatchCount int    `json:"match_count"`
		WaitingFor string `json:"waiting_for"`
	}
	resp := make([]entry, 0, len(backlog))
	for _, b := range backlog {
		resp = append(resp, entry{
			RequestID:  b.RequestID.String(),
			MatchCount: b.MatchCount,
			WaitingFor: b.WaitingFor.String(),
		})
	}
	c.JSON(http.StatusOK, gin.H{"backlog": resp})
}

func (s *Server) EligibleAgents(c *gin.Context) {
	requestID, err := snowflake.ParseString(strings.TrimSpace(c.Param("id")))
	if err != nil || requestID == 0 {
		AbortWithError(c, newValidationError("id", "invalid_request_id", "invalid request id"))
		return
	}

	scored, err := s.oversightSvc.EligibleAgents(c.Request.Context(), requestID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"agents": scored})
}

func (s *Server) Override(c *gin.Context) {
	var req struct {
		Action        string `json:"action"`
		MatchID       string `json:"match_id"`
		AgentID       string `json:"agent_id"`
		RequestID     string `json:"request_id"`
		Justification string `json:"justification"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	override := oversight.OverrideRequest{
		Action:        oversight.OverrideAction(strings.TrimSpace(req.Action)),
		Justification: req.Justification,
	}
	var err error
	if override.MatchID, err = optionalID(req.MatchID); err != nil {
		AbortWithError(c, newValidationError("match_id", "invalid_match_id", "invalid match id"))
		return
	}
	if override.AgentID, err = optionalID(req.AgentID); err != nil {
		AbortWithError(c, newValidationError("agent_id", "invalid_agent_id", "invalid agent id"))
		return
	}
	if override.RequestID, err = optionalID(req.RequestID); err != nil {
		AbortWithError(c, newValidationError("request_id", "invalid_request_id", "invalid request id"))
		return
	}

	if err := s.oversightSvc.Override(c.Request.Context(), currentPrincipal(c), override); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) AuditTrail(c *gin.Context) {
	filter := auditdomain.ListFilter{
		Action:     strings.TrimSpace(c.Query("action")),
		TargetType: strings.TrimSpace(c.Query("target_type")),
		TargetID:   strings.TrimSpace(c.Query("target_id")),
		Limit:      queryInt(c, "limit", 50),
	}

	entries, err := s.oversightSvc.AuditTrail(c.Request.Context(), filter)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

func optionalID(raw string) (snowflake.ID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	return snowflake.ParseString(raw)
}
