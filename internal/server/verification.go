package server

import (
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/howweplan/matchd/internal/verification"
)

// VerifyMatch answers whether an agent holds an active match on a trip
// request. Negative outcomes are 200s with verified=false so callers can
// distinguish "no" from transport failure.
func (s *Server) VerifyMatch(c *gin.Context) {
	requestID, err := snowflake.ParseString(strings.TrimSpace(c.Query("request_id")))
	if err != nil || requestID == 0 {
		AbortWithError(c, newValidationError("request_id", "invalid_request_id", "invalid request id"))
		return
	}

	query := verification.Query{RequestID: requestID}
	if raw := strings.TrimSpace(c.Query("agent_id")); raw != "" {
		agentID, err := snowflake.ParseString(raw)
		if err != nil {
			AbortWithError(c, newValidationError("agent_id", "invalid_agent_id", "invalid agent id"))
			return
		}
		query.AgentID = agentID
	}
	if raw := strings.TrimSpace(c.Query("requester_id")); raw != "" {
		userID, err := snowflake.ParseString(raw)
		if err != nil {
			AbortWithError(c, newValidationError("requester_id", "invalid_requester_id", "invalid requester id"))
			return
		}
		query.RequesterUserID = userID
	}

	result, err := s.verificationSvc.Verify(c.Request.Context(), query)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if !result.OK {
		c.JSON(http.StatusOK, gin.H{"verified": false, "reason": result.Reason})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"verified":   true,
		"match_id":   result.MatchID.String(),
		"agent_id":   result.AgentID.String(),
		"request_id": result.RequestID.String(),
		"status":     string(result.Status),
	})
}
