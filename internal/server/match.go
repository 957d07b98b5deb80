package server

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	matchdomain "github.com/howweplan/matchd/internal/match/domain"
)

const (
	defaultMatchPageSize = 20
	maxMatchPageSize     = 100
)

type matchResponse struct {
	ID            string     `json:"id"`
	RequestID     string     `json:"request_id"`
	AgentID       string     `json:"agent_id"`
	Status        string     `json:"status"`
	Score         *float64   `json:"score,omitempty"`
	DeclineReason *string    `json:"decline_reason,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	RespondedAt   *time.Time `json:"responded_at,omitempty"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
}

func toMatchResponse(m matchdomain.Match) matchResponse {
	return matchResponse{
		ID:            m.ID.String(),
		RequestID:     m.RequestID.String(),
		AgentID:       m.AgentID.String(),
		Status:        string(m.Status),
		Score:         m.Score,
		DeclineReason: m.DeclineReason,
		CreatedAt:     m.CreatedAt,
		RespondedAt:   m.RespondedAt,
		ExpiresAt:     m.ExpiresAt,
	}
}

func (s *Server) ListMatches(c *gin.Context) {
	p := currentPrincipal(c)

	limit := queryInt(c, "limit", defaultMatchPageSize)
	if limit <= 0 || limit > maxMatchPageSize {
		limit = defaultMatchPageSize
	}
	offset := queryInt(c, "offset", 0)
	if offset < 0 {
		offset = 0
	}

	matches, err := s.matchSvc.ListForAgent(c.Request.Context(), p.AgentID, limit, offset)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp := make([]matchResponse, 0, len(matches))
	for _, m := range matches {
		resp = append(resp, toMatchResponse(m))
	}
	c.JSON(http.StatusOK, gin.H{"matches": resp, "limit": limit, "offset": offset})
}

// RefreshMatches lets an agent pull in newly opened requests on demand.
// Per-agent rate limiting protects the scoring path from refresh storms.
func (s *Server) RefreshMatches(c *gin.Context) {
	p := currentPrincipal(c)

	if !s.refreshLimiter.Allow(p.AgentID.String()) {
		AbortWithError(c, ErrRateLimited)
		return
	}

	created, err := s.triggerSvc.Refresh(c.Request.Context(), p.AgentID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"created": created})
}

func (s *Server) AcceptMatch(c *gin.Context) {
	p := currentPrincipal(c)
	matchID, err := parseMatchID(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	match, err := s.matchSvc.Accept(c.Request.Context(), p.AgentID, matchID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"match": toMatchResponse(*match)})
}

func (s *Server) DeclineMatch(c *gin.Context) {
	p := currentPrincipal(c)
	matchID, err := parseMatchID(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req struct {
		Reason string `json:"reason"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			AbortWithError(c, invalidRequestError())
			return
		}
	}

	match, err := s.matchSvc.Decline(c.Request.Context(), p.AgentID, matchID, req.Reason)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"match": toMatchResponse(*match)})
}

func parseMatchID(c *gin.Context) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(c.Param("id")))
	if err != nil || id == 0 {
		return 0, matchdomain.ErrInvalidMatchID
	}
	return id, nil
}

func queryInt(c *gin.Context, key string, fallback int) int {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}
