package server

import (
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/howweplan/matchd/internal/principal"
)

const contextPrincipalKey = "principal"

// PrincipalRequired converts the gateway's identity headers into a
// Principal exactly once. Handlers downstream read the typed value and
// never touch headers themselves.
func (s *Server) PrincipalRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := snowflake.ParseString(strings.TrimSpace(c.GetHeader("X-User-Id")))
		if err != nil || userID == 0 {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		p := principal.Principal{UserID: userID}
		if raw := strings.TrimSpace(c.GetHeader("X-Agent-Id")); raw != "" {
			agentID, err := snowflake.ParseString(raw)
			if err != nil {
				AbortWithError(c, ErrUnauthorized)
				return
			}
			p.AgentID = agentID
		}
		if raw := strings.TrimSpace(c.GetHeader("X-Roles")); raw != "" {
			p.Roles = strings.Split(raw, ",")
		}

		c.Set(contextPrincipalKey, p)
		c.Next()
	}
}

// AgentRequired gates agent-facing routes on a linked agent profile.
func (s *Server) AgentRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !currentPrincipal(c).IsAgent() {
			AbortWithError(c, ErrForbidden)
			return
		}
		c.Next()
	}
}

// AdminRequired gates oversight routes on the admin role.
func (s *Server) AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !currentPrincipal(c).HasRole(principal.RoleAdmin) {
			AbortWithError(c, ErrForbidden)
			return
		}
		c.Next()
	}
}

func currentPrincipal(c *gin.Context) principal.Principal {
	value, ok := c.Get(contextPrincipalKey)
	if !ok {
		return principal.Principal{}
	}
	p, _ := value.(principal.Principal)
	return p
}
