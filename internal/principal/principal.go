// Package principal models the authenticated caller. The upstream gateway
// authenticates users and forwards identity headers; the server boundary
// converts them into a Principal exactly once and passes it down as a
// value. Business logic never re-reads headers.
package principal

import (
	"strings"

	"github.com/bwmarrin/snowflake"
)

// Platform roles relevant to this service.
const (
	RoleAgent = "AGENT"
	RoleAdmin = "ADMIN"
)

// Principal is the authenticated caller identity.
type Principal struct {
	UserID  snowflake.ID
	AgentID snowflake.ID
	Roles   []string
}

// HasRole reports whether the principal carries the given role.
func (p Principal) HasRole(role string) bool {
	for _, r := range p.Roles {
		if strings.EqualFold(strings.TrimSpace(r), role) {
			return true
		}
	}
	return false
}

// IsAgent reports whether the caller is an agent with a linked profile.
func (p Principal) IsAgent() bool {
	return p.AgentID != 0 && p.HasRole(RoleAgent)
}
