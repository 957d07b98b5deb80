// Package oversight gives platform operators read-only visibility into the
// matching backlog and a pluggable hook for manual overrides. The matching
// core never depends on overrides being wired up.
package oversight

import (
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

var (
	ErrNotImplemented        = errors.New("override_not_implemented")
	ErrJustificationRequired = errors.New("justification_required")
	ErrInvalidOverrideAction = errors.New("invalid_override_action")
)

// OverrideAction enumerates the manual interventions operators can request.
type OverrideAction string

const (
	ActionForceAssign   OverrideAction = "force_assign"
	ActionForceUnassign OverrideAction = "force_unassign"
	ActionPriorityBoost OverrideAction = "priority_boost"
	ActionBlacklist     OverrideAction = "blacklist"
)

// ValidAction reports whether the action is known.
func ValidAction(action OverrideAction) bool {
	switch action {
	case ActionForceAssign, ActionForceUnassign, ActionPriorityBoost, ActionBlacklist:
		return true
	}
	return false
}

// OverrideRequest is the operator's intervention request. Justification is
// mandatory: administrative actions require a reason and are logged.
type OverrideRequest struct {
	Action        OverrideAction
	MatchID       snowflake.ID
	AgentID       snowflake.ID
	RequestID     snowflake.ID
	Justification string
}

// BacklogRequest is an open request starving for matches.
type BacklogRequest struct {
	RequestID  snowflake.ID  `json:"request_id"`
	MatchCount int           `json:"match_count"`
	WaitingFor time.Duration `json:"waiting_for"`
	CreatedAt  time.Time     `json:"created_at"`
}
