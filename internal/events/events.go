// Package events stores match lifecycle events in a transactional outbox
// for out-of-process consumers (notifications, analytics).
package events

// Match event types.
const (
	EventMatchCreated  = "match.created"
	EventMatchAccepted = "match.accepted"
	EventMatchDeclined = "match.declined"
	EventMatchExpired  = "match.expired"
)

// MatchPayload captures the minimal data downstream consumers need.
type MatchPayload struct {
	MatchID   string `json:"match_id"`
	RequestID string `json:"request_id"`
	AgentID   string `json:"agent_id"`
	Status    string `json:"status"`
	Reason    string `json:"reason,omitempty"`
}

// ToMap converts a payload into an outbox-friendly map.
func (p MatchPayload) ToMap() map[string]any {
	payload := map[string]any{
		"match_id":   p.MatchID,
		"request_id": p.RequestID,
		"agent_id":   p.AgentID,
		"status":     p.Status,
	}
	if p.Reason != "" {
		payload["reason"] = p.Reason
	}
	return payload
}
