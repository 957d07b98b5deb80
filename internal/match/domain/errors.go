package domain

import "errors"

var (
	ErrMatchNotFound  = errors.New("match_not_found")
	ErrNotMatchOwner  = errors.New("not_match_owner")
	ErrStateConflict  = errors.New("match_state_conflict")
	ErrAgentNotFound  = errors.New("agent_not_found")
	ErrInvalidMatchID = errors.New("invalid_match_id")
)
