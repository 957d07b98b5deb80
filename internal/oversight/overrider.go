package oversight

import "context"

// Overrider is the pluggable capability behind manual interventions. The
// default adapter implements none of them; a future operations service can
// replace it without touching the matching core.
type Overrider interface {
	ForceAssign(ctx context.Context, req OverrideRequest) error
	ForceUnassign(ctx context.Context, req OverrideRequest) error
	PriorityBoost(ctx context.Context, req OverrideRequest) error
	Blacklist(ctx context.Context, req OverrideRequest) error
}

// NotImplementedOverrider rejects every intervention.
type NotImplementedOverrider struct{}

func (NotImplementedOverrider) ForceAssign(context.Context, OverrideRequest) error {
	return ErrNotImplemented
}

func (NotImplementedOverrider) ForceUnassign(context.Context, OverrideRequest) error {
	return ErrNotImplemented
}

func (NotImplementedOverrider) PriorityBoost(context.Context, OverrideRequest) error {
	return ErrNotImplemented
}

func (NotImplementedOverrider) Blacklist(context.Context, OverrideRequest) error {
	return ErrNotImplemented
}
