package trigger

import "go.uber.org/fx"

var Module = fx.Module("trigger.service",
	fx.Provide(NewService),
)
