package oversight

import "go.uber.org/fx"

var Module = fx.Module("oversight.service",
	fx.Provide(func() Overrider {
		return NotImplementedOverrider{}
	}),
	fx.Provide(NewService),
)
