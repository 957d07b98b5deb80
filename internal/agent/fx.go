package agent

import (
	"github.com/howweplan/matchd/internal/agent/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("agent.repository",
	fx.Provide(repository.Provide),
)
