package match

import (
	"github.com/howweplan/matchd/internal/match/repository"
	"github.com/howweplan/matchd/internal/match/service"
	"go.uber.org/fx"
)

var Module = fx.Module("match.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
