package request

import (
	"github.com/howweplan/matchd/internal/request/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("request.repository",
	fx.Provide(repository.Provide),
)
