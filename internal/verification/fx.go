package verification

import (
	agentdomain "github.com/howweplan/matchd/internal/agent/domain"
	"github.com/howweplan/matchd/internal/config"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("verification.service",
	fx.Provide(func(db *gorm.DB, repo agentdomain.Repository, cfg config.Config) Directory {
		return NewDirectory(db, repo, cfg.Matching.DirectoryCacheTTL)
	}),
	fx.Provide(NewService),
)
