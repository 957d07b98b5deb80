package scoring

import (
	"github.com/howweplan/matchd/internal/config"
	"go.uber.org/fx"
)

var Module = fx.Module("scoring.engine",
	fx.Provide(Provide),
)

// Provide builds the engine from application configuration. Weight keys
// absent from the config map default to zero, so an incomplete weight set
// fails validation rather than silently reweighting.
func Provide(cfg config.Config) (*Engine, error) {
	engineCfg := Config{
		Weights: Weights{
			Tier:           cfg.Scoring.Weights["tier"],
			Rating:         cfg.Scoring.Weights["rating"],
			Response:       cfg.Scoring.Weights["response"],
			Specialization: cfg.Scoring.Weights["specialization"],
			Region:         cfg.Scoring.Weights["region"],
			Workload:       cfg.Scoring.Weights["workload"],
		},
		StarRatingThreshold:   cfg.Scoring.StarRatingThreshold,
		StarTripsThreshold:    cfg.Scoring.StarTripsThreshold,
		SpecializationEnabled: cfg.Scoring.SpecializationEnabled,
		RegionEnabled:         cfg.Scoring.RegionEnabled,
	}
	return NewEngine(engineCfg)
}
