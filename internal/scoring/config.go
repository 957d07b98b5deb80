package scoring

import (
	"errors"
	"fmt"
	"math"
)

// weightTolerance is the permitted drift when validating that weights sum to 1.
const weightTolerance = 0.001

// ErrInvalidWeights is returned when configured weights do not sum to 1.0.
var ErrInvalidWeights = errors.New("invalid_scoring_weights")

// Weights holds the relative importance of each scoring factor.
type Weights struct {
	Tier           float64
	Rating         float64
	Response       float64
	Specialization float64
	Region         float64
	Workload       float64
}

// DefaultWeights returns the production weighting.
func DefaultWeights() Weights {
	return Weights{
		Tier:           0.25,
		Rating:         0.20,
		Response:       0.15,
		Specialization: 0.15,
		Region:         0.15,
		Workload:       0.10,
	}
}

func (w Weights) sum() float64 {
	return w.Tier + w.Rating + w.Response + w.Specialization + w.Region + w.Workload
}

func (w Weights) validate() error {
	sum := w.sum()
	if math.Abs(sum-1.0) > weightTolerance {
		return fmt.Errorf("%w: weights sum to %.4f, want 1.0", ErrInvalidWeights, sum)
	}
	return nil
}

// Config configures the scoring engine.
type Config struct {
	Weights Weights

	// StarRatingThreshold and StarTripsThreshold gate the verified top tier.
	StarRatingThreshold float64
	StarTripsThreshold  int

	SpecializationEnabled bool
	RegionEnabled         bool
}

// DefaultConfig returns the engine configuration used when nothing is set.
func DefaultConfig() Config {
	return Config{
		Weights:               DefaultWeights(),
		StarRatingThreshold:   4.5,
		StarTripsThreshold:    20,
		SpecializationEnabled: true,
		RegionEnabled:         true,
	}
}
