// Package scoring ranks agents for a trip request with a fixed, auditable
// weighted rule set. Scoring is pure: no I/O, no clock, no persistence.
package scoring

import (
	"math"
	"sort"

	"github.com/bwmarrin/snowflake"
	agentdomain "github.com/howweplan/matchd/internal/agent/domain"
	requestdomain "github.com/howweplan/matchd/internal/request/domain"
)

// Breakdown carries the per-factor sub-scores, each in [0, 100].
type Breakdown struct {
	Tier           float64 `json:"tier"`
	Rating         float64 `json:"rating"`
	Response       float64 `json:"response"`
	Specialization float64 `json:"specialization"`
	Region         float64 `json:"region"`
	Workload       float64 `json:"workload"`
}

// ScoredAgent is the ephemeral result of scoring one agent for one request.
// Excluded agents carry a zero total and an exclusion reason instead of
// match reasons.
type ScoredAgent struct {
	AgentID         snowflake.ID `json:"agent_id"`
	Total           float64      `json:"total"`
	Breakdown       Breakdown    `json:"breakdown"`
	Reasons         []string     `json:"reasons,omitempty"`
	ExclusionReason string       `json:"exclusion_reason,omitempty"`
}

// Excluded reports whether the agent was disqualified before weighting.
func (s ScoredAgent) Excluded() bool { return s.ExclusionReason != "" }

// Engine computes weighted fitness scores. Construct with NewEngine; a
// misconfigured engine is never usable.
type Engine struct {
	cfg Config
}

// NewEngine validates the configuration and returns a ready engine.
// Weight misconfiguration is fatal at construction time so the service
// never runs with a biased weighting.
func NewEngine(cfg Config) (*Engine, error) {
	if err := cfg.Weights.validate(); err != nil {
		return nil, err
	}
	if cfg.StarRatingThreshold <= 0 {
		cfg.StarRatingThreshold = DefaultConfig().StarRatingThreshold
	}
	if cfg.StarTripsThreshold <= 0 {
		cfg.StarTripsThreshold = DefaultConfig().StarTripsThreshold
	}
	return &Engine{cfg: cfg}, nil
}

// Score evaluates a single agent against a request.
func (e *Engine) Score(agent agentdomain.Agent, request requestdomain.TripRequest) ScoredAgent {
	if reason := exclusionReason(agent); reason != "" {
		return ScoredAgent{AgentID: agent.ID, ExclusionReason: reason}
	}

	var reasons []string
	breakdown := Breakdown{}

	breakdown.Tier, reasons = e.tierScore(agent, reasons)
	breakdown.Rating = ratingScore(agent.Rating)
	breakdown.Response, reasons = responseScore(agent.AvgResponseHours, reasons)
	breakdown.Specialization, reasons = e.specializationScore(agent, request, reasons)
	breakdown.Region, reasons = e.regionScore(agent, request, reasons)
	breakdown.Workload, reasons = workloadScore(agent, reasons)

	w := e.cfg.Weights
	total := breakdown.Tier*w.Tier +
		breakdown.Rating*w.Rating +
		breakdown.Response*w.Response +
		breakdown.Specialization*w.Specialization +
		breakdown.Region*w.Region +
		breakdown.Workload*w.Workload

	return ScoredAgent{
		AgentID:   agent.ID,
		Total:     round2(total),
		Breakdown: breakdown,
		Reasons:   reasons,
	}
}

// ScoreMany scores a batch and returns the non-excluded agents ordered by
// total score descending. Ties preserve input order.
func (e *Engine) ScoreMany(agents []agentdomain.Agent, request requestdomain.TripRequest) []ScoredAgent {
	valid := make([]ScoredAgent, 0, len(agents))
	for _, agent := range agents {
		scored := e.Score(agent, request)
		if scored.Excluded() {
			continue
		}
		valid = append(valid, scored)
	}
	sort.SliceStable(valid, func(i, j int) bool {
		return valid[i].Total > valid[j].Total
	})
	return valid
}

func exclusionReason(agent agentdomain.Agent) string {
	switch {
	case !agent.IsActive:
		return "agent is inactive"
	case agent.Availability != agentdomain.AvailabilityAvailable:
		return "agent is not accepting new trips"
	case agent.CurrentTrips >= agent.MaxTrips:
		return "agent is at full capacity"
	}
	return ""
}

func round2(value float64) float64 {
	return math.Round(value*100) / 100
}
