package scoring

import (
	"math"
	"testing"

	"github.com/bwmarrin/snowflake"
	agentdomain "github.com/howweplan/matchd/internal/agent/domain"
	requestdomain "github.com/howweplan/matchd/internal/request/domain"
	"gorm.io/datatypes"
)

func testAgent(id int64) agentdomain.Agent {
	return agentdomain.Agent{
		ID:               snowflake.ID(id),
		Tier:             agentdomain.TierBench,
		Rating:           4.0,
		CompletedTrips:   5,
		AvgResponseHours: 10,
		IsActive:         true,
		Availability:     agentdomain.AvailabilityAvailable,
		CurrentTrips:     1,
		MaxTrips:         5,
	}
}

func testRequest() requestdomain.TripRequest {
	return requestdomain.TripRequest{
		ID:           snowflake.ID(900),
		TripType:     requestdomain.TripTypeLeisure,
		Destinations: datatypes.NewJSONSlice([]string{"Goa"}),
	}
}

func mustEngine(t *testing.T, cfg Config) *Engine {
	t.Helper()
	engine, err := NewEngine(cfg)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return engine
}

func TestNewEngineValidatesWeights(t *testing.T) {
	if _, err := NewEngine(DefaultConfig()); err != nil {
		t.Fatalf("default config must construct: %v", err)
	}

	cfg := DefaultConfig()
	cfg.Weights.Tier = 0.5
	if _, err := NewEngine(cfg); err == nil {
		t.Fatal("expected error for weights summing above 1")
	}

	cfg = DefaultConfig()
	cfg.Weights = Weights{Tier: 0.9995, Rating: 0.0001}
	if _, err := NewEngine(cfg); err != nil {
		t.Fatalf("weights within tolerance must construct: %v", err)
	}
}

func TestScoreExcludesIneligibleAgents(t *testing.T) {
	engine := mustEngine(t, DefaultConfig())
	request := testRequest()

	inactive := testAgent(1)
	inactive.IsActive = false

	paused := testAgent(2)
	paused.Availability = agentdomain.AvailabilityPaused

	full := testAgent(3)
	full.CurrentTrips = 5
	full.MaxTrips = 5

	for _, agent := range []agentdomain.Agent{inactive, paused, full} {
		scored := engine.Score(agent, request)
		if !scored.Excluded() {
			t.Fatalf("agent %d: expected exclusion", agent.ID)
		}
		if scored.Total != 0 {
			t.Fatalf("agent %d: excluded agents must score 0, got %v", agent.ID, scored.Total)
		}
		if len(scored.Reasons) != 0 {
			t.Fatalf("agent %d: excluded agents carry no match reasons", agent.ID)
		}
	}

	ranked := engine.ScoreMany([]agentdomain.Agent{inactive, paused, full, testAgent(4)}, request)
	if len(ranked) != 1 || ranked[0].AgentID != snowflake.ID(4) {
		t.Fatalf("expected only the eligible agent in output, got %+v", ranked)
	}
}

func TestScoreBoundsAndReasons(t *testing.T) {
	engine := mustEngine(t, DefaultConfig())
	agent := testAgent(1)
	agent.Rating = 5
	agent.Specializations = datatypes.NewJSONSlice([]string{"LEISURE"})
	agent.Regions = datatypes.NewJSONSlice([]string{"goa"})

	scored := engine.Score(agent, testRequest())
	if scored.Excluded() {
		t.Fatalf("unexpected exclusion: %q", scored.ExclusionReason)
	}
	for name, sub := range map[string]float64{
		"tier":           scored.Breakdown.Tier,
		"rating":         scored.Breakdown.Rating,
		"response":       scored.Breakdown.Response,
		"specialization": scored.Breakdown.Specialization,
		"region":         scored.Breakdown.Region,
		"workload":       scored.Breakdown.Workload,
	} {
		if sub < 0 || sub > 100 {
			t.Fatalf("%s sub-score out of range: %v", name, sub)
		}
	}
	if scored.Total < 0 || scored.Total > 100 {
		t.Fatalf("total out of range: %v", scored.Total)
	}
	if len(scored.Reasons) == 0 {
		t.Fatal("expected match reasons for a strong agent")
	}
}

// Worked example: verified STAR honeymoon specialist in Rajasthan.
func TestScoreWorkedExample(t *testing.T) {
	engine := mustEngine(t, DefaultConfig())

	agent := agentdomain.Agent{
		ID:               snowflake.ID(7),
		Tier:             agentdomain.TierStar,
		Rating:           4.9,
		CompletedTrips:   40,
		AvgResponseHours: 2,
		Specializations:  datatypes.NewJSONSlice([]string{"LUXURY"}),
		Regions:          datatypes.NewJSONSlice([]string{"rajasthan"}),
		IsActive:         true,
		Availability:     agentdomain.AvailabilityAvailable,
		CurrentTrips:     2,
		MaxTrips:         10,
	}
	request := requestdomain.TripRequest{
		ID:           snowflake.ID(901),
		TripType:     requestdomain.TripTypeHoneymoon,
		Destinations: datatypes.NewJSONSlice([]string{"Jaipur, Rajasthan"}),
	}

	scored := engine.Score(agent, request)
	want := Breakdown{Tier: 100, Rating: 98, Response: 90, Specialization: 70, Region: 100, Workload: 100}
	if scored.Breakdown != want {
		t.Fatalf("breakdown mismatch:\n got %+v\nwant %+v", scored.Breakdown, want)
	}
	if math.Abs(scored.Total-93.6) > 1e-9 {
		t.Fatalf("expected total 93.6, got %v", scored.Total)
	}
}

func TestScoreManyOrderingIsStable(t *testing.T) {
	engine := mustEngine(t, DefaultConfig())
	request := testRequest()

	// Identical profiles tie on total score.
	first := testAgent(10)
	second := testAgent(11)
	strong := testAgent(12)
	strong.Tier = agentdomain.TierStar
	strong.Rating = 4.9
	strong.CompletedTrips = 30

	ranked := engine.ScoreMany([]agentdomain.Agent{first, second, strong}, request)
	if len(ranked) != 3 {
		t.Fatalf("expected 3 results, got %d", len(ranked))
	}
	if ranked[0].AgentID != strong.ID {
		t.Fatalf("expected strongest agent first, got %d", ranked[0].AgentID)
	}
	if ranked[1].AgentID != first.ID || ranked[2].AgentID != second.ID {
		t.Fatalf("ties must preserve input order, got %d then %d", ranked[1].AgentID, ranked[2].AgentID)
	}
	for i := 1; i < len(ranked); i++ {
		if ranked[i].Total > ranked[i-1].Total {
			t.Fatalf("output not sorted descending at index %d", i)
		}
	}
}

func TestSpecializationDisabledIsNeutral(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SpecializationEnabled = false
	cfg.RegionEnabled = false
	engine := mustEngine(t, cfg)

	agent := testAgent(1)
	agent.Specializations = datatypes.NewJSONSlice([]string{"LEISURE"})
	agent.Regions = datatypes.NewJSONSlice([]string{"goa"})

	scored := engine.Score(agent, testRequest())
	if scored.Breakdown.Specialization != neutralScore {
		t.Fatalf("expected neutral specialization score, got %v", scored.Breakdown.Specialization)
	}
	if scored.Breakdown.Region != neutralScore {
		t.Fatalf("expected neutral region score, got %v", scored.Breakdown.Region)
	}
}

func TestRegionGeneralist(t *testing.T) {
	engine := mustEngine(t, DefaultConfig())
	agent := testAgent(1)
	agent.Regions = nil

	scored := engine.Score(agent, testRequest())
	if scored.Breakdown.Region != 40 {
		t.Fatalf("expected generalist region score 40, got %v", scored.Breakdown.Region)
	}
}

func TestRegionPartialCoverage(t *testing.T) {
	engine := mustEngine(t, DefaultConfig())
	agent := testAgent(1)
	agent.Regions = datatypes.NewJSONSlice([]string{"kerala"})

	request := testRequest()
	request.Destinations = datatypes.NewJSONSlice([]string{"Kochi, Kerala", "Leh, Ladakh"})

	scored := engine.Score(agent, request)
	if scored.Breakdown.Region != 70 {
		t.Fatalf("expected 50%% coverage score 70, got %v", scored.Breakdown.Region)
	}
}
