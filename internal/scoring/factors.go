package scoring

import (
	"fmt"
	"strings"

	agentdomain "github.com/howweplan/matchd/internal/agent/domain"
	requestdomain "github.com/howweplan/matchd/internal/request/domain"
)

const neutralScore = 50

// desiredSpecializations maps a trip type to its desired specializations in
// priority order; the first entry is the primary specialization.
var desiredSpecializations = map[requestdomain.TripType][]string{
	requestdomain.TripTypeHoneymoon:  {"ROMANTIC", "LUXURY"},
	requestdomain.TripTypeAdventure:  {"ADVENTURE", "TREKKING"},
	requestdomain.TripTypeFamily:     {"FAMILY", "KIDS_FRIENDLY"},
	requestdomain.TripTypePilgrimage: {"PILGRIMAGE", "CULTURAL"},
	requestdomain.TripTypeBusiness:   {"BUSINESS", "CORPORATE"},
	requestdomain.TripTypeLeisure:    {"LEISURE", "CULTURAL"},
}

func (e *Engine) tierScore(agent agentdomain.Agent, reasons []string) (float64, []string) {
	meetsThresholds := agent.Rating >= e.cfg.StarRatingThreshold &&
		agent.CompletedTrips >= e.cfg.StarTripsThreshold

	switch {
	case agent.Tier == agentdomain.TierStar && meetsThresholds:
		return 100, append(reasons, "verified STAR agent")
	case agent.Tier == agentdomain.TierStar:
		// STAR badge retained from an earlier review period.
		return 85, append(reasons, "STAR agent")
	case agent.CompletedTrips >= e.cfg.StarTripsThreshold/2:
		return 60, append(reasons, fmt.Sprintf("experienced agent (%d trips)", agent.CompletedTrips))
	default:
		return 40, reasons
	}
}

func ratingScore(rating float64) float64 {
	if rating <= 0 {
		return 0
	}
	if rating >= 5 {
		return 100
	}
	return rating / 5 * 100
}

func responseScore(avgHours float64, reasons []string) (float64, []string) {
	switch {
	case avgHours <= 1:
		return 100, append(reasons, "responds within an hour")
	case avgHours <= 4:
		return 90, append(reasons, "fast responder")
	case avgHours <= 12:
		return 75, reasons
	case avgHours <= 24:
		return 60, reasons
	case avgHours <= 48:
		return 40, reasons
	default:
		return 20, reasons
	}
}

func (e *Engine) specializationScore(agent agentdomain.Agent, request requestdomain.TripRequest, reasons []string) (float64, []string) {
	if !e.cfg.SpecializationEnabled {
		return neutralScore, reasons
	}
	desired := desiredSpecializations[request.TripType]
	if len(desired) == 0 {
		return neutralScore, reasons
	}

	have := make(map[string]bool, len(agent.Specializations))
	for _, s := range agent.Specializations {
		have[strings.ToUpper(strings.TrimSpace(s))] = true
	}

	for i, want := range desired {
		if !have[want] {
			continue
		}
		if i == 0 {
			return 100, append(reasons, fmt.Sprintf("specializes in %s trips", want))
		}
		return 70, append(reasons, fmt.Sprintf("also handles %s trips", want))
	}
	return 30, reasons
}

func (e *Engine) regionScore(agent agentdomain.Agent, request requestdomain.TripRequest, reasons []string) (float64, []string) {
	if !e.cfg.RegionEnabled {
		return neutralScore, reasons
	}
	if len(agent.Regions) == 0 {
		// Generalist agents take trips anywhere.
		return 40, reasons
	}
	if len(request.Destinations) == 0 {
		return neutralScore, reasons
	}

	covered := 0
	for _, destination := range request.Destinations {
		if coversDestination(agent.Regions, destination) {
			covered++
		}
	}

	ratio := float64(covered) / float64(len(request.Destinations))
	switch {
	case ratio >= 1:
		return 100, append(reasons, fmt.Sprintf("covers all %d destinations", len(request.Destinations)))
	case ratio >= 0.5:
		return 70, append(reasons, fmt.Sprintf("covers %d of %d destinations", covered, len(request.Destinations)))
	case ratio > 0:
		return 50, reasons
	default:
		return 20, reasons
	}
}

// coversDestination matches case-insensitively with substring containment in
// either direction, so "Jaipur, Rajasthan" matches a declared "rajasthan".
func coversDestination(regions []string, destination string) bool {
	destination = strings.ToLower(strings.TrimSpace(destination))
	if destination == "" {
		return false
	}
	for _, region := range regions {
		region = strings.ToLower(strings.TrimSpace(region))
		if region == "" {
			continue
		}
		if strings.Contains(destination, region) || strings.Contains(region, destination) {
			return true
		}
	}
	return false
}

func workloadScore(agent agentdomain.Agent, reasons []string) (float64, []string) {
	headroom := float64(agent.MaxTrips-agent.CurrentTrips) / float64(agent.MaxTrips)
	switch {
	case headroom >= 0.8:
		return 100, append(reasons, "plenty of capacity")
	case headroom >= 0.5:
		return 70, reasons
	case headroom >= 0.2:
		return 40, reasons
	default:
		return 20, reasons
	}
}
