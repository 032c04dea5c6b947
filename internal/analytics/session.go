// Package analytics derives per-session and population-level statistics from
// finalized tracking sessions.
package analytics

import (
	"time"

	"github.com/gazefront/attention.report/internal/track"
)

// SessionMetrics is the derived analytics for one finalized session.
type SessionMetrics struct {
	SessionID           int64     `json:"session_id"`
	Timestamp           time.Time `json:"timestamp"`
	Duration            float64   `json:"duration"`
	ZonesVisited        int       `json:"zones_visited"`
	ZoneTransitions     int       `json:"zone_transitions"`
	AvgConfidence       float64   `json:"avg_confidence"`
	PrimaryZone         string    `json:"primary_zone"`
	PrimaryZoneDuration float64   `json:"primary_zone_duration"`
	EngagementScore     float64   `json:"engagement_score"`
	PathComplexity      float64   `json:"path_complexity"`
}

// ComputeSessionMetrics derives the full metrics record for a session. It is
// a pure function of the session data; every consumer of the engagement score
// goes through the same computation.
func ComputeSessionMetrics(s track.Session) SessionMetrics {
	primaryZone, primaryDuration := PrimaryZone(s)
	return SessionMetrics{
		SessionID:           s.ID,
		Timestamp:           time.Now(),
		Duration:            s.TotalDuration,
		ZonesVisited:        len(s.UniqueZonesVisited),
		ZoneTransitions:     s.TotalZoneTransitions,
		AvgConfidence:       s.AvgConfidence,
		PrimaryZone:         primaryZone,
		PrimaryZoneDuration: primaryDuration,
		EngagementScore:     EngagementScore(s),
		PathComplexity:      PathComplexity(s),
	}
}

// PrimaryZone returns the zone with maximal accumulated dwell time, or
// ("Unknown", 0) when the session records no zone durations. Ties resolve to
// the zone ranked first in the session's peak-interest list, which preserves
// entry order.
func PrimaryZone(s track.Session) (string, float64) {
	if len(s.PeakInterestZones) > 0 {
		p := s.PeakInterestZones[0]
		return p.Zone, p.Seconds
	}
	best, bestDuration := "", 0.0
	for zone, d := range s.ZoneDurations {
		if best == "" || d > bestDuration {
			best, bestDuration = zone, d
		}
	}
	if best == "" {
		return "Unknown", 0
	}
	return best, bestDuration
}

// EngagementScore is a bounded heuristic combining dwell duration, zone
// exploration breadth, detector confidence, and attention concentration:
//
//	0.3·min(duration/60, 1) + 0.2·min(zones/5, 1) + 0.2·avgConfidence + 0.3·concentration
//
// where concentration is the largest single-zone dwell as a fraction of total
// duration. Nominally in [0, 1] for inputs in their expected ranges; the
// result is not clamped.
func EngagementScore(s track.Session) float64 {
	durationScore := min(s.TotalDuration/60, 1.0)
	explorationScore := min(float64(len(s.UniqueZonesVisited))/5, 1.0)

	var concentration float64
	if len(s.ZoneDurations) > 0 && s.TotalDuration > 0 {
		var longest float64
		for _, d := range s.ZoneDurations {
			if d > longest {
				longest = d
			}
		}
		concentration = longest / s.TotalDuration
	}

	return 0.3*durationScore + 0.2*explorationScore + 0.2*s.AvgConfidence + 0.3*concentration
}

// PathComplexity is the ratio of zone transitions to distinct zones visited.
// High values indicate attention bouncing between the same zones.
func PathComplexity(s track.Session) float64 {
	zones := len(s.UniqueZonesVisited)
	if zones < 1 {
		zones = 1
	}
	return float64(s.TotalZoneTransitions) / float64(zones)
}
