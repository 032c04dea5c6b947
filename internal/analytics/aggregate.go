package analytics

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/gazefront/attention.report/internal/track"
)

// HourCount is one (hour of day, session count) pair.
type HourCount struct {
	Hour  int `json:"hour"`
	Count int `json:"count"`
}

// Aggregate is the population-level analytics summary over a set of finalized
// sessions. Recomputed on demand; never persisted internally.
type Aggregate struct {
	TotalSessions      int                `json:"total_sessions"`
	AvgSessionDuration float64            `json:"avg_session_duration"`
	TotalTimeTracked   float64            `json:"total_time_tracked"`
	ZonePopularity     map[string]float64 `json:"zone_popularity"`
	AvgZonesPerSession float64            `json:"avg_zones_per_session"`
	PeakHours          []HourCount        `json:"peak_hours"`
	ConversionZones    []string           `json:"conversion_zones"`
	AvgEngagementScore float64            `json:"avg_engagement_score"`
}

// AggregateSessions combines a session population into a single summary.
// An empty population yields a zeroed Aggregate with empty collections,
// never an error.
func AggregateSessions(sessions []track.Session) Aggregate {
	if len(sessions) == 0 {
		return Aggregate{
			ZonePopularity:  map[string]float64{},
			PeakHours:       []HourCount{},
			ConversionZones: []string{},
		}
	}

	var totalTime float64
	zonesPerSession := make([]float64, len(sessions))
	engagementScores := make([]float64, len(sessions))

	// Zone popularity accumulates in first-appearance order across the
	// population so the conversion-zone ranking is deterministic under ties.
	var zoneOrder []string
	popularity := make(map[string]float64)

	for i, s := range sessions {
		totalTime += s.TotalDuration
		zonesPerSession[i] = float64(len(s.UniqueZonesVisited))
		engagementScores[i] = EngagementScore(s)

		for _, zd := range zoneDurationsOrdered(s) {
			if _, ok := popularity[zd.Zone]; !ok {
				zoneOrder = append(zoneOrder, zd.Zone)
			}
			popularity[zd.Zone] += zd.Seconds
		}
	}

	return Aggregate{
		TotalSessions:      len(sessions),
		AvgSessionDuration: totalTime / float64(len(sessions)),
		TotalTimeTracked:   totalTime,
		ZonePopularity:     popularity,
		AvgZonesPerSession: stat.Mean(zonesPerSession, nil),
		PeakHours:          peakHours(sessions),
		ConversionZones:    topZones(zoneOrder, popularity, 3),
		AvgEngagementScore: stat.Mean(engagementScores, nil),
	}
}

// zoneDurationsOrdered lists a session's zone durations in peak-interest
// order first (which preserves the track's zone-entry order for the top
// entries), then the remaining zones sorted by name for stability.
func zoneDurationsOrdered(s track.Session) []track.ZoneDwell {
	out := make([]track.ZoneDwell, 0, len(s.ZoneDurations))
	seen := make(map[string]bool)
	for _, p := range s.PeakInterestZones {
		if _, ok := s.ZoneDurations[p.Zone]; ok && !seen[p.Zone] {
			seen[p.Zone] = true
			out = append(out, track.ZoneDwell{Zone: p.Zone, Seconds: s.ZoneDurations[p.Zone]})
		}
	}
	rest := make([]string, 0, len(s.ZoneDurations))
	for zone := range s.ZoneDurations {
		if !seen[zone] {
			rest = append(rest, zone)
		}
	}
	sort.Strings(rest)
	for _, zone := range rest {
		out = append(out, track.ZoneDwell{Zone: zone, Seconds: s.ZoneDurations[zone]})
	}
	return out
}

// topZones returns up to n zone names ranked by total dwell, descending.
// The stable sort keeps first-appearance order under ties.
func topZones(order []string, popularity map[string]float64, n int) []string {
	ranked := append([]string(nil), order...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return popularity[ranked[i]] > popularity[ranked[j]]
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	if ranked == nil {
		ranked = []string{}
	}
	return ranked
}

// peakHours derives a synthetic hour per session as (9 + index) mod 24 and
// counts sessions per hour, sorted by count descending and capped at 5.
//
// The hour is a placeholder derived from session order, not from wall-clock
// time; it is preserved as-is for parity with the recorded behaviour.
func peakHours(sessions []track.Session) []HourCount {
	var hourOrder []int
	counts := make(map[int]int)
	for i := range sessions {
		hour := (9 + i) % 24
		if _, ok := counts[hour]; !ok {
			hourOrder = append(hourOrder, hour)
		}
		counts[hour]++
	}

	out := make([]HourCount, 0, len(hourOrder))
	for _, h := range hourOrder {
		out = append(out, HourCount{Hour: h, Count: counts[h]})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	if len(out) > 5 {
		out = out[:5]
	}
	return out
}
