package analytics

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gazefront/attention.report/internal/track"
)

func sessionWithZones(id int64, duration float64, zones map[string]float64) track.Session {
	var visited []string
	var peaks []track.ZoneDwell
	for z, d := range zones {
		visited = append(visited, z)
		peaks = append(peaks, track.ZoneDwell{Zone: z, Seconds: d})
	}
	return track.Session{
		ID:                 id,
		TotalDuration:      duration,
		ZoneDurations:      zones,
		UniqueZonesVisited: visited,
		PeakInterestZones:  peaks,
		AvgConfidence:      0.8,
	}
}

func TestAggregateEmptyPopulation(t *testing.T) {
	got := AggregateSessions(nil)

	want := Aggregate{
		ZonePopularity:  map[string]float64{},
		PeakHours:       []HourCount{},
		ConversionZones: []string{},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("empty aggregate mismatch (-want +got):\n%s", diff)
	}
}

func TestAggregateTotalsAndMeans(t *testing.T) {
	sessions := []track.Session{
		sessionWithZones(0, 10, map[string]float64{"A": 10}),
		sessionWithZones(1, 20, map[string]float64{"A": 5, "B": 15}),
		sessionWithZones(2, 30, map[string]float64{"B": 10, "C": 20}),
	}

	agg := AggregateSessions(sessions)

	assert.Equal(t, 3, agg.TotalSessions)
	assert.InDelta(t, 60.0, agg.TotalTimeTracked, 1e-9)
	assert.InDelta(t, 20.0, agg.AvgSessionDuration, 1e-9)
	assert.InDelta(t, (1.0+2.0+2.0)/3.0, agg.AvgZonesPerSession, 1e-9)

	assert.InDelta(t, 15.0, agg.ZonePopularity["A"], 1e-9)
	assert.InDelta(t, 25.0, agg.ZonePopularity["B"], 1e-9)
	assert.InDelta(t, 20.0, agg.ZonePopularity["C"], 1e-9)

	// Conversion zones ranked by popularity, descending.
	require.Len(t, agg.ConversionZones, 3)
	assert.Equal(t, []string{"B", "C", "A"}, agg.ConversionZones)

	wantEngagement := (EngagementScore(sessions[0]) +
		EngagementScore(sessions[1]) +
		EngagementScore(sessions[2])) / 3
	assert.InDelta(t, wantEngagement, agg.AvgEngagementScore, 1e-9)
}

func TestAggregateConversionZonesCappedAt3(t *testing.T) {
	sessions := []track.Session{
		sessionWithZones(0, 10, map[string]float64{"A": 4, "B": 3, "C": 2, "D": 1}),
	}
	agg := AggregateSessions(sessions)
	assert.Equal(t, []string{"A", "B", "C"}, agg.ConversionZones)
}

func TestPeakHoursSyntheticDerivation(t *testing.T) {
	// The hour is (9 + index) mod 24, derived from session order rather than
	// wall-clock time.
	sessions := make([]track.Session, 3)
	for i := range sessions {
		sessions[i] = sessionWithZones(int64(i), 5, map[string]float64{"A": 5})
	}

	agg := AggregateSessions(sessions)
	require.Len(t, agg.PeakHours, 3)
	assert.Equal(t, HourCount{Hour: 9, Count: 1}, agg.PeakHours[0])
	assert.Equal(t, HourCount{Hour: 10, Count: 1}, agg.PeakHours[1])
	assert.Equal(t, HourCount{Hour: 11, Count: 1}, agg.PeakHours[2])
}

func TestPeakHoursWrapAndCap(t *testing.T) {
	// 30 sessions: hours 9..14 occur twice (indices wrap at 24), the rest
	// once. Top five are the double-counted hours, capped at 5 entries.
	sessions := make([]track.Session, 30)
	for i := range sessions {
		sessions[i] = sessionWithZones(int64(i), 5, map[string]float64{"A": 5})
	}

	agg := AggregateSessions(sessions)
	require.Len(t, agg.PeakHours, 5)
	for i, hc := range agg.PeakHours {
		assert.Equal(t, 9+i, hc.Hour)
		assert.Equal(t, 2, hc.Count)
	}
}
