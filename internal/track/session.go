package track

// Session is the immutable, finalized summary of a track's visible lifetime.
// Created exactly once per surviving track; never mutated afterwards.
type Session struct {
	ID                   int64              `json:"id"`
	StartFrame           int                `json:"start_frame"`
	EndFrame             int                `json:"end_frame"`
	TotalDuration        float64            `json:"total_duration"`
	ZoneDurations        map[string]float64 `json:"zone_durations"`
	GazeHistory          []GazeRecord       `json:"gaze_history"`
	UniqueZonesVisited   []string           `json:"unique_zones_visited"`
	AvgConfidence        float64            `json:"avg_confidence"`
	TotalZoneTransitions int                `json:"total_zone_transitions"`
	PeakInterestZones    []ZoneDwell        `json:"peak_interest_zones"`
}

// clone returns an independent copy whose maps and slices do not alias the
// receiver's.
func (s Session) clone() Session {
	out := s
	out.ZoneDurations = make(map[string]float64, len(s.ZoneDurations))
	for z, d := range s.ZoneDurations {
		out.ZoneDurations[z] = d
	}
	out.GazeHistory = append([]GazeRecord(nil), s.GazeHistory...)
	out.UniqueZonesVisited = append([]string(nil), s.UniqueZonesVisited...)
	out.PeakInterestZones = append([]ZoneDwell(nil), s.PeakInterestZones...)
	return out
}

// SessionConsumer receives each finalized session exactly once, synchronously,
// at the point the session is produced. A consumer that panics is isolated:
// the panic is logged and remaining consumers still run.
//
// Consumers are invoked with the tracker lock held and must not call back
// into the Tracker.
type SessionConsumer interface {
	ConsumeSession(Session)
}

// SessionConsumerFunc adapts a function to the SessionConsumer interface.
type SessionConsumerFunc func(Session)

// ConsumeSession calls f(s).
func (f SessionConsumerFunc) ConsumeSession(s Session) { f(s) }
