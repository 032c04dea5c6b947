package track

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gazefront/attention.report/internal/geom"
)

func det(box geom.Box, zone string, conf float64) Detection {
	cx, cy := box.Center()
	return Detection{
		Box:        box,
		Zone:       zone,
		Confidence: conf,
		Center:     Point{X: cx, Y: cy},
	}
}

func TestNewTracker(t *testing.T) {
	tracker := NewTracker(DefaultConfig())
	active, completed := tracker.Counts()
	assert.Zero(t, active)
	assert.Zero(t, completed)
	assert.Equal(t, 0.3, tracker.Config().IoUThreshold)
}

func TestIdentityStability(t *testing.T) {
	tracker := NewTracker(DefaultConfig())

	box := geom.Box{X: 100, Y: 100, W: 50, H: 50}
	tracker.Update([]Detection{det(box, "A", 0.9)}, 1)

	// Nearly the same box across consecutive frames keeps the same id.
	for frame := 2; frame <= 10; frame++ {
		shifted := box
		shifted.X += float64(frame) // small drift, IoU stays high
		tracker.Update([]Detection{det(shifted, "A", 0.9)}, frame)
	}

	tracks := tracker.ActiveTracks()
	require.Len(t, tracks, 1)
	assert.Equal(t, int64(0), tracks[0].ID)
	assert.Equal(t, 1, tracks[0].FirstSeen)
	assert.Equal(t, 10, tracks[0].LastSeen)
	assert.Zero(t, tracks[0].MissingFrames)
	assert.Len(t, tracks[0].GazeHistory, 10)
}

func TestNonOverlappingDetectionCreatesNewTrack(t *testing.T) {
	tracker := NewTracker(DefaultConfig())

	tracker.Update([]Detection{det(geom.Box{X: 0, Y: 0, W: 20, H: 20}, "A", 0.9)}, 1)
	tracker.Update([]Detection{det(geom.Box{X: 500, Y: 500, W: 20, H: 20}, "B", 0.9)}, 2)

	tracks := tracker.ActiveTracks()
	require.Len(t, tracks, 2)
	assert.Equal(t, int64(0), tracks[0].ID)
	assert.Equal(t, int64(1), tracks[1].ID)
}

func TestTrackMatchedOncePerUpdate(t *testing.T) {
	tracker := NewTracker(DefaultConfig())

	box := geom.Box{X: 100, Y: 100, W: 50, H: 50}
	tracker.Update([]Detection{det(box, "A", 0.9)}, 1)

	// Two identical detections in one frame: the first claims the existing
	// track, which then becomes ineligible, so the second spawns a new one.
	tracker.Update([]Detection{det(box, "A", 0.9), det(box, "A", 0.9)}, 2)

	tracks := tracker.ActiveTracks()
	require.Len(t, tracks, 2)
	assert.Equal(t, int64(0), tracks[0].ID)
	assert.Equal(t, int64(1), tracks[1].ID)
	assert.Equal(t, 2, tracks[1].FirstSeen)
}

func TestIoUTieGoesToLowestID(t *testing.T) {
	cfg := DefaultConfig()
	cfg.IoUThreshold = 0.05
	tracker := NewTracker(cfg)

	// Two disjoint tracks.
	tracker.Update([]Detection{
		det(geom.Box{X: 0, Y: 0, W: 10, H: 10}, "A", 0.9),
		det(geom.Box{X: 20, Y: 0, W: 10, H: 10}, "B", 0.9),
	}, 1)

	// A detection overlapping both tracks with identical IoU.
	tracker.Update([]Detection{det(geom.Box{X: 7.5, Y: 0, W: 15, H: 10}, "A", 0.9)}, 2)

	tracks := tracker.ActiveTracks()
	require.Len(t, tracks, 2)
	// Track 0 won the tie: it was updated, track 1 was not.
	assert.Equal(t, 2, tracks[0].LastSeen)
	assert.Zero(t, tracks[0].MissingFrames)
	assert.Equal(t, 1, tracks[1].LastSeen)
	assert.Equal(t, 1, tracks[1].MissingFrames)
}

func TestMissingFramesBoundary(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxMissingFrames = 3
	cfg.MinSessionDuration = 0
	tracker := NewTracker(cfg)

	box := geom.Box{X: 100, Y: 100, W: 50, H: 50}
	tracker.Update([]Detection{det(box, "A", 0.9)}, 1)
	tracker.Update([]Detection{det(box, "A", 0.9)}, 2)

	// Three empty frames: missing_frames reaches exactly the maximum and the
	// track stays active.
	for frame := 3; frame <= 5; frame++ {
		tracker.Update(nil, frame)
	}
	tracks := tracker.ActiveTracks()
	require.Len(t, tracks, 1)
	assert.Equal(t, 3, tracks[0].MissingFrames)

	// One more empty frame pushes it strictly past the maximum.
	tracker.Update(nil, 6)
	active, completed := tracker.Counts()
	assert.Zero(t, active)
	assert.Equal(t, 1, completed)
}

func TestDropPolicyShortDuration(t *testing.T) {
	tracker := NewTracker(DefaultConfig())
	callbacks := 0
	tracker.AddConsumer(SessionConsumerFunc(func(Session) { callbacks++ }))

	box := geom.Box{X: 100, Y: 100, W: 50, H: 50}
	// Single matched frame: last_seen == first_seen, total duration 0 < 0.5s.
	tracker.Update([]Detection{det(box, "A", 0.8)}, 1)
	for frame := 2; frame <= 23; frame++ {
		tracker.Update(nil, frame)
	}

	active, completed := tracker.Counts()
	assert.Zero(t, active)
	assert.Zero(t, completed, "short track must not produce a session")
	assert.Zero(t, callbacks, "short track must not invoke callbacks")
}

func TestDropPolicyUnderSampled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinSessionDuration = 0
	tracker := NewTracker(cfg)

	box := geom.Box{X: 100, Y: 100, W: 50, H: 50}
	tracker.Update([]Detection{det(box, "A", 0.8)}, 1)

	// Only one gaze record on the books; fewer than 2 means drop even with
	// no duration floor.
	tracker.FinalizeAll()

	active, completed := tracker.Counts()
	assert.Zero(t, active)
	assert.Zero(t, completed)
}

func TestFinalizeAllEmptiesActiveSet(t *testing.T) {
	tracker := NewTracker(DefaultConfig())

	boxA := geom.Box{X: 0, Y: 0, W: 50, H: 50}
	boxB := geom.Box{X: 500, Y: 0, W: 50, H: 50}
	for frame := 1; frame <= 40; frame++ {
		tracker.Update([]Detection{det(boxA, "A", 0.8), det(boxB, "B", 0.8)}, frame)
	}

	tracker.FinalizeAll()

	active, completed := tracker.Counts()
	assert.Zero(t, active)
	assert.Equal(t, 2, completed)
}

// TestSessionLifecycleExample walks the worked example: 40 matched frames at
// 30fps with zone alternation, then 21 consecutive missing frames.
func TestSessionLifecycleExample(t *testing.T) {
	tracker := NewTracker(DefaultConfig()) // fps=30, iou=0.3, max_missing=20, min=0.5

	var sessions []Session
	tracker.AddConsumer(SessionConsumerFunc(func(s Session) { sessions = append(sessions, s) }))

	box := geom.Box{X: 100, Y: 100, W: 50, H: 50}
	zones := []string{"A", "A", "B", "B", "A"}
	tracker.Update([]Detection{det(box, "A", 0.8)}, 1)
	for frame := 2; frame <= 40; frame++ {
		z := zones[frame%len(zones)]
		tracker.Update([]Detection{det(box, z, 0.8)}, frame)
	}

	// Frames 41..61: 21 consecutive misses exceed max_missing=20.
	for frame := 41; frame <= 61; frame++ {
		tracker.Update(nil, frame)
	}

	require.Len(t, sessions, 1)
	s := sessions[0]
	assert.Equal(t, int64(0), s.ID)
	assert.Equal(t, 1, s.StartFrame)
	assert.Equal(t, 40, s.EndFrame)
	assert.InDelta(t, 39.0/30.0, s.TotalDuration, 1e-9)
	assert.Greater(t, s.TotalZoneTransitions, 0)
	assert.ElementsMatch(t, []string{"A", "B"}, s.UniqueZonesVisited)
	assert.InDelta(t, 0.8, s.AvgConfidence, 1e-9)

	// Every elapsed frame is attributed to exactly one zone interval.
	var sum float64
	for _, d := range s.ZoneDurations {
		sum += d
	}
	assert.InDelta(t, s.TotalDuration, sum, 1e-6)

	// Completed list matches what the consumer saw.
	completed := tracker.CompletedSessions()
	require.Len(t, completed, 1)
	assert.Equal(t, s.ID, completed[0].ID)
}

func TestZoneDurationsSumEqualsTotalDuration(t *testing.T) {
	tracker := NewTracker(DefaultConfig())

	box := geom.Box{X: 0, Y: 0, W: 50, H: 50}
	zones := []string{"A", "B", "C", "B", "A", "C"}
	for frame := 1; frame <= 90; frame++ {
		tracker.Update([]Detection{det(box, zones[(frame/7)%len(zones)], 0.7)}, frame)
	}
	tracker.FinalizeAll()

	sessions := tracker.CompletedSessions()
	require.Len(t, sessions, 1)
	s := sessions[0]

	var sum float64
	for _, d := range s.ZoneDurations {
		sum += d
	}
	require.True(t, math.Abs(sum-s.TotalDuration) < 1e-6,
		"zone durations sum %v != total duration %v", sum, s.TotalDuration)
}

func TestPeakInterestZonesTop3Descending(t *testing.T) {
	tracker := NewTracker(DefaultConfig())

	box := geom.Box{X: 0, Y: 0, W: 50, H: 50}
	// Dwell: A for 60 frames, B for 30, C for 15, D for 6.
	frame := 0
	for _, seg := range []struct {
		zone   string
		frames int
	}{{"A", 60}, {"B", 30}, {"C", 15}, {"D", 6}} {
		for i := 0; i < seg.frames; i++ {
			frame++
			tracker.Update([]Detection{det(box, seg.zone, 0.9)}, frame)
		}
	}
	tracker.FinalizeAll()

	sessions := tracker.CompletedSessions()
	require.Len(t, sessions, 1)
	peaks := sessions[0].PeakInterestZones
	require.Len(t, peaks, 3)
	assert.Equal(t, "A", peaks[0].Zone)
	assert.Equal(t, "B", peaks[1].Zone)
	assert.Equal(t, "C", peaks[2].Zone)
	assert.GreaterOrEqual(t, peaks[0].Seconds, peaks[1].Seconds)
	assert.GreaterOrEqual(t, peaks[1].Seconds, peaks[2].Seconds)
}

func TestConsumerPanicIsolated(t *testing.T) {
	tracker := NewTracker(DefaultConfig())

	second := 0
	tracker.AddConsumer(SessionConsumerFunc(func(Session) { panic("sink failure") }))
	tracker.AddConsumer(SessionConsumerFunc(func(Session) { second++ }))

	box := geom.Box{X: 0, Y: 0, W: 50, H: 50}
	for frame := 1; frame <= 40; frame++ {
		tracker.Update([]Detection{det(box, "A", 0.8)}, frame)
	}
	tracker.FinalizeAll()

	assert.Equal(t, 1, second, "second consumer must run despite first panicking")
	_, completed := tracker.Counts()
	assert.Equal(t, 1, completed, "completed list must survive a consumer panic")
}

func TestReadAccessorsReturnCopies(t *testing.T) {
	tracker := NewTracker(DefaultConfig())

	box := geom.Box{X: 0, Y: 0, W: 50, H: 50}
	for frame := 1; frame <= 40; frame++ {
		z := "A"
		if frame > 20 {
			z = "B"
		}
		tracker.Update([]Detection{det(box, z, 0.8)}, frame)
	}

	tracks := tracker.ActiveTracks()
	require.Len(t, tracks, 1)
	tracks[0].GazeHistory[0].Zone = "mutated"
	tracks[0].ZoneDurations()["A"] = -1

	fresh := tracker.ActiveTracks()
	assert.Equal(t, "A", fresh[0].GazeHistory[0].Zone)

	tracker.FinalizeAll()
	sessions := tracker.CompletedSessions()
	require.Len(t, sessions, 1)
	sessions[0].ZoneDurations["A"] = -99
	sessions[0].GazeHistory[0].Zone = "mutated"

	again := tracker.CompletedSessions()
	assert.NotEqual(t, -99.0, again[0].ZoneDurations["A"])
	assert.Equal(t, "A", again[0].GazeHistory[0].Zone)
}

func TestZoneLedgerInsertionOrder(t *testing.T) {
	l := newZoneLedger()
	l.Add("B", 1)
	l.Add("A", 1)
	l.Add("B", 2)
	l.Add("C", 1)

	pairs := l.Pairs()
	require.Len(t, pairs, 3)
	assert.Equal(t, "B", pairs[0].Zone)
	assert.Equal(t, 3.0, pairs[0].Seconds)
	assert.Equal(t, "A", pairs[1].Zone)
	assert.Equal(t, "C", pairs[2].Zone)
	assert.InDelta(t, 5.0, l.Total(), 1e-12)
}
