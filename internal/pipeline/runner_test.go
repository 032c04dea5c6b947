package pipeline

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gazefront/attention.report/internal/analytics"
	"github.com/gazefront/attention.report/internal/geom"
	"github.com/gazefront/attention.report/internal/track"
	"github.com/gazefront/attention.report/internal/zone"
)

type captureSink struct {
	sessions   []track.Session
	aggregates []analytics.Aggregate
	closed     bool
}

func (c *captureSink) WriteSession(s track.Session) error {
	c.sessions = append(c.sessions, s)
	return nil
}

func (c *captureSink) WriteAggregate(a analytics.Aggregate) error {
	c.aggregates = append(c.aggregates, a)
	return nil
}

func (c *captureSink) Close() error {
	c.closed = true
	return nil
}

func detAt(x float64, zoneName string) track.Detection {
	return track.Detection{
		Box:        geom.Box{X: x, Y: 100, W: 50, H: 50},
		Zone:       zoneName,
		Confidence: 0.9,
		Center:     track.Point{X: x + 25, Y: 125},
	}
}

func steadyFrames(n int, zoneName string) []Frame {
	frames := make([]Frame, n)
	for i := range frames {
		frames[i] = Frame{Index: i, Detections: []track.Detection{detAt(100, zoneName)}}
	}
	return frames
}

func TestRunProducesSessionAndAggregate(t *testing.T) {
	out := &captureSink{}
	tracker := track.NewTracker(track.DefaultConfig())
	r := NewRunner(tracker, NewSliceSource(steadyFrames(40, "Cake_Display")), nil, out, 1)

	require.NoError(t, r.Run(context.Background()))

	require.Len(t, out.sessions, 1)
	s := out.sessions[0]
	assert.Equal(t, int64(0), s.ID)
	assert.InDelta(t, 39.0/30.0, s.TotalDuration, 1e-9)
	assert.Equal(t, []string{"Cake_Display"}, s.UniqueZonesVisited)

	require.Len(t, out.aggregates, 1)
	assert.Equal(t, 1, out.aggregates[0].TotalSessions)

	st := r.Status()
	assert.Equal(t, 40, st.FramesProcessed)
	assert.Equal(t, 0, st.FramesSkipped)
	assert.True(t, st.Finished)
}

func TestRunFrameSkip(t *testing.T) {
	out := &captureSink{}
	tracker := track.NewTracker(track.DefaultConfig())
	r := NewRunner(tracker, NewSliceSource(steadyFrames(40, "Cake_Display")), nil, out, 2)

	require.NoError(t, r.Run(context.Background()))

	st := r.Status()
	assert.Equal(t, 20, st.FramesProcessed)
	assert.Equal(t, 20, st.FramesSkipped)
	// The session still spans the full observed frame range.
	require.Len(t, out.sessions, 1)
	assert.Equal(t, 38, out.sessions[0].EndFrame)
}

func TestRunResolvesUnlabeledZones(t *testing.T) {
	frames := make([]Frame, 40)
	for i := range frames {
		det := detAt(100, "")
		det.Center = track.Point{X: 100, Y: 500} // left third of a 1920-wide frame
		det.Yaw = 0
		frames[i] = Frame{Index: i, Width: 1920, Height: 1080, Detections: []track.Detection{det}}
	}

	out := &captureSink{}
	tracker := track.NewTracker(track.DefaultConfig())
	r := NewRunner(tracker, NewSliceSource(frames), zone.NewLayoutMapper(), out, 1)

	require.NoError(t, r.Run(context.Background()))

	require.Len(t, out.sessions, 1)
	assert.Equal(t, []string{zone.ZonePastryShelves}, out.sessions[0].UniqueZonesVisited)
}

func TestRunPreLabeledZonesPassThroughMapper(t *testing.T) {
	out := &captureSink{}
	tracker := track.NewTracker(track.DefaultConfig())
	r := NewRunner(tracker, NewSliceSource(steadyFrames(40, "Checkout")), zone.NewLayoutMapper(), out, 1)

	require.NoError(t, r.Run(context.Background()))

	require.Len(t, out.sessions, 1)
	assert.Equal(t, []string{"Checkout"}, out.sessions[0].UniqueZonesVisited)
}

func TestRunCancelledContextStillFlushes(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := &captureSink{}
	tracker := track.NewTracker(track.DefaultConfig())
	r := NewRunner(tracker, NewSliceSource(steadyFrames(40, "Cake_Display")), nil, out, 1)

	require.NoError(t, r.Run(ctx))

	assert.Empty(t, out.sessions, "no frames were processed")
	require.Len(t, out.aggregates, 1, "aggregate is written even on cancel")
	assert.Equal(t, 0, out.aggregates[0].TotalSessions)
}

func TestReplaySource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "capture.jsonl")
	body := `{"frame": 0, "detections": [{"box": {"x": 1, "y": 2, "w": 3, "h": 4}, "zone": "Entrance", "confidence": 0.8}]}

{"frame": 1, "detections": []}
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	src, err := OpenReplay(path)
	require.NoError(t, err)
	defer src.Close()

	ctx := context.Background()

	f, err := src.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, f.Index)
	require.Len(t, f.Detections, 1)
	assert.Equal(t, "Entrance", f.Detections[0].Zone)
	assert.Equal(t, geom.Box{X: 1, Y: 2, W: 3, H: 4}, f.Detections[0].Box)

	f, err = src.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, f.Index)

	_, err = src.Next(ctx)
	assert.ErrorIs(t, err, io.EOF)
}

func TestReplaySourceRejectsMalformedLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "capture.jsonl")
	require.NoError(t, os.WriteFile(path, []byte("not json\n"), 0o644))

	src, err := OpenReplay(path)
	require.NoError(t, err)
	defer src.Close()

	_, err = src.Next(context.Background())
	assert.Error(t, err)
}

func TestSliceSourceHonorsContext(t *testing.T) {
	src := NewSliceSource(steadyFrames(2, "Entrance"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := src.Next(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
