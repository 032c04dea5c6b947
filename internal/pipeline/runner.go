package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/gazefront/attention.report/internal/analytics"
	"github.com/gazefront/attention.report/internal/monitoring"
	"github.com/gazefront/attention.report/internal/sink"
	"github.com/gazefront/attention.report/internal/track"
	"github.com/gazefront/attention.report/internal/zone"
)

// Default camera frame dimensions when a source doesn't carry them.
const (
	defaultFrameWidth  = 1920
	defaultFrameHeight = 1080
)

// Runner pulls frames from a source, resolves unlabeled detections through
// the zone mapper, feeds the tracker, and writes the final aggregate when the
// stream ends. Sessions flow to the sinks as they finalize, via the tracker's
// consumer hook.
type Runner struct {
	tracker   *track.Tracker
	source    FrameSource
	mapper    zone.Mapper
	out       sink.Sink
	frameSkip int

	mu        sync.Mutex
	processed int
	skipped   int
	lastFrame int
	finished  bool
}

// NewRunner wires a runner. mapper may be nil when every detection arrives
// pre-labeled; frameSkip values below 1 are treated as 1.
func NewRunner(tracker *track.Tracker, source FrameSource, mapper zone.Mapper, out sink.Sink, frameSkip int) *Runner {
	if frameSkip < 1 {
		frameSkip = 1
	}
	tracker.AddConsumer(sink.Consumer(out))
	return &Runner{
		tracker:   tracker,
		source:    source,
		mapper:    mapper,
		out:       out,
		frameSkip: frameSkip,
	}
}

// Run processes the stream until the source is exhausted or the context is
// cancelled. On either exit, every remaining track is finalized and the
// aggregate summary is written, so a cancelled run still flushes its data.
func (r *Runner) Run(ctx context.Context) error {
	var runErr error
	for {
		frame, err := r.source.Next(ctx)
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, context.Canceled) {
				runErr = fmt.Errorf("frame source failed: %w", err)
			}
			break
		}

		if frame.Index%r.frameSkip != 0 {
			r.mu.Lock()
			r.skipped++
			r.mu.Unlock()
			continue
		}

		r.tracker.Update(r.resolveZones(frame), frame.Index)

		r.mu.Lock()
		r.processed++
		r.lastFrame = frame.Index
		r.mu.Unlock()
	}

	r.tracker.FinalizeAll()

	agg := analytics.AggregateSessions(r.tracker.CompletedSessions())
	if err := r.out.WriteAggregate(agg); err != nil {
		monitoring.Logf("aggregate write failed: %v", err)
		if runErr == nil {
			runErr = err
		}
	}

	r.mu.Lock()
	r.finished = true
	r.mu.Unlock()
	return runErr
}

// resolveZones fills in the zone label of any detection that arrived without
// one. Pre-labeled detections pass through untouched.
func (r *Runner) resolveZones(frame Frame) []track.Detection {
	if r.mapper == nil {
		return frame.Detections
	}

	width, height := frame.Width, frame.Height
	if width <= 0 {
		width = defaultFrameWidth
	}
	if height <= 0 {
		height = defaultFrameHeight
	}

	out := append([]track.Detection(nil), frame.Detections...)
	for i, det := range out {
		if det.Zone != "" {
			continue
		}
		out[i].Zone = r.mapper.MapToZone(zone.GazeContext{
			Yaw:         det.Yaw,
			Pitch:       det.Pitch,
			CenterX:     det.Center.X,
			CenterY:     det.Center.Y,
			FrameWidth:  width,
			FrameHeight: height,
			Confidence:  det.Confidence,
		})
	}
	return out
}

// Status is a point-in-time snapshot of pipeline progress.
type Status struct {
	FramesProcessed   int  `json:"frames_processed"`
	FramesSkipped     int  `json:"frames_skipped"`
	LastFrame         int  `json:"last_frame"`
	ActiveTracks      int  `json:"active_tracks"`
	CompletedSessions int  `json:"completed_sessions"`
	Finished          bool `json:"finished"`
}

// Status reports current progress. Safe to call concurrently with Run.
func (r *Runner) Status() Status {
	active, completed := r.tracker.Counts()

	r.mu.Lock()
	defer r.mu.Unlock()
	return Status{
		FramesProcessed:   r.processed,
		FramesSkipped:     r.skipped,
		LastFrame:         r.lastFrame,
		ActiveTracks:      active,
		CompletedSessions: completed,
		Finished:          r.finished,
	}
}

// Tracker exposes the underlying tracker for read-side consumers such as the
// HTTP API.
func (r *Runner) Tracker() *track.Tracker {
	return r.tracker
}
