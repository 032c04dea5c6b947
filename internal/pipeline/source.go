// Package pipeline drives frames from a source through the tracker and out to
// the configured analytics sinks.
package pipeline

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/gazefront/attention.report/internal/track"
)

// Frame is one unit of input: every detection observed at one frame index.
// Width and Height describe the camera frame; when zero the runner falls back
// to its configured defaults for zone mapping.
type Frame struct {
	Index      int               `json:"frame"`
	Width      float64           `json:"width,omitempty"`
	Height     float64           `json:"height,omitempty"`
	Detections []track.Detection `json:"detections"`
}

// FrameSource yields frames in order. Next returns io.EOF when the stream is
// exhausted and ctx.Err() when the context is cancelled first.
type FrameSource interface {
	Next(ctx context.Context) (Frame, error)
	Close() error
}

// ReplaySource reads newline-delimited JSON frames from a capture file. Blank
// lines are skipped, so captures may be padded for readability.
type ReplaySource struct {
	f       *os.File
	scanner *bufio.Scanner
	line    int
}

// OpenReplay opens a JSONL capture for replay.
func OpenReplay(path string) (*ReplaySource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open replay file: %w", err)
	}
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	return &ReplaySource{f: f, scanner: scanner}, nil
}

// Next returns the next recorded frame.
func (r *ReplaySource) Next(ctx context.Context) (Frame, error) {
	for {
		if err := ctx.Err(); err != nil {
			return Frame{}, err
		}
		if !r.scanner.Scan() {
			if err := r.scanner.Err(); err != nil {
				return Frame{}, fmt.Errorf("replay read failed at line %d: %w", r.line, err)
			}
			return Frame{}, io.EOF
		}
		r.line++
		line := r.scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var f Frame
		if err := json.Unmarshal(line, &f); err != nil {
			return Frame{}, fmt.Errorf("replay line %d is not a valid frame: %w", r.line, err)
		}
		return f, nil
	}
}

// Close closes the underlying file.
func (r *ReplaySource) Close() error {
	return r.f.Close()
}

// SliceSource replays an in-memory frame list. Used by tests and synthetic
// demos.
type SliceSource struct {
	frames []Frame
	pos    int
}

// NewSliceSource copies the given frames into a source.
func NewSliceSource(frames []Frame) *SliceSource {
	return &SliceSource{frames: append([]Frame(nil), frames...)}
}

// Next returns the next frame or io.EOF.
func (s *SliceSource) Next(ctx context.Context) (Frame, error) {
	if err := ctx.Err(); err != nil {
		return Frame{}, err
	}
	if s.pos >= len(s.frames) {
		return Frame{}, io.EOF
	}
	f := s.frames[s.pos]
	s.pos++
	return f, nil
}

// Close is a no-op.
func (s *SliceSource) Close() error { return nil }
