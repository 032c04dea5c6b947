package sink

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gazefront/attention.report/internal/analytics"
	"github.com/gazefront/attention.report/internal/track"
)

// JSONFiles writes one file per session plus rolling aggregate snapshots into
// an output directory. Not safe for concurrent use; the pipeline serializes
// writes.
type JSONFiles struct {
	dir      string
	sessions []jsonSession
}

type jsonSession struct {
	track.Session
	Timestamp string `json:"timestamp"`
}

type jsonAggregate struct {
	analytics.Aggregate
	Timestamp string `json:"timestamp"`
}

// NewJSONFiles creates the output directory if needed.
func NewJSONFiles(dir string) (*JSONFiles, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output dir %s: %w", dir, err)
	}
	return &JSONFiles{dir: dir}, nil
}

// WriteSession writes session_<id>.json and records the session for the
// all-sessions rollup.
func (j *JSONFiles) WriteSession(s track.Session) error {
	rec := jsonSession{Session: s, Timestamp: time.Now().Format(time.RFC3339)}
	j.sessions = append(j.sessions, rec)

	path := filepath.Join(j.dir, fmt.Sprintf("session_%d.json", s.ID))
	return writeJSONFile(path, rec)
}

// WriteAggregate writes aggregate_analytics.json and refreshes
// all_sessions.json with every session seen so far.
func (j *JSONFiles) WriteAggregate(a analytics.Aggregate) error {
	rec := jsonAggregate{Aggregate: a, Timestamp: time.Now().Format(time.RFC3339)}
	if err := writeJSONFile(filepath.Join(j.dir, "aggregate_analytics.json"), rec); err != nil {
		return err
	}

	sessions := j.sessions
	if sessions == nil {
		sessions = []jsonSession{}
	}
	return writeJSONFile(filepath.Join(j.dir, "all_sessions.json"), sessions)
}

// Close is a no-op; every write is flushed as it happens.
func (j *JSONFiles) Close() error { return nil }

func writeJSONFile(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
