// Package db persists session and aggregate analytics to sqlite. It
// implements the sink interface so the pipeline can treat it like any other
// writer.
package db

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/gazefront/attention.report/internal/analytics"
	"github.com/gazefront/attention.report/internal/track"
)

type DB struct {
	*sql.DB
}

// New opens (or creates) the analytics database and ensures the base schema
// exists. Versioned schema changes on top of the base go through MigrateUp.
func New(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS sessions (
			session_id            INTEGER PRIMARY KEY,
			timestamp             TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			start_frame           INTEGER,
			end_frame             INTEGER,
			duration              DOUBLE,
			zones_visited         INTEGER,
			zone_transitions      INTEGER,
			avg_confidence        DOUBLE,
			primary_zone          TEXT,
			primary_zone_duration DOUBLE,
			engagement_score      DOUBLE,
			path_complexity       DOUBLE
		);
		CREATE TABLE IF NOT EXISTS zone_durations (
			id                    INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id            INTEGER,
			zone_name             TEXT,
			duration              DOUBLE,
			percentage            DOUBLE,
			FOREIGN KEY(session_id) REFERENCES sessions(session_id)
		);
		CREATE TABLE IF NOT EXISTS gaze_history (
			id                    INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id            INTEGER,
			frame                 INTEGER,
			zone                  TEXT,
			yaw                   DOUBLE,
			pitch                 DOUBLE,
			position_x            DOUBLE,
			position_y            DOUBLE,
			confidence            DOUBLE,
			timestamp             DOUBLE,
			FOREIGN KEY(session_id) REFERENCES sessions(session_id)
		);
		CREATE TABLE IF NOT EXISTS aggregate_stats (
			id                    INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id                TEXT,
			timestamp             TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			total_sessions        INTEGER,
			avg_session_duration  DOUBLE,
			total_time_tracked    DOUBLE,
			avg_zones_per_session DOUBLE,
			avg_engagement_score  DOUBLE
		);
	`)
	if err != nil {
		return nil, err
	}

	return &DB{db}, nil
}

// gazeSampleRate keeps one in ten gaze records; full history stays in the
// JSON output when enabled.
const gazeSampleRate = 10

// WriteSession stores the session row, its per-zone dwell breakdown and a
// sampled gaze history in one transaction.
func (db *DB) WriteSession(s track.Session) error {
	m := analytics.ComputeSessionMetrics(s)

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin session transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO sessions (
			session_id, start_frame, end_frame, duration, zones_visited,
			zone_transitions, avg_confidence, primary_zone, primary_zone_duration,
			engagement_score, path_complexity
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.StartFrame, s.EndFrame, s.TotalDuration, m.ZonesVisited,
		m.ZoneTransitions, m.AvgConfidence, m.PrimaryZone, m.PrimaryZoneDuration,
		m.EngagementScore, m.PathComplexity,
	)
	if err != nil {
		return fmt.Errorf("failed to insert session %d: %w", s.ID, err)
	}

	for zone, duration := range s.ZoneDurations {
		var percentage float64
		if s.TotalDuration > 0 {
			percentage = duration / s.TotalDuration * 100
		}
		_, err = tx.Exec(`
			INSERT INTO zone_durations (session_id, zone_name, duration, percentage)
			VALUES (?, ?, ?, ?)`,
			s.ID, zone, duration, percentage,
		)
		if err != nil {
			return fmt.Errorf("failed to insert zone duration for session %d: %w", s.ID, err)
		}
	}

	for i, gaze := range s.GazeHistory {
		if i%gazeSampleRate != 0 {
			continue
		}
		_, err = tx.Exec(`
			INSERT INTO gaze_history (
				session_id, frame, zone, yaw, pitch,
				position_x, position_y, confidence, timestamp
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			s.ID, gaze.Frame, gaze.Zone, gaze.Yaw, gaze.Pitch,
			gaze.Position.X, gaze.Position.Y, gaze.Confidence, gaze.Timestamp,
		)
		if err != nil {
			return fmt.Errorf("failed to insert gaze record for session %d: %w", s.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit session %d: %w", s.ID, err)
	}
	return nil
}

// WriteAggregate appends a population snapshot tagged with a fresh run id.
func (db *DB) WriteAggregate(a analytics.Aggregate) error {
	_, err := db.Exec(`
		INSERT INTO aggregate_stats (
			run_id, total_sessions, avg_session_duration, total_time_tracked,
			avg_zones_per_session, avg_engagement_score
		) VALUES (?, ?, ?, ?, ?, ?)`,
		uuid.NewString(), a.TotalSessions, a.AvgSessionDuration, a.TotalTimeTracked,
		a.AvgZonesPerSession, a.AvgEngagementScore,
	)
	if err != nil {
		return fmt.Errorf("failed to insert aggregate stats: %w", err)
	}
	return nil
}

// SessionSummary is one row of the persisted session table.
type SessionSummary struct {
	SessionID       int64   `json:"session_id"`
	StartFrame      int     `json:"start_frame"`
	EndFrame        int     `json:"end_frame"`
	Duration        float64 `json:"duration"`
	ZonesVisited    int     `json:"zones_visited"`
	PrimaryZone     string  `json:"primary_zone"`
	EngagementScore float64 `json:"engagement_score"`
}

// SessionSummaries returns the most recent persisted sessions, newest first,
// capped at limit.
func (db *DB) SessionSummaries(limit int) ([]SessionSummary, error) {
	rows, err := db.Query(`
		SELECT session_id, start_frame, end_frame, duration, zones_visited,
		       primary_zone, engagement_score
		FROM sessions
		ORDER BY session_id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	summaries := []SessionSummary{}
	for rows.Next() {
		var s SessionSummary
		err := rows.Scan(&s.SessionID, &s.StartFrame, &s.EndFrame, &s.Duration,
			&s.ZonesVisited, &s.PrimaryZone, &s.EngagementScore)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session row: %w", err)
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

// ZoneTotals returns the total persisted dwell time per zone.
func (db *DB) ZoneTotals() (map[string]float64, error) {
	rows, err := db.Query(`
		SELECT zone_name, SUM(duration)
		FROM zone_durations
		GROUP BY zone_name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query zone totals: %w", err)
	}
	defer rows.Close()

	totals := make(map[string]float64)
	for rows.Next() {
		var zone string
		var total float64
		if err := rows.Scan(&zone, &total); err != nil {
			return nil, fmt.Errorf("failed to scan zone total: %w", err)
		}
		totals[zone] = total
	}
	return totals, rows.Err()
}
