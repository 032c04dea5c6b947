// Package api serves the tracking pipeline's read-side HTTP surface: status,
// live tracks, finalized sessions and aggregate analytics.
package api

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gazefront/attention.report/internal/analytics"
	"github.com/gazefront/attention.report/internal/db"
	"github.com/gazefront/attention.report/internal/pipeline"
	"github.com/gazefront/attention.report/internal/version"
	"github.com/gazefront/attention.report/internal/zone"
)

// ANSI escape codes for request logging
const colorCyan = "\033[36m"
const colorReset = "\033[0m"
const colorYellow = "\033[33m"
const colorBoldGreen = "\033[1;32m"
const colorBoldRed = "\033[1;31m"

type Server struct {
	runner *pipeline.Runner
	mapper zone.Mapper
	db     *db.DB // nil when database output is disabled
	hub    *Hub
}

// NewServer wires the HTTP surface over a running pipeline. database may be
// nil; the persisted-session endpoints then report 404.
func NewServer(runner *pipeline.Runner, mapper zone.Mapper, database *db.DB) *Server {
	return &Server{
		runner: runner,
		mapper: mapper,
		db:     database,
		hub:    NewHub(),
	}
}

// Hub returns the live-feed hub so the caller can run its broadcast loop.
func (s *Server) Hub() *Hub {
	return s.hub
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Flush() {
	if flusher, ok := lrw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 400:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	default:
		return strconv.Itoa(statusCode)
	}
}

// LoggingMiddleware logs method, path, status, and duration
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		log.Printf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/status", s.showStatus)
	mux.HandleFunc("/api/version", s.showVersion)
	mux.HandleFunc("/api/tracks", s.listTracks)
	mux.HandleFunc("/api/sessions", s.listSessions)
	mux.HandleFunc("/api/aggregate", s.showAggregate)
	mux.HandleFunc("/api/zones", s.listZones)
	mux.HandleFunc("/api/db/sessions", s.listStoredSessions)
	mux.HandleFunc("/charts/zones", s.zonePopularityChart)
	mux.HandleFunc("/charts/sessions", s.sessionScatterChart)
	mux.HandleFunc("/live", s.liveFeed)
	return mux
}

func (s *Server) writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("failed to write response: %v", err)
	}
}

func (s *Server) showStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	s.writeJSON(w, s.runner.Status())
}

func (s *Server) showVersion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	s.writeJSON(w, version.Get())
}

func (s *Server) listTracks(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	s.writeJSON(w, s.runner.Tracker().ActiveTracks())
}

func (s *Server) listSessions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	sessions := s.runner.Tracker().CompletedSessions()

	// Optional per-session metrics view for dashboard consumption.
	if r.URL.Query().Get("metrics") == "true" {
		metrics := make([]analytics.SessionMetrics, 0, len(sessions))
		for _, sess := range sessions {
			metrics = append(metrics, analytics.ComputeSessionMetrics(sess))
		}
		s.writeJSON(w, metrics)
		return
	}

	s.writeJSON(w, sessions)
}

func (s *Server) showAggregate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	s.writeJSON(w, analytics.AggregateSessions(s.runner.Tracker().CompletedSessions()))
}

func (s *Server) listZones(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	if s.mapper == nil {
		s.writeJSONError(w, http.StatusNotFound, "no zone mapper configured")
		return
	}
	s.writeJSON(w, s.mapper.Zones())
}

func (s *Server) listStoredSessions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	if s.db == nil {
		s.writeJSONError(w, http.StatusNotFound, "database output is disabled")
		return
	}

	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		v, err := strconv.Atoi(l)
		if err != nil || v < 1 || v > 1000 {
			s.writeJSONError(w, http.StatusBadRequest, "Invalid 'limit' parameter")
			return
		}
		limit = v
	}

	summaries, err := s.db.SessionSummaries(limit)
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to query sessions")
		return
	}
	s.writeJSON(w, summaries)
}
