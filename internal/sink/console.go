package sink

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/gazefront/attention.report/internal/analytics"
	"github.com/gazefront/attention.report/internal/track"
)

// Console prints human-readable session and aggregate summaries. Verbose adds
// the peak-interest breakdown to each session report.
type Console struct {
	w       io.Writer
	verbose bool

	sessionCount int
}

// NewConsole writes to stdout.
func NewConsole(verbose bool) *Console {
	return NewConsoleTo(os.Stdout, verbose)
}

// NewConsoleTo writes to an arbitrary writer.
func NewConsoleTo(w io.Writer, verbose bool) *Console {
	return &Console{w: w, verbose: verbose}
}

const consoleRule = "============================================================"

// WriteSession prints a per-session report.
func (c *Console) WriteSession(s track.Session) error {
	c.sessionCount++

	fmt.Fprintf(c.w, "\n%s\n", consoleRule)
	fmt.Fprintf(c.w, "FACE TRACKING SESSION COMPLETED - ID: %d\n", s.ID)
	fmt.Fprintln(c.w, consoleRule)
	fmt.Fprintf(c.w, "Total Duration: %.2f seconds\n", s.TotalDuration)
	fmt.Fprintf(c.w, "Frames: %d to %d\n", s.StartFrame, s.EndFrame)
	fmt.Fprintf(c.w, "Average Confidence: %.2f\n", s.AvgConfidence)
	fmt.Fprintf(c.w, "\nZones Visited: %s\n", strings.Join(s.UniqueZonesVisited, ", "))

	if s.TotalDuration > 0 {
		fmt.Fprintf(c.w, "\nTime Spent in Each Zone:\n")
		for _, zd := range sortedDwell(s.ZoneDurations) {
			percentage := zd.Seconds / s.TotalDuration * 100
			fmt.Fprintf(c.w, "  %s: %.2fs (%.1f%%)\n", zd.Zone, zd.Seconds, percentage)
		}
	}

	if c.verbose && len(s.PeakInterestZones) > 0 {
		fmt.Fprintf(c.w, "\nPeak Interest Zones:\n")
		peaks := s.PeakInterestZones
		if len(peaks) > 3 {
			peaks = peaks[:3]
		}
		for _, p := range peaks {
			fmt.Fprintf(c.w, "  - %s: %.2fs\n", p.Zone, p.Seconds)
		}
	}

	fmt.Fprintf(c.w, "%s\n\n", consoleRule)
	return nil
}

// WriteAggregate prints the population summary.
func (c *Console) WriteAggregate(a analytics.Aggregate) error {
	fmt.Fprintf(c.w, "\n%s\n", consoleRule)
	fmt.Fprintln(c.w, "OVERALL STATISTICS")
	fmt.Fprintln(c.w, consoleRule)
	fmt.Fprintf(c.w, "Total Sessions: %d\n", a.TotalSessions)
	fmt.Fprintf(c.w, "Average Session Duration: %.2fs\n", a.AvgSessionDuration)
	fmt.Fprintf(c.w, "Total Time Tracked: %.2fs\n", a.TotalTimeTracked)
	fmt.Fprintf(c.w, "Average Zones per Session: %.1f\n", a.AvgZonesPerSession)
	fmt.Fprintf(c.w, "Average Engagement Score: %.2f\n", a.AvgEngagementScore)

	if len(a.ZonePopularity) > 0 && a.TotalTimeTracked > 0 {
		fmt.Fprintf(c.w, "\nZone Popularity (by total time):\n")
		for _, zd := range sortedDwell(a.ZonePopularity) {
			percentage := zd.Seconds / a.TotalTimeTracked * 100
			fmt.Fprintf(c.w, "  %s: %.2fs (%.1f%%)\n", zd.Zone, zd.Seconds, percentage)
		}
	}

	if len(a.PeakHours) > 0 {
		fmt.Fprintf(c.w, "\nPeak Hours:\n")
		for _, h := range a.PeakHours {
			fmt.Fprintf(c.w, "  %02d:00 - %d sessions\n", h.Hour, h.Count)
		}
	}
	return nil
}

// Close is a no-op for console output.
func (c *Console) Close() error { return nil }

// SessionCount reports how many sessions have been printed.
func (c *Console) SessionCount() int { return c.sessionCount }

// sortedDwell ranks a zone duration map by dwell descending, breaking ties by
// zone name so output order is stable.
func sortedDwell(durations map[string]float64) []track.ZoneDwell {
	out := make([]track.ZoneDwell, 0, len(durations))
	for zone, d := range durations {
		out = append(out, track.ZoneDwell{Zone: zone, Seconds: d})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Seconds != out[j].Seconds {
			return out[i].Seconds > out[j].Seconds
		}
		return out[i].Zone < out[j].Zone
	})
	return out
}
