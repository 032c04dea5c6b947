package api

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"sort"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/gazefront/attention.report/internal/analytics"
)

// zonePopularityChart renders a bar chart (HTML) of total dwell seconds per
// zone across all completed sessions. Debugging-only endpoint, no auth.
func (s *Server) zonePopularityChart(w http.ResponseWriter, r *http.Request) {
	agg := analytics.AggregateSessions(s.runner.Tracker().CompletedSessions())
	if len(agg.ZonePopularity) == 0 {
		s.writeJSONError(w, http.StatusNotFound, "no completed sessions yet")
		return
	}

	zones := make([]string, 0, len(agg.ZonePopularity))
	for zone := range agg.ZonePopularity {
		zones = append(zones, zone)
	}
	sort.Slice(zones, func(i, j int) bool {
		return agg.ZonePopularity[zones[i]] > agg.ZonePopularity[zones[j]]
	})

	data := make([]opts.BarData, 0, len(zones))
	for _, zone := range zones {
		data = append(data, opts.BarData{Value: agg.ZonePopularity[zone]})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Zone Popularity", Theme: "dark", Width: "900px", Height: "500px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Zone Popularity",
			Subtitle: fmt.Sprintf("sessions=%d total=%.1fs", agg.TotalSessions, agg.TotalTimeTracked),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Name: "dwell (s)"}),
	)
	bar.SetXAxis(zones)
	bar.AddSeries("dwell", data)

	renderChart(w, s, bar)
}

// sessionScatterChart renders engagement score against session duration, one
// point per completed session.
func (s *Server) sessionScatterChart(w http.ResponseWriter, r *http.Request) {
	sessions := s.runner.Tracker().CompletedSessions()
	if len(sessions) == 0 {
		s.writeJSONError(w, http.StatusNotFound, "no completed sessions yet")
		return
	}

	data := make([]opts.ScatterData, 0, len(sessions))
	for _, sess := range sessions {
		data = append(data, opts.ScatterData{
			Value: []interface{}{sess.TotalDuration, analytics.EngagementScore(sess), sess.ID},
		})
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Session Engagement", Theme: "dark", Width: "900px", Height: "500px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Session Engagement",
			Subtitle: fmt.Sprintf("sessions=%d", len(sessions)),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "duration (s)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: "engagement", NameLocation: "middle", NameGap: 30}),
	)
	scatter.AddSeries("sessions", data, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 8}))

	renderChart(w, s, scatter)
}

type chartRenderer interface {
	Render(w io.Writer) error
}

func renderChart(w http.ResponseWriter, s *Server, c chartRenderer) {
	var buf bytes.Buffer
	if err := c.Render(&buf); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to render chart: %v", err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}
