// Package track implements the multi-object tracking state machine: identity
// assignment across frames via bounding-box overlap, zone-dwell bookkeeping,
// and session finalization.
package track

import (
	"sort"
	"sync"

	"github.com/gazefront/attention.report/internal/geom"
	"github.com/gazefront/attention.report/internal/monitoring"
)

// Track is a currently-visible identity. Ids are assigned monotonically and
// never reused. MissingFrames counts frames elapsed since the last successful
// match: it increments by exactly one per Update and resets to zero exactly
// when the track is matched.
type Track struct {
	ID             int64        `json:"id"`
	Box            geom.Box     `json:"box"`
	FirstSeen      int          `json:"first_seen"`
	LastSeen       int          `json:"last_seen"`
	MissingFrames  int          `json:"missing_frames"`
	CurrentZone    string       `json:"current_zone"`
	ZoneStartFrame int          `json:"zone_start_frame"`
	Confidence     float64      `json:"confidence"`
	GazeHistory    []GazeRecord `json:"gaze_history"`

	dwell *zoneLedger
}

// ZoneDurations returns an independent copy of the accumulated dwell seconds
// per zone. The currently open zone interval is not included until it closes.
func (tr *Track) ZoneDurations() map[string]float64 {
	return tr.dwell.Snapshot()
}

// clone returns a deep copy safe to hand to a concurrent reader.
func (tr *Track) clone() Track {
	out := *tr
	out.GazeHistory = append([]GazeRecord(nil), tr.GazeHistory...)
	out.dwell = &zoneLedger{
		order:   append([]string(nil), tr.dwell.order...),
		seconds: tr.dwell.Snapshot(),
	}
	return out
}

// Tracker owns the set of active tracks and the append-only list of finalized
// sessions. Update is called once per frame from a single processing loop;
// the read accessors return copies so a concurrent status reader never
// observes a track mid-mutation.
type Tracker struct {
	mu        sync.Mutex
	cfg       Config
	nextID    int64
	active    map[int64]*Track
	completed []Session
	consumers []SessionConsumer
}

// NewTracker creates a tracker with the given configuration.
func NewTracker(cfg Config) *Tracker {
	return &Tracker{
		cfg:    cfg,
		active: make(map[int64]*Track),
	}
}

// Config returns the tracker configuration.
func (t *Tracker) Config() Config {
	return t.cfg
}

// AddConsumer registers a consumer invoked synchronously, once, with each
// finalized session.
func (t *Tracker) AddConsumer(c SessionConsumer) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.consumers = append(t.consumers, c)
}

// Update consumes the full set of detections observed in one frame.
//
// Every active track's MissingFrames is incremented first. Detections are
// then matched in input order: each detection takes the not-yet-matched
// active track with maximum IoU, provided that maximum exceeds the
// configured threshold; otherwise a new track is created. Ties on IoU go to
// the lowest track id (a stable-ordering choice; the matching is greedy and
// input-order dependent by contract, not as a shortcut). Finally any track
// whose MissingFrames exceeds MaxMissingFrames is finalized and removed.
func (t *Tracker) Update(detections []Detection, frame int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, tr := range t.active {
		tr.MissingFrames++
	}

	matched := make(map[int64]bool)
	for _, det := range detections {
		bestID := t.findBestMatch(det, matched)
		if bestID >= 0 {
			matched[bestID] = true
			t.updateTrack(t.active[bestID], det, frame)
		} else {
			t.createTrack(det, frame)
		}
	}

	t.removeLostTracks()
}

// findBestMatch scans active tracks in ascending id order and returns the id
// of the track with the highest IoU above threshold, or -1 if none qualifies.
// The ascending scan makes tie-breaking deterministic: the first (lowest-id)
// track at the maximal IoU wins.
func (t *Tracker) findBestMatch(det Detection, matched map[int64]bool) int64 {
	bestID := int64(-1)
	bestIoU := 0.0
	for _, id := range t.sortedActiveIDs() {
		if matched[id] {
			continue
		}
		iou := geom.IoU(det.Box, t.active[id].Box)
		if iou > bestIoU && iou > t.cfg.IoUThreshold {
			bestIoU = iou
			bestID = id
		}
	}
	return bestID
}

func (t *Tracker) sortedActiveIDs() []int64 {
	ids := make([]int64, 0, len(t.active))
	for id := range t.active {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (t *Tracker) createTrack(det Detection, frame int) {
	id := t.nextID
	t.nextID++

	tr := &Track{
		ID:             id,
		Box:            det.Box,
		FirstSeen:      frame,
		LastSeen:       frame,
		CurrentZone:    det.Zone,
		ZoneStartFrame: frame,
		Confidence:     det.Confidence,
		dwell:          newZoneLedger(),
	}
	t.active[id] = tr
	t.appendGazeRecord(tr, det, frame)
}

func (t *Tracker) updateTrack(tr *Track, det Detection, frame int) {
	if tr.CurrentZone != det.Zone {
		// Close out the interval spent in the previous zone.
		tr.dwell.Add(tr.CurrentZone, float64(frame-tr.ZoneStartFrame)/t.cfg.FPS)
		tr.CurrentZone = det.Zone
		tr.ZoneStartFrame = frame
	}

	tr.Box = det.Box
	tr.LastSeen = frame
	tr.MissingFrames = 0
	tr.Confidence = det.Confidence
	t.appendGazeRecord(tr, det, frame)
}

func (t *Tracker) appendGazeRecord(tr *Track, det Detection, frame int) {
	tr.GazeHistory = append(tr.GazeHistory, GazeRecord{
		Frame:      frame,
		Zone:       det.Zone,
		Yaw:        det.Yaw,
		Pitch:      det.Pitch,
		Position:   det.Center,
		Confidence: det.Confidence,
		Timestamp:  float64(frame) / t.cfg.FPS,
	})
}

// removeLostTracks finalizes and removes every track whose MissingFrames has
// passed the configured maximum. A track at exactly MaxMissingFrames stays
// active.
func (t *Tracker) removeLostTracks() {
	for _, id := range t.sortedActiveIDs() {
		tr := t.active[id]
		if tr.MissingFrames > t.cfg.MaxMissingFrames {
			t.finalizeTrack(tr)
			delete(t.active, id)
		}
	}
}

// FinalizeAll force-finalizes every remaining active track, leaving the
// active set empty. Used at stream shutdown so no in-progress track is
// silently lost. Each track goes through the same session-or-drop decision
// as the removal pass.
func (t *Tracker) FinalizeAll() {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, id := range t.sortedActiveIDs() {
		t.finalizeTrack(t.active[id])
		delete(t.active, id)
	}
}

// finalizeTrack converts a track into a session, or drops it. The caller
// holds t.mu. The current zone interval is closed at LastSeen so the final
// partial interval is always counted, which keeps the sum of zone durations
// equal to the total duration.
func (t *Tracker) finalizeTrack(tr *Track) {
	tr.dwell.Add(tr.CurrentZone, float64(tr.LastSeen-tr.ZoneStartFrame)/t.cfg.FPS)

	totalDuration := float64(tr.LastSeen-tr.FirstSeen) / t.cfg.FPS

	// Drop very brief or under-sampled tracks. This is a deliberate filter
	// against detector flicker, not an error: no session, no notification.
	if totalDuration < t.cfg.MinSessionDuration || len(tr.GazeHistory) < 2 {
		monitoring.Logf("track %d dropped (duration=%.3fs, samples=%d)",
			tr.ID, totalDuration, len(tr.GazeHistory))
		return
	}

	session := Session{
		ID:                   tr.ID,
		StartFrame:           tr.FirstSeen,
		EndFrame:             tr.LastSeen,
		TotalDuration:        totalDuration,
		ZoneDurations:        tr.dwell.Snapshot(),
		GazeHistory:          tr.GazeHistory,
		UniqueZonesVisited:   uniqueZones(tr.GazeHistory),
		AvgConfidence:        meanConfidence(tr.GazeHistory),
		TotalZoneTransitions: countZoneTransitions(tr.GazeHistory),
		PeakInterestZones:    peakZones(tr.dwell, 3),
	}

	t.completed = append(t.completed, session)
	t.notifyConsumers(session)
}

// notifyConsumers delivers the session to every registered consumer. A
// panicking consumer is recovered and logged so the remaining consumers still
// run and the completed-sessions list stays intact.
func (t *Tracker) notifyConsumers(session Session) {
	for _, c := range t.consumers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					monitoring.Logf("session consumer panicked for session %d: %v", session.ID, r)
				}
			}()
			c.ConsumeSession(session)
		}()
	}
}

// countZoneTransitions counts adjacent gaze-record pairs whose zone differs.
// Consecutive flicker between two zones counts every crossing.
func countZoneTransitions(history []GazeRecord) int {
	transitions := 0
	for i := 1; i < len(history); i++ {
		if history[i].Zone != history[i-1].Zone {
			transitions++
		}
	}
	return transitions
}

// uniqueZones returns the distinct zones visited, in first-appearance order.
func uniqueZones(history []GazeRecord) []string {
	seen := make(map[string]bool)
	var zones []string
	for _, g := range history {
		if !seen[g.Zone] {
			seen[g.Zone] = true
			zones = append(zones, g.Zone)
		}
	}
	return zones
}

func meanConfidence(history []GazeRecord) float64 {
	if len(history) == 0 {
		return 0
	}
	var sum float64
	for _, g := range history {
		sum += g.Confidence
	}
	return sum / float64(len(history))
}

// peakZones returns the top-n ledger entries by dwell seconds, descending.
// The sort is stable over first-seen order, so ties rank in the order the
// zones were entered.
func peakZones(l *zoneLedger, n int) []ZoneDwell {
	pairs := l.Pairs()
	sort.SliceStable(pairs, func(i, j int) bool { return pairs[i].Seconds > pairs[j].Seconds })
	if len(pairs) > n {
		pairs = pairs[:n]
	}
	return pairs
}

// ActiveTracks returns deep copies of the currently active tracks, ascending
// by id. Safe for a concurrent status reader; the snapshot is taken under the
// tracker lock but is not atomic with respect to subsequent Updates.
func (t *Tracker) ActiveTracks() []Track {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]Track, 0, len(t.active))
	for _, id := range t.sortedActiveIDs() {
		out = append(out, t.active[id].clone())
	}
	return out
}

// CompletedSessions returns independent copies of all finalized sessions in
// completion order.
func (t *Tracker) CompletedSessions() []Session {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]Session, 0, len(t.completed))
	for _, s := range t.completed {
		out = append(out, s.clone())
	}
	return out
}

// Counts returns the number of active tracks and completed sessions.
func (t *Tracker) Counts() (active, completed int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.active), len(t.completed)
}
