package track

// ZoneDwell is one (zone, accumulated seconds) entry.
type ZoneDwell struct {
	Zone    string  `json:"zone"`
	Seconds float64 `json:"seconds"`
}

// zoneLedger accumulates dwell seconds per zone while preserving the order in
// which zones were first seen. Plain Go maps have randomised iteration order,
// which would make tie-breaking in the top-N ranking non-deterministic across
// runs; the ledger keeps ranking stable.
type zoneLedger struct {
	order   []string
	seconds map[string]float64
}

func newZoneLedger() *zoneLedger {
	return &zoneLedger{seconds: make(map[string]float64)}
}

// Add accumulates dwell seconds for a zone, registering the zone on first use.
func (l *zoneLedger) Add(zone string, s float64) {
	if _, ok := l.seconds[zone]; !ok {
		l.order = append(l.order, zone)
	}
	l.seconds[zone] += s
}

// Get returns the accumulated seconds for a zone (0 if never seen).
func (l *zoneLedger) Get(zone string) float64 {
	return l.seconds[zone]
}

// Total returns the sum over all zones.
func (l *zoneLedger) Total() float64 {
	var total float64
	for _, s := range l.seconds {
		total += s
	}
	return total
}

// Snapshot returns an independent map copy of the ledger.
func (l *zoneLedger) Snapshot() map[string]float64 {
	out := make(map[string]float64, len(l.seconds))
	for z, s := range l.seconds {
		out[z] = s
	}
	return out
}

// Pairs returns the ledger entries in first-seen order.
func (l *zoneLedger) Pairs() []ZoneDwell {
	out := make([]ZoneDwell, 0, len(l.order))
	for _, z := range l.order {
		out = append(out, ZoneDwell{Zone: z, Seconds: l.seconds[z]})
	}
	return out
}
