// Package sink defines the contract analytics records are written through,
// plus the console, JSON file and composite writers. The sqlite writer lives
// in internal/db and satisfies the same interface.
package sink

import (
	"errors"

	"github.com/gazefront/attention.report/internal/analytics"
	"github.com/gazefront/attention.report/internal/monitoring"
	"github.com/gazefront/attention.report/internal/track"
)

// Sink receives finalized sessions and aggregate summaries. WriteSession is
// called once per finalized, non-dropped session; WriteAggregate once per
// aggregation cycle. Implementations must tolerate Close being called once
// after the last write.
type Sink interface {
	WriteSession(track.Session) error
	WriteAggregate(analytics.Aggregate) error
	Close() error
}

// Composite fans every call out to all member sinks. An error from one sink
// does not stop delivery to the others; the errors are joined.
type Composite struct {
	sinks []Sink
}

// NewComposite builds a composite over the given sinks.
func NewComposite(sinks ...Sink) *Composite {
	return &Composite{sinks: sinks}
}

// WriteSession delivers the session to every sink.
func (c *Composite) WriteSession(s track.Session) error {
	var errs []error
	for _, snk := range c.sinks {
		if err := snk.WriteSession(s); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// WriteAggregate delivers the aggregate to every sink.
func (c *Composite) WriteAggregate(a analytics.Aggregate) error {
	var errs []error
	for _, snk := range c.sinks {
		if err := snk.WriteAggregate(a); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close closes every sink, returning the joined errors.
func (c *Composite) Close() error {
	var errs []error
	for _, snk := range c.sinks {
		if err := snk.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Consumer adapts a Sink to the tracker's session-consumer interface. Write
// errors are logged and swallowed: a failing sink must never abort a
// finalize pass.
func Consumer(s Sink) track.SessionConsumer {
	return track.SessionConsumerFunc(func(sess track.Session) {
		if err := s.WriteSession(sess); err != nil {
			monitoring.Logf("sink write failed for session %d: %v", sess.ID, err)
		}
	})
}
