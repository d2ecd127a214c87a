// Package timing captures named instants over the life of a single probe
// and derives the millisecond durations between them.
package timing

import (
	"sync"
	"time"
)

// Phase is a named point in a protocol's lifecycle.
type Phase string

const (
	PhaseStart         Phase = "start"
	PhaseLookup        Phase = "lookup"
	PhaseConnect       Phase = "connect"
	PhaseSecureConnect Phase = "secureConnect"
	PhaseReadable      Phase = "readable"
	PhaseEnd           Phase = "end"
	PhaseClose         Phase = "close"
)

// Events maps each phase to the instant it first fired.
type Events map[Phase]time.Time

// Durations maps an interval name to whole milliseconds, or Missing when
// either endpoint was never recorded.
type Durations map[string]int64

// Missing marks an interval whose endpoints were not both observed.
const Missing = int64(-1)

// Recorder collects phase events for one probe. The probe goroutine and
// transport callbacks (httptrace) may record concurrently.
type Recorder struct {
	mu     sync.Mutex
	events Events
	now    func() time.Time
}

func NewRecorder() *Recorder {
	return &Recorder{
		events: make(Events, 8),
		now:    time.Now,
	}
}

// Record stores the current instant under p. The first write wins; protocol
// events that fire again (e.g. connect on a retried address) are ignored.
func (r *Recorder) Record(p Phase) {
	r.mu.Lock()
	if _, ok := r.events[p]; !ok {
		r.events[p] = r.now()
	}
	r.mu.Unlock()
}

// Snapshot returns a copy of the events recorded so far.
func (r *Recorder) Snapshot() Events {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(Events, len(r.events))
	for p, ts := range r.events {
		out[p] = ts
	}
	return out
}

// Finalize derives interval durations from the recorded events.
//
// readable is measured from the TLS handshake when one happened, else from
// connect. close is measured from the peer's half-close when seen, else from
// readable. connect falls back to start for targets dialed by literal IP,
// which never resolve.
func (r *Recorder) Finalize() Durations {
	ev := r.Snapshot()
	return Durations{
		"lookup":        between(ev, PhaseStart, PhaseLookup),
		"connect":       between(ev, pick(ev, PhaseLookup, PhaseStart), PhaseConnect),
		"secureConnect": between(ev, PhaseConnect, PhaseSecureConnect),
		"readable":      between(ev, pick(ev, PhaseSecureConnect, PhaseConnect), PhaseReadable),
		"close":         between(ev, pick(ev, PhaseEnd, PhaseReadable), PhaseClose),
		"total":         between(ev, PhaseStart, PhaseClose),
	}
}

// pick returns preferred when it was recorded, else fallback.
func pick(ev Events, preferred, fallback Phase) Phase {
	if _, ok := ev[preferred]; ok {
		return preferred
	}
	return fallback
}

func between(ev Events, a, b Phase) int64 {
	from, okFrom := ev[a]
	to, okTo := ev[b]
	if !okFrom || !okTo {
		return Missing
	}
	return to.Sub(from).Round(time.Millisecond).Milliseconds()
}
