package session

import (
	"sync"
	"time"

	"github.com/jwebster45206/lifeskills-engine/pkg/events"
)

// Timer is a scheduled callback that can be stopped.
type Timer interface {
	Stop() bool
}

// Clock schedules callbacks. SystemClock uses the runtime timer; tests use a
// manual clock.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type systemClock struct{}

func (systemClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// SystemClock returns a Clock backed by time.AfterFunc.
func SystemClock() Clock {
	return systemClock{}
}

// Delays controls when each event stage is revealed, measured from the
// moment a turn is scheduled.
type Delays struct {
	Tip     time.Duration
	Advance time.Duration
}

// DefaultDelays shows the tip after one second and advances after one and a
// half.
var DefaultDelays = Delays{
	Tip:     1 * time.Second,
	Advance: 1500 * time.Millisecond,
}

// TokenSource reports whether a session token is still current.
// *Controller implements it.
type TokenSource interface {
	TokenValid(token uint64) bool
}

// Pacer reveals a turn's events over time. It never changes player state;
// a delivery whose token has gone stale is dropped.
type Pacer struct {
	mu     sync.Mutex
	source TokenSource
	clock  Clock
	delays Delays

	// timers holds outstanding deliveries; a timer leaves the map when it
	// fires. A nil entry is reserved for a timer still being created.
	timers map[uint64]Timer
	nextID uint64
	gen    uint64 // bumped by Cancel
}

// NewPacer creates a pacer. A nil clock means SystemClock.
func NewPacer(source TokenSource, clock Clock, delays Delays) *Pacer {
	if clock == nil {
		clock = SystemClock()
	}
	return &Pacer{source: source, clock: clock, delays: delays, timers: make(map[uint64]Timer)}
}

// Schedule delivers the immediate events now and the tip and advance stages
// after their delays. deliver may be called from another goroutine.
func (p *Pacer) Schedule(turn *Turn, deliver func(events.Event)) {
	if turn == nil {
		return
	}
	token := turn.Token

	var immediate, tip, advance []events.Event
	for _, e := range turn.Events {
		switch e.Stage() {
		case events.StageTip:
			tip = append(tip, e)
		case events.StageAdvance:
			advance = append(advance, e)
		default:
			immediate = append(immediate, e)
		}
	}

	p.send(token, immediate, deliver)
	p.after(p.delays.Tip, token, tip, deliver)
	p.after(p.delays.Advance, token, advance, deliver)
}

// Cancel stops every outstanding delivery.
func (p *Pacer) Cancel() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, t := range p.timers {
		if t != nil {
			t.Stop()
		}
	}
	clear(p.timers)
	p.gen++
}

func (p *Pacer) after(d time.Duration, token uint64, list []events.Event, deliver func(events.Event)) {
	if len(list) == 0 {
		return
	}
	p.mu.Lock()
	id, gen := p.nextID, p.gen
	p.nextID++
	p.timers[id] = nil
	p.mu.Unlock()

	t := p.clock.AfterFunc(d, func() {
		p.mu.Lock()
		delete(p.timers, id)
		p.mu.Unlock()
		p.send(token, list, deliver)
	})

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.gen != gen {
		// Cancelled while the timer was being created.
		t.Stop()
		return
	}
	if _, waiting := p.timers[id]; waiting {
		p.timers[id] = t
	}
}

func (p *Pacer) send(token uint64, list []events.Event, deliver func(events.Event)) {
	if len(list) == 0 || !p.source.TokenValid(token) {
		return
	}
	for _, e := range list {
		deliver(e)
	}
}
