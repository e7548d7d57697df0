// Package eventloop implements the kernel's tick-driven event loop (spec
// component F): a single goroutine that, at a configurable real-time
// interval, advances the scheduler and drains a queue of pending commands
// and shutdown requests.
package eventloop

import (
	"sync"
	"time"

	"github.com/arctir/vkernel/internal/klog"
)

// EventKind distinguishes the two event shapes the loop accepts.
type EventKind int

const (
	// Command carries a caller-supplied function to run on the loop's
	// goroutine, between ticks, so it never races the scheduler tick.
	Command EventKind = iota
	// Shutdown requests an orderly stop once queued events drain.
	Shutdown
)

// Event is a single item on the loop's queue.
type Event struct {
	Kind EventKind
	Fn   func()
}

// Ticker is the minimal surface the loop drives every interval. scheduler.Scheduler
// satisfies this without the eventloop package importing it directly, per
// the same decoupling spec.md §9 calls for between the scheduler and the
// process table.
type Ticker interface {
	Tick()
	TickInterval() time.Duration
}

// Loop runs Ticker.Tick at Ticker.TickInterval and drains queued Events in
// between ticks, until a Shutdown event is processed.
type Loop struct {
	mu       sync.Mutex
	ticker   Ticker
	queue    []Event
	notify   chan struct{}
	stopped  chan struct{}
	stopOnce sync.Once
	log      *klog.Logger
}

// New builds a Loop over ticker. Call Run in its own goroutine.
func New(ticker Ticker, log *klog.Logger) *Loop {
	if log == nil {
		log = klog.NewDiscard()
	}
	return &Loop{
		ticker:  ticker,
		notify:  make(chan struct{}, 1),
		stopped: make(chan struct{}),
		log:     log,
	}
}

// Post enqueues fn to run on the loop's goroutine.
func (l *Loop) Post(fn func()) {
	l.enqueue(Event{Kind: Command, Fn: fn})
}

// RequestShutdown enqueues an orderly-stop event; events queued before it
// still run.
func (l *Loop) RequestShutdown() {
	l.enqueue(Event{Kind: Shutdown})
}

func (l *Loop) enqueue(e Event) {
	l.mu.Lock()
	l.queue = append(l.queue, e)
	l.mu.Unlock()
	select {
	case l.notify <- struct{}{}:
	default:
	}
}

// Run drives the loop until shut down. It blocks the calling goroutine.
func (l *Loop) Run() {
	interval := l.ticker.TickInterval()
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	tick := time.NewTicker(interval)
	defer tick.Stop()
	defer close(l.stopped)

	for {
		if l.drain() {
			return
		}
		select {
		case <-tick.C:
			l.ticker.Tick()
			if d := l.ticker.TickInterval(); d > 0 && d != interval {
				interval = d
				tick.Reset(d)
			}
		case <-l.notify:
		}
	}
}

// drain runs every queued event in order, returning true if a Shutdown
// event was among them.
func (l *Loop) drain() bool {
	for {
		l.mu.Lock()
		if len(l.queue) == 0 {
			l.mu.Unlock()
			return false
		}
		e := l.queue[0]
		l.queue = l.queue[1:]
		l.mu.Unlock()

		if e.Kind == Shutdown {
			return true
		}
		if e.Fn != nil {
			e.Fn()
		}
	}
}

// Stopped is closed once Run returns.
func (l *Loop) Stopped() <-chan struct{} {
	return l.stopped
}
