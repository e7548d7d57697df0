package scheduler

import (
	"sync"
	"time"

	"github.com/arctir/vkernel/internal/klog"
)

const noCurrent = -1

// task is the scheduler's own bookkeeping record for a runnable process. It
// intentionally does not reference process.Process: the scheduler only
// needs PID, priority, and a cycle countdown, and keeping it free of the
// process package avoids the import cycle spec.md §9 warns about (the
// process table, in turn, reaches the scheduler only through the small
// SchedulerHandle interface it defines for itself).
type task struct {
	pid       int
	priority  int
	remaining int
}

// Stats is a point-in-time summary of scheduler activity, used by the
// status/debug surface.
type Stats struct {
	Ticks       int
	IdleTicks   int
	Completions int
}

// Scheduler runs one configurable preemptive algorithm (spec.md §4.D) over
// a ready queue of tasks. It is driven by repeated calls to Tick, either
// from the kernel event loop or directly from tests.
type Scheduler struct {
	mu sync.Mutex

	alg           Algorithm
	cyclesPerTick int
	tickInterval  time.Duration

	ready     []*task
	suspended map[int]*task
	tasks     map[int]*task

	currentPID int
	sliceUsed  int

	ticks       int
	idleTicks   int
	completions int

	onComplete func(pid int)
	log        *klog.Logger
}

// New constructs a Scheduler. cyclesPerTick must be at least 1.
func New(alg Algorithm, cyclesPerTick int, tickInterval time.Duration, log *klog.Logger) *Scheduler {
	if cyclesPerTick < 1 {
		cyclesPerTick = 1
	}
	if log == nil {
		log = klog.NewDiscard()
	}
	return &Scheduler{
		alg:           alg,
		cyclesPerTick: cyclesPerTick,
		tickInterval:  tickInterval,
		suspended:     make(map[int]*task),
		tasks:         make(map[int]*task),
		currentPID:    noCurrent,
		log:           log,
	}
}

// SetCompletionCallback installs the one-way hook the scheduler calls when
// a task's cycles are exhausted. Wired at kernel-assembly time to
// process.Table.OnSchedulerComplete, per spec.md §9.
func (s *Scheduler) SetCompletionCallback(fn func(pid int)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onComplete = fn
}

// SetAlgorithm changes the scheduling algorithm effective next tick.
func (s *Scheduler) SetAlgorithm(alg Algorithm) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alg = alg
}

// SetQuantum changes the round-robin quantum effective next tick.
func (s *Scheduler) SetQuantum(q int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alg.Quantum = q
}

// SetCyclesPerTick changes how many cycles a single Tick consumes.
func (s *Scheduler) SetCyclesPerTick(c int) {
	if c < 1 {
		c = 1
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cyclesPerTick = c
}

// SetTickInterval changes the real-time interval the event loop should use
// between ticks; the scheduler itself does not sleep.
func (s *Scheduler) SetTickInterval(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tickInterval = d
}

// TickInterval reports the configured real-time interval.
func (s *Scheduler) TickInterval() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tickInterval
}

// Enqueue adds pid to the ready queue with the given cycle burst and
// priority. Per spec.md §4.D, re-enqueuing a pid the scheduler already
// knows about (ready, running, or suspended) is ignored: it warns and
// leaves the existing task's progress untouched rather than replacing it.
func (s *Scheduler) Enqueue(pid, burstCycles, priority int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[pid]; ok {
		s.log.Warnf("scheduler: enqueue ignored, pid %d already known", pid)
		return
	}
	t := &task{pid: pid, priority: priority, remaining: burstCycles}
	s.tasks[pid] = t
	s.ready = insertReady(s.ready, t, s.alg)
}

// Remove drops pid from the scheduler entirely: ready queue, suspended
// set, or the currently running slot.
func (s *Scheduler) Remove(pid int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeFromReady(pid)
	delete(s.suspended, pid)
	delete(s.tasks, pid)
	if s.currentPID == pid {
		s.currentPID = noCurrent
		s.sliceUsed = 0
	}
}

func (s *Scheduler) removeFromReady(pid int) {
	for i, t := range s.ready {
		if t.pid == pid {
			s.ready = append(s.ready[:i], s.ready[i+1:]...)
			return
		}
	}
}

// Suspend moves pid out of contention (ready or running) into the
// suspended set, per the STOP signal's effect. Returns false if pid is
// unknown to the scheduler.
func (s *Scheduler) Suspend(pid int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[pid]
	if !ok {
		return false
	}
	s.removeFromReady(pid)
	if s.currentPID == pid {
		s.currentPID = noCurrent
		s.sliceUsed = 0
	}
	s.suspended[pid] = t
	return true
}

// Resume moves pid from the suspended set back into the ready queue, per
// the CONT signal's effect.
func (s *Scheduler) Resume(pid int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.suspended[pid]
	if !ok {
		return false
	}
	delete(s.suspended, pid)
	s.ready = insertReady(s.ready, t, s.alg)
	return true
}

// HasWork reports whether any task is running, ready, or suspended.
func (s *Scheduler) HasWork() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentPID != noCurrent || len(s.ready) > 0 || len(s.suspended) > 0
}

// CurrentPID returns the PID of the running task, or -1 if the CPU is
// idle.
func (s *Scheduler) CurrentPID() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentPID
}

// Stats returns a point-in-time copy of scheduler counters.
func (s *Scheduler) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{Ticks: s.ticks, IdleTicks: s.idleTicks, Completions: s.completions}
}

// Tick advances the scheduler by one unit of cyclesPerTick work, per
// spec.md §4.D. It dispatches a ready task if the CPU is idle, consumes
// cycles from the running task, and either completes it, preempts it
// according to the configured algorithm, or lets it keep running.
func (s *Scheduler) Tick() {
	s.mu.Lock()
	s.ticks++

	if s.currentPID == noCurrent {
		if len(s.ready) == 0 {
			s.idleTicks++
			s.mu.Unlock()
			return
		}
		next := s.ready[0]
		s.ready = s.ready[1:]
		s.currentPID = next.pid
		s.sliceUsed = 0
	}

	running, ok := s.tasks[s.currentPID]
	if !ok {
		// The running task vanished (e.g. killed between dispatch and
		// tick); reset and let the next tick pick a fresh one.
		s.currentPID = noCurrent
		s.sliceUsed = 0
		s.mu.Unlock()
		return
	}

	running.remaining -= s.cyclesPerTick
	s.sliceUsed += s.cyclesPerTick

	if running.remaining <= 0 {
		pid := running.pid
		delete(s.tasks, pid)
		s.currentPID = noCurrent
		s.sliceUsed = 0
		s.completions++
		cb := s.onComplete
		s.mu.Unlock()
		if cb != nil {
			cb(pid)
		}
		return
	}

	if shouldPreempt(s.alg, running, s.sliceUsed, s.ready) {
		s.ready = insertReady(s.ready, running, s.alg)
		s.currentPID = noCurrent
		s.sliceUsed = 0
	}
	s.mu.Unlock()
}
