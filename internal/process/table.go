package process

import (
	"sync"

	"github.com/arctir/vkernel/internal/klog"
	"github.com/arctir/vkernel/internal/ksignal"
	"github.com/arctir/vkernel/internal/memory"
)

// SchedulerHandle is the plain reference Table holds onto the scheduler,
// per the design note in spec.md §9: the scheduler gets a one-way callback
// into Table (installed at wiring time, see Table.OnSchedulerComplete), and
// Table gets a plain reference the other way. Neither package imports the
// other's concrete type.
type SchedulerHandle interface {
	Enqueue(pid, burst, priority int)
	Remove(pid int)
	Suspend(pid int) bool
	Resume(pid int) bool
}

// Table owns every live Process record, keyed by PID, and enforces the
// seven-state lifecycle. It is guarded by a single mutex; per spec.md §5 it
// never acquires the scheduler's or the pool's lock while holding its own —
// it only calls their already-synchronized public methods.
type Table struct {
	mu    sync.Mutex
	procs map[int]*Process
	nextPID int

	sched SchedulerHandle
	pool  *memory.Pool
	log   *klog.Logger
}

// New creates an empty Table whose memory requests are served from pool.
// Wire the scheduler with SetScheduler before calling Submit.
func New(pool *memory.Pool, log *klog.Logger) *Table {
	if log == nil {
		log = klog.NewDiscard()
	}
	return &Table{
		procs:   make(map[int]*Process),
		nextPID: KernelPID + 1,
		pool:    pool,
		log:     log,
	}
}

// SetScheduler installs the scheduler handle. Called once at wiring time.
func (t *Table) SetScheduler(s SchedulerHandle) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sched = s
}

// Submit validates and registers a new process, allocates its memory
// request, enqueues it with the scheduler, and transitions it NEW -> READY.
// Per spec.md §9's resolved open question, a memory-allocation failure does
// not roll the submission back: the PID is still assigned, returned, and
// enqueued; Process.MemoryOK reports the failure so callers can act on it
// without the submission silently vanishing.
func (t *Table) Submit(name string, cycles, mem, priority int, persistent bool) int {
	if name == "" || cycles < 1 || mem < 0 {
		return -1
	}

	t.mu.Lock()
	pid := t.nextPID
	t.nextPID++
	p := &Process{
		PID:             pid,
		Name:            name,
		RequiredCycles:  cycles,
		RequiredMemory:  mem,
		Priority:        priority,
		Persistent:      persistent,
		state:           New,
		remainingCycles: cycles,
		completionCh:    make(chan struct{}),
	}
	t.procs[pid] = p
	sched := t.sched
	t.mu.Unlock()

	if mem > 0 {
		_, ok := t.pool.Allocate(mem, pid)
		p.mu.Lock()
		p.memoryOK = ok
		p.mu.Unlock()
		if !ok {
			t.log.Warnf("submit: process %d (%s) requested %d bytes but the pool could not satisfy it", pid, name, mem)
		}
	} else {
		p.mu.Lock()
		p.memoryOK = true
		p.mu.Unlock()
	}

	p.mu.Lock()
	p.state = Ready
	p.mu.Unlock()

	if sched != nil {
		sched.Enqueue(pid, cycles, priority)
	}
	return pid
}

// Signal maps a signal number to a state-machine event, per spec.md §4.C.
// It returns false if pid is unknown.
func (t *Table) Signal(pid, number int) bool {
	t.mu.Lock()
	p, ok := t.procs[pid]
	sched := t.sched
	t.mu.Unlock()
	if !ok {
		return false
	}

	switch number {
	case ksignal.STOP:
		p.mu.Lock()
		if p.state == Running || p.state == Ready {
			p.state = Stopped
		}
		p.mu.Unlock()
		if sched != nil {
			sched.Suspend(pid)
		}
	case ksignal.CONT:
		p.mu.Lock()
		wasStopped := p.state == Stopped
		if wasStopped {
			p.state = Ready
		}
		p.mu.Unlock()
		if wasStopped && sched != nil {
			sched.Resume(pid)
		}
	case ksignal.TERM, ksignal.KILL:
		t.terminate(p, sched)
	default:
		t.log.Debugf("signal: pid %d received unhandled signal %d, recording only", pid, number)
	}
	return true
}

// Exit is voluntary termination: identical bookkeeping to TERM/KILL.
func (t *Table) Exit(pid, code int) bool {
	t.mu.Lock()
	p, ok := t.procs[pid]
	sched := t.sched
	t.mu.Unlock()
	if !ok {
		return false
	}
	t.terminate(p, sched)
	return true
}

func (t *Table) terminate(p *Process, sched SchedulerHandle) {
	p.mu.Lock()
	already := p.state == Zombie || p.state == Terminated
	if !already {
		p.state = Zombie
	}
	completionCh := p.completionCh
	p.mu.Unlock()
	if already {
		return
	}
	if sched != nil {
		sched.Remove(p.PID)
	}
	t.pool.FreeOwner(p.PID)
	closeOnce(completionCh)
}

// Reap removes a ZOMBIE record from the table, transitioning it to
// TERMINATED.
func (t *Table) Reap(pid int) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	p, ok := t.procs[pid]
	if !ok {
		return false
	}
	p.mu.Lock()
	isZombie := p.state == Zombie
	if isZombie {
		p.state = Terminated
	}
	p.mu.Unlock()
	if !isZombie {
		return false
	}
	delete(t.procs, pid)
	return true
}

// OnSchedulerComplete is the scheduler's completion callback, installed at
// wiring time per spec.md §9. If the process is persistent, its cycles are
// refilled and it is re-enqueued READY rather than reaped. Otherwise its
// memory is freed, the wait/reap rendezvous is signaled, and it moves
// straight to ZOMBIE then TERMINATED: non-persistent processes are reaped
// automatically by this simulation (spec.md §4.C).
func (t *Table) OnSchedulerComplete(pid int) {
	t.mu.Lock()
	p, ok := t.procs[pid]
	sched := t.sched
	t.mu.Unlock()
	if !ok {
		return
	}

	if p.Persistent {
		p.mu.Lock()
		p.remainingCycles = p.RequiredCycles
		p.state = Ready
		p.mu.Unlock()
		if sched != nil {
			sched.Enqueue(pid, p.RequiredCycles, p.Priority)
		}
		return
	}

	t.pool.FreeOwner(pid)
	p.mu.Lock()
	p.state = Zombie
	p.completedOK = true
	completionCh := p.completionCh
	p.mu.Unlock()
	closeOnce(completionCh)

	p.mu.Lock()
	p.state = Terminated
	p.mu.Unlock()
	t.mu.Lock()
	delete(t.procs, pid)
	t.mu.Unlock()
}

// WaitForProcess blocks until pid's completion condition fires (normal
// scheduler completion or a kill), or interrupt fires first. It returns
// true iff the process completed normally. A pid with no live record
// (never submitted, or already completed and removed) reports false.
func (t *Table) WaitForProcess(pid int, interrupt <-chan struct{}) bool {
	t.mu.Lock()
	p, ok := t.procs[pid]
	t.mu.Unlock()
	if !ok {
		return false
	}
	select {
	case <-p.completionCh:
		p.mu.Lock()
		ok := p.completedOK
		p.mu.Unlock()
		return ok
	case <-interrupt:
		return false
	}
}

// Exists reports whether pid has a live record.
func (t *Table) Exists(pid int) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.procs[pid]
	return ok
}

// Snapshot returns a by-value copy of every live record, per spec.md §4.C.
func (t *Table) Snapshot() []Snapshot {
	t.mu.Lock()
	pids := make([]int, 0, len(t.procs))
	procs := make([]*Process, 0, len(t.procs))
	for pid, p := range t.procs {
		pids = append(pids, pid)
		procs = append(procs, p)
	}
	t.mu.Unlock()

	out := make([]Snapshot, 0, len(procs))
	for i, p := range procs {
		p.mu.Lock()
		out = append(out, Snapshot{
			PID:        pids[i],
			Name:       p.Name,
			State:      p.state,
			Priority:   p.Priority,
			ParentPID:  p.ParentPID,
			Persistent: p.Persistent,
		})
		p.mu.Unlock()
	}
	return out
}

// AddCPUWork increases a live process's remaining cycle count (and its
// original budget, so a persistent process's next refill reflects the new
// total); used by the syscall surface's add_cpu_work.
func (t *Table) AddCPUWork(pid, cycles int) bool {
	t.mu.Lock()
	p, ok := t.procs[pid]
	t.mu.Unlock()
	if !ok || cycles <= 0 {
		return false
	}
	p.mu.Lock()
	p.RequiredCycles += cycles
	p.remainingCycles += cycles
	p.mu.Unlock()
	return true
}

func closeOnce(ch chan struct{}) {
	select {
	case <-ch:
	default:
		close(ch)
	}
}
