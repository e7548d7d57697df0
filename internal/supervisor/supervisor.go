// Package supervisor implements the kernel's PID-1 init process (spec
// component G): it submits itself as the first (persistent) process, then a
// placeholder for the interactive shell, then every registered daemon —
// all persistent, per the Glossary's "Persistent process ... used for
// init, shell, and daemons" — and watches daemons marked Restart so a
// daemon that is actually killed (not merely refilled in place by the
// process table) gets resubmitted under a fresh PID.
package supervisor

import (
	"sync"

	"github.com/arctir/vkernel/internal/klog"
)

// InitProcessName and ShellProcessName are the well-known names init
// submits itself and the shell placeholder under. The shell's own command
// dispatch is out of scope (spec.md §1's Non-goals); only the process
// record that a real kernel would have backing it is submitted here.
const (
	InitProcessName  = "init"
	ShellProcessName = "shell"
)

// Daemon describes one long-running service init should keep alive.
// Restart is the supplemental field naming whether init resubmits a fresh
// instance after this daemon is actually killed (its persistent process
// record is gone, not merely refilled in place — see Table.OnSchedulerComplete).
type Daemon struct {
	Name           string
	RequiredCycles int
	RequiredMemory int
	Priority       int
	Restart        bool
}

// Submitter is the slice of the syscall facade init needs: submitting
// processes and waiting on them. Depending on this narrow interface, rather
// than *syscall.Facade directly, keeps the supervisor package testable
// without constructing a full kernel.
type Submitter interface {
	Submit(name string, cycles, mem, priority int, persistent bool) int
	WaitForProcess(pid int) bool
}

// initCycles/initPriority size the init and shell placeholder processes
// themselves: small, high-priority, persistent housekeeping work.
const (
	initCycles   = 1
	initPriority = 100
)

// Init is the kernel's PID-1 supervisor: it submits itself, a shell
// placeholder, and every registered daemon as persistent processes at Run
// time, and for daemons marked Restart, watches for one actually being
// killed and resubmits a fresh instance.
type Init struct {
	mu      sync.Mutex
	daemons map[string]Daemon
	order   []string
	pids    map[string]int

	facade Submitter
	log    *klog.Logger

	stop     chan struct{}
	stopOnce sync.Once
}

// New builds an Init bound to facade.
func New(facade Submitter, log *klog.Logger) *Init {
	if log == nil {
		log = klog.NewDiscard()
	}
	return &Init{
		daemons: make(map[string]Daemon),
		pids:    make(map[string]int),
		facade:  facade,
		log:     log,
		stop:    make(chan struct{}),
	}
}

// Register adds a daemon to the registry. It must be called before Run.
func (i *Init) Register(d Daemon) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if _, exists := i.daemons[d.Name]; !exists {
		i.order = append(i.order, d.Name)
	}
	i.daemons[d.Name] = d
}

// Run submits init itself (PID 1, since it is the first process the
// kernel ever submits), a shell placeholder, and every registered daemon —
// all as persistent processes, so the process table's own refill-in-place
// mechanism (Table.OnSchedulerComplete) is what keeps them alive, not a
// supervisor-level loop. For daemons marked Restart, it also spawns a
// watcher that resubmits a fresh instance if the daemon is ever actually
// killed. Run returns once everything is submitted; watching continues in
// the background until Stop is called.
func (i *Init) Run() {
	i.submitSelf(InitProcessName)
	i.submitSelf(ShellProcessName)

	i.mu.Lock()
	order := append([]string(nil), i.order...)
	i.mu.Unlock()

	for _, name := range order {
		i.mu.Lock()
		d := i.daemons[name]
		i.mu.Unlock()
		i.spawn(d)
	}
}

// submitSelf registers init's own process record and the shell placeholder
// under their well-known names; neither is watched for restart since a
// killed init or shell is a kernel-level event, not a daemon crash.
func (i *Init) submitSelf(name string) {
	pid := i.facade.Submit(name, initCycles, 0, initPriority, true)
	i.mu.Lock()
	i.pids[name] = pid
	i.mu.Unlock()
	if pid < 0 {
		i.log.Errorf("init: failed to submit %q", name)
	}
}

func (i *Init) spawn(d Daemon) {
	pid := i.facade.Submit(d.Name, d.RequiredCycles, d.RequiredMemory, d.Priority, true)
	i.mu.Lock()
	i.pids[d.Name] = pid
	i.mu.Unlock()
	if pid < 0 {
		i.log.Errorf("init: failed to submit daemon %q", d.Name)
		return
	}
	if !d.Restart {
		return
	}

	go func() {
		for {
			// Persistent processes never complete normally; WaitForProcess
			// only unblocks here when the daemon is actually killed or the
			// kernel shuts down, since Table.OnSchedulerComplete refills a
			// persistent process's cycles in place instead of closing its
			// completion channel.
			i.facade.WaitForProcess(pid)
			select {
			case <-i.stop:
				return
			default:
			}
			i.log.Warnf("init: daemon %q was killed, resubmitting", d.Name)
			pid = i.facade.Submit(d.Name, d.RequiredCycles, d.RequiredMemory, d.Priority, true)
			i.mu.Lock()
			i.pids[d.Name] = pid
			i.mu.Unlock()
			if pid < 0 {
				i.log.Errorf("init: failed to resubmit daemon %q", d.Name)
				return
			}
		}
	}()
}

// PID returns the current PID for a named daemon, or -1 if unknown.
func (i *Init) PID(name string) int {
	i.mu.Lock()
	defer i.mu.Unlock()
	pid, ok := i.pids[name]
	if !ok {
		return -1
	}
	return pid
}

// Stop signals every supervising goroutine to give up on its next
// WaitForProcess return rather than resubmitting. It does not block:
// goroutines currently parked in WaitForProcess exit once that call
// returns, which happens when the kernel's shared interrupt fires.
func (i *Init) Stop() {
	i.stopOnce.Do(func() { close(i.stop) })
}
