// Package kernel assembles every subsystem into one running instance (spec
// §9's "global mutable state" design note): the logger,
// memory pool, filesystem tree, process table, scheduler, syscall facade,
// event loop, and init supervisor are all owned here as explicit fields on
// Kernel, never as package-level globals.
package kernel

import (
	"os"
	"time"

	"github.com/arctir/vkernel/internal/eventloop"
	"github.com/arctir/vkernel/internal/fs"
	"github.com/arctir/vkernel/internal/klog"
	"github.com/arctir/vkernel/internal/memory"
	"github.com/arctir/vkernel/internal/process"
	"github.com/arctir/vkernel/internal/scheduler"
	"github.com/arctir/vkernel/internal/supervisor"
	vsyscall "github.com/arctir/vkernel/internal/syscall"
)

// Config is the kernel's startup configuration, collected from CLI flags
// in cmd/.
type Config struct {
	MemoryPoolBytes int
	Algorithm       scheduler.Kind
	Quantum         int
	CyclesPerTick   int
	TickInterval    time.Duration
	LogLevel        klog.Level
	SnapshotDir     string
}

// DefaultConfig returns sensible startup defaults.
func DefaultConfig() Config {
	return Config{
		MemoryPoolBytes: 1 << 20,
		Algorithm:       scheduler.RoundRobin,
		Quantum:         4,
		CyclesPerTick:   1,
		TickInterval:    50 * time.Millisecond,
		LogLevel:        klog.INFO,
		SnapshotDir:      fs.DefaultStoreDir(),
	}
}

// Kernel owns and wires every subsystem.
type Kernel struct {
	Log       *klog.Logger
	Pool      *memory.Pool
	Tree      *fs.Tree
	Table     *process.Table
	Scheduler *scheduler.Scheduler
	Facade    *vsyscall.Facade
	Loop      *eventloop.Loop
	Init      *supervisor.Init
	Store     *fs.Store

	cfg Config
}

// New constructs a Kernel per cfg. It wires the one-way scheduler
// completion callback and the process table's scheduler handle, per
// spec.md §9, but does not start anything (see Start).
func New(cfg Config) (*Kernel, error) {
	log := klog.New(os.Stderr, cfg.LogLevel)

	pool := memory.New(cfg.MemoryPoolBytes)
	tree := fs.New(pool)
	table := process.New(pool, log)
	sched := scheduler.New(scheduler.Algorithm{Kind: cfg.Algorithm, Quantum: cfg.Quantum}, cfg.CyclesPerTick, cfg.TickInterval, log)

	table.SetScheduler(sched)
	sched.SetCompletionCallback(table.OnSchedulerComplete)

	facade := vsyscall.New(tree, table, pool, sched, log)
	loop := eventloop.New(sched, log)
	init := supervisor.New(facade, log)

	var store *fs.Store
	if cfg.SnapshotDir != "" {
		s, err := fs.OpenStore(cfg.SnapshotDir)
		if err != nil {
			return nil, err
		}
		store = s
	}

	return &Kernel{
		Log:       log,
		Pool:      pool,
		Tree:      tree,
		Table:     table,
		Scheduler: sched,
		Facade:    facade,
		Loop:      loop,
		Init:      init,
		Store:     store,
		cfg:       cfg,
	}, nil
}

// Start runs init's registered daemons and then runs the event loop,
// blocking until Shutdown is called from another goroutine.
func (k *Kernel) Start() {
	k.Init.Run()
	k.Log.Infof("kernel: started (algorithm=%s quantum=%d cyclesPerTick=%d tickInterval=%s)",
		k.cfg.Algorithm, k.cfg.Quantum, k.cfg.CyclesPerTick, k.cfg.TickInterval)
	k.Loop.Run()
}

// Shutdown stops the init supervisor, unblocks every pending
// WaitForProcess call, and requests an orderly event-loop stop.
func (k *Kernel) Shutdown() {
	k.Init.Stop()
	k.Facade.Interrupt()
	k.Loop.RequestShutdown()
	if k.Store != nil {
		k.Store.Close()
	}
}
