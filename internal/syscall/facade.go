// Package syscall implements the kernel's syscall facade (spec component
// E): the surface the supervisor and interactive tooling use to reach the
// filesystem, process table, scheduler, and memory pool. The event loop
// drives the scheduler through its own Ticker interface, and the cmd and ui
// packages also tick the scheduler, read its Stats, and read the process
// table directly off kernel.Kernel.
package syscall

import (
	"time"

	"github.com/arctir/vkernel/internal/fs"
	"github.com/arctir/vkernel/internal/klog"
	"github.com/arctir/vkernel/internal/kresult"
	"github.com/arctir/vkernel/internal/memory"
	"github.com/arctir/vkernel/internal/process"
	"github.com/arctir/vkernel/internal/scheduler"
)

// Facade wires the kernel's subsystems behind one call surface. It holds no
// state of its own beyond the references to those subsystems and the
// interrupt channel that unblocks WaitForProcess callers.
type Facade struct {
	tree  *fs.Tree
	table *process.Table
	pool  *memory.Pool
	sched *scheduler.Scheduler
	log   *klog.Logger

	interrupt chan struct{}
}

// New builds a Facade over already-constructed subsystems. Wire the
// scheduler's completion callback to table.OnSchedulerComplete, and the
// table's scheduler handle to the scheduler, before traffic starts.
func New(tree *fs.Tree, table *process.Table, pool *memory.Pool, sched *scheduler.Scheduler, log *klog.Logger) *Facade {
	if log == nil {
		log = klog.NewDiscard()
	}
	return &Facade{tree: tree, table: table, pool: pool, sched: sched, log: log, interrupt: make(chan struct{})}
}

// Interrupt unblocks every pending WaitForProcess call, used on kernel
// shutdown.
func (f *Facade) Interrupt() {
	select {
	case <-f.interrupt:
	default:
		close(f.interrupt)
	}
}

// RequestShutdown is an alias for Interrupt, named to match the syscall
// surface's request_shutdown entry.
func (f *Facade) RequestShutdown() {
	f.Interrupt()
}

// --- process syscalls ---------------------------------------------------

// Submit registers a new process. It returns the assigned PID, or -1 if the
// arguments are invalid.
func (f *Facade) Submit(name string, cycles, mem, priority int, persistent bool) int {
	return f.table.Submit(name, cycles, mem, priority, persistent)
}

// Signal delivers a signal number to pid.
func (f *Facade) Signal(pid, number int) kresult.Result {
	if !f.table.Signal(pid, number) {
		return kresult.NotFound
	}
	return kresult.OK
}

// Exit voluntarily terminates pid.
func (f *Facade) Exit(pid, code int) kresult.Result {
	if !f.table.Exit(pid, code) {
		return kresult.NotFound
	}
	return kresult.OK
}

// Reap removes a terminated process's record from the table.
func (f *Facade) Reap(pid int) kresult.Result {
	if !f.table.Reap(pid) {
		return kresult.NotFound
	}
	return kresult.OK
}

// WaitForProcess blocks the caller until pid finishes (normally or by
// signal) or the kernel is shut down. It reports whether pid completed
// normally.
func (f *Facade) WaitForProcess(pid int) bool {
	return f.table.WaitForProcess(pid, f.interrupt)
}

// AddCPUWork extends a live process's cycle budget.
func (f *Facade) AddCPUWork(pid, cycles int) kresult.Result {
	if !f.table.AddCPUWork(pid, cycles) {
		return kresult.NotFound
	}
	return kresult.OK
}

// PS returns a snapshot of every live process, for debug/status tooling.
func (f *Facade) PS() []process.Snapshot {
	return f.table.Snapshot()
}

// ProcessExists reports whether pid is still tracked by the process table.
func (f *Facade) ProcessExists(pid int) bool {
	return f.table.Exists(pid)
}

// --- filesystem syscalls -------------------------------------------------

func (f *Facade) GetWorkingDir() string                         { return f.tree.GetWorkingDir() }
func (f *Facade) ChangeDir(path string) kresult.Result           { return f.tree.ChangeDir(path) }
func (f *Facade) CreateFile(path string) kresult.Result          { return f.tree.CreateFile(path) }
func (f *Facade) TouchFile(path string) kresult.Result           { return f.tree.TouchFile(path) }
func (f *Facade) DeleteFile(path string) kresult.Result          { return f.tree.DeleteFile(path) }
func (f *Facade) WriteFile(path, content string) kresult.Result  { return f.tree.WriteFile(path, content) }
func (f *Facade) EditFile(path, suffix string) kresult.Result    { return f.tree.EditFile(path, suffix) }
func (f *Facade) ReadFile(path string) (string, kresult.Result)  { return f.tree.ReadFile(path) }
func (f *Facade) FileExists(path string) bool                    { return f.tree.FileExists(path) }
func (f *Facade) MakeDir(path string) kresult.Result              { return f.tree.MakeDir(path) }
func (f *Facade) RemoveDir(path string) kresult.Result            { return f.tree.RemoveDir(path) }
func (f *Facade) ListDir(path string) ([]fs.Entry, kresult.Result) { return f.tree.ListDir(path) }
func (f *Facade) CopyFile(src, dest string) kresult.Result        { return f.tree.CopyFile(src, dest) }
func (f *Facade) MoveFile(src, dest string) kresult.Result        { return f.tree.MoveFile(src, dest) }
func (f *Facade) CopyDir(src, dest string) kresult.Result         { return f.tree.CopyDir(src, dest) }
func (f *Facade) MoveDir(src, dest string) kresult.Result         { return f.tree.MoveDir(src, dest) }

// --- snapshot syscalls ----------------------------------------------------

func (f *Facade) SaveToDisk(store *fs.Store, name string) kresult.Result {
	return f.tree.SaveToDisk(store, name)
}

func (f *Facade) LoadFromDisk(store *fs.Store, name string) kresult.Result {
	return f.tree.LoadFromDisk(store, name)
}

func (f *Facade) ListDataFiles(store *fs.Store) []string {
	return fs.ListDataFiles(store)
}

func (f *Facade) ResetStorage() {
	f.tree.ResetStorage()
}

// --- memory syscalls -------------------------------------------------------

// AllocateMemory reserves size bytes on behalf of ownerPID, returning the
// opaque token and whether the pool had room.
func (f *Facade) AllocateMemory(size, ownerPID int) (memory.Token, bool) {
	return f.pool.Allocate(size, ownerPID)
}

// DeallocateMemory releases a previously allocated token.
func (f *Facade) DeallocateMemory(tok memory.Token) kresult.Result {
	if !f.pool.Deallocate(tok) {
		return kresult.NotFound
	}
	return kresult.OK
}

// MemoryUsage reports used/total/free bytes in the shared pool, backing
// get_sys_info.
func (f *Facade) MemoryUsage() (used, total, free int) {
	return f.pool.Used(), f.pool.Total(), f.pool.Free()
}

// Allocations lists every live pool allocation, for status tooling.
func (f *Facade) Allocations() []memory.Allocation {
	return f.pool.Allocations()
}

// --- scheduler control syscalls --------------------------------------------

// SetSchedulingAlgorithm switches the live algorithm and quantum.
func (f *Facade) SetSchedulingAlgorithm(kind scheduler.Kind, quantum int) bool {
	f.sched.SetAlgorithm(scheduler.Algorithm{Kind: kind, Quantum: quantum})
	return true
}

// SetSchedulerCyclesPerInterval changes how many cycles each tick grants
// the running process.
func (f *Facade) SetSchedulerCyclesPerInterval(n int) bool {
	if n < 1 {
		return false
	}
	f.sched.SetCyclesPerTick(n)
	return true
}

// SetSchedulerTickIntervalMS changes the virtual clock's tick period.
func (f *Facade) SetSchedulerTickIntervalMS(n int) bool {
	if n < 1 {
		return false
	}
	f.sched.SetTickInterval(time.Duration(n) * time.Millisecond)
	return true
}

// --- logging level syscalls -------------------------------------------------

// GetLogLevel reports the logger's current minimum level.
func (f *Facade) GetLogLevel() klog.Level {
	return f.log.GetLevel()
}

// SetLogLevel changes the logger's minimum level.
func (f *Facade) SetLogLevel(lvl klog.Level) {
	f.log.SetLevel(lvl)
}
