package syscall

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/arctir/vkernel/internal/fs"
	"github.com/arctir/vkernel/internal/klog"
	"github.com/arctir/vkernel/internal/memory"
	"github.com/arctir/vkernel/internal/process"
	"github.com/arctir/vkernel/internal/scheduler"
)

func newTestFacade(t *testing.T) (*Facade, *scheduler.Scheduler, *process.Table) {
	t.Helper()
	pool := memory.New(1 << 20)
	tree := fs.New(pool)
	table := process.New(pool, klog.NewDiscard())
	sched := scheduler.New(scheduler.Algorithm{Kind: scheduler.FCFS}, 1, 0, klog.NewDiscard())

	table.SetScheduler(sched)
	sched.SetCompletionCallback(table.OnSchedulerComplete)

	return New(tree, table, pool, sched, klog.NewDiscard()), sched, table
}

func TestSubmitRunToCompletionAndWaitIntegration(t *testing.T) {
	facade, sched, _ := newTestFacade(t)

	pid := facade.Submit("job", 3, 128, 0, false)
	require.Greater(t, pid, 0)

	done := make(chan bool, 1)
	go func() { done <- facade.WaitForProcess(pid) }()
	// Let the waiter block first: completion removes the record, and a
	// waiter arriving after that reports false.
	time.Sleep(20 * time.Millisecond)

	for i := 0; i < 3; i++ {
		sched.Tick()
	}

	require.True(t, <-done)
	usage, total, free := facade.MemoryUsage()
	_ = total
	require.Equal(t, 0, usage)
	require.Greater(t, free, 0)
}

func TestSignalKillFreesMemoryAndUnblocksWaiters(t *testing.T) {
	facade, _, _ := newTestFacade(t)

	pid := facade.Submit("job", 100, 64, 0, false)
	done := make(chan bool, 1)
	go func() { done <- facade.WaitForProcess(pid) }()

	require.Equal(t, 0, int(facade.Signal(pid, 9))) // KILL == 9

	require.False(t, <-done)
	used, _, _ := facade.MemoryUsage()
	require.Equal(t, 0, used)
}

func TestFilesystemSyscallsRoundTripThroughFacade(t *testing.T) {
	facade, _, _ := newTestFacade(t)

	require.True(t, facade.CreateFile("a.txt").Ok())
	require.True(t, facade.WriteFile("a.txt", "hi").Ok())
	body, res := facade.ReadFile("a.txt")
	require.True(t, res.Ok())
	require.Equal(t, "hi\n", body)
	require.True(t, facade.FileExists("a.txt"))
}

func TestMemorySyscallsAllocateAndDeallocateDirectly(t *testing.T) {
	facade, _, _ := newTestFacade(t)

	tok, ok := facade.AllocateMemory(256, 999)
	require.True(t, ok)
	used, _, _ := facade.MemoryUsage()
	require.Equal(t, 256, used)

	require.True(t, facade.DeallocateMemory(tok).Ok())
	used, _, _ = facade.MemoryUsage()
	require.Equal(t, 0, used)

	require.False(t, facade.DeallocateMemory(tok).Ok())
}

func TestProcessExistsReflectsTableMembership(t *testing.T) {
	facade, _, _ := newTestFacade(t)

	pid := facade.Submit("job", 5, 0, 0, false)
	require.True(t, facade.ProcessExists(pid))
	require.False(t, facade.ProcessExists(pid+1000))
}

func TestSchedulerControlSyscallsUpdateLiveConfiguration(t *testing.T) {
	facade, sched, _ := newTestFacade(t)

	require.True(t, facade.SetSchedulingAlgorithm(scheduler.RoundRobin, 2))
	require.True(t, facade.SetSchedulerCyclesPerInterval(3))
	require.False(t, facade.SetSchedulerCyclesPerInterval(0))
	require.True(t, facade.SetSchedulerTickIntervalMS(25))
	require.Equal(t, 25*1e6, float64(sched.TickInterval()))
}

func TestLogLevelSyscallsRoundTrip(t *testing.T) {
	facade, _, _ := newTestFacade(t)

	facade.SetLogLevel(klog.ERROR)
	require.Equal(t, klog.ERROR, facade.GetLogLevel())
}

func TestRequestShutdownUnblocksWaiters(t *testing.T) {
	facade, _, _ := newTestFacade(t)

	pid := facade.Submit("job", 1000, 0, 0, false)
	done := make(chan bool, 1)
	go func() { done <- facade.WaitForProcess(pid) }()

	facade.RequestShutdown()
	require.False(t, <-done)
}
