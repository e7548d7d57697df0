package process

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/arctir/vkernel/internal/klog"
	"github.com/arctir/vkernel/internal/ksignal"
	"github.com/arctir/vkernel/internal/memory"
)

type fakeSched struct {
	enqueued  []int
	removed   []int
	suspended []int
	resumed   []int
}

func (f *fakeSched) Enqueue(pid, burst, priority int) { f.enqueued = append(f.enqueued, pid) }
func (f *fakeSched) Remove(pid int)                   { f.removed = append(f.removed, pid) }
func (f *fakeSched) Suspend(pid int) bool              { f.suspended = append(f.suspended, pid); return true }
func (f *fakeSched) Resume(pid int) bool               { f.resumed = append(f.resumed, pid); return true }

func newTestTable(t *testing.T) (*Table, *fakeSched) {
	t.Helper()
	pool := memory.New(1 << 20)
	tbl := New(pool, klog.NewDiscard())
	sched := &fakeSched{}
	tbl.SetScheduler(sched)
	return tbl, sched
}

func TestSubmitAssignsPIDAndEnqueuesReady(t *testing.T) {
	tbl, sched := newTestTable(t)
	pid := tbl.Submit("worker", 10, 256, 1, false)
	require.Greater(t, pid, KernelPID)
	require.Contains(t, sched.enqueued, pid)

	snaps := tbl.Snapshot()
	require.Len(t, snaps, 1)
	require.Equal(t, Ready, snaps[0].State)
}

func TestSubmitRejectsInvalidArguments(t *testing.T) {
	tbl, _ := newTestTable(t)
	require.Equal(t, -1, tbl.Submit("", 10, 0, 0, false))
	require.Equal(t, -1, tbl.Submit("x", 0, 0, 0, false))
}

func TestSubmitSurvivesMemoryExhaustionWithoutRollback(t *testing.T) {
	pool := memory.New(8)
	tbl := New(pool, klog.NewDiscard())
	sched := &fakeSched{}
	tbl.SetScheduler(sched)

	pid := tbl.Submit("hog", 5, 4096, 0, false)
	require.Greater(t, pid, KernelPID)
	require.Contains(t, sched.enqueued, pid)
	require.True(t, tbl.Exists(pid))
}

func TestSignalStopAndContTransitionsAndCallsScheduler(t *testing.T) {
	tbl, sched := newTestTable(t)
	pid := tbl.Submit("worker", 10, 0, 0, false)

	require.True(t, tbl.Signal(pid, ksignal.STOP))
	require.Contains(t, sched.suspended, pid)

	require.True(t, tbl.Signal(pid, ksignal.CONT))
	require.Contains(t, sched.resumed, pid)
}

func TestSignalTermMovesToZombieAndFreesScheduler(t *testing.T) {
	tbl, sched := newTestTable(t)
	pid := tbl.Submit("worker", 10, 0, 0, false)

	require.True(t, tbl.Signal(pid, ksignal.TERM))
	require.Contains(t, sched.removed, pid)

	snaps := tbl.Snapshot()
	require.Equal(t, Zombie, snaps[0].State)
}

func TestReapRemovesZombieAndRejectsNonZombie(t *testing.T) {
	tbl, _ := newTestTable(t)
	pid := tbl.Submit("worker", 10, 0, 0, false)
	require.False(t, tbl.Reap(pid))

	tbl.Signal(pid, ksignal.KILL)
	require.True(t, tbl.Reap(pid))
	require.False(t, tbl.Exists(pid))
}

func TestOnSchedulerCompleteReapsNonPersistentProcess(t *testing.T) {
	tbl, _ := newTestTable(t)
	pid := tbl.Submit("worker", 1, 0, 0, false)

	done := make(chan bool, 1)
	go func() { done <- tbl.WaitForProcess(pid, nil) }()
	// Let the waiter block first: completion removes the record, and a
	// waiter arriving after that reports false.
	time.Sleep(20 * time.Millisecond)

	tbl.OnSchedulerComplete(pid)

	require.True(t, <-done)
	require.False(t, tbl.Exists(pid))
}

func TestOnSchedulerCompleteRefillsPersistentProcess(t *testing.T) {
	tbl, sched := newTestTable(t)
	pid := tbl.Submit("daemon", 3, 0, 0, true)

	tbl.OnSchedulerComplete(pid)

	require.True(t, tbl.Exists(pid))
	snaps := tbl.Snapshot()
	require.Equal(t, Ready, snaps[0].State)
	require.Equal(t, 2, len(sched.enqueued)) // once at submit, once at refill
}

func TestWaitForProcessUnblocksOnInterrupt(t *testing.T) {
	tbl, _ := newTestTable(t)
	pid := tbl.Submit("worker", 10, 0, 0, false)

	interrupt := make(chan struct{})
	done := make(chan bool, 1)
	go func() { done <- tbl.WaitForProcess(pid, interrupt) }()
	close(interrupt)

	require.False(t, <-done)
}
