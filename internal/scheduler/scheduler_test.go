package scheduler

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFCFSRunsToCompletionBeforeNextTask(t *testing.T) {
	s := New(Algorithm{Kind: FCFS}, 1, 0, nil)
	var completed []int
	s.SetCompletionCallback(func(pid int) { completed = append(completed, pid) })

	s.Enqueue(1, 3, 0)
	s.Enqueue(2, 2, 0)

	for i := 0; i < 5; i++ {
		s.Tick()
	}

	require.Equal(t, []int{1, 2}, completed)
}

func TestRoundRobinPreemptsAfterQuantum(t *testing.T) {
	s := New(Algorithm{Kind: RoundRobin, Quantum: 2}, 1, 0, nil)
	s.Enqueue(1, 5, 0)
	s.Enqueue(2, 5, 0)

	s.Tick() // pid 1, 1 cycle used
	require.Equal(t, 1, s.CurrentPID())
	s.Tick() // pid 1, quantum reached -> preempted, pid 2 dispatched next tick
	require.Equal(t, noCurrent, s.CurrentPID())

	s.Tick()
	require.Equal(t, 2, s.CurrentPID())
}

func TestRoundRobinDoesNotPreemptSoleRunnableTask(t *testing.T) {
	s := New(Algorithm{Kind: RoundRobin, Quantum: 2}, 1, 0, nil)
	s.Enqueue(1, 10, 0)

	for i := 0; i < 6; i++ {
		s.Tick()
		require.Equal(t, 1, s.CurrentPID(), "tick %d: sole task must keep running with nothing else ready", i)
	}
}

func TestPriorityPreemptsRunningTaskOnHigherPriorityArrival(t *testing.T) {
	s := New(Algorithm{Kind: Priority}, 1, 0, nil)
	s.Enqueue(1, 10, 1)
	s.Tick()
	require.Equal(t, 1, s.CurrentPID())

	s.Enqueue(2, 10, 5)
	s.Tick()
	require.Equal(t, noCurrent, s.CurrentPID())

	s.Tick()
	require.Equal(t, 2, s.CurrentPID())
}

func TestSuspendAndResumeRemoveAndRestoreContention(t *testing.T) {
	s := New(Algorithm{Kind: FCFS}, 1, 0, nil)
	s.Enqueue(1, 10, 0)
	s.Tick()
	require.Equal(t, 1, s.CurrentPID())

	require.True(t, s.Suspend(1))
	require.False(t, s.HasWork() && s.CurrentPID() == 1)
	require.Equal(t, noCurrent, s.CurrentPID())

	require.True(t, s.Resume(1))
	s.Tick()
	require.Equal(t, 1, s.CurrentPID())
}

func TestRemoveDropsReadyTask(t *testing.T) {
	s := New(Algorithm{Kind: FCFS}, 1, 0, nil)
	s.Enqueue(1, 10, 0)
	s.Enqueue(2, 10, 0)
	s.Remove(1)
	require.False(t, s.Suspend(1))

	s.Tick()
	require.Equal(t, 2, s.CurrentPID())
}

func TestEnqueueIgnoresDuplicatePID(t *testing.T) {
	s := New(Algorithm{Kind: FCFS}, 1, 0, nil)
	s.Enqueue(1, 10, 0)
	s.Tick() // dispatch pid 1, 1 cycle consumed

	s.Enqueue(1, 999, 5) // duplicate: must be ignored, not replace progress
	require.Equal(t, 1, s.CurrentPID())
	require.Equal(t, 9, s.tasks[1].remaining)
}

func TestHasWorkReflectsReadyQueue(t *testing.T) {
	s := New(Algorithm{Kind: FCFS}, 1, 0, nil)
	require.False(t, s.HasWork())
	s.Enqueue(1, 1, 0)
	require.True(t, s.HasWork())
}

func TestStatsCountsTicksIdleAndCompletions(t *testing.T) {
	s := New(Algorithm{Kind: FCFS}, 1, 0, nil)
	s.Tick() // idle
	s.Enqueue(1, 1, 0)
	s.Tick() // completes

	stats := s.Stats()
	require.Equal(t, 2, stats.Ticks)
	require.Equal(t, 1, stats.IdleTicks)
	require.Equal(t, 1, stats.Completions)
}
