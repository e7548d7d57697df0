package supervisor

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeSubmitter struct {
	mu         sync.Mutex
	nextPID    int
	submits    []string
	persistent []bool
	waitOK     chan bool
}

func newFakeSubmitter() *fakeSubmitter {
	return &fakeSubmitter{nextPID: 1, waitOK: make(chan bool, 8)}
}

func (f *fakeSubmitter) Submit(name string, cycles, mem, priority int, persistent bool) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	pid := f.nextPID
	f.nextPID++
	f.submits = append(f.submits, name)
	f.persistent = append(f.persistent, persistent)
	return pid
}

func (f *fakeSubmitter) WaitForProcess(pid int) bool {
	return <-f.waitOK
}

func TestRunSubmitsSelfShellAndEveryRegisteredDaemon(t *testing.T) {
	sub := newFakeSubmitter()
	init := New(sub, nil)
	init.Register(Daemon{Name: "logger", RequiredCycles: 1})
	init.Register(Daemon{Name: "watchdog", RequiredCycles: 1})

	init.Run()

	sub.mu.Lock()
	defer sub.mu.Unlock()
	require.Equal(t, []string{InitProcessName, ShellProcessName, "logger", "watchdog"}, sub.submits)
	require.Equal(t, 1, init.PID(InitProcessName), "init must be submitted first, landing on PID 1")
	for _, p := range sub.persistent {
		require.True(t, p, "every submission init makes must be persistent")
	}
}

func TestRestartDaemonResubmitsOnlyWhenActuallyKilled(t *testing.T) {
	sub := newFakeSubmitter()
	init := New(sub, nil)
	init.Register(Daemon{Name: "watchdog", RequiredCycles: 1, Restart: true})

	init.Run()
	sub.waitOK <- false // daemon was killed: resubmit a fresh instance

	require.Eventually(t, func() bool {
		sub.mu.Lock()
		defer sub.mu.Unlock()
		return len(sub.submits) == 4 // init, shell, watchdog, watchdog resubmit
	}, time.Second, 5*time.Millisecond)

	init.Stop()
	sub.waitOK <- true // release the supervising goroutine; with stop closed it returns instead of resubmitting
}

func TestPIDReturnsMinusOneForUnknownDaemon(t *testing.T) {
	sub := newFakeSubmitter()
	init := New(sub, nil)
	require.Equal(t, -1, init.PID("nope"))
}
