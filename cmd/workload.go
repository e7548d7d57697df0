package cmd

import (
	"encoding/json"
	"os"

	"github.com/arctir/vkernel/internal/kernel"
	"github.com/arctir/vkernel/internal/supervisor"
)

func daemonFromWorkload(p workloadProcess) supervisor.Daemon {
	return supervisor.Daemon{
		Name:           p.Name,
		RequiredCycles: p.Cycles,
		RequiredMemory: p.Memory,
		Priority:       p.Priority,
		Restart:        true,
	}
}

// workloadProcess is one entry in a --workload JSON file: a description of
// a process to submit at kernel startup.
type workloadProcess struct {
	Name       string `json:"name"`
	Cycles     int    `json:"cycles"`
	Memory     int    `json:"memory"`
	Priority   int    `json:"priority"`
	Persistent bool   `json:"persistent"`
}

// defaultWorkload is used when --workload is not given, so ps/status have
// something to show without requiring a file on first run.
var defaultWorkload = []workloadProcess{
	{Name: "init-logger", Cycles: 4, Memory: 64, Priority: 5, Persistent: true},
	{Name: "batch-job-a", Cycles: 6, Memory: 256, Priority: 1},
	{Name: "batch-job-b", Cycles: 3, Memory: 128, Priority: 3},
}

func loadWorkload(path string) ([]workloadProcess, error) {
	if path == "" {
		return defaultWorkload, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var procs []workloadProcess
	if err := json.Unmarshal(b, &procs); err != nil {
		return nil, err
	}
	return procs, nil
}

// submitWorkload submits every non-persistent process directly through the
// facade and registers every persistent one as a supervised init daemon:
// supervisor.Init submits daemons with persistent=true, so the process
// table's own refill-in-place mechanism (Table.OnSchedulerComplete) is what
// keeps these running under the same PID, not a resubmission loop. It is
// used by the long-running `run` command, where daemons that never finish
// are exactly the point.
func submitWorkload(k *kernel.Kernel, procs []workloadProcess) {
	for _, p := range procs {
		if p.Persistent {
			k.Init.Register(daemonFromWorkload(p))
			continue
		}
		k.Facade.Submit(p.Name, p.Cycles, p.Memory, p.Priority, false)
	}
}

// submitBatchWorkload submits only the non-persistent entries, skipping
// (and reporting) any marked persistent: a batch run that waits for
// HasWork to go false can never do so with a daemon that restarts forever
// in the mix.
func submitBatchWorkload(k *kernel.Kernel, procs []workloadProcess) (skipped []string) {
	for _, p := range procs {
		if p.Persistent {
			skipped = append(skipped, p.Name)
			continue
		}
		k.Facade.Submit(p.Name, p.Cycles, p.Memory, p.Priority, false)
	}
	return skipped
}
