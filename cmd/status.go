package cmd

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Run a workload to completion and print scheduler and memory statistics.",
	Run:   runStatus,
}

type statusReport struct {
	Ticks       int `json:"ticks"`
	IdleTicks   int `json:"idle_ticks"`
	Completions int `json:"completions"`
	MemoryUsed  int `json:"memory_used"`
	MemoryTotal int `json:"memory_total"`
	MemoryFree  int `json:"memory_free"`
}

func runStatus(cmd *cobra.Command, args []string) {
	k := buildKernel(cmd)
	workloadPath, _ := cmd.Flags().GetString(workloadFlag)
	procs, err := loadWorkload(workloadPath)
	if err != nil {
		outputErrorAndFail(err.Error())
	}
	if skipped := submitBatchWorkload(k, procs); len(skipped) > 0 {
		k.Log.Warnf("status: skipping persistent workload entries that never complete: %v", skipped)
	}

	for n := 0; n < 100000 && k.Scheduler.HasWork(); n++ {
		k.Scheduler.Tick()
	}

	stats := k.Scheduler.Stats()
	used, total, free := k.Facade.MemoryUsage()
	report := statusReport{
		Ticks:       stats.Ticks,
		IdleTicks:   stats.IdleTicks,
		Completions: stats.Completions,
		MemoryUsed:  used,
		MemoryTotal: total,
		MemoryFree:  free,
	}

	outType, _ := cmd.Flags().GetString(outputFlag)
	switch resolveOutputType(outType) {
	case jsonOut:
		out, _ := json.Marshal(report)
		cmd.Println(string(out))
	default:
		cmd.Println(string(renderStatusTable(report)))
	}
}

func renderStatusTable(r statusReport) []byte {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetHeader([]string{"METRIC", "VALUE"})
	table.AppendBulk([][]string{
		{"ticks", strconv.Itoa(r.Ticks)},
		{"idle_ticks", strconv.Itoa(r.IdleTicks)},
		{"completions", strconv.Itoa(r.Completions)},
		{"memory_used", strconv.Itoa(r.MemoryUsed)},
		{"memory_total", strconv.Itoa(r.MemoryTotal)},
		{"memory_free", strconv.Itoa(r.MemoryFree)},
	})
	table.Render()
	return buf.Bytes()
}
