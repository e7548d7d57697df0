package cmd

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/arctir/vkernel/internal/process"
)

var psCmd = &cobra.Command{
	Use:   "ps",
	Short: "Run a workload to completion and print the final process table.",
	Run:   runPS,
}

func runPS(cmd *cobra.Command, args []string) {
	k := buildKernel(cmd)
	workloadPath, _ := cmd.Flags().GetString(workloadFlag)
	procs, err := loadWorkload(workloadPath)
	if err != nil {
		outputErrorAndFail(err.Error())
	}
	if skipped := submitBatchWorkload(k, procs); len(skipped) > 0 {
		k.Log.Warnf("ps: skipping persistent workload entries that never complete: %v", skipped)
	}

	for n := 0; n < 100000 && k.Scheduler.HasWork(); n++ {
		k.Scheduler.Tick()
	}

	snap := k.Table.Snapshot()
	outType, _ := cmd.Flags().GetString(outputFlag)
	switch resolveOutputType(outType) {
	case jsonOut:
		out, _ := json.Marshal(snap)
		cmd.Println(string(out))
	default:
		cmd.Println(string(renderPSTable(snap)))
	}
}

func renderPSTable(snap []process.Snapshot) []byte {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetHeader([]string{"PID", "NAME", "STATE", "PRIORITY", "PARENT", "PERSISTENT"})
	for _, p := range snap {
		table.Append([]string{
			strconv.Itoa(p.PID),
			p.Name,
			p.State.String(),
			strconv.Itoa(p.Priority),
			strconv.Itoa(p.ParentPID),
			strconv.FormatBool(p.Persistent),
		})
	}
	table.Render()
	return buf.Bytes()
}
