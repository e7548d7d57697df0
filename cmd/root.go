// Package cmd builds the vkerneld command-line interface: cobra commands
// that configure and drive the simulated kernel the internal/kernel package
// assembles.
package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/arctir/vkernel/internal/klog"
	"github.com/arctir/vkernel/internal/scheduler"
)

const (
	poolBytesFlag      = "pool-bytes"
	algorithmFlag      = "algorithm"
	quantumFlag        = "quantum"
	cyclesPerTickFlag  = "cycles-per-tick"
	tickIntervalMsFlag = "tick-interval-ms"
	logLevelFlag       = "log-level"
	snapshotDirFlag    = "snapshot-dir"
	workloadFlag       = "workload"
	outputFlag         = "output"
)

type outputType int

const (
	tableOut outputType = iota
	jsonOut
)

var vkernelCmd = &cobra.Command{
	Use:   "vkerneld",
	Short: "A user-space simulation of a preemptive multitasking kernel.",
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

func init() {
	pf := vkernelCmd.PersistentFlags()
	pf.Int(poolBytesFlag, 1<<20, "Total bytes the memory pool can allocate.")
	pf.String(algorithmFlag, "round_robin", "Scheduling algorithm [fcfs, round_robin, priority].")
	pf.Int(quantumFlag, 4, "Cycles a process may run before round_robin preempts it.")
	pf.Int(cyclesPerTickFlag, 1, "CPU cycles consumed per scheduler tick.")
	pf.Int(tickIntervalMsFlag, 50, "Milliseconds between scheduler ticks.")
	pf.String(logLevelFlag, "INFO", "Log level [OFF, DEBUG, INFO, WARN, ERROR, CRITICAL].")
	pf.String(snapshotDirFlag, "", "Directory for snapshot storage (defaults to the XDG data dir).")
	pf.String(workloadFlag, "", "Path to a JSON workload file of processes to submit at startup.")

	psCmd.Flags().StringP(outputFlag, "o", "table", "Output type [table (default), json].")
	statusCmd.Flags().StringP(outputFlag, "o", "table", "Output type [table (default), json].")

	vkernelCmd.AddCommand(runCmd)
	vkernelCmd.AddCommand(psCmd)
	vkernelCmd.AddCommand(statusCmd)
}

// SetupCommands wires and returns the root command, ready for Execute.
func SetupCommands() *cobra.Command {
	return vkernelCmd
}

func algorithmKind(s string) scheduler.Kind {
	switch s {
	case "fcfs":
		return scheduler.FCFS
	case "priority":
		return scheduler.Priority
	default:
		return scheduler.RoundRobin
	}
}

func resolveOutputType(s string) outputType {
	if s == "json" {
		return jsonOut
	}
	return tableOut
}

func logLevel(s string) klog.Level {
	lvl, err := klog.LevelFromString(s)
	if err != nil {
		return klog.INFO
	}
	return lvl
}

func tickInterval(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}

func outputErrorAndFail(msg string) {
	fmt.Fprintln(os.Stderr, msg)
	os.Exit(1)
}
