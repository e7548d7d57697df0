package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/arctir/vkernel/internal/kernel"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the kernel's event loop in the foreground.",
	Run:   runRun,
}

func buildKernel(cmd *cobra.Command) *kernel.Kernel {
	fs := cmd.Flags()
	cfg := kernel.DefaultConfig()

	if v, _ := fs.GetInt(poolBytesFlag); v > 0 {
		cfg.MemoryPoolBytes = v
	}
	if v, _ := fs.GetString(algorithmFlag); v != "" {
		cfg.Algorithm = algorithmKind(v)
	}
	if v, _ := fs.GetInt(quantumFlag); v > 0 {
		cfg.Quantum = v
	}
	if v, _ := fs.GetInt(cyclesPerTickFlag); v > 0 {
		cfg.CyclesPerTick = v
	}
	if v, _ := fs.GetInt(tickIntervalMsFlag); v > 0 {
		cfg.TickInterval = tickInterval(v)
	}
	if v, _ := fs.GetString(logLevelFlag); v != "" {
		cfg.LogLevel = logLevel(v)
	}
	if v, _ := fs.GetString(snapshotDirFlag); v != "" {
		cfg.SnapshotDir = v
	}

	k, err := kernel.New(cfg)
	if err != nil {
		outputErrorAndFail(err.Error())
	}
	return k
}

func runRun(cmd *cobra.Command, args []string) {
	k := buildKernel(cmd)

	workloadPath, _ := cmd.Flags().GetString(workloadFlag)
	procs, err := loadWorkload(workloadPath)
	if err != nil {
		outputErrorAndFail(err.Error())
	}
	submitWorkload(k, procs)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		k.Log.Infof("vkerneld: shutdown signal received")
		k.Shutdown()
	}()

	k.Start()
}
