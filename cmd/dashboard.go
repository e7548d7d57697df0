package cmd

import (
	"github.com/spf13/cobra"

	"github.com/arctir/vkernel/ui"
)

const addrFlag = "addr"

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Run the kernel and serve a read-only web dashboard over it.",
	Run:   runDashboard,
}

func init() {
	dashboardCmd.Flags().String(addrFlag, ui.DefaultAddr, "Address to serve the dashboard on.")
	vkernelCmd.AddCommand(dashboardCmd)
}

func runDashboard(cmd *cobra.Command, args []string) {
	k := buildKernel(cmd)
	workloadPath, _ := cmd.Flags().GetString(workloadFlag)
	procs, err := loadWorkload(workloadPath)
	if err != nil {
		outputErrorAndFail(err.Error())
	}
	submitWorkload(k, procs)

	go k.Start()

	addr, _ := cmd.Flags().GetString(addrFlag)
	dash := ui.New(k)
	if err := dash.RunUI(addr); err != nil {
		outputErrorAndFail(err.Error())
	}
}
