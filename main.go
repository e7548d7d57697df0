package main

import (
	"fmt"
	"os"

	"github.com/arctir/vkernel/cmd"
)

func main() {
	root := cmd.SetupCommands()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
