package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version is set at build time.
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:   "roundtabled",
	Short: "roundtabled — multi-agent conversation orchestration server",
	Long:  "roundtabled serves Roundtable sessions over WebSocket: concurrent multi-agent conversations routed by a dispatcher.",
}

func main() {
	rootCmd.Version = Version
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
