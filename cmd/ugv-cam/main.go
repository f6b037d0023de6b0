// Command ugv-cam drives the vehicle and records sessions.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "ugv-cam",
		Short:         "Teleoperate a UGV with camera feedback and session logging",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	root.AddCommand(
		newDriveCmd(),
		newDemoCmd(),
		newReplayCmd(),
	)
	return root
}
