package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/AdityaNG/ugv-cam/internal/log"
	"github.com/AdityaNG/ugv-cam/pkg/replay"
)

func newReplayCmd() *cobra.Command {
	var (
		out     string
		horizon float64
	)

	cmd := &cobra.Command{
		Use:   "replay <session-dir>",
		Short: "Render a recorded session with predicted trajectory overlays",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log.Init("info")

			dir := args[0]
			if out == "" {
				out = filepath.Join(dir, "replay")
			}

			lg, err := replay.Load(dir)
			if err != nil {
				return err
			}

			n, err := lg.Render(out, horizon)
			if err != nil {
				return err
			}
			fmt.Printf("rendered %d frames to %s\n", n, out)
			return nil
		},
	}

	cmd.Flags().StringVar(&out, "out", "", "output directory (default <session-dir>/replay)")
	cmd.Flags().Float64Var(&horizon, "horizon", 2.0, "trajectory prediction horizon in seconds")
	return cmd
}
