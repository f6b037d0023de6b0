package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/AdityaNG/ugv-cam/internal/config"
	"github.com/AdityaNG/ugv-cam/internal/log"
	"github.com/AdityaNG/ugv-cam/pkg/agent"
	"github.com/AdityaNG/ugv-cam/pkg/schema"
)

// demoStage is one leg of the scripted drive.
type demoStage struct {
	name     string
	left     float64
	right    float64
	duration time.Duration
}

func newDemoCmd() *cobra.Command {
	var rate time.Duration

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run a short scripted drive and print the telemetry",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			log.Init(cfg.LogLevel)

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			ag, err := agent.Connect(ctx, agent.Config{
				UGVURL:    cfg.UGVURL,
				CameraURL: cfg.CameraURL,
				LogDir:    cfg.LogDir,
			})
			if err != nil {
				return err
			}
			defer func() {
				if err := ag.Shutdown(); err != nil {
					log.Error("shutdown", "error", err)
				}
			}()

			stages := []demoStage{
				{name: "forward", left: 0.3, right: 0.3, duration: 2 * time.Second},
				{name: "turn", left: 0.3, right: -0.3, duration: time.Second},
				{name: "stop", left: 0, right: 0, duration: time.Second},
			}
			for _, st := range stages {
				if err := runStage(ctx, ag, st, rate); err != nil {
					return err
				}
			}

			imu, err := schema.Validate(schema.KindGetIMUData, nil)
			if err != nil {
				return err
			}
			state, err := ag.Step(ctx, imu)
			if err != nil {
				return err
			}
			fmt.Printf("roll=%.2f pitch=%.2f voltage=%.2f temp=%.1f\n",
				state.Sensors.Roll, state.Sensors.Pitch, state.Feedback.Voltage, state.Sensors.Temp)
			fmt.Printf("session: %s (%d steps, %d warnings)\n", ag.SessionDir(), ag.Steps(), ag.Warnings())
			return nil
		},
	}

	cmd.Flags().DurationVar(&rate, "rate", 100*time.Millisecond, "time between control steps")
	return cmd
}

// runStage repeats one speed command until the stage duration elapses.
func runStage(ctx context.Context, ag *agent.Agent, st demoStage, rate time.Duration) error {
	action, err := schema.SpeedCtrl(st.left, st.right)
	if err != nil {
		return err
	}
	log.Info("demo stage", "name", st.name, "left", st.left, "right", st.right)

	ticker := time.NewTicker(rate)
	defer ticker.Stop()
	deadline := time.After(st.duration)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline:
			return nil
		case <-ticker.C:
			if _, err := ag.Step(ctx, action); err != nil {
				return fmt.Errorf("stage %s: %w", st.name, err)
			}
		}
	}
}
