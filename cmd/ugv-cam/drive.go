package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/AdityaNG/ugv-cam/internal/config"
	"github.com/AdityaNG/ugv-cam/internal/log"
	"github.com/AdityaNG/ugv-cam/pkg/agent"
	"github.com/AdityaNG/ugv-cam/pkg/web"
)

func newDriveCmd() *cobra.Command {
	var (
		ugvURL string
		camURL string
		addr   string
		logDir string
	)

	cmd := &cobra.Command{
		Use:   "drive",
		Short: "Connect to the vehicle and serve the teleop dashboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("ugv") {
				cfg.UGVURL = ugvURL
			}
			if cmd.Flags().Changed("cam") {
				cfg.CameraURL = camURL
			}
			if cmd.Flags().Changed("addr") {
				cfg.WebAddr = addr
			}
			if cmd.Flags().Changed("log-dir") {
				cfg.LogDir = logDir
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

			srv := web.NewServer(cfg.WebAddr, ag)
			go func() {
				<-ctx.Done()
				log.Info("signal received, shutting down")
				if err := srv.Shutdown(); err != nil {
					log.Error("server shutdown", "error", err)
				}
			}()

			return srv.Run()
		},
	}

	cmd.Flags().StringVar(&ugvURL, "ugv", "", "chassis base URL (overrides UGV_URL)")
	cmd.Flags().StringVar(&camURL, "cam", "", "camera base URL (overrides CAM_URL)")
	cmd.Flags().StringVar(&addr, "addr", "", "dashboard listen address (overrides WEB_ADDR)")
	cmd.Flags().StringVar(&logDir, "log-dir", "", "session log root (overrides UGV_LOG_DIR)")
	return cmd
}
