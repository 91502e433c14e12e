package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kjstillabower/weather-dashboard/internal/observability"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// cli carries the logger shared by every subcommand.
type cli struct {
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	app := &cli{}
	cmd := &cobra.Command{
		Use:           "weather-dashboard",
		Short:         "Weather dashboard service",
		Long:          `Serves the weather dashboard: token check, current weather lookup, CSV upload with seasonal statistics, anomaly flags, rolling means, charts and exports.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger, err := observability.NewLogger()
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "logger: %v\n", err)
				return err
			}
			app.logger = logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if err := observability.FlushTelemetry(app.logger); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "telemetry flush: %v\n", err)
			}
		},
	}
	serve := newServeCmd(app)
	cmd.RunE = serve.RunE
	cmd.AddCommand(serve, newAnalyzeCmd(app))
	return cmd
}
