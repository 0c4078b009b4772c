package main

import (
	"github.com/spf13/cobra"

	"github.com/douaabenharroud/BotaniAI-Plant-Disease-Detection/config"
	"github.com/douaabenharroud/BotaniAI-Plant-Disease-Detection/logger"
	"github.com/douaabenharroud/BotaniAI-Plant-Disease-Detection/telemetry"
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Upload simulated sensor readings until interrupted",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("interval") {
			cfg.Telemetry.Interval, _ = cmd.Flags().GetDuration("interval")
		}
		logger.Init(cfg.LogLevel)
		return telemetry.RunUntilSignal(cmd.Context(), cfg.Telemetry, logger.New("simulator"))
	},
}

func init() {
	simulateCmd.Flags().Duration("interval", 0, "time between uploads (default from UPLOAD_INTERVAL or 20s)")
	rootCmd.AddCommand(simulateCmd)
}
