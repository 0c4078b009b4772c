package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/douaabenharroud/BotaniAI-Plant-Disease-Detection/config"
	"github.com/douaabenharroud/BotaniAI-Plant-Disease-Detection/logger"
	"github.com/douaabenharroud/BotaniAI-Plant-Disease-Detection/telemetry"
)

var rootCmd = &cobra.Command{
	Use:   "simulator",
	Short: "Upload simulated greenhouse sensor readings to ThingSpeak",
	Long: `simulator samples temperature, humidity, light and soil moisture at
random and uploads one reading per interval until interrupted.`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
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
	rootCmd.Flags().Duration("interval", 0, "time between uploads (default from UPLOAD_INTERVAL or 20s)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "simulator: %s\n", err)
		os.Exit(1)
	}
}
