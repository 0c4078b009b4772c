package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/douaabenharroud/BotaniAI-Plant-Disease-Detection/config"
	"github.com/douaabenharroud/BotaniAI-Plant-Disease-Detection/logger"
	"github.com/douaabenharroud/BotaniAI-Plant-Disease-Detection/models"
	"github.com/douaabenharroud/BotaniAI-Plant-Disease-Detection/telemetry"
)

var sensorCmd = &cobra.Command{
	Use:   "sensor",
	Short: "Show the latest reading on the ThingSpeak channel",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		for flag, dst := range map[string]*string{
			"channel":  &cfg.Telemetry.ChannelID,
			"read-key": &cfg.Telemetry.ReadAPIKey,
			"read-url": &cfg.Telemetry.ReadURL,
		} {
			if cmd.Flags().Changed(flag) {
				*dst, _ = cmd.Flags().GetString(flag)
			}
		}

		reader := telemetry.NewChannelReader(cfg.Telemetry, logger.New("thingspeak"))
		if reader == nil {
			return errors.New("no channel configured: set THINGSPEAK_CHANNEL_ID or --channel")
		}
		r, err := reader.Latest(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "entry %d at %s\n", r.EntryID, r.Timestamp.Format("2006-01-02 15:04:05"))
		fmt.Fprintf(cmd.OutOrStdout(), "temperature=%.2fC humidity=%.2f%% light=%d soil=%d (%.1f%%)\n",
			r.Temperature, r.Humidity, r.Light, r.SoilMoisture, models.SoilMoisturePercent(float64(r.SoilMoisture)))
		return nil
	},
}

func init() {
	sensorCmd.Flags().String("channel", "", "ThingSpeak channel ID (default from THINGSPEAK_CHANNEL_ID)")
	sensorCmd.Flags().String("read-key", "", "ThingSpeak read API key (default from THINGSPEAK_READ_API_KEY)")
	sensorCmd.Flags().String("read-url", "", "ThingSpeak API base URL")
	rootCmd.AddCommand(sensorCmd)
}
