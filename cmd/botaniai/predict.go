package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/douaabenharroud/BotaniAI-Plant-Disease-Detection/client"
	"github.com/douaabenharroud/BotaniAI-Plant-Disease-Detection/models"
)

// featureFlags maps flag names onto feature names.
var featureFlags = map[string]string{
	"height":          models.FeatureHeight,
	"leaves":          models.FeatureLeafCount,
	"new-growth":      models.FeatureNewGrowthCount,
	"watering-amount": models.FeatureWateringAmount,
	"watering-days":   models.FeatureWateringFrequency,
	"temperature":     models.FeatureRoomTemperature,
	"humidity":        models.FeatureHumidity,
	"soil-moisture":   models.FeatureSoilMoisture,
}

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Request a plant-health prediction",
	Long:  "Sends the given measurements to /predict. Omitted measurements take the service defaults.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		features := make(map[string]float64)
		for flag, name := range featureFlags {
			if !cmd.Flags().Changed(flag) {
				continue
			}
			v, err := cmd.Flags().GetFloat64(flag)
			if err != nil {
				return err
			}
			features[name] = v
		}

		res, err := client.NewPredictClient(serviceURL).Predict(cmd.Context(), features)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%s (confidence %.3f)\n%s\n", res.Label, res.Confidence, res.Recommendation)
		if res.UsingFallback {
			fmt.Fprintln(cmd.OutOrStdout(), "warning: service is running the fallback model")
		}
		if verbose, _ := cmd.Flags().GetBool("json"); verbose {
			out, err := json.MarshalIndent(res, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
		}
		return nil
	},
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check that the prediction service is up",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := client.NewPredictClient(serviceURL).Health(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: model=%s fallback=%t features=%d\n", h.Status, h.Model, h.UsingFallback, h.FeaturesCount)
		return nil
	},
}

func init() {
	for flag, name := range featureFlags {
		predictCmd.Flags().Float64(flag, models.FeatureDefaults[name], name)
	}
	predictCmd.Flags().Bool("json", false, "also print the full response")
	rootCmd.AddCommand(predictCmd)
	rootCmd.AddCommand(healthCmd)
}
