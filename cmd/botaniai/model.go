package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/douaabenharroud/BotaniAI-Plant-Disease-Detection/config"
	"github.com/douaabenharroud/BotaniAI-Plant-Disease-Detection/middlewares"
	"github.com/douaabenharroud/BotaniAI-Plant-Disease-Detection/ml"
)

var modelCmd = &cobra.Command{
	Use:   "model",
	Short: "Manage model artifacts",
}

var modelInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write the placeholder model bundle to path (default model.json)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "model.json"
		if len(args) == 1 {
			path = args[0]
		}
		if err := ml.WriteBundle(path, ml.NewFallbackBundle()); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (placeholder model, predictions are not meaningful)\n", path)
		return nil
	},
}

var modelInspectCmd = &cobra.Command{
	Use:   "inspect [dir]",
	Short: "List model artifacts in dir (default .)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := "."
		if len(args) == 1 {
			dir = args[0]
		}
		infos, err := ml.Inspect(dir)
		if err != nil {
			return err
		}
		if len(infos) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "no artifacts found")
		}
		for _, info := range infos {
			if info.Error != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "%-24s %-14s %s\n", info.Name, info.Kind, info.Error)
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%-24s %s\n", info.Name, info.Kind)
		}
		return nil
	},
}

var tokenCmd = &cobra.Command{
	Use:   "token [subject]",
	Short: "Issue a bearer token for the history routes using JWT_SECRET",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		ttl, _ := cmd.Flags().GetDuration("ttl")
		token, err := middlewares.IssueToken(cfg.Server.JWTSecret, args[0], ttl)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().Duration("ttl", 24*time.Hour, "token lifetime")
	modelCmd.AddCommand(modelInitCmd)
	modelCmd.AddCommand(modelInspectCmd)
	rootCmd.AddCommand(modelCmd)
	rootCmd.AddCommand(tokenCmd)
}
