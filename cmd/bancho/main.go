package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"
)

type rootOptions struct {
	configFile string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	rootCmd := &cobra.Command{
		Use:   "bancho",
		Short: "bancho server core",
		Long: `bancho holds online session state in memory, hydrates the world from the
relational store at boot and runs the background loops that keep it
consistent: inactivity eviction, donor expiry and replay surveillance.`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVarP(&opts.configFile, "config", "c", "", "YAML config overlay (env: BANCHO_CONFIG_FILE)")

	rootCmd.AddCommand(newServeCmd(opts))
	rootCmd.AddCommand(newSchemaCmd(opts))
	rootCmd.AddCommand(newConditionsCmd(opts))
	return rootCmd
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
