package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/thierrymgn/Uber-Fight-sub000/pkg/cli"
	"github.com/thierrymgn/Uber-Fight-sub000/pkg/config"
)

var (
	// Global flags
	cfgFile string
)

var rootCmd = &cobra.Command{
	Use:   "beacon",
	Short: "Beacon - telemetry forwarding shim for Uber Fight",
	Long: `Beacon accepts logs and metrics from the Uber Fight mobile app and
forwards them to Grafana Cloud over OTLP/HTTP.

Every event is sanitized (sensitive attributes are redacted, long strings
truncated) and every client is rate limited before anything is forwarded.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.ExitCode(err))
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (optional; environment variables apply either way)")
}

// loadConfig reads configuration for cmd. A missing file is only an error
// when --config was given explicitly.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.LoadOptional(cfgFile, cmd.Flags().Changed("config"))
	if err != nil {
		return nil, err
	}
	return cfg, nil
}
