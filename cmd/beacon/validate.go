package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/thierrymgn/Uber-Fight-sub000/pkg/cli"
	"github.com/thierrymgn/Uber-Fight-sub000/pkg/config"
)

var validateOutput string

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration",
	Long: `Load the configuration (file, defaults and environment overrides) and
report every validation problem, or a summary of the effective settings.

Examples:
  beacon validate --config config.yaml
  GRAFANA_API_KEY=... beacon validate --output json`,
	Args: cobra.NoArgs,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().StringVarP(&validateOutput, "output", "o", "text", "output format: text, json")
}

type configSummary struct {
	Valid             bool     `json:"valid"`
	ListenAddress     string   `json:"listen_address"`
	Endpoint          string   `json:"endpoint"`
	GrafanaConfigured bool     `json:"grafana_configured"`
	ServiceName       string   `json:"service_name"`
	Environment       string   `json:"environment"`
	RateLimitBackend  string   `json:"ratelimit_backend"`
	LogsPerMinute     int      `json:"logs_per_minute"`
	MetricsPerMinute  int      `json:"metrics_per_minute"`
	MetricPrefixes    []string `json:"metric_prefixes"`
	Heartbeat         string   `json:"heartbeat"`
}

func summarize(cfg *config.Config) configSummary {
	return configSummary{
		Valid:             true,
		ListenAddress:     cfg.Server.ListenAddress,
		Endpoint:          cfg.Grafana.Endpoint,
		GrafanaConfigured: cfg.Grafana.Configured(),
		ServiceName:       cfg.Grafana.ServiceName,
		Environment:       cfg.Grafana.Environment,
		RateLimitBackend:  cfg.RateLimit.Backend,
		LogsPerMinute:     cfg.RateLimit.LogsPerMinute,
		MetricsPerMinute:  cfg.RateLimit.MetricsPerMinute,
		MetricPrefixes:    cfg.Ingest.MetricPrefixes,
		Heartbeat:         cfg.Heartbeat.Schedule,
	}
}

func (s configSummary) String() string {
	var b strings.Builder
	b.WriteString("✓ Configuration valid\n")
	fmt.Fprintf(&b, "  listen:      %s\n", s.ListenAddress)
	fmt.Fprintf(&b, "  endpoint:    %s\n", s.Endpoint)
	if s.GrafanaConfigured {
		b.WriteString("  credentials: configured\n")
	} else {
		b.WriteString("  credentials: missing (delivery disabled)\n")
	}
	fmt.Fprintf(&b, "  service:     %s (%s)\n", s.ServiceName, s.Environment)
	fmt.Fprintf(&b, "  rate limit:  %s, %d logs/min, %d metrics/min\n", s.RateLimitBackend, s.LogsPerMinute, s.MetricsPerMinute)
	fmt.Fprintf(&b, "  prefixes:    %s\n", strings.Join(s.MetricPrefixes, ", "))
	fmt.Fprintf(&b, "  heartbeat:   %s", s.Heartbeat)
	return b.String()
}

func runValidate(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseOutputFormat(validateOutput)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		if fieldErrs := cli.ConfigErrors(err); len(fieldErrs) > 0 {
			out := cmd.ErrOrStderr()
			fmt.Fprintf(out, "✗ Configuration invalid (%d errors)\n", len(fieldErrs))
			for _, fe := range fieldErrs {
				fmt.Fprintf(out, "  - %s\n", fe.Error())
			}
		}
		return err
	}

	return cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), summarize(cfg))
}
