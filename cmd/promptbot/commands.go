package main

import (
	"github.com/spf13/cobra"
)

// buildServeCmd creates the "serve" command that runs the bot.
func buildServeCmd() *cobra.Command {
	var opts serveOptions

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Connect to Discord and start answering",
		Long: `Connect to Discord and start answering.

The bot will:
1. Load configuration from .env, the optional config file and the environment
2. Register the slash commands globally (unless --skip-register)
3. Open the Discord gateway and dispatch commands and messages
4. Serve /metrics and /healthz when a metrics address is set

Graceful shutdown is handled on SIGINT/SIGTERM signals.`,
		Example: `  # Start with environment configuration
  promptbot serve

  # Start with a config file and metrics
  promptbot serve --config promptbot.yaml --metrics-addr :9090`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "Path to YAML or JSON5 configuration file")
	cmd.Flags().BoolVar(&opts.skipRegister, "skip-register", false, "Do not publish slash commands on startup")
	cmd.Flags().StringVar(&opts.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (overrides METRICS_ADDR)")
	cmd.Flags().BoolVarP(&opts.debug, "debug", "d", false, "Enable debug logging")

	return cmd
}

// buildCommandsCmd creates the "commands" command group.
func buildCommandsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "commands",
		Short: "Inspect or publish the slash commands",
	}
	cmd.AddCommand(buildCommandsListCmd(), buildCommandsRegisterCmd())
	return cmd
}

func buildCommandsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print the slash command definitions as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCommandsList(cmd.OutOrStdout())
		},
	}
}

func buildCommandsRegisterCmd() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Replace the application's global slash commands and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCommandsRegister(cmd.Context(), cmd.OutOrStdout(), configPath)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to YAML or JSON5 configuration file")
	return cmd
}
