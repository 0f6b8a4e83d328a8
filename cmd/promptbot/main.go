// Package main provides the CLI entry point for promptbot, a Discord bot that
// answers chat messages and generates images through OpenAI.
//
// # Basic Usage
//
// Start the bot:
//
//	promptbot serve
//
// Print or publish the slash commands:
//
//	promptbot commands list
//	promptbot commands register
//
// # Environment Variables
//
// Required:
//
//   - DISCORD_TOKEN: Discord bot token
//   - CLIENT_ID: Discord application (client) ID used to register commands
//   - OPENAI_API_KEY: OpenAI API key
//
// Optional: OPENAI_BASE_URL, OPENAI_CHAT_MODEL, OPENAI_IMAGE_MODEL,
// OPENAI_TIMEOUT, LOG_LEVEL, LOG_FORMAT, METRICS_ADDR and
// OTEL_EXPORTER_OTLP_ENDPOINT. Variables may also be placed in a .env file.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// Build information - populated by ldflags during build.
//
//	go build -ldflags "-X main.version=v1.0.0 -X main.commit=$(git rev-parse HEAD) -X main.date=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := buildRootCmd().Execute(); err != nil {
		slog.Error("command execution failed", "error", err)
		os.Exit(1)
	}
}

// buildRootCmd creates the root command with all subcommands attached.
func buildRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "promptbot",
		Short: "promptbot - Discord chat and image generation bot backed by OpenAI",
		Long: `promptbot connects a Discord bot to OpenAI.

Slash commands:
  /start_chat   reply to every message
  /deactivate   only reply when mentioned
  /imagine      generate an image from a prompt`,
		Version:      fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		buildServeCmd(),
		buildCommandsCmd(),
	)
	return rootCmd
}
