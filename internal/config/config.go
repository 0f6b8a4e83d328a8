// Package config loads the bot configuration from an optional YAML/JSON5 file,
// a .env file and the process environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrMissingCredential is returned when a required credential is absent.
var ErrMissingCredential = errors.New("missing required credential")

// Config is the main configuration structure for promptbot.
type Config struct {
	Version       int                 `yaml:"version"`
	Discord       DiscordConfig       `yaml:"discord"`
	OpenAI        OpenAIConfig        `yaml:"openai"`
	Logging       LoggingConfig       `yaml:"logging"`
	Observability ObservabilityConfig `yaml:"observability"`
}

type DiscordConfig struct {
	Token              string `yaml:"token" envconfig:"DISCORD_TOKEN"`
	ClientID           string `yaml:"client_id" envconfig:"CLIENT_ID"`
	MaxConnectAttempts int    `yaml:"max_connect_attempts" envconfig:"DISCORD_MAX_CONNECT_ATTEMPTS"`
}

type OpenAIConfig struct {
	APIKey     string        `yaml:"api_key" envconfig:"OPENAI_API_KEY"`
	BaseURL    string        `yaml:"base_url" envconfig:"OPENAI_BASE_URL"`
	OrgID      string        `yaml:"org_id" envconfig:"OPENAI_ORG_ID"`
	ChatModel  string        `yaml:"chat_model" envconfig:"OPENAI_CHAT_MODEL"`
	ImageModel string        `yaml:"image_model" envconfig:"OPENAI_IMAGE_MODEL"`
	Timeout    time.Duration `yaml:"timeout" envconfig:"OPENAI_TIMEOUT"`
}

type LoggingConfig struct {
	Level     string `yaml:"level" envconfig:"LOG_LEVEL"`
	Format    string `yaml:"format" envconfig:"LOG_FORMAT"`
	AddSource bool   `yaml:"add_source" envconfig:"LOG_ADD_SOURCE"`
}

type ObservabilityConfig struct {
	// MetricsAddr enables the Prometheus endpoint when non-empty (e.g. ":9090")
	MetricsAddr string `yaml:"metrics_addr" envconfig:"METRICS_ADDR"`

	// OTLPEndpoint enables trace export when non-empty
	OTLPEndpoint string  `yaml:"otlp_endpoint" envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OTLPInsecure bool    `yaml:"otlp_insecure" envconfig:"OTEL_EXPORTER_OTLP_INSECURE"`
	ServiceName  string  `yaml:"service_name" envconfig:"OTEL_SERVICE_NAME"`
	Environment  string  `yaml:"environment" envconfig:"ENVIRONMENT"`
	SamplingRate float64 `yaml:"sampling_rate" envconfig:"OTEL_TRACES_SAMPLER_ARG"`
}

func applyDefaults(cfg *Config) {
	if cfg.Version == 0 {
		cfg.Version = CurrentVersion
	}
	if cfg.Discord.MaxConnectAttempts == 0 {
		cfg.Discord.MaxConnectAttempts = 5
	}
	if cfg.OpenAI.ChatModel == "" {
		cfg.OpenAI.ChatModel = "gpt-3.5-turbo"
	}
	if cfg.OpenAI.Timeout == 0 {
		cfg.OpenAI.Timeout = 2 * time.Minute
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Observability.ServiceName == "" {
		cfg.Observability.ServiceName = "promptbot"
	}
	if cfg.Observability.SamplingRate == 0 {
		cfg.Observability.SamplingRate = 1.0
	}
}

// Validate checks required credentials and value ranges.
func (c *Config) Validate() error {
	var missing []string
	if strings.TrimSpace(c.Discord.Token) == "" {
		missing = append(missing, "DISCORD_TOKEN")
	}
	if strings.TrimSpace(c.Discord.ClientID) == "" {
		missing = append(missing, "CLIENT_ID")
	}
	if strings.TrimSpace(c.OpenAI.APIKey) == "" {
		missing = append(missing, "OPENAI_API_KEY")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingCredential, strings.Join(missing, ", "))
	}

	if err := ValidateVersion(c.Version); err != nil {
		return err
	}

	var issues []string
	switch strings.ToLower(c.Logging.Format) {
	case "json", "text":
	default:
		issues = append(issues, fmt.Sprintf("logging.format must be json or text, got %q", c.Logging.Format))
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		issues = append(issues, fmt.Sprintf("logging.level %q is not recognized", c.Logging.Level))
	}
	if c.OpenAI.Timeout < 0 {
		issues = append(issues, "openai.timeout must not be negative")
	}
	if c.Discord.MaxConnectAttempts < 0 {
		issues = append(issues, "discord.max_connect_attempts must not be negative")
	}
	if c.Observability.SamplingRate < 0 || c.Observability.SamplingRate > 1 {
		issues = append(issues, "observability.sampling_rate must be between 0 and 1")
	}
	if len(issues) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(issues, "; "))
	}
	return nil
}
