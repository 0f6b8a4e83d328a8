package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/haasonsaas/promptbot/internal/channels/discord"
	"github.com/haasonsaas/promptbot/internal/commands"
	"github.com/haasonsaas/promptbot/internal/config"
	"github.com/haasonsaas/promptbot/internal/dispatch"
	"github.com/haasonsaas/promptbot/internal/observability"
	"github.com/haasonsaas/promptbot/internal/providers"
	"github.com/haasonsaas/promptbot/pkg/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const shutdownTimeout = 30 * time.Second

type serveOptions struct {
	configPath   string
	skipRegister bool
	metricsAddr  string
	debug        bool
}

// runServe implements the serve command logic.
func runServe(ctx context.Context, opts serveOptions) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if opts.metricsAddr != "" {
		cfg.Observability.MetricsAddr = opts.metricsAddr
	}
	if opts.debug {
		cfg.Logging.Level = "debug"
	}

	logger := observability.NewLogger(observability.LogConfig{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		AddSource: cfg.Logging.AddSource,
	})
	slog.SetDefault(logger)

	logger.Info("starting promptbot",
		"version", version,
		"commit", commit,
		"config", opts.configPath)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := observability.NewMetrics(reg)

	tracer, shutdownTracer := observability.NewTracer(observability.TraceConfig{
		ServiceName:    cfg.Observability.ServiceName,
		ServiceVersion: version,
		Environment:    cfg.Observability.Environment,
		Endpoint:       cfg.Observability.OTLPEndpoint,
		SamplingRate:   cfg.Observability.SamplingRate,
		EnableInsecure: cfg.Observability.OTLPInsecure,
	})

	gateway, err := providers.NewOpenAIGateway(providers.OpenAIConfig{
		APIKey:     cfg.OpenAI.APIKey,
		BaseURL:    cfg.OpenAI.BaseURL,
		OrgID:      cfg.OpenAI.OrgID,
		ChatModel:  cfg.OpenAI.ChatModel,
		ImageModel: cfg.OpenAI.ImageModel,
		Timeout:    cfg.OpenAI.Timeout,
		Logger:     logger,
		Metrics:    metrics,
		Tracer:     tracer,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize openai: %w", err)
	}
	logger.Info("openai gateway ready", "chat_model", gateway.ChatModel())

	var dispatcher *dispatch.Dispatcher
	adapter, err := discord.NewAdapter(discord.Config{
		Token:              cfg.Discord.Token,
		MaxConnectAttempts: cfg.Discord.MaxConnectAttempts,
		Logger:             logger,
		Handler: discord.HandlerFunc(func(ctx context.Context, ev *models.Event) error {
			return dispatcher.Handle(ctx, ev)
		}),
	})
	if err != nil {
		return fmt.Errorf("failed to initialize discord: %w", err)
	}

	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	dispatcher, err = newDispatcher(ctx, serveDeps{
		Logger:       logger,
		Metrics:      metrics,
		Tracer:       tracer,
		AI:           gateway,
		Replier:      adapter,
		Publisher:    adapter,
		AppID:        cfg.Discord.ClientID,
		SkipRegister: opts.skipRegister,
	})
	if err != nil {
		return err
	}

	var metricsServer *http.Server
	if addr := cfg.Observability.MetricsAddr; addr != "" {
		metricsServer = &http.Server{
			Addr:              addr,
			Handler:           newMetricsMux(reg, dispatcher),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server failed", "addr", addr, "error", err)
			}
		}()
		logger.Info("metrics server listening", "addr", addr)
	}

	if err := adapter.Start(ctx); err != nil {
		return fmt.Errorf("failed to start discord: %w", err)
	}

	<-ctx.Done()
	logger.Info("shutdown signal received, initiating graceful shutdown")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	var shutdownErr error
	if err := adapter.Stop(shutdownCtx); err != nil {
		shutdownErr = errors.Join(shutdownErr, err)
	}
	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			shutdownErr = errors.Join(shutdownErr, err)
		}
	}
	if err := shutdownTracer(shutdownCtx); err != nil {
		shutdownErr = errors.Join(shutdownErr, err)
	}
	if shutdownErr != nil {
		return fmt.Errorf("shutdown failed: %w", shutdownErr)
	}

	logger.Info("promptbot stopped")
	return nil
}

// serveDeps are the collaborators newDispatcher wires together.
type serveDeps struct {
	Logger  *slog.Logger
	Metrics *observability.Metrics
	Tracer  *observability.Tracer

	AI      dispatch.AIGateway
	Replier dispatch.Replier

	Publisher    commands.Publisher
	AppID        string
	SkipRegister bool
}

// newDispatcher publishes the command set and returns the dispatcher that
// serves events. A failed registration is logged and counted; passive chat
// still works without it.
func newDispatcher(ctx context.Context, deps serveDeps) (*dispatch.Dispatcher, error) {
	if !deps.SkipRegister {
		if err := registerCommands(ctx, deps.Logger, deps.Metrics, deps.Publisher, deps.AppID); err != nil {
			deps.Logger.Warn("continuing without slash commands", "error", err)
		}
	}

	return dispatch.New(dispatch.Config{
		AI:      deps.AI,
		Replier: deps.Replier,
		Metrics: deps.Metrics,
		Tracer:  deps.Tracer,
		Logger:  deps.Logger,
	})
}

func registerCommands(ctx context.Context, logger *slog.Logger, metrics *observability.Metrics, publisher commands.Publisher, appID string) error {
	registry, err := commands.NewBuiltinRegistry(logger)
	if err != nil {
		return err
	}
	if err := registry.Publish(ctx, publisher, appID); err != nil {
		metrics.RecordCommandRegistration("error")
		return err
	}
	metrics.RecordCommandRegistration("success")
	return nil
}

// runCommandsList prints the command definitions as indented JSON.
func runCommandsList(out io.Writer) error {
	registry, err := commands.NewBuiltinRegistry(slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		return err
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(registry.List())
}

// runCommandsRegister publishes the command set once without connecting to
// the gateway.
func runCommandsRegister(ctx context.Context, out io.Writer, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logger := observability.NewLogger(observability.LogConfig{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: os.Stderr,
	})

	adapter, err := discord.NewAdapter(discord.Config{
		Token:  cfg.Discord.Token,
		Logger: logger,
	})
	if err != nil {
		return err
	}
	if err := registerCommands(ctx, logger, nil, adapter, cfg.Discord.ClientID); err != nil {
		return err
	}

	fmt.Fprintf(out, "Registered %d commands for application %s\n", len(commands.Builtins()), cfg.Discord.ClientID)
	return nil
}
