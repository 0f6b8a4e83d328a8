// Package observability wires structured logging, Prometheus metrics and
// OpenTelemetry tracing for the bot.
//
// Logging is plain log/slog with a handler that redacts credentials before
// records reach the output. Metrics are registered against a caller-supplied
// prometheus.Registerer so tests can use an isolated registry. Tracing exports
// over OTLP/gRPC when an endpoint is configured and is a no-op otherwise.
package observability
