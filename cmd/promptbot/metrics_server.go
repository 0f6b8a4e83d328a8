package main

import (
	"encoding/json"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type chatModeReporter interface {
	ChatModeActive() bool
}

// newMetricsMux serves Prometheus metrics from reg and a JSON health probe.
func newMetricsMux(reg *prometheus.Registry, mode chatModeReporter) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":    "ok",
			"chat_mode": mode != nil && mode.ChatModeActive(),
		})
	})
	return mux
}
