package commands

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
)

// Registry holds an ordered, validated command set.
type Registry struct {
	specs  []Spec
	index  map[string]int // name -> position in specs
	logger *slog.Logger
	mu     sync.RWMutex
}

// NewRegistry creates an empty command registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		index:  make(map[string]int),
		logger: logger.With("component", "commands"),
	}
}

// Register validates spec and appends it to the set.
func (r *Registry) Register(spec Spec) error {
	name := strings.TrimSpace(spec.Name)
	if name == "" {
		return fmt.Errorf("command name is required")
	}
	if name != spec.Name || strings.ToLower(name) != name {
		return fmt.Errorf("command name %q must be lowercase without surrounding spaces", spec.Name)
	}
	if err := validateOptions(spec); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.index[name]; exists {
		return fmt.Errorf("command %q already registered", name)
	}
	r.index[name] = len(r.specs)
	r.specs = append(r.specs, spec)

	r.logger.Debug("registered command",
		"name", name,
		"options", len(spec.Options))

	return nil
}

func validateOptions(spec Spec) error {
	seen := make(map[string]bool, len(spec.Options))
	for _, opt := range spec.Options {
		if opt.Name == "" {
			return fmt.Errorf("command %q: option name is required", spec.Name)
		}
		if seen[opt.Name] {
			return fmt.Errorf("command %q: duplicate option %q", spec.Name, opt.Name)
		}
		seen[opt.Name] = true

		if opt.Kind != OptionKindString {
			return fmt.Errorf("command %q: option %q has unsupported kind %d", spec.Name, opt.Name, opt.Kind)
		}

		values := make(map[string]bool, len(opt.Choices))
		for _, c := range opt.Choices {
			if c.Value == "" {
				return fmt.Errorf("command %q: option %q has a choice with an empty value", spec.Name, opt.Name)
			}
			if values[c.Value] {
				return fmt.Errorf("command %q: option %q has duplicate choice %q", spec.Name, opt.Name, c.Value)
			}
			values[c.Value] = true
		}
	}
	return nil
}

// List returns the commands in registration order.
func (r *Registry) List() []Spec {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Spec, len(r.specs))
	copy(out, r.specs)
	return out
}

// Names returns command names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, len(r.specs))
	for i, s := range r.specs {
		names[i] = s.Name
	}
	return names
}

// Publish replaces the application's remote command set with the registry
// contents in one call. The previous remote set is discarded.
func (r *Registry) Publish(ctx context.Context, p Publisher, appID string) error {
	if p == nil {
		return fmt.Errorf("publisher is nil")
	}
	if strings.TrimSpace(appID) == "" {
		return fmt.Errorf("application id is required")
	}

	specs := r.List()
	r.logger.Info("started refreshing application commands",
		"app_id", appID,
		"commands", r.Names())

	if err := p.PublishCommands(ctx, appID, specs); err != nil {
		r.logger.Error("failed to refresh application commands",
			"app_id", appID,
			"error", err)
		return fmt.Errorf("publish commands: %w", err)
	}

	r.logger.Info("successfully reloaded application commands", "app_id", appID)
	return nil
}
