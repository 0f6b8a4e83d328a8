// Package commands declares the slash commands the bot exposes and pushes
// them to the chat platform.
package commands

import (
	"context"
)

// Command names.
const (
	CommandStartChat  = "start_chat"
	CommandDeactivate = "deactivate"
	CommandImagine    = "imagine"
)

// Option names for the imagine command.
const (
	OptionPrompt = "prompt"
	OptionStyle  = "type"
	OptionScale  = "scale"
)

// Style choices for the imagine command.
const (
	StyleRealistic = "realistic"
	StyleDrawn     = "drawn"
	StyleAnime     = "anime"
	StyleToony     = "toony"
)

// Scale choices for the imagine command.
const (
	ScaleThumbnail   = "thumbnail"
	ScaleSquare      = "square"
	ScalePhoneScreen = "phone_screen"
)

// OptionKind is the value type of a command option. The numeric values match
// Discord's application command option types.
type OptionKind int

const (
	OptionKindString OptionKind = 3
)

// String returns the lowercase kind name.
func (k OptionKind) String() string {
	switch k {
	case OptionKindString:
		return "string"
	default:
		return "unknown"
	}
}

// Choice is one member of an option's closed value set.
type Choice struct {
	// Name is what the user sees in the picker
	Name string `json:"name"`

	// Value is what the bot receives
	Value string `json:"value"`
}

// Option describes one typed argument of a command.
type Option struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Kind        OptionKind `json:"type"`
	Required    bool       `json:"required,omitempty"`

	// Choices, when non-empty, is the complete set of accepted values.
	Choices []Choice `json:"choices,omitempty"`
}

// Allows reports whether value is accepted by the option. Options without
// choices accept any value.
func (o Option) Allows(value string) bool {
	if len(o.Choices) == 0 {
		return true
	}
	for _, c := range o.Choices {
		if c.Value == value {
			return true
		}
	}
	return false
}

// Values returns the choice values in declaration order.
func (o Option) Values() []string {
	values := make([]string, len(o.Choices))
	for i, c := range o.Choices {
		values[i] = c.Value
	}
	return values
}

// Spec is a remotely invocable command definition.
type Spec struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Options     []Option `json:"options,omitempty"`
}

// Option looks up an option by name.
func (s Spec) Option(name string) (Option, bool) {
	for _, o := range s.Options {
		if o.Name == name {
			return o, true
		}
	}
	return Option{}, false
}

// Publisher replaces the full command set registered for an application.
type Publisher interface {
	PublishCommands(ctx context.Context, appID string, specs []Spec) error
}
