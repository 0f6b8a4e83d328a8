package models

import "time"

// ChannelType represents a messaging platform.
type ChannelType string

const (
	ChannelDiscord ChannelType = "discord"
)

// EventKind distinguishes explicit command invocations from passive chat messages.
type EventKind string

const (
	EventCommand EventKind = "command"
	EventMessage EventKind = "message"
)

// Author identifies who produced an inbound event.
type Author struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Bot      bool   `json:"bot,omitempty"`
}

// Event is the platform-neutral form of an inbound gateway event.
//
// Command events carry Command and Options; message events carry Content and
// MentionsSelf. Metadata holds platform-specific handles the originating
// adapter needs to reply (for Discord, the interaction or message reference).
type Event struct {
	ID           string            `json:"id"`
	Kind         EventKind         `json:"kind"`
	Channel      ChannelType       `json:"channel"`
	ChannelID    string            `json:"channel_id"`
	GuildID      string            `json:"guild_id,omitempty"`
	MessageID    string            `json:"message_id,omitempty"`
	Author       Author            `json:"author"`
	Command      string            `json:"command,omitempty"`
	Options      map[string]string `json:"options,omitempty"`
	Content      string            `json:"content,omitempty"`
	MentionsSelf bool              `json:"mentions_self,omitempty"`
	Metadata     map[string]any    `json:"-"`
	ReceivedAt   time.Time         `json:"received_at"`
}

// Option returns the value of a named command option as received.
func (e *Event) Option(name string) (string, bool) {
	if e == nil || e.Options == nil {
		return "", false
	}
	v, ok := e.Options[name]
	return v, ok
}

// IsCommand reports whether the event is an explicit command invocation.
func (e *Event) IsCommand() bool {
	return e != nil && e.Kind == EventCommand
}

// ReplyOptions controls how a reply is delivered.
type ReplyOptions struct {
	// Ephemeral limits visibility to the invoking user where the platform supports it.
	Ephemeral bool
}
