package observability

import (
	"io"
	"log/slog"
	"os"
	"regexp"
	"strings"
)

// LogConfig configures the logging behavior.
type LogConfig struct {
	// Level sets the minimum log level: "debug", "info", "warn", "error"
	Level string

	// Format specifies output format: "json" or "text"
	Format string

	// Output is the writer for log output (defaults to os.Stderr)
	Output io.Writer

	// AddSource includes file and line number in log records
	AddSource bool

	// RedactPatterns are additional regex patterns for sensitive data redaction
	RedactPatterns []string
}

const redacted = "[REDACTED]"

// DefaultRedactPatterns matches credentials this process handles.
var DefaultRedactPatterns = []string{
	// Discord bot tokens: base64 user id, timestamp, HMAC
	`[MNO][A-Za-z\d_-]{23,27}\.[A-Za-z\d_-]{6}\.[A-Za-z\d_-]{27,}`,

	// "Bot <token>" / "Bearer <token>" authorization values
	`(?i)(bot|bearer)\s+[A-Za-z0-9_\-\.]{16,}`,

	// OpenAI API keys (sk-..., sk-proj-...)
	`sk-[A-Za-z0-9_\-]{20,}`,

	// key=value style secrets
	`(?i)(api[_-]?key|token|secret|password)[\s:=]+["']?([^\s"']{8,})["']?`,
}

var sensitiveKeys = map[string]bool{
	"token":          true,
	"bot_token":      true,
	"discord_token":  true,
	"api_key":        true,
	"apikey":         true,
	"openai_api_key": true,
	"secret":         true,
	"password":       true,
	"authorization":  true,
}

// NewLogger creates a slog.Logger that writes JSON or text records and
// redacts secrets from string values and sensitive keys.
func NewLogger(config LogConfig) *slog.Logger {
	if config.Output == nil {
		config.Output = os.Stderr
	}

	redacts := compileRedactions(config.RedactPatterns)
	opts := &slog.HandlerOptions{
		Level:     ParseLevel(config.Level),
		AddSource: config.AddSource,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			return redactAttr(redacts, a)
		},
	}

	var handler slog.Handler
	if strings.EqualFold(config.Format, "text") {
		handler = slog.NewTextHandler(config.Output, opts)
	} else {
		handler = slog.NewJSONHandler(config.Output, opts)
	}
	return slog.New(handler)
}

// ParseLevel maps a level name to a slog.Level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func compileRedactions(extra []string) []*regexp.Regexp {
	patterns := append(append([]string{}, DefaultRedactPatterns...), extra...)
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		if re, err := regexp.Compile(p); err == nil {
			out = append(out, re)
		}
	}
	return out
}

func redactAttr(redacts []*regexp.Regexp, a slog.Attr) slog.Attr {
	key := strings.ToLower(strings.ReplaceAll(a.Key, "-", "_"))
	if sensitiveKeys[key] {
		return slog.String(a.Key, redacted)
	}

	switch a.Value.Kind() {
	case slog.KindString:
		return slog.String(a.Key, RedactString(redacts, a.Value.String()))
	case slog.KindAny:
		if err, ok := a.Value.Any().(error); ok {
			return slog.String(a.Key, RedactString(redacts, err.Error()))
		}
	}
	return a
}

// RedactString applies the redaction patterns to s.
func RedactString(redacts []*regexp.Regexp, s string) string {
	for _, re := range redacts {
		s = re.ReplaceAllString(s, redacted)
	}
	return s
}
