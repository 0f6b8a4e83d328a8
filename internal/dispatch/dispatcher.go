package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/haasonsaas/promptbot/internal/observability"
	"github.com/haasonsaas/promptbot/internal/providers"
	"github.com/haasonsaas/promptbot/pkg/models"
)

// AIGateway produces images and chat replies.
type AIGateway interface {
	GenerateImage(ctx context.Context, prompt string, size string) (string, error)
	GenerateChatReply(ctx context.Context, userText string) (string, error)
}

// Replier delivers a reply to the conversation an event came from.
type Replier interface {
	Reply(ctx context.Context, ev *models.Event, text string, opts models.ReplyOptions) error
}

// Deferrer is implemented by repliers that can acknowledge a command before
// a slow reply is ready.
type Deferrer interface {
	Defer(ctx context.Context, ev *models.Event) error
}

// Config configures a Dispatcher.
type Config struct {
	AI      AIGateway
	Replier Replier

	// Mode is the chat-mode flag; a fresh inactive Mode is created when nil.
	Mode *Mode

	Metrics *observability.Metrics
	Tracer  *observability.Tracer
	Logger  *slog.Logger
}

// Dispatcher applies Decide to inbound events and carries out the result.
type Dispatcher struct {
	ai      AIGateway
	replier Replier
	mode    *Mode
	metrics *observability.Metrics
	tracer  *observability.Tracer
	logger  *slog.Logger
}

// New creates a Dispatcher.
func New(cfg Config) (*Dispatcher, error) {
	if cfg.AI == nil {
		return nil, errors.New("dispatch: AI gateway is required")
	}
	if cfg.Replier == nil {
		return nil, errors.New("dispatch: replier is required")
	}
	if cfg.Mode == nil {
		cfg.Mode = &Mode{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	d := &Dispatcher{
		ai:      cfg.AI,
		replier: cfg.Replier,
		mode:    cfg.Mode,
		metrics: cfg.Metrics,
		tracer:  cfg.Tracer,
		logger:  cfg.Logger.With("component", "dispatch"),
	}
	d.metrics.SetChatMode(d.mode.Active())
	return d, nil
}

// ChatModeActive reports the current chat mode.
func (d *Dispatcher) ChatModeActive() bool {
	return d.mode.Active()
}

// Handle processes one event to completion. AI failures are answered with a
// fixed failure reply and do not produce an error; the returned error covers
// reply delivery failures and recovered panics.
func (d *Dispatcher) Handle(ctx context.Context, ev *models.Event) (err error) {
	if ev == nil {
		return errors.New("dispatch: nil event")
	}

	requestID := ev.ID
	if requestID == "" {
		requestID = observability.NewRequestID()
	}
	ctx = observability.WithRequestID(ctx, requestID)
	ctx, span := d.tracer.TraceEvent(ctx, string(ev.Kind), requestID)
	defer span.End()

	logger := d.logger.With(
		"request_id", requestID,
		"kind", ev.Kind,
		"channel_id", ev.ChannelID,
		"user_id", ev.Author.ID,
	)

	outcome := "ignored"
	defer func() {
		if r := recover(); r != nil {
			logger.Error("panic while handling event",
				"panic", r,
				"stack", string(debug.Stack()))
			err = fmt.Errorf("dispatch: panic: %v", r)
		}
		if err != nil {
			outcome = "failed"
			observability.RecordError(span, err)
		}
		d.metrics.RecordEvent(string(ev.Kind), outcome)
	}()

	current := d.mode.Active()
	action, next, decideErr := Decide(ev, current)
	if decideErr != nil {
		logger.Warn("event rejected", "command", ev.Command, "error", decideErr)
	}

	if action.SetsMode {
		// Always write: current may already be stale.
		if prev := d.mode.Set(next); prev != next {
			logger.Info("chat mode changed", "active", next)
		}
		d.metrics.SetChatMode(next)
	}

	switch action.Kind {
	case ActionNone:
		return nil
	case ActionReply:
		err = d.reply(ctx, ev, action.Kind, action.Text, models.ReplyOptions{Ephemeral: action.Ephemeral})
	case ActionImagine:
		err = d.imagine(ctx, logger, ev, action.Image)
	case ActionChat:
		err = d.chat(ctx, logger, ev, action.Chat)
	}
	if err == nil {
		outcome = "replied"
	}
	return err
}

func (d *Dispatcher) imagine(ctx context.Context, logger *slog.Logger, ev *models.Event, req *ImageRequest) error {
	if deferrer, ok := d.replier.(Deferrer); ok {
		if err := deferrer.Defer(ctx, ev); err != nil {
			logger.Warn("failed to defer interaction", "error", err)
		}
	}

	start := time.Now()
	url, err := d.ai.GenerateImage(ctx, req.Prompt, req.Size)
	if err != nil {
		logger.Error("image generation failed",
			"size", req.Size,
			"reason", providers.ReasonOf(err),
			"latency_ms", time.Since(start).Milliseconds(),
			"error", err)
		return d.reply(ctx, ev, ActionImagine, ImageFailureText, models.ReplyOptions{})
	}

	logger.Info("image generated", "size", req.Size, "latency_ms", time.Since(start).Milliseconds())
	return d.reply(ctx, ev, ActionImagine, ImageReplyPrefix+url, models.ReplyOptions{})
}

func (d *Dispatcher) chat(ctx context.Context, logger *slog.Logger, ev *models.Event, req *ChatRequest) error {
	start := time.Now()
	text, err := d.ai.GenerateChatReply(ctx, req.Content)
	if err != nil {
		logger.Error("chat completion failed",
			"reason", providers.ReasonOf(err),
			"latency_ms", time.Since(start).Milliseconds(),
			"error", err)
		return d.reply(ctx, ev, ActionChat, ChatFailureText, models.ReplyOptions{})
	}

	logger.Debug("chat completion received", "latency_ms", time.Since(start).Milliseconds())
	return d.reply(ctx, ev, ActionChat, text, models.ReplyOptions{})
}

func (d *Dispatcher) reply(ctx context.Context, ev *models.Event, kind ActionKind, text string, opts models.ReplyOptions) error {
	if err := d.replier.Reply(ctx, ev, text, opts); err != nil {
		d.metrics.RecordReply(kind.String(), "error")
		return fmt.Errorf("dispatch: reply: %w", err)
	}
	d.metrics.RecordReply(kind.String(), "success")
	return nil
}
