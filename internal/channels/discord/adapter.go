// Package discord connects the bot to the Discord gateway: it turns slash
// command interactions and messages into events and delivers replies.
package discord

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/gorilla/websocket"
	"github.com/haasonsaas/promptbot/internal/backoff"
	"github.com/haasonsaas/promptbot/internal/channels"
	"github.com/haasonsaas/promptbot/pkg/models"
)

// Intents requested when identifying with the gateway.
const Intents = discordgo.IntentsGuilds |
	discordgo.IntentsGuildMessages |
	discordgo.IntentsMessageContent |
	discordgo.IntentsDirectMessages

// Gateway close codes that no reconnect can fix.
const (
	closeAuthenticationFailed = 4004
	closeInvalidIntents       = 4013
	closeDisallowedIntents    = 4014
)

// discordSession interface allows for mocking the Discord session in tests.
type discordSession interface {
	Open() error
	Close() error
	AddHandler(handler interface{}) func()
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
	InteractionResponseEdit(interaction *discordgo.Interaction, newresp *discordgo.WebhookEdit, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageSendReply(channelID string, content string, reference *discordgo.MessageReference, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ApplicationCommandBulkOverwrite(appID, guildID string, commands []*discordgo.ApplicationCommand, options ...discordgo.RequestOption) ([]*discordgo.ApplicationCommand, error)
}

// Handler receives every converted inbound event.
type Handler interface {
	Handle(ctx context.Context, ev *models.Event) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, ev *models.Event) error

// Handle calls f.
func (f HandlerFunc) Handle(ctx context.Context, ev *models.Event) error {
	return f(ctx, ev)
}

// Config holds configuration for the Discord adapter.
type Config struct {
	// Token is the bot token from Discord Developer Portal (required)
	Token string

	// Handler receives inbound events; required by Start
	Handler Handler

	// MaxConnectAttempts bounds the attempts made by Start to open the gateway
	MaxConnectAttempts int

	// ConnectBackoff is the delay policy between connect attempts
	ConnectBackoff backoff.Policy

	// MessageLimit is the maximum characters per outbound message
	MessageLimit int

	// Logger is an optional slog.Logger instance
	Logger *slog.Logger
}

// Validate checks if the configuration is valid and applies defaults.
func (c *Config) Validate() error {
	if c.Token == "" {
		return channels.ErrConfig("token is required", nil)
	}
	if c.MaxConnectAttempts <= 0 {
		c.MaxConnectAttempts = 5
	}
	if c.ConnectBackoff == (backoff.Policy{}) {
		c.ConnectBackoff = backoff.GatewayPolicy()
	}
	if c.MessageLimit <= 0 || c.MessageLimit > channels.DiscordMessageLimit {
		c.MessageLimit = channels.DiscordMessageLimit
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return nil
}

// Adapter bridges the Discord gateway to a Handler.
type Adapter struct {
	config  Config
	session discordSession
	logger  *slog.Logger

	mu      sync.Mutex
	started bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	// accepting guards wg.Add against a concurrent Stop.
	acceptMu  sync.Mutex
	accepting bool

	self     atomic.Pointer[discordgo.User]
	deferred sync.Map // interaction ID -> struct{}
}

// NewAdapter creates a new Discord adapter with the given configuration.
func NewAdapter(config Config) (*Adapter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Adapter{
		config: config,
		logger: config.Logger.With("adapter", "discord"),
		ctx:    context.Background(),
	}, nil
}

func (a *Adapter) ensureSession() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.session != nil {
		return nil
	}

	dg, err := discordgo.New("Bot " + a.config.Token)
	if err != nil {
		return channels.NewError(channels.ErrCodeAuthentication, "failed to create Discord session", err)
	}
	dg.Identify.Intents = Intents
	a.session = dg
	return nil
}

// Start registers the event handlers and opens the gateway connection.
func (a *Adapter) Start(ctx context.Context) error {
	if a.config.Handler == nil {
		return channels.ErrConfig("handler is required to start", nil)
	}
	if err := a.ensureSession(); err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.started {
		return channels.ErrInternal("adapter already started", nil)
	}

	a.logger.Info("starting discord adapter", "intents", int(Intents))

	a.ctx, a.cancel = context.WithCancel(context.WithoutCancel(ctx))

	a.session.AddHandler(a.handleReady)
	a.session.AddHandler(a.handleInteractionCreate)
	a.session.AddHandler(a.handleMessageCreate)

	a.setAccepting(true)
	if err := a.connectWithRetry(ctx); err != nil {
		a.setAccepting(false)
		a.cancel()
		return err
	}

	a.started = true
	a.logger.Info("discord adapter started")
	return nil
}

// Stop closes the gateway connection after in-flight handlers finish or ctx ends.
func (a *Adapter) Stop(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.started {
		return nil
	}
	a.logger.Info("stopping discord adapter")

	// No new handler may join the wait group once Wait starts.
	a.setAccepting(false)

	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		a.logger.Warn("stop timeout, cancelling in-flight handlers")
	}
	a.cancel()
	a.started = false

	if err := a.session.Close(); err != nil {
		a.logger.Error("failed to close Discord session", "error", err)
		return channels.ErrConnection("failed to close Discord session", err)
	}

	a.logger.Info("discord adapter stopped")
	return nil
}

func (a *Adapter) setAccepting(v bool) {
	a.acceptMu.Lock()
	a.accepting = v
	a.acceptMu.Unlock()
}

func (a *Adapter) connectWithRetry(ctx context.Context) error {
	attempts, err := backoff.Retry(ctx, a.config.ConnectBackoff, a.config.MaxConnectAttempts,
		func(attempt int) error {
			a.logger.Info("connecting to discord",
				"attempt", attempt,
				"max_attempts", a.config.MaxConnectAttempts)
			openErr := a.session.Open()
			if openErr == nil {
				return nil
			}
			classified := classifyOpenError(openErr)
			if !channels.IsRetryable(classified) {
				return backoff.Permanent(classified)
			}
			return classified
		},
		func(attempt int, delay time.Duration, err error) {
			a.logger.Warn("connection failed, retrying",
				"error", err,
				"attempt", attempt,
				"backoff_ms", delay.Milliseconds())
		})
	if err != nil {
		code := channels.ErrCodeConnection
		var chErr *channels.Error
		if errors.As(err, &chErr) {
			code = chErr.Code
		}
		return channels.NewError(code, "failed to connect to Discord", err).WithContext("attempts", attempts)
	}
	return nil
}

// classifyOpenError maps a gateway open failure to an error code. Close codes
// for a bad token or rejected intents are permanent; anything else is treated
// as a transient connection failure.
func classifyOpenError(err error) *channels.Error {
	var closeErr *websocket.CloseError
	if errors.As(err, &closeErr) {
		switch closeErr.Code {
		case closeAuthenticationFailed:
			return channels.NewError(channels.ErrCodeAuthentication, "gateway rejected the bot token", err)
		case closeInvalidIntents, closeDisallowedIntents:
			return channels.ErrConfig("gateway rejected the requested intents", err).WithContext("close_code", closeErr.Code)
		}
	}
	return channels.ErrConnection("failed to open gateway connection", err)
}

// SelfID returns the bot's user ID once the gateway is ready.
func (a *Adapter) SelfID() string {
	if u := a.self.Load(); u != nil {
		return u.ID
	}
	return ""
}

// Event handlers

func (a *Adapter) handleReady(_ *discordgo.Session, r *discordgo.Ready) {
	if r == nil || r.User == nil {
		return
	}
	a.self.Store(r.User)

	a.logger.Info("logged in",
		"tag", r.User.String(),
		"user_id", r.User.ID,
		"guilds", len(r.Guilds))
}

func (a *Adapter) handleInteractionCreate(_ *discordgo.Session, i *discordgo.InteractionCreate) {
	ev := convertInteraction(i)
	if ev == nil {
		return
	}
	a.logger.Debug("received interaction",
		"interaction_id", i.ID,
		"command_name", ev.Command)
	a.dispatch(ev)
}

func (a *Adapter) handleMessageCreate(_ *discordgo.Session, m *discordgo.MessageCreate) {
	if m == nil {
		return
	}
	ev := convertMessage(m.Message, a.SelfID())
	if ev == nil {
		return
	}
	a.logger.Debug("received message",
		"channel_id", ev.ChannelID,
		"user_id", ev.Author.ID,
		"content_length", len(ev.Content))
	a.dispatch(ev)
}

// dispatch runs the handler on its own goroutine so a slow AI call never
// blocks the gateway.
func (a *Adapter) dispatch(ev *models.Event) {
	if a.config.Handler == nil {
		return
	}

	a.acceptMu.Lock()
	if !a.accepting {
		a.acceptMu.Unlock()
		a.logger.Debug("dropping event while not accepting", "event_id", ev.ID, "kind", ev.Kind)
		return
	}
	a.wg.Add(1)
	ctx := a.ctx
	a.acceptMu.Unlock()

	go func() {
		defer a.wg.Done()
		if err := a.config.Handler.Handle(ctx, ev); err != nil {
			a.logger.Error("event handling failed",
				"event_id", ev.ID,
				"kind", ev.Kind,
				"code", channels.GetErrorCode(err),
				"error", err)
		}
	}()
}

// wrapRESTError classifies a discordgo REST failure.
func wrapRESTError(message string, err error) *channels.Error {
	var rateErr *discordgo.RateLimitError
	if errors.As(err, &rateErr) {
		return channels.NewError(channels.ErrCodeRateLimit, message, err)
	}

	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) && restErr.Response != nil {
		code := channels.ErrCodeInternal
		switch status := restErr.Response.StatusCode; {
		case status == http.StatusUnauthorized || status == http.StatusForbidden:
			code = channels.ErrCodeAuthentication
		case status == http.StatusNotFound:
			code = channels.ErrCodeNotFound
		case status == http.StatusTooManyRequests:
			code = channels.ErrCodeRateLimit
		case status == http.StatusBadRequest:
			code = channels.ErrCodeInvalidInput
		case status >= 500:
			code = channels.ErrCodeConnection
		}
		return channels.NewError(code, message, err).WithContext("status", restErr.Response.StatusCode)
	}

	return channels.ErrInternal(message, err)
}
