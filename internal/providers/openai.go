// Package providers adapts the OpenAI REST API to the two operations the
// dispatcher consumes: image generation and single-turn chat completion.
package providers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/haasonsaas/promptbot/internal/observability"
	openai "github.com/sashabaranov/go-openai"
)

// Operation labels used in logs, spans and metrics.
const (
	OperationImage = "image"
	OperationChat  = "chat"
)

// Image sizes the imagine command can request.
const (
	SizeThumbnail   = openai.CreateImageSize256x256
	SizeSquare      = openai.CreateImageSize512x512
	SizePhoneScreen = openai.CreateImageSize1024x1792
)

// DefaultChatModel is the fixed model used for chat replies.
const DefaultChatModel = openai.GPT3Dot5Turbo

// openaiClient is the subset of *openai.Client the gateway uses.
type openaiClient interface {
	CreateImage(ctx context.Context, request openai.ImageRequest) (openai.ImageResponse, error)
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAIConfig configures the OpenAI gateway.
type OpenAIConfig struct {
	// APIKey is the OpenAI API key (required)
	APIKey string

	// BaseURL overrides the API base URL (e.g. a proxy); empty uses the default
	BaseURL string

	// OrgID is the optional OpenAI organization
	OrgID string

	// ChatModel is the model used for chat replies (default gpt-3.5-turbo)
	ChatModel string

	// ImageModel forces an image model. When empty the model is picked per size:
	// dall-e-3 for 1024x1792, dall-e-2 otherwise.
	ImageModel string

	// Timeout bounds each HTTP request; zero keeps the SDK default client
	Timeout time.Duration

	// HTTPClient replaces the HTTP client entirely
	HTTPClient *http.Client

	Logger  *slog.Logger
	Metrics *observability.Metrics
	Tracer  *observability.Tracer
}

// OpenAIGateway generates images and chat replies through OpenAI.
// It performs exactly one request per call and never retries.
type OpenAIGateway struct {
	client     openaiClient
	chatModel  string
	imageModel string
	logger     *slog.Logger
	metrics    *observability.Metrics
	tracer     *observability.Tracer
}

// NewOpenAIGateway creates a gateway backed by the official REST endpoints.
func NewOpenAIGateway(cfg OpenAIConfig) (*OpenAIGateway, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("openai api key is required")
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	if cfg.OrgID != "" {
		clientCfg.OrgID = cfg.OrgID
	}
	switch {
	case cfg.HTTPClient != nil:
		clientCfg.HTTPClient = cfg.HTTPClient
	case cfg.Timeout > 0:
		clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}

	return newGateway(openai.NewClientWithConfig(clientCfg), cfg), nil
}

func newGateway(client openaiClient, cfg OpenAIConfig) *OpenAIGateway {
	if cfg.ChatModel == "" {
		cfg.ChatModel = DefaultChatModel
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &OpenAIGateway{
		client:     client,
		chatModel:  cfg.ChatModel,
		imageModel: cfg.ImageModel,
		logger:     cfg.Logger.With("component", "openai"),
		metrics:    cfg.Metrics,
		tracer:     cfg.Tracer,
	}
}

// Name returns the provider identifier used in logs and metrics.
func (g *OpenAIGateway) Name() string {
	return "openai"
}

// ChatModel returns the model used for chat replies.
func (g *OpenAIGateway) ChatModel() string {
	return g.chatModel
}

// ImageModelFor returns the image model used for a size.
func (g *OpenAIGateway) ImageModelFor(size string) string {
	if g.imageModel != "" {
		return g.imageModel
	}
	if size == SizePhoneScreen {
		return openai.CreateImageModelDallE3
	}
	return openai.CreateImageModelDallE2
}

// GenerateImage requests a single image and returns its URL.
func (g *OpenAIGateway) GenerateImage(ctx context.Context, prompt string, size string) (string, error) {
	model := g.ImageModelFor(size)
	if !supportedSize(size) {
		return "", NewProviderError(g.Name(), OperationImage, model,
			fmt.Errorf("unsupported image size %q", size)).withReason(FailureInvalidRequest)
	}

	var url string
	err := g.call(ctx, OperationImage, model, func(ctx context.Context) error {
		resp, err := g.client.CreateImage(ctx, openai.ImageRequest{
			Prompt:         prompt,
			Model:          model,
			N:              1,
			Size:           size,
			ResponseFormat: openai.CreateImageResponseFormatURL,
		})
		if err != nil {
			return err
		}
		if len(resp.Data) == 0 || resp.Data[0].URL == "" {
			return ErrEmptyResponse
		}
		url = resp.Data[0].URL
		return nil
	})
	return url, err
}

// GenerateChatReply sends userText as a single user turn and returns the
// completion text.
func (g *OpenAIGateway) GenerateChatReply(ctx context.Context, userText string) (string, error) {
	var reply string
	err := g.call(ctx, OperationChat, g.chatModel, func(ctx context.Context) error {
		resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model: g.chatModel,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleUser, Content: userText},
			},
		})
		if err != nil {
			return err
		}
		if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
			return ErrEmptyResponse
		}
		reply = resp.Choices[0].Message.Content
		return nil
	})
	return reply, err
}

// call wraps one provider request with a span, metrics and error classification.
func (g *OpenAIGateway) call(ctx context.Context, operation, model string, fn func(context.Context) error) error {
	ctx, span := g.tracer.TraceAIRequest(ctx, g.Name(), operation, model)
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	elapsed := time.Since(start)

	if err == nil {
		g.metrics.RecordAIRequest(operation, model, "success", elapsed.Seconds())
		g.logger.Debug("openai request completed",
			"operation", operation,
			"model", model,
			"request_id", observability.RequestIDFrom(ctx),
			"latency_ms", elapsed.Milliseconds())
		return nil
	}

	perr := NewProviderError(g.Name(), operation, model, err)
	observability.RecordError(span, perr)
	g.metrics.RecordAIRequest(operation, model, "error", elapsed.Seconds())
	g.metrics.RecordAIError(operation, string(perr.Reason))
	return perr
}

func (e *ProviderError) withReason(reason FailureReason) *ProviderError {
	e.Reason = reason
	return e
}

func supportedSize(size string) bool {
	switch size {
	case SizeThumbnail, SizeSquare, SizePhoneScreen:
		return true
	default:
		return false
	}
}
