package providers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/haasonsaas/promptbot/internal/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	openai "github.com/sashabaranov/go-openai"
)

type fakeClient struct {
	imageReq  openai.ImageRequest
	chatReq   openai.ChatCompletionRequest
	imageResp openai.ImageResponse
	chatResp  openai.ChatCompletionResponse
	err       error
	calls     int
}

func (f *fakeClient) CreateImage(ctx context.Context, req openai.ImageRequest) (openai.ImageResponse, error) {
	f.calls++
	f.imageReq = req
	return f.imageResp, f.err
}

func (f *fakeClient) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.calls++
	f.chatReq = req
	return f.chatResp, f.err
}

func TestNewOpenAIGateway_RequiresKey(t *testing.T) {
	if _, err := NewOpenAIGateway(OpenAIConfig{}); err == nil {
		t.Error("expected error for empty api key")
	}
	g, err := NewOpenAIGateway(OpenAIConfig{APIKey: "sk-test"})
	if err != nil {
		t.Fatalf("NewOpenAIGateway failed: %v", err)
	}
	if g.Name() != "openai" {
		t.Errorf("Name() = %q", g.Name())
	}
	if g.ChatModel() != DefaultChatModel {
		t.Errorf("ChatModel() = %q, want %q", g.ChatModel(), DefaultChatModel)
	}
}

func TestImageModelFor(t *testing.T) {
	g := newGateway(&fakeClient{}, OpenAIConfig{})

	tests := []struct {
		size string
		want string
	}{
		{SizeThumbnail, openai.CreateImageModelDallE2},
		{SizeSquare, openai.CreateImageModelDallE2},
		{SizePhoneScreen, openai.CreateImageModelDallE3},
	}
	for _, tt := range tests {
		if got := g.ImageModelFor(tt.size); got != tt.want {
			t.Errorf("ImageModelFor(%s) = %s, want %s", tt.size, got, tt.want)
		}
	}

	forced := newGateway(&fakeClient{}, OpenAIConfig{ImageModel: "gpt-image-1"})
	if got := forced.ImageModelFor(SizeThumbnail); got != "gpt-image-1" {
		t.Errorf("forced model = %s", got)
	}
}

func TestGenerateImage(t *testing.T) {
	client := &fakeClient{
		imageResp: openai.ImageResponse{
			Data: []openai.ImageResponseDataInner{{URL: "https://images.example/fox.png"}},
		},
	}
	g := newGateway(client, OpenAIConfig{})

	url, err := g.GenerateImage(context.Background(), "a fox in anime style", SizeSquare)
	if err != nil {
		t.Fatalf("GenerateImage failed: %v", err)
	}
	if url != "https://images.example/fox.png" {
		t.Errorf("url = %q", url)
	}

	req := client.imageReq
	if req.N != 1 {
		t.Errorf("N = %d, want 1", req.N)
	}
	if req.Size != "512x512" {
		t.Errorf("Size = %q", req.Size)
	}
	if req.Prompt != "a fox in anime style" {
		t.Errorf("Prompt = %q", req.Prompt)
	}
	if req.ResponseFormat != openai.CreateImageResponseFormatURL {
		t.Errorf("ResponseFormat = %q", req.ResponseFormat)
	}
}

func TestGenerateImage_UnsupportedSize(t *testing.T) {
	client := &fakeClient{}
	g := newGateway(client, OpenAIConfig{})

	_, err := g.GenerateImage(context.Background(), "x", "9x9")
	pe, ok := GetProviderError(err)
	if !ok {
		t.Fatalf("expected ProviderError, got %v", err)
	}
	if pe.Reason != FailureInvalidRequest {
		t.Errorf("reason = %s", pe.Reason)
	}
	if client.calls != 0 {
		t.Error("unsupported size should not reach the API")
	}
}

func TestGenerateImage_EmptyResponse(t *testing.T) {
	g := newGateway(&fakeClient{}, OpenAIConfig{})

	_, err := g.GenerateImage(context.Background(), "x", SizeThumbnail)
	if !errors.Is(err, ErrEmptyResponse) {
		t.Fatalf("expected ErrEmptyResponse, got %v", err)
	}
	if ReasonOf(err) != FailureEmptyResponse {
		t.Errorf("reason = %s", ReasonOf(err))
	}
}

func TestGenerateChatReply(t *testing.T) {
	client := &fakeClient{
		chatResp: openai.ChatCompletionResponse{
			Choices: []openai.ChatCompletionChoice{
				{Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: "Hello there"}},
			},
		},
	}
	g := newGateway(client, OpenAIConfig{})

	reply, err := g.GenerateChatReply(context.Background(), "<@42> hi")
	if err != nil {
		t.Fatalf("GenerateChatReply failed: %v", err)
	}
	if reply != "Hello there" {
		t.Errorf("reply = %q", reply)
	}

	req := client.chatReq
	if req.Model != DefaultChatModel {
		t.Errorf("Model = %q", req.Model)
	}
	if len(req.Messages) != 1 {
		t.Fatalf("expected exactly one message, got %d", len(req.Messages))
	}
	if req.Messages[0].Role != openai.ChatMessageRoleUser || req.Messages[0].Content != "<@42> hi" {
		t.Errorf("message = %+v", req.Messages[0])
	}
}

func TestGenerateChatReply_ErrorNoRetry(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics(reg)
	client := &fakeClient{err: &openai.APIError{
		HTTPStatusCode: http.StatusTooManyRequests,
		Code:           "rate_limit_exceeded",
		Message:        "Rate limit reached",
	}}
	g := newGateway(client, OpenAIConfig{Metrics: metrics})

	_, err := g.GenerateChatReply(context.Background(), "hi")
	if err == nil {
		t.Fatal("expected error")
	}
	if client.calls != 1 {
		t.Errorf("expected a single attempt, got %d", client.calls)
	}
	if ReasonOf(err) != FailureRateLimit {
		t.Errorf("reason = %s", ReasonOf(err))
	}

	if got := testutil.ToFloat64(metrics.AIRequestsTotal.WithLabelValues(OperationChat, DefaultChatModel, "error")); got != 1 {
		t.Errorf("error counter = %v", got)
	}
	if got := testutil.ToFloat64(metrics.AIErrorsTotal.WithLabelValues(OperationChat, string(FailureRateLimit))); got != 1 {
		t.Errorf("reason counter = %v", got)
	}
}

func TestGenerateChatReply_EmptyChoices(t *testing.T) {
	g := newGateway(&fakeClient{}, OpenAIConfig{})
	if _, err := g.GenerateChatReply(context.Background(), "hi"); !errors.Is(err, ErrEmptyResponse) {
		t.Errorf("expected ErrEmptyResponse, got %v", err)
	}
}

func newTestServer(t *testing.T, handler http.HandlerFunc) *OpenAIGateway {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	g, err := NewOpenAIGateway(OpenAIConfig{
		APIKey:  "sk-test",
		BaseURL: srv.URL + "/v1/",
		Timeout: 5 * time.Second,
	})
	if err != nil {
		t.Fatalf("NewOpenAIGateway failed: %v", err)
	}
	return g
}

func TestOpenAIGateway_HTTP(t *testing.T) {
	g := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("Authorization = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")

		switch r.URL.Path {
		case "/v1/images/generations":
			var body map[string]any
			_ = json.NewDecoder(r.Body).Decode(&body)
			if body["size"] != "1024x1792" || body["n"] != float64(1) || body["model"] != "dall-e-3" {
				t.Errorf("unexpected image body: %v", body)
			}
			_, _ = w.Write([]byte(`{"created":1,"data":[{"url":"https://cdn.example/img.png"}]}`))
		case "/v1/chat/completions":
			_, _ = w.Write([]byte(`{"id":"c1","object":"chat.completion","model":"gpt-3.5-turbo",
				"choices":[{"index":0,"message":{"role":"assistant","content":"pong"},"finish_reason":"stop"}]}`))
		default:
			http.NotFound(w, r)
		}
	})

	url, err := g.GenerateImage(context.Background(), "city at night in photo-realistic", SizePhoneScreen)
	if err != nil {
		t.Fatalf("GenerateImage failed: %v", err)
	}
	if url != "https://cdn.example/img.png" {
		t.Errorf("url = %q", url)
	}

	reply, err := g.GenerateChatReply(context.Background(), "ping")
	if err != nil {
		t.Fatalf("GenerateChatReply failed: %v", err)
	}
	if reply != "pong" {
		t.Errorf("reply = %q", reply)
	}
}

func TestOpenAIGateway_HTTPError(t *testing.T) {
	g := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"Incorrect API key provided","type":"invalid_request_error","code":"invalid_api_key"}}`))
	})

	_, err := g.GenerateChatReply(context.Background(), "ping")
	pe, ok := GetProviderError(err)
	if !ok {
		t.Fatalf("expected ProviderError, got %v", err)
	}
	if pe.Reason != FailureAuth {
		t.Errorf("reason = %s", pe.Reason)
	}
	if pe.Status != http.StatusUnauthorized {
		t.Errorf("status = %d", pe.Status)
	}
	if !strings.Contains(pe.Error(), "invalid_api_key") {
		t.Errorf("error text = %q", pe.Error())
	}
}
