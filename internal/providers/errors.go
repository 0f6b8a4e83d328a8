package providers

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// FailureReason categorizes why a provider request failed. It is used for
// logging and metric labels only; callers treat every failure the same way.
type FailureReason string

const (
	// FailureBilling indicates payment/quota issues (HTTP 402, insufficient_quota)
	FailureBilling FailureReason = "billing"

	// FailureRateLimit indicates rate limiting (HTTP 429)
	FailureRateLimit FailureReason = "rate_limit"

	// FailureAuth indicates authentication failure (HTTP 401, 403)
	FailureAuth FailureReason = "auth"

	// FailureTimeout indicates request timeout
	FailureTimeout FailureReason = "timeout"

	// FailureServerError indicates server-side issues (HTTP 5xx)
	FailureServerError FailureReason = "server_error"

	// FailureInvalidRequest indicates client-side issues (HTTP 400)
	FailureInvalidRequest FailureReason = "invalid_request"

	// FailureModelUnavailable indicates the model is not available
	FailureModelUnavailable FailureReason = "model_unavailable"

	// FailureContentFilter indicates the prompt was rejected by a safety system
	FailureContentFilter FailureReason = "content_filter"

	// FailureEmptyResponse indicates a successful call that returned no result
	FailureEmptyResponse FailureReason = "empty_response"

	// FailureUnknown indicates an unclassified error
	FailureUnknown FailureReason = "unknown"
)

// ErrEmptyResponse is returned when the provider answers without any result.
var ErrEmptyResponse = errors.New("provider returned no result")

// ProviderError represents a structured error from the AI provider.
type ProviderError struct {
	// Reason categorizes the error
	Reason FailureReason

	// Provider is the name of the provider (e.g., "openai")
	Provider string

	// Operation is "image" or "chat"
	Operation string

	// Model is the model that was requested
	Model string

	// Status is the HTTP status code, if applicable
	Status int

	// Code is the provider-specific error code
	Code string

	// Message is the human-readable error message
	Message string

	// Cause is the underlying error
	Cause error
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	parts := []string{fmt.Sprintf("[%s]", e.Reason)}

	if e.Provider != "" {
		parts = append(parts, e.Provider)
	}
	if e.Operation != "" {
		parts = append(parts, fmt.Sprintf("op=%s", e.Operation))
	}
	if e.Model != "" {
		parts = append(parts, fmt.Sprintf("model=%s", e.Model))
	}
	if e.Status != 0 {
		parts = append(parts, fmt.Sprintf("status=%d", e.Status))
	}
	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("code=%s", e.Code))
	}
	if e.Message != "" {
		parts = append(parts, e.Message)
	} else if e.Cause != nil {
		parts = append(parts, e.Cause.Error())
	}

	return strings.Join(parts, " ")
}

// Unwrap returns the underlying error.
func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// NewProviderError wraps cause, classifying it from the go-openai error types
// when possible and from the error text otherwise.
func NewProviderError(provider, operation, model string, cause error) *ProviderError {
	err := &ProviderError{
		Provider:  provider,
		Operation: operation,
		Model:     model,
		Cause:     cause,
		Reason:    FailureUnknown,
	}
	if cause == nil {
		return err
	}
	err.Message = cause.Error()
	err.Reason = ClassifyError(cause)

	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(cause, &apiErr):
		err.Status = apiErr.HTTPStatusCode
		err.Message = apiErr.Message
		if code, ok := apiErr.Code.(string); ok {
			err.Code = code
		}
		err.Reason = classifyStatusCode(apiErr.HTTPStatusCode)
		if reason := classifyErrorCode(err.Code); reason != FailureUnknown {
			err.Reason = reason
		} else if reason := classifyErrorCode(apiErr.Type); reason != FailureUnknown {
			err.Reason = reason
		}
	case errors.As(cause, &reqErr):
		err.Status = reqErr.HTTPStatusCode
		if reason := classifyStatusCode(reqErr.HTTPStatusCode); reason != FailureUnknown {
			err.Reason = reason
		}
	}

	if errors.Is(cause, ErrEmptyResponse) {
		err.Reason = FailureEmptyResponse
	}
	return err
}

// ClassifyError inspects an error and returns the matching FailureReason.
func ClassifyError(err error) FailureReason {
	if err == nil {
		return FailureUnknown
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return FailureTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return FailureTimeout
	}

	errStr := strings.ToLower(err.Error())

	switch {
	case strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "deadline exceeded"):
		return FailureTimeout
	case strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "rate_limit") ||
		strings.Contains(errStr, "too many requests"):
		return FailureRateLimit
	case strings.Contains(errStr, "quota") ||
		strings.Contains(errStr, "billing"):
		return FailureBilling
	case strings.Contains(errStr, "unauthorized") ||
		strings.Contains(errStr, "invalid api key") ||
		strings.Contains(errStr, "incorrect api key"):
		return FailureAuth
	case strings.Contains(errStr, "content_policy") ||
		strings.Contains(errStr, "safety system"):
		return FailureContentFilter
	case strings.Contains(errStr, "model_not_found") ||
		strings.Contains(errStr, "does not exist"):
		return FailureModelUnavailable
	case strings.Contains(errStr, "internal server") ||
		strings.Contains(errStr, "server error"):
		return FailureServerError
	}

	return FailureUnknown
}

func classifyStatusCode(status int) FailureReason {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return FailureAuth
	case status == http.StatusPaymentRequired:
		return FailureBilling
	case status == http.StatusTooManyRequests:
		return FailureRateLimit
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		return FailureTimeout
	case status == http.StatusBadRequest:
		return FailureInvalidRequest
	case status == http.StatusNotFound:
		return FailureModelUnavailable
	case status >= 500:
		return FailureServerError
	default:
		return FailureUnknown
	}
}

func classifyErrorCode(code string) FailureReason {
	switch strings.ToLower(code) {
	case "rate_limit_exceeded", "requests", "tokens":
		return FailureRateLimit
	case "invalid_api_key", "authentication_error":
		return FailureAuth
	case "insufficient_quota", "billing_hard_limit_reached":
		return FailureBilling
	case "model_not_found":
		return FailureModelUnavailable
	case "content_policy_violation":
		return FailureContentFilter
	case "server_error":
		return FailureServerError
	default:
		return FailureUnknown
	}
}

// GetProviderError extracts a ProviderError from an error chain.
func GetProviderError(err error) (*ProviderError, bool) {
	var providerErr *ProviderError
	if errors.As(err, &providerErr) {
		return providerErr, true
	}
	return nil, false
}

// ReasonOf returns the classified reason for any error.
func ReasonOf(err error) FailureReason {
	if pe, ok := GetProviderError(err); ok {
		return pe.Reason
	}
	return ClassifyError(err)
}
