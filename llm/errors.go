package llm

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"
)

// FailureKind tags a backend failure so the invoker can pick between retry,
// degrade, and immediate surfacing.
type FailureKind int

const (
	// FailureUnknown covers everything the other kinds do not.
	FailureUnknown FailureKind = iota
	// FailureOverloaded marks a transient overload; retried with backoff.
	FailureOverloaded
	// FailureRateLimited marks quota exhaustion; never retried.
	FailureRateLimited
	// FailureUnauthenticated marks bad or missing credentials; never retried.
	FailureUnauthenticated
	// FailureContextTooLarge marks a prompt exceeding the model window;
	// retried once with a shrunk context.
	FailureContextTooLarge
)

func (k FailureKind) String() string {
	switch k {
	case FailureOverloaded:
		return "overloaded"
	case FailureRateLimited:
		return "rate_limited"
	case FailureUnauthenticated:
		return "unauthenticated"
	case FailureContextTooLarge:
		return "context_too_large"
	default:
		return "unknown"
	}
}

// GenerationError is a backend failure with its cause classified.
type GenerationError struct {
	Kind    FailureKind
	Status  int
	Message string
}

func (e *GenerationError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("generation failed (%s, status %d): %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("generation failed (%s): %s", e.Kind, e.Message)
}

// KindOf extracts the failure kind from an error chain. Errors that carry no
// GenerationError classify as FailureUnknown.
func KindOf(err error) FailureKind {
	var genErr *GenerationError
	if errors.As(err, &genErr) {
		return genErr.Kind
	}
	return FailureUnknown
}

// classifyStatus maps an HTTP status plus response body to a failure kind.
func classifyStatus(status int, body string) FailureKind {
	switch status {
	case http.StatusServiceUnavailable, http.StatusBadGateway, http.StatusGatewayTimeout:
		return FailureOverloaded
	case http.StatusTooManyRequests:
		return FailureRateLimited
	case http.StatusUnauthorized, http.StatusForbidden:
		return FailureUnauthenticated
	case http.StatusRequestEntityTooLarge:
		return FailureContextTooLarge
	case http.StatusBadRequest:
		if looksLikeContextOverflow(body) {
			return FailureContextTooLarge
		}
		return FailureUnknown
	default:
		if status >= 500 {
			return FailureOverloaded
		}
		return FailureUnknown
	}
}

func looksLikeContextOverflow(body string) bool {
	lower := strings.ToLower(body)
	for _, marker := range []string{"context length", "context window", "too large", "token limit", "maximum context"} {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// newStatusError builds a classified error from an HTTP response.
func newStatusError(status int, body string) *GenerationError {
	return &GenerationError{
		Kind:    classifyStatus(status, body),
		Status:  status,
		Message: strings.TrimSpace(body),
	}
}

// wrapGenaiError translates a genai API error into a GenerationError.
// Non-API errors (transport, context cancellation) pass through untouched.
func wrapGenaiError(err error) error {
	if err == nil {
		return nil
	}
	var apiErr genai.APIError
	if !errors.As(err, &apiErr) {
		return err
	}
	return &GenerationError{
		Kind:    classifyStatus(apiErr.Code, apiErr.Message),
		Status:  apiErr.Code,
		Message: apiErr.Message,
	}
}
