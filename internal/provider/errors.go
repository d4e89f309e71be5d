package provider

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
)

// APIError is returned when the upstream answers with a non-2xx status.
type APIError struct {
	Provider   string
	Model      string
	StatusCode int
	Body       string // upstream error body, truncated
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s API error for model %q (status %d): %s",
		e.Provider, e.Model, e.StatusCode, e.Body)
}

// ErrorType buckets attempt failures for logs and metric labels. It never
// drives control flow: every failure type advances to the next candidate.
type ErrorType string

const (
	ErrorTypeUnknown    ErrorType = "unknown"
	ErrorTypeTimeout    ErrorType = "timeout"
	ErrorTypeCanceled   ErrorType = "canceled"
	ErrorTypeRateLimit  ErrorType = "rate_limit"
	ErrorTypeAuth       ErrorType = "auth"
	ErrorTypeOverloaded ErrorType = "overloaded"
	ErrorTypeFormat     ErrorType = "format"
	ErrorTypeNotFound   ErrorType = "not_found"
)

// Classify determines the error type of a failed attempt. Typed errors are
// checked first; the message fallback catches errors the genai SDK only
// exposes as text.
func Classify(err error) ErrorType {
	if err == nil {
		return ErrorTypeUnknown
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorTypeTimeout
	}
	if errors.Is(err, context.Canceled) {
		return ErrorTypeCanceled
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return classifyStatus(apiErr.StatusCode)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrorTypeTimeout
	}

	return classifyMessage(err.Error())
}

func classifyStatus(code int) ErrorType {
	switch {
	case code == http.StatusTooManyRequests:
		return ErrorTypeRateLimit
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return ErrorTypeAuth
	case code == http.StatusNotFound:
		return ErrorTypeNotFound
	case code == http.StatusBadRequest:
		return ErrorTypeFormat
	case code == http.StatusRequestTimeout || code == http.StatusGatewayTimeout:
		return ErrorTypeTimeout
	case code >= 500:
		return ErrorTypeOverloaded
	}
	return ErrorTypeUnknown
}

func classifyMessage(msg string) ErrorType {
	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "deadline exceeded") || strings.Contains(lower, "timeout"):
		return ErrorTypeTimeout
	case strings.Contains(lower, "resource_exhausted") || strings.Contains(lower, "rate limit") ||
		strings.Contains(lower, "quota"):
		return ErrorTypeRateLimit
	case strings.Contains(lower, "permission_denied") || strings.Contains(lower, "unauthenticated") ||
		strings.Contains(lower, "api key"):
		return ErrorTypeAuth
	case strings.Contains(lower, "not_found") || strings.Contains(lower, "not found"):
		return ErrorTypeNotFound
	case strings.Contains(lower, "unavailable") || strings.Contains(lower, "overloaded"):
		return ErrorTypeOverloaded
	case strings.Contains(lower, "invalid_argument") || strings.Contains(lower, "decoding"):
		return ErrorTypeFormat
	}
	return ErrorTypeUnknown
}
