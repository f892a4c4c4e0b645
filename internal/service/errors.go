package service

import (
	"fmt"
	"strings"
)

// ValidationError reports a malformed chat request; nothing was executed
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "invalid request"
	}
	return "invalid request: " + strings.Join(e.Fields, ", ")
}

// RateLimitError reports that the caller exhausted its window
type RateLimitError struct {
	RetryAfter int // seconds
	Limit      int
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded, retry after %ds", e.RetryAfter)
}

// GatewayErrorKind classifies language-model gateway failures
type GatewayErrorKind string

const (
	GatewayThrottled GatewayErrorKind = "throttled"
	GatewayQuota     GatewayErrorKind = "quota"
	GatewayFailed    GatewayErrorKind = "failed"
)

// GatewayError wraps a failed model call
type GatewayError struct {
	Kind     GatewayErrorKind
	Provider string
	Err      error
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("llm gateway %s (%s): %v", e.Kind, e.Provider, e.Err)
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}
