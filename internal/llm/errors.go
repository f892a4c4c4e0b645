package llm

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrRateLimited is returned when the provider throttles requests
	ErrRateLimited = errors.New("llm rate limited")
	// ErrQuotaExceeded is returned when the account is out of quota or credit
	ErrQuotaExceeded = errors.New("llm quota exceeded")
)

// StatusError is a non-2xx reply from a provider's HTTP API
type StatusError struct {
	Provider   string
	StatusCode int
	Body       string
	kind       error
}

func (e *StatusError) Error() string {
	body := e.Body
	if len(body) > 300 {
		body = body[:300] + "..."
	}
	return fmt.Sprintf("%s returned status %d: %s", e.Provider, e.StatusCode, body)
}

// Unwrap exposes the classification sentinel, if any
func (e *StatusError) Unwrap() error {
	return e.kind
}

var quotaMarkers = []string{
	"insufficient_quota",
	"quota",
	"billing",
	"credit balance",
	"payment",
}

// ClassifyStatus builds a StatusError and attaches ErrQuotaExceeded or
// ErrRateLimited when the status and body indicate one of them.
func ClassifyStatus(provider string, status int, body string) error {
	e := &StatusError{Provider: provider, StatusCode: status, Body: body}

	lower := strings.ToLower(body)
	mentionsQuota := false
	for _, m := range quotaMarkers {
		if strings.Contains(lower, m) {
			mentionsQuota = true
			break
		}
	}

	switch {
	case status == http.StatusPaymentRequired:
		e.kind = ErrQuotaExceeded
	case status == http.StatusTooManyRequests && mentionsQuota:
		e.kind = ErrQuotaExceeded
	case status == http.StatusTooManyRequests, status == 529:
		e.kind = ErrRateLimited
	case (status == http.StatusBadRequest || status == http.StatusForbidden) && mentionsQuota:
		e.kind = ErrQuotaExceeded
	}

	return e
}
