package llm_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Rrens/property-assistant/internal/llm"
)

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"openai throttled", 429, `{"error":{"code":"rate_limit_exceeded"}}`, llm.ErrRateLimited},
		{"openai quota", 429, `{"error":{"code":"insufficient_quota"}}`, llm.ErrQuotaExceeded},
		{"payment required", 402, `{}`, llm.ErrQuotaExceeded},
		{"anthropic overloaded", 529, `{"type":"overloaded_error"}`, llm.ErrRateLimited},
		{"anthropic credit", 400, `Your credit balance is too low`, llm.ErrQuotaExceeded},
		{"server error", 500, `boom`, nil},
		{"bad request", 400, `invalid tool schema`, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := llm.ClassifyStatus("openai", tt.status, tt.body)

			var se *llm.StatusError
			assert.True(t, errors.As(err, &se))
			assert.Equal(t, tt.status, se.StatusCode)

			if tt.want == nil {
				assert.False(t, errors.Is(err, llm.ErrRateLimited))
				assert.False(t, errors.Is(err, llm.ErrQuotaExceeded))
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestStatusError_TruncatesBody(t *testing.T) {
	long := make([]byte, 1000)
	for i := range long {
		long[i] = 'x'
	}
	err := llm.ClassifyStatus("ollama", 500, string(long))
	assert.Less(t, len(err.Error()), 400)
}

func TestArgumentsJSON(t *testing.T) {
	assert.Equal(t, "{}", llm.ArgumentsJSON(nil))
	assert.Equal(t, `{"name":"João"}`, llm.ArgumentsJSON(map[string]any{"name": "João"}))
}
