package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rrens/property-assistant/internal/llm"
)

func TestProvider_ChatToolCalls(t *testing.T) {
	var got ollamaRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Write([]byte(`{
			"model": "llama3.1",
			"message": {"role": "assistant", "content": "", "tool_calls": [
				{"function": {"name": "request_scheduling", "arguments": {"option_1": "2026-10-20 10:00"}}}
			]},
			"done": true,
			"prompt_eval_count": 20,
			"eval_count": 7
		}`))
	}))
	defer srv.Close()

	p := NewProvider(srv.URL+"/", "")
	resp, err := p.Chat(context.Background(), llm.ChatRequest{
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: "quero visitar"},
			{Role: llm.RoleAssistant, ToolCalls: []llm.ToolCall{{ID: "x", Name: "capture_contact", Arguments: `{"name":"Ana"}`}}},
			{Role: llm.RoleTool, Name: "capture_contact", ToolCallID: "x", Content: "ok"},
		},
		Tools:       []llm.Tool{{Name: "request_scheduling", Parameters: map[string]any{"type": "object"}}},
		Temperature: 0.2,
		MaxTokens:   100,
	})
	require.NoError(t, err)

	require.Len(t, resp.ToolCalls, 1)
	assert.Equal(t, "call_0", resp.ToolCalls[0].ID)
	assert.JSONEq(t, `{"option_1":"2026-10-20 10:00"}`, resp.ToolCalls[0].Arguments)
	assert.Equal(t, 27, resp.TokensUsed)

	assert.False(t, got.Stream)
	require.Len(t, got.Tools, 1)
	assert.Equal(t, float64(100), got.Options["num_predict"])
	assert.Equal(t, "Ana", got.Messages[1].ToolCalls[0].Function.Arguments["name"])
	assert.Equal(t, "capture_contact", got.Messages[2].ToolName)
}

func TestProvider_IsConfigured(t *testing.T) {
	assert.False(t, NewProvider("", "").IsConfigured())
	assert.True(t, NewProvider("http://localhost:11434", "").IsConfigured())
}
