package gemini

import (
	"errors"
	"net/http"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/Rrens/property-assistant/internal/config"
	"github.com/Rrens/property-assistant/internal/llm"
)

func TestConvertSchema(t *testing.T) {
	s := convertSchema(map[string]any{
		"type": "object",
		"properties": map[string]any{
			"name":           map[string]any{"type": "string", "description": "nome"},
			"interest_level": map[string]any{"type": "string", "enum": []string{"high", "medium", "low"}},
			"tags":           map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		},
		"required": []any{"name"},
	})

	require.NotNil(t, s)
	assert.Equal(t, genai.TypeObject, s.Type)
	assert.Equal(t, []string{"name"}, s.Required)
	assert.Equal(t, "nome", s.Properties["name"].Description)
	assert.Equal(t, []string{"high", "medium", "low"}, s.Properties["interest_level"].Enum)
	assert.Equal(t, genai.TypeArray, s.Properties["tags"].Type)
	assert.Equal(t, genai.TypeString, s.Properties["tags"].Items.Type)

	assert.Nil(t, convertSchema(nil))
}

func TestConvertMessages(t *testing.T) {
	system, contents := convertMessages([]llm.Message{
		{Role: llm.RoleSystem, Content: "instruções"},
		{Role: llm.RoleUser, Content: "oi"},
		{Role: llm.RoleAssistant, ToolCalls: []llm.ToolCall{
			{Name: "capture_contact", Arguments: `{"name":"João"}`},
			{Name: "request_scheduling", Arguments: `{}`},
		}},
		{Role: llm.RoleTool, Name: "capture_contact", Content: `{"success":true}`},
		{Role: llm.RoleTool, Name: "request_scheduling", Content: "plain text"},
	})

	assert.Equal(t, "instruções", system)
	require.Len(t, contents, 3)
	assert.Equal(t, "model", contents[1].Role)
	fc, ok := contents[1].Parts[0].(genai.FunctionCall)
	require.True(t, ok)
	assert.Equal(t, "João", fc.Args["name"])

	require.Len(t, contents[2].Parts, 2)
	fr, ok := contents[2].Parts[1].(genai.FunctionResponse)
	require.True(t, ok)
	assert.Equal(t, "plain text", fr.Response["result"])
}

func TestClassifyError(t *testing.T) {
	err := classifyError(status.Error(codes.ResourceExhausted, "Resource has been exhausted"))
	assert.True(t, errors.Is(err, llm.ErrRateLimited))

	err = classifyError(status.Error(codes.ResourceExhausted, "You exceeded your current quota"))
	assert.True(t, errors.Is(err, llm.ErrQuotaExceeded))

	err = classifyError(&googleapi.Error{Code: http.StatusTooManyRequests, Message: "rate limit"})
	assert.True(t, errors.Is(err, llm.ErrRateLimited))

	err = classifyError(errors.New("boom"))
	assert.False(t, errors.Is(err, llm.ErrRateLimited))
	assert.False(t, errors.Is(err, llm.ErrQuotaExceeded))
}

func TestProvider_Defaults(t *testing.T) {
	p := NewProvider(config.GeminiConfig{})
	assert.False(t, p.IsConfigured())
	assert.Equal(t, "gemini-2.5-flash", p.DefaultModel())
}
