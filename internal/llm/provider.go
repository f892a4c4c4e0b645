package llm

import (
	"context"
	"encoding/json"
)

// Message roles understood by every provider
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// ToolChoiceAuto lets the model decide whether to call a tool
const ToolChoiceAuto = "auto"

// Message is one entry of the conversation sent to a provider
type Message struct {
	Role       string
	Content    string
	ToolCalls  []ToolCall // assistant turns that invoked tools
	ToolCallID string     // tool turns: the invocation being answered
	Name       string     // tool turns: the tool name
}

// ToolCall is a structured function invocation emitted by the model.
// Arguments is the raw JSON text as produced by the model and may be malformed.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// Tool describes a callable function with a JSON-schema parameter object
type Tool struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// ChatRequest contains chat completion parameters
type ChatRequest struct {
	Model       string
	Messages    []Message
	Tools       []Tool
	ToolChoice  string
	Temperature float64
	MaxTokens   int
}

// ChatResponse contains a provider's reply: free text, tool calls, or both
type ChatResponse struct {
	Content    string
	ToolCalls  []ToolCall
	Model      string
	TokensUsed int
	LatencyMs  int64
}

// Provider defines the interface for LLM providers
type Provider interface {
	// Name returns the provider identifier
	Name() string

	// AvailableModels returns list of supported models
	AvailableModels() []string

	// DefaultModel returns the default model
	DefaultModel() string

	// IsConfigured checks if provider has valid credentials
	IsConfigured() bool

	// Chat sends a chat completion request
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)
}

// ArgumentsJSON renders decoded tool arguments back to JSON text for ToolCall.Arguments
func ArgumentsJSON(args any) string {
	if args == nil {
		return "{}"
	}
	data, err := json.Marshal(args)
	if err != nil {
		return "{}"
	}
	return string(data)
}
