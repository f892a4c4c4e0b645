package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Rrens/property-assistant/internal/llm"
)

const defaultMaxTokens = 1024

// Provider implements llm.Provider for Anthropic
type Provider struct {
	apiKey       string
	defaultModel string
	client       *http.Client
	baseURL      string
}

// NewProvider creates a new Anthropic provider
func NewProvider(apiKey, defaultModel string) *Provider {
	if defaultModel == "" {
		defaultModel = "claude-3-5-haiku-latest"
	}
	return &Provider{
		apiKey:       apiKey,
		defaultModel: defaultModel,
		client:       &http.Client{Timeout: 120 * time.Second},
		baseURL:      "https://api.anthropic.com/v1",
	}
}

// Name returns the provider identifier
func (p *Provider) Name() string {
	return "anthropic"
}

// AvailableModels returns list of supported models
func (p *Provider) AvailableModels() []string {
	return []string{
		"claude-3-5-haiku-latest",
		"claude-3-5-sonnet-latest",
		"claude-3-7-sonnet-latest",
		"claude-sonnet-4-0",
	}
}

// DefaultModel returns the default model
func (p *Provider) DefaultModel() string {
	return p.defaultModel
}

// IsConfigured checks if provider has valid credentials
func (p *Provider) IsConfigured() bool {
	return p.apiKey != ""
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	System      string             `json:"system,omitempty"`
	Messages    []anthropicMessage `json:"messages"`
	Tools       []anthropicTool    `json:"tools,omitempty"`
	ToolChoice  *toolChoice        `json:"tool_choice,omitempty"`
	Temperature float64            `json:"temperature"`
}

type anthropicMessage struct {
	Role    string             `json:"role"`
	Content []anthropicContent `json:"content"`
}

type anthropicContent struct {
	Type      string          `json:"type"`
	Text      string          `json:"text,omitempty"`
	ID        string          `json:"id,omitempty"`
	Name      string          `json:"name,omitempty"`
	Input     json.RawMessage `json:"input,omitempty"`
	ToolUseID string          `json:"tool_use_id,omitempty"`
	Content   string          `json:"content,omitempty"`
}

type anthropicTool struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	InputSchema map[string]any `json:"input_schema"`
}

type toolChoice struct {
	Type string `json:"type"`
}

type anthropicResponse struct {
	Model   string             `json:"model"`
	Content []anthropicContent `json:"content"`
	Usage   struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// Chat sends a messages request
func (p *Provider) Chat(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	model := req.Model
	if model == "" {
		model = p.defaultModel
	}
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	messages, system := convertMessages(req.Messages, len(req.Tools) > 0)
	anthropicReq := anthropicRequest{
		Model:       model,
		MaxTokens:   maxTokens,
		System:      system,
		Messages:    messages,
		Temperature: req.Temperature,
	}
	if len(req.Tools) > 0 {
		anthropicReq.Tools = convertTools(req.Tools)
		if req.ToolChoice != "" {
			anthropicReq.ToolChoice = &toolChoice{Type: req.ToolChoice}
		}
	}

	body, err := json.Marshal(anthropicReq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	start := time.Now()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/messages", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", p.apiKey)
	httpReq.Header.Set("anthropic-version", "2023-06-01")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, llm.ClassifyStatus(p.Name(), resp.StatusCode, string(respBody))
	}

	var anthropicResp anthropicResponse
	if err := json.NewDecoder(resp.Body).Decode(&anthropicResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	out := &llm.ChatResponse{
		Model:      model,
		TokensUsed: anthropicResp.Usage.InputTokens + anthropicResp.Usage.OutputTokens,
		LatencyMs:  time.Since(start).Milliseconds(),
	}
	if anthropicResp.Model != "" {
		out.Model = anthropicResp.Model
	}

	var text strings.Builder
	for _, block := range anthropicResp.Content {
		switch block.Type {
		case "text":
			text.WriteString(block.Text)
		case "tool_use":
			args := string(block.Input)
			if args == "" || args == "null" {
				args = "{}"
			}
			out.ToolCalls = append(out.ToolCalls, llm.ToolCall{
				ID:        block.ID,
				Name:      block.Name,
				Arguments: args,
			})
		}
	}
	out.Content = text.String()

	return out, nil
}

// convertMessages lifts system turns into the system field. With tools
// declared, tool traffic maps onto tool_use / tool_result blocks and
// consecutive tool results are grouped into one user turn. Without tools the
// API rejects those blocks, so the same traffic is rendered as plain text.
func convertMessages(msgs []llm.Message, nativeTools bool) ([]anthropicMessage, string) {
	var systemParts []string
	var out []anthropicMessage

	for _, m := range msgs {
		switch m.Role {
		case llm.RoleSystem:
			systemParts = append(systemParts, m.Content)

		case llm.RoleAssistant:
			var blocks []anthropicContent
			if m.Content != "" {
				blocks = append(blocks, anthropicContent{Type: "text", Text: m.Content})
			}
			for i, tc := range m.ToolCalls {
				if !nativeTools {
					blocks = append(blocks, anthropicContent{
						Type: "text",
						Text: fmt.Sprintf("[%s] %s", tc.Name, string(toolInput(tc.Arguments))),
					})
					continue
				}
				id := tc.ID
				if id == "" {
					id = fmt.Sprintf("toolu_%s_%d", tc.Name, i)
				}
				blocks = append(blocks, anthropicContent{
					Type:  "tool_use",
					ID:    id,
					Name:  tc.Name,
					Input: toolInput(tc.Arguments),
				})
			}
			if len(blocks) == 0 {
				continue
			}
			out = append(out, anthropicMessage{Role: llm.RoleAssistant, Content: blocks})

		case llm.RoleTool:
			if !nativeTools {
				out = appendUserText(out, fmt.Sprintf("[%s result] %s", m.Name, m.Content))
				continue
			}
			block := anthropicContent{
				Type:      "tool_result",
				ToolUseID: m.ToolCallID,
				Content:   m.Content,
			}
			if n := len(out); n > 0 && out[n-1].Role == llm.RoleUser && isToolResults(out[n-1]) {
				out[n-1].Content = append(out[n-1].Content, block)
				continue
			}
			out = append(out, anthropicMessage{Role: llm.RoleUser, Content: []anthropicContent{block}})

		default:
			out = append(out, anthropicMessage{
				Role:    llm.RoleUser,
				Content: []anthropicContent{{Type: "text", Text: m.Content}},
			})
		}
	}

	return out, strings.Join(systemParts, "\n\n")
}

// appendUserText adds a text block, joining the previous turn when it is
// already a user text turn so roles keep alternating
func appendUserText(out []anthropicMessage, text string) []anthropicMessage {
	block := anthropicContent{Type: "text", Text: text}
	if n := len(out); n > 0 && out[n-1].Role == llm.RoleUser && !isToolResults(out[n-1]) {
		out[n-1].Content = append(out[n-1].Content, block)
		return out
	}
	return append(out, anthropicMessage{Role: llm.RoleUser, Content: []anthropicContent{block}})
}

func isToolResults(m anthropicMessage) bool {
	for _, c := range m.Content {
		if c.Type != "tool_result" {
			return false
		}
	}
	return len(m.Content) > 0
}

// toolInput passes valid JSON objects through and replaces anything else with {}
func toolInput(arguments string) json.RawMessage {
	var obj map[string]any
	if err := json.Unmarshal([]byte(arguments), &obj); err != nil || obj == nil {
		return json.RawMessage("{}")
	}
	return json.RawMessage(arguments)
}

func convertTools(tools []llm.Tool) []anthropicTool {
	out := make([]anthropicTool, 0, len(tools))
	for _, t := range tools {
		schema := t.Parameters
		if schema == nil {
			schema = map[string]any{"type": "object", "properties": map[string]any{}}
		}
		out = append(out, anthropicTool{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: schema,
		})
	}
	return out
}
