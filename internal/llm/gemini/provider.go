package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/Rrens/property-assistant/internal/config"
	"github.com/Rrens/property-assistant/internal/llm"
)

type Provider struct {
	apiKey string
	model  string
}

func NewProvider(cfg config.GeminiConfig) *Provider {
	return &Provider{
		apiKey: cfg.APIKey,
		model:  cfg.Model,
	}
}

func (p *Provider) Name() string {
	return "gemini"
}

func (p *Provider) AvailableModels() []string {
	return []string{
		"gemini-2.5-flash",
		"gemini-2.5-pro",
		"gemini-2.0-flash",
		"gemini-1.5-flash",
	}
}

func (p *Provider) DefaultModel() string {
	if p.model != "" {
		return p.model
	}
	return "gemini-2.5-flash"
}

func (p *Provider) IsConfigured() bool {
	return p.apiKey != ""
}

// Chat runs one function-calling turn. Every message but the last becomes
// chat history; the last one is sent.
func (p *Provider) Chat(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	if !p.IsConfigured() {
		return nil, fmt.Errorf("gemini provider is not configured (missing API key)")
	}

	model := req.Model
	if model == "" {
		model = p.DefaultModel()
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(p.apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	defer client.Close()

	generativeModel := client.GenerativeModel(model)
	generativeModel.SetTemperature(float32(req.Temperature))
	if req.MaxTokens > 0 {
		generativeModel.SetMaxOutputTokens(int32(req.MaxTokens))
	}

	system, contents := convertMessages(req.Messages)
	if system != "" {
		generativeModel.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}
	}
	if len(req.Tools) > 0 {
		generativeModel.Tools = []*genai.Tool{{FunctionDeclarations: convertTools(req.Tools)}}
		generativeModel.ToolConfig = &genai.ToolConfig{
			FunctionCallingConfig: &genai.FunctionCallingConfig{Mode: genai.FunctionCallingAuto},
		}
	}

	if len(contents) == 0 {
		return nil, fmt.Errorf("gemini chat requires at least one message")
	}

	cs := generativeModel.StartChat()
	cs.History = contents[:len(contents)-1]

	start := time.Now()
	resp, err := cs.SendMessage(ctx, contents[len(contents)-1].Parts...)
	latency := time.Since(start).Milliseconds()

	if err != nil {
		return nil, classifyError(err)
	}

	out := &llm.ChatResponse{
		Model:     model,
		LatencyMs: latency,
	}
	if resp.UsageMetadata != nil {
		out.TokensUsed = int(resp.UsageMetadata.TotalTokenCount)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return out, nil
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		switch v := part.(type) {
		case genai.Text:
			text.WriteString(string(v))
		case genai.FunctionCall:
			out.ToolCalls = append(out.ToolCalls, llm.ToolCall{
				ID:        fmt.Sprintf("call_%d", len(out.ToolCalls)),
				Name:      v.Name,
				Arguments: llm.ArgumentsJSON(v.Args),
			})
		}
	}
	out.Content = text.String()

	return out, nil
}

// convertMessages maps the conversation onto Gemini contents. Assistant turns
// use the "model" role; tool results become function responses and
// consecutive ones share a single content.
func convertMessages(msgs []llm.Message) (string, []*genai.Content) {
	var systemParts []string
	var contents []*genai.Content

	for _, m := range msgs {
		switch m.Role {
		case llm.RoleSystem:
			systemParts = append(systemParts, m.Content)

		case llm.RoleAssistant:
			var parts []genai.Part
			if m.Content != "" {
				parts = append(parts, genai.Text(m.Content))
			}
			for _, tc := range m.ToolCalls {
				var args map[string]any
				if err := json.Unmarshal([]byte(tc.Arguments), &args); err != nil {
					args = map[string]any{}
				}
				parts = append(parts, genai.FunctionCall{Name: tc.Name, Args: args})
			}
			if len(parts) == 0 {
				continue
			}
			contents = append(contents, &genai.Content{Role: "model", Parts: parts})

		case llm.RoleTool:
			var response map[string]any
			if err := json.Unmarshal([]byte(m.Content), &response); err != nil || response == nil {
				response = map[string]any{"result": m.Content}
			}
			part := genai.FunctionResponse{Name: m.Name, Response: response}
			if n := len(contents); n > 0 && contents[n-1].Role == "function" {
				contents[n-1].Parts = append(contents[n-1].Parts, part)
				continue
			}
			contents = append(contents, &genai.Content{Role: "function", Parts: []genai.Part{part}})

		default:
			contents = append(contents, &genai.Content{Role: "user", Parts: []genai.Part{genai.Text(m.Content)}})
		}
	}

	return strings.Join(systemParts, "\n\n"), contents
}

func convertTools(tools []llm.Tool) []*genai.FunctionDeclaration {
	decls := make([]*genai.FunctionDeclaration, 0, len(tools))
	for _, t := range tools {
		decls = append(decls, &genai.FunctionDeclaration{
			Name:        t.Name,
			Description: t.Description,
			Parameters:  convertSchema(t.Parameters),
		})
	}
	return decls
}

// convertSchema translates a JSON-schema map into genai.Schema. Keywords
// Gemini does not support are dropped.
func convertSchema(m map[string]any) *genai.Schema {
	if m == nil {
		return nil
	}

	s := &genai.Schema{}
	if t, ok := m["type"].(string); ok {
		switch t {
		case "object":
			s.Type = genai.TypeObject
		case "array":
			s.Type = genai.TypeArray
		case "integer":
			s.Type = genai.TypeInteger
		case "number":
			s.Type = genai.TypeNumber
		case "boolean":
			s.Type = genai.TypeBoolean
		default:
			s.Type = genai.TypeString
		}
	}
	if d, ok := m["description"].(string); ok {
		s.Description = d
	}
	if props, ok := m["properties"].(map[string]any); ok {
		s.Properties = make(map[string]*genai.Schema, len(props))
		for name, raw := range props {
			if prop, ok := raw.(map[string]any); ok {
				s.Properties[name] = convertSchema(prop)
			}
		}
	}
	if items, ok := m["items"].(map[string]any); ok {
		s.Items = convertSchema(items)
	}
	s.Required = stringSlice(m["required"])
	s.Enum = stringSlice(m["enum"])

	return s
}

func stringSlice(v any) []string {
	switch vals := v.(type) {
	case []string:
		return vals
	case []any:
		out := make([]string, 0, len(vals))
		for _, x := range vals {
			if s, ok := x.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// classifyError maps throttling and quota failures onto the llm sentinels
func classifyError(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return llm.ClassifyStatus("gemini", apiErr.Code, apiErr.Message+" "+apiErr.Body)
	}

	if status.Code(err) == codes.ResourceExhausted {
		return llm.ClassifyStatus("gemini", http.StatusTooManyRequests, err.Error())
	}

	return fmt.Errorf("gemini generation error: %w", err)
}
