package deepseek

import (
	"github.com/Rrens/property-assistant/internal/llm/openai"
)

const baseURL = "https://api.deepseek.com/v1"

// NewProvider creates a new DeepSeek provider. DeepSeek speaks the OpenAI
// chat completions format, including function tools.
func NewProvider(apiKey, defaultModel string) *openai.Provider {
	if defaultModel == "" {
		defaultModel = "deepseek-chat"
	}
	return openai.NewCompatibleProvider("deepseek", apiKey, baseURL, defaultModel, []string{
		"deepseek-chat",
		"deepseek-reasoner",
	})
}
