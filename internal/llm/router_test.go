package llm_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rrens/property-assistant/internal/llm"
)

type stubProvider struct {
	name       string
	configured bool
}

func (p stubProvider) Name() string              { return p.name }
func (p stubProvider) AvailableModels() []string { return []string{p.name + "-model"} }
func (p stubProvider) DefaultModel() string      { return p.name + "-model" }
func (p stubProvider) IsConfigured() bool        { return p.configured }
func (p stubProvider) Chat(context.Context, llm.ChatRequest) (*llm.ChatResponse, error) {
	return &llm.ChatResponse{Content: "ok"}, nil
}

func TestRouter_GetProvider(t *testing.T) {
	r := llm.NewRouter("openai")
	r.RegisterProvider(stubProvider{name: "openai", configured: true})
	r.RegisterProvider(stubProvider{name: "anthropic", configured: false})

	p, err := r.GetProvider("")
	require.NoError(t, err)
	assert.Equal(t, "openai", p.Name())

	_, err = r.GetProvider("anthropic")
	assert.ErrorContains(t, err, "not configured")

	_, err = r.GetProvider("gemini")
	assert.ErrorContains(t, err, "not found")
}

func TestRouter_ListAndInfo(t *testing.T) {
	r := llm.NewRouter("ollama")
	r.RegisterProvider(stubProvider{name: "ollama", configured: true})
	r.RegisterProvider(stubProvider{name: "deepseek", configured: true})
	r.RegisterProvider(stubProvider{name: "gemini", configured: false})

	assert.Equal(t, []string{"deepseek", "ollama"}, r.ListProviders())

	infos := r.GetProvidersInfo()
	require.Len(t, infos, 3)
	assert.Equal(t, "deepseek", infos[0].Name)
	assert.Equal(t, "gemini", infos[1].Name)
	assert.False(t, infos[1].Configured)
	assert.True(t, infos[2].Default)
}
