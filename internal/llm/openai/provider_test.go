package openai

import (
	"testing"

	"github.com/Rrens/alap/internal/config"
	"github.com/stretchr/testify/assert"
)

func TestNewProvider(t *testing.T) {
	p := NewProvider(config.OpenAIConfig{})
	assert.Equal(t, "openai", p.Name())
	assert.Equal(t, defaultModel, p.DefaultModel())
	assert.False(t, p.IsConfigured())

	p = NewProvider(config.OpenAIConfig{APIKey: "sk-test", Model: "gpt-4o"})
	assert.True(t, p.IsConfigured())
	assert.Equal(t, "gpt-4o", p.DefaultModel())
	assert.Contains(t, p.AvailableModels(), "gpt-4o")
}
