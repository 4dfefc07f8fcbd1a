package deepseek

import (
	"testing"

	"github.com/Rrens/alap/internal/config"
	"github.com/stretchr/testify/assert"
)

func TestNewProvider(t *testing.T) {
	p := NewProvider(config.DeepSeekConfig{APIKey: "k"})
	assert.Equal(t, "deepseek", p.Name())
	assert.Equal(t, defaultModel, p.DefaultModel())
	assert.True(t, p.IsConfigured())
}
