package anthropic

import (
	"github.com/Rrens/alap/internal/config"
	"github.com/Rrens/alap/internal/llm"
	"github.com/tmc/langchaingo/llms"
	lcanthropic "github.com/tmc/langchaingo/llms/anthropic"
)

const defaultModel = "claude-3-5-sonnet-20241022"

// NewProvider creates a new Anthropic provider
func NewProvider(cfg config.AnthropicConfig) llm.Provider {
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}

	return llm.NewLangChainProvider(
		"anthropic",
		[]string{
			"claude-3-5-sonnet-20241022",
			"claude-3-5-haiku-20241022",
			"claude-3-opus-20240229",
		},
		model,
		cfg.APIKey != "",
		func(m string) (llms.Model, error) {
			return lcanthropic.New(lcanthropic.WithToken(cfg.APIKey), lcanthropic.WithModel(m))
		},
	)
}
