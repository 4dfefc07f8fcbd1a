package openai

import (
	"github.com/Rrens/alap/internal/config"
	"github.com/Rrens/alap/internal/llm"
	"github.com/tmc/langchaingo/llms"
	lcopenai "github.com/tmc/langchaingo/llms/openai"
)

const defaultModel = "gpt-4o-mini"

// NewProvider creates a new OpenAI provider
func NewProvider(cfg config.OpenAIConfig) llm.Provider {
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}

	return llm.NewLangChainProvider(
		"openai",
		[]string{"gpt-4o", "gpt-4o-mini", "gpt-4-turbo", "gpt-4.1", "gpt-4.1-mini"},
		model,
		cfg.APIKey != "",
		func(m string) (llms.Model, error) {
			opts := []lcopenai.Option{lcopenai.WithToken(cfg.APIKey), lcopenai.WithModel(m)}
			if cfg.BaseURL != "" {
				opts = append(opts, lcopenai.WithBaseURL(cfg.BaseURL))
			}
			return lcopenai.New(opts...)
		},
	)
}
