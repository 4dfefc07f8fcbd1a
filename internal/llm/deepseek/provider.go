package deepseek

import (
	"github.com/Rrens/alap/internal/config"
	"github.com/Rrens/alap/internal/llm"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

const (
	defaultModel   = "deepseek-chat"
	defaultBaseURL = "https://api.deepseek.com/v1"
)

// NewProvider creates a DeepSeek provider. DeepSeek speaks the OpenAI
// chat completions protocol.
func NewProvider(cfg config.DeepSeekConfig) llm.Provider {
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	return llm.NewLangChainProvider(
		"deepseek",
		[]string{"deepseek-chat", "deepseek-reasoner"},
		model,
		cfg.APIKey != "",
		func(m string) (llms.Model, error) {
			return openai.New(
				openai.WithToken(cfg.APIKey),
				openai.WithModel(m),
				openai.WithBaseURL(baseURL),
			)
		},
	)
}
