package ollama

import (
	"github.com/Rrens/alap/internal/config"
	"github.com/Rrens/alap/internal/llm"
	"github.com/tmc/langchaingo/llms"
	lcollama "github.com/tmc/langchaingo/llms/ollama"
)

const defaultModel = "llama3.1"

// NewProvider creates an Ollama provider. Ollama needs no credentials, so
// it counts as configured whenever a host is set.
func NewProvider(cfg config.OllamaConfig) llm.Provider {
	model := cfg.DefaultModel
	if model == "" {
		model = defaultModel
	}

	return llm.NewLangChainProvider(
		"ollama",
		[]string{"llama3.1", "llama3.2", "mistral", "mixtral", "phi3", "qwen2"},
		model,
		cfg.Host != "",
		func(m string) (llms.Model, error) {
			return lcollama.New(lcollama.WithModel(m), lcollama.WithServerURL(cfg.Host))
		},
	)
}
