package llm

import (
	"context"
	"fmt"
	"iter"

	"github.com/Rrens/alap/internal/domain"
	"github.com/tmc/langchaingo/llms"
)

// ModelFactory builds a langchaingo client for the named model
type ModelFactory func(model string) (llms.Model, error)

// LangChainProvider streams turns through any langchaingo chat model
type LangChainProvider struct {
	name         string
	models       []string
	defaultModel string
	configured   bool
	newModel     ModelFactory
}

// NewLangChainProvider creates a provider named name. configured reports
// whether credentials are present; newModel is invoked once per turn.
func NewLangChainProvider(name string, models []string, defaultModel string, configured bool, newModel ModelFactory) *LangChainProvider {
	return &LangChainProvider{
		name:         name,
		models:       models,
		defaultModel: defaultModel,
		configured:   configured,
		newModel:     newModel,
	}
}

func (p *LangChainProvider) Name() string              { return p.name }
func (p *LangChainProvider) AvailableModels() []string { return p.models }
func (p *LangChainProvider) DefaultModel() string      { return p.defaultModel }
func (p *LangChainProvider) IsConfigured() bool        { return p.configured }

func (p *LangChainProvider) Stream(ctx context.Context, req Request) iter.Seq2[string, error] {
	model := req.ModelOr(p.defaultModel)

	return Accumulate(FromCallback(ctx, func(ctx context.Context, emit Emit) error {
		if !p.configured {
			return fmt.Errorf("%s provider is not configured", p.name)
		}

		client, err := p.newModel(model)
		if err != nil {
			return fmt.Errorf("failed to create %s client: %w", p.name, err)
		}

		opts := append(CallOptions(req.Persona),
			llms.WithModel(model),
			llms.WithStreamingFunc(func(_ context.Context, chunk []byte) error {
				return emit(string(chunk))
			}),
		)

		if _, err := client.GenerateContent(ctx, MessageContents(req), opts...); err != nil {
			return fmt.Errorf("%s generation error: %w", p.name, err)
		}
		return nil
	}))
}

// MessageContents converts the request into langchaingo chat messages,
// leading with the persona's system instruction.
func MessageContents(req Request) []llms.MessageContent {
	out := make([]llms.MessageContent, 0, len(req.History)+1)
	if req.Persona.SystemInstruction != "" {
		out = append(out, llms.TextParts(llms.ChatMessageTypeSystem, req.Persona.SystemInstruction))
	}
	for _, m := range req.History {
		role := llms.ChatMessageTypeAI
		if m.Role == domain.RoleUser {
			role = llms.ChatMessageTypeHuman
		}
		out = append(out, llms.TextParts(role, m.Content))
	}
	return out
}

// CallOptions maps persona generation parameters onto call options
func CallOptions(p domain.Persona) []llms.CallOption {
	opts := []llms.CallOption{llms.WithTemperature(p.Temperature)}
	if p.TopP > 0 {
		opts = append(opts, llms.WithTopP(p.TopP))
	}
	if p.TopK > 0 {
		opts = append(opts, llms.WithTopK(p.TopK))
	}
	if p.MaxOutputTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(p.MaxOutputTokens))
	}
	return opts
}
