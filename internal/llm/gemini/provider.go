package gemini

import (
	"context"
	"errors"
	"fmt"
	"iter"

	"github.com/Rrens/alap/internal/config"
	"github.com/Rrens/alap/internal/domain"
	"github.com/Rrens/alap/internal/llm"
	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

const defaultModel = "gemini-3-flash-preview"

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
		"gemini-3-flash-preview",
		"gemini-2.5-flash",
		"gemini-2.5-pro",
		"gemini-1.5-flash",
	}
}

func (p *Provider) DefaultModel() string {
	if p.model != "" {
		return p.model
	}
	return defaultModel
}

func (p *Provider) IsConfigured() bool {
	return p.apiKey != ""
}

func (p *Provider) Stream(ctx context.Context, req llm.Request) iter.Seq2[string, error] {
	return llm.Accumulate(func(yield func(string, error) bool) {
		if !p.IsConfigured() {
			yield("", fmt.Errorf("gemini provider is not configured (missing API key)"))
			return
		}
		if len(req.History) == 0 {
			yield("", fmt.Errorf("gemini: empty history"))
			return
		}

		client, err := genai.NewClient(ctx, option.WithAPIKey(p.apiKey))
		if err != nil {
			yield("", fmt.Errorf("failed to create gemini client: %w", err))
			return
		}
		defer client.Close()

		model := client.GenerativeModel(req.ModelOr(p.DefaultModel()))
		configure(model, req.Persona)

		history, last := toContents(req.History)
		cs := model.StartChat()
		cs.History = history

		it := cs.SendMessageStream(ctx, last...)
		for {
			resp, err := it.Next()
			if errors.Is(err, iterator.Done) {
				return
			}
			if err != nil {
				yield("", fmt.Errorf("gemini stream error: %w", err))
				return
			}
			if !yield(textOf(resp), nil) {
				return
			}
		}
	})
}

func configure(m *genai.GenerativeModel, p domain.Persona) {
	if p.SystemInstruction != "" {
		m.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(p.SystemInstruction)}}
	}
	m.SetTemperature(float32(p.Temperature))
	if p.TopP > 0 {
		m.SetTopP(float32(p.TopP))
	}
	if p.TopK > 0 {
		m.SetTopK(int32(p.TopK))
	}
	if p.MaxOutputTokens > 0 {
		m.SetMaxOutputTokens(int32(p.MaxOutputTokens))
	}
}

// toContents splits the conversation into prior turns and the parts of the
// message being sent.
func toContents(msgs []domain.Message) ([]*genai.Content, []genai.Part) {
	history := make([]*genai.Content, 0, len(msgs)-1)
	for _, m := range msgs[:len(msgs)-1] {
		history = append(history, &genai.Content{
			Role:  roleOf(m.Role),
			Parts: []genai.Part{genai.Text(m.Content)},
		})
	}
	return history, []genai.Part{genai.Text(msgs[len(msgs)-1].Content)}
}

func roleOf(r domain.MessageRole) string {
	if r == domain.RoleUser {
		return "user"
	}
	return "model"
}

func textOf(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var out string
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			out += string(text)
		}
	}
	return out
}
