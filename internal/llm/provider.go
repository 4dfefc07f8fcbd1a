package llm

import (
	"context"
	"iter"

	"github.com/Rrens/alap/internal/domain"
)

// Request is one assistant turn: the conversation so far, oldest first,
// ending with the newest user message.
type Request struct {
	History []domain.Message
	Persona domain.Persona
	Model   string
}

// ModelOr returns the model the request should run against
func (r Request) ModelOr(fallback string) string {
	if r.Model != "" {
		return r.Model
	}
	if r.Persona.Model != "" {
		return r.Persona.Model
	}
	return fallback
}

// Provider defines the interface for LLM providers
type Provider interface {
	// Name returns the provider identifier
	Name() string

	// AvailableModels returns list of supported models
	AvailableModels() []string

	// DefaultModel returns the default model
	DefaultModel() string

	// IsConfigured checks if provider has valid credentials
	IsConfigured() bool

	// Stream yields cumulative snapshots of the assistant reply. A failure
	// is yielded once as a non-nil error and ends the sequence.
	Stream(ctx context.Context, req Request) iter.Seq2[string, error]
}
