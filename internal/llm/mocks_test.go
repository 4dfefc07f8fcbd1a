package llm

import (
	"context"
	"iter"

	"github.com/stretchr/testify/mock"
	"github.com/tmc/langchaingo/llms"
)

// MockProvider is a mock implementation of Provider
type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) Name() string {
	return m.Called().String(0)
}

func (m *MockProvider) AvailableModels() []string {
	return m.Called().Get(0).([]string)
}

func (m *MockProvider) DefaultModel() string {
	return m.Called().String(0)
}

func (m *MockProvider) IsConfigured() bool {
	return m.Called().Bool(0)
}

func (m *MockProvider) Stream(ctx context.Context, req Request) iter.Seq2[string, error] {
	return m.Called(ctx, req).Get(0).(iter.Seq2[string, error])
}

// streamingModel is a langchaingo model that feeds fixed chunks to the
// streaming func, then returns err.
type streamingModel struct {
	chunks   []string
	err      error
	messages []llms.MessageContent
	opts     llms.CallOptions
}

func (s *streamingModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	s.messages = messages
	for _, o := range options {
		o(&s.opts)
	}
	for _, c := range s.chunks {
		if s.opts.StreamingFunc != nil {
			if err := s.opts.StreamingFunc(ctx, []byte(c)); err != nil {
				return nil, err
			}
		}
	}
	if s.err != nil {
		return nil, s.err
	}
	return &llms.ContentResponse{}, nil
}

func (s *streamingModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, s, prompt, options...)
}
