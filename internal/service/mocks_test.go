package service

import (
	"context"
	"iter"

	"github.com/Rrens/alap/internal/domain"
	"github.com/Rrens/alap/internal/llm"
	"github.com/stretchr/testify/mock"
)

// MockKeyValueStore mocks the KeyValueStore interface
type MockKeyValueStore struct {
	mock.Mock
}

func (m *MockKeyValueStore) Get(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockKeyValueStore) Set(ctx context.Context, key string, value []byte) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

func (m *MockKeyValueStore) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockKeyValueStore) Close() error {
	return m.Called().Error(0)
}

// MockProvider mocks llm.Provider
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

func (m *MockProvider) Stream(ctx context.Context, req llm.Request) iter.Seq2[string, error] {
	return m.Called(ctx, req).Get(0).(iter.Seq2[string, error])
}

func newMockProvider(seq iter.Seq2[string, error]) *MockProvider {
	p := new(MockProvider)
	p.On("Name").Return("mock")
	p.On("Stream", mock.Anything, mock.Anything).Return(seq)
	return p
}

// staticProviders always resolves to the same provider
type staticProviders struct {
	p   llm.Provider
	err error
}

func (s staticProviders) ForPersona(domain.Persona) (llm.Provider, error) {
	return s.p, s.err
}
