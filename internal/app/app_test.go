package app

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/Rrens/alap/internal/config"
	"github.com/Rrens/alap/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLLMRouter(t *testing.T) {
	router := NewLLMRouter(config.LLMConfig{
		DefaultProvider: "scripted",
		Scripted:        config.ScriptedConfig{Enabled: true},
		OpenAI:          config.OpenAIConfig{APIKey: "sk-test"},
	})

	assert.Equal(t, []string{"openai", "scripted"}, router.ListProviders())
	assert.Len(t, router.GetProvidersInfo(), 6)

	_, err := router.GetProvider("gemini")
	assert.Error(t, err)
}

func TestNew(t *testing.T) {
	ctx := context.Background()
	cfg, err := config.LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	cfg.Storage.Backend = "file"
	cfg.Storage.File.Dir = t.TempDir()
	cfg.LLM.DefaultProvider = "scripted"
	cfg.LLM.Scripted = config.ScriptedConfig{Enabled: true, Reply: "Hello world"}

	a, err := New(ctx, cfg)
	require.NoError(t, err)

	res, err := a.Chat.Send(ctx, "hi", nil)
	require.NoError(t, err)
	assert.Equal(t, service.TurnFinalized, res.State)
	assert.Equal(t, "Hello world", res.AssistantMessage.Content)
	require.NoError(t, a.Close(ctx))

	reopened, err := New(ctx, cfg)
	require.NoError(t, err)
	defer reopened.Close(ctx)

	sessions := reopened.Store.Sessions()
	require.Len(t, sessions, 1)
	require.Len(t, sessions[0].Messages, 2)
	assert.Equal(t, "Hello world", sessions[0].Messages[1].Content)
	assert.Equal(t, "hi", sessions[0].Title)
}

func TestNew_InvalidPersona(t *testing.T) {
	cfg, err := config.LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	cfg.Persona = "nobody"

	_, err = New(context.Background(), cfg)
	assert.ErrorContains(t, err, "nobody")
}
