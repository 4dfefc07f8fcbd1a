package app

import (
	"context"
	"fmt"

	"github.com/Rrens/alap/internal/config"
	"github.com/Rrens/alap/internal/llm"
	"github.com/Rrens/alap/internal/llm/anthropic"
	"github.com/Rrens/alap/internal/llm/deepseek"
	"github.com/Rrens/alap/internal/llm/gemini"
	"github.com/Rrens/alap/internal/llm/ollama"
	"github.com/Rrens/alap/internal/llm/openai"
	"github.com/Rrens/alap/internal/llm/scripted"
	"github.com/Rrens/alap/internal/repository"
	"github.com/Rrens/alap/internal/service"
	"github.com/rs/zerolog/log"
)

// App holds the wired services shared by the server and the terminal client
type App struct {
	Config  *config.Config
	Storage *repository.Storage
	LLM     *llm.Router
	Store   *service.SessionStore
	Engine  *service.ConversationService
	Chat    *service.ChatService
}

// New opens storage, restores sessions and wires the chat services
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	persona, err := cfg.ActivePersona()
	if err != nil {
		return nil, err
	}

	storage, err := repository.Open(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}

	store := service.NewSessionStore(storage.KV, cfg.Storage.Key, cfg.Storage.FlushInterval)
	if err := store.Load(ctx); err != nil {
		storage.Close()
		return nil, fmt.Errorf("failed to restore sessions: %w", err)
	}

	var counter llm.Counter = llm.RuneCounter{}
	if cfg.LLM.HistoryTokenBudget > 0 {
		counter = llm.DefaultCounter()
	}

	llmRouter := NewLLMRouter(cfg.LLM)
	engine := service.NewConversationService(store, llmRouter, persona, cfg.LLM.HistoryTokenBudget, counter)

	log.Info().
		Str("persona", persona.Name).
		Str("provider", llmRouter.DefaultProvider()).
		Strs("configured", llmRouter.ListProviders()).
		Msg("Chat services ready")

	return &App{
		Config:  cfg,
		Storage: storage,
		LLM:     llmRouter,
		Store:   store,
		Engine:  engine,
		Chat:    service.NewChatService(store, engine, persona),
	}, nil
}

// Close flushes pending session state and releases storage
func (a *App) Close(ctx context.Context) error {
	if err := a.Store.Save(ctx); err != nil {
		log.Error().Err(err).Msg("Failed to flush sessions on shutdown")
	}
	return a.Storage.Close()
}

// NewLLMRouter registers every provider. Providers without credentials stay
// registered but unconfigured, so they are listed and refuse to stream.
func NewLLMRouter(cfg config.LLMConfig) *llm.Router {
	router := llm.NewRouter(cfg.DefaultProvider)

	log.Info().Msgf("Initializing LLM providers. Default: %s", cfg.DefaultProvider)

	router.RegisterProvider(gemini.NewProvider(cfg.Gemini))
	router.RegisterProvider(openai.NewProvider(cfg.OpenAI))
	router.RegisterProvider(anthropic.NewProvider(cfg.Anthropic))
	router.RegisterProvider(deepseek.NewProvider(cfg.DeepSeek))
	router.RegisterProvider(ollama.NewProvider(cfg.Ollama))
	router.RegisterProvider(scripted.NewProvider(cfg.Scripted))

	if cfg.Gemini.APIKey == "" && cfg.DefaultProvider == "gemini" {
		log.Warn().Msg("Gemini API Key is empty, turns will fail until one is set")
	}
	return router
}
