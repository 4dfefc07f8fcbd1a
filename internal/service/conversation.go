package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Rrens/alap/internal/domain"
	"github.com/Rrens/alap/internal/llm"
	"github.com/Rrens/alap/internal/metrics"
	"github.com/rs/zerolog/log"
)

// TurnState is the position of one user turn in its lifecycle
type TurnState int

const (
	TurnIdle TurnState = iota
	TurnUserAppended
	TurnAssistantPending
	TurnStreaming
	TurnFinalized
	TurnFailed
)

func (s TurnState) String() string {
	switch s {
	case TurnIdle:
		return "idle"
	case TurnUserAppended:
		return "user_appended"
	case TurnAssistantPending:
		return "assistant_pending"
	case TurnStreaming:
		return "streaming"
	case TurnFinalized:
		return "finalized"
	case TurnFailed:
		return "failed"
	}
	return fmt.Sprintf("TurnState(%d)", int(s))
}

// Terminal reports whether the turn has ended
func (s TurnState) Terminal() bool {
	return s == TurnFinalized || s == TurnFailed
}

// TurnEvent is emitted on every transition and on every applied snapshot.
// Content is the assistant message content after the event.
type TurnEvent struct {
	State              TurnState
	SessionID          string
	UserMessageID      string
	AssistantMessageID string
	Content            string
	Failure            domain.FailureKind
}

// Observer receives turn events in order on the sending goroutine
type Observer func(TurnEvent)

// TurnResult describes a finished turn
type TurnResult struct {
	SessionID        string             `json:"sessionId"`
	UserMessage      domain.Message     `json:"userMessage"`
	AssistantMessage domain.Message     `json:"assistantMessage"`
	State            TurnState          `json:"-"`
	Failure          domain.FailureKind `json:"failure,omitempty"`
	Snapshots        int                `json:"snapshots"`
}

// Providers resolves the streaming source for a persona
type Providers interface {
	ForPersona(p domain.Persona) (llm.Provider, error)
}

// ConversationService runs user turns against a SessionStore
type ConversationService struct {
	store         *SessionStore
	providers     Providers
	persona       domain.Persona
	historyBudget int
	counter       llm.Counter

	mu       sync.Mutex
	inFlight map[string]struct{}
}

// NewConversationService creates the engine. historyBudget <= 0 sends the
// whole conversation.
func NewConversationService(store *SessionStore, providers Providers, persona domain.Persona, historyBudget int, counter llm.Counter) *ConversationService {
	return &ConversationService{
		store:         store,
		providers:     providers,
		persona:       persona,
		historyBudget: historyBudget,
		counter:       counter,
		inFlight:      make(map[string]struct{}),
	}
}

// InFlight reports whether sessionID has a turn that has not ended
func (s *ConversationService) InFlight(sessionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.inFlight[sessionID]
	return ok
}

func (s *ConversationService) acquire(sessionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inFlight[sessionID]; busy {
		return false
	}
	s.inFlight[sessionID] = struct{}{}
	return true
}

func (s *ConversationService) release(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, sessionID)
}

// Send runs one turn on sessionID. Blank text returns ErrEmptyInput and a
// session that is already streaming returns ErrTurnInProgress; neither
// changes any state. Once the turn has started, source failures end it in
// TurnFailed with fallback content instead of an error.
func (s *ConversationService) Send(ctx context.Context, sessionID, text string, observe Observer) (*TurnResult, error) {
	if observe == nil {
		observe = func(TurnEvent) {}
	}

	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		metrics.TurnRejected("empty_input")
		return nil, domain.ErrEmptyInput
	}
	if _, err := s.store.Session(sessionID); err != nil {
		metrics.TurnRejected("session_not_found")
		return nil, err
	}
	if !s.acquire(sessionID) {
		metrics.TurnRejected("turn_in_progress")
		return nil, domain.ErrTurnInProgress
	}
	defer s.release(sessionID)

	start := time.Now()
	logger := log.With().Str("session_id", sessionID).Logger()

	userMsg := domain.NewMessage(domain.RoleUser, trimmed)
	if err := s.store.AppendMessage(ctx, sessionID, userMsg); err != nil {
		return nil, err
	}
	ev := TurnEvent{State: TurnUserAppended, SessionID: sessionID, UserMessageID: userMsg.ID}
	observe(ev)

	placeholder := domain.NewMessage(domain.RoleAssistant, "")
	if err := s.store.AppendMessage(ctx, sessionID, placeholder); err != nil {
		return nil, err
	}
	ev.State = TurnAssistantPending
	ev.AssistantMessageID = placeholder.ID
	observe(ev)

	result := &TurnResult{SessionID: sessionID, UserMessage: userMsg}
	providerName := "unknown"

	failure := func() error {
		provider, err := s.providers.ForPersona(s.persona)
		if err != nil {
			return err
		}
		providerName = provider.Name()

		sess, err := s.store.Session(sessionID)
		if err != nil {
			return err
		}
		req := llm.Request{
			History: llm.BuildHistory(sess.Messages, s.historyBudget, s.counter),
			Persona: s.persona,
		}
		return s.stream(ctx, provider, req, &ev, result, observe)
	}()

	// The turn must end even if the caller has gone away.
	finishCtx := context.WithoutCancel(ctx)

	if failure == nil && result.Snapshots == 0 {
		failure = errors.New("empty response from provider")
	}

	if failure != nil {
		kind := llm.Classify(failure)
		result.Failure = kind
		result.State = TurnFailed
		ev.State = TurnFailed
		ev.Failure = kind

		logger.Warn().Err(failure).Str("kind", string(kind)).Str("provider", providerName).Msg("Turn failed")

		if !errors.Is(failure, domain.ErrSessionNotFound) {
			ev.Content = s.persona.FallbackText(kind)
			if err := s.store.UpdateMessageContent(finishCtx, sessionID, placeholder.ID, ev.Content); err != nil {
				logger.Error().Err(err).Msg("Failed to write fallback content")
			}
		}
	} else {
		result.State = TurnFinalized
		ev.State = TurnFinalized
	}

	if err := s.store.Save(finishCtx); err != nil {
		logger.Error().Err(err).Msg("Failed to persist finished turn")
	}

	placeholder.Content = ev.Content
	result.AssistantMessage = placeholder
	observe(ev)

	metrics.ObserveTurn(providerName, outcomeLabel(result), time.Since(start))
	logger.Info().
		Str("state", result.State.String()).
		Int("snapshots", result.Snapshots).
		Dur("elapsed", time.Since(start)).
		Msg("Turn finished")

	return result, nil
}

// stream applies snapshots in arrival order. A panic inside the provider is
// reported as a failure so the turn still ends.
func (s *ConversationService) stream(ctx context.Context, provider llm.Provider, req llm.Request, ev *TurnEvent, result *TurnResult, observe Observer) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("provider %s panicked: %v", provider.Name(), r)
		}
	}()

	for snapshot, serr := range provider.Stream(ctx, req) {
		if serr != nil {
			return serr
		}
		if snapshot == "" {
			continue
		}
		if err := s.store.UpdateMessageContent(ctx, ev.SessionID, ev.AssistantMessageID, snapshot); err != nil {
			return err
		}
		result.Snapshots++
		metrics.SnapshotApplied(provider.Name())

		ev.State = TurnStreaming
		ev.Content = snapshot
		observe(*ev)
	}

	return ctx.Err()
}

func outcomeLabel(r *TurnResult) string {
	switch {
	case r.State == TurnFinalized:
		return "finalized"
	case r.Failure == domain.FailureQuota:
		return "failed_quota"
	default:
		return "failed_transport"
	}
}
