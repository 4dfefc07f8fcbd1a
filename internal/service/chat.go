package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/Rrens/alap/internal/domain"
	"github.com/rs/zerolog/log"
)

// View is the read model a presentation layer renders from
type View struct {
	Sessions        []domain.ChatSession `json:"sessions"`
	ActiveSession   *domain.ChatSession  `json:"activeSession"`
	PendingDeleteID string               `json:"pendingDeleteId,omitempty"`
	IsSending       bool                 `json:"isSending"`
}

// ChatService is the operation surface shared by the HTTP API and the
// terminal client. It adds the delete confirmation step on top of the
// store and sends on the active session.
type ChatService struct {
	store   *SessionStore
	engine  *ConversationService
	persona domain.Persona

	mu              sync.Mutex
	pendingDeleteID string
}

// NewChatService creates a new chat service
func NewChatService(store *SessionStore, engine *ConversationService, persona domain.Persona) *ChatService {
	return &ChatService{
		store:   store,
		engine:  engine,
		persona: persona,
	}
}

// Persona returns the active persona profile
func (s *ChatService) Persona() domain.Persona {
	return s.persona
}

// NewSession creates an empty session and makes it active
func (s *ChatService) NewSession(ctx context.Context) domain.ChatSession {
	sess := s.store.CreateSession(ctx)
	log.Info().Str("session_id", sess.ID).Msg("Session created")
	return sess
}

// SelectSession switches the active session
func (s *ChatService) SelectSession(id string) error {
	return s.store.SelectSession(id)
}

// Session returns one session by id
func (s *ChatService) Session(id string) (domain.ChatSession, error) {
	return s.store.Session(id)
}

// RequestDelete marks id for deletion pending confirmation. A newer request
// replaces an older one.
func (s *ChatService) RequestDelete(id string) error {
	if _, err := s.store.Session(id); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.pendingDeleteID = id
	return nil
}

// ConfirmDelete deletes the pending session. The pending mark is cleared
// whatever the outcome.
func (s *ChatService) ConfirmDelete(ctx context.Context) error {
	s.mu.Lock()
	id := s.pendingDeleteID
	s.pendingDeleteID = ""
	s.mu.Unlock()

	if id == "" {
		return domain.ErrNoPendingDelete
	}
	if err := s.store.DeleteSession(ctx, id); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// CancelDelete drops the pending delete, if any
func (s *ChatService) CancelDelete() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pendingDeleteID = ""
}

// PendingDeleteID returns the session awaiting delete confirmation
func (s *ChatService) PendingDeleteID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pendingDeleteID
}

// Send runs a turn on the active session
func (s *ChatService) Send(ctx context.Context, text string, observe Observer) (*TurnResult, error) {
	return s.engine.Send(ctx, s.store.ActiveID(), text, observe)
}

// IsSending reports whether the active session has a turn in flight
func (s *ChatService) IsSending() bool {
	return s.engine.InFlight(s.store.ActiveID())
}

// View returns the current read model
func (s *ChatService) View() View {
	v := View{
		Sessions:        s.store.Sessions(),
		PendingDeleteID: s.PendingDeleteID(),
		IsSending:       s.IsSending(),
	}
	if active, ok := s.store.Active(); ok {
		v.ActiveSession = &active
	}
	return v
}
