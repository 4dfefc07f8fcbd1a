package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Rrens/alap/internal/domain"
	"github.com/Rrens/alap/internal/metrics"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

var validate = validator.New()

var errNotLoaded = errors.New("session store not loaded")

// SessionStore owns the session list and the active pointer, and mirrors
// the list into a KeyValueStore. All mutations are serialised; reads return
// copies.
type SessionStore struct {
	kv    domain.KeyValueStore
	key   string
	now   func() time.Time
	flush *rate.Sometimes

	mu       sync.RWMutex
	sessions []domain.ChatSession
	activeID string
	version  uint64
	loaded   bool

	saveMu       sync.Mutex
	savedVersion uint64
}

// NewSessionStore creates an empty store. Call Load before use; nothing is
// written to kv until Load has run.
// flushInterval throttles persistence of streaming content updates; zero
// persists every update.
func NewSessionStore(kv domain.KeyValueStore, key string, flushInterval time.Duration) *SessionStore {
	flush := &rate.Sometimes{Interval: flushInterval}
	if flushInterval <= 0 {
		flush = &rate.Sometimes{Every: 1}
	}
	return &SessionStore{
		kv:    kv,
		key:   key,
		now:   time.Now,
		flush: flush,
	}
}

// Load restores the session list. Missing, empty or unreadable data is
// replaced by a single fresh session; only storage transport errors are
// returned.
func (s *SessionStore) Load(ctx context.Context) error {
	sessions, err := s.read(ctx)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrKeyNotFound):
		sessions = nil
	case errors.Is(err, domain.ErrCorruptState):
		log.Warn().Err(err).Str("key", s.key).Msg("Discarding unreadable session data")
		metrics.CorruptStateRecovered()
		sessions = nil
	default:
		return fmt.Errorf("failed to load sessions: %w", err)
	}

	restored := len(sessions) > 0

	s.mu.Lock()
	if restored {
		s.sessions = sessions
	} else {
		s.sessions = []domain.ChatSession{domain.NewChatSession(s.now())}
	}
	s.activeID = s.sessions[0].ID
	s.version++
	s.loaded = true
	version := s.version
	n := len(s.sessions)
	s.mu.Unlock()

	metrics.SetSessions(n)
	log.Info().Int("sessions", n).Bool("restored", restored).Msg("Sessions loaded")

	if restored {
		s.saveMu.Lock()
		s.savedVersion = version
		s.saveMu.Unlock()
		return nil
	}
	return s.Save(ctx)
}

func (s *SessionStore) read(ctx context.Context) ([]domain.ChatSession, error) {
	raw, err := s.kv.Get(ctx, s.key)
	if err != nil {
		return nil, err
	}

	var sessions []domain.ChatSession
	if err := json.Unmarshal(raw, &sessions); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCorruptState, err)
	}

	seen := make(map[string]struct{}, len(sessions))
	for i := range sessions {
		if err := validate.Struct(&sessions[i]); err != nil {
			return nil, fmt.Errorf("%w: session %d: %v", domain.ErrCorruptState, i, err)
		}
		if _, dup := seen[sessions[i].ID]; dup {
			return nil, fmt.Errorf("%w: duplicate session id %s", domain.ErrCorruptState, sessions[i].ID)
		}
		seen[sessions[i].ID] = struct{}{}
		if sessions[i].Messages == nil {
			sessions[i].Messages = []domain.Message{}
		}
	}
	return sessions, nil
}

// Save writes the current list. Writes are serialised and each one takes
// the latest state, so an older list never overwrites a newer one. An
// empty list is never written, and neither is anything before Load.
func (s *SessionStore) Save(ctx context.Context) error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	s.mu.RLock()
	version := s.version
	if len(s.sessions) == 0 {
		s.mu.RUnlock()
		metrics.Persisted("skipped_empty")
		return nil
	}
	if !s.loaded {
		s.mu.RUnlock()
		return errNotLoaded
	}
	if version == s.savedVersion {
		s.mu.RUnlock()
		return nil
	}
	data, err := json.Marshal(s.sessions)
	s.mu.RUnlock()
	if err != nil {
		metrics.Persisted("error")
		return fmt.Errorf("failed to encode sessions: %w", err)
	}

	if err := s.kv.Set(ctx, s.key, data); err != nil {
		metrics.Persisted("error")
		return fmt.Errorf("failed to persist sessions: %w", err)
	}

	s.savedVersion = version
	metrics.Persisted("written")
	return nil
}

// persist saves after a mutation. Failures are logged; the in-memory state
// stays authoritative and the next save retries.
func (s *SessionStore) persist(ctx context.Context) {
	if err := s.Save(ctx); err != nil {
		log.Error().Err(err).Msg("Session persistence failed")
	}
}

// Sessions returns a copy of all sessions, most recent first
func (s *SessionStore) Sessions() []domain.ChatSession {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.ChatSession, len(s.sessions))
	for i, sess := range s.sessions {
		out[i] = sess.Clone()
	}
	return out
}

// Session returns a copy of one session
func (s *SessionStore) Session(id string) (domain.ChatSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexOf(id)
	if i < 0 {
		return domain.ChatSession{}, fmt.Errorf("%w: %s", domain.ErrSessionNotFound, id)
	}
	return s.sessions[i].Clone(), nil
}

// ActiveID returns the id of the active session
func (s *SessionStore) ActiveID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeID
}

// Active returns a copy of the active session
func (s *SessionStore) Active() (domain.ChatSession, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexOf(s.activeID)
	if i < 0 {
		return domain.ChatSession{}, false
	}
	return s.sessions[i].Clone(), true
}

// CreateSession puts a new empty session at the front and activates it
func (s *SessionStore) CreateSession(ctx context.Context) domain.ChatSession {
	s.mu.Lock()
	sess := domain.NewChatSession(s.now())
	s.sessions = append([]domain.ChatSession{sess}, s.sessions...)
	s.activeID = sess.ID
	s.version++
	n := len(s.sessions)
	s.mu.Unlock()

	metrics.SetSessions(n)
	s.persist(ctx)
	return sess.Clone()
}

// SelectSession makes id the active session
func (s *SessionStore) SelectSession(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexOf(id) < 0 {
		return fmt.Errorf("%w: %s", domain.ErrSessionNotFound, id)
	}
	s.activeID = id
	return nil
}

// DeleteSession removes id. Removing the last session leaves one fresh
// session; removing the active one activates the new first session.
func (s *SessionStore) DeleteSession(ctx context.Context, id string) error {
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", domain.ErrSessionNotFound, id)
	}

	remaining := make([]domain.ChatSession, 0, len(s.sessions))
	remaining = append(remaining, s.sessions[:i]...)
	remaining = append(remaining, s.sessions[i+1:]...)

	if len(remaining) == 0 {
		remaining = []domain.ChatSession{domain.NewChatSession(s.now())}
		s.activeID = remaining[0].ID
	} else if s.activeID == id {
		s.activeID = remaining[0].ID
	}
	s.sessions = remaining
	s.version++
	n := len(s.sessions)
	s.mu.Unlock()

	metrics.SetSessions(n)
	log.Info().Str("session_id", id).Msg("Session deleted")
	s.persist(ctx)
	return nil
}

// AppendMessage adds msg to the end of a session. The first user message
// also names the session.
func (s *SessionStore) AppendMessage(ctx context.Context, sessionID string, msg domain.Message) error {
	s.mu.Lock()
	i := s.indexOf(sessionID)
	if i < 0 {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", domain.ErrSessionNotFound, sessionID)
	}

	sess := &s.sessions[i]
	if len(sess.Messages) == 0 && msg.Role == domain.RoleUser {
		sess.Title = domain.TitleFromContent(msg.Content)
	}
	sess.Messages = append(sess.Messages, msg)
	s.version++
	s.mu.Unlock()

	s.persist(ctx)
	return nil
}

// UpdateMessageContent replaces the content of one message. Repeating a
// call with the same content changes nothing. Persistence of these updates
// is throttled; callers Save when the content is final.
func (s *SessionStore) UpdateMessageContent(ctx context.Context, sessionID, messageID, content string) error {
	s.mu.Lock()
	i := s.indexOf(sessionID)
	if i < 0 {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", domain.ErrSessionNotFound, sessionID)
	}

	msgs := s.sessions[i].Messages
	j := -1
	for k := len(msgs) - 1; k >= 0; k-- {
		if msgs[k].ID == messageID {
			j = k
			break
		}
	}
	if j < 0 {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", domain.ErrMessageNotFound, messageID)
	}
	if msgs[j].Content == content {
		s.mu.Unlock()
		return nil
	}
	msgs[j].Content = content
	s.version++
	s.mu.Unlock()

	s.flush.Do(func() { s.persist(ctx) })
	return nil
}

func (s *SessionStore) indexOf(id string) int {
	for i := range s.sessions {
		if s.sessions[i].ID == id {
			return i
		}
	}
	return -1
}
