package handler

import (
	"net/http"

	"github.com/Rrens/alap/internal/api/response"
	"github.com/Rrens/alap/internal/domain"
	"github.com/Rrens/alap/internal/markdown"
	"github.com/Rrens/alap/internal/service"
	"github.com/go-chi/chi/v5"
)

type SessionHandler struct {
	chatService *service.ChatService
}

func NewSessionHandler(chatService *service.ChatService) *SessionHandler {
	return &SessionHandler{chatService: chatService}
}

// RenderedMessage is a message with its markdown rendered to HTML
type RenderedMessage struct {
	domain.Message
	HTML string `json:"html"`
}

// RenderedSession is a session whose messages carry rendered HTML
type RenderedSession struct {
	ID        string            `json:"id"`
	Title     string            `json:"title"`
	Messages  []RenderedMessage `json:"messages"`
	CreatedAt int64             `json:"createdAt"`
}

// State returns the read model: sessions, active session, pending delete
// and whether a response is streaming
func (h *SessionHandler) State(w http.ResponseWriter, r *http.Request) {
	response.OK(w, h.chatService.View())
}

// Create creates a new session and makes it active
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	session := h.chatService.NewSession(r.Context())
	response.Created(w, session)
}

// Select makes a session active
func (h *SessionHandler) Select(w http.ResponseWriter, r *http.Request) {
	if err := h.chatService.SelectSession(chi.URLParam(r, "sessionID")); err != nil {
		writeError(w, err)
		return
	}
	response.OK(w, h.chatService.View())
}

// Get returns one session. With ?render=html every message also carries
// its rendered HTML.
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	session, err := h.chatService.Session(chi.URLParam(r, "sessionID"))
	if err != nil {
		writeError(w, err)
		return
	}

	if r.URL.Query().Get("render") != "html" {
		response.OK(w, session)
		return
	}

	out := RenderedSession{
		ID:        session.ID,
		Title:     session.Title,
		Messages:  make([]RenderedMessage, 0, len(session.Messages)),
		CreatedAt: session.CreatedAt,
	}
	for _, m := range session.Messages {
		out.Messages = append(out.Messages, RenderedMessage{
			Message: m,
			HTML:    markdown.HTML(markdown.Render(m.Content)),
		})
	}
	response.OK(w, out)
}

// RequestDelete marks a session for deletion pending confirmation
func (h *SessionHandler) RequestDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.chatService.RequestDelete(chi.URLParam(r, "sessionID")); err != nil {
		writeError(w, err)
		return
	}
	response.OK(w, h.chatService.View())
}

// ConfirmDelete deletes the session awaiting confirmation
func (h *SessionHandler) ConfirmDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.chatService.ConfirmDelete(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	response.OK(w, h.chatService.View())
}

// CancelDelete drops the pending deletion
func (h *SessionHandler) CancelDelete(w http.ResponseWriter, r *http.Request) {
	h.chatService.CancelDelete()
	response.OK(w, h.chatService.View())
}
