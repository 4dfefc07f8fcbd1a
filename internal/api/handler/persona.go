package handler

import (
	"net/http"

	"github.com/Rrens/alap/internal/api/response"
	"github.com/Rrens/alap/internal/service"
)

type PersonaHandler struct {
	chatService *service.ChatService
}

func NewPersonaHandler(chatService *service.ChatService) *PersonaHandler {
	return &PersonaHandler{chatService: chatService}
}

// Get returns the active persona and its suggested prompts
func (h *PersonaHandler) Get(w http.ResponseWriter, r *http.Request) {
	response.OK(w, h.chatService.Persona())
}
