package handler

import (
	"net/http"
	"strings"

	"github.com/Rrens/alap/internal/api/response"
	"github.com/Rrens/alap/internal/service"
	"github.com/rs/zerolog/log"
)

type MessageHandler struct {
	chatService *service.ChatService
}

func NewMessageHandler(chatService *service.ChatService) *MessageHandler {
	return &MessageHandler{chatService: chatService}
}

// SendRequest is the body of POST /messages
type SendRequest struct {
	Text string `json:"text" validate:"max=32000"`
}

// TurnResponse is a finished turn as returned to clients
type TurnResponse struct {
	*service.TurnResult
	State string `json:"state"`
}

type snapshotEvent struct {
	SessionID string `json:"sessionId"`
	MessageID string `json:"messageId"`
	Content   string `json:"content"`
}

type pendingEvent struct {
	SessionID          string `json:"sessionId"`
	UserMessageID      string `json:"userMessageId"`
	AssistantMessageID string `json:"assistantMessageId"`
}

// Send runs a turn on the active session. Clients that accept
// text/event-stream receive a pending event, one snapshot event per
// content update and a final done event; others get the finished turn.
func (h *MessageHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req SendRequest
	if !decodeBody(w, r, maxSendBody, &req) {
		return
	}

	if err := validate.Struct(req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	if !strings.Contains(r.Header.Get("Accept"), "text/event-stream") {
		result, err := h.chatService.Send(r.Context(), req.Text, nil)
		if err != nil {
			writeError(w, err)
			return
		}
		response.OK(w, TurnResponse{TurnResult: result, State: result.State.String()})
		return
	}

	stream, ok := response.NewEventStream(w)
	if !ok {
		response.InternalError(w, "streaming unsupported")
		return
	}

	result, err := h.chatService.Send(r.Context(), req.Text, func(ev service.TurnEvent) {
		var sendErr error
		switch ev.State {
		case service.TurnAssistantPending:
			sendErr = stream.Send("pending", pendingEvent{
				SessionID:          ev.SessionID,
				UserMessageID:      ev.UserMessageID,
				AssistantMessageID: ev.AssistantMessageID,
			})
		case service.TurnStreaming:
			sendErr = stream.Send("snapshot", snapshotEvent{
				SessionID: ev.SessionID,
				MessageID: ev.AssistantMessageID,
				Content:   ev.Content,
			})
		}
		if sendErr != nil {
			log.Debug().Err(sendErr).Msg("Client stopped reading event stream")
		}
	})
	if err != nil {
		if stream.Started() {
			stream.Send("error", map[string]string{"error": err.Error()})
			return
		}
		writeError(w, err)
		return
	}

	if err := stream.Send("done", TurnResponse{TurnResult: result, State: result.State.String()}); err != nil {
		log.Debug().Err(err).Msg("Client stopped reading event stream")
	}
}
