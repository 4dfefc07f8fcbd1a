package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Rrens/alap/internal/config"
	"github.com/Rrens/alap/internal/domain"
	"github.com/Rrens/alap/internal/llm"
	"github.com/Rrens/alap/internal/llm/scripted"
	"github.com/Rrens/alap/internal/repository"
	"github.com/Rrens/alap/internal/repository/memory"
	"github.com/Rrens/alap/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const reply = "Hello **world**"

var persona = domain.Persona{
	Name:                "alap",
	DisplayName:         "ALAP",
	SystemInstruction:   "You are ALAP.",
	InterruptionMessage: "Protocol interruption: Please verify your connection and re-send.",
	QuotaMessage:        "Engine capacity reached.",
	SuggestedPrompts:    []string{"Draft a professional summary"},
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   any             `json:"error"`
}

func newTestServer(t *testing.T, rpm int) (http.Handler, *service.ChatService) {
	t.Helper()
	ctx := context.Background()

	kv := memory.NewStore()
	store := service.NewSessionStore(kv, "alap_v1_sessions", 0)
	require.NoError(t, store.Load(ctx))

	llmRouter := llm.NewRouter("scripted")
	llmRouter.RegisterProvider(scripted.NewProvider(config.ScriptedConfig{Enabled: true, Reply: reply}))

	engine := service.NewConversationService(store, llmRouter, persona, 0, llm.RuneCounter{})
	chat := service.NewChatService(store, engine, persona)

	cfg := &config.Config{
		Server:   config.ServerConfig{MiddlewareTimeout: 5 * time.Second},
		Metrics:  config.MetricsConfig{Enabled: true, Path: "/metrics"},
		Security: config.SecurityConfig{RateLimit: config.RateLimitConfig{RequestsPerMinute: rpm}},
	}
	return NewRouter(cfg, &repository.Storage{KV: kv}, llmRouter, chat), chat
}

func do(t *testing.T, h http.Handler, method, path string, body any, header ...string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func view(t *testing.T, env envelope) service.View {
	t.Helper()
	var v service.View
	require.NoError(t, json.Unmarshal(env.Data, &v))
	return v
}

func TestRouter_Sessions(t *testing.T) {
	h, chat := newTestServer(t, 0)

	rec, env := do(t, h, http.MethodGet, "/api/v1/state", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	v := view(t, env)
	require.Len(t, v.Sessions, 1)
	require.NotNil(t, v.ActiveSession)
	first := v.ActiveSession.ID

	rec, env = do(t, h, http.MethodPost, "/api/v1/sessions", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created domain.ChatSession
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, domain.DefaultSessionTitle, created.Title)

	_, env = do(t, h, http.MethodGet, "/api/v1/state", nil)
	v = view(t, env)
	assert.Len(t, v.Sessions, 2)
	assert.Equal(t, created.ID, v.ActiveSession.ID)

	rec, env = do(t, h, http.MethodPut, "/api/v1/sessions/"+first+"/active", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, first, view(t, env).ActiveSession.ID)

	rec, env = do(t, h, http.MethodPut, "/api/v1/sessions/ghost/active", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.False(t, env.Success)

	rec, _ = do(t, h, http.MethodGet, "/api/v1/sessions/ghost", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	assert.Equal(t, first, chat.View().ActiveSession.ID)
}

func TestRouter_SendJSON(t *testing.T) {
	h, chat := newTestServer(t, 0)

	rec, env := do(t, h, http.MethodPost, "/api/v1/messages", map[string]string{"text": "Say hi"})
	require.Equal(t, http.StatusOK, rec.Code)

	var turn struct {
		SessionID        string         `json:"sessionId"`
		State            string         `json:"state"`
		AssistantMessage domain.Message `json:"assistantMessage"`
		UserMessage      domain.Message `json:"userMessage"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &turn))
	assert.Equal(t, "finalized", turn.State)
	assert.Equal(t, reply, turn.AssistantMessage.Content)
	assert.Equal(t, "Say hi", turn.UserMessage.Content)

	active := chat.View().ActiveSession
	assert.Equal(t, "Say hi", active.Title)
	require.Len(t, active.Messages, 2)

	rec, env = do(t, h, http.MethodGet, "/api/v1/sessions/"+turn.SessionID+"?render=html", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var rendered struct {
		Messages []struct {
			Content string `json:"content"`
			HTML    string `json:"html"`
		} `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &rendered))
	require.Len(t, rendered.Messages, 2)
	assert.Contains(t, rendered.Messages[1].HTML, "<strong>world</strong>")

	rec, env = do(t, h, http.MethodPost, "/api/v1/messages", map[string]string{"text": "   "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, domain.ErrEmptyInput.Error(), env.Error)
	assert.Len(t, chat.View().ActiveSession.Messages, 2)
}

func TestRouter_SendOversizedBody(t *testing.T) {
	h, chat := newTestServer(t, 0)

	rec, _ := do(t, h, http.MethodPost, "/api/v1/messages", map[string]string{"text": strings.Repeat("a", 300<<10)})
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Empty(t, chat.View().ActiveSession.Messages)
}

func TestRouter_SendStream(t *testing.T) {
	h, _ := newTestServer(t, 0)

	rec, _ := do(t, h, http.MethodPost, "/api/v1/messages", map[string]string{"text": "Say hi"}, "Accept", "text/event-stream")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))

	body := rec.Body.String()
	pending := strings.Index(body, "event: pending")
	snapshot := strings.Index(body, "event: snapshot")
	done := strings.Index(body, "event: done")
	require.True(t, pending >= 0 && snapshot > pending && done > snapshot, body)

	var lastSnapshot string
	for _, frame := range strings.Split(body, "\n\n") {
		if !strings.HasPrefix(frame, "event: snapshot\n") {
			continue
		}
		var ev struct {
			Content string `json:"content"`
		}
		require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(frame, "event: snapshot\ndata: ")), &ev))
		assert.True(t, strings.HasPrefix(ev.Content, lastSnapshot))
		lastSnapshot = ev.Content
	}
	assert.Equal(t, reply, lastSnapshot)
	assert.Contains(t, body, `"state":"finalized"`)

	rec, env := do(t, h, http.MethodPost, "/api/v1/messages", map[string]string{"text": ""}, "Accept", "text/event-stream")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, env.Success)
}

func TestRouter_DeleteFlow(t *testing.T) {
	h, chat := newTestServer(t, 0)
	first := chat.View().ActiveSession.ID
	second := chat.NewSession(context.Background()).ID

	rec, env := do(t, h, http.MethodPost, "/api/v1/sessions/"+first+"/delete-request", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, first, view(t, env).PendingDeleteID)

	rec, env = do(t, h, http.MethodDelete, "/api/v1/delete-request", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, view(t, env).PendingDeleteID)
	assert.Len(t, view(t, env).Sessions, 2)

	rec, _ = do(t, h, http.MethodPost, "/api/v1/delete-request/confirm", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	do(t, h, http.MethodPost, "/api/v1/sessions/"+first+"/delete-request", nil)
	rec, env = do(t, h, http.MethodPost, "/api/v1/delete-request/confirm", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	v := view(t, env)
	require.Len(t, v.Sessions, 1)
	assert.Equal(t, second, v.Sessions[0].ID)
	assert.Empty(t, v.PendingDeleteID)

	rec, _ = do(t, h, http.MethodPost, "/api/v1/sessions/ghost/delete-request", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_PersonaAndProviders(t *testing.T) {
	h, _ := newTestServer(t, 0)

	rec, env := do(t, h, http.MethodGet, "/api/v1/persona", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var p map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &p))
	assert.Equal(t, "ALAP", p["display_name"])
	assert.NotContains(t, p, "system_instruction")
	assert.Equal(t, []any{"Draft a professional summary"}, p["suggested_prompts"])

	rec, _ = do(t, h, http.MethodGet, "/api/v1/providers", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = do(t, h, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_RateLimit(t *testing.T) {
	h, _ := newTestServer(t, 1)

	rec, _ := do(t, h, http.MethodPost, "/api/v1/messages", map[string]string{"text": "one"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))

	rec, env := do(t, h, http.MethodPost, "/api/v1/messages", map[string]string{"text": "two"})
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.False(t, env.Success)

	rec, _ = do(t, h, http.MethodGet, "/api/v1/state", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
