package service

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"sync"
	"testing"
	"time"

	"github.com/Rrens/alap/internal/domain"
	"github.com/Rrens/alap/internal/llm"
	"github.com/Rrens/alap/internal/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var testPersona = domain.Persona{
	Name:                "alap",
	DisplayName:         "ALAP",
	SystemInstruction:   "You are ALAP.",
	Model:               "gemini-test",
	Temperature:         0.8,
	TopP:                0.95,
	TopK:                40,
	InterruptionMessage: "Protocol interruption: Please verify your connection and re-send.",
	QuotaMessage:        "Engine capacity reached.",
}

func newEngine(t *testing.T, providers Providers, flush time.Duration) (*ConversationService, *SessionStore, *memory.Store) {
	t.Helper()
	kv := memory.NewStore()
	store := NewSessionStore(kv, testKey, flush)
	require.NoError(t, store.Load(context.Background()))
	return NewConversationService(store, providers, testPersona, 0, llm.RuneCounter{}), store, kv
}

func failAfter(err error, snaps ...string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for _, s := range snaps {
			if !yield(s, nil) {
				return
			}
		}
		yield("", err)
	}
}

func collect(events *[]TurnEvent) Observer {
	return func(ev TurnEvent) { *events = append(*events, ev) }
}

func TestConversation_Send_Streams(t *testing.T) {
	ctx := context.Background()
	provider := newMockProvider(llm.Snapshots("Hel", "Hello", "Hello wor", "Hello world"))
	engine, store, kv := newEngine(t, staticProviders{p: provider}, time.Hour)
	sid := store.ActiveID()

	var events []TurnEvent
	result, err := engine.Send(ctx, sid, "  Say hello  ", collect(&events))
	require.NoError(t, err)

	assert.Equal(t, TurnFinalized, result.State)
	assert.Equal(t, domain.FailureNone, result.Failure)
	assert.Equal(t, 4, result.Snapshots)
	assert.Equal(t, "Say hello", result.UserMessage.Content)
	assert.Equal(t, "Hello world", result.AssistantMessage.Content)

	var states []TurnState
	var streamed []string
	for _, ev := range events {
		states = append(states, ev.State)
		if ev.State == TurnStreaming {
			streamed = append(streamed, ev.Content)
		}
	}
	assert.Equal(t, []TurnState{
		TurnUserAppended, TurnAssistantPending,
		TurnStreaming, TurnStreaming, TurnStreaming, TurnStreaming,
		TurnFinalized,
	}, states)
	assert.Equal(t, []string{"Hel", "Hello", "Hello wor", "Hello world"}, streamed)

	sess, err := store.Session(sid)
	require.NoError(t, err)
	require.Len(t, sess.Messages, 2)
	assert.Equal(t, domain.RoleUser, sess.Messages[0].Role)
	assert.Equal(t, "Say hello", sess.Messages[0].Content)
	assert.Equal(t, domain.RoleAssistant, sess.Messages[1].Role)
	assert.Equal(t, "Hello world", sess.Messages[1].Content)
	assert.Equal(t, "Say hello", sess.Title)

	stored := persisted(t, kv)
	require.Len(t, stored[0].Messages, 2)
	assert.Equal(t, "Hello world", stored[0].Messages[1].Content)

	assert.False(t, engine.InFlight(sid))
}

func TestConversation_Send_PersistsBeforeFirstSnapshot(t *testing.T) {
	ctx := context.Background()

	var kv *memory.Store
	var seen []domain.ChatSession
	seq := func(yield func(string, error) bool) {
		seen = persisted(t, kv)
		yield("Hi", nil)
	}
	engine, store, memKV := newEngine(t, staticProviders{p: newMockProvider(seq)}, time.Hour)
	kv = memKV
	sid := store.ActiveID()

	result, err := engine.Send(ctx, sid, "Hello", nil)
	require.NoError(t, err)
	assert.Equal(t, TurnFinalized, result.State)

	require.Len(t, seen, 1)
	require.Len(t, seen[0].Messages, 2)
	assert.Equal(t, domain.RoleUser, seen[0].Messages[0].Role)
	assert.Equal(t, "Hello", seen[0].Messages[0].Content)
	assert.Equal(t, domain.RoleAssistant, seen[0].Messages[1].Role)
	assert.Empty(t, seen[0].Messages[1].Content)
}

func TestConversation_Send_SendsHistoryWithoutPlaceholder(t *testing.T) {
	ctx := context.Background()
	provider := new(MockProvider)
	provider.On("Name").Return("mock")

	var requests []llm.Request
	provider.On("Stream", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { requests = append(requests, args.Get(1).(llm.Request)) }).
		Return(llm.Snapshots("ok"))

	engine, store, _ := newEngine(t, staticProviders{p: provider}, 0)
	sid := store.ActiveID()

	_, err := engine.Send(ctx, sid, "first", nil)
	require.NoError(t, err)
	_, err = engine.Send(ctx, sid, "second", nil)
	require.NoError(t, err)

	require.Len(t, requests, 2)
	last := requests[1]
	assert.Equal(t, testPersona, last.Persona)
	require.Len(t, last.History, 3)
	assert.Equal(t, "first", last.History[0].Content)
	assert.Equal(t, "ok", last.History[1].Content)
	assert.Equal(t, "second", last.History[2].Content)
	assert.Equal(t, domain.RoleUser, last.History[2].Role)
}

func TestConversation_Send_Rejections(t *testing.T) {
	ctx := context.Background()

	t.Run("blank input changes nothing", func(t *testing.T) {
		provider := newMockProvider(llm.Snapshots("x"))
		engine, store, _ := newEngine(t, staticProviders{p: provider}, 0)
		before := store.Sessions()

		for _, text := range []string{"", "   ", "\n\t "} {
			_, err := engine.Send(ctx, store.ActiveID(), text, nil)
			assert.ErrorIs(t, err, domain.ErrEmptyInput)
		}
		assert.Equal(t, before, store.Sessions())
		provider.AssertNotCalled(t, "Stream", mock.Anything, mock.Anything)
	})

	t.Run("unknown session", func(t *testing.T) {
		provider := newMockProvider(llm.Snapshots("x"))
		engine, _, _ := newEngine(t, staticProviders{p: provider}, 0)

		_, err := engine.Send(ctx, "ghost", "hi", nil)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})
}

func TestConversation_Send_OneTurnPerSession(t *testing.T) {
	ctx := context.Background()
	started := make(chan struct{}, 4)
	release := make(chan struct{})

	blocking := func(yield func(string, error) bool) {
		started <- struct{}{}
		<-release
		yield("done", nil)
	}
	provider := newMockProvider(blocking)
	engine, store, _ := newEngine(t, staticProviders{p: provider}, 0)
	a := store.ActiveID()
	b := store.CreateSession(ctx).ID

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		res, err := engine.Send(ctx, a, "first", nil)
		assert.NoError(t, err)
		assert.Equal(t, TurnFinalized, res.State)
	}()
	<-started

	assert.True(t, engine.InFlight(a))
	assert.False(t, engine.InFlight(b))

	_, err := engine.Send(ctx, a, "second", nil)
	assert.ErrorIs(t, err, domain.ErrTurnInProgress)

	sess, _ := store.Session(a)
	assert.Len(t, sess.Messages, 2)

	close(release)
	wg.Wait()

	assert.False(t, engine.InFlight(a))
	res, err := engine.Send(ctx, a, "third", nil)
	require.NoError(t, err)
	assert.Equal(t, TurnFinalized, res.State)

	sess, _ = store.Session(a)
	assert.Len(t, sess.Messages, 4)
}

func TestConversation_Send_Failures(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		seq     iter.Seq2[string, error]
		kind    domain.FailureKind
		content string
	}{
		{
			name:    "quota before any text",
			seq:     failAfter(errors.New("googleapi: Error 429: Resource has been exhausted")),
			kind:    domain.FailureQuota,
			content: testPersona.QuotaMessage,
		},
		{
			name:    "connection lost mid stream replaces partial text",
			seq:     failAfter(errors.New("connection reset by peer"), "Par", "Partial"),
			kind:    domain.FailureTransport,
			content: testPersona.InterruptionMessage,
		},
		{
			name:    "classified stream error keeps its kind",
			seq:     failAfter(&domain.StreamError{Kind: domain.FailureQuota, Err: errors.New("limit")}),
			kind:    domain.FailureQuota,
			content: testPersona.QuotaMessage,
		},
		{
			name:    "empty response",
			seq:     llm.Snapshots(),
			kind:    domain.FailureTransport,
			content: testPersona.InterruptionMessage,
		},
		{
			name:    "only empty snapshots",
			seq:     llm.Snapshots("", ""),
			kind:    domain.FailureTransport,
			content: testPersona.InterruptionMessage,
		},
		{
			name:    "provider panics",
			seq:     func(func(string, error) bool) { panic("boom") },
			kind:    domain.FailureTransport,
			content: testPersona.InterruptionMessage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := newMockProvider(tt.seq)
			engine, store, kv := newEngine(t, staticProviders{p: provider}, time.Hour)
			sid := store.ActiveID()

			var events []TurnEvent
			res, err := engine.Send(ctx, sid, "hello", collect(&events))
			require.NoError(t, err)

			assert.Equal(t, TurnFailed, res.State)
			assert.Equal(t, tt.kind, res.Failure)
			assert.Equal(t, tt.content, res.AssistantMessage.Content)

			last := events[len(events)-1]
			assert.Equal(t, TurnFailed, last.State)
			assert.Equal(t, tt.kind, last.Failure)

			sess, _ := store.Session(sid)
			require.Len(t, sess.Messages, 2)
			assert.Equal(t, tt.content, sess.Messages[1].Content)
			assert.Equal(t, tt.content, persisted(t, kv)[0].Messages[1].Content)
			assert.False(t, engine.InFlight(sid))
		})
	}
}

func TestConversation_Send_ProviderNotConfigured(t *testing.T) {
	providers := staticProviders{err: fmt.Errorf("%w: gemini", domain.ErrProviderNotReady)}
	engine, store, _ := newEngine(t, providers, 0)
	sid := store.ActiveID()

	res, err := engine.Send(context.Background(), sid, "hello", nil)
	require.NoError(t, err)
	assert.Equal(t, TurnFailed, res.State)
	assert.Equal(t, domain.FailureTransport, res.Failure)

	sess, _ := store.Session(sid)
	require.Len(t, sess.Messages, 2)
	assert.Equal(t, "hello", sess.Messages[0].Content)
	assert.Equal(t, testPersona.InterruptionMessage, sess.Messages[1].Content)
}

func TestConversation_Send_CallerCancels(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	provider := newMockProvider(llm.Snapshots("Hel", "Hello"))
	engine, store, kv := newEngine(t, staticProviders{p: provider}, 0)
	sid := store.ActiveID()

	res, err := engine.Send(ctx, sid, "hello", func(ev TurnEvent) {
		if ev.State == TurnStreaming {
			cancel()
		}
	})
	require.NoError(t, err)

	assert.Equal(t, TurnFailed, res.State)
	assert.Equal(t, domain.FailureTransport, res.Failure)
	assert.Equal(t, testPersona.InterruptionMessage, persisted(t, kv)[0].Messages[1].Content)
}

func TestConversation_Send_SessionDeletedMidStream(t *testing.T) {
	ctx := context.Background()
	var store *SessionStore
	var sid string

	seq := func(yield func(string, error) bool) {
		if !yield("Hel", nil) {
			return
		}
		require.NoError(t, store.DeleteSession(ctx, sid))
		yield("Hello", nil)
	}
	provider := newMockProvider(seq)
	engine, s, _ := newEngine(t, staticProviders{p: provider}, 0)
	store = s
	sid = store.ActiveID()

	res, err := engine.Send(ctx, sid, "hello", nil)
	require.NoError(t, err)
	assert.Equal(t, TurnFailed, res.State)

	_, err = store.Session(sid)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	require.Len(t, store.Sessions(), 1)
	assert.Empty(t, store.Sessions()[0].Messages)
	assert.False(t, engine.InFlight(sid))
}

func TestTurnState_String(t *testing.T) {
	assert.Equal(t, "streaming", TurnStreaming.String())
	assert.Equal(t, "TurnState(42)", TurnState(42).String())
	assert.True(t, TurnFailed.Terminal())
	assert.True(t, TurnFinalized.Terminal())
	assert.False(t, TurnStreaming.Terminal())
}
