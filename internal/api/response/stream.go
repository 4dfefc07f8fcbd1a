package response

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// EventStream writes server-sent events. Headers go out with the first
// event so a handler can still fall back to a JSON error before that.
type EventStream struct {
	w       http.ResponseWriter
	flusher http.Flusher
	started bool
}

// NewEventStream wraps w. ok is false when w cannot flush.
func NewEventStream(w http.ResponseWriter) (*EventStream, bool) {
	f, ok := w.(http.Flusher)
	return &EventStream{w: w, flusher: f}, ok
}

// Started reports whether any event has been written
func (s *EventStream) Started() bool {
	return s.started
}

// Send writes one event with a JSON payload
func (s *EventStream) Send(event string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to encode %s event: %w", event, err)
	}

	if !s.started {
		h := s.w.Header()
		h.Set("Content-Type", "text/event-stream")
		h.Set("Cache-Control", "no-cache")
		h.Set("Connection", "keep-alive")
		h.Set("X-Accel-Buffering", "no")
		s.w.WriteHeader(http.StatusOK)
		s.started = true
	}

	if _, err := fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", event, payload); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}
