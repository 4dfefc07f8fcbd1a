package domain

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyInput       = errors.New("message text is empty")
	ErrTurnInProgress   = errors.New("a response is still streaming for this session")
	ErrSessionNotFound  = errors.New("session not found")
	ErrMessageNotFound  = errors.New("message not found")
	ErrNoPendingDelete  = errors.New("no delete is awaiting confirmation")
	ErrKeyNotFound      = errors.New("key not found")
	ErrCorruptState     = errors.New("stored session data is corrupt")
	ErrProviderNotReady = errors.New("llm provider not configured")
)

// FailureKind classifies why a streaming turn failed
type FailureKind string

const (
	FailureNone      FailureKind = ""
	FailureQuota     FailureKind = "quota_exceeded"
	FailureTransport FailureKind = "transport_failure"
)

// StreamError carries the classified kind of an upstream streaming failure
type StreamError struct {
	Kind FailureKind
	Err  error
}

func (e *StreamError) Error() string {
	return fmt.Sprintf("stream failed (%s): %v", e.Kind, e.Err)
}

func (e *StreamError) Unwrap() error {
	return e.Err
}
