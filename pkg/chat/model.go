package chat

import (
	"context"
	"errors"

	"github.com/openai/openai-go"
)

// ErrTransport marks failures talking to the model server. They are fatal for
// the session.
var ErrTransport = errors.New("model transport failure")

// Request is one completion request: the full transcript plus the tool catalog.
type Request struct {
	Messages []Message
	Tools    []openai.ChatCompletionToolParam
}

// Model is the chat-completion capability.
type Model interface {
	// Complete returns the whole assistant message, possibly with tool calls.
	Complete(ctx context.Context, req Request) (Message, error)
	// Stream returns the assistant reply as text deltas.
	Stream(ctx context.Context, req Request) (Stream, error)
}

// Stream is a finite, forward-only producer of text deltas consumed by one
// reader. Deltas already read are not retracted if Err later reports a failure.
type Stream interface {
	Next() bool
	Current() string
	Err() error
	Close() error
}
