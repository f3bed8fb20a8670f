package agent

import loggerpkg "github.com/minhyannv/toolchat-go/pkg/logger"

// AgentOption configures optional runtime dependencies for AgentLoop.
type AgentOption func(*agentDeps)

type agentDeps struct {
	logger       loggerpkg.Logger
	observer     Observer
	systemPrompt string
	verbose      bool
	directReply  bool
}

// WithLogger injects a logger dependency.
func WithLogger(l loggerpkg.Logger) AgentOption {
	return func(d *agentDeps) {
		d.logger = l
	}
}

// WithVerbose enables debug logging of every state transition.
func WithVerbose(v bool) AgentOption {
	return func(d *agentDeps) {
		d.verbose = v
	}
}

// WithObserver receives progress events for presentation.
func WithObserver(o Observer) AgentOption {
	return func(d *agentDeps) {
		d.observer = o
	}
}

// WithSystemPrompt seeds the conversation with a system message.
func WithSystemPrompt(p string) AgentOption {
	return func(d *agentDeps) {
		d.systemPrompt = p
	}
}

// WithDirectReply emits a tool-free first reply as a single chunk instead of
// requesting it again as a stream.
func WithDirectReply(v bool) AgentOption {
	return func(d *agentDeps) {
		d.directReply = v
	}
}

// Observer is notified as a turn progresses. Calls happen on the goroutine
// running the turn.
type Observer interface {
	CompletionStarted()
	CompletionFinished()
	ToolStarted(call ToolCall)
	ToolFinished(call ToolCall)
}

// NopObserver ignores all events.
type NopObserver struct{}

func (NopObserver) CompletionStarted()    {}
func (NopObserver) CompletionFinished()   {}
func (NopObserver) ToolStarted(ToolCall)  {}
func (NopObserver) ToolFinished(ToolCall) {}
