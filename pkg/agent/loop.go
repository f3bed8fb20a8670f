// Package agent runs the tool-calling conversation loop.
package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/minhyannv/toolchat-go/pkg/chat"
	loggerpkg "github.com/minhyannv/toolchat-go/pkg/logger"
	"github.com/minhyannv/toolchat-go/pkg/tools"
)

// UnknownToolMessage is the error content returned for tools missing from the catalog.
const UnknownToolMessage = "Unknown tool call."

// ToolCall pairs a requested call with its catalog entry and, once finished,
// its result. Descriptor is nil for unknown tools.
type ToolCall struct {
	Call       chat.ToolCall
	Descriptor *tools.Descriptor
	Result     tools.Result
}

// Turn summarizes one user interaction.
type Turn struct {
	ToolCalls []ToolCall
	Reply     string
}

// AgentLoop holds the conversation and drives one round of model and tool
// calls per user input. It is single-threaded: Run must not be called
// concurrently.
type AgentLoop struct {
	model        chat.Model
	catalog      *tools.Catalog
	conversation *chat.Conversation

	observer    Observer
	logger      loggerpkg.Logger
	verbose     bool
	directReply bool
}

// New builds an AgentLoop over a model and a tool catalog.
func New(model chat.Model, catalog *tools.Catalog, opts ...AgentOption) (*AgentLoop, error) {
	if model == nil {
		return nil, errors.New("model is required")
	}
	if catalog == nil {
		return nil, errors.New("tool catalog is required")
	}
	deps := agentDeps{logger: loggerpkg.NopLogger{}, observer: NopObserver{}}
	for _, opt := range opts {
		if opt != nil {
			opt(&deps)
		}
	}
	if deps.logger == nil {
		deps.logger = loggerpkg.NopLogger{}
	}
	if deps.observer == nil {
		deps.observer = NopObserver{}
	}

	loggerpkg.Debug(deps.verbose, deps.logger, "agent_loop init", map[string]any{
		"tools":        catalog.Names(),
		"direct_reply": deps.directReply,
	})
	return &AgentLoop{
		model:        model,
		catalog:      catalog,
		conversation: chat.NewConversation(deps.systemPrompt),
		observer:     deps.observer,
		logger:       deps.logger,
		verbose:      deps.verbose,
		directReply:  deps.directReply,
	}, nil
}

// Transcript returns a copy of the conversation so far.
func (a *AgentLoop) Transcript() []chat.Message {
	return a.conversation.Messages()
}

// Run processes one user input: it asks the model for a completion, executes
// any requested tools in order, then streams the model's reply through
// onDelta. Errors wrapping chat.ErrTransport are fatal for the session; partial
// output already passed to onDelta is not retracted.
func (a *AgentLoop) Run(ctx context.Context, userInput string, onDelta func(string)) (Turn, error) {
	userInput = strings.TrimSpace(userInput)
	if userInput == "" {
		return Turn{}, errors.New("user input is required")
	}
	if onDelta == nil {
		onDelta = func(string) {}
	}

	previousLen := a.conversation.Len()
	if err := a.conversation.Append(chat.UserMessage(userInput)); err != nil {
		return Turn{}, err
	}

	a.debugf("[verbose] turn: requesting completion messages=%d", a.conversation.Len())
	a.observer.CompletionStarted()
	message, err := a.model.Complete(ctx, a.request())
	a.observer.CompletionFinished()
	if err != nil {
		a.conversation.Truncate(previousLen)
		return Turn{}, fmt.Errorf("request completion: %w", err)
	}

	var turn Turn
	switch {
	case len(message.ToolCalls) > 0:
		// The model expects to see its own request before the results.
		if err := a.conversation.Append(chat.ToolCallsMessage(message.ToolCalls)); err != nil {
			a.conversation.Truncate(previousLen)
			return Turn{}, fmt.Errorf("record tool calls: %w", err)
		}
		a.debugf("[verbose] turn: assistant requested %d tool call(s)", len(message.ToolCalls))
		turn.ToolCalls = a.executeToolCalls(ctx, message.ToolCalls)
	case a.directReply:
		a.debugf("[verbose] turn: no tool calls, replying directly")
		onDelta(message.Content)
		turn.Reply = message.Content
		return turn, a.conversation.Append(chat.AssistantMessage(message.Content))
	}

	reply, err := a.streamReply(ctx, onDelta)
	if err != nil {
		if len(turn.ToolCalls) == 0 {
			a.conversation.Truncate(previousLen)
		}
		return turn, fmt.Errorf("stream reply: %w", err)
	}
	turn.Reply = reply
	return turn, a.conversation.Append(chat.AssistantMessage(reply))
}

// executeToolCalls runs calls sequentially in the order received and appends
// one tool message per call.
func (a *AgentLoop) executeToolCalls(ctx context.Context, calls []chat.ToolCall) []ToolCall {
	executed := make([]ToolCall, 0, len(calls))
	for i, call := range calls {
		a.debugf("[verbose] turn: executing tool call %d/%d: %s(id=%s) arguments=%s", i+1, len(calls), call.Name, call.ID, call.Arguments)

		tc := ToolCall{Call: call}
		desc, ok := a.catalog.Lookup(call.Name)
		if ok {
			tc.Descriptor = desc
		}
		a.observer.ToolStarted(tc)
		if ok {
			tc.Result = desc.Invoke(ctx, json.RawMessage(call.Arguments))
		} else {
			tc.Result = tools.Failure(UnknownToolMessage)
		}

		content := tc.Result.Content()
		if !tc.Result.OK() {
			a.logger.Warn("tool call did not succeed", map[string]any{
				"tool":    call.Name,
				"id":      call.ID,
				"status":  tc.Result.Status,
				"message": tc.Result.Message,
			})
		}
		a.debugf("[verbose] turn: tool call %d result: %s", i+1, preview(content, 200))
		if err := a.conversation.Append(chat.ToolMessage(content, call.ID)); err != nil {
			// Only reachable with duplicate ids, which the conversation already rejected.
			a.logger.Error("append tool result", map[string]any{"id": call.ID, "error": err.Error()})
		}
		a.observer.ToolFinished(tc)
		executed = append(executed, tc)
	}
	return executed
}

func (a *AgentLoop) streamReply(ctx context.Context, onDelta func(string)) (string, error) {
	a.debugf("[verbose] turn: requesting streamed reply messages=%d", a.conversation.Len())
	stream, err := a.model.Stream(ctx, a.request())
	if err != nil {
		return "", err
	}
	defer stream.Close()

	var sb strings.Builder
	chunks := 0
	for stream.Next() {
		delta := stream.Current()
		chunks++
		sb.WriteString(delta)
		onDelta(delta)
	}
	if err := stream.Err(); err != nil {
		return sb.String(), err
	}
	a.debugf("[verbose] turn: stream completed chunks=%d bytes=%d", chunks, sb.Len())
	return sb.String(), nil
}

func (a *AgentLoop) request() chat.Request {
	return chat.Request{
		Messages: a.conversation.Messages(),
		Tools:    a.catalog.WireFormat(),
	}
}

func (a *AgentLoop) debugf(format string, args ...any) {
	loggerpkg.Debugf(a.verbose, a.logger, format, args...)
}

func preview(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return fmt.Sprintf("%s... (%d bytes total)", s[:n], len(s))
}
