package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minhyannv/toolchat-go/pkg/chat"
	"github.com/minhyannv/toolchat-go/pkg/toolkits/shell"
	"github.com/minhyannv/toolchat-go/pkg/tools"
)

// scriptedModel replays canned completions and streams and records every request.
type scriptedModel struct {
	completions []chat.Message
	completeErr error
	streams     [][]string
	streamErr   error
	midStream   error

	completeRequests []chat.Request
	streamRequests   []chat.Request
}

func (m *scriptedModel) Complete(_ context.Context, req chat.Request) (chat.Message, error) {
	m.completeRequests = append(m.completeRequests, req)
	if m.completeErr != nil {
		return chat.Message{}, m.completeErr
	}
	if len(m.completions) == 0 {
		return chat.Message{}, errors.New("no scripted completion")
	}
	next := m.completions[0]
	m.completions = m.completions[1:]
	return next, nil
}

func (m *scriptedModel) Stream(_ context.Context, req chat.Request) (chat.Stream, error) {
	m.streamRequests = append(m.streamRequests, req)
	if m.streamErr != nil {
		return nil, m.streamErr
	}
	var deltas []string
	if len(m.streams) > 0 {
		deltas = m.streams[0]
		m.streams = m.streams[1:]
	}
	return &sliceStream{deltas: deltas, err: m.midStream}, nil
}

type sliceStream struct {
	deltas []string
	cur    string
	err    error
	closed bool
}

func (s *sliceStream) Next() bool {
	if len(s.deltas) == 0 {
		return false
	}
	s.cur, s.deltas = s.deltas[0], s.deltas[1:]
	return true
}

func (s *sliceStream) Current() string { return s.cur }
func (s *sliceStream) Err() error      { return s.err }
func (s *sliceStream) Close() error    { s.closed = true; return nil }

type recordingObserver struct {
	events []string
}

func (o *recordingObserver) CompletionStarted()  { o.events = append(o.events, "completion_started") }
func (o *recordingObserver) CompletionFinished() { o.events = append(o.events, "completion_finished") }
func (o *recordingObserver) ToolStarted(tc ToolCall) {
	o.events = append(o.events, "start:"+tc.Call.Name)
}
func (o *recordingObserver) ToolFinished(tc ToolCall) {
	o.events = append(o.events, fmt.Sprintf("finish:%s:%s", tc.Call.Name, tc.Result.Status))
}

func echoTool(name string, calls *[]string) tools.Descriptor {
	return tools.Descriptor{
		Name:        name,
		Description: "Echo the call order.",
		Parameters: map[string]any{
			"type":       "object",
			"properties": map[string]any{"n": map[string]any{"type": "integer"}},
		},
		Handler: func(_ context.Context, args json.RawMessage) (any, error) {
			*calls = append(*calls, name+":"+string(args))
			return map[string]string{"tool": name}, nil
		},
	}
}

func newLoop(t *testing.T, model chat.Model, descs []tools.Descriptor, opts ...AgentOption) *AgentLoop {
	t.Helper()
	catalog, err := tools.BuildStatic(descs)
	require.NoError(t, err)
	loop, err := New(model, catalog, opts...)
	require.NoError(t, err)
	return loop
}

func collect(parts *[]string) func(string) {
	return func(s string) { *parts = append(*parts, s) }
}

func TestRunWithoutToolCallsStreamsReply(t *testing.T) {
	model := &scriptedModel{
		completions: []chat.Message{chat.AssistantMessage("Hello there")},
		streams:     [][]string{{"Hello", " there"}},
	}
	loop := newLoop(t, model, nil, WithSystemPrompt("be nice"))

	var deltas []string
	turn, err := loop.Run(context.Background(), "Hello", collect(&deltas))
	require.NoError(t, err)

	assert.Equal(t, []string{"Hello", " there"}, deltas)
	assert.Equal(t, "Hello there", turn.Reply)
	assert.Empty(t, turn.ToolCalls)

	transcript := loop.Transcript()
	require.Len(t, transcript, 3)
	assert.Equal(t, chat.RoleSystem, transcript[0].Role)
	assert.Equal(t, chat.UserMessage("Hello"), transcript[1])
	assert.Equal(t, chat.AssistantMessage("Hello there"), transcript[2])

	// The streamed request sees the same transcript as the first one.
	require.Len(t, model.streamRequests, 1)
	assert.Equal(t, model.completeRequests[0].Messages, model.streamRequests[0].Messages)
}

func TestRunDirectReplyEmitsSingleChunk(t *testing.T) {
	model := &scriptedModel{completions: []chat.Message{chat.AssistantMessage("Hi!")}}
	loop := newLoop(t, model, nil, WithDirectReply(true))

	var deltas []string
	turn, err := loop.Run(context.Background(), "Hello", collect(&deltas))
	require.NoError(t, err)
	assert.Equal(t, []string{"Hi!"}, deltas)
	assert.Equal(t, "Hi!", turn.Reply)
	assert.Empty(t, model.streamRequests)
	assert.Len(t, loop.Transcript(), 2)
}

func TestRunShellCommandConfirmed(t *testing.T) {
	confirmed := 0
	sh := shell.New(tools.ConfirmFunc(func(_ context.Context, c tools.Confirmation) (bool, error) {
		confirmed++
		assert.Equal(t, "echo hi", c.Action)
		return true, nil
	}))
	model := &scriptedModel{
		completions: []chat.Message{chat.ToolCallsMessage([]chat.ToolCall{
			{ID: "c1", Name: shell.ToolName, Arguments: `{"command":"echo hi"}`},
		})},
		streams: [][]string{{"It printed ", "hi."}},
	}
	loop := newLoop(t, model, []tools.Descriptor{sh.Descriptor()})

	turn, err := loop.Run(context.Background(), "run echo hi", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, confirmed)
	require.Len(t, turn.ToolCalls, 1)
	assert.True(t, turn.ToolCalls[0].Result.OK())

	transcript := loop.Transcript()
	require.Len(t, transcript, 4)
	assert.Equal(t, chat.RoleAssistant, transcript[1].Role)
	assert.Equal(t, "c1", transcript[1].ToolCalls[0].ID)
	assert.Equal(t, chat.RoleTool, transcript[2].Role)
	assert.Equal(t, "c1", transcript[2].ToolCallID)
	assert.JSONEq(t, `{"status":"success","stdout":"hi\n","stderr":"","returncode":0}`, transcript[2].Content)
	assert.Equal(t, chat.AssistantMessage("It printed hi."), transcript[3])

	// The catalog is offered on both requests.
	assert.Len(t, model.completeRequests[0].Tools, 1)
	assert.Len(t, model.streamRequests[0].Tools, 1)
	assert.Len(t, model.streamRequests[0].Messages, 3)
}

func TestRunShellCommandDeclined(t *testing.T) {
	sh := shell.New(tools.DenyAll{})
	model := &scriptedModel{
		completions: []chat.Message{chat.ToolCallsMessage([]chat.ToolCall{
			{ID: "c1", Name: shell.ToolName, Arguments: `{"command":"touch /tmp/never"}`},
		})},
		streams: [][]string{{"Okay, I did not run it."}},
	}
	loop := newLoop(t, model, []tools.Descriptor{sh.Descriptor()})

	turn, err := loop.Run(context.Background(), "touch a file", nil)
	require.NoError(t, err)
	require.Len(t, turn.ToolCalls, 1)
	assert.Equal(t, tools.StatusAborted, turn.ToolCalls[0].Result.Status)
	assert.JSONEq(t, `{"status":"aborted","message":"Command execution aborted by user."}`, loop.Transcript()[2].Content)
	assert.Equal(t, "Okay, I did not run it.", turn.Reply)
}

func TestRunUnknownTool(t *testing.T) {
	model := &scriptedModel{
		completions: []chat.Message{chat.ToolCallsMessage([]chat.ToolCall{
			{ID: "c1", Name: "launch_rockets", Arguments: `{}`},
		})},
		streams: [][]string{{"I cannot do that."}},
	}
	observer := &recordingObserver{}
	loop := newLoop(t, model, nil, WithObserver(observer))

	turn, err := loop.Run(context.Background(), "launch", nil)
	require.NoError(t, err)
	require.Len(t, turn.ToolCalls, 1)
	assert.Nil(t, turn.ToolCalls[0].Descriptor)
	assert.JSONEq(t, `{"status":"error","message":"Unknown tool call."}`, loop.Transcript()[2].Content)
	assert.Equal(t, []string{
		"completion_started", "completion_finished",
		"start:launch_rockets", "finish:launch_rockets:error",
	}, observer.events)
}

func TestRunExecutesToolCallsInOrder(t *testing.T) {
	var calls []string
	model := &scriptedModel{
		completions: []chat.Message{chat.ToolCallsMessage([]chat.ToolCall{
			{ID: "a", Name: "tool_a", Arguments: `{"n":1}`},
			{ID: "b", Name: "tool_b", Arguments: `{"n":2}`},
			{ID: "c", Name: "tool_c", Arguments: `{"n":3}`},
		})},
		streams: [][]string{{"done"}},
	}
	loop := newLoop(t, model, []tools.Descriptor{
		echoTool("tool_c", &calls),
		echoTool("tool_a", &calls),
		echoTool("tool_b", &calls),
	})

	_, err := loop.Run(context.Background(), "go", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{`tool_a:{"n":1}`, `tool_b:{"n":2}`, `tool_c:{"n":3}`}, calls)

	var ids []string
	for _, m := range loop.Transcript() {
		if m.Role == chat.RoleTool {
			ids = append(ids, m.ToolCallID)
		}
	}
	assert.Equal(t, []string{"a", "b", "c"}, ids)
}

func TestRunInvalidArgumentsAreRecoverable(t *testing.T) {
	var calls []string
	model := &scriptedModel{
		completions: []chat.Message{chat.ToolCallsMessage([]chat.ToolCall{
			{ID: "a", Name: "tool_a", Arguments: `{"n":`},
			{ID: "b", Name: "tool_a", Arguments: `{"n":"two"}`},
		})},
		streams: [][]string{{"sorry"}},
	}
	loop := newLoop(t, model, []tools.Descriptor{echoTool("tool_a", &calls)})

	turn, err := loop.Run(context.Background(), "go", nil)
	require.NoError(t, err)
	assert.Empty(t, calls)
	require.Len(t, turn.ToolCalls, 2)
	for _, tc := range turn.ToolCalls {
		assert.Equal(t, tools.StatusError, tc.Result.Status)
	}
	assert.Equal(t, "sorry", turn.Reply)
}

func TestRunHandlerErrorBecomesFailure(t *testing.T) {
	model := &scriptedModel{
		completions: []chat.Message{chat.ToolCallsMessage([]chat.ToolCall{
			{ID: "a", Name: "broken", Arguments: `{}`},
		})},
		streams: [][]string{{"it failed"}},
	}
	loop := newLoop(t, model, []tools.Descriptor{{
		Name:        "broken",
		Description: "Always fails.",
		Handler: func(context.Context, json.RawMessage) (any, error) {
			return nil, errors.New("disk on fire")
		},
	}})

	_, err := loop.Run(context.Background(), "go", nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"error","message":"disk on fire"}`, loop.Transcript()[2].Content)
}

func TestRunTransportErrorRollsBackTurn(t *testing.T) {
	model := &scriptedModel{completeErr: fmt.Errorf("%w: connection refused", chat.ErrTransport)}
	loop := newLoop(t, model, nil, WithSystemPrompt("sys"))

	_, err := loop.Run(context.Background(), "Hello", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, chat.ErrTransport)
	assert.Len(t, loop.Transcript(), 1)
}

func TestRunStreamOpenErrorRollsBackTurn(t *testing.T) {
	model := &scriptedModel{
		completions: []chat.Message{chat.AssistantMessage("hi")},
		streamErr:   fmt.Errorf("%w: 503", chat.ErrTransport),
	}
	loop := newLoop(t, model, nil)

	_, err := loop.Run(context.Background(), "Hello", nil)
	assert.ErrorIs(t, err, chat.ErrTransport)
	assert.Empty(t, loop.Transcript())
}

func TestRunMidStreamFailureKeepsToolResults(t *testing.T) {
	var calls []string
	model := &scriptedModel{
		completions: []chat.Message{chat.ToolCallsMessage([]chat.ToolCall{
			{ID: "a", Name: "tool_a", Arguments: `{}`},
		})},
		streams:   [][]string{{"partial "}},
		midStream: fmt.Errorf("%w: connection reset", chat.ErrTransport),
	}
	loop := newLoop(t, model, []tools.Descriptor{echoTool("tool_a", &calls)})

	var deltas []string
	turn, err := loop.Run(context.Background(), "go", collect(&deltas))
	assert.ErrorIs(t, err, chat.ErrTransport)
	assert.Equal(t, []string{"partial "}, deltas)
	assert.Len(t, turn.ToolCalls, 1)

	// Side effects already happened, so their record stays.
	transcript := loop.Transcript()
	require.Len(t, transcript, 3)
	assert.Equal(t, chat.RoleTool, transcript[2].Role)
}

func TestRunRejectsBlankInput(t *testing.T) {
	loop := newLoop(t, &scriptedModel{}, nil)
	_, err := loop.Run(context.Background(), "  \n", nil)
	assert.Error(t, err)
	assert.Empty(t, loop.Transcript())
}

func TestNewRequiresModelAndCatalog(t *testing.T) {
	catalog, err := tools.BuildStatic(nil)
	require.NoError(t, err)

	_, err = New(nil, catalog)
	assert.Error(t, err)
	_, err = New(&scriptedModel{}, nil)
	assert.Error(t, err)
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "short", preview("short", 10))
	long := strings.Repeat("x", 20)
	assert.Equal(t, "xxxxx... (20 bytes total)", preview(long, 5))
}
