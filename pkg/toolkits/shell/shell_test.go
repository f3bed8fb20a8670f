package shell

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minhyannv/toolchat-go/pkg/tools"
)

type recordingConfirmer struct {
	answer bool
	err    error
	seen   []tools.Confirmation
}

func (r *recordingConfirmer) Confirm(_ context.Context, c tools.Confirmation) (bool, error) {
	r.seen = append(r.seen, c)
	return r.answer, r.err
}

func TestRunConfirmed(t *testing.T) {
	confirmer := &recordingConfirmer{answer: true}
	tool := New(confirmer)

	res := tool.Run(context.Background(), "echo hi")
	require.True(t, res.OK(), res.Message)
	require.Len(t, confirmer.seen, 1)
	assert.Equal(t, "echo hi", confirmer.seen[0].Action)
	assert.Empty(t, confirmer.seen[0].Warning)

	var payload CommandResult
	require.NoError(t, json.Unmarshal([]byte(res.Content()), &payload))
	assert.Equal(t, CommandResult{Status: "success", Stdout: "hi\n", Stderr: "", ReturnCode: 0}, payload)
}

func TestRunReportsExitCodeAndStderr(t *testing.T) {
	tool := New(&recordingConfirmer{answer: true})

	res := tool.Run(context.Background(), "echo oops >&2; exit 3")
	require.True(t, res.OK(), res.Message)
	payload := res.Payload.(CommandResult)
	assert.Equal(t, 3, payload.ReturnCode)
	assert.Equal(t, "oops\n", payload.Stderr)
}

func TestRunDeclined(t *testing.T) {
	confirmer := &recordingConfirmer{answer: false}
	tool := New(confirmer)

	res := tool.Run(context.Background(), "touch /should/not/exist")
	assert.Equal(t, tools.StatusAborted, res.Status)
	assert.JSONEq(t, `{"status":"aborted","message":"Command execution aborted by user."}`, res.Content())
}

func TestRunConfirmerError(t *testing.T) {
	tool := New(&recordingConfirmer{err: errors.New("stdin closed")})

	res := tool.Run(context.Background(), "echo hi")
	assert.Equal(t, tools.StatusError, res.Status)
	assert.Contains(t, res.Message, "stdin closed")
}

func TestRunNilConfirmerDeclines(t *testing.T) {
	res := New(nil).Run(context.Background(), "echo hi")
	assert.Equal(t, tools.StatusAborted, res.Status)
}

func TestRunEmptyCommand(t *testing.T) {
	confirmer := &recordingConfirmer{answer: true}
	res := New(confirmer).Run(context.Background(), "   ")
	assert.Equal(t, tools.StatusError, res.Status)
	assert.Empty(t, confirmer.seen)
}

func TestRunWarnsOnDestructiveCommand(t *testing.T) {
	confirmer := &recordingConfirmer{answer: false}
	New(confirmer).Run(context.Background(), "ls && sudo rm -rf /tmp/x")
	require.Len(t, confirmer.seen, 1)
	assert.Contains(t, confirmer.seen[0].Warning, "rm")
}

func TestRunTimeout(t *testing.T) {
	tool := New(&recordingConfirmer{answer: true}, WithTimeout(100*time.Millisecond))

	res := tool.Run(context.Background(), "sleep 5")
	assert.Equal(t, tools.StatusError, res.Status)
	assert.Contains(t, res.Message, "timed out")
}

func TestDescriptorAndMethod(t *testing.T) {
	tool := New(nil)

	catalog, err := tools.BuildStatic([]tools.Descriptor{tool.Descriptor()})
	require.NoError(t, err)
	desc, ok := catalog.Lookup(ToolName)
	require.True(t, ok)
	assert.Equal(t, "object", desc.Parameters["type"])
	assert.Equal(t, []any{"command"}, desc.Parameters["required"])

	derived := tools.Describe(providerFunc(func() []tools.Method { return []tools.Method{tool.Method()} }))
	require.Len(t, derived, 1)
	assert.Equal(t, "Run a shell command on the host after the user confirms it.", derived[0].Description)
	assert.Equal(t, []string{"command"}, derived[0].Parameters["required"])

	res := desc.Invoke(context.Background(), json.RawMessage(`{"command": 42}`))
	assert.Equal(t, tools.StatusError, res.Status)
}

type providerFunc func() []tools.Method

func (providerFunc) Name() string              { return "test" }
func (f providerFunc) Methods() []tools.Method { return f() }
