package tools

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResultContent(t *testing.T) {
	assert.JSONEq(t, `{"status":"aborted","message":"Command execution aborted by user."}`,
		Aborted("Command execution aborted by user.").Content())
	assert.JSONEq(t, `{"status":"error","message":"Unknown tool call."}`,
		Failure("Unknown tool call.").Content())
	assert.Equal(t, `"2 + 2 = 4"`, Success("2 + 2 = 4").Content())
}

func TestResultPayloadRoundTrip(t *testing.T) {
	payload := map[string]any{
		"status":     "success",
		"stdout":     "hi\n",
		"stderr":     "",
		"returncode": float64(0),
		"nested":     []any{"a", map[string]any{"b": true}},
	}
	var back map[string]any
	require.NoError(t, json.Unmarshal([]byte(Success(payload).Content()), &back))
	assert.Equal(t, payload, back)
}

func TestResultUnencodablePayload(t *testing.T) {
	content := Success(make(chan int)).Content()
	assert.Contains(t, content, `"status":"error"`)
}

func TestAsResult(t *testing.T) {
	assert.Equal(t, Failure("boom"), AsResult(nil, errors.New("boom")))
	assert.Equal(t, StatusAborted, AsResult(nil, fmt.Errorf("rm -rf: %w", ErrAborted)).Status)
	assert.Equal(t, Aborted("no"), AsResult(Aborted("no"), nil))
	r := Failure("x")
	assert.Equal(t, r, AsResult(&r, nil))
	assert.Equal(t, Success(42), AsResult(42, nil))
	assert.True(t, AsResult("ok", nil).OK())
}
