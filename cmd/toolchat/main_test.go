package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeServer answers non-streamed requests with a tool call to the shell on
// the first turn, and every streamed request with a fixed reply.
func fakeServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := io.ReadAll(r.Body)
		if !assert.NoError(t, err) {
			return
		}
		var body struct {
			Stream   bool             `json:"stream"`
			Messages []map[string]any `json:"messages"`
		}
		if !assert.NoError(t, json.Unmarshal(raw, &body)) {
			return
		}

		if body.Stream {
			w.Header().Set("Content-Type", "text/event-stream")
			for _, part := range []string{"Done", "."} {
				chunk := fmt.Sprintf(`{"id":"c","object":"chat.completion.chunk","created":0,"model":"m","choices":[{"index":0,"delta":{"content":%q}}]}`, part)
				_, _ = fmt.Fprintf(w, "data: %s\n\n", chunk)
			}
			_, _ = io.WriteString(w, "data: [DONE]\n\n")
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"id":"cmpl-1","object":"chat.completion","created":0,"model":"m",
			"choices":[{"index":0,"finish_reason":"tool_calls","message":{
				"role":"assistant","content":null,
				"tool_calls":[{"id":"call_1","type":"function","function":{"name":"run_shell_command","arguments":"{\"command\":\"echo hi\"}"}}]
			}}]}`)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRunSessionWithDeclinedShellCommand(t *testing.T) {
	unsetToolchatEnv(t)
	srv := fakeServer(t)

	var stdout, stderr bytes.Buffer
	code := run(context.Background(),
		[]string{"-base_url", srv.URL + "/v1", "-model", "test-model", "-no_color"},
		strings.NewReader("run echo hi\nno\nquit\n"), &stdout, &stderr)

	require.Equal(t, 0, code, stderr.String())
	out := stdout.String()
	assert.Contains(t, out, "Shell Command Execution Request: echo hi")
	assert.Contains(t, out, "Shell Command Aborted")
	assert.Contains(t, out, "Command execution aborted by user.")
	assert.Contains(t, out, "Assistant: Done.")
}

func TestRunExitsOneWhenServerIsDown(t *testing.T) {
	unsetToolchatEnv(t)
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	var stdout, stderr bytes.Buffer
	code := run(context.Background(),
		[]string{"-base_url", url + "/v1", "-model", "test-model", "-no_color"},
		strings.NewReader("Hello\n"), &stdout, &stderr)

	assert.Equal(t, 1, code)
	assert.Contains(t, stdout.String(), "Error chatting with the model server!")
	assert.Contains(t, stdout.String(), "Model 'test-model' is downloaded")
}

func TestRunBadFlags(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"-tools", "magic"}, strings.NewReader(""), &stdout, &stderr)
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr.String(), "unknown tool mode")
}

func TestRunHelpExitsZero(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"-h"}, strings.NewReader(""), &stdout, &stderr)
	assert.Equal(t, 0, code)
	assert.Contains(t, stderr.String(), "-tools_dir")
	assert.NotContains(t, stderr.String(), "Error:")
}
