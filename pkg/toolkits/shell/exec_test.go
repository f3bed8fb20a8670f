package shell

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	loggerpkg "github.com/minhyannv/toolchat-go/pkg/logger"
)

func TestExecPassesStdin(t *testing.T) {
	out := Exec(context.Background(), Command{Path: "cat", Stdin: []byte(`{"x":1}`)}, loggerpkg.NopLogger{}, false)
	require.NoError(t, out.Err)
	assert.Equal(t, 0, out.ExitCode)
	assert.Equal(t, `{"x":1}`, out.Stdout)
}

func TestExecMissingBinary(t *testing.T) {
	out := Exec(context.Background(), Command{Path: "definitely-not-a-real-binary-xyz"}, loggerpkg.NopLogger{}, false)
	assert.Error(t, out.Err)
	assert.Equal(t, -1, out.ExitCode)
}

func TestExecSanitizesEnvironment(t *testing.T) {
	t.Setenv("TOOLCHAT_SECRET_TOKEN", "hunter2")

	out := Exec(context.Background(), Command{Path: "env"}, loggerpkg.NopLogger{}, false)
	require.NoError(t, out.Err)
	assert.NotContains(t, out.Stdout, "hunter2")
	assert.True(t, strings.Contains(out.Stdout, "PATH="))
}
