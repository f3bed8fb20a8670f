package shell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	loggerpkg "github.com/minhyannv/toolchat-go/pkg/logger"
)

// DefaultTimeout bounds a command when the caller gives none.
const DefaultTimeout = 60 * time.Second

// ErrTimeout is returned when a command outlives its timeout.
var ErrTimeout = errors.New("command timed out")

// Command is one subprocess invocation. Path is looked up in PATH.
type Command struct {
	Path    string
	Args    []string
	Dir     string
	Stdin   []byte
	Timeout time.Duration
}

// Outcome captures a finished command. Err is set only when the process
// could not be started or was killed on timeout; a non-zero exit code alone
// is not an error.
type Outcome struct {
	ExitCode int
	Stdout   string
	Stderr   string
	Duration time.Duration
	Err      error
}

// Exec runs cmd with a sanitized environment and captures its output.
func Exec(ctx context.Context, cmd Command, logger loggerpkg.Logger, verbose bool) Outcome {
	timeout := cmd.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	loggerpkg.Debugf(verbose, logger, "[verbose] exec: command=%s, args=%v, dir=%s, timeout=%v", cmd.Path, cmd.Args, cmd.Dir, timeout)
	execCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	proc := exec.CommandContext(execCtx, cmd.Path, cmd.Args...)
	proc.Env = sanitizedEnv()
	proc.Dir = cmd.Dir
	// Children of a killed shell may keep the output pipes open.
	proc.WaitDelay = time.Second
	if cmd.Stdin != nil {
		proc.Stdin = bytes.NewReader(cmd.Stdin)
	}

	var stdout, stderr bytes.Buffer
	proc.Stdout = &stdout
	proc.Stderr = &stderr

	start := time.Now()
	err := proc.Run()
	out := Outcome{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}

	if err != nil {
		var exitErr *exec.ExitError
		switch {
		case errors.Is(execCtx.Err(), context.DeadlineExceeded):
			out.ExitCode = -1
			out.Err = fmt.Errorf("%w after %v", ErrTimeout, timeout)
		case errors.As(err, &exitErr):
			out.ExitCode = exitErr.ExitCode()
		default:
			out.ExitCode = -1
			out.Err = err
		}
		loggerpkg.Debugf(verbose, logger, "[verbose] exec: error occurred: %v (exit_code=%d)", err, out.ExitCode)
	}

	loggerpkg.Debugf(verbose, logger, "[verbose] exec: completed, exit_code=%d, duration=%dms, stdout=%d bytes, stderr=%d bytes",
		out.ExitCode, out.Duration.Milliseconds(), stdout.Len(), stderr.Len())
	if stderr.Len() > 0 {
		preview := out.Stderr
		if len(preview) > 500 {
			preview = preview[:500] + "..."
		}
		loggerpkg.Debugf(verbose, logger, "[verbose] exec: stderr: %s", preview)
	}
	return out
}

// sanitizedEnv keeps only low-risk environment variables for subprocesses.
func sanitizedEnv() []string {
	allowedPrefixes := []string{
		"PATH=",
		"HOME=",
		"USER=",
		"LOGNAME=",
		"SHELL=",
		"TMPDIR=",
		"TMP=",
		"TEMP=",
		"LANG=",
		"LC_",
		"TERM=",
		"PWD=",
	}

	env := make([]string, 0, len(allowedPrefixes))
	for _, kv := range os.Environ() {
		for _, prefix := range allowedPrefixes {
			if strings.HasPrefix(kv, prefix) {
				env = append(env, kv)
				break
			}
		}
	}
	return env
}
