package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/minhyannv/toolchat-go/pkg/agent"
	"github.com/minhyannv/toolchat-go/pkg/chat"
	loggerpkg "github.com/minhyannv/toolchat-go/pkg/logger"
)

// turnRunner is the part of agent.AgentLoop the REPL drives.
type turnRunner interface {
	Run(ctx context.Context, userInput string, onDelta func(string)) (agent.Turn, error)
}

// console is the part of ui.Terminal the REPL uses.
type console interface {
	ReadLine() (string, error)
	AssistantDelta(delta string)
	AssistantDone()
}

// replOptions configures REPL behavior.
type replOptions struct {
	Verbose bool
	Logger  loggerpkg.Logger
}

// runREPL reads lines until "quit" or end of input. It returns nil on a
// normal exit and the error that ended the session otherwise.
func runREPL(ctx context.Context, runner turnRunner, term console, opts replOptions) error {
	if runner == nil {
		return fmt.Errorf("agent loop is required")
	}
	if term == nil {
		return fmt.Errorf("console is required")
	}
	if opts.Logger == nil {
		opts.Logger = loggerpkg.NopLogger{}
	}

	for {
		line, err := term.ReadLine()
		if errors.Is(err, io.EOF) {
			loggerpkg.Debug(opts.Verbose, opts.Logger, "repl: end of input", nil)
			return nil
		}
		if err != nil {
			return fmt.Errorf("read input: %w", err)
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}
		if strings.EqualFold(input, "quit") {
			return nil
		}

		turn, err := runner.Run(ctx, input, term.AssistantDelta)
		term.AssistantDone()
		if err != nil {
			if errors.Is(err, chat.ErrTransport) || ctx.Err() != nil {
				return err
			}
			opts.Logger.Error("turn failed", map[string]any{"error": err.Error()})
			continue
		}
		loggerpkg.Debug(opts.Verbose, opts.Logger, "repl: turn complete", map[string]any{
			"tool_calls":  len(turn.ToolCalls),
			"reply_bytes": len(turn.Reply),
		})
	}
}
