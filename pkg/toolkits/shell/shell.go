// Package shell provides the run_shell_command tool and the subprocess
// helpers shared by command-backed tools.
package shell

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	loggerpkg "github.com/minhyannv/toolchat-go/pkg/logger"
	"github.com/minhyannv/toolchat-go/pkg/schema"
	"github.com/minhyannv/toolchat-go/pkg/tools"
)

const (
	// ToolName is the catalog name of the shell tool.
	ToolName = "run_shell_command"
	// AbortMessage is the result reason when the user declines a command.
	AbortMessage = "Command execution aborted by user."
)

const description = "Execute a shell command on the host machine. Use this for system operations, file management, or running CLI tools. Every command must be approved by the user before it runs."

// doc is the documentation used by the dynamic catalog.
const doc = `Run a shell command on the host after the user confirms it.

command: Shell command to be executed on the host machine`

// Args are the shell tool arguments.
type Args struct {
	Command string `json:"command" jsonschema:"description=Shell command to be executed on the host machine"`
}

// CommandResult is the success payload of the shell tool.
type CommandResult struct {
	Status     string `json:"status"`
	Stdout     string `json:"stdout"`
	Stderr     string `json:"stderr"`
	ReturnCode int    `json:"returncode"`
}

// Tool runs shell commands behind a confirmation gate.
type Tool struct {
	confirmer tools.Confirmer
	shell     string
	timeout   time.Duration
	logger    loggerpkg.Logger
	verbose   bool
}

// Option configures a Tool.
type Option func(*Tool)

// WithShell sets the interpreter that receives "-c <command>". Defaults to sh.
func WithShell(path string) Option {
	return func(t *Tool) {
		if path != "" {
			t.shell = path
		}
	}
}

// WithTimeout bounds each command.
func WithTimeout(d time.Duration) Option {
	return func(t *Tool) {
		t.timeout = d
	}
}

// WithLogger sets the logger used for verbose tracing.
func WithLogger(l loggerpkg.Logger, verbose bool) Option {
	return func(t *Tool) {
		if l != nil {
			t.logger = l
		}
		t.verbose = verbose
	}
}

// New returns a shell tool. A nil confirmer declines every command.
func New(confirmer tools.Confirmer, opts ...Option) *Tool {
	if confirmer == nil {
		confirmer = tools.DenyAll{}
	}
	t := &Tool{
		confirmer: confirmer,
		shell:     "sh",
		timeout:   DefaultTimeout,
		logger:    loggerpkg.NopLogger{},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Run asks for confirmation and, if granted, runs command through the shell.
func (t *Tool) Run(ctx context.Context, command string) tools.Result {
	if strings.TrimSpace(command) == "" {
		return tools.Failure("command is required")
	}

	confirmation := tools.Confirmation{
		Title:    "Shell Command Execution Request",
		Action:   command,
		Question: "Do you want to execute this shell command?",
	}
	if risky := DestructiveExecutables(command); len(risky) > 0 {
		confirmation.Warning = fmt.Sprintf("This command runs %s, which can destroy data or stop the system.", strings.Join(risky, ", "))
	}

	ok, err := t.confirmer.Confirm(ctx, confirmation)
	if err != nil {
		return tools.Failuref("confirmation failed: %v", err)
	}
	if !ok {
		loggerpkg.Debugf(t.verbose, t.logger, "[verbose] %s: declined by user", ToolName)
		return tools.Aborted(AbortMessage)
	}

	out := Exec(ctx, Command{
		Path:    t.shell,
		Args:    []string{"-c", command},
		Timeout: t.timeout,
	}, t.logger, t.verbose)
	if out.Err != nil {
		return tools.Failure(out.Err.Error())
	}
	return tools.Success(CommandResult{
		Status:     "success",
		Stdout:     out.Stdout,
		Stderr:     out.Stderr,
		ReturnCode: out.ExitCode,
	})
}

func (t *Tool) handle(ctx context.Context, raw json.RawMessage) (any, error) {
	var args Args
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}
	return t.Run(ctx, args.Command), nil
}

// Descriptor is the hand-declared catalog entry for static mode.
func (t *Tool) Descriptor() tools.Descriptor {
	return tools.Descriptor{
		Name:        ToolName,
		Description: description,
		Parameters:  schema.MustReflect[Args](),
		Handler:     t.handle,
		Title:       "Shell Command",
	}
}

// Method is the provider method for dynamic mode.
func (t *Tool) Method() tools.Method {
	return tools.Method{
		Name:    ToolName,
		Doc:     doc,
		Params:  schema.ParamsOf[Args](),
		Handler: t.handle,
		Title:   "Shell Command",
	}
}
