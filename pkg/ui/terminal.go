// Package ui renders the interactive chat session in a terminal: banner,
// prompts, streamed replies, tool result sections and the confirmation gate.
package ui

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/dimiro1/banner"
	"github.com/fatih/color"

	"github.com/minhyannv/toolchat-go/pkg/agent"
	"github.com/minhyannv/toolchat-go/pkg/tools"
)

const defaultWidth = 80

// Terminal owns the session's input reader and output writer. The REPL and
// the confirmation gate read from the same buffered reader so neither loses
// input the other has buffered.
type Terminal struct {
	in  *bufio.Reader
	out io.Writer

	width       int
	colors      bool
	showBanner  bool
	useSpinner  bool
	spinner     *Spinner
	writeMu     sync.Mutex
	palette     palette
	assistantOn bool
}

type palette struct {
	user      *color.Color
	assistant *color.Color
	info      *color.Color
	success   *color.Color
	warning   *color.Color
	failure   *color.Color
	accent    *color.Color
	faint     *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		user:      color.New(color.FgCyan, color.Bold),
		assistant: color.New(color.FgGreen, color.Bold),
		info:      color.New(color.FgBlue, color.Bold),
		success:   color.New(color.FgGreen, color.Bold),
		warning:   color.New(color.FgYellow, color.Bold),
		failure:   color.New(color.FgRed, color.Bold),
		accent:    color.New(color.FgMagenta, color.Bold),
		faint:     color.New(color.Faint),
	}
	for _, c := range []*color.Color{p.user, p.assistant, p.info, p.success, p.warning, p.failure, p.accent, p.faint} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

// Option configures a Terminal.
type Option func(*Terminal)

// WithWidth sets the width of section borders.
func WithWidth(n int) Option {
	return func(t *Terminal) {
		if n > 0 {
			t.width = n
		}
	}
}

// WithColor turns ANSI colors on or off.
func WithColor(enabled bool) Option {
	return func(t *Terminal) {
		t.colors = enabled
	}
}

// WithSpinner turns the busy spinner on or off.
func WithSpinner(enabled bool) Option {
	return func(t *Terminal) {
		t.useSpinner = enabled
	}
}

// WithBanner turns the ASCII-art banner on or off.
func WithBanner(enabled bool) Option {
	return func(t *Terminal) {
		t.showBanner = enabled
	}
}

// New returns a terminal over in and out. Colors default to the color
// package's terminal detection.
func New(in io.Reader, out io.Writer, opts ...Option) *Terminal {
	t := &Terminal{
		in:         bufio.NewReader(in),
		width:      defaultWidth,
		colors:     !color.NoColor,
		showBanner: true,
		useSpinner: true,
	}
	for _, opt := range opts {
		opt(t)
	}
	t.out = &lockedWriter{mu: &t.writeMu, w: out}
	t.palette = newPalette(t.colors)
	t.spinner = NewSpinner(t.out, "Thinking...")
	return t
}

type lockedWriter struct {
	mu *sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

// Welcome prints the banner, the greeting and the exit hint.
func (t *Terminal) Welcome(greeting string) {
	if t.showBanner {
		tpl := `{{ .Title "toolchat" "" 0 }}` + "\n"
		banner.Init(t.out, true, t.colors, bytes.NewBufferString(tpl))
	}
	_, _ = fmt.Fprintf(t.out, "%s %s\n", t.palette.assistant.Sprint("Assistant:"), greeting)
	_, _ = fmt.Fprintln(t.out, "(Type 'quit' to exit)")
}

// ReadLine prompts for user input and returns the line without its newline.
// A final unterminated line is returned before io.EOF.
func (t *Terminal) ReadLine() (string, error) {
	_, _ = fmt.Fprintf(t.out, "\n%s ", t.palette.user.Sprint("You:"))
	return t.readLine()
}

func (t *Terminal) readLine() (string, error) {
	line, err := t.in.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimRight(line, "\r\n"), nil
		}
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// Confirm implements tools.Confirmer. End of input declines.
func (t *Terminal) Confirm(ctx context.Context, c tools.Confirmation) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	title := c.Title
	if title == "" {
		title = "Confirmation Request"
	}
	question := c.Question
	if question == "" {
		question = "Do you want to continue?"
	}

	_, _ = fmt.Fprintf(t.out, "\n%s %s\n", t.palette.user.Sprint(title+":"), c.Action)
	if c.Warning != "" {
		_, _ = fmt.Fprintf(t.out, "%s %s\n", t.palette.failure.Sprint("Warning:"), c.Warning)
	}
	_, _ = fmt.Fprintf(t.out, "%s (yes/no): ", question)

	answer, err := t.readLine()
	if errors.Is(err, io.EOF) {
		_, _ = fmt.Fprintln(t.out)
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return tools.IsAffirmative(answer), nil
}

// AssistantDelta prints a streamed reply fragment, opening the assistant
// label on the first one.
func (t *Terminal) AssistantDelta(delta string) {
	if !t.assistantOn {
		t.assistantOn = true
		_, _ = fmt.Fprintf(t.out, "\n%s ", t.palette.assistant.Sprint("Assistant:"))
	}
	_, _ = io.WriteString(t.out, delta)
}

// AssistantDone ends the current reply line.
func (t *Terminal) AssistantDone() {
	if t.assistantOn {
		_, _ = fmt.Fprintln(t.out)
		t.assistantOn = false
	}
}

// Section prints content framed by borders under a centered header.
func (t *Terminal) Section(header, content string, c *color.Color) {
	border := strings.Repeat("=", t.width)
	pad := (t.width - len(header)) / 2
	if pad < 0 {
		pad = 0
	}
	_, _ = fmt.Fprintf(t.out, "\n%s\n%s%s\n%s\n%s\n%s\n\n",
		border,
		strings.Repeat(" ", pad), c.Sprint(header),
		strings.Repeat("-", t.width),
		strings.TrimRight(content, "\n"),
		border,
	)
}

// CompletionStarted implements agent.Observer.
func (t *Terminal) CompletionStarted() {
	if t.useSpinner {
		t.spinner.Start()
	}
}

// CompletionFinished implements agent.Observer.
func (t *Terminal) CompletionFinished() {
	t.spinner.Stop()
}

// ToolStarted implements agent.Observer.
func (t *Terminal) ToolStarted(tc agent.ToolCall) {
	label := tc.Call.Name
	if tc.Descriptor != nil {
		label = tc.Descriptor.Label()
	}
	_, _ = fmt.Fprintln(t.out, t.palette.faint.Sprintf("-> %s", label))
}

// ToolFinished implements agent.Observer.
func (t *Terminal) ToolFinished(tc agent.ToolCall) {
	header, content, c := t.describeResult(tc)
	t.Section(header, content, c)
}

var _ agent.Observer = (*Terminal)(nil)
var _ tools.Confirmer = (*Terminal)(nil)
