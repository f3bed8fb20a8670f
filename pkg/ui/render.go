package ui

import (
	"fmt"
	"strings"

	"github.com/fatih/color"

	"github.com/minhyannv/toolchat-go/pkg/agent"
	"github.com/minhyannv/toolchat-go/pkg/toolkits/shell"
	"github.com/minhyannv/toolchat-go/pkg/toolkits/wiki"
	"github.com/minhyannv/toolchat-go/pkg/tools"
)

// describeResult picks the header, body and header color of a tool result
// section.
func (t *Terminal) describeResult(tc agent.ToolCall) (string, string, *color.Color) {
	if tc.Descriptor == nil {
		return "Unknown Tool Call", tc.Result.Message, t.palette.failure
	}
	label := tc.Descriptor.Label()

	switch tc.Result.Status {
	case tools.StatusAborted:
		return label + " Aborted", tc.Result.Message, t.palette.warning
	case tools.StatusError:
		return label + " Error", tc.Result.Message, t.palette.failure
	}

	switch payload := tc.Result.Payload.(type) {
	case wiki.Article:
		return "Wikipedia Article: " + payload.Title, payload.Content, t.palette.info
	case shell.CommandResult:
		return "Shell Command Execution Result", t.commandOutput(payload), t.palette.accent
	case string:
		return label + " Result", payload, t.palette.info
	default:
		return label + " Result", tc.Result.Content(), t.palette.info
	}
}

func (t *Terminal) commandOutput(r shell.CommandResult) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %d\n", t.palette.success.Sprint("Return Code:"), r.ReturnCode)
	if r.Stdout != "" {
		fmt.Fprintf(&sb, "%s\n%s\n", t.palette.success.Sprint("Standard Output:"), strings.TrimRight(r.Stdout, "\n"))
	}
	if r.Stderr != "" {
		fmt.Fprintf(&sb, "%s\n%s\n", t.palette.failure.Sprint("Standard Error:"), strings.TrimRight(r.Stderr, "\n"))
	}
	return sb.String()
}
