package ui

import (
	"errors"
	"fmt"

	"github.com/minhyannv/toolchat-go/pkg/chat"
)

// ServerInfo describes the model server for remediation hints.
type ServerInfo struct {
	BaseURL string
	Model   string
}

// Fatal prints a session-ending error. Transport errors get a checklist of
// the usual causes.
func (t *Terminal) Fatal(err error, server ServerInfo) {
	t.spinner.Stop()
	t.AssistantDone()
	if !errors.Is(err, chat.ErrTransport) {
		_, _ = fmt.Fprintf(t.out, "\n%s %v\n", t.palette.failure.Sprint("Error:"), err)
		return
	}
	_, _ = fmt.Fprintf(t.out, "\n%s\n\n", t.palette.failure.Sprint("Error chatting with the model server!"))
	_, _ = fmt.Fprintln(t.out, "Please ensure:")
	_, _ = fmt.Fprintf(t.out, "1. The server is running at %s\n", server.BaseURL)
	_, _ = fmt.Fprintf(t.out, "2. Model '%s' is downloaded\n", server.Model)
	_, _ = fmt.Fprintf(t.out, "3. Model '%s' is loaded, or that just-in-time model loading is enabled\n\n", server.Model)
	_, _ = fmt.Fprintf(t.out, "Error details: %v\n", err)
	_, _ = fmt.Fprintln(t.out, "See https://lmstudio.ai/docs/basics/server for more information")
}
