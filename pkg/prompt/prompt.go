// Package prompt assembles the system prompt and greeting for a tool catalog.
package prompt

import (
	"fmt"
	"strings"

	"github.com/minhyannv/toolchat-go/pkg/tools"
)

const baseInstructions = "You are a helpful assistant that can call tools. " +
	"Use a tool when it helps answer the user, cite what the tools return, " +
	"and never claim a tool ran when it was declined or failed. " +
	"Commands with side effects run only after the user confirms them."

// BuildSystemPrompt constructs the system prompt, including the tool list.
func BuildSystemPrompt(catalog *tools.Catalog) string {
	var sb strings.Builder
	sb.WriteString(baseInstructions)

	if md := ToolsMarkdown(catalog); md != "" {
		sb.WriteString("\n\n")
		sb.WriteString(md)
	}
	return strings.TrimSpace(sb.String())
}

// ToolsMarkdown renders a markdown listing of the catalog.
func ToolsMarkdown(catalog *tools.Catalog) string {
	if catalog == nil || catalog.Len() == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("## Available Tools\n")
	for _, name := range catalog.Names() {
		desc, _ := catalog.Lookup(name)
		text := sanitizeMarkdown(desc.Description)
		if text == "" {
			text = "No description provided."
		}
		sb.WriteString(fmt.Sprintf("- **%s**: %s\n", name, text))
	}
	return strings.TrimSpace(sb.String())
}

// Greeting is the assistant's first line, naming what the tools can do.
func Greeting(catalog *tools.Catalog) string {
	if catalog == nil || catalog.Len() == 0 {
		return "Hi! How can I help you today?"
	}
	labels := make([]string, 0, catalog.Len())
	for _, name := range catalog.Names() {
		desc, _ := catalog.Lookup(name)
		labels = append(labels, desc.Label())
	}
	return fmt.Sprintf("Hi! I can help with questions and, when useful, call these tools: %s. "+
		"Anything that changes your system runs only with your confirmation.", strings.Join(labels, ", "))
}

// sanitizeMarkdown keeps markdown fields single-line and trimmed.
func sanitizeMarkdown(value string) string {
	value = strings.ReplaceAll(value, "\n", " ")
	value = strings.ReplaceAll(value, "\r", " ")
	return strings.TrimSpace(value)
}
