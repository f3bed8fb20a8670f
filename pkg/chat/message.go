// Package chat holds the conversation transcript exchanged with the model and
// the transport contract the orchestrator consumes.
package chat

// Role is the role for a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ToolCall is one tool invocation requested by the model. Arguments is the raw
// JSON payload exactly as the model produced it.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string
}

// Message is one transcript entry. ToolCalls is only set on assistant turns
// that requested tools; ToolCallID only on tool turns.
type Message struct {
	Role       Role
	Content    string
	ToolCalls  []ToolCall
	ToolCallID string
}

// SystemMessage builds a system turn.
func SystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// UserMessage builds a user turn.
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// AssistantMessage builds a plain assistant reply.
func AssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

// ToolCallsMessage echoes the model's tool-call request back into the transcript.
func ToolCallsMessage(calls []ToolCall) Message {
	return Message{Role: RoleAssistant, ToolCalls: append([]ToolCall(nil), calls...)}
}

// ToolMessage answers the tool call with the given id.
func ToolMessage(content, toolCallID string) Message {
	return Message{Role: RoleTool, Content: content, ToolCallID: toolCallID}
}

func (m Message) clone() Message {
	if m.ToolCalls != nil {
		m.ToolCalls = append([]ToolCall(nil), m.ToolCalls...)
	}
	return m
}
