package chat

import (
	"errors"
	"fmt"
)

// ErrOrphanToolMessage is returned when a tool message does not answer a
// pending call of the preceding assistant message.
var ErrOrphanToolMessage = errors.New("tool message does not match a pending tool call")

// Conversation is the ordered, append-only transcript of one chat session.
// It is owned by a single goroutine and is not safe for concurrent use.
type Conversation struct {
	messages []Message
	// pending holds unanswered call ids of the latest tool-call message.
	pending map[string]bool
}

// NewConversation starts a transcript, optionally with a system prompt.
func NewConversation(systemPrompt string) *Conversation {
	c := &Conversation{}
	if systemPrompt != "" {
		c.messages = append(c.messages, SystemMessage(systemPrompt))
	}
	return c
}

// Append adds a message after checking the tool-call pairing invariant.
func (c *Conversation) Append(m Message) error {
	switch m.Role {
	case RoleSystem, RoleUser:
		c.pending = nil
	case RoleAssistant:
		var pending map[string]bool
		if len(m.ToolCalls) > 0 {
			pending = make(map[string]bool, len(m.ToolCalls))
			for _, call := range m.ToolCalls {
				if call.ID == "" {
					return fmt.Errorf("tool call %q has no id", call.Name)
				}
				if pending[call.ID] {
					return fmt.Errorf("duplicate tool call id %q", call.ID)
				}
				pending[call.ID] = true
			}
		}
		c.pending = pending
	case RoleTool:
		if !c.pending[m.ToolCallID] {
			return fmt.Errorf("%w: %q", ErrOrphanToolMessage, m.ToolCallID)
		}
		delete(c.pending, m.ToolCallID)
	default:
		return fmt.Errorf("invalid message role %q", m.Role)
	}
	c.messages = append(c.messages, m.clone())
	return nil
}

// Messages returns a copy of the transcript.
func (c *Conversation) Messages() []Message {
	out := make([]Message, len(c.messages))
	for i, m := range c.messages {
		out[i] = m.clone()
	}
	return out
}

// Len is the number of messages.
func (c *Conversation) Len() int {
	return len(c.messages)
}

// Truncate drops messages after the first n. Used to roll back a turn that
// failed before any tool side effect happened.
func (c *Conversation) Truncate(n int) {
	if n < 0 || n >= len(c.messages) {
		return
	}
	c.messages = c.messages[:n]
	c.pending = nil
}

// Pending reports how many tool calls are still unanswered.
func (c *Conversation) Pending() int {
	return len(c.pending)
}
