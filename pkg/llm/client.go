// Package llm adapts an OpenAI-compatible chat-completion server (LM Studio,
// llama.cpp, vLLM, OpenAI itself) to the chat.Model contract.
package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/minhyannv/toolchat-go/pkg/chat"
	loggerpkg "github.com/minhyannv/toolchat-go/pkg/logger"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/ssestream"
)

// Options configures the client.
type Options struct {
	BaseURL string
	APIKey  string
	Model   string
	Logger  loggerpkg.Logger
	Verbose bool
	// RequestOptions are appended after the defaults (tests inject HTTP clients here).
	RequestOptions []option.RequestOption
}

// Client talks to the inference server.
type Client struct {
	client  openai.Client
	model   string
	logger  loggerpkg.Logger
	verbose bool
	newID   func() string
}

// New builds a client. Requests are not retried: a transport failure ends the
// session.
func New(opts Options) (*Client, error) {
	if opts.Model == "" {
		return nil, errors.New("model is not set")
	}
	if opts.Logger == nil {
		opts.Logger = loggerpkg.NopLogger{}
	}

	reqOpts := []option.RequestOption{option.WithMaxRetries(0)}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}
	if opts.APIKey != "" {
		reqOpts = append(reqOpts, option.WithAPIKey(opts.APIKey))
	}
	reqOpts = append(reqOpts, opts.RequestOptions...)

	return &Client{
		client:  openai.NewClient(reqOpts...),
		model:   opts.Model,
		logger:  opts.Logger,
		verbose: opts.Verbose,
		newID:   func() string { return "call_" + uuid.NewString() },
	}, nil
}

// Complete sends one non-streamed request.
func (c *Client) Complete(ctx context.Context, req chat.Request) (chat.Message, error) {
	c.debugf("[verbose] chat: sending non-streaming request messages=%d tools=%d", len(req.Messages), len(req.Tools))
	params, err := c.params(req)
	if err != nil {
		return chat.Message{}, err
	}
	completion, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return chat.Message{}, fmt.Errorf("%w: %w", chat.ErrTransport, err)
	}
	if len(completion.Choices) == 0 {
		return chat.Message{}, fmt.Errorf("%w: empty completion choices", chat.ErrTransport)
	}
	c.debugf("[verbose] chat: completion received finish_reason=%s", completion.Choices[0].FinishReason)
	return c.fromOpenAI(completion.Choices[0].Message), nil
}

// Stream sends one streamed request.
func (c *Client) Stream(ctx context.Context, req chat.Request) (chat.Stream, error) {
	c.debugf("[verbose] chat: sending streaming request messages=%d", len(req.Messages))
	params, err := c.params(req)
	if err != nil {
		return nil, err
	}
	return &deltaStream{
		stream: c.client.Chat.Completions.NewStreaming(ctx, params),
		logger: c.logger,
	}, nil
}

func (c *Client) params(req chat.Request) (openai.ChatCompletionNewParams, error) {
	messages, err := ToOpenAIMessages(req.Messages)
	if err != nil {
		return openai.ChatCompletionNewParams{}, err
	}
	return openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(c.model),
		Messages: messages,
		Tools:    req.Tools,
	}, nil
}

// fromOpenAI converts a completion message. Some local servers omit tool call
// ids; those get generated ids so tool results can reference them.
func (c *Client) fromOpenAI(msg openai.ChatCompletionMessage) chat.Message {
	out := chat.Message{Role: chat.RoleAssistant, Content: msg.Content}
	if len(msg.ToolCalls) == 0 {
		return out
	}
	out.ToolCalls = make([]chat.ToolCall, 0, len(msg.ToolCalls))
	for _, call := range msg.ToolCalls {
		id := call.ID
		if id == "" {
			id = c.newID()
			c.debugf("[verbose] chat: tool call %s had no id, assigned %s", call.Function.Name, id)
		}
		out.ToolCalls = append(out.ToolCalls, chat.ToolCall{
			ID:        id,
			Name:      call.Function.Name,
			Arguments: call.Function.Arguments,
		})
	}
	return out
}

// ToOpenAIMessages converts the transcript to request params.
func ToOpenAIMessages(messages []chat.Message) ([]openai.ChatCompletionMessageParamUnion, error) {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for i, msg := range messages {
		switch msg.Role {
		case chat.RoleSystem:
			out = append(out, openai.SystemMessage(msg.Content))
		case chat.RoleUser:
			out = append(out, openai.UserMessage(msg.Content))
		case chat.RoleAssistant:
			if len(msg.ToolCalls) == 0 {
				out = append(out, openai.AssistantMessage(msg.Content))
				continue
			}
			calls := make([]openai.ChatCompletionMessageToolCallParam, 0, len(msg.ToolCalls))
			for _, call := range msg.ToolCalls {
				calls = append(calls, openai.ChatCompletionMessageToolCallParam{
					ID: call.ID,
					Function: openai.ChatCompletionMessageToolCallFunctionParam{
						Name:      call.Name,
						Arguments: call.Arguments,
					},
				})
			}
			assistant := openai.ChatCompletionAssistantMessageParam{ToolCalls: calls}
			if msg.Content != "" {
				assistant.Content.OfString = openai.String(msg.Content)
			}
			out = append(out, openai.ChatCompletionMessageParamUnion{OfAssistant: &assistant})
		case chat.RoleTool:
			out = append(out, openai.ToolMessage(msg.Content, msg.ToolCallID))
		default:
			return nil, fmt.Errorf("invalid message role at index %d: %q", i, msg.Role)
		}
	}
	return out, nil
}

func (c *Client) debugf(format string, args ...any) {
	loggerpkg.Debugf(c.verbose, c.logger, format, args...)
}

// deltaStream yields the text deltas of a streamed completion.
type deltaStream struct {
	stream     *ssestream.Stream[openai.ChatCompletionChunk]
	logger     loggerpkg.Logger
	current    string
	toolDeltas int
}

func (s *deltaStream) Next() bool {
	for s.stream.Next() {
		chunk := s.stream.Current()
		if len(chunk.Choices) == 0 {
			continue
		}
		delta := chunk.Choices[0].Delta
		if len(delta.ToolCalls) > 0 {
			s.toolDeltas++
		}
		if delta.Content != "" {
			s.current = delta.Content
			return true
		}
	}
	if s.toolDeltas > 0 {
		loggerpkg.Warn(s.logger, "streamed reply requested tools; ignoring", map[string]any{"deltas": s.toolDeltas})
		s.toolDeltas = 0
	}
	return false
}

func (s *deltaStream) Current() string {
	return s.current
}

func (s *deltaStream) Err() error {
	if err := s.stream.Err(); err != nil {
		return fmt.Errorf("%w: %w", chat.ErrTransport, err)
	}
	return nil
}

func (s *deltaStream) Close() error {
	return s.stream.Close()
}
