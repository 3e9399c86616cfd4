package llm

import (
	"context"
	"encoding/json"
)

// Message represents a chat message in a provider-agnostic format
type Message struct {
	Role       string // "user", "assistant", "system", "tool"
	Content    string
	Reasoning  string     // model deliberation, separate channel from Content
	ToolCalls  []ToolCall // set on assistant messages that request tool execution
	ToolCallId string     // set on tool messages, links back to the request
}

// ToolCall is a tool invocation requested by the model
type ToolCall struct {
	Id   string          `json:"id"`
	Name string          `json:"name"`
	Args json.RawMessage `json:"args"`
}

// Tool describes a callable action exposed to the model
type Tool struct {
	Name        string
	Description string
	Parameters  json.RawMessage // JSON Schema for the arguments object
}

// StreamDelta is one streamed fragment. Reasoning and Content are independent
// channels; either (or both) may be empty for a given delta.
type StreamDelta struct {
	Reasoning string
	Content   string
}

// Result is the final accumulated response of a chat call
type Result struct {
	Content   string
	Reasoning string
	ToolCalls []ToolCall
}

// DeltaFunc receives streamed fragments in order. Returning an error stops
// the stream and is propagated out of ChatStream.
type DeltaFunc func(delta StreamDelta) error

// Option allows for optional parameters like Temperature, MaxTokens, etc.
type Option func(*Options)

type Options struct {
	Temperature float64
	MaxTokens   int
	Model       string // Override default model
	Tools       []Tool
	JSONOnly    bool // Ask the provider for a JSON object response
}

func WithTemperature(temp float64) Option {
	return func(o *Options) {
		o.Temperature = temp
	}
}

func WithMaxTokens(n int) Option {
	return func(o *Options) {
		o.MaxTokens = n
	}
}

func WithModel(model string) Option {
	return func(o *Options) {
		o.Model = model
	}
}

func WithTools(tools ...Tool) Option {
	return func(o *Options) {
		o.Tools = tools
	}
}

func WithJSONResponse() Option {
	return func(o *Options) {
		o.JSONOnly = true
	}
}

// BuildOptions applies opts over the defaults. Used by implementations.
func BuildOptions(opts ...Option) *Options {
	options := &Options{
		Temperature: 0.7,
	}
	for _, opt := range opts {
		opt(options)
	}
	return options
}

// Provider defines the contract for any LLM backend
type Provider interface {
	// Chat sends a chat history to the model and returns the full response
	Chat(ctx context.Context, history []Message, options ...Option) (*Result, error)

	// ChatStream sends a chat history and streams fragments through onDelta
	// as they arrive, returning the accumulated result. Tool calls are only
	// reported on the final Result, never through onDelta.
	ChatStream(ctx context.Context, history []Message, onDelta DeltaFunc, options ...Option) (*Result, error)

	// Generate sends a single prompt to the model (convenience method)
	Generate(ctx context.Context, prompt string, options ...Option) (string, error)
}
