package openrouter

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"ai-docchat-be/pkg/llm"
)

// Provider implements llm.Provider against any OpenAI-compatible chat
// completion API (OpenRouter, OpenAI, vLLM, ...). OpenRouter additionally
// exposes the model's reasoning tokens on a separate "reasoning" field of
// message/delta payloads, which we surface through llm.StreamDelta.
type Provider struct {
	BaseURL   string
	APIKey    string
	ModelName string
	Client    *http.Client
}

// Ensure Provider implements llm.Provider
var _ llm.Provider = &Provider{}

func NewProvider(baseURL, apiKey, modelName string) *Provider {
	if baseURL == "" {
		baseURL = "https://openrouter.ai/api/v1"
	}
	return &Provider{
		BaseURL:   strings.TrimRight(baseURL, "/"),
		APIKey:    apiKey,
		ModelName: modelName,
		Client: &http.Client{
			Timeout: 300 * time.Second,
		},
	}
}

// --- Request/Response structs (Internal to this package) ---

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []apiMessage    `json:"messages"`
	Stream         bool            `json:"stream"`
	Temperature    float64         `json:"temperature"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	Tools          []apiTool       `json:"tools,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type apiMessage struct {
	Role       string        `json:"role"`
	Content    string        `json:"content"`
	ToolCalls  []apiToolCall `json:"tool_calls,omitempty"`
	ToolCallId string        `json:"tool_call_id,omitempty"`
}

type apiTool struct {
	Type     string      `json:"type"`
	Function apiFunction `json:"function"`
}

type apiFunction struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
}

type apiToolCall struct {
	Index    *int        `json:"index,omitempty"`
	Id       string      `json:"id,omitempty"`
	Type     string      `json:"type,omitempty"`
	Function apiCallFunc `json:"function"`
}

type apiCallFunc struct {
	Name      string `json:"name,omitempty"`
	Arguments string `json:"arguments,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Role      string        `json:"role"`
			Content   string        `json:"content"`
			Reasoning string        `json:"reasoning"`
			ToolCalls []apiToolCall `json:"tool_calls"`
		} `json:"message"`
	} `json:"choices"`
}

type streamChunk struct {
	Choices []struct {
		Delta struct {
			Content   string        `json:"content"`
			Reasoning string        `json:"reasoning"`
			ToolCalls []apiToolCall `json:"tool_calls"`
		} `json:"delta"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

// --- Interface Implementation ---

func (p *Provider) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (*llm.Result, error) {
	options := llm.BuildOptions(opts...)

	resp, err := p.send(ctx, p.buildRequest(history, options, false))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("openrouter error: status %d, body: %s", resp.StatusCode, string(bodyBytes))
	}

	var parsed chatResponse
	if err := json.Unmarshal(bodyBytes, &parsed); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("openrouter: empty choices in response")
	}

	msg := parsed.Choices[0].Message
	return &llm.Result{
		Content:   msg.Content,
		Reasoning: msg.Reasoning,
		ToolCalls: convertToolCalls(msg.ToolCalls),
	}, nil
}

func (p *Provider) ChatStream(ctx context.Context, history []llm.Message, onDelta llm.DeltaFunc, opts ...llm.Option) (*llm.Result, error) {
	options := llm.BuildOptions(opts...)

	resp, err := p.send(ctx, p.buildRequest(history, options, true))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("openrouter error: status %d, body: %s", resp.StatusCode, string(bodyBytes))
	}

	var (
		content   strings.Builder
		reasoning strings.Builder
		calls     []partialCall
	)

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "[DONE]" {
			break
		}

		var chunk streamChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			// OpenRouter interleaves comment/keepalive payloads; skip them
			continue
		}
		if len(chunk.Choices) == 0 {
			continue
		}
		delta := chunk.Choices[0].Delta

		if delta.Reasoning != "" || delta.Content != "" {
			reasoning.WriteString(delta.Reasoning)
			content.WriteString(delta.Content)
			if err := onDelta(llm.StreamDelta{Reasoning: delta.Reasoning, Content: delta.Content}); err != nil {
				return nil, err
			}
		}

		for _, tc := range delta.ToolCalls {
			calls = mergeCallFragment(calls, tc)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read stream: %w", err)
	}

	return &llm.Result{
		Content:   content.String(),
		Reasoning: reasoning.String(),
		ToolCalls: assembleCalls(calls),
	}, nil
}

func (p *Provider) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	res, err := p.Chat(ctx, []llm.Message{{Role: "user", Content: prompt}}, opts...)
	if err != nil {
		return "", err
	}
	return res.Content, nil
}

// --- Helpers ---

func (p *Provider) buildRequest(history []llm.Message, options *llm.Options, stream bool) *chatRequest {
	model := p.ModelName
	if options.Model != "" {
		model = options.Model
	}

	messages := make([]apiMessage, len(history))
	for i, msg := range history {
		m := apiMessage{
			Role:       msg.Role,
			Content:    msg.Content,
			ToolCallId: msg.ToolCallId,
		}
		for _, tc := range msg.ToolCalls {
			m.ToolCalls = append(m.ToolCalls, apiToolCall{
				Id:   tc.Id,
				Type: "function",
				Function: apiCallFunc{
					Name:      tc.Name,
					Arguments: string(tc.Args),
				},
			})
		}
		messages[i] = m
	}

	req := &chatRequest{
		Model:       model,
		Messages:    messages,
		Stream:      stream,
		Temperature: options.Temperature,
		MaxTokens:   options.MaxTokens,
	}
	for _, tool := range options.Tools {
		req.Tools = append(req.Tools, apiTool{
			Type: "function",
			Function: apiFunction{
				Name:        tool.Name,
				Description: tool.Description,
				Parameters:  tool.Parameters,
			},
		})
	}
	if options.JSONOnly {
		req.ResponseFormat = &responseFormat{Type: "json_object"}
	}
	return req
}

func (p *Provider) send(ctx context.Context, payload *chatRequest) (*http.Response, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := p.BaseURL + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(payloadBytes))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if p.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.APIKey)
	}

	resp, err := p.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("openrouter request failed: %w", err)
	}
	return resp, nil
}

// partialCall accumulates a tool call streamed across multiple chunks.
// The index field ties argument fragments to the call they belong to.
// Arguments grow in a byte slice: the slice header survives the backing
// array moving when calls is reallocated.
type partialCall struct {
	index int
	id    string
	name  string
	args  []byte
}

func mergeCallFragment(calls []partialCall, tc apiToolCall) []partialCall {
	idx := len(calls)
	if tc.Index != nil {
		idx = *tc.Index
	}
	for idx >= len(calls) {
		calls = append(calls, partialCall{index: len(calls)})
	}
	c := &calls[idx]
	if tc.Id != "" {
		c.id = tc.Id
	}
	if tc.Function.Name != "" {
		c.name = tc.Function.Name
	}
	c.args = append(c.args, tc.Function.Arguments...)
	return calls
}

func assembleCalls(calls []partialCall) []llm.ToolCall {
	var out []llm.ToolCall
	for i := range calls {
		args := string(calls[i].args)
		if args == "" {
			args = "{}"
		}
		out = append(out, llm.ToolCall{
			Id:   calls[i].id,
			Name: calls[i].name,
			Args: json.RawMessage(args),
		})
	}
	return out
}

func convertToolCalls(calls []apiToolCall) []llm.ToolCall {
	var out []llm.ToolCall
	for _, tc := range calls {
		args := tc.Function.Arguments
		if args == "" {
			args = "{}"
		}
		out = append(out, llm.ToolCall{
			Id:   tc.Id,
			Name: tc.Function.Name,
			Args: json.RawMessage(args),
		})
	}
	return out
}
