package loop

import (
	"context"
	"fmt"

	"ai-docchat-be/internal/pkg/logger"
	"ai-docchat-be/pkg/llm"
	"ai-docchat-be/pkg/rag/grade"
	"ai-docchat-be/pkg/rag/prompt"
	"ai-docchat-be/pkg/rag/retrieve"
	"ai-docchat-be/pkg/rag/rewrite"
	"ai-docchat-be/pkg/rag/state"
	"ai-docchat-be/pkg/rag/stream"

	"github.com/google/uuid"
)

// EmitFunc delivers one stream event to the transport. A returned error
// (usually a disconnected consumer) stops the turn at the next suspension
// point.
type EmitFunc func(ev stream.Event) error

// RetrievalRunner executes a document search for one tenant. Satisfied by
// retrieve.Tool.
type RetrievalRunner interface {
	Run(ctx context.Context, tenantId uuid.UUID, query string) (string, error)
}

// Controller drives one conversational turn through the bounded retry loop:
// route, retrieve, grade, rewrite (up to state.MaxRetries times), answer.
type Controller struct {
	provider llm.Provider
	tool     RetrievalRunner
	grader   *grade.Grader
	rewriter *rewrite.Rewriter
	logger   logger.ILogger
	model    string
}

func NewController(provider llm.Provider, tool RetrievalRunner, grader *grade.Grader, rewriter *rewrite.Rewriter, model string, log logger.ILogger) *Controller {
	return &Controller{
		provider: provider,
		tool:     tool,
		grader:   grader,
		rewriter: rewriter,
		logger:   log,
		model:    model,
	}
}

// RunTurn executes the state machine until Answer completes. The caller owns
// the conversation checkpoint: messages produced here are appended to conv
// and persisted afterwards. Steps are strictly sequential; cancellation is
// honored between steps, not mid-generation.
func (c *Controller) RunTurn(ctx context.Context, conv *state.Conversation, emit EmitFunc) error {
	conv.LoopStep = 0
	conv.RewrittenQuestion = ""

	current := state.Route
	// Set when the router responds directly; the Answer state then skips its
	// own generation because the user-visible response already streamed.
	responded := false

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		trans := state.Context{
			LoopStep:   conv.LoopStep,
			MaxRetries: state.MaxRetries,
		}

		switch current {
		case state.Route:
			result, err := c.route(ctx, conv, emit)
			if err != nil {
				return err
			}
			trans.HasToolCall = len(result.ToolCalls) > 0
			responded = !trans.HasToolCall

		case state.Retrieve:
			if err := c.retrieve(ctx, conv, emit); err != nil {
				return err
			}

		case state.Grade:
			if conv.LoopStep < state.MaxRetries {
				retrieved, _ := conv.LatestToolContent()
				decision, err := c.grader.Grade(ctx, conv.LatestQuestion(), retrieved)
				if err != nil {
					return err
				}
				trans.Relevant = decision.Relevant()
				c.logger.Debug("rag_loop", "context graded", map[string]interface{}{
					"thread_id": conv.ThreadId.String(),
					"relevant":  trans.Relevant,
					"loop_step": conv.LoopStep,
				})
			}

		case state.Rewrite:
			rewritten, err := c.rewriter.Rewrite(ctx, conv.LatestQuestion(), conv.LoopStep)
			if err != nil {
				return err
			}
			conv.RewrittenQuestion = rewritten
			conv.LoopStep++

		case state.Answer:
			if !responded {
				if err := c.answer(ctx, conv, emit); err != nil {
					return err
				}
			}
			conv.LoopStep = 0
			return nil
		}

		trans.LoopStep = conv.LoopStep
		current = state.Next(current, trans)
	}
}

// route asks the model to either call the retrieval tool or answer directly.
// A pending rewritten question replaces the history as the model's input and
// is consumed here; it never becomes part of the canonical conversation.
func (c *Controller) route(ctx context.Context, conv *state.Conversation, emit EmitFunc) (*llm.Result, error) {
	if err := emit(stream.NodeStart{Step: stream.StepRoute}); err != nil {
		return nil, err
	}

	messages := []llm.Message{{Role: "system", Content: prompt.RouterSystemPrompt}}
	if conv.RewrittenQuestion != "" {
		messages = append(messages, llm.Message{Role: "user", Content: conv.RewrittenQuestion})
		conv.RewrittenQuestion = ""
	} else {
		messages = append(messages, conv.Messages...)
	}

	result, err := c.stream(ctx, messages, stream.StepRoute, emit,
		llm.WithModel(c.model),
		llm.WithTools(retrieve.Definition()),
	)
	if err != nil {
		return nil, err
	}

	conv.Append(llm.Message{
		Role:      "assistant",
		Content:   result.Content,
		Reasoning: result.Reasoning,
		ToolCalls: result.ToolCalls,
	})

	for _, call := range result.ToolCalls {
		if err := emit(stream.ToolCallRequested{Call: call}); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// retrieve executes every tool call from the last router response and appends
// one tool message per call.
func (c *Controller) retrieve(ctx context.Context, conv *state.Conversation, emit EmitFunc) error {
	if err := emit(stream.NodeStart{Step: stream.StepRetrieve}); err != nil {
		return err
	}

	calls := lastToolCalls(conv)
	if len(calls) == 0 {
		return fmt.Errorf("retrieve step reached without a pending tool call")
	}

	for _, call := range calls {
		query, err := retrieve.ParseArgs(call.Args)
		if err != nil {
			return err
		}
		output, err := c.tool.Run(ctx, conv.TenantId, query)
		if err != nil {
			return err
		}

		conv.Append(llm.Message{
			Role:       "tool",
			Content:    output,
			ToolCallId: call.Id,
		})
		if err := emit(stream.ToolResult{Name: call.Name, Output: output}); err != nil {
			return err
		}
	}
	return nil
}

// answer synthesizes the final response from the full history plus the most
// recent retrieved context.
func (c *Controller) answer(ctx context.Context, conv *state.Conversation, emit EmitFunc) error {
	if err := emit(stream.NodeStart{Step: stream.StepAnswer}); err != nil {
		return err
	}

	retrieved, ok := conv.LatestToolContent()
	if !ok {
		retrieved = prompt.NoContextSentinel
	}

	messages := append(
		[]llm.Message{{Role: "system", Content: prompt.AnswerSystem(retrieved)}},
		conv.Messages...,
	)

	result, err := c.stream(ctx, messages, stream.StepAnswer, emit, llm.WithModel(c.model))
	if err != nil {
		return err
	}

	conv.Append(llm.Message{
		Role:      "assistant",
		Content:   result.Content,
		Reasoning: result.Reasoning,
	})
	return nil
}

func (c *Controller) stream(ctx context.Context, messages []llm.Message, step stream.Step, emit EmitFunc, opts ...llm.Option) (*llm.Result, error) {
	result, err := c.provider.ChatStream(ctx, messages, func(delta llm.StreamDelta) error {
		if delta.Reasoning != "" {
			if err := emit(stream.TokenReasoning{Step: step, Text: delta.Reasoning}); err != nil {
				return err
			}
		}
		if delta.Content != "" {
			if err := emit(stream.TokenContent{Step: step, Text: delta.Content}); err != nil {
				return err
			}
		}
		return nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("generation in step %s: %w", step.Name, err)
	}

	if err := emit(stream.GenerationEnd{Step: step}); err != nil {
		return nil, err
	}
	return result, nil
}

func lastToolCalls(conv *state.Conversation) []llm.ToolCall {
	for i := len(conv.Messages) - 1; i >= 0; i-- {
		if conv.Messages[i].Role == "assistant" {
			return conv.Messages[i].ToolCalls
		}
	}
	return nil
}
