package rewrite

import (
	"context"
	"strings"
	"testing"

	"ai-docchat-be/pkg/llm"
	"ai-docchat-be/pkg/rag/prompt"
)

type echoProvider struct {
	lastPrompt string
	response   string
}

func (p *echoProvider) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (*llm.Result, error) {
	return &llm.Result{Content: p.response}, nil
}

func (p *echoProvider) ChatStream(ctx context.Context, history []llm.Message, onDelta llm.DeltaFunc, options ...llm.Option) (*llm.Result, error) {
	return &llm.Result{Content: p.response}, nil
}

func (p *echoProvider) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	p.lastPrompt = prompt
	return p.response, nil
}

func TestRewriteStrategyEscalation(t *testing.T) {
	question := "What was revenue in 2024?"

	tests := []struct {
		loopStep int
		marker   string
	}{
		{loopStep: 0, marker: "more specific and technical"},
		{loopStep: 1, marker: "3-4 distinct keywords"},
		{loopStep: 2, marker: "dates or proper nouns"},
		{loopStep: 5, marker: "dates or proper nouns"},
	}

	for _, tt := range tests {
		provider := &echoProvider{response: "rewritten"}
		r := NewRewriter(provider, "test-model")

		if _, err := r.Rewrite(context.Background(), question, tt.loopStep); err != nil {
			t.Fatalf("Rewrite(step=%d): %v", tt.loopStep, err)
		}
		if !strings.Contains(provider.lastPrompt, tt.marker) {
			t.Errorf("step %d: prompt %q missing marker %q", tt.loopStep, provider.lastPrompt, tt.marker)
		}
		if !strings.Contains(provider.lastPrompt, question) {
			t.Errorf("step %d: prompt does not carry the question", tt.loopStep)
		}
	}
}

func TestRewriteSameStepSamePrompt(t *testing.T) {
	for step := 0; step <= 3; step++ {
		a := prompt.RewriteInstruction(step, "q")
		b := prompt.RewriteInstruction(step, "q")
		if a != b {
			t.Errorf("step %d: instruction is not deterministic", step)
		}
	}
}

func TestRewriteTrimsOutput(t *testing.T) {
	r := NewRewriter(&echoProvider{response: "  revenue 2024 fiscal report \n"}, "test-model")
	got, err := r.Rewrite(context.Background(), "q", 0)
	if err != nil {
		t.Fatalf("Rewrite: %v", err)
	}
	if got != "revenue 2024 fiscal report" {
		t.Errorf("rewritten = %q, want trimmed output", got)
	}
}

func TestRewriteBlankOutputFallsBack(t *testing.T) {
	r := NewRewriter(&echoProvider{response: "   "}, "test-model")
	got, err := r.Rewrite(context.Background(), "original question", 1)
	if err != nil {
		t.Fatalf("Rewrite: %v", err)
	}
	if got != "original question" {
		t.Errorf("rewritten = %q, want fallback to the original question", got)
	}
}
