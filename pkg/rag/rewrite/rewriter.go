package rewrite

import (
	"context"
	"fmt"
	"strings"

	"ai-docchat-be/pkg/llm"
	"ai-docchat-be/pkg/rag/prompt"
)

// Rewriter reformulates a question after a failed retrieval. The strategy is
// keyed by how many rewrites already happened this turn: first a sharper
// technical restatement, then bare search keywords, then only the dates and
// proper nouns.
type Rewriter struct {
	provider llm.Provider
	model    string
}

func NewRewriter(provider llm.Provider, model string) *Rewriter {
	return &Rewriter{
		provider: provider,
		model:    model,
	}
}

// Rewrite returns the reformulated query for the given retry depth. The
// model output is used verbatim apart from whitespace trimming.
func (r *Rewriter) Rewrite(ctx context.Context, question string, loopStep int) (string, error) {
	out, err := r.provider.Generate(ctx, prompt.RewriteInstruction(loopStep, question),
		llm.WithModel(r.model),
		llm.WithTemperature(0),
	)
	if err != nil {
		return "", fmt.Errorf("query rewrite at step %d: %w", loopStep, err)
	}

	rewritten := strings.TrimSpace(out)
	if rewritten == "" {
		// A blank rewrite would stall retrieval; keep the original question.
		return question, nil
	}
	return rewritten, nil
}
