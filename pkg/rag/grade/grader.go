package grade

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"ai-docchat-be/pkg/llm"
	"ai-docchat-be/pkg/rag/prompt"
	"ai-docchat-be/pkg/rag/retrieve"
)

const (
	ScoreYes = "yes"
	ScoreNo  = "no"
)

// Decision is the grader's binary verdict. There is no "partially relevant";
// the loop stays deterministic because the verdict is one of two values.
type Decision struct {
	BinaryScore string `json:"binary_score"`
}

func (d Decision) Relevant() bool {
	return d.BinaryScore == ScoreYes
}

// Grader classifies whether retrieved context answers a question. Uncertain
// or empty context resolves to "no"; retrieval runs again with a rewritten
// query instead of answering from bad context.
type Grader struct {
	provider llm.Provider
	model    string
}

func NewGrader(provider llm.Provider, model string) *Grader {
	return &Grader{
		provider: provider,
		model:    model,
	}
}

func (g *Grader) Grade(ctx context.Context, question, retrievedContext string) (Decision, error) {
	// Nothing retrieved means nothing to grade; skip the model call.
	if retrieve.IsEmpty(strings.TrimSpace(retrievedContext)) {
		return Decision{BinaryScore: ScoreNo}, nil
	}

	raw, err := g.provider.Generate(ctx, prompt.GradeDocuments(question, retrievedContext),
		llm.WithModel(g.model),
		llm.WithTemperature(0),
		llm.WithJSONResponse(),
	)
	if err != nil {
		return Decision{}, fmt.Errorf("relevance grading: %w", err)
	}

	decision, err := parseDecision(raw)
	if err != nil {
		return Decision{}, err
	}
	return decision, nil
}

func parseDecision(raw string) (Decision, error) {
	var d Decision
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &d); err != nil {
		return Decision{}, fmt.Errorf("grader returned malformed JSON %q: %w", raw, err)
	}
	if d.BinaryScore != ScoreYes && d.BinaryScore != ScoreNo {
		return Decision{}, fmt.Errorf("grader returned invalid score %q", d.BinaryScore)
	}
	return d, nil
}
