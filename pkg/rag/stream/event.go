package stream

import "ai-docchat-be/pkg/llm"

// Step identifies the logical step an event originated from. Internal steps
// (grading, rewriting) never surface on the wire.
type Step struct {
	Name     string
	Internal bool
}

var (
	StepRoute    = Step{Name: "Generate Query Or Respond"}
	StepRetrieve = Step{Name: "Retrieve"}
	StepGrade    = Step{Name: "Grade Documents", Internal: true}
	StepRewrite  = Step{Name: "Rewrite Question", Internal: true}
	StepAnswer   = Step{Name: "Generate Answer"}
)

// Event is the closed set of internal events produced while a turn executes.
// Keeping the variants closed lets the translator branch exhaustively.
type Event interface {
	isEvent()
}

// NodeStart marks entry into a logical step.
type NodeStart struct {
	Step Step
}

// TokenReasoning carries a fragment of model deliberation.
type TokenReasoning struct {
	Step Step
	Text string
}

// TokenContent carries a fragment of user-facing answer text.
type TokenContent struct {
	Step Step
	Text string
}

// GenerationEnd marks the end of one model generation within a step.
type GenerationEnd struct {
	Step Step
}

// ToolCallRequested reports a tool invocation the model asked for.
type ToolCallRequested struct {
	Call llm.ToolCall
}

// ToolResult reports the textual output of an executed tool.
type ToolResult struct {
	Name   string
	Output string
}

func (NodeStart) isEvent()         {}
func (TokenReasoning) isEvent()    {}
func (TokenContent) isEvent()      {}
func (GenerationEnd) isEvent()     {}
func (ToolCallRequested) isEvent() {}
func (ToolResult) isEvent()        {}
