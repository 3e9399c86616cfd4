package loop

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"ai-docchat-be/pkg/llm"
	"ai-docchat-be/pkg/rag/grade"
	"ai-docchat-be/pkg/rag/retrieve"
	"ai-docchat-be/pkg/rag/rewrite"
	"ai-docchat-be/pkg/rag/state"
	"ai-docchat-be/pkg/rag/stream"

	"github.com/google/uuid"
)

type nopLogger struct{}

func (nopLogger) Debug(module, message string, details map[string]interface{}) {}
func (nopLogger) Info(module, message string, details map[string]interface{})  {}
func (nopLogger) Warn(module, message string, details map[string]interface{})  {}
func (nopLogger) Error(module, message string, details map[string]interface{}) {}
func (nopLogger) Sync() error                                                  { return nil }

// scriptedChat returns canned results per ChatStream call, streaming the
// content through onDelta first, like a real provider.
type scriptedChat struct {
	results []*llm.Result
	calls   int
	options []*llm.Options
}

func (p *scriptedChat) next() *llm.Result {
	if p.calls >= len(p.results) {
		return &llm.Result{Content: "out of script"}
	}
	r := p.results[p.calls]
	p.calls++
	return r
}

func (p *scriptedChat) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (*llm.Result, error) {
	return p.next(), nil
}

func (p *scriptedChat) ChatStream(ctx context.Context, history []llm.Message, onDelta llm.DeltaFunc, options ...llm.Option) (*llm.Result, error) {
	p.options = append(p.options, llm.BuildOptions(options...))
	r := p.next()
	if r.Reasoning != "" {
		if err := onDelta(llm.StreamDelta{Reasoning: r.Reasoning}); err != nil {
			return nil, err
		}
	}
	if r.Content != "" {
		if err := onDelta(llm.StreamDelta{Content: r.Content}); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (p *scriptedChat) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return p.next().Content, nil
}

// fixedText always generates the same string; used for graders/rewriters.
type fixedText struct {
	text string
}

func (p *fixedText) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (*llm.Result, error) {
	return &llm.Result{Content: p.text}, nil
}

func (p *fixedText) ChatStream(ctx context.Context, history []llm.Message, onDelta llm.DeltaFunc, options ...llm.Option) (*llm.Result, error) {
	return &llm.Result{Content: p.text}, nil
}

func (p *fixedText) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return p.text, nil
}

type fakeRetrieval struct {
	output  string
	queries []string
}

func (f *fakeRetrieval) Run(ctx context.Context, tenantId uuid.UUID, query string) (string, error) {
	f.queries = append(f.queries, query)
	return f.output, nil
}

func searchCall(query string) llm.ToolCall {
	args, _ := json.Marshal(map[string]string{"query": query})
	return llm.ToolCall{Id: "call_1", Name: retrieve.ToolName, Args: args}
}

func collectEvents() (EmitFunc, *[]stream.Event) {
	var events []stream.Event
	return func(ev stream.Event) error {
		events = append(events, ev)
		return nil
	}, &events
}

func newConv(question string) *state.Conversation {
	conv := state.NewConversation(uuid.New(), uuid.New(), nil)
	conv.Append(llm.Message{Role: "user", Content: question})
	return conv
}

func wireLines(events []stream.Event) []string {
	var sb strings.Builder
	tr := stream.NewTranslator(&sb)
	for _, ev := range events {
		_ = tr.Translate(ev)
	}
	_ = tr.CloseThinking()
	return strings.Split(strings.TrimRight(sb.String(), "\n"), "\n")
}

func TestRunTurnRetrieveGradeAnswer(t *testing.T) {
	chat := &scriptedChat{results: []*llm.Result{
		{ToolCalls: []llm.ToolCall{searchCall("2024 revenue")}},            // route
		{Reasoning: "context has the figure", Content: "Revenue was $5M."}, // answer
	}}
	tool := &fakeRetrieval{output: "annual report excerpt\n2024 revenue: $5M"}
	ctrl := NewController(chat,
		tool,
		grade.NewGrader(&fixedText{text: `{"binary_score":"yes"}`}, "m"),
		rewrite.NewRewriter(&fixedText{text: "unused"}, "m"),
		"m", nopLogger{})

	conv := newConv("What was revenue in 2024?")
	emit, events := collectEvents()

	if err := ctrl.RunTurn(context.Background(), conv, emit); err != nil {
		t.Fatalf("RunTurn: %v", err)
	}

	if len(tool.queries) != 1 || tool.queries[0] != "2024 revenue" {
		t.Errorf("tool queries = %v", tool.queries)
	}

	// The route call offers exactly the document search tool; the answer
	// call offers none.
	if len(chat.options) != 2 {
		t.Fatalf("ChatStream calls = %d, want 2", len(chat.options))
	}
	routeTools := chat.options[0].Tools
	if len(routeTools) != 1 || routeTools[0].Name != retrieve.ToolName {
		t.Errorf("route tools = %+v", routeTools)
	}
	if len(chat.options[1].Tools) != 0 {
		t.Errorf("answer call carries tools: %+v", chat.options[1].Tools)
	}

	lines := wireLines(*events)
	joined := strings.Join(lines, "\n")
	for _, want := range []string{
		"NODE:Generate Query Or Respond",
		"TOOL_CALL:",
		"NODE:Retrieve",
		"TOOL_END:",
		"NODE:Generate Answer",
		"THINKING_START",
		"THINKING_END",
		"CONTENT:Revenue was $5M.",
	} {
		if !strings.Contains(joined, want) {
			t.Errorf("wire output missing %q:\n%s", want, joined)
		}
	}

	// The answer and the tool output land in the checkpoint.
	last := conv.Messages[len(conv.Messages)-1]
	if last.Role != "assistant" || !strings.Contains(last.Content, "$5M") {
		t.Errorf("final message = %+v", last)
	}
	if conv.LoopStep != 0 {
		t.Errorf("LoopStep = %d after turn, want 0", conv.LoopStep)
	}
}

func TestRunTurnDirectResponse(t *testing.T) {
	chat := &scriptedChat{results: []*llm.Result{
		{Content: "Hello! How can I help?"}, // route answers directly
	}}
	ctrl := NewController(chat,
		&fakeRetrieval{},
		grade.NewGrader(&fixedText{text: `{"binary_score":"no"}`}, "m"),
		rewrite.NewRewriter(&fixedText{text: "unused"}, "m"),
		"m", nopLogger{})

	conv := newConv("hi")
	emit, events := collectEvents()

	if err := ctrl.RunTurn(context.Background(), conv, emit); err != nil {
		t.Fatalf("RunTurn: %v", err)
	}

	if chat.calls != 1 {
		t.Errorf("chat calls = %d, want 1 (no second answer generation)", chat.calls)
	}
	joined := strings.Join(wireLines(*events), "\n")
	if strings.Contains(joined, "NODE:Generate Answer") {
		t.Errorf("direct response must not enter the answer step:\n%s", joined)
	}
	if !strings.Contains(joined, "CONTENT:Hello! How can I help?") {
		t.Errorf("direct response content missing:\n%s", joined)
	}
}

func TestRunTurnLoopBound(t *testing.T) {
	// The router always asks for a search, the grader always rejects the
	// context: the turn must still answer after MaxRetries rewrites.
	var results []*llm.Result
	for i := 0; i < state.MaxRetries+1; i++ {
		results = append(results, &llm.Result{ToolCalls: []llm.ToolCall{searchCall("attempt")}})
	}
	results = append(results, &llm.Result{Content: "best effort answer"})
	chat := &scriptedChat{results: results}

	rewriteProvider := &fixedText{text: "narrower query"}
	tool := &fakeRetrieval{output: "irrelevant paragraph"}
	ctrl := NewController(chat,
		tool,
		grade.NewGrader(&fixedText{text: `{"binary_score":"no"}`}, "m"),
		rewrite.NewRewriter(rewriteProvider, "m"),
		"m", nopLogger{})

	conv := newConv("obscure question")
	emit, events := collectEvents()

	if err := ctrl.RunTurn(context.Background(), conv, emit); err != nil {
		t.Fatalf("RunTurn: %v", err)
	}

	// 1 initial route + MaxRetries rewritten routes, then one answer.
	if got := len(tool.queries); got != state.MaxRetries+1 {
		t.Errorf("retrievals = %d, want %d", got, state.MaxRetries+1)
	}
	joined := strings.Join(wireLines(*events), "\n")
	if !strings.Contains(joined, "CONTENT:best effort answer") {
		t.Errorf("loop exhaustion did not reach the answer:\n%s", joined)
	}
	if conv.LoopStep != 0 {
		t.Errorf("LoopStep = %d after turn, want 0", conv.LoopStep)
	}
}

func TestRunTurnRewrittenQueryDrivesRetrievalOnly(t *testing.T) {
	chat := &scriptedChat{results: []*llm.Result{
		{ToolCalls: []llm.ToolCall{searchCall("first query")}},
		{ToolCalls: []llm.ToolCall{searchCall("rewritten query")}},
		{Content: "answer"},
	}}
	gradeScript := &scriptedChat{results: []*llm.Result{
		{Content: `{"binary_score":"no"}`},
		{Content: `{"binary_score":"yes"}`},
	}}
	ctrl := NewController(chat,
		&fakeRetrieval{output: "some context"},
		grade.NewGrader(gradeScript, "m"),
		rewrite.NewRewriter(&fixedText{text: "rewritten query"}, "m"),
		"m", nopLogger{})

	conv := newConv("original question")
	emit, _ := collectEvents()

	if err := ctrl.RunTurn(context.Background(), conv, emit); err != nil {
		t.Fatalf("RunTurn: %v", err)
	}

	// The canonical question stays the original user message.
	if got := conv.LatestQuestion(); got != "original question" {
		t.Errorf("LatestQuestion = %q, rewritten question leaked into history", got)
	}
	if conv.RewrittenQuestion != "" {
		t.Errorf("RewrittenQuestion = %q after turn, want empty", conv.RewrittenQuestion)
	}
	for _, m := range conv.Messages {
		if m.Role == "user" && m.Content == "rewritten query" {
			t.Error("rewritten query was persisted as a user message")
		}
	}
}

func TestRunTurnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	chat := &scriptedChat{results: []*llm.Result{{Content: "never"}}}
	ctrl := NewController(chat,
		&fakeRetrieval{},
		grade.NewGrader(&fixedText{text: `{"binary_score":"no"}`}, "m"),
		rewrite.NewRewriter(&fixedText{text: "x"}, "m"),
		"m", nopLogger{})

	emit, _ := collectEvents()
	err := ctrl.RunTurn(ctx, newConv("q"), emit)
	if err == nil {
		t.Fatal("RunTurn succeeded with a cancelled context")
	}
	if chat.calls != 0 {
		t.Errorf("model was called %d times after cancellation", chat.calls)
	}
}
