package stream

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"ai-docchat-be/pkg/llm"
)

func emit(t *testing.T, events ...Event) []string {
	t.Helper()
	var buf bytes.Buffer
	tr := NewTranslator(&buf)
	for _, ev := range events {
		if err := tr.Translate(ev); err != nil {
			t.Fatalf("Translate(%T): %v", ev, err)
		}
	}
	if err := tr.CloseThinking(); err != nil {
		t.Fatalf("CloseThinking: %v", err)
	}
	out := strings.TrimRight(buf.String(), "\n")
	if out == "" {
		return nil
	}
	return strings.Split(out, "\n")
}

func TestTranslateVisibleSteps(t *testing.T) {
	lines := emit(t,
		NodeStart{Step: StepRoute},
		TokenContent{Step: StepRoute, Text: "Hello"},
		GenerationEnd{Step: StepRoute},
	)

	want := []string{"NODE:Generate Query Or Respond", "CONTENT:Hello"}
	if len(lines) != len(want) {
		t.Fatalf("lines = %v, want %v", lines, want)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestTranslateInternalStepsFiltered(t *testing.T) {
	lines := emit(t,
		NodeStart{Step: StepGrade},
		TokenReasoning{Step: StepGrade, Text: "judging relevance"},
		TokenContent{Step: StepGrade, Text: `{"binary_score":"no"}`},
		GenerationEnd{Step: StepGrade},
		NodeStart{Step: StepRewrite},
		TokenContent{Step: StepRewrite, Text: "rewritten query"},
	)

	if len(lines) != 0 {
		t.Errorf("internal steps leaked to the wire: %v", lines)
	}
}

func TestTranslateThinkBlockLifecycle(t *testing.T) {
	lines := emit(t,
		NodeStart{Step: StepAnswer},
		TokenReasoning{Step: StepAnswer, Text: "step one"},
		TokenReasoning{Step: StepAnswer, Text: "step two"},
		TokenContent{Step: StepAnswer, Text: "The answer"},
		TokenContent{Step: StepAnswer, Text: " is 42."},
	)

	want := []string{
		"NODE:Generate Answer",
		"THINKING_START",
		"THINKING:step one",
		"THINKING:step two",
		"THINKING_END",
		"CONTENT:The answer",
		"CONTENT: is 42.",
	}
	if len(lines) != len(want) {
		t.Fatalf("lines = %v, want %v", lines, want)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}
}

// An open think block must be closed before the stream ends, and CONTENT
// never follows THINKING without an intervening THINKING_END.
func TestTranslateThinkBlockClosure(t *testing.T) {
	sequences := [][]Event{
		{TokenReasoning{Step: StepAnswer, Text: "only reasoning"}},
		{TokenReasoning{Step: StepAnswer, Text: "r"}, GenerationEnd{Step: StepAnswer}},
		{TokenReasoning{Step: StepAnswer, Text: "r"}, TokenContent{Step: StepAnswer, Text: "c"}},
		{
			TokenReasoning{Step: StepAnswer, Text: "r1"},
			TokenContent{Step: StepAnswer, Text: "c1"},
			TokenReasoning{Step: StepAnswer, Text: "r2"},
		},
	}

	for i, events := range sequences {
		lines := emit(t, events...)

		open := false
		for j, line := range lines {
			switch {
			case line == "THINKING_START":
				open = true
			case line == "THINKING_END":
				open = false
			case strings.HasPrefix(line, "CONTENT:") && open:
				t.Errorf("sequence %d line %d: CONTENT inside an open think block", i, j)
			}
		}
		if open {
			t.Errorf("sequence %d: stream ended with an open think block: %v", i, lines)
		}
	}
}

func TestTranslateEmptyFragmentsIgnored(t *testing.T) {
	lines := emit(t,
		TokenReasoning{Step: StepAnswer, Text: ""},
		TokenContent{Step: StepAnswer, Text: ""},
	)
	if len(lines) != 0 {
		t.Errorf("empty fragments produced output: %v", lines)
	}
}

func TestTranslateToolCall(t *testing.T) {
	lines := emit(t, ToolCallRequested{Call: llm.ToolCall{
		Id:   "call_1",
		Name: "search_documents",
		Args: json.RawMessage(`{"query":"revenue 2024"}`),
	}})

	if len(lines) != 1 || !strings.HasPrefix(lines[0], "TOOL_CALL:") {
		t.Fatalf("lines = %v", lines)
	}
	var payload struct {
		Name string          `json:"name"`
		Args json.RawMessage `json:"args"`
		Id   string          `json:"id"`
	}
	if err := json.Unmarshal([]byte(strings.TrimPrefix(lines[0], "TOOL_CALL:")), &payload); err != nil {
		t.Fatalf("payload is not JSON: %v", err)
	}
	if payload.Name != "search_documents" || payload.Id != "call_1" {
		t.Errorf("payload = %+v", payload)
	}
}

func TestTranslateToolResultTruncation(t *testing.T) {
	long := strings.Repeat("x", 350)
	lines := emit(t, ToolResult{Name: "search_documents", Output: long})

	if len(lines) != 1 {
		t.Fatalf("lines = %v", lines)
	}
	var payload struct {
		Name   string `json:"name"`
		Output string `json:"output"`
	}
	if err := json.Unmarshal([]byte(strings.TrimPrefix(lines[0], "TOOL_END:")), &payload); err != nil {
		t.Fatalf("payload is not JSON: %v", err)
	}
	if len(payload.Output) != 203 || !strings.HasSuffix(payload.Output, "...") {
		t.Errorf("output length = %d, want 200 chars plus ellipsis", len(payload.Output))
	}

	short := emit(t, ToolResult{Name: "search_documents", Output: "tiny"})
	if !strings.Contains(short[0], `"output":"tiny"`) {
		t.Errorf("short output was altered: %v", short)
	}
}

func TestTranslateToolResultTruncationMultibyte(t *testing.T) {
	long := strings.Repeat("収", 250)
	lines := emit(t, ToolResult{Name: "search_documents", Output: long})

	var payload struct {
		Output string `json:"output"`
	}
	if err := json.Unmarshal([]byte(strings.TrimPrefix(lines[0], "TOOL_END:")), &payload); err != nil {
		t.Fatalf("payload is not JSON: %v", err)
	}
	if !utf8.ValidString(payload.Output) || strings.ContainsRune(payload.Output, utf8.RuneError) {
		t.Errorf("output cut mid-rune: %q", payload.Output[:20])
	}
	runes := []rune(payload.Output)
	if len(runes) != 203 || string(runes[:200]) != strings.Repeat("収", 200) {
		t.Errorf("output runes = %d, want 200 chars plus ellipsis", len(runes))
	}
}

func TestFailEmitsErrorLine(t *testing.T) {
	var buf bytes.Buffer
	tr := NewTranslator(&buf)
	tr.Fail(errors.New("generation failed"))

	if got := buf.String(); got != "ERROR:generation failed\n" {
		t.Errorf("output = %q", got)
	}
}
