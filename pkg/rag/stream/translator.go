package stream

import (
	"encoding/json"
	"fmt"
	"io"
)

// Flusher is the subset of bufio.Writer the translator needs beyond io.Writer.
// Flushing after every line is what gives the transport backpressure: the
// producer suspends until the line left the process.
type Flusher interface {
	Flush() error
}

// Translator turns internal events into the line-based wire protocol:
//
//	NODE:<step name>       externally visible step entered
//	THINKING_START         reasoning channel opened
//	THINKING:<fragment>    reasoning content
//	THINKING_END           reasoning channel closed
//	CONTENT:<fragment>     user-visible answer content
//	TOOL_CALL:<json>       tool invocation requested
//	TOOL_END:<json>        tool result (output capped at 200 chars)
//	ERROR:<message>        unrecoverable stream failure
type Translator struct {
	w            io.Writer
	inThinkBlock bool
}

const toolOutputLimit = 200

func NewTranslator(w io.Writer) *Translator {
	return &Translator{w: w}
}

type toolCallPayload struct {
	Name string          `json:"name"`
	Args json.RawMessage `json:"args"`
	Id   string          `json:"id"`
}

type toolEndPayload struct {
	Name   string `json:"name"`
	Output string `json:"output"`
}

// Translate emits the wire lines for one event. Events from internal steps
// are filtered entirely and never reach the client.
func (t *Translator) Translate(ev Event) error {
	switch e := ev.(type) {
	case NodeStart:
		if e.Step.Internal {
			return nil
		}
		return t.writeLine("NODE:" + e.Step.Name)

	case TokenReasoning:
		if e.Step.Internal || e.Text == "" {
			return nil
		}
		if !t.inThinkBlock {
			if err := t.writeLine("THINKING_START"); err != nil {
				return err
			}
			t.inThinkBlock = true
		}
		return t.writeLine("THINKING:" + e.Text)

	case TokenContent:
		if e.Step.Internal || e.Text == "" {
			return nil
		}
		if t.inThinkBlock {
			if err := t.writeLine("THINKING_END"); err != nil {
				return err
			}
			t.inThinkBlock = false
		}
		return t.writeLine("CONTENT:" + e.Text)

	case GenerationEnd:
		// Safety cleanup before any trailing tool calls
		return t.CloseThinking()

	case ToolCallRequested:
		args := e.Call.Args
		if len(args) == 0 {
			args = json.RawMessage("{}")
		}
		data, err := json.Marshal(toolCallPayload{
			Name: e.Call.Name,
			Args: args,
			Id:   e.Call.Id,
		})
		if err != nil {
			return err
		}
		return t.writeLine("TOOL_CALL:" + string(data))

	case ToolResult:
		output := e.Output
		// Character count, not bytes: a byte cut can land mid-rune
		if runes := []rune(output); len(runes) > toolOutputLimit {
			output = string(runes[:toolOutputLimit]) + "..."
		}
		data, err := json.Marshal(toolEndPayload{
			Name:   e.Name,
			Output: output,
		})
		if err != nil {
			return err
		}
		return t.writeLine("TOOL_END:" + string(data))

	default:
		return fmt.Errorf("unhandled event type %T", ev)
	}
}

// CloseThinking closes an open think block. Called before any trailing tool
// calls and as a final safety net before the stream terminates.
func (t *Translator) CloseThinking() error {
	if !t.inThinkBlock {
		return nil
	}
	t.inThinkBlock = false
	return t.writeLine("THINKING_END")
}

// Fail emits the terminal ERROR line. The stream must end after this.
func (t *Translator) Fail(err error) {
	// Best effort: the stream is already failing
	_ = t.writeLine("ERROR:" + err.Error())
}

func (t *Translator) writeLine(line string) error {
	if _, err := fmt.Fprintf(t.w, "%s\n", line); err != nil {
		return err
	}
	if f, ok := t.w.(Flusher); ok {
		return f.Flush()
	}
	return nil
}
