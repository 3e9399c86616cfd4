package state

// State is the closed set of steps a conversational turn moves through.
// Answer is terminal.
type State int

const (
	Route State = iota
	Retrieve
	Grade
	Rewrite
	Answer
)

func (s State) String() string {
	switch s {
	case Route:
		return "route"
	case Retrieve:
		return "retrieve"
	case Grade:
		return "grade"
	case Rewrite:
		return "rewrite"
	case Answer:
		return "answer"
	default:
		return "unknown"
	}
}

// MaxRetries bounds the rewrite loop. After this many rewrites the grade
// step stops grading and forces answer synthesis.
const MaxRetries = 3

// Context carries the facts the transition function needs. It is assembled
// fresh by the controller before every transition.
type Context struct {
	HasToolCall bool // the router response requested tool execution
	Relevant    bool // the grader accepted the latest retrieved context
	LoopStep    int  // rewrites performed so far this turn
	MaxRetries  int
}

// Next is the pure transition function. Given the current state and the
// observed context it returns the next state; no side effects, no I/O.
func Next(s State, c Context) State {
	switch s {
	case Route:
		if c.HasToolCall {
			return Retrieve
		}
		return Answer
	case Retrieve:
		return Grade
	case Grade:
		if c.LoopStep >= c.MaxRetries {
			// Loop-limit escape: bypass grading entirely
			return Answer
		}
		if c.Relevant {
			return Answer
		}
		return Rewrite
	case Rewrite:
		return Route
	default:
		return Answer
	}
}
