package state

import "testing"

func TestNextTransitions(t *testing.T) {
	tests := []struct {
		name string
		from State
		ctx  Context
		want State
	}{
		{name: "route with tool call", from: Route, ctx: Context{HasToolCall: true, MaxRetries: MaxRetries}, want: Retrieve},
		{name: "route direct response", from: Route, ctx: Context{MaxRetries: MaxRetries}, want: Answer},
		{name: "retrieve always grades", from: Retrieve, ctx: Context{MaxRetries: MaxRetries}, want: Grade},
		{name: "grade relevant", from: Grade, ctx: Context{Relevant: true, MaxRetries: MaxRetries}, want: Answer},
		{name: "grade irrelevant", from: Grade, ctx: Context{MaxRetries: MaxRetries}, want: Rewrite},
		{name: "grade at loop limit ignores verdict", from: Grade, ctx: Context{Relevant: false, LoopStep: MaxRetries, MaxRetries: MaxRetries}, want: Answer},
		{name: "grade past loop limit", from: Grade, ctx: Context{LoopStep: MaxRetries + 1, MaxRetries: MaxRetries}, want: Answer},
		{name: "rewrite loops to route", from: Rewrite, ctx: Context{MaxRetries: MaxRetries}, want: Route},
		{name: "answer is terminal", from: Answer, ctx: Context{MaxRetries: MaxRetries}, want: Answer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Next(tt.from, tt.ctx); got != tt.want {
				t.Errorf("Next(%v) = %v, want %v", tt.from, got, tt.want)
			}
		})
	}
}

func TestLoopBound(t *testing.T) {
	// Grader that always says no: count rewrites until Answer.
	s := Route
	rewrites := 0
	loopStep := 0

	for steps := 0; steps < 50 && s != Answer; steps++ {
		ctx := Context{
			HasToolCall: true,
			Relevant:    false,
			LoopStep:    loopStep,
			MaxRetries:  MaxRetries,
		}
		s = Next(s, ctx)
		if s == Rewrite {
			rewrites++
			loopStep++
		}
	}

	if s != Answer {
		t.Fatal("loop did not terminate in Answer")
	}
	if rewrites != MaxRetries {
		t.Errorf("rewrites = %d, want %d", rewrites, MaxRetries)
	}
}

func TestConversationLatestQuestion(t *testing.T) {
	c := NewConversation(newUUID(t), newUUID(t), nil)
	c.Append(
		msg("user", "first question"),
		msg("assistant", "first answer"),
		msg("user", "second question"),
		msg("tool", "retrieved context"),
	)

	if got := c.LatestQuestion(); got != "second question" {
		t.Errorf("LatestQuestion = %q, want the most recent user message", got)
	}

	tool, ok := c.LatestToolContent()
	if !ok || tool != "retrieved context" {
		t.Errorf("LatestToolContent = %q, %v", tool, ok)
	}
}

func TestConversationNoToolContent(t *testing.T) {
	c := NewConversation(newUUID(t), newUUID(t), nil)
	c.Append(msg("user", "hello"))

	if _, ok := c.LatestToolContent(); ok {
		t.Error("LatestToolContent reported content for a turn without retrieval")
	}
}
