package openrouter

import "testing"

func idx(i int) *int { return &i }

func TestMergeCallFragmentInterleaved(t *testing.T) {
	var calls []partialCall

	// First call opens, a second call forces the slice to grow, then more
	// argument fragments arrive for the first call.
	calls = mergeCallFragment(calls, apiToolCall{
		Index: idx(0), Id: "call_a",
		Function: apiCallFunc{Name: "search_documents", Arguments: `{"query":"reve`},
	})
	calls = mergeCallFragment(calls, apiToolCall{
		Index: idx(1), Id: "call_b",
		Function: apiCallFunc{Name: "search_documents", Arguments: `{"query":"costs"}`},
	})
	calls = mergeCallFragment(calls, apiToolCall{
		Index:    idx(0),
		Function: apiCallFunc{Arguments: `nue"}`},
	})

	out := assembleCalls(calls)
	if len(out) != 2 {
		t.Fatalf("assembled %d calls, want 2", len(out))
	}
	if out[0].Id != "call_a" || string(out[0].Args) != `{"query":"revenue"}` {
		t.Errorf("call 0 = %s %s", out[0].Id, out[0].Args)
	}
	if out[1].Id != "call_b" || string(out[1].Args) != `{"query":"costs"}` {
		t.Errorf("call 1 = %s %s", out[1].Id, out[1].Args)
	}
}

func TestMergeCallFragmentNoIndex(t *testing.T) {
	var calls []partialCall

	calls = mergeCallFragment(calls, apiToolCall{
		Id:       "call_a",
		Function: apiCallFunc{Name: "search_documents", Arguments: `{"query":"x"}`},
	})

	out := assembleCalls(calls)
	if len(out) != 1 || out[0].Id != "call_a" {
		t.Fatalf("assembled = %+v", out)
	}
}

func TestAssembleCallsEmptyArgs(t *testing.T) {
	calls := []partialCall{{id: "call_a", name: "search_documents"}}

	out := assembleCalls(calls)
	if string(out[0].Args) != "{}" {
		t.Errorf("empty args = %s, want {}", out[0].Args)
	}
}
