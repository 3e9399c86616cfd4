package chunker

import (
	"strings"
	"testing"
)

func buildTable(headerWidth, rowWidth, rowCount int) string {
	header := strings.Repeat("h", headerWidth/2) + "\n" + strings.Repeat("-", headerWidth-headerWidth/2-1)
	rows := make([]string, rowCount)
	for i := range rows {
		rows[i] = strings.Repeat(string(rune('a'+i%26)), rowWidth)
	}
	return header + "\n" + strings.Join(rows, "\n")
}

func TestOptimizeTableHeaderPreservation(t *testing.T) {
	table := buildTable(40, 30, 50)
	lines := strings.Split(table, "\n")
	header := lines[0] + "\n" + lines[1]
	originalRows := lines[2:]

	pieces := NewOptimizer().Optimize([]Segment{{Content: table, Type: SegmentTable}})

	if len(pieces) < 2 {
		t.Fatalf("expected the table to split, got %d piece(s)", len(pieces))
	}

	var reassembled []string
	for i, p := range pieces {
		if p.Type != SegmentTable {
			t.Errorf("piece %d: Type = %q, want %q", i, p.Type, SegmentTable)
		}
		if p.SplitPart != SplitPartTable {
			t.Errorf("piece %d: SplitPart = %q, want %q", i, p.SplitPart, SplitPartTable)
		}
		if len(p.Content) > SplitThreshold {
			t.Errorf("piece %d: length %d exceeds threshold %d", i, len(p.Content), SplitThreshold)
		}
		pl := strings.Split(p.Content, "\n")
		if len(pl) < 3 {
			t.Fatalf("piece %d: too few lines: %d", i, len(pl))
		}
		if got := pl[0] + "\n" + pl[1]; got != header {
			t.Errorf("piece %d: header block = %q, want %q", i, got, header)
		}
		reassembled = append(reassembled, pl[2:]...)
	}

	if len(reassembled) != len(originalRows) {
		t.Fatalf("reassembled %d rows, want %d", len(reassembled), len(originalRows))
	}
	for i := range originalRows {
		if reassembled[i] != originalRows[i] {
			t.Errorf("row %d = %q, want %q", i, reassembled[i], originalRows[i])
		}
	}
}

func TestOptimizeSmallTableUnsplit(t *testing.T) {
	table := buildTable(40, 30, 5)
	pieces := NewOptimizer().Optimize([]Segment{{Content: table, Type: SegmentTable}})

	if len(pieces) != 1 {
		t.Fatalf("expected 1 piece, got %d", len(pieces))
	}
	if pieces[0].SplitPart != "" {
		t.Errorf("SplitPart = %q, want empty for an unsplit table", pieces[0].SplitPart)
	}
	if pieces[0].Content != table {
		t.Error("unsplit table content changed")
	}
}

func TestOptimizeSmallTextMerge(t *testing.T) {
	big := strings.Repeat("x", 800)
	small := strings.Repeat("y", 20)

	pieces := NewOptimizer().Optimize([]Segment{
		{Content: big, Type: SegmentText},
		{Content: small, Type: SegmentText},
	})

	if len(pieces) != 1 {
		t.Fatalf("expected merge into 1 piece, got %d", len(pieces))
	}
	want := big + "\n\n" + small
	if pieces[0].Content != want {
		t.Errorf("merged content = %d chars, want %d with blank-line separator", len(pieces[0].Content), len(want))
	}
	if len(pieces[0].Content) < 820 {
		t.Errorf("merged length %d, want >= 820", len(pieces[0].Content))
	}
}

func TestOptimizeSmallTextAfterTableStaysStandalone(t *testing.T) {
	table := buildTable(40, 30, 5)
	small := strings.Repeat("y", 20)

	pieces := NewOptimizer().Optimize([]Segment{
		{Content: table, Type: SegmentTable},
		{Content: small, Type: SegmentText},
	})

	if len(pieces) != 2 {
		t.Fatalf("expected 2 pieces, got %d", len(pieces))
	}
	if pieces[0].Content != table {
		t.Error("table content changed")
	}
	if pieces[1].Content != small {
		t.Errorf("small text = %q, want standalone %q", pieces[1].Content, small)
	}
}

func TestOptimizeMediumTextUnchanged(t *testing.T) {
	mid := strings.Repeat("z", 600)
	pieces := NewOptimizer().Optimize([]Segment{{Content: mid, Type: SegmentText}})

	if len(pieces) != 1 {
		t.Fatalf("expected 1 piece, got %d", len(pieces))
	}
	if pieces[0].Content != mid {
		t.Error("mid-size text should pass through unchanged")
	}
}

func TestOptimizeOversizedTextSplits(t *testing.T) {
	paras := make([]string, 8)
	for i := range paras {
		paras[i] = strings.Repeat("p", 900)
	}
	long := strings.Join(paras, "\n\n")

	pieces := NewOptimizer().Optimize([]Segment{{Content: long, Type: SegmentText}})

	if len(pieces) < 2 {
		t.Fatalf("expected oversized text to split, got %d piece(s)", len(pieces))
	}
	for i, p := range pieces {
		if len(p.Content) > SplitterTarget+SplitterOverlap {
			t.Errorf("piece %d: length %d exceeds target+overlap", i, len(p.Content))
		}
		if p.Type != SegmentText {
			t.Errorf("piece %d: Type = %q, want text", i, p.Type)
		}
	}
}

func TestRecursiveSplitterCoversInput(t *testing.T) {
	text := strings.Repeat("abcde ", 2000) // 12000 chars, word-separated
	s := NewRecursiveSplitter(SplitterTarget, SplitterOverlap)
	chunks := s.Split(text)

	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if len(c) == 0 {
			t.Errorf("chunk %d is empty", i)
		}
	}
	// Each chunk opens with the tail of the previous one.
	for i := 1; i < len(chunks); i++ {
		prev := chunks[i-1]
		if len(prev) < SplitterOverlap || len(chunks[i]) < SplitterOverlap {
			continue
		}
		tail := prev[len(prev)-SplitterOverlap:]
		if !strings.HasPrefix(chunks[i], tail) {
			t.Errorf("chunk %d does not start with the tail of chunk %d", i, i-1)
		}
	}
}

func TestRecursiveSplitterShortTextPassthrough(t *testing.T) {
	s := NewRecursiveSplitter(SplitterTarget, SplitterOverlap)
	got := s.Split("short")
	if len(got) != 1 || got[0] != "short" {
		t.Errorf("Split(short) = %v, want single passthrough chunk", got)
	}
}
