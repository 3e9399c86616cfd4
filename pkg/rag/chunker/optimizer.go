package chunker

import "strings"

const (
	// Size bounds for reshaping extracted segments. The split threshold and
	// the splitter's target size are deliberately different values; do not
	// unify them.
	MergeThreshold  = 50
	SplitThreshold  = 1200
	SplitterTarget  = 5000
	SplitterOverlap = 500

	SegmentText  = "text"
	SegmentTable = "table"

	// SplitPartTable marks table fragments produced by a split.
	SplitPartTable = "table_chunk"
)

// Segment is one raw extracted unit of a document, as delivered by the
// upstream conversion step.
type Segment struct {
	Content string
	Type    string
	Ref     string
	Page    *int
}

// Piece is an index-ready chunk produced by the optimizer. DocId and file
// metadata are assigned by the ingestion pipeline afterwards.
type Piece struct {
	Content   string
	Type      string
	Ref       string
	Page      *int
	SplitPart string
}

// Optimizer reshapes raw segments into pieces sized for retrieval: oversized
// tables are split row-wise with the header repeated, oversized text goes
// through the recursive splitter, and tiny text fragments are folded into the
// preceding text piece.
type Optimizer struct {
	splitter *RecursiveSplitter
}

func NewOptimizer() *Optimizer {
	return &Optimizer{
		splitter: NewRecursiveSplitter(SplitterTarget, SplitterOverlap),
	}
}

func (o *Optimizer) Optimize(segments []Segment) []Piece {
	pieces := make([]Piece, 0, len(segments))

	for _, seg := range segments {
		switch seg.Type {
		case SegmentTable:
			pieces = append(pieces, o.splitTable(seg)...)
		default:
			pieces = o.appendText(pieces, seg)
		}
	}

	return pieces
}

// splitTable accumulates data rows under SplitThreshold per fragment, with
// the two header lines (header row + separator row) repeated on every
// fragment. A table that fits in one fragment keeps SplitPart empty.
func (o *Optimizer) splitTable(seg Segment) []Piece {
	if len(seg.Content) <= SplitThreshold {
		return []Piece{{Content: seg.Content, Type: SegmentTable, Ref: seg.Ref, Page: seg.Page}}
	}

	lines := strings.Split(seg.Content, "\n")
	if len(lines) <= 2 {
		return []Piece{{Content: seg.Content, Type: SegmentTable, Ref: seg.Ref, Page: seg.Page}}
	}

	header := lines[0] + "\n" + lines[1]
	rows := lines[2:]

	var fragments []string
	var current []string
	size := len(header)

	flush := func() {
		if len(current) > 0 {
			fragments = append(fragments, header+"\n"+strings.Join(current, "\n"))
			current = nil
			size = len(header)
		}
	}

	for _, row := range rows {
		if len(current) > 0 && size+len(row)+1 > SplitThreshold {
			flush()
		}
		current = append(current, row)
		size += len(row) + 1
	}
	flush()

	if len(fragments) == 1 {
		return []Piece{{Content: fragments[0], Type: SegmentTable, Ref: seg.Ref, Page: seg.Page}}
	}

	pieces := make([]Piece, len(fragments))
	for i, f := range fragments {
		pieces[i] = Piece{
			Content:   f,
			Type:      SegmentTable,
			Ref:       seg.Ref,
			Page:      seg.Page,
			SplitPart: SplitPartTable,
		}
	}
	return pieces
}

func (o *Optimizer) appendText(pieces []Piece, seg Segment) []Piece {
	switch {
	case len(seg.Content) > SplitThreshold:
		for _, part := range o.splitter.Split(seg.Content) {
			pieces = append(pieces, Piece{Content: part, Type: SegmentText, Ref: seg.Ref, Page: seg.Page})
		}
	case len(seg.Content) < MergeThreshold:
		// Fold into the preceding piece, but never into a table: table
		// fragments must stay verbatim.
		if n := len(pieces); n > 0 && pieces[n-1].Type != SegmentTable {
			pieces[n-1].Content += "\n\n" + seg.Content
		} else {
			pieces = append(pieces, Piece{Content: seg.Content, Type: SegmentText, Ref: seg.Ref, Page: seg.Page})
		}
	default:
		pieces = append(pieces, Piece{Content: seg.Content, Type: SegmentText, Ref: seg.Ref, Page: seg.Page})
	}
	return pieces
}
