package chunker

import "strings"

// Separator priority: paragraphs, then lines, then sentences, then words.
var defaultSeparators = []string{"\n\n", "\n", ". ", " "}

// RecursiveSplitter breaks oversized text on the largest separator that
// still yields pieces under ChunkSize, falling back level by level. Adjacent
// output chunks share Overlap characters of trailing context.
type RecursiveSplitter struct {
	ChunkSize int
	Overlap   int
}

func NewRecursiveSplitter(chunkSize, overlap int) *RecursiveSplitter {
	return &RecursiveSplitter{
		ChunkSize: chunkSize,
		Overlap:   overlap,
	}
}

func (s *RecursiveSplitter) Split(text string) []string {
	if len(text) <= s.ChunkSize {
		return []string{text}
	}
	chunks := s.split(text, defaultSeparators)
	return s.addOverlap(chunks)
}

func (s *RecursiveSplitter) split(text string, separators []string) []string {
	if len(text) <= s.ChunkSize {
		return []string{text}
	}
	if len(separators) == 0 {
		return s.splitByLength(text)
	}

	separator := separators[0]
	parts := strings.Split(text, separator)
	if len(parts) == 1 {
		return s.split(text, separators[1:])
	}

	var chunks []string
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			chunks = append(chunks, current.String())
			current.Reset()
		}
	}

	for i, part := range parts {
		if i < len(parts)-1 {
			part += separator
		}

		if len(part) > s.ChunkSize {
			flush()
			chunks = append(chunks, s.split(part, separators[1:])...)
			continue
		}
		if current.Len()+len(part) > s.ChunkSize {
			flush()
		}
		current.WriteString(part)
	}
	flush()

	return chunks
}

func (s *RecursiveSplitter) splitByLength(text string) []string {
	var chunks []string
	runes := []rune(text)
	for i := 0; i < len(runes); i += s.ChunkSize {
		end := i + s.ChunkSize
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[i:end]))
	}
	return chunks
}

func (s *RecursiveSplitter) addOverlap(chunks []string) []string {
	if s.Overlap <= 0 || len(chunks) < 2 {
		return chunks
	}
	out := make([]string, len(chunks))
	out[0] = chunks[0]
	for i := 1; i < len(chunks); i++ {
		prev := []rune(chunks[i-1])
		start := len(prev) - s.Overlap
		if start < 0 {
			start = 0
		}
		out[i] = string(prev[start:]) + chunks[i]
	}
	return out
}
