package search

import (
	"sort"

	"ai-docchat-be/internal/entity"
)

// rrfK dampens the weight of lower-ranked hits in reciprocal rank fusion.
const rrfK = 60

// FuseRRF merges ranked lists from independent signals into one ranking.
// Each hit contributes 1/(k + rank) per list it appears in; hits found by
// both signals accumulate both contributions. Input order within each list
// is the list's own ranking, best first.
func FuseRRF(lists ...[]*entity.ScoredChunk) []*entity.ScoredChunk {
	type fused struct {
		chunk *entity.Chunk
		score float64
		order int
	}

	byId := make(map[string]*fused)
	seen := 0

	for _, list := range lists {
		for rank, sc := range list {
			if sc == nil || sc.Chunk == nil {
				continue
			}
			key := sc.Chunk.Id.String()
			contribution := 1.0 / float64(rrfK+rank+1)
			if f, ok := byId[key]; ok {
				f.score += contribution
				continue
			}
			byId[key] = &fused{chunk: sc.Chunk, score: contribution, order: seen}
			seen++
		}
	}

	merged := make([]*fused, 0, len(byId))
	for _, f := range byId {
		merged = append(merged, f)
	}
	sort.Slice(merged, func(i, j int) bool {
		if merged[i].score != merged[j].score {
			return merged[i].score > merged[j].score
		}
		return merged[i].order < merged[j].order
	})

	out := make([]*entity.ScoredChunk, len(merged))
	for i, f := range merged {
		out[i] = &entity.ScoredChunk{Chunk: f.chunk, Score: f.score}
	}
	return out
}
