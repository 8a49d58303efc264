package segment

import (
	"sort"
	"strings"

	"github.com/johnquangdev/meeting-segmenter/internal/domain/entities"
)

// BuildChunks groups utterances into windows of size utterances starting
// every size-overlap utterances. Trailing windows may be shorter.
func BuildChunks(utterances []entities.Utterance, size, overlap int) []entities.Chunk {
	if size <= 0 || len(utterances) == 0 {
		return nil
	}
	step := size - overlap
	if step <= 0 {
		step = 1
	}

	var chunks []entities.Chunk
	for start := 0; start < len(utterances); start += step {
		end := start + size
		if end > len(utterances) {
			end = len(utterances)
		}

		parts := make([]string, 0, end-start)
		speakers := make(map[string]struct{})
		for _, u := range utterances[start:end] {
			parts = append(parts, u.Speaker+": "+u.Text)
			speakers[u.Speaker] = struct{}{}
		}

		chunks = append(chunks, entities.Chunk{
			Index:    len(chunks),
			Start:    start,
			End:      end,
			Text:     strings.Join(parts, " "),
			Speakers: sortedKeys(speakers),
		})
	}
	return chunks
}

// MapUtterances projects chunk assignments onto utterances. Where chunks
// overlap the later chunk wins. Unassigned utterances get -1.
func MapUtterances(chunks []entities.Chunk, assignments []int, total int) []int {
	out := make([]int, total)
	for i := range out {
		out[i] = -1
	}
	for i, c := range chunks {
		if i >= len(assignments) {
			break
		}
		for u := c.Start; u < c.End && u < total; u++ {
			out[u] = assignments[i]
		}
	}
	return out
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
