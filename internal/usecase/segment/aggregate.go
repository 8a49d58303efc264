package segment

import (
	"fmt"
	"sort"

	"github.com/johnquangdev/meeting-segmenter/internal/domain/entities"
)

// Candidate proposes that the topic at Position starts at utterance Start
type Candidate struct {
	Position          int
	Start             int
	Weight            int
	AnnouncementIndex *int
	Transition        entities.TransitionKind
	Reasoning         string
	Votes             *entities.Votes
}

// Aggregate reconciles start candidates into one record per topic, in topic
// order. It keeps the heaviest chain of candidates whose positions and
// starts both strictly increase; each kept topic runs until the next kept
// start, the first kept topic starts at 0 and the last one ends at
// total-1. Topics without a kept candidate are marked missing.
func Aggregate(topics []string, total int, cands []Candidate) (entities.BoundaryMap, []entities.Anomaly) {
	out := make(entities.BoundaryMap, len(topics))
	for i, topic := range topics {
		out[i] = entities.MissingRecord(topic, i)
	}
	if len(topics) == 0 || total <= 0 {
		return out, nil
	}

	valid := make([]Candidate, 0, len(cands))
	for _, c := range cands {
		if c.Position < 0 || c.Position >= len(topics) || c.Start < 0 || c.Start >= total {
			continue
		}
		if c.Weight <= 0 {
			c.Weight = 1
		}
		valid = append(valid, c)
	}
	sort.SliceStable(valid, func(i, j int) bool {
		if valid[i].Position != valid[j].Position {
			return valid[i].Position < valid[j].Position
		}
		return valid[i].Start < valid[j].Start
	})

	kept := heaviestChain(valid)

	var anomalies []entities.Anomaly
	keptSet := make(map[int]bool, len(kept))
	for _, k := range kept {
		keptSet[k] = true
	}
	for i, c := range valid {
		if keptSet[i] {
			continue
		}
		anomalies = append(anomalies, entities.Anomaly{
			Kind:   entities.AnomalyOrderConflict,
			Step:   c.Position,
			Topic:  topics[c.Position],
			Detail: fmt.Sprintf("start %d conflicts with topic order", c.Start),
		})
	}

	for n, k := range kept {
		c := valid[k]
		start := c.Start
		if n == 0 {
			start = 0
		}
		end := total - 1
		if n+1 < len(kept) {
			end = valid[kept[n+1]].Start - 1
		}

		rec := entities.Span(topics[c.Position], c.Position, start, end)
		rec.AnnouncementIndex = c.AnnouncementIndex
		rec.TransitionKind = c.Transition
		rec.Reasoning = c.Reasoning
		rec.Votes = c.Votes
		out[c.Position] = rec
	}
	return out, anomalies
}

// heaviestChain returns the indices of the maximum-weight subsequence with
// strictly increasing Position and Start. cands must be sorted by Position
// then Start. Ties resolve to the earliest candidates.
func heaviestChain(cands []Candidate) []int {
	if len(cands) == 0 {
		return nil
	}
	best := make([]int, len(cands))
	prev := make([]int, len(cands))
	top := 0
	for i, c := range cands {
		best[i] = c.Weight
		prev[i] = -1
		for j := 0; j < i; j++ {
			if cands[j].Position < c.Position && cands[j].Start < c.Start && best[j]+c.Weight > best[i] {
				best[i] = best[j] + c.Weight
				prev[i] = j
			}
		}
		if best[i] > best[top] {
			top = i
		}
	}

	var chain []int
	for i := top; i >= 0; i = prev[i] {
		chain = append(chain, i)
	}
	for l, r := 0, len(chain)-1; l < r; l, r = l+1, r-1 {
		chain[l], chain[r] = chain[r], chain[l]
	}
	return chain
}
