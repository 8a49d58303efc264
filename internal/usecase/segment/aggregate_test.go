package segment

import (
	"testing"

	"github.com/johnquangdev/meeting-segmenter/internal/domain/entities"
)

func TestAggregateContiguousInTopicOrder(t *testing.T) {
	topics := []string{"A", "B", "C"}
	// arrival order differs from topic order
	cands := []Candidate{
		{Position: 2, Start: 7},
		{Position: 0, Start: 2},
		{Position: 1, Start: 4},
	}

	got, anomalies := Aggregate(topics, 10, cands)
	if len(anomalies) != 0 {
		t.Fatalf("unexpected anomalies %+v", anomalies)
	}
	want := [][2]int{{0, 3}, {4, 6}, {7, 9}}
	for i, w := range want {
		if got[i].Topic != topics[i] {
			t.Fatalf("record %d is %q want %q", i, got[i].Topic, topics[i])
		}
		s, e := span(t, got, i)
		if s != w[0] || e != w[1] {
			t.Fatalf("topic %s: want %v got [%d,%d]", topics[i], w, s, e)
		}
	}
	if err := got.Validate(10); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
}

func TestAggregateMarksUncoveredTopicsMissing(t *testing.T) {
	topics := []string{"A", "B", "C"}
	got, _ := Aggregate(topics, 6, []Candidate{{Position: 0, Start: 0}, {Position: 2, Start: 3}})

	if len(got) != 3 {
		t.Fatalf("want 3 records got %d", len(got))
	}
	if !got[1].IsMissing() || got[1].TransitionKind != entities.TransitionMissing {
		t.Fatalf("want B missing got %+v", got[1])
	}
	if s, e := span(t, got, 2); s != 3 || e != 5 {
		t.Fatalf("want C [3,5] got [%d,%d]", s, e)
	}
	if err := got.Validate(6); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
}

func TestAggregateDropsOutOfOrderCandidates(t *testing.T) {
	topics := []string{"A", "B", "C", "D"}
	cands := []Candidate{
		{Position: 0, Start: 0, Weight: 5},
		{Position: 1, Start: 8, Weight: 1}, // after C's start
		{Position: 2, Start: 4, Weight: 3},
		{Position: 3, Start: 9, Weight: 2},
	}

	got, anomalies := Aggregate(topics, 12, cands)
	if !got[1].IsMissing() {
		t.Fatalf("want B missing got %+v", got[1])
	}
	if len(anomalies) != 1 || anomalies[0].Kind != entities.AnomalyOrderConflict || anomalies[0].Topic != "B" {
		t.Fatalf("want one order conflict for B got %+v", anomalies)
	}
	if s, e := span(t, got, 2); s != 4 || e != 8 {
		t.Fatalf("want C [4,8] got [%d,%d]", s, e)
	}
	if err := got.Validate(12); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
}

func TestAggregateFirstKeptStartsAtZero(t *testing.T) {
	got, _ := Aggregate([]string{"A", "B"}, 5, []Candidate{{Position: 0, Start: 2}, {Position: 1, Start: 3}})
	if s, e := span(t, got, 0); s != 0 || e != 2 {
		t.Fatalf("want A [0,2] got [%d,%d]", s, e)
	}
}

func TestAggregateNoCandidates(t *testing.T) {
	got, anomalies := Aggregate([]string{"A", "B"}, 5, nil)
	if len(got) != 2 || !got[0].IsMissing() || !got[1].IsMissing() {
		t.Fatalf("want every topic missing got %+v", got)
	}
	if len(anomalies) != 0 {
		t.Fatalf("unexpected anomalies %+v", anomalies)
	}
	if err := got.Validate(5); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
}

func TestAggregateCarriesCandidateDetails(t *testing.T) {
	votes := &entities.Votes{Kind: entities.VotesSingle, Single: "carried"}
	got, _ := Aggregate([]string{"A"}, 3, []Candidate{{
		Position:          0,
		Start:             0,
		AnnouncementIndex: entities.IntPtr(1),
		Transition:        entities.TransitionExplicit,
		Reasoning:         "chair opened",
		Votes:             votes,
	}})
	rec := got[0]
	if rec.TransitionKind != entities.TransitionExplicit || rec.Reasoning != "chair opened" || rec.Votes != votes {
		t.Fatalf("details not carried: %+v", rec)
	}
	if rec.AnnouncementIndex == nil || *rec.AnnouncementIndex != 1 {
		t.Fatalf("want announcement 1 got %v", rec.AnnouncementIndex)
	}
}
