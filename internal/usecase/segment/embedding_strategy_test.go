package segment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/johnquangdev/meeting-segmenter/internal/domain/entities"
)

// keywordEmbedder scores each input by how often it mentions each keyword
type keywordEmbedder struct {
	keywords []string
	calls    int
	err      error
}

func (k *keywordEmbedder) Embed(_ context.Context, inputs []string) ([][]float32, error) {
	k.calls++
	if k.err != nil {
		return nil, k.err
	}
	out := make([][]float32, len(inputs))
	for i, in := range inputs {
		vec := make([]float32, len(k.keywords))
		for j, kw := range k.keywords {
			vec[j] = float32(strings.Count(strings.ToLower(in), kw))
		}
		out[i] = vec
	}
	return out, nil
}

func keywordUtterances(words ...string) []entities.Utterance {
	out := make([]entities.Utterance, len(words))
	for i, w := range words {
		out[i] = entities.Utterance{Index: i, Speaker: fmt.Sprintf("S%d", i%2), Text: w + " talk"}
	}
	return out
}

var defaultEmbeddingOptions = EmbeddingOptions{ChunkSize: 5, Overlap: 1, Threshold: 0.3, SmoothWindow: 3, MinRunLength: 2}

func TestEmbeddingSegmenterTwoTopics(t *testing.T) {
	emb := &keywordEmbedder{keywords: []string{"alpha", "beta"}}
	s := NewEmbeddingSegmenter(emb, defaultEmbeddingOptions, nil)
	utts := keywordUtterances("alpha", "alpha", "alpha", "alpha", "alpha", "alpha",
		"beta", "beta", "beta", "beta", "beta", "beta")

	out, err := s.Segment(context.Background(), []string{"Alpha", "Beta"}, utts)
	if err != nil {
		t.Fatalf("Segment() error = %v", err)
	}
	if emb.calls != 2 || out.Calls != 2 {
		t.Fatalf("want 2 embedding calls got %d (outcome %d)", emb.calls, out.Calls)
	}
	// chunks [0,5) [4,9) [8,12); the middle chunk leans beta and wins utterance 4
	if s, e := span(t, out.Boundaries, 0); s != 0 || e != 3 {
		t.Fatalf("want Alpha [0,3] got [%d,%d]", s, e)
	}
	if s, e := span(t, out.Boundaries, 1); s != 4 || e != 11 {
		t.Fatalf("want Beta [4,11] got [%d,%d]", s, e)
	}
	if out.Boundaries[0].TransitionKind != entities.TransitionImplicit {
		t.Fatalf("want implicit transition got %q", out.Boundaries[0].TransitionKind)
	}
	if err := out.Boundaries.Validate(len(utts)); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
}

func TestEmbeddingSegmenterUnassignedTopicIsMissing(t *testing.T) {
	emb := &keywordEmbedder{keywords: []string{"alpha", "beta", "gamma"}}
	s := NewEmbeddingSegmenter(emb, defaultEmbeddingOptions, nil)
	utts := keywordUtterances("alpha", "alpha", "alpha", "alpha", "alpha", "alpha",
		"gamma", "gamma", "gamma", "gamma", "gamma", "gamma")

	out, err := s.Segment(context.Background(), []string{"Alpha", "Beta", "Gamma"}, utts)
	if err != nil {
		t.Fatalf("Segment() error = %v", err)
	}
	if !out.Boundaries[1].IsMissing() {
		t.Fatalf("want Beta missing got %+v", out.Boundaries[1])
	}
	if !hasAnomaly(out.Anomalies, entities.AnomalyTopicUnmatched) {
		t.Fatalf("want topic_unmatched anomaly got %+v", out.Anomalies)
	}
	if err := out.Boundaries.Validate(len(utts)); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
}

func TestEmbeddingSegmenterServiceFailure(t *testing.T) {
	emb := &keywordEmbedder{err: errors.New("status 503")}
	s := NewEmbeddingSegmenter(emb, defaultEmbeddingOptions, nil)

	out, err := s.Segment(context.Background(), []string{"A", "B"}, utterances(8))
	if err != nil {
		t.Fatalf("Segment() error = %v", err)
	}
	if len(out.Boundaries) != 2 || len(out.Boundaries.Missing()) != 2 {
		t.Fatalf("want both topics missing got %+v", out.Boundaries)
	}
	if !hasAnomaly(out.Anomalies, entities.AnomalyEmbeddingUnavailable) {
		t.Fatalf("want embedding_unavailable anomaly got %+v", out.Anomalies)
	}
}

func TestEmbeddingSegmenterCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	emb := &keywordEmbedder{err: context.Canceled}
	s := NewEmbeddingSegmenter(emb, defaultEmbeddingOptions, nil)

	if _, err := s.Segment(ctx, []string{"A"}, utterances(3)); !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled got %v", err)
	}
}

func TestRunCandidates(t *testing.T) {
	got := runCandidates([]int{-1, 0, 0, 1, 1, 1, 0})
	want := []Candidate{
		{Position: 0, Start: 1, Weight: 2},
		{Position: 1, Start: 3, Weight: 3},
		{Position: 0, Start: 6, Weight: 1},
	}
	if len(got) != len(want) {
		t.Fatalf("want %d candidates got %d", len(want), len(got))
	}
	for i := range want {
		if got[i].Position != want[i].Position || got[i].Start != want[i].Start || got[i].Weight != want[i].Weight {
			t.Fatalf("candidate %d: want %+v got %+v", i, want[i], got[i])
		}
	}
}
