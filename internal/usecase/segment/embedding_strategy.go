package segment

import (
	"context"
	"fmt"

	"github.com/johnquangdev/meeting-segmenter/internal/domain/entities"
	"go.uber.org/zap"
)

// EmbeddingOptions configures an EmbeddingSegmenter
type EmbeddingOptions struct {
	ChunkSize    int
	Overlap      int
	Threshold    float64
	SmoothWindow int
	MinRunLength int
}

// EmbeddingSegmenter classifies overlapping chunks by similarity to the
// topic labels, smooths the sequence and turns runs into spans.
type EmbeddingSegmenter struct {
	embedder Embedder
	opts     EmbeddingOptions
	logger   *zap.Logger
}

// NewEmbeddingSegmenter creates the "embedding" strategy
func NewEmbeddingSegmenter(embedder Embedder, opts EmbeddingOptions, logger *zap.Logger) *EmbeddingSegmenter {
	return &EmbeddingSegmenter{embedder: embedder, opts: opts, logger: logger}
}

// Name implements Strategy
func (s *EmbeddingSegmenter) Name() string {
	return StrategyEmbedding
}

// Segment implements Strategy with two batched embedding calls
func (s *EmbeddingSegmenter) Segment(ctx context.Context, topics []string, utterances []entities.Utterance) (*Outcome, error) {
	if err := validateInput(topics, utterances); err != nil {
		return nil, err
	}

	log := &anomalyLog{logger: s.logger}
	chunks := BuildChunks(utterances, s.opts.ChunkSize, s.opts.Overlap)
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	calls := 0
	topicVecs, err := s.embed(ctx, topics, "topics", log)
	calls++
	if err != nil {
		return nil, err
	}
	chunkVecs, err := s.embed(ctx, texts, "chunks", log)
	calls++
	if err != nil {
		return nil, err
	}

	assignments := AssignTopics(chunkVecs, topicVecs, s.opts.Threshold)
	if assignments != nil {
		assignments = Smooth(assignments, s.opts.SmoothWindow, s.opts.MinRunLength)
	}
	perUtterance := MapUtterances(chunks, assignments, len(utterances))

	if s.logger != nil {
		s.logger.Info("📊 chunks classified",
			zap.Int("chunks", len(chunks)),
			zap.Int("topics", len(topics)),
			zap.Int("utterances", len(utterances)),
		)
	}

	cands := runCandidates(perUtterance)
	boundaries, conflicts := Aggregate(topics, len(utterances), cands)
	log.extend(conflicts)
	for _, rec := range boundaries {
		if rec.IsMissing() {
			log.add(entities.AnomalyTopicUnmatched, rec.Position, rec.Topic, "no chunk was assigned to this topic")
		}
	}

	return &Outcome{Boundaries: boundaries, Anomalies: log.items, Calls: calls}, nil
}

// embed returns nil vectors when the service fails so that the chunk
// classification degrades to unassigned. Cancellation of ctx is returned.
func (s *EmbeddingSegmenter) embed(ctx context.Context, inputs []string, what string, log *anomalyLog) ([][]float32, error) {
	vecs, err := s.embedder.Embed(ctx, inputs)
	if err == nil && len(vecs) != len(inputs) {
		err = fmt.Errorf("got %d vectors for %d inputs", len(vecs), len(inputs))
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("embed %s: %w", what, ctxErr)
		}
		log.add(entities.AnomalyEmbeddingUnavailable, 0, "",
			fmt.Sprintf("embed %s: %v", what, &ServiceError{Service: "embedding", Err: err}))
		return make([][]float32, len(inputs)), nil
	}
	return vecs, nil
}

// runCandidates proposes one start per maximal run of an assigned topic,
// weighted by the run length.
func runCandidates(perUtterance []int) []Candidate {
	var cands []Candidate
	for i := 0; i < len(perUtterance); {
		j := i + 1
		for j < len(perUtterance) && perUtterance[j] == perUtterance[i] {
			j++
		}
		if perUtterance[i] >= 0 {
			cands = append(cands, Candidate{
				Position:   perUtterance[i],
				Start:      i,
				Weight:     j - i,
				Transition: entities.TransitionImplicit,
			})
		}
		i = j
	}
	return cands
}
