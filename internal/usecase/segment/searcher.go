package segment

import (
	"context"
	"fmt"

	"github.com/johnquangdev/meeting-segmenter/internal/domain/entities"
	"go.uber.org/zap"
)

// StepSource tells where a step's boundary came from
type StepSource string

const (
	StepModel           StepSource = "model"
	StepClamped         StepSource = "clamped"
	StepFallbackService StepSource = "fallback_service"
	StepFallbackParse   StepSource = "fallback_parse"
	StepForced          StepSource = "forced"
)

// StepResult is the outcome of one boundary question
type StepResult struct {
	Step      int
	Cursor    int
	Boundary  int
	Window    Window
	Source    StepSource
	Reasoning string
	Called    bool
}

// SearchOptions configures a BoundarySearcher
type SearchOptions struct {
	Budget Budget
	// StrictRecovery aborts the run on an unrecoverable response instead of
	// bisecting the window.
	StrictRecovery bool
}

// BoundarySearcher walks the topics in order and asks the model where each
// one ends, sending a token-budgeted window of the remaining transcript.
type BoundarySearcher struct {
	llm    Completer
	parser *Parser
	opts   SearchOptions
	logger *zap.Logger
}

// NewBoundarySearcher creates the "llm" strategy
func NewBoundarySearcher(llm Completer, opts SearchOptions, logger *zap.Logger) *BoundarySearcher {
	return &BoundarySearcher{
		llm:    llm,
		parser: NewParser(),
		opts:   opts,
		logger: logger,
	}
}

// Name implements Strategy
func (s *BoundarySearcher) Name() string {
	return StrategyLLM
}

// Segment implements Strategy. It performs at most len(topics)-1 model
// calls in a single forward pass; the last topic takes every remaining
// utterance.
func (s *BoundarySearcher) Segment(ctx context.Context, topics []string, utterances []entities.Utterance) (*Outcome, error) {
	if err := validateInput(topics, utterances); err != nil {
		return nil, err
	}

	total := len(utterances)
	log := &anomalyLog{logger: s.logger}
	cands := []Candidate{{Position: 0, Start: 0}}
	calls := 0
	cursor := 0

	for i := 0; i < len(topics)-1; i++ {
		// leave one utterance for each later topic when the transcript allows it
		upper := total - 1 - (len(topics) - 1 - i)
		if upper < cursor {
			upper = cursor
		}

		res, err := s.step(ctx, i, topics[i], topics[i+1], utterances[cursor:], cursor, upper, log)
		if err != nil {
			return nil, err
		}
		if res.Called {
			calls++
		}
		cands[len(cands)-1].Reasoning = res.Reasoning

		next := res.Boundary + 1
		if next > total-1 {
			for j := i + 1; j < len(topics); j++ {
				log.add(entities.AnomalyTranscriptExhausted, i, topics[j],
					fmt.Sprintf("no utterances left after boundary %d", res.Boundary))
			}
			break
		}
		cands = append(cands, Candidate{Position: i + 1, Start: next})
		cursor = next
	}

	boundaries, conflicts := Aggregate(topics, total, cands)
	log.extend(conflicts)

	return &Outcome{Boundaries: boundaries, Anomalies: log.items, Calls: calls}, nil
}

// step answers one boundary question for the topic starting at cursor. The
// boundary is always within [cursor, upper] and within the window sent.
// remaining must start at cursor. Only cancellation of ctx, or an
// unrecoverable response under StrictRecovery, is returned as an error.
func (s *BoundarySearcher) step(ctx context.Context, step int, current, next string, remaining []entities.Utterance, cursor, upper int, log *anomalyLog) (StepResult, error) {
	if log == nil {
		log = &anomalyLog{logger: s.logger}
	}
	res := StepResult{Step: step, Cursor: cursor}

	if upper <= cursor || len(remaining) <= 1 {
		res.Boundary = cursor
		res.Source = StepForced
		return res, nil
	}

	w := s.opts.Budget.BuildWindow(BoundaryPrompt(current, next, ""), remaining, UtteranceLine)
	res.Window = w
	if w.Forced {
		log.add(entities.AnomalyBudgetExhausted, step, current,
			fmt.Sprintf("prompt scaffold leaves %d tokens, sent one utterance", w.Available))
	} else if w.Truncated {
		log.add(entities.AnomalyWindowTruncated, step, current,
			fmt.Sprintf("window holds %d of %d remaining utterances", w.Len(), len(remaining)))
	}

	hi := cursor + w.Len() - 1
	if hi > upper {
		hi = upper
	}
	fallback := cursor + w.Len()/2
	if fallback > hi {
		fallback = hi
	}

	if s.logger != nil {
		s.logger.Info("🔍 searching boundary",
			zap.Int("step", step),
			zap.Int("cursor", cursor),
			zap.Int("window_length", w.Len()),
			zap.Int("tokens_used", w.Used),
			zap.Int("tokens_available", w.Available),
			zap.Bool("truncated", w.Truncated),
		)
	}

	text, err := s.llm.Complete(ctx, BoundaryPrompt(current, next, w.Text))
	res.Called = true
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return res, fmt.Errorf("boundary step %d: %w", step, ctxErr)
		}
		log.add(entities.AnomalyFallbackService, step, current,
			fmt.Sprintf("%v; bisected window to %d", &ServiceError{Service: "llm", Err: err}, fallback))
		res.Boundary = fallback
		res.Source = StepFallbackService
		return res, nil
	}

	parsed, method, err := s.parser.ParseBoundaryResponse(text)
	if err != nil {
		if s.opts.StrictRecovery {
			return res, fmt.Errorf("boundary step %d: %w", step, err)
		}
		log.add(entities.AnomalyFallbackParse, step, current,
			fmt.Sprintf("%v; bisected window to %d", err, fallback))
		res.Boundary = fallback
		res.Source = StepFallbackParse
		return res, nil
	}

	res.Reasoning = parsed.Reasoning
	res.Boundary = parsed.BoundaryIndex
	res.Source = StepModel
	switch {
	case res.Boundary < cursor:
		res.Boundary = cursor
	case res.Boundary > hi:
		res.Boundary = hi
	}
	if res.Boundary != parsed.BoundaryIndex {
		res.Source = StepClamped
		log.add(entities.AnomalyBoundaryClamped, step, current,
			fmt.Sprintf("model returned %d outside [%d, %d], clamped to %d", parsed.BoundaryIndex, cursor, hi, res.Boundary))
	}

	if s.logger != nil {
		s.logger.Info("✅ boundary found",
			zap.Int("step", step),
			zap.Int("boundary_index", res.Boundary),
			zap.String("source", string(res.Source)),
			zap.String("recovered_by", string(method)),
		)
	}
	return res, nil
}
