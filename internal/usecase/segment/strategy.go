package segment

import (
	"context"
	"fmt"

	"github.com/johnquangdev/meeting-segmenter/internal/domain/entities"
	"go.uber.org/zap"
)

// Strategy names
const (
	StrategyLLM       = "llm"
	StrategyEmbedding = "embedding"
	StrategyModerator = "moderator"
)

// Completer sends one prompt to a language model and returns its text
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Embedder maps each input string to one vector
type Embedder interface {
	Embed(ctx context.Context, inputs []string) ([][]float32, error)
}

// Strategy produces a boundary map for topics over utterances
type Strategy interface {
	Name() string
	Segment(ctx context.Context, topics []string, utterances []entities.Utterance) (*Outcome, error)
}

// Outcome is the result of one Strategy run
type Outcome struct {
	Boundaries entities.BoundaryMap
	Anomalies  []entities.Anomaly
	// Calls counts requests sent to external services.
	Calls int
}

// ServiceError marks a failed request to an external model service
type ServiceError struct {
	Service string
	Err     error
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("%s service: %v", e.Service, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// anomalyLog collects anomalies for one run and logs each one at Warn
type anomalyLog struct {
	logger *zap.Logger
	items  []entities.Anomaly
}

func (l *anomalyLog) add(kind entities.AnomalyKind, step int, topic, detail string) {
	l.items = append(l.items, entities.Anomaly{Kind: kind, Step: step, Topic: topic, Detail: detail})
	if l.logger != nil {
		l.logger.Warn("⚠️ segmentation anomaly",
			zap.String("kind", string(kind)),
			zap.Int("step", step),
			zap.String("topic", topic),
			zap.String("detail", detail),
		)
	}
}

func (l *anomalyLog) extend(items []entities.Anomaly) {
	for _, a := range items {
		l.add(a.Kind, a.Step, a.Topic, a.Detail)
	}
}

func validateInput(topics []string, utterances []entities.Utterance) error {
	if len(topics) == 0 {
		return entities.ErrEmptyTopics
	}
	if len(utterances) == 0 {
		return entities.ErrEmptyTranscript
	}
	return nil
}
