package segment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "github.com/johnquangdev/meeting-segmenter/errors"
	"github.com/johnquangdev/meeting-segmenter/internal/domain/entities"
	"github.com/johnquangdev/meeting-segmenter/internal/domain/repositories"
	"github.com/johnquangdev/meeting-segmenter/internal/infrastructure/storage"
	"github.com/johnquangdev/meeting-segmenter/pkg/runcontext"
)

// Request names the inputs of one checkpointed run
type Request struct {
	// Source is the checkpoint base name; it defaults to the transcript
	// file name without extension.
	Source         string
	TranscriptPath string
	TopicsPath     string
	Strategy       string
}

// Result is the outcome of a pipeline run
type Result struct {
	RunID      uuid.UUID
	Strategy   string
	Boundaries json.RawMessage
	Map        entities.BoundaryMap
	Anomalies  []entities.Anomaly
	Calls      int
	// Skipped is set when every stage was served from checkpoints.
	Skipped bool
}

// PipelineOptions configures a Pipeline
type PipelineOptions struct {
	Compress   bool
	RunTimeout time.Duration
}

// Pipeline loads inputs, runs a strategy and persists stage checkpoints.
// A stage whose checkpoint already exists is skipped as a whole.
type Pipeline struct {
	strategies map[string]Strategy
	store      storage.CheckpointStore
	runs       repositories.RunRepository
	opts       PipelineOptions
	logger     *zap.Logger
}

// NewPipeline wires strategies to a checkpoint store and run repository.
// Both store and runs may be nil.
func NewPipeline(strategies []Strategy, store storage.CheckpointStore, runs repositories.RunRepository, opts PipelineOptions, logger *zap.Logger) *Pipeline {
	byName := make(map[string]Strategy, len(strategies))
	for _, s := range strategies {
		byName[s.Name()] = s
	}
	return &Pipeline{
		strategies: byName,
		store:      store,
		runs:       runs,
		opts:       opts,
		logger:     logger,
	}
}

// CombinedKey is the checkpoint key of the merged utterance log
func CombinedKey(base string, compress bool) string {
	return withSuffix(base+"_combined.json", compress)
}

// BoundariesKey is the checkpoint key of a strategy's boundary map
func BoundariesKey(base, strategy string, compress bool) string {
	name := base + "_boundaries.json"
	if strategy != StrategyLLM {
		name = fmt.Sprintf("%s_boundaries_%s.json", base, strategy)
	}
	return withSuffix(name, compress)
}

func withSuffix(key string, compress bool) string {
	if compress {
		return key + storage.CompressedSuffix
	}
	return key
}

// Run executes the checkpointed pipeline for files on disk
func (p *Pipeline) Run(ctx context.Context, req Request) (*Result, error) {
	strategy, err := p.strategy(req.Strategy)
	if err != nil {
		return nil, err
	}

	topics, err := LoadTopics(req.TopicsPath)
	if err != nil {
		return nil, inputError(req.TopicsPath, err)
	}
	if len(topics) == 0 {
		return nil, apperrors.ErrEmptyTopics().WithDetail("path", req.TopicsPath)
	}

	base := req.Source
	if base == "" {
		base = strings.TrimSuffix(filepath.Base(req.TranscriptPath), filepath.Ext(req.TranscriptPath))
	}

	runID := uuid.New()
	ctx, cancel := runcontext.RunBegin(ctx, runID, strategy.Name(), base, p.opts.RunTimeout)
	defer cancel()

	result := &Result{RunID: runID, Strategy: strategy.Name()}
	run := p.beginRun(ctx)

	err = runcontext.RunEnd(ctx, func(ctx context.Context) error {
		utterances, combinedSkipped, err := p.loadUtterances(ctx, base, req.TranscriptPath)
		if err != nil {
			return err
		}
		if run != nil {
			run.TopicCount = len(topics)
			run.UtteranceCount = len(utterances)
		}

		key := BoundariesKey(base, strategy.Name(), p.opts.Compress)
		raw, ok, err := p.readCheckpoint(ctx, key)
		if err != nil {
			return err
		}
		if ok {
			var m entities.BoundaryMap
			if err := json.Unmarshal(raw, &m); err != nil {
				return apperrors.ErrCheckpointFailed(key, err)
			}
			p.logInfo(ctx, "⏭️ boundaries checkpoint found, skipping segmentation", zap.String("key", key))
			result.Boundaries = raw
			result.Map = m
			result.Skipped = combinedSkipped
			return nil
		}

		if err := p.segment(ctx, strategy, topics, utterances, result); err != nil {
			return err
		}
		return p.writeCheckpoint(ctx, key, result.Boundaries)
	})

	p.endRun(ctx, run, result, err)
	if err != nil {
		return nil, toAppError(err)
	}
	return result, nil
}

// Segment runs strategyName over in-memory inputs without checkpoints
func (p *Pipeline) Segment(ctx context.Context, strategyName, source string, topicsText, transcript string) (*Result, error) {
	strategy, err := p.strategy(strategyName)
	if err != nil {
		return nil, err
	}

	topics, err := ParseTopics(strings.NewReader(topicsText))
	if err != nil {
		return nil, apperrors.ErrInvalidPayload(err)
	}
	if len(topics) == 0 {
		return nil, apperrors.ErrEmptyTopics()
	}
	utterances, err := ParseTranscript(strings.NewReader(transcript))
	if err != nil {
		return nil, apperrors.ErrInvalidPayload(err)
	}
	if len(utterances) == 0 {
		return nil, apperrors.ErrEmptyTranscript()
	}

	runID := uuid.New()
	ctx, cancel := runcontext.RunBegin(ctx, runID, strategy.Name(), source, p.opts.RunTimeout)
	defer cancel()

	result := &Result{RunID: runID, Strategy: strategy.Name()}
	run := p.beginRun(ctx)
	if run != nil {
		run.TopicCount = len(topics)
		run.UtteranceCount = len(utterances)
	}

	err = runcontext.RunEnd(ctx, func(ctx context.Context) error {
		return p.segment(ctx, strategy, topics, utterances, result)
	})

	p.endRun(ctx, run, result, err)
	if err != nil {
		return nil, toAppError(err)
	}
	return result, nil
}

func (p *Pipeline) strategy(name string) (Strategy, error) {
	if name == "" {
		name = StrategyLLM
	}
	s, ok := p.strategies[name]
	if !ok {
		return nil, apperrors.ErrInvalidArgument(fmt.Sprintf("unknown strategy %q", name))
	}
	return s, nil
}

func (p *Pipeline) segment(ctx context.Context, strategy Strategy, topics []string, utterances []entities.Utterance, result *Result) error {
	p.logInfo(ctx, "🚀 segmenting transcript",
		zap.Int("topics", len(topics)),
		zap.Int("utterances", len(utterances)),
	)

	outcome, err := strategy.Segment(ctx, topics, utterances)
	if err != nil {
		return err
	}
	result.Anomalies = outcome.Anomalies
	result.Calls = outcome.Calls

	if err := outcome.Boundaries.Validate(len(utterances)); err != nil {
		return fmt.Errorf("%w: %v", entities.ErrInvalidBoundaryMap, err)
	}

	raw, err := json.MarshalIndent(outcome.Boundaries, "", "  ")
	if err != nil {
		return fmt.Errorf("encode boundaries: %w", err)
	}
	result.Boundaries = raw
	result.Map = outcome.Boundaries

	p.logInfo(ctx, "✅ segmentation completed",
		zap.Int("external_calls", outcome.Calls),
		zap.Int("anomalies", len(outcome.Anomalies)),
		zap.Int("missing_topics", len(outcome.Boundaries.Missing())),
	)
	return nil
}

// loadUtterances serves the merged utterance log from its checkpoint or
// builds it from the transcript file and stores it.
func (p *Pipeline) loadUtterances(ctx context.Context, base, path string) ([]entities.Utterance, bool, error) {
	key := CombinedKey(base, p.opts.Compress)
	raw, ok, err := p.readCheckpoint(ctx, key)
	if err != nil {
		return nil, false, err
	}
	if ok {
		var utterances []entities.Utterance
		if err := json.Unmarshal(raw, &utterances); err != nil {
			return nil, false, apperrors.ErrCheckpointFailed(key, err)
		}
		if len(utterances) == 0 {
			return nil, false, apperrors.ErrEmptyTranscript().WithDetail("checkpoint", key)
		}
		p.logInfo(ctx, "⏭️ combined checkpoint found, skipping load", zap.String("key", key))
		entities.Reindex(utterances)
		return utterances, true, nil
	}

	utterances, err := LoadTranscript(path)
	if err != nil {
		return nil, false, inputError(path, err)
	}
	if len(utterances) == 0 {
		return nil, false, apperrors.ErrEmptyTranscript().WithDetail("path", path)
	}

	raw, err = json.MarshalIndent(utterances, "", "  ")
	if err != nil {
		return nil, false, fmt.Errorf("encode utterances: %w", err)
	}
	if err := p.writeCheckpoint(ctx, key, raw); err != nil {
		return nil, false, err
	}
	return utterances, false, nil
}

func (p *Pipeline) readCheckpoint(ctx context.Context, key string) ([]byte, bool, error) {
	if p.store == nil {
		return nil, false, nil
	}
	ok, err := p.store.Exists(ctx, key)
	if err != nil {
		return nil, false, apperrors.ErrCheckpointFailed(key, err)
	}
	if !ok {
		return nil, false, nil
	}
	raw, err := p.store.Get(ctx, key)
	if err != nil {
		return nil, false, apperrors.ErrCheckpointFailed(key, err)
	}
	return raw, true, nil
}

func (p *Pipeline) writeCheckpoint(ctx context.Context, key string, data []byte) error {
	if p.store == nil {
		return nil
	}
	if err := p.store.Put(ctx, key, data); err != nil {
		return apperrors.ErrCheckpointFailed(key, err)
	}
	p.logInfo(ctx, "💾 checkpoint saved", zap.String("key", key), zap.Int("bytes", len(data)))
	return nil
}

func (p *Pipeline) beginRun(ctx context.Context) *entities.SegmentationRun {
	if p.runs == nil {
		return nil
	}
	meta := runcontext.GetRunMetadata(ctx)
	run := entities.NewSegmentationRun(meta.RunID, meta.Source, meta.Strategy, meta.StartTime)
	if err := p.runs.CreateRun(ctx, run); err != nil {
		p.logWarn(ctx, "⚠️ failed to record run start", zap.Error(err))
		return nil
	}
	return run
}

func (p *Pipeline) endRun(ctx context.Context, run *entities.SegmentationRun, result *Result, runErr error) {
	if run == nil {
		return
	}
	if runErr != nil {
		run.MarkAsFailed(runErr.Error(), result.Anomalies, result.Calls)
	} else {
		run.MarkAsCompleted(result.Boundaries, result.Anomalies, result.Calls, result.Skipped)
	}

	// the run context may already be past its deadline
	if err := p.runs.UpdateRun(context.WithoutCancel(ctx), run); err != nil {
		p.logWarn(ctx, "⚠️ failed to record run result", zap.Error(err))
	}
}

func (p *Pipeline) logInfo(ctx context.Context, msg string, fields ...zap.Field) {
	if p.logger == nil {
		return
	}
	p.logger.Info(msg, append(runFields(ctx), fields...)...)
}

func (p *Pipeline) logWarn(ctx context.Context, msg string, fields ...zap.Field) {
	if p.logger == nil {
		return
	}
	p.logger.Warn(msg, append(runFields(ctx), fields...)...)
}

func runFields(ctx context.Context) []zap.Field {
	meta := runcontext.GetRunMetadata(ctx)
	return []zap.Field{
		zap.String("run_id", meta.RunID.String()),
		zap.String("strategy", meta.Strategy),
		zap.String("source", meta.Source),
	}
}

func inputError(path string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return apperrors.ErrInputMissing(path, err)
	}
	return apperrors.ErrInvalidPayload(err).WithDetail("path", path)
}

// toAppError maps a run failure onto the application error taxonomy
func toAppError(err error) error {
	var appErr apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	var recoveryErr *RecoveryError
	var serviceErr *ServiceError
	switch {
	case errors.As(err, &recoveryErr):
		return apperrors.ErrRecoveryFailed(err)
	case errors.As(err, &serviceErr) && serviceErr.Service == "embedding":
		return apperrors.ErrEmbeddingServiceFailed(err)
	case errors.As(err, &serviceErr):
		return apperrors.ErrLLMServiceFailed(err)
	case errors.Is(err, entities.ErrEmptyTopics):
		return apperrors.ErrEmptyTopics()
	case errors.Is(err, entities.ErrEmptyTranscript):
		return apperrors.ErrEmptyTranscript()
	default:
		return apperrors.ErrProcessingFailed(err)
	}
}
