package segment

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/uuid"

	apperrors "github.com/johnquangdev/meeting-segmenter/errors"
	"github.com/johnquangdev/meeting-segmenter/internal/domain/entities"
	"github.com/johnquangdev/meeting-segmenter/internal/domain/repositories"
	"github.com/johnquangdev/meeting-segmenter/internal/infrastructure/storage"
)

type memoryRunRepository struct {
	mu   sync.Mutex
	runs map[uuid.UUID]entities.SegmentationRun
}

func newMemoryRunRepository() *memoryRunRepository {
	return &memoryRunRepository{runs: make(map[uuid.UUID]entities.SegmentationRun)}
}

func (r *memoryRunRepository) CreateRun(_ context.Context, run *entities.SegmentationRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs[run.ID] = *run
	return nil
}

func (r *memoryRunRepository) UpdateRun(ctx context.Context, run *entities.SegmentationRun) error {
	return r.CreateRun(ctx, run)
}

func (r *memoryRunRepository) GetRunByID(_ context.Context, id uuid.UUID) (*entities.SegmentationRun, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	run, ok := r.runs[id]
	if !ok {
		return nil, nil
	}
	return &run, nil
}

func (r *memoryRunRepository) ListRuns(context.Context, repositories.RunFilters) ([]entities.SegmentationRun, int64, error) {
	return nil, 0, nil
}

const meetingTranscript = `[SPEAKER_00]: Welcome everyone.
[SPEAKER_01]: Thanks for having us.
[SPEAKER_00]: Minutes were circulated,
and nobody objected.
[SPEAKER_01]: Agreed.
[SPEAKER_00]: Now the budget.
[SPEAKER_02]: Revenue is up.
[SPEAKER_00]: Any questions?
[SPEAKER_02]: None.
`

func writeInputs(t *testing.T, transcript, topics string) (string, string) {
	t.Helper()
	dir := t.TempDir()
	tp := filepath.Join(dir, "council.txt")
	pp := filepath.Join(dir, "topics.txt")
	if err := os.WriteFile(tp, []byte(transcript), 0o644); err != nil {
		t.Fatalf("write transcript: %v", err)
	}
	if err := os.WriteFile(pp, []byte(topics), 0o644); err != nil {
		t.Fatalf("write topics: %v", err)
	}
	return tp, pp
}

func newTestPipeline(t *testing.T, llm Completer, opts PipelineOptions, strict bool) (*Pipeline, storage.CheckpointStore, *memoryRunRepository) {
	t.Helper()
	store, err := storage.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	runs := newMemoryRunRepository()
	searcher := NewBoundarySearcher(llm, SearchOptions{Budget: largeBudget, StrictRecovery: strict}, nil)
	return NewPipeline([]Strategy{searcher}, store, runs, opts, nil), store, runs
}

func appCode(t *testing.T, err error) apperrors.ErrorCode {
	t.Helper()
	var appErr apperrors.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("want AppError got %T: %v", err, err)
	}
	return appErr.Code
}

func TestPipelineRerunIsIdempotent(t *testing.T) {
	for _, compress := range []bool{false, true} {
		llm := &scriptedCompleter{responses: []string{`{"boundary_index": 3, "reasoning": "budget announced at 4"}`}}
		p, store, runs := newTestPipeline(t, llm, PipelineOptions{Compress: compress}, false)
		tp, pp := writeInputs(t, meetingTranscript, "1. Opening\n2. Budget\n")
		req := Request{TranscriptPath: tp, TopicsPath: pp, Strategy: StrategyLLM}

		first, err := p.Run(context.Background(), req)
		if err != nil {
			t.Fatalf("compress=%v: first Run() error = %v", compress, err)
		}
		if first.Skipped || first.Calls != 1 {
			t.Fatalf("compress=%v: first run skipped=%v calls=%d", compress, first.Skipped, first.Calls)
		}
		if s, e := span(t, first.Map, 1); s != 4 || e != 7 {
			t.Fatalf("compress=%v: want budget [4,7] got [%d,%d]", compress, s, e)
		}

		for _, key := range []string{CombinedKey("council", compress), BoundariesKey("council", StrategyLLM, compress)} {
			ok, err := store.Exists(context.Background(), key)
			if err != nil || !ok {
				t.Fatalf("compress=%v: checkpoint %s missing (err=%v)", compress, key, err)
			}
		}

		second, err := p.Run(context.Background(), req)
		if err != nil {
			t.Fatalf("compress=%v: second Run() error = %v", compress, err)
		}
		if llm.calls() != 1 || second.Calls != 0 || !second.Skipped {
			t.Fatalf("compress=%v: rerun made calls (total %d, run %d) skipped=%v", compress, llm.calls(), second.Calls, second.Skipped)
		}
		if !bytes.Equal(first.Boundaries, second.Boundaries) {
			t.Fatalf("compress=%v: rerun output differs:\n%s\n%s", compress, first.Boundaries, second.Boundaries)
		}

		run, _ := runs.GetRunByID(context.Background(), second.RunID)
		if run == nil || run.Status != entities.SegmentationRunStatusSkipped {
			t.Fatalf("compress=%v: want skipped run record got %+v", compress, run)
		}
		run, _ = runs.GetRunByID(context.Background(), first.RunID)
		if run == nil || run.Status != entities.SegmentationRunStatusCompleted || run.ExternalCalls != 1 || run.UtteranceCount != 8 {
			t.Fatalf("compress=%v: unexpected first run record %+v", compress, run)
		}
	}
}

func TestPipelineCombinedCheckpointFormat(t *testing.T) {
	llm := &scriptedCompleter{responses: []string{`{"boundary_index": 3}`}}
	p, store, _ := newTestPipeline(t, llm, PipelineOptions{}, false)
	tp, pp := writeInputs(t, meetingTranscript, "1. Opening\n2. Budget\n")

	if _, err := p.Run(context.Background(), Request{TranscriptPath: tp, TopicsPath: pp}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	raw, err := store.Get(context.Background(), CombinedKey("council", false))
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !bytes.Contains(raw, []byte(`"speaker_id": "SPEAKER_00"`)) || !bytes.Contains(raw, []byte(`"text": "Minutes were circulated, and nobody objected."`)) {
		t.Fatalf("unexpected combined checkpoint:\n%s", raw)
	}
}

func TestPipelineInputErrors(t *testing.T) {
	llm := &scriptedCompleter{}
	p, store, _ := newTestPipeline(t, llm, PipelineOptions{}, false)
	tp, pp := writeInputs(t, "\n\n", "1. Opening\n")

	_, err := p.Run(context.Background(), Request{TranscriptPath: tp, TopicsPath: pp})
	if code := appCode(t, err); code != apperrors.ErrorCode_INPUT_EMPTY_TRANSCRIPT {
		t.Fatalf("want INPUT_EMPTY_TRANSCRIPT got %s", code)
	}
	if ok, _ := store.Exists(context.Background(), CombinedKey("council", false)); ok {
		t.Fatalf("empty transcript must not produce a checkpoint")
	}

	_, err = p.Run(context.Background(), Request{TranscriptPath: tp, TopicsPath: filepath.Join(t.TempDir(), "missing.txt")})
	if code := appCode(t, err); code != apperrors.ErrorCode_INPUT_MISSING {
		t.Fatalf("want INPUT_MISSING got %s", code)
	}

	tp, pp = writeInputs(t, meetingTranscript, "\n")
	_, err = p.Run(context.Background(), Request{TranscriptPath: tp, TopicsPath: pp})
	if code := appCode(t, err); code != apperrors.ErrorCode_INPUT_EMPTY_TOPICS {
		t.Fatalf("want INPUT_EMPTY_TOPICS got %s", code)
	}

	_, err = p.Run(context.Background(), Request{TranscriptPath: tp, TopicsPath: pp, Strategy: "tarot"})
	if code := appCode(t, err); code != apperrors.ErrorCode_INVALID_ARGUMENT {
		t.Fatalf("want INVALID_ARGUMENT got %s", code)
	}
	if llm.calls() != 0 {
		t.Fatalf("input errors must not call the model, got %d calls", llm.calls())
	}
}

func TestPipelineRecoveryFailureResumesFromCheckpoint(t *testing.T) {
	llm := &scriptedCompleter{responses: []string{"no braces here", `{"boundary_index": 2}`}}
	p, _, runs := newTestPipeline(t, llm, PipelineOptions{}, true)
	tp, pp := writeInputs(t, meetingTranscript, "1. Opening\n2. Budget\n")
	req := Request{TranscriptPath: tp, TopicsPath: pp}

	_, err := p.Run(context.Background(), req)
	if code := appCode(t, err); code != apperrors.ErrorCode_SEGMENT_RECOVERY_FAILED {
		t.Fatalf("want SEGMENT_RECOVERY_FAILED got %s", code)
	}
	var recErr *RecoveryError
	if !errors.As(err, &recErr) {
		t.Fatalf("want RecoveryError in chain got %v", err)
	}

	// the transcript is gone; the combined checkpoint carries the run
	if err := os.Remove(tp); err != nil {
		t.Fatalf("remove transcript: %v", err)
	}
	res, err := p.Run(context.Background(), req)
	if err != nil {
		t.Fatalf("resumed Run() error = %v", err)
	}
	if res.Skipped {
		t.Fatalf("segmentation stage should have run")
	}
	if _, e := span(t, res.Map, 0); e != 2 {
		t.Fatalf("want boundary 2 got %d", e)
	}

	failed := 0
	for _, run := range runs.runs {
		if run.Status == entities.SegmentationRunStatusFailed {
			failed++
			if run.LastError == nil || *run.LastError == "" {
				t.Fatalf("failed run without error message")
			}
		}
	}
	if failed != 1 {
		t.Fatalf("want 1 failed run record got %d", failed)
	}
}

func TestPipelineSegmentInMemory(t *testing.T) {
	llm := &scriptedCompleter{responses: []string{`{"boundary_index": 3}`}}
	p, store, runs := newTestPipeline(t, llm, PipelineOptions{}, false)

	res, err := p.Segment(context.Background(), StrategyLLM, "api", "1. Opening\n2. Budget", meetingTranscript)
	if err != nil {
		t.Fatalf("Segment() error = %v", err)
	}
	if err := res.Map.Validate(8); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if ok, _ := store.Exists(context.Background(), CombinedKey("api", false)); ok {
		t.Fatalf("in-memory segmentation must not write checkpoints")
	}
	if run, _ := runs.GetRunByID(context.Background(), res.RunID); run == nil || run.Source != "api" {
		t.Fatalf("want recorded run for source api got %+v", run)
	}

	_, err = p.Segment(context.Background(), StrategyLLM, "api", "1. Opening", "")
	if code := appCode(t, err); code != apperrors.ErrorCode_INPUT_EMPTY_TRANSCRIPT {
		t.Fatalf("want INPUT_EMPTY_TRANSCRIPT got %s", code)
	}
}

func TestBoundariesKey(t *testing.T) {
	tests := map[string]string{
		BoundariesKey("m", StrategyLLM, false):       "m_boundaries.json",
		BoundariesKey("m", StrategyEmbedding, false): "m_boundaries_embedding.json",
		BoundariesKey("m", StrategyModerator, true):  "m_boundaries_moderator.json.zst",
		CombinedKey("m", true):                       "m_combined.json.zst",
	}
	for got, want := range tests {
		if got != want {
			t.Fatalf("want %s got %s", want, got)
		}
	}
}
