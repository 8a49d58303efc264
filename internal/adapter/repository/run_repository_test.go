package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/johnquangdev/meeting-segmenter/internal/domain/entities"
	"github.com/johnquangdev/meeting-segmenter/internal/domain/repositories"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{})
	if err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	if err := db.AutoMigrate(&entities.SegmentationRun{}); err != nil {
		t.Skipf("sqlite migrate unavailable: %v", err)
	}
	return db
}

func TestRunRepositoryLifecycle(t *testing.T) {
	repo := NewRunRepository(openTestDB(t))
	ctx := context.Background()

	run := entities.NewSegmentationRun(uuid.New(), "council_2024_03", "llm", time.Now())
	run.TopicCount = 2
	run.UtteranceCount = 10
	if err := repo.CreateRun(ctx, run); err != nil {
		t.Fatalf("CreateRun() error = %v", err)
	}

	anomalies := []entities.Anomaly{{Kind: entities.AnomalyBoundaryClamped, Step: 1, Topic: "1. Opening", Detail: "12 -> 9"}}
	run.MarkAsCompleted([]byte(`{"1. Opening":{"start_index":0,"end_index":4}}`), anomalies, 1, false)
	if err := repo.UpdateRun(ctx, run); err != nil {
		t.Fatalf("UpdateRun() error = %v", err)
	}

	got, err := repo.GetRunByID(ctx, run.ID)
	if err != nil {
		t.Fatalf("GetRunByID() error = %v", err)
	}
	if got == nil {
		t.Fatalf("expected run to be found")
	}
	if got.Status != entities.SegmentationRunStatusCompleted || got.ExternalCalls != 1 {
		t.Fatalf("unexpected run %+v", got)
	}
	if len(got.Anomalies) != 1 || got.Anomalies[0].Kind != entities.AnomalyBoundaryClamped {
		t.Fatalf("anomalies not persisted: %+v", got.Anomalies)
	}

	missing, err := repo.GetRunByID(ctx, uuid.New())
	if err != nil || missing != nil {
		t.Fatalf("want nil, nil for unknown id, got %v, %v", missing, err)
	}
}

func TestRunRepositoryListFilters(t *testing.T) {
	repo := NewRunRepository(openTestDB(t))
	ctx := context.Background()

	base := time.Now()
	for i, strategy := range []string{"llm", "embedding", "llm"} {
		run := entities.NewSegmentationRun(uuid.New(), "meeting", strategy, base.Add(time.Duration(i)*time.Minute))
		if err := repo.CreateRun(ctx, run); err != nil {
			t.Fatalf("CreateRun() error = %v", err)
		}
	}

	runs, total, err := repo.ListRuns(ctx, repositories.RunFilters{Strategy: "llm"})
	if err != nil {
		t.Fatalf("ListRuns() error = %v", err)
	}
	if total != 2 || len(runs) != 2 {
		t.Fatalf("want 2 llm runs got total=%d len=%d", total, len(runs))
	}
	if !runs[0].StartedAt.After(runs[1].StartedAt) {
		t.Fatalf("runs should be newest first")
	}
}
