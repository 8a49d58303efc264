package repositories

import (
	"context"

	"github.com/google/uuid"

	"github.com/johnquangdev/meeting-segmenter/internal/domain/entities"
)

// RunFilters narrows ListRuns
type RunFilters struct {
	Source   string
	Strategy string
	Status   entities.SegmentationRunStatus
	Limit    int
	Offset   int
}

// RunRepository persists the audit trail of segmentation runs
type RunRepository interface {
	CreateRun(ctx context.Context, run *entities.SegmentationRun) error
	UpdateRun(ctx context.Context, run *entities.SegmentationRun) error
	GetRunByID(ctx context.Context, id uuid.UUID) (*entities.SegmentationRun, error)
	ListRuns(ctx context.Context, filters RunFilters) ([]entities.SegmentationRun, int64, error)
}
