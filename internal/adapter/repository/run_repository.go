package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/johnquangdev/meeting-segmenter/internal/domain/entities"
	"github.com/johnquangdev/meeting-segmenter/internal/domain/repositories"
)

// RunRepository handles segmentation run data operations
type RunRepository struct {
	db *gorm.DB
}

var _ repositories.RunRepository = (*RunRepository)(nil)

// NewRunRepository creates a new run repository
func NewRunRepository(db *gorm.DB) *RunRepository {
	return &RunRepository{db: db}
}

// CreateRun inserts a new run
func (r *RunRepository) CreateRun(ctx context.Context, run *entities.SegmentationRun) error {
	if run == nil {
		return errors.New("run cannot be nil")
	}
	return r.db.WithContext(ctx).Create(run).Error
}

// UpdateRun saves all fields of an existing run
func (r *RunRepository) UpdateRun(ctx context.Context, run *entities.SegmentationRun) error {
	if run == nil {
		return errors.New("run cannot be nil")
	}
	return r.db.WithContext(ctx).Save(run).Error
}

// GetRunByID retrieves a run by ID; returns nil, nil when absent
func (r *RunRepository) GetRunByID(ctx context.Context, id uuid.UUID) (*entities.SegmentationRun, error) {
	var run entities.SegmentationRun
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&run).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &run, nil
}

// ListRuns retrieves runs newest first together with the total count
func (r *RunRepository) ListRuns(ctx context.Context, filters repositories.RunFilters) ([]entities.SegmentationRun, int64, error) {
	query := r.db.WithContext(ctx).Model(&entities.SegmentationRun{})
	if filters.Source != "" {
		query = query.Where("source = ?", filters.Source)
	}
	if filters.Strategy != "" {
		query = query.Where("strategy = ?", filters.Strategy)
	}
	if filters.Status != "" {
		query = query.Where("status = ?", filters.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit := filters.Limit
	if limit <= 0 {
		limit = 20
	}

	var runs []entities.SegmentationRun
	if err := query.
		Order("started_at DESC").
		Limit(limit).
		Offset(filters.Offset).
		Find(&runs).Error; err != nil {
		return nil, 0, err
	}
	return runs, total, nil
}
