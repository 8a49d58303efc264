package entities

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// SegmentationRunStatus represents the status of a segmentation run
type SegmentationRunStatus string

const (
	SegmentationRunStatusRunning   SegmentationRunStatus = "running"   // Stages in progress
	SegmentationRunStatusCompleted SegmentationRunStatus = "completed" // Boundary map produced
	SegmentationRunStatusSkipped   SegmentationRunStatus = "skipped"   // All stages served from checkpoints
	SegmentationRunStatusFailed    SegmentationRunStatus = "failed"    // Terminal error
)

// SegmentationRun is the audit record of one pipeline invocation
type SegmentationRun struct {
	ID             uuid.UUID             `json:"id" gorm:"type:uuid;primary_key"`
	Source         string                `json:"source" gorm:"type:varchar(255);not null;index"`
	Strategy       string                `json:"strategy" gorm:"type:varchar(50);not null;index"`
	Status         SegmentationRunStatus `json:"status" gorm:"type:varchar(50);not null;index;default:'running'"`
	TopicCount     int                   `json:"topic_count" gorm:"type:integer;default:0"`
	UtteranceCount int                   `json:"utterance_count" gorm:"type:integer;default:0"`
	ExternalCalls  int                   `json:"external_calls" gorm:"type:integer;default:0"`
	LastError      *string               `json:"last_error,omitempty" gorm:"type:text"`

	Boundaries datatypes.JSON               `json:"boundaries,omitempty"`
	Anomalies  datatypes.JSONSlice[Anomaly] `json:"anomalies,omitempty"`

	StartedAt   time.Time  `json:"started_at" gorm:"not null"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	DurationMs  int64      `json:"duration_ms" gorm:"type:bigint;default:0"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// NewSegmentationRun creates a run in the running state
func NewSegmentationRun(id uuid.UUID, source, strategy string, startedAt time.Time) *SegmentationRun {
	return &SegmentationRun{
		ID:        id,
		Source:    source,
		Strategy:  strategy,
		Status:    SegmentationRunStatusRunning,
		StartedAt: startedAt,
	}
}

// MarkAsCompleted stores the boundary map and final counters
func (r *SegmentationRun) MarkAsCompleted(boundaries []byte, anomalies []Anomaly, calls int, skipped bool) {
	r.Status = SegmentationRunStatusCompleted
	if skipped {
		r.Status = SegmentationRunStatusSkipped
	}
	r.Boundaries = datatypes.JSON(boundaries)
	r.Anomalies = datatypes.JSONSlice[Anomaly](anomalies)
	r.ExternalCalls = calls
	r.finish()
}

// MarkAsFailed marks run as failed with error message
func (r *SegmentationRun) MarkAsFailed(errMsg string, anomalies []Anomaly, calls int) {
	r.Status = SegmentationRunStatusFailed
	r.LastError = &errMsg
	r.Anomalies = datatypes.JSONSlice[Anomaly](anomalies)
	r.ExternalCalls = calls
	r.finish()
}

func (r *SegmentationRun) finish() {
	now := time.Now()
	r.CompletedAt = &now
	r.DurationMs = now.Sub(r.StartedAt).Milliseconds()
	r.UpdatedAt = now
}

// TableName specifies the table name for GORM
func (SegmentationRun) TableName() string {
	return "segmentation_runs"
}
