package segment

import (
	"encoding/json"
	"time"
)

// AnomalyResponse is a quality problem recorded during a run
type AnomalyResponse struct {
	Kind   string `json:"kind"`
	Step   int    `json:"step"`
	Topic  string `json:"topic,omitempty"`
	Detail string `json:"detail"`
}

// SegmentationResponse is returned by a synchronous segmentation
type SegmentationResponse struct {
	RunID         string            `json:"run_id"`
	Strategy      string            `json:"strategy"`
	Boundaries    json.RawMessage   `json:"boundaries" swaggertype:"object"`
	MissingTopics []string          `json:"missing_topics"`
	Anomalies     []AnomalyResponse `json:"anomalies"`
	ExternalCalls int               `json:"external_calls"`
}

// RunResponse represents a recorded segmentation run
type RunResponse struct {
	ID             string            `json:"id"`
	Source         string            `json:"source"`
	Strategy       string            `json:"strategy"`
	Status         string            `json:"status"`
	TopicCount     int               `json:"topic_count"`
	UtteranceCount int               `json:"utterance_count"`
	ExternalCalls  int               `json:"external_calls"`
	LastError      *string           `json:"last_error,omitempty"`
	Boundaries     json.RawMessage   `json:"boundaries,omitempty" swaggertype:"object"`
	Anomalies      []AnomalyResponse `json:"anomalies"`
	StartedAt      time.Time         `json:"started_at"`
	CompletedAt    *time.Time        `json:"completed_at,omitempty"`
	DurationMs     int64             `json:"duration_ms"`
}
