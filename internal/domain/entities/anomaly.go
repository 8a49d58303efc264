package entities

// AnomalyKind classifies a non-fatal quality problem seen during a run
type AnomalyKind string

const (
	AnomalyBoundaryClamped      AnomalyKind = "boundary_clamped"
	AnomalyFallbackService      AnomalyKind = "fallback_service"
	AnomalyFallbackParse        AnomalyKind = "fallback_parse"
	AnomalyWindowTruncated      AnomalyKind = "window_truncated"
	AnomalyBudgetExhausted      AnomalyKind = "budget_exhausted"
	AnomalyTranscriptExhausted  AnomalyKind = "transcript_exhausted"
	AnomalyEmbeddingUnavailable AnomalyKind = "embedding_unavailable"
	AnomalyTopicUnmatched       AnomalyKind = "topic_unmatched"
	AnomalyOrderConflict        AnomalyKind = "order_conflict"
)

// Anomaly is recorded, logged and persisted with the run; it never aborts it
type Anomaly struct {
	Kind   AnomalyKind `json:"kind"`
	Step   int         `json:"step"`
	Topic  string      `json:"topic,omitempty"`
	Detail string      `json:"detail"`
}
