package presenter

import (
	"encoding/json"

	"github.com/johnquangdev/meeting-segmenter/internal/adapter/dto/segment"
	"github.com/johnquangdev/meeting-segmenter/internal/domain/entities"
	segmentUsecase "github.com/johnquangdev/meeting-segmenter/internal/usecase/segment"
)

// ToSegmentationResponse converts a pipeline result to its DTO
func ToSegmentationResponse(r *segmentUsecase.Result) *segment.SegmentationResponse {
	if r == nil {
		return nil
	}

	missing := r.Map.Missing()
	if missing == nil {
		missing = []string{}
	}

	return &segment.SegmentationResponse{
		RunID:         r.RunID.String(),
		Strategy:      r.Strategy,
		Boundaries:    json.RawMessage(r.Boundaries),
		MissingTopics: missing,
		Anomalies:     ToAnomalyResponses(r.Anomalies),
		ExternalCalls: r.Calls,
	}
}

// ToRunResponse converts a SegmentationRun entity to RunResponse DTO
func ToRunResponse(run *entities.SegmentationRun) *segment.RunResponse {
	if run == nil {
		return nil
	}

	response := &segment.RunResponse{
		ID:             run.ID.String(),
		Source:         run.Source,
		Strategy:       run.Strategy,
		Status:         string(run.Status),
		TopicCount:     run.TopicCount,
		UtteranceCount: run.UtteranceCount,
		ExternalCalls:  run.ExternalCalls,
		LastError:      run.LastError,
		Anomalies:      ToAnomalyResponses(run.Anomalies),
		StartedAt:      run.StartedAt,
		CompletedAt:    run.CompletedAt,
		DurationMs:     run.DurationMs,
	}

	// Boundaries are only stored for finished runs
	if len(run.Boundaries) > 0 {
		response.Boundaries = json.RawMessage(run.Boundaries)
	}

	return response
}

// ToRunResponses converts a list of runs
func ToRunResponses(runs []entities.SegmentationRun) []*segment.RunResponse {
	out := make([]*segment.RunResponse, 0, len(runs))
	for i := range runs {
		out = append(out, ToRunResponse(&runs[i]))
	}
	return out
}

// ToAnomalyResponses converts anomalies, never returning nil
func ToAnomalyResponses(items []entities.Anomaly) []segment.AnomalyResponse {
	out := make([]segment.AnomalyResponse, 0, len(items))
	for _, a := range items {
		out = append(out, segment.AnomalyResponse{
			Kind:   string(a.Kind),
			Step:   a.Step,
			Topic:  a.Topic,
			Detail: a.Detail,
		})
	}
	return out
}
