package segment

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/johnquangdev/meeting-segmenter/internal/domain/entities"
)

// Parser turns recovered model responses into typed values
type Parser struct{}

// NewParser creates a new Parser instance
func NewParser() *Parser {
	return &Parser{}
}

// BoundaryResponse is the answer to one boundary question
type BoundaryResponse struct {
	BoundaryIndex int
	Reasoning     string
}

// SegmentResponse is one segment returned by the single-pass moderator prompt
type SegmentResponse struct {
	Top               string          `json:"top"`
	StartIndex        flexInt         `json:"start_index"`
	EndIndex          flexInt         `json:"end_index"`
	AnnouncementIndex flexInt         `json:"announcement_index"`
	TransitionType    string          `json:"transition_type"`
	Reasoning         string          `json:"reasoning"`
	Votes             *entities.Votes `json:"votes"`
}

// ParseBoundaryResponse recovers the boundary index and reasoning. A
// response without a usable index is reported as a RecoveryError.
func (p *Parser) ParseBoundaryResponse(text string) (*BoundaryResponse, RecoveryMethod, error) {
	raw, method, err := RecoverJSON(text)
	if err != nil {
		return nil, "", err
	}

	var body struct {
		BoundaryIndex flexInt `json:"boundary_index"`
		Reasoning     string  `json:"reasoning"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, method, &RecoveryError{Reason: fmt.Sprintf("boundary object: %v", err), Snippet: snippet(string(raw))}
	}
	if !body.BoundaryIndex.Set {
		return nil, method, &RecoveryError{Reason: "missing boundary_index", Snippet: snippet(string(raw))}
	}

	return &BoundaryResponse{
		BoundaryIndex: body.BoundaryIndex.Value,
		Reasoning:     strings.TrimSpace(body.Reasoning),
	}, method, nil
}

// ParseSegmentsResponse recovers the segment list of a moderator response.
// Segments without a label or start index are dropped.
func (p *Parser) ParseSegmentsResponse(text string) ([]SegmentResponse, RecoveryMethod, error) {
	raw, method, err := RecoverJSON(text)
	if err != nil {
		return nil, "", err
	}

	var body struct {
		Segments []SegmentResponse `json:"segments"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, method, &RecoveryError{Reason: fmt.Sprintf("segments object: %v", err), Snippet: snippet(string(raw))}
	}
	if body.Segments == nil {
		return nil, method, &RecoveryError{Reason: "missing segments", Snippet: snippet(string(raw))}
	}

	segments := make([]SegmentResponse, 0, len(body.Segments))
	for _, s := range body.Segments {
		s.Top = strings.TrimSpace(s.Top)
		if s.Top == "" || !s.StartIndex.Set {
			continue
		}
		segments = append(segments, s)
	}
	return segments, method, nil
}

// flexInt accepts a JSON number, a numeric string or null
type flexInt struct {
	Value int
	Set   bool
}

func (f *flexInt) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = flexInt{}
		return nil
	}

	s := string(data)
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*f = flexInt{}
			return nil
		}
	}

	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("not an index: %s", data)
	}
	*f = flexInt{Value: int(n), Set: true}
	return nil
}

// Ptr returns the value as *int, nil when unset
func (f flexInt) Ptr() *int {
	if !f.Set {
		return nil
	}
	return entities.IntPtr(f.Value)
}
