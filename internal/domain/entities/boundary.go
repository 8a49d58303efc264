package entities

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// TransitionKind describes how a topic change was signalled in the meeting
type TransitionKind string

const (
	TransitionExplicit TransitionKind = "explicit"
	TransitionImplicit TransitionKind = "implicit"
	TransitionMissing  TransitionKind = "missing"
)

// BoundaryRecord is the span assigned to one topic. A record with nil
// indices marks a topic that was not located.
type BoundaryRecord struct {
	Topic             string         `json:"-"`
	Position          int            `json:"-"`
	StartIndex        *int           `json:"start_index"`
	EndIndex          *int           `json:"end_index"`
	AnnouncementIndex *int           `json:"announcement_index,omitempty"`
	TransitionKind    TransitionKind `json:"transition_kind,omitempty"`
	Reasoning         string         `json:"reasoning,omitempty"`
	Votes             *Votes         `json:"votes,omitempty"`
}

// Span builds a located record for [start, end]
func Span(topic string, position, start, end int) BoundaryRecord {
	return BoundaryRecord{
		Topic:      topic,
		Position:   position,
		StartIndex: IntPtr(start),
		EndIndex:   IntPtr(end),
	}
}

// MissingRecord builds the placeholder for a topic that was not located
func MissingRecord(topic string, position int) BoundaryRecord {
	return BoundaryRecord{
		Topic:          topic,
		Position:       position,
		TransitionKind: TransitionMissing,
	}
}

// IsMissing reports whether the record has no span
func (r BoundaryRecord) IsMissing() bool {
	return r.StartIndex == nil || r.EndIndex == nil
}

// BoundaryMap holds exactly one record per topic in topic order. It encodes
// as a JSON object keyed by topic label with keys in topic order; the k-th
// repeat of a label (k >= 2) is keyed "<label> #k".
type BoundaryMap []BoundaryRecord

// Keys returns the JSON object keys in order
func (m BoundaryMap) Keys() []string {
	seen := make(map[string]int, len(m))
	keys := make([]string, len(m))
	for i, rec := range m {
		seen[rec.Topic]++
		if n := seen[rec.Topic]; n > 1 {
			keys[i] = fmt.Sprintf("%s #%d", rec.Topic, n)
		} else {
			keys[i] = rec.Topic
		}
	}
	return keys
}

// MarshalJSON writes an ordered object
func (m BoundaryMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range m.Keys() {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(m[i])
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads an object keeping its key order
func (m *BoundaryMap) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("boundary map must be a JSON object")
	}

	var out BoundaryMap
	seen := make(map[string]int)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected boundary map key %v", tok)
		}
		var rec BoundaryRecord
		if err := dec.Decode(&rec); err != nil {
			return fmt.Errorf("boundary %q: %w", key, err)
		}
		rec.Topic = labelFromKey(key, seen)
		seen[rec.Topic]++
		rec.Position = len(out)
		out = append(out, rec)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*m = out
	return nil
}

// labelFromKey strips a " #k" repeat suffix when it matches the number of
// times the bare label has already been seen.
func labelFromKey(key string, seen map[string]int) string {
	i := strings.LastIndex(key, " #")
	if i <= 0 {
		return key
	}
	n, err := strconv.Atoi(key[i+2:])
	if err != nil {
		return key
	}
	base := key[:i]
	if seen[base] == n-1 && n > 1 {
		return base
	}
	return key
}

// Lookup returns the first record for topic
func (m BoundaryMap) Lookup(topic string) (BoundaryRecord, bool) {
	for _, rec := range m {
		if rec.Topic == topic {
			return rec, true
		}
	}
	return BoundaryRecord{}, false
}

// Missing returns the topics without a span
func (m BoundaryMap) Missing() []string {
	var out []string
	for _, rec := range m {
		if rec.IsMissing() {
			out = append(out, rec.Topic)
		}
	}
	return out
}

// Validate checks that the located records form a contiguous, ordered,
// gap-free partition of [0, total-1].
func (m BoundaryMap) Validate(total int) error {
	next := 0
	located := 0
	for i, rec := range m {
		if rec.Position != i {
			return fmt.Errorf("record %d has position %d", i, rec.Position)
		}
		if rec.IsMissing() {
			continue
		}
		located++
		start, end := *rec.StartIndex, *rec.EndIndex
		if start != next {
			return fmt.Errorf("topic %q starts at %d, expected %d", rec.Topic, start, next)
		}
		if end < start {
			return fmt.Errorf("topic %q ends at %d before its start %d", rec.Topic, end, start)
		}
		next = end + 1
	}
	if located > 0 && next != total {
		return fmt.Errorf("spans end at %d, transcript has %d utterances", next-1, total)
	}
	return nil
}

// IntPtr returns a pointer to v
func IntPtr(v int) *int {
	return &v
}
