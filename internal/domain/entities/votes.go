package entities

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// VotesKind tags which variant of Votes is populated
type VotesKind string

const (
	VotesSingle VotesKind = "single"
	VotesList   VotesKind = "list"
)

// Votes records council vote outcomes attached to an agenda item. Model
// output carries them as a string, a list or an object; objects are kept
// as their compact JSON text.
type Votes struct {
	Kind   VotesKind
	Single string
	List   []string
}

// UnmarshalJSON accepts a string, a list, an object or a scalar
func (v *Votes) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*v = Votes{}
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = Votes{Kind: VotesSingle, Single: s}
	case '[':
		var raw []json.RawMessage
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		list := make([]string, 0, len(raw))
		for _, item := range raw {
			list = append(list, rawToString(item))
		}
		*v = Votes{Kind: VotesList, List: list}
	default:
		*v = Votes{Kind: VotesSingle, Single: rawToString(data)}
	}
	return nil
}

// MarshalJSON emits a string or a list of strings
func (v Votes) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case VotesList:
		list := v.List
		if list == nil {
			list = []string{}
		}
		return json.Marshal(list)
	case VotesSingle:
		return json.Marshal(v.Single)
	default:
		return []byte("null"), nil
	}
}

// IsZero reports whether no votes were recorded
func (v Votes) IsZero() bool {
	return v.Kind == ""
}

func (v Votes) String() string {
	switch v.Kind {
	case VotesList:
		return fmt.Sprintf("%v", v.List)
	default:
		return v.Single
	}
}

func rawToString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}
