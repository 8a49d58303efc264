package entities

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestVotesUnmarshalVariants(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Votes
	}{
		{"string", `"einstimmig"`, Votes{Kind: VotesSingle, Single: "einstimmig"}},
		{"list", `["12 ja", "3 nein"]`, Votes{Kind: VotesList, List: []string{"12 ja", "3 nein"}}},
		{"mixed list", `["ja", {"nein": 2}]`, Votes{Kind: VotesList, List: []string{"ja", `{"nein":2}`}}},
		{"object", `{"ja": 12, "nein": 3}`, Votes{Kind: VotesSingle, Single: `{"ja":12,"nein":3}`}},
		{"number", `7`, Votes{Kind: VotesSingle, Single: "7"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got Votes
			if err := json.Unmarshal([]byte(tt.in), &got); err != nil {
				t.Fatalf("Unmarshal() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("want=%+v got=%+v", tt.want, got)
			}
		})
	}
}

func TestVotesInsideRecord(t *testing.T) {
	var rec BoundaryRecord
	if err := json.Unmarshal([]byte(`{"start_index":1,"end_index":2,"votes":["ja"]}`), &rec); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if rec.Votes == nil || rec.Votes.Kind != VotesList {
		t.Fatalf("expected list votes, got %+v", rec.Votes)
	}
	b, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(b) != `{"start_index":1,"end_index":2,"votes":["ja"]}` {
		t.Fatalf("unexpected encoding %s", b)
	}
}
