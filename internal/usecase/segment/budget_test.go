package segment

import (
	"strings"
	"testing"

	"github.com/johnquangdev/meeting-segmenter/internal/domain/entities"
)

func TestEstimateTokensFloorsRunes(t *testing.T) {
	b := Budget{CharsPerToken: 4}
	tests := map[string]int{
		"":          0,
		"abc":       0,
		"abcd":      1,
		"abcdefghi": 2,
		"ééééé":     1,
	}
	for in, want := range tests {
		if got := b.EstimateTokens(in); got != want {
			t.Fatalf("EstimateTokens(%q): want %d got %d", in, want, got)
		}
	}
}

func TestUtteranceLineFormat(t *testing.T) {
	got := UtteranceLine(entities.Utterance{Index: 3, Speaker: "SPEAKER_01", Text: "hello"})
	if got != "[Utterance 3] [SPEAKER_01]: hello\n" {
		t.Fatalf("unexpected line %q", got)
	}
	if got := IndexLine(entities.Utterance{Index: 7, Text: "next item"}); got != "[Index 7] next item\n" {
		t.Fatalf("unexpected line %q", got)
	}
}

// Each line of utterances(3) is 23 runes, so 5, 11 and 17 tokens cumulatively.
func TestBuildWindowStopsBeforeOverflow(t *testing.T) {
	utts := utterances(3)
	tests := []struct {
		context   int
		want      int
		truncated bool
		forced    bool
	}{
		{context: 17, want: 3},
		{context: 16, want: 2, truncated: true},
		{context: 11, want: 2, truncated: true},
		{context: 10, want: 1, truncated: true},
		{context: 4, want: 1, truncated: true, forced: true},
	}
	for _, tt := range tests {
		b := Budget{ContextTokens: tt.context, CharsPerToken: 4}
		w := b.BuildWindow("", utts, UtteranceLine)
		if w.Len() != tt.want || w.Truncated != tt.truncated || w.Forced != tt.forced {
			t.Fatalf("context %d: want len=%d truncated=%v forced=%v got len=%d truncated=%v forced=%v",
				tt.context, tt.want, tt.truncated, tt.forced, w.Len(), w.Truncated, w.Forced)
		}
		if strings.Count(w.Text, "\n") != w.Len() {
			t.Fatalf("context %d: text holds %d lines for %d utterances", tt.context, strings.Count(w.Text, "\n"), w.Len())
		}
	}
}

func TestBuildWindowMonotonicInBudget(t *testing.T) {
	utts := utterances(40)
	scaffold := BoundaryPrompt("1. Opening", "2. Budget", "")
	prev := len(utts) + 1
	for total := 2000; total >= 0; total -= 7 {
		b := Budget{ContextTokens: total, ResponseReserve: 50, CharsPerToken: 4}
		n := b.BuildWindow(scaffold, utts, UtteranceLine).Len()
		if n > prev {
			t.Fatalf("budget %d includes %d utterances, more than %d at a larger budget", total, n, prev)
		}
		prev = n
	}
}

func TestBuildWindowAlwaysIncludesOne(t *testing.T) {
	b := Budget{ContextTokens: 10, ResponseReserve: 500, CharsPerToken: 4}
	w := b.BuildWindow(strings.Repeat("x", 4000), utterances(5), UtteranceLine)
	if w.Len() != 1 || !w.Forced {
		t.Fatalf("want one forced utterance got len=%d forced=%v", w.Len(), w.Forced)
	}
	if w.Available >= 0 {
		t.Fatalf("want negative available budget got %d", w.Available)
	}
}

func TestBuildWindowEmpty(t *testing.T) {
	w := largeBudget.BuildWindow("", nil, nil)
	if w.Len() != 0 || w.Text != "" || w.Truncated {
		t.Fatalf("unexpected window %+v", w)
	}
}
