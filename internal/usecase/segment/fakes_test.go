package segment

import (
	"context"
	"fmt"
	"testing"

	"github.com/johnquangdev/meeting-segmenter/internal/domain/entities"
)

// scriptedCompleter answers call i with responses[i], or fails with errs[i]
// when that entry is non-nil.
type scriptedCompleter struct {
	responses []string
	errs      []error
	prompts   []string
}

func (c *scriptedCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	i := len(c.prompts)
	c.prompts = append(c.prompts, prompt)
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if i < len(c.errs) && c.errs[i] != nil {
		return "", c.errs[i]
	}
	if i < len(c.responses) {
		return c.responses[i], nil
	}
	return "", fmt.Errorf("unexpected call %d", i)
}

func (c *scriptedCompleter) calls() int {
	return len(c.prompts)
}

// funcCompleter answers with f(call number)
type funcCompleter struct {
	f     func(call int) string
	count int
}

func (c *funcCompleter) Complete(_ context.Context, _ string) (string, error) {
	c.count++
	return c.f(c.count - 1), nil
}

// utterances builds n utterances "u0".."u{n-1}" alternating two speakers
func utterances(n int) []entities.Utterance {
	out := make([]entities.Utterance, n)
	for i := range out {
		out[i] = entities.Utterance{
			Index:   i,
			Speaker: fmt.Sprintf("S%d", i%2),
			Text:    fmt.Sprintf("u%d", i),
		}
	}
	return out
}

func span(t *testing.T, m entities.BoundaryMap, pos int) (int, int) {
	t.Helper()
	if pos >= len(m) {
		t.Fatalf("map has %d records, want position %d", len(m), pos)
	}
	rec := m[pos]
	if rec.IsMissing() {
		t.Fatalf("topic %q is missing", rec.Topic)
	}
	return *rec.StartIndex, *rec.EndIndex
}

func hasAnomaly(items []entities.Anomaly, kind entities.AnomalyKind) bool {
	for _, a := range items {
		if a.Kind == kind {
			return true
		}
	}
	return false
}

var largeBudget = Budget{ContextTokens: 40960, ResponseReserve: 500, CharsPerToken: 4}
