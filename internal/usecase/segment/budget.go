package segment

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/johnquangdev/meeting-segmenter/internal/domain/entities"
)

// Budget estimates prompt cost with a constant characters-per-token ratio
type Budget struct {
	ContextTokens   int
	ResponseReserve int
	CharsPerToken   int
}

// EstimateTokens returns floor(chars / CharsPerToken)
func (b Budget) EstimateTokens(text string) int {
	return b.tokensForRunes(utf8.RuneCountInString(text))
}

func (b Budget) tokensForRunes(n int) int {
	cpt := b.CharsPerToken
	if cpt <= 0 {
		cpt = 4
	}
	return n / cpt
}

// Available returns the tokens left for transcript lines once the scaffold
// and the response reserve are paid for. It may be negative.
func (b Budget) Available(scaffold string) int {
	return b.ContextTokens - b.EstimateTokens(scaffold) - b.ResponseReserve
}

// Window is the slice of utterances sent in one prompt
type Window struct {
	Utterances []entities.Utterance
	Text       string
	Available  int
	Used       int
	// Truncated is set when utterances were left out for lack of budget.
	Truncated bool
	// Forced is set when even the first utterance did not fit and was
	// included anyway.
	Forced bool
}

// Len returns the number of utterances in the window
func (w Window) Len() int {
	return len(w.Utterances)
}

// LineFormatter renders one utterance as a prompt line ending in "\n"
type LineFormatter func(entities.Utterance) string

// UtteranceLine renders "[Utterance i] [SPEAKER]: text"
func UtteranceLine(u entities.Utterance) string {
	return fmt.Sprintf("[Utterance %d] [%s]: %s\n", u.Index, u.Speaker, u.Text)
}

// IndexLine renders "[Index i] text"
func IndexLine(u entities.Utterance) string {
	return fmt.Sprintf("[Index %d] %s\n", u.Index, u.Text)
}

// BuildWindow adds utterances in order while the accumulated text stays
// within the budget left by scaffold. At least one utterance is always
// included when any remain.
func (b Budget) BuildWindow(scaffold string, remaining []entities.Utterance, format LineFormatter) Window {
	if format == nil {
		format = UtteranceLine
	}
	w := Window{Available: b.Available(scaffold)}

	var sb strings.Builder
	runes := 0
	for i, u := range remaining {
		line := format(u)
		runes += utf8.RuneCountInString(line)
		if b.tokensForRunes(runes) > w.Available {
			if i == 0 {
				w.Forced = true
				sb.WriteString(line)
				w.Utterances = remaining[:1]
				w.Truncated = len(remaining) > 1
			} else {
				w.Truncated = true
			}
			break
		}
		sb.WriteString(line)
		w.Utterances = remaining[:i+1]
	}

	w.Text = sb.String()
	w.Used = b.EstimateTokens(w.Text)
	return w
}
