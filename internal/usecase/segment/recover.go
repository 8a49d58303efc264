package segment

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// RecoveryMethod names the strategy that produced a recovered object
type RecoveryMethod string

const (
	RecoveredFenced   RecoveryMethod = "fenced"
	RecoveredBalanced RecoveryMethod = "balanced"
	RecoveredTrimmed  RecoveryMethod = "trimmed"
)

// RecoveryError is returned when no structured object can be extracted
// from a model response.
type RecoveryError struct {
	Reason  string
	Snippet string
}

func (e *RecoveryError) Error() string {
	if e.Snippet == "" {
		return fmt.Sprintf("recover json: %s", e.Reason)
	}
	return fmt.Sprintf("recover json: %s (response starts %q)", e.Reason, e.Snippet)
}

const snippetLen = 80

var fencedJSON = regexp.MustCompile("(?s)```json\\s*(.*?)\\s*```")

// RecoverJSON extracts the first well-formed JSON object from text that may
// carry markdown fences, prose or trailing commentary.
func RecoverJSON(text string) (json.RawMessage, RecoveryMethod, error) {
	if raw, ok := fromFence(text); ok {
		return raw, RecoveredFenced, nil
	}
	if raw, ok := fromBalanced(text); ok {
		return raw, RecoveredBalanced, nil
	}
	if raw, ok := fromTrimmed(text); ok {
		return raw, RecoveredTrimmed, nil
	}

	reason := "no parseable object"
	if !strings.Contains(text, "{") {
		reason = "no opening brace"
	}
	return nil, "", &RecoveryError{Reason: reason, Snippet: snippet(text)}
}

func fromFence(text string) (json.RawMessage, bool) {
	for _, m := range fencedJSON.FindAllStringSubmatch(text, -1) {
		body := strings.TrimSpace(m[1])
		if body == "" || (body[0] != '{' && body[0] != '[') {
			continue
		}
		if json.Valid([]byte(body)) {
			return json.RawMessage(body), true
		}
	}
	return nil, false
}

// fromBalanced walks the text tracking brace depth outside string literals
// and tries every span that closes back to depth zero.
func fromBalanced(text string) (json.RawMessage, bool) {
	depth := 0
	start := -1
	inString := false
	escaped := false

	for i := 0; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			if depth > 0 {
				inString = true
			}
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth == 0 {
				continue
			}
			depth--
			if depth == 0 {
				span := text[start : i+1]
				if json.Valid([]byte(span)) {
					return json.RawMessage(span), true
				}
				start = -1
			}
		}
	}
	return nil, false
}

// fromTrimmed keeps the first opening brace and drops characters from the
// end until what remains parses.
func fromTrimmed(text string) (json.RawMessage, bool) {
	first := strings.IndexByte(text, '{')
	if first < 0 {
		return nil, false
	}
	for end := len(text); end > first+1; end-- {
		if text[end-1] != '}' {
			continue
		}
		span := text[first:end]
		if json.Valid([]byte(span)) {
			return json.RawMessage(span), true
		}
	}
	return nil, false
}

func snippet(text string) string {
	text = strings.TrimSpace(text)
	r := []rune(text)
	if len(r) > snippetLen {
		return string(r[:snippetLen]) + "..."
	}
	return text
}
