package segment

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/johnquangdev/meeting-segmenter/internal/domain/entities"
)

// speakerLine matches "[SPEAKER_07]: text" and the timestamped
// "[MM:SS Speaker A]: text" / "[HH:MM:SS SPEAKER_07]: text" forms.
var speakerLine = regexp.MustCompile(`^\[(?:(\d{1,2}:\d{2}(?::\d{2})?)\s+)?([^\]]+)\]:\s*(.*)$`)

const maxLineBytes = 1 << 20

// ParseTranscript reads speaker-tagged lines. Blank lines are ignored and
// untagged lines are appended to the previous utterance. The result is
// merged and reindexed.
func ParseTranscript(r io.Reader) ([]entities.Utterance, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)

	var raw []entities.Utterance
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		m := speakerLine.FindStringSubmatch(line)
		if m == nil {
			if len(raw) > 0 {
				last := &raw[len(raw)-1]
				last.Text = joinText(last.Text, line)
			}
			continue
		}

		utt := entities.Utterance{
			Speaker: strings.TrimSpace(m[2]),
			Text:    strings.TrimSpace(m[3]),
		}
		if m[1] != "" {
			if secs, ok := parseClock(m[1]); ok {
				utt.StartTime = &secs
			}
		}
		raw = append(raw, utt)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read transcript: %w", err)
	}

	return MergeSpeakerRuns(raw), nil
}

// LoadTranscript parses the transcript file at path
func LoadTranscript(path string) ([]entities.Utterance, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseTranscript(f)
}

// MergeSpeakerRuns drops empty utterances, joins consecutive utterances of
// the same speaker and assigns contiguous indices from 0.
func MergeSpeakerRuns(in []entities.Utterance) []entities.Utterance {
	out := make([]entities.Utterance, 0, len(in))
	for _, utt := range in {
		if strings.TrimSpace(utt.Text) == "" {
			continue
		}
		if n := len(out); n > 0 && out[n-1].Speaker == utt.Speaker {
			prev := &out[n-1]
			prev.Text = joinText(prev.Text, utt.Text)
			if prev.StartTime == nil {
				prev.StartTime = utt.StartTime
			}
			if utt.EndTime != nil {
				prev.EndTime = utt.EndTime
			}
			continue
		}
		out = append(out, utt)
	}
	entities.Reindex(out)
	return out
}

// ParseTopics reads one topic label per non-blank line, keeping order
func ParseTopics(r io.Reader) ([]string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)

	var topics []string
	for scanner.Scan() {
		if label := strings.TrimSpace(scanner.Text()); label != "" {
			topics = append(topics, label)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read topics: %w", err)
	}
	return topics, nil
}

// LoadTopics parses the topics file at path
func LoadTopics(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseTopics(f)
}

func joinText(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	default:
		return a + " " + b
	}
}

// parseClock converts MM:SS or HH:MM:SS into seconds
func parseClock(s string) (float64, bool) {
	parts := strings.Split(s, ":")
	total := 0
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return 0, false
		}
		total = total*60 + n
	}
	return float64(total), true
}
