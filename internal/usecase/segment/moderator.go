package segment

import (
	"context"
	"fmt"
	"strings"

	"github.com/johnquangdev/meeting-segmenter/internal/domain/entities"
	"go.uber.org/zap"
)

// ModeratorSegmenter sends only the moderator's utterances, keeping their
// transcript indices, and asks for every segment in one call.
type ModeratorSegmenter struct {
	llm     Completer
	parser  *Parser
	speaker string
	budget  Budget
	logger  *zap.Logger
}

// NewModeratorSegmenter creates the "moderator" strategy. An empty speaker
// selects the most frequent speaker of each transcript.
func NewModeratorSegmenter(llm Completer, speaker string, budget Budget, logger *zap.Logger) *ModeratorSegmenter {
	return &ModeratorSegmenter{
		llm:     llm,
		parser:  NewParser(),
		speaker: speaker,
		budget:  budget,
		logger:  logger,
	}
}

// Name implements Strategy
func (s *ModeratorSegmenter) Name() string {
	return StrategyModerator
}

// Segment implements Strategy. A failed call or an unrecoverable response
// fails the run.
func (s *ModeratorSegmenter) Segment(ctx context.Context, topics []string, utterances []entities.Utterance) (*Outcome, error) {
	if err := validateInput(topics, utterances); err != nil {
		return nil, err
	}

	speaker := s.speaker
	if speaker == "" {
		speaker = MostFrequentSpeaker(utterances)
	}
	moderated := FilterSpeaker(utterances, speaker)
	if len(moderated) == 0 {
		return nil, fmt.Errorf("speaker %q has no utterances: %w", speaker, entities.ErrEmptyTranscript)
	}

	log := &anomalyLog{logger: s.logger}
	w := s.budget.BuildWindow(ModeratorPrompt(topics, ""), moderated, IndexLine)
	if w.Forced {
		log.add(entities.AnomalyBudgetExhausted, 0, "",
			fmt.Sprintf("prompt scaffold leaves %d tokens, sent one utterance", w.Available))
	} else if w.Truncated {
		log.add(entities.AnomalyWindowTruncated, 0, "",
			fmt.Sprintf("window holds %d of %d moderator utterances", w.Len(), len(moderated)))
	}

	if s.logger != nil {
		s.logger.Info("🎙️ segmenting by moderator",
			zap.String("speaker", speaker),
			zap.Int("moderator_utterances", len(moderated)),
			zap.Int("window_length", w.Len()),
			zap.Int("tokens_used", w.Used),
		)
	}

	text, err := s.llm.Complete(ctx, ModeratorPrompt(topics, w.Text))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("moderator segmentation: %w", ctxErr)
		}
		return nil, &ServiceError{Service: "llm", Err: err}
	}

	segments, _, err := s.parser.ParseSegmentsResponse(text)
	if err != nil {
		return nil, err
	}

	total := len(utterances)
	matcher := newTopicMatcher(topics)
	cands := make([]Candidate, 0, len(segments))
	for _, seg := range segments {
		pos, ok := matcher.match(seg.Top)
		if !ok {
			log.add(entities.AnomalyTopicUnmatched, 0, seg.Top, "returned label matches no unused topic")
			continue
		}

		start := clampIndex(seg.StartIndex.Value, total)
		if start != seg.StartIndex.Value {
			log.add(entities.AnomalyBoundaryClamped, pos, topics[pos],
				fmt.Sprintf("start %d outside [0, %d], clamped to %d", seg.StartIndex.Value, total-1, start))
		}
		var announced *int
		if a := seg.AnnouncementIndex; a.Set && a.Value >= 0 && a.Value < total {
			announced = a.Ptr()
		}

		cands = append(cands, Candidate{
			Position:          pos,
			Start:             start,
			Weight:            1,
			AnnouncementIndex: announced,
			Transition:        transitionKind(seg.TransitionType),
			Reasoning:         seg.Reasoning,
			Votes:             seg.Votes,
		})
	}

	boundaries, conflicts := Aggregate(topics, total, cands)
	log.extend(conflicts)
	for i := range boundaries {
		if boundaries[i].IsMissing() {
			boundaries[i].Reasoning = "not returned by the model"
			log.add(entities.AnomalyTopicUnmatched, i, boundaries[i].Topic, "model returned no segment for this topic")
		}
	}

	return &Outcome{Boundaries: boundaries, Anomalies: log.items, Calls: 1}, nil
}

// MostFrequentSpeaker returns the speaker with the most utterances, the
// one speaking first on ties.
func MostFrequentSpeaker(utterances []entities.Utterance) string {
	counts := make(map[string]int)
	var order []string
	for _, u := range utterances {
		if counts[u.Speaker] == 0 {
			order = append(order, u.Speaker)
		}
		counts[u.Speaker]++
	}

	best := ""
	for _, sp := range order {
		if best == "" || counts[sp] > counts[best] {
			best = sp
		}
	}
	return best
}

// FilterSpeaker keeps the utterances of speaker with their original indices
func FilterSpeaker(utterances []entities.Utterance, speaker string) []entities.Utterance {
	var out []entities.Utterance
	for _, u := range utterances {
		if u.Speaker == speaker {
			out = append(out, u)
		}
	}
	return out
}

// topicMatcher maps returned labels to topic positions, each used once
type topicMatcher struct {
	topics []string
	used   []bool
}

func newTopicMatcher(topics []string) *topicMatcher {
	return &topicMatcher{topics: topics, used: make([]bool, len(topics))}
}

// match tries an exact match first, then one ignoring case and spacing
func (m *topicMatcher) match(label string) (int, bool) {
	for i, t := range m.topics {
		if !m.used[i] && t == label {
			m.used[i] = true
			return i, true
		}
	}
	norm := normalizeLabel(label)
	for i, t := range m.topics {
		if !m.used[i] && normalizeLabel(t) == norm {
			m.used[i] = true
			return i, true
		}
	}
	return -1, false
}

func normalizeLabel(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

func transitionKind(s string) entities.TransitionKind {
	if strings.EqualFold(strings.TrimSpace(s), string(entities.TransitionExplicit)) {
		return entities.TransitionExplicit
	}
	return entities.TransitionImplicit
}

func clampIndex(i, total int) int {
	if i < 0 {
		return 0
	}
	if i > total-1 {
		return total - 1
	}
	return i
}
