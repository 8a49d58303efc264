package entities

// Utterance is one speaker turn in the normalized transcript. Index is the
// position in the log and is reassigned whenever the log is rebuilt.
type Utterance struct {
	Index     int      `json:"-"`
	Speaker   string   `json:"speaker_id"`
	Text      string   `json:"text"`
	StartTime *float64 `json:"start_time,omitempty"`
	EndTime   *float64 `json:"end_time,omitempty"`
}

// Reindex assigns contiguous indices from 0 in slice order
func Reindex(utterances []Utterance) {
	for i := range utterances {
		utterances[i].Index = i
	}
}

// Chunk is a transient window over utterances [Start, End)
type Chunk struct {
	Index    int
	Start    int
	End      int
	Text     string
	Speakers []string
}

// Len returns the number of utterances covered by the chunk
func (c Chunk) Len() int {
	return c.End - c.Start
}
