package segment

import (
	"fmt"
	"strings"
)

const boundaryPromptTemplate = `You are finding where one agenda item ends and the next begins in a meeting transcript.

CURRENT AGENDA ITEM:
%s

NEXT AGENDA ITEM:
%s

TRANSCRIPT (from the start of the current agenda item onwards):
%s
TASK:
Find the LAST utterance index that belongs to the CURRENT agenda item.
The NEXT agenda item starts at the index after your answer.

HINTS:
- Look for explicit mentions of the next agenda item's topic
- Look for transition phrases such as "let's move on to", "next item", "I call item"
- Look for shifts in the subject under discussion
- The current item ends just before the next item begins

EXAMPLE:
If index 20 completes the current item and index 21 starts the next one, return 20.

Return ONLY valid JSON:
{
  "boundary_index": <the last index of the current agenda item>,
  "reasoning": "<brief explanation>"
}`

// BoundaryPrompt renders the boundary question. Calling it with an empty
// transcript yields the fixed scaffold used for budgeting.
func BoundaryPrompt(current, next, transcript string) string {
	return fmt.Sprintf(boundaryPromptTemplate, current, next, transcript)
}

const moderatorPromptTemplate = `You are segmenting a meeting transcript by its agenda items.

You will receive:
1. The agenda items in the order they are discussed
2. The moderator's utterances with their original transcript indices

The moderator announces transitions between agenda items. Find where each item begins and ends.

AGENDA ITEMS (IN ORDER):
%s

MODERATOR UTTERANCES (WITH ORIGINAL TRANSCRIPT INDICES):
%s
RULES:
1. Agenda items are discussed in order and none are skipped
2. The first item starts at index 0
3. Each item ends immediately before the next one begins
4. announcement_index is where the moderator introduces the item, or null
5. transition_type is "explicit" for a clear announcement, otherwise "implicit"
6. If the item records a vote, put the outcome in "votes"

OUTPUT FORMAT (VALID JSON ONLY):
{
  "segments": [
    {
      "top": "<exact agenda item string from the list>",
      "start_index": <first index of this item>,
      "end_index": <last index of this item>,
      "announcement_index": <index or null>,
      "transition_type": "explicit" or "implicit",
      "reasoning": "<quote the moderator and explain the match>",
      "votes": <optional vote outcome>
    }
  ]
}

Return ONLY valid JSON. Do not include any other text before or after the JSON.`

// ModeratorPrompt renders the single-pass segmentation request
func ModeratorPrompt(topics []string, transcript string) string {
	return fmt.Sprintf(moderatorPromptTemplate, numberedList(topics), transcript)
}

func numberedList(items []string) string {
	var sb strings.Builder
	for i, item := range items {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, item)
	}
	return sb.String()
}
