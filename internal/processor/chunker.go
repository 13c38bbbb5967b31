package processor

import (
	"strings"

	"github.com/wgomg/kukulkan/internal/transcript"
)

// EstimateTokens approximates token count as len(text)/4. This is a coarse
// character-based proxy, not a real tokenizer; it trades accuracy for zero
// dependencies and is good enough to budget chunk windows.
func EstimateTokens(text string) int {
	return len(text) / 4
}

// SplitTranscript cuts a normalized "[timestamp] text" stream into
// overlapping, token-budgeted chunks.
//
// Windowing: starting at line i, lines are accumulated while the running
// token estimate stays at or under targetTokens; the first line is always
// accepted even when it alone busts the budget, so a single oversized line
// cannot stall the loop. After a chunk closes over lines [i, j), the next
// window starts at max(i+1, j-overlapCount) with
// overlapCount = max(1, floor(consumed*overlapFraction)) — the window start
// strictly advances every iteration while the tail lines of each chunk are
// re-included in the next.
//
// Lines that don't match the "[timestamp] text" format are skipped.
// Empty or unparsable input yields an empty chunk list, not an error.
func SplitTranscript(normalized string, targetTokens int, overlapFraction float64) []Chunk {
	lines := parseLines(normalized)
	if len(lines) == 0 {
		return nil
	}

	var chunks []Chunk
	index := 0
	i := 0

	for i < len(lines) {
		var parts []string
		startTime := lines[i].Start
		endTime := startTime
		currentTokens := 0

		j := i
		// The window closes once the budget is met exactly, so zero-token
		// lines cannot keep extending a full chunk.
		for j < len(lines) && currentTokens < targetTokens {
			lineTokens := EstimateTokens(lines[j].Text)

			if currentTokens+lineTokens <= targetTokens || len(parts) == 0 {
				parts = append(parts, lines[j].Text)
				endTime = lines[j].Start
				currentTokens += lineTokens
				j++
			} else {
				break
			}
		}

		text := strings.Join(parts, " ")
		if strings.TrimSpace(text) != "" {
			chunks = append(chunks, Chunk{
				Text:      text,
				StartTime: startTime,
				EndTime:   endTime,
				Index:     index,
			})
			index++
		}

		overlapCount := max(1, int(float64(len(parts))*overlapFraction))
		i = max(i+1, j-overlapCount)
	}

	return chunks
}

func parseLines(normalized string) []transcript.Line {
	var lines []transcript.Line

	for _, raw := range strings.Split(strings.TrimSpace(normalized), "\n") {
		if strings.TrimSpace(raw) == "" {
			continue
		}

		line, ok := transcript.ParseLine(raw)
		if !ok {
			continue
		}

		lines = append(lines, line)
	}

	return lines
}
