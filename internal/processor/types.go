package processor

import (
	"fmt"

	"github.com/wgomg/kukulkan/internal/transcript"
)

// Chunk is a retrieval unit built from consecutive normalized lines.
// StartTime and EndTime are seconds; EndTime is the start of the last
// included line, not its true end (line durations are not tracked after
// normalization, so a chunk's span deliberately understates the tail).
type Chunk struct {
	Text      string
	StartTime float64
	EndTime   float64
	Index     int
}

// Citation renders the chunk's time range as "[start–end]" using MM:SS,
// or HH:MM:SS past one hour.
func (c Chunk) Citation() string {
	return fmt.Sprintf("[%s–%s]",
		transcript.FormatTimestamp(c.StartTime),
		transcript.FormatTimestamp(c.EndTime))
}
