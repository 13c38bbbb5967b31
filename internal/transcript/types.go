package transcript

// Segment is a single timestamped speech unit as delivered by a transcript
// source or the speech-to-text fallback. Times are seconds.
type Segment struct {
	Text     string  `json:"text"`
	Start    float64 `json:"start"`
	Duration float64 `json:"duration"`
}

func (s Segment) End() float64 {
	return s.Start + s.Duration
}

// Line is a cleaned segment after merging. Durations are not carried past
// normalization; only the start offset survives.
type Line struct {
	Text  string
	Start float64
}
