package transcript

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

const (
	// Segments shorter than this are folded into their successor.
	DefaultMinSegmentDuration = 2.0

	// Cleaned text below this length is treated as noise and dropped.
	minTextLength = 3
)

var (
	bracketRe     = regexp.MustCompile(`\[.*?\]`)
	parenRe       = regexp.MustCompile(`\(.*?\)`)
	angleRe       = regexp.MustCompile(`<.*?>`)
	musicRe       = regexp.MustCompile(`♪.*?♪`)
	whitespaceRe  = regexp.MustCompile(`\s+`)
	timestampedRe = regexp.MustCompile(`^\[(\d{1,2}:\d{2}(?::\d{2})?)\]\s*(.*)$`)
)

// CleanText strips non-speech artifacts ([Music], (inaudible), <tags>,
// ♪ lyrics ♪) and collapses whitespace. Anything left under three
// characters is noise, not a valid line.
func CleanText(text string) string {
	if text == "" {
		return ""
	}

	text = bracketRe.ReplaceAllString(text, "")
	text = parenRe.ReplaceAllString(text, "")
	text = angleRe.ReplaceAllString(text, "")
	text = musicRe.ReplaceAllString(text, "")

	text = whitespaceRe.ReplaceAllString(text, " ")
	text = strings.TrimSpace(text)

	if len(text) < minTextLength {
		return ""
	}

	return text
}

// Merge folds segments shorter than minDuration into their successor,
// space-joining text and extending the span to cover both. The fold is
// strictly left to right; the final accumulator is always flushed even
// when still short.
func Merge(segments []Segment, minDuration float64) []Line {
	if len(segments) == 0 {
		return nil
	}

	if minDuration <= 0 {
		minDuration = DefaultMinSegmentDuration
	}

	acc := segments[0]
	var merged []Line

	for _, next := range segments[1:] {
		if acc.Duration < minDuration {
			acc.Text += " " + next.Text
			acc.Duration = max(next.End(), acc.End()) - acc.Start
		} else {
			merged = append(merged, Line{Text: acc.Text, Start: acc.Start})
			acc = next
		}
	}

	merged = append(merged, Line{Text: acc.Text, Start: acc.Start})

	return merged
}

// Normalize cleans, merges and formats raw segments into a newline-joined
// "[MM:SS] text" stream. Empty input yields an empty string; malformed
// segments are defaulted or dropped, never an error.
func Normalize(segments []Segment, minDuration float64) string {
	if len(segments) == 0 {
		return ""
	}

	cleaned := make([]Segment, 0, len(segments))
	for _, segment := range segments {
		text := CleanText(strings.TrimSpace(segment.Text))
		if text == "" {
			continue
		}

		start := segment.Start
		if start < 0 {
			start = 0
		}
		duration := segment.Duration
		if duration < 0 {
			duration = 0
		}

		cleaned = append(cleaned, Segment{Text: text, Start: start, Duration: duration})
	}

	lines := Merge(cleaned, minDuration)

	parts := make([]string, 0, len(lines))
	for _, line := range lines {
		parts = append(parts, fmt.Sprintf("[%s] %s", FormatTimestamp(line.Start), line.Text))
	}

	return strings.Join(parts, "\n")
}

// ParseLine splits a "[timestamp] text" line back into its parts. The
// second return is false for lines that don't match the format.
func ParseLine(line string) (Line, bool) {
	m := timestampedRe.FindStringSubmatch(line)
	if m == nil {
		return Line{}, false
	}

	return Line{Text: m[2], Start: ParseTimestamp(m[1])}, true
}

// FormatTimestamp renders seconds as MM:SS, or HH:MM:SS past one hour.
func FormatTimestamp(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}

	total := int(seconds)
	hours := total / 3600
	minutes := (total % 3600) / 60
	secs := total % 60

	if hours > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, secs)
	}
	return fmt.Sprintf("%02d:%02d", minutes, secs)
}

// ParseTimestamp reads MM:SS or HH:MM:SS back into seconds. Invalid
// input parses as zero.
func ParseTimestamp(s string) float64 {
	parts := strings.Split(s, ":")

	nums := make([]int, len(parts))
	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil {
			return 0
		}
		nums[i] = n
	}

	switch len(nums) {
	case 2:
		return float64(nums[0]*60 + nums[1])
	case 3:
		return float64(nums[0]*3600 + nums[1]*60 + nums[2])
	default:
		return 0
	}
}
