package summarize

import (
	"strings"

	"github.com/wgomg/kukulkan/internal/processor"
	"github.com/wgomg/kukulkan/internal/utils"
)

const (
	// Input past this length is cut at a sentence boundary before the
	// collaborator sees it.
	maxInputLength = 4000

	maxBulletPoints = 8

	defaultPrompt = "Summarize the following transcript into 5–8 key bullet points. " +
		"Include timestamps if present. Keep it concise and factual."

	timestampedPrompt = "Summarize the following timestamped transcript into 5–8 key bullet points. " +
		"Include relevant timestamps in your summary. Keep it concise and factual. " +
		"Format each point as a bullet point."
)

// Generator is the summarization collaborator. hf.Client satisfies it.
type Generator interface {
	Summarize(reqID *string, prompt string) (string, error)
}

type Agent struct {
	generator Generator
	logger    *utils.Logger
}

func NewAgent(generator Generator, logger *utils.Logger) *Agent {
	return &Agent{generator: generator, logger: logger}
}

// SummarizeChunks builds a citation-prefixed view of the chunks and asks
// for a timestamp-aware summary. Collaborator failure degrades to an
// extractive offline summary rather than an error.
func (a *Agent) SummarizeChunks(reqID *string, chunks []processor.Chunk) string {
	if len(chunks) == 0 {
		return "No content to summarize."
	}

	parts := make([]string, len(chunks))
	for i, chunk := range chunks {
		parts[i] = chunk.Citation() + " " + chunk.Text
	}

	return a.summarizeText(reqID, strings.Join(parts, "\n"), timestampedPrompt)
}

// BulletPoints summarizes the full transcript and splits the result into
// at most eight bullet lines, normalizing -, * and numbered prefixes.
func (a *Agent) BulletPoints(reqID *string, transcriptText string) []string {
	summary := a.summarizeText(reqID, transcriptText, defaultPrompt)

	var bullets []string
	for _, line := range strings.Split(summary, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		switch {
		case strings.HasPrefix(line, "•"):
			bullets = append(bullets, line)
		case strings.HasPrefix(line, "-") || strings.HasPrefix(line, "*"):
			bullets = append(bullets, "• "+strings.TrimSpace(line[1:]))
		case len(line) > 2 && line[0] >= '0' && line[0] <= '9' && strings.Contains(line[:3], "."):
			_, rest, _ := strings.Cut(line, ".")
			bullets = append(bullets, "• "+strings.TrimSpace(rest))
		default:
			bullets = append(bullets, "• "+line)
		}

		if len(bullets) == maxBulletPoints {
			break
		}
	}

	return bullets
}

func (a *Agent) summarizeText(reqID *string, text, prompt string) string {
	if strings.TrimSpace(text) == "" {
		return "No content to summarize."
	}

	prepared := utils.TruncateAtSentence(text, maxInputLength)
	if len(prepared) < len(text) {
		a.logger.Info(reqID, "Truncated summarization input from %d to %d characters", len(text), len(prepared))
	}

	fullInput := prompt + "\n\nTranscript:\n" + prepared

	summary, err := a.generator.Summarize(reqID, fullInput)
	if err != nil {
		a.logger.Error(reqID, "Summarization collaborator failed, using extractive summary: %v", err)
		return a.offlineSummary(prepared)
	}

	return a.cleanSummary(summary)
}

// cleanSummary drops prompt-echo lines and forces bullet formatting when
// the model returned running prose.
func (a *Agent) cleanSummary(summary string) string {
	if strings.TrimSpace(summary) == "" {
		return "No summary generated."
	}

	var kept []string
	for _, line := range strings.Split(summary, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		lower := strings.ToLower(line)
		if strings.Contains(lower, "summarize the following") ||
			strings.Contains(lower, "transcript:") ||
			strings.Contains(lower, "key bullet points") ||
			strings.Contains(lower, "include timestamps") {
			continue
		}

		kept = append(kept, line)
	}

	cleaned := strings.Join(kept, "\n")

	hasBullets := false
	for _, line := range kept {
		if strings.HasPrefix(line, "•") || strings.HasPrefix(line, "-") ||
			strings.HasPrefix(line, "*") || (len(line) > 1 && line[0] >= '0' && line[0] <= '9') {
			hasBullets = true
			break
		}
	}

	if cleaned != "" && !hasBullets {
		sentences := strings.Split(cleaned, ".")
		var bullets []string
		for _, sentence := range sentences {
			sentence = strings.TrimSpace(sentence)
			if sentence == "" {
				continue
			}
			bullets = append(bullets, "• "+sentence+".")
			if len(bullets) == maxBulletPoints {
				break
			}
		}
		if len(bullets) > 1 {
			cleaned = strings.Join(bullets, "\n")
		}
	}

	return cleaned
}

// offlineSummary extracts the first sentence of substantial lines. It is
// the degraded path when the collaborator is unreachable.
func (a *Agent) offlineSummary(text string) string {
	var points []string

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if len(line) <= 20 {
			continue
		}

		sentence, _, _ := strings.Cut(line, ".")
		sentence = strings.TrimSpace(sentence)
		if len(sentence) > 10 {
			points = append(points, "• "+sentence)
			if len(points) >= 6 {
				break
			}
		}
	}

	if len(points) == 0 {
		return "No summary available."
	}

	return strings.Join(points, "\n")
}
