package summarize

import (
	"errors"
	"strings"
	"testing"

	"github.com/wgomg/kukulkan/internal/processor"
	"github.com/wgomg/kukulkan/internal/utils"
)

type fakeGenerator struct {
	response string
	err      error
	prompts  []string
}

func (f *fakeGenerator) Summarize(reqID *string, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func TestSummarizeChunksIncludesCitations(t *testing.T) {
	gen := &fakeGenerator{response: "• Point one [00:00–00:10]\n• Point two"}
	agent := NewAgent(gen, utils.NewDiscardLogger())

	chunks := []processor.Chunk{
		{Text: "the opening remarks of the talk", StartTime: 0, EndTime: 10, Index: 0},
		{Text: "the closing remarks of the talk", StartTime: 10, EndTime: 20, Index: 1},
	}

	got := agent.SummarizeChunks(nil, chunks)

	if !strings.Contains(got, "Point one") {
		t.Errorf("summary = %q", got)
	}
	if len(gen.prompts) != 1 {
		t.Fatalf("generator called %d times, want 1", len(gen.prompts))
	}
	if !strings.Contains(gen.prompts[0], "[00:00–00:10]") {
		t.Error("prompt does not carry chunk citations")
	}
}

func TestSummarizeChunksEmpty(t *testing.T) {
	gen := &fakeGenerator{}
	agent := NewAgent(gen, utils.NewDiscardLogger())

	got := agent.SummarizeChunks(nil, nil)

	if got != "No content to summarize." {
		t.Errorf("got %q", got)
	}
	if len(gen.prompts) != 0 {
		t.Error("collaborator called for empty input")
	}
}

func TestBulletPointsNormalization(t *testing.T) {
	gen := &fakeGenerator{response: "• first\n- second\n* third\n1. fourth\nfifth plain"}
	agent := NewAgent(gen, utils.NewDiscardLogger())

	bullets := agent.BulletPoints(nil, "[00:00] a transcript line that is long enough")

	if len(bullets) != 5 {
		t.Fatalf("got %d bullets: %v", len(bullets), bullets)
	}
	for i, b := range bullets {
		if !strings.HasPrefix(b, "• ") && b != "• first" && !strings.HasPrefix(b, "•") {
			t.Errorf("bullet %d not normalized: %q", i, b)
		}
	}
	if bullets[3] != "• fourth" {
		t.Errorf("numbered bullet = %q, want %q", bullets[3], "• fourth")
	}
}

func TestBulletPointsCap(t *testing.T) {
	lines := make([]string, 20)
	for i := range lines {
		lines[i] = "• point"
	}
	gen := &fakeGenerator{response: strings.Join(lines, "\n")}
	agent := NewAgent(gen, utils.NewDiscardLogger())

	bullets := agent.BulletPoints(nil, "some transcript")

	if len(bullets) > 8 {
		t.Errorf("got %d bullets, want at most 8", len(bullets))
	}
}

func TestSummaryDropsPromptEcho(t *testing.T) {
	gen := &fakeGenerator{response: "Summarize the following transcript into bullets\n• real content one\n• real content two"}
	agent := NewAgent(gen, utils.NewDiscardLogger())

	got := agent.SummarizeChunks(nil, []processor.Chunk{{Text: "words", StartTime: 0, EndTime: 1}})

	if strings.Contains(strings.ToLower(got), "summarize the following") {
		t.Errorf("prompt echo survived: %q", got)
	}
	if !strings.Contains(got, "real content one") {
		t.Errorf("content lost: %q", got)
	}
}

func TestSummaryDegradesOffline(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("service unavailable")}
	agent := NewAgent(gen, utils.NewDiscardLogger())

	got := agent.SummarizeChunks(nil, []processor.Chunk{
		{Text: "a reasonably long opening statement about the topic. and more", StartTime: 0, EndTime: 5},
	})

	if got == "" {
		t.Fatal("offline summary is empty")
	}
	if !strings.HasPrefix(got, "•") {
		t.Errorf("offline summary not bulleted: %q", got)
	}
}

func TestProseConvertedToBullets(t *testing.T) {
	gen := &fakeGenerator{response: "The talk covers basics. It then moves to advanced topics. It closes with questions."}
	agent := NewAgent(gen, utils.NewDiscardLogger())

	got := agent.SummarizeChunks(nil, []processor.Chunk{{Text: "words", StartTime: 0, EndTime: 1}})

	if !strings.Contains(got, "•") {
		t.Errorf("prose not converted to bullets: %q", got)
	}
}
