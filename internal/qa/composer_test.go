package qa

import (
	"errors"
	"strings"
	"testing"

	"github.com/wgomg/kukulkan/internal/config"
	"github.com/wgomg/kukulkan/internal/hf"
	"github.com/wgomg/kukulkan/internal/processor"
	"github.com/wgomg/kukulkan/internal/retrieval"
	"github.com/wgomg/kukulkan/internal/utils"
)

type fakeEmbedder struct {
	calls int
}

func (f *fakeEmbedder) FeatureExtraction(reqID *string, text string) ([]float64, error) {
	f.calls++
	// Vectors keyed on leading word so tests control similarity.
	if strings.HasPrefix(text, "relevant") {
		return []float64{1, 0}, nil
	}
	return []float64{0, 1}, nil
}

type fakeGenerator struct {
	response       string
	err            error
	calls          int
	translation    string
	translationErr error
	translateCalls int
}

func (f *fakeGenerator) TextGeneration(reqID *string, prompt string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func (f *fakeGenerator) Translation(reqID *string, text string) (string, error) {
	f.translateCalls++
	if f.translationErr != nil {
		return "", f.translationErr
	}
	return f.translation, nil
}

func testConfig() *config.Config {
	return &config.Config{
		Retrieval: config.RetrievalConfig{
			SimilarityThreshold: 0.35,
			TopK:                5,
			MaxContextLength:    2000,
			EmbeddingDimension:  384,
		},
	}
}

func newComposer(gen *fakeGenerator, embedder retrieval.Embedder) *Composer {
	cfg := testConfig()
	logger := utils.NewDiscardLogger()
	engine := retrieval.NewEngine(embedder, cfg, logger)
	return NewComposer(engine, gen, cfg, logger)
}

func fixture() ([]processor.Chunk, []retrieval.Embedding) {
	chunks := []processor.Chunk{
		{Text: "relevant speech about the topic", StartTime: 0, EndTime: 10, Index: 0},
		{Text: "unrelated chatter", StartTime: 10, EndTime: 20, Index: 1},
	}
	embeddings := []retrieval.Embedding{{1, 0}, {0, 1}}
	return chunks, embeddings
}

func TestAnswerEmptyIndexNoCollaboratorCalls(t *testing.T) {
	gen := &fakeGenerator{}
	embedder := &fakeEmbedder{}
	composer := newComposer(gen, embedder)

	answer, citations, err := composer.Answer(nil, "anything?", nil, nil)

	if err != nil {
		t.Fatal(err)
	}
	if answer != NoContentAnswer {
		t.Errorf("answer = %q, want %q", answer, NoContentAnswer)
	}
	if len(citations) != 0 {
		t.Errorf("citations = %v, want none", citations)
	}
	if gen.calls != 0 || embedder.calls != 0 {
		t.Errorf("collaborators called on empty index: gen=%d embed=%d", gen.calls, embedder.calls)
	}
}

func TestAnswerBelowThreshold(t *testing.T) {
	gen := &fakeGenerator{response: "should never appear"}
	composer := newComposer(gen, &fakeEmbedder{})

	// Question embeds to [0,1]; only the unrelated chunk matches, but make
	// both chunks orthogonal to the query.
	chunks := []processor.Chunk{{Text: "relevant", Index: 0}}
	embeddings := []retrieval.Embedding{{0, 1}}

	answer, citations, err := composer.Answer(nil, "relevant question", chunks, embeddings)

	if err != nil {
		t.Fatal(err)
	}
	if answer != NotFoundAnswer {
		t.Errorf("answer = %q, want %q", answer, NotFoundAnswer)
	}
	if len(citations) != 0 {
		t.Errorf("citations = %v, want none", citations)
	}
	if gen.calls != 0 {
		t.Error("generator called despite retrieval miss")
	}
}

func TestAnswerAppendsCitations(t *testing.T) {
	gen := &fakeGenerator{response: "the speaker explains the topic"}
	composer := newComposer(gen, &fakeEmbedder{})
	chunks, embeddings := fixture()

	answer, citations, err := composer.Answer(nil, "relevant question", chunks, embeddings)

	if err != nil {
		t.Fatal(err)
	}
	if len(citations) == 0 {
		t.Fatal("no citations returned")
	}
	if !strings.Contains(answer, citations[0]) {
		t.Errorf("answer %q missing citation %q", answer, citations[0])
	}
	if !strings.HasPrefix(answer, "The speaker") {
		t.Errorf("first letter not capitalized: %q", answer)
	}
}

func TestAnswerKeepsExistingCitation(t *testing.T) {
	citation := processor.Chunk{StartTime: 0, EndTime: 10}.Citation()
	gen := &fakeGenerator{response: "Already cited " + citation}
	composer := newComposer(gen, &fakeEmbedder{})
	chunks, embeddings := fixture()

	answer, _, err := composer.Answer(nil, "relevant question", chunks, embeddings)

	if err != nil {
		t.Fatal(err)
	}
	if strings.Count(answer, citation) != 1 {
		t.Errorf("citation duplicated: %q", answer)
	}
}

func TestAnswerStripsEcho(t *testing.T) {
	gen := &fakeGenerator{response: "Answer: it works like this"}
	composer := newComposer(gen, &fakeEmbedder{})
	chunks, embeddings := fixture()

	answer, _, err := composer.Answer(nil, "relevant question", chunks, embeddings)

	if err != nil {
		t.Fatal(err)
	}
	if strings.HasPrefix(strings.ToLower(answer), "answer:") {
		t.Errorf("echo not stripped: %q", answer)
	}
	if !strings.HasPrefix(answer, "It works") {
		t.Errorf("got %q", answer)
	}
}

func TestAnswerMapsDegenerateOutput(t *testing.T) {
	for _, degenerate := range []string{"", "none", "N/A", "not applicable"} {
		gen := &fakeGenerator{response: degenerate}
		composer := newComposer(gen, &fakeEmbedder{})
		chunks, embeddings := fixture()

		answer, _, err := composer.Answer(nil, "relevant question", chunks, embeddings)

		if err != nil {
			t.Fatal(err)
		}
		if answer != NotFoundAnswer {
			t.Errorf("response %q mapped to %q, want %q", degenerate, answer, NotFoundAnswer)
		}
	}
}

func TestAnswerGenerationFailureDegrades(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("boom")}
	composer := newComposer(gen, &fakeEmbedder{})
	chunks, embeddings := fixture()

	answer, citations, err := composer.Answer(nil, "relevant question", chunks, embeddings)

	if err != nil {
		t.Fatalf("collaborator failure propagated: %v", err)
	}
	if answer != GenerationFailure {
		t.Errorf("answer = %q, want %q", answer, GenerationFailure)
	}
	if len(citations) != 0 {
		t.Errorf("citations = %v, want none", citations)
	}
}

func TestAnswerUnparsableShapeKeepsCitations(t *testing.T) {
	gen := &fakeGenerator{err: &hf.ShapeError{Body: `{"weird": true}`}}
	composer := newComposer(gen, &fakeEmbedder{})
	chunks, embeddings := fixture()

	answer, citations, err := composer.Answer(nil, "relevant question", chunks, embeddings)

	if err != nil {
		t.Fatalf("shape error propagated: %v", err)
	}
	if !strings.HasPrefix(answer, ParseErrorAnswer) {
		t.Errorf("answer = %q, want %q prefix", answer, ParseErrorAnswer)
	}
	if len(citations) == 0 {
		t.Fatal("citations dropped on parse failure")
	}
	if !strings.Contains(answer, citations[0]) {
		t.Errorf("answer %q missing citation %q", answer, citations[0])
	}
}

func TestTranslateToEnglish(t *testing.T) {
	gen := &fakeGenerator{translation: "translated text"}
	composer := newComposer(gen, &fakeEmbedder{})

	if got := composer.TranslateToEnglish(nil, "texto original"); got != "translated text" {
		t.Errorf("got %q", got)
	}
	if gen.translateCalls != 1 {
		t.Errorf("translation calls = %d", gen.translateCalls)
	}
}

func TestTranslateToEnglishFallsBackToOriginal(t *testing.T) {
	tests := []struct {
		name string
		gen  *fakeGenerator
	}{
		{"collaborator error", &fakeGenerator{translationErr: errors.New("boom")}},
		{"blank translation", &fakeGenerator{translation: "   "}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			composer := newComposer(tt.gen, &fakeEmbedder{})
			if got := composer.TranslateToEnglish(nil, "texto original"); got != "texto original" {
				t.Errorf("got %q, want original text back", got)
			}
		})
	}
}

func TestTranslateToEnglishEmptyInputNoCall(t *testing.T) {
	gen := &fakeGenerator{translation: "should not be used"}
	composer := newComposer(gen, &fakeEmbedder{})

	if got := composer.TranslateToEnglish(nil, "  "); got != "  " {
		t.Errorf("got %q", got)
	}
	if gen.translateCalls != 0 {
		t.Errorf("translation called for empty input: %d", gen.translateCalls)
	}
}

func TestAnswerMismatchFailsFast(t *testing.T) {
	composer := newComposer(&fakeGenerator{}, &fakeEmbedder{})
	chunks, _ := fixture()

	_, _, err := composer.Answer(nil, "relevant question", chunks, []retrieval.Embedding{{1, 0}})

	var mismatch *retrieval.InputMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("got %v, want InputMismatchError", err)
	}
}
