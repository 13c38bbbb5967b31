package qa

import (
	"errors"
	"fmt"
	"strings"

	"github.com/wgomg/kukulkan/internal/config"
	"github.com/wgomg/kukulkan/internal/hf"
	"github.com/wgomg/kukulkan/internal/processor"
	"github.com/wgomg/kukulkan/internal/retrieval"
	"github.com/wgomg/kukulkan/internal/utils"
)

const (
	// Fixed user-facing responses. Question answering never errors out;
	// it degrades to one of these.
	NoContentAnswer   = "No content has been indexed for Q&A."
	NotFoundAnswer    = "Not found in video."
	ParseErrorAnswer  = "Could not parse answer from API response."
	GenerationFailure = "I encountered an error while generating the answer."

	promptTemplate = "Answer the following question using ONLY the provided context. " +
		"If the context does not contain the answer, reply 'Not found in video.' " +
		"Context: %s Question: %s Answer:"

	// Reserved for template overhead when fitting context into the
	// prompt budget.
	templateBuffer = 200
)

// Generator is the text-generation collaborator. hf.Client satisfies it.
type Generator interface {
	TextGeneration(reqID *string, prompt string) (string, error)
	Translation(reqID *string, text string) (string, error)
}

// Composer answers free-text questions grounded in retrieved chunks, with
// timestamp citations attached.
type Composer struct {
	engine    *retrieval.Engine
	generator Generator
	logger    *utils.Logger
	cfg       *config.RetrievalConfig
}

func NewComposer(engine *retrieval.Engine, generator Generator, cfg *config.Config, logger *utils.Logger) *Composer {
	return &Composer{
		engine:    engine,
		generator: generator,
		logger:    logger,
		cfg:       &cfg.Retrieval,
	}
}

// Answer retrieves the chunks most similar to the question, generates a
// grounded answer, and returns it with the retrieved citations. An empty
// index yields the fixed no-content response without touching any
// collaborator. Collaborator failures degrade to fixed messages; the only
// error surfaced is a chunk/embedding mismatch, which is a caller bug.
func (c *Composer) Answer(
	reqID *string,
	question string,
	chunks []processor.Chunk,
	embeddings []retrieval.Embedding,
) (string, []string, error) {
	if len(chunks) == 0 || len(embeddings) == 0 {
		return NoContentAnswer, nil, nil
	}

	ranked, err := c.engine.Rank(reqID, question, chunks, embeddings, c.cfg.TopK, c.cfg.SimilarityThreshold)
	if err != nil {
		return "", nil, err
	}

	if len(ranked) == 0 || ranked[0].Score < c.cfg.SimilarityThreshold {
		c.logger.Info(reqID, "No chunks above threshold %.2f for question", c.cfg.SimilarityThreshold)
		return NotFoundAnswer, nil, nil
	}

	context := retrieval.AssembleContext(ranked, c.cfg.MaxContextLength)
	if context == "" {
		return NotFoundAnswer, nil, nil
	}

	answer, err := c.generate(reqID, question, context)
	if err != nil {
		var shapeErr *hf.ShapeError
		if !errors.As(err, &shapeErr) {
			// Transport and server failures never propagate and carry
			// no citations.
			return GenerationFailure, nil, nil
		}
		// A malformed success keeps its citations; only the answer text
		// is replaced.
		answer = ParseErrorAnswer
	}
	answer = c.cleanAnswer(answer)

	citations := make([]string, len(ranked))
	for i, s := range ranked {
		citations[i] = s.Chunk.Citation()
	}

	if answer != NotFoundAnswer {
		answer = appendMissingCitations(answer, citations)
	}

	c.logger.Info(reqID, "Answered question using %d retrieved chunks", len(ranked))

	return answer, citations, nil
}

func (c *Composer) generate(reqID *string, question, context string) (string, error) {
	prompt := fmt.Sprintf(promptTemplate, context, question)

	// The question is never truncated; only the context shrinks to fit.
	if len(prompt) > c.cfg.MaxContextLength {
		available := c.cfg.MaxContextLength - len(question) - templateBuffer
		if available < 0 {
			available = 0
		}
		prompt = fmt.Sprintf(promptTemplate, utils.Truncate(context, available), question)
	}

	answer, err := c.generator.TextGeneration(reqID, prompt)
	if err != nil {
		c.logger.Error(reqID, "Generation collaborator failed: %v", err)
		return "", err
	}

	return answer, nil
}

// TranslateToEnglish renders text in English through the generation
// collaborator. Any failure or blank result falls back to the original
// text; translation never makes content worse than untranslated.
func (c *Composer) TranslateToEnglish(reqID *string, text string) string {
	if strings.TrimSpace(text) == "" {
		return text
	}

	translated, err := c.generator.Translation(reqID, text)
	if err != nil {
		c.logger.Error(reqID, "Translation collaborator failed: %v", err)
		return text
	}

	translated = strings.TrimSpace(translated)
	if translated == "" {
		return text
	}

	c.logger.Info(reqID, "Translated text (%d -> %d chars)", len(text), len(translated))

	return translated
}

// cleanAnswer strips prompt echo and maps degenerate model output to the
// fixed not-found response.
func (c *Composer) cleanAnswer(answer string) string {
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return NotFoundAnswer
	}

	if strings.HasPrefix(strings.ToLower(answer), "answer:") {
		answer = strings.TrimSpace(answer[len("answer:"):])
	}

	switch strings.ToLower(answer) {
	case "", "none", "n/a", "not applicable":
		return NotFoundAnswer
	}

	return utils.CapitalizeFirst(answer)
}

// appendMissingCitations adds the retrieved citations to the answer unless
// one already appears verbatim in the generated text.
func appendMissingCitations(answer string, citations []string) string {
	if answer == "" || len(citations) == 0 {
		return answer
	}

	for _, citation := range citations {
		if strings.Contains(answer, citation) {
			return answer
		}
	}

	return answer + " " + strings.Join(citations, " ")
}
