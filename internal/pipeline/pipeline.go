package pipeline

import (
	"fmt"
	"strings"
	"sync"

	"github.com/wgomg/kukulkan/internal/config"
	"github.com/wgomg/kukulkan/internal/processor"
	"github.com/wgomg/kukulkan/internal/qa"
	"github.com/wgomg/kukulkan/internal/retrieval"
	"github.com/wgomg/kukulkan/internal/source"
	"github.com/wgomg/kukulkan/internal/summarize"
	"github.com/wgomg/kukulkan/internal/transcript"
	"github.com/wgomg/kukulkan/internal/utils"
)

const previewMaxChars = 3000

// EmptyContentError means acquisition succeeded but normalization or
// chunking produced nothing usable to index.
type EmptyContentError struct {
	Stage string
}

func (e *EmptyContentError) Error() string {
	return fmt.Sprintf("no usable content after %s", e.Stage)
}

// Result is everything produced by processing one video.
type Result struct {
	Info       source.VideoInfo  `json:"video_info"`
	Transcript string            `json:"transcript"`
	Chunks     []processor.Chunk `json:"chunks"`
	Summary    string            `json:"summary"`
	Bullets    []string          `json:"bullet_points"`
	Language   string            `json:"language"`
	Method     string            `json:"processing_method"`
	Notice     string            `json:"notice,omitempty"`
}

// QA is one answered question kept in session history.
type QA struct {
	Question  string   `json:"question"`
	Answer    string   `json:"answer"`
	Citations []string `json:"citations"`
}

type session struct {
	result     Result
	chunks     []processor.Chunk
	embeddings []retrieval.Embedding
	history    []QA
}

// Pipeline orchestrates acquisition, normalization, chunking,
// summarization, indexing and question answering over a single
// in-memory session. All exported methods are safe for concurrent use;
// the session is swapped atomically under the mutex.
type Pipeline struct {
	acquirer   *source.Acquirer
	engine     *retrieval.Engine
	composer   *qa.Composer
	summarizer *summarize.Agent
	cfg        *config.Config
	logger     *utils.Logger

	mu      sync.Mutex
	session *session
}

func New(
	acquirer *source.Acquirer,
	engine *retrieval.Engine,
	composer *qa.Composer,
	summarizer *summarize.Agent,
	cfg *config.Config,
	logger *utils.Logger,
) *Pipeline {
	return &Pipeline{
		acquirer:   acquirer,
		engine:     engine,
		composer:   composer,
		summarizer: summarizer,
		cfg:        cfg,
		logger:     logger,
	}
}

// ProcessVideo runs the full chain for one video and replaces the
// current session with the outcome. On failure the previous session is
// left untouched.
func (p *Pipeline) ProcessVideo(reqID *string, input string) (Result, error) {
	p.logger.Info(reqID, "starting video processing for %q", input)

	acq, err := p.acquirer.Acquire(reqID, input)
	if err != nil {
		return Result{}, err
	}

	normalized := transcript.Normalize(acq.Segments, p.cfg.Chunking.MinSegmentDuration)
	if strings.TrimSpace(normalized) == "" {
		return Result{}, &EmptyContentError{Stage: "normalization"}
	}

	chunks := processor.SplitTranscript(normalized, p.cfg.Chunking.TargetSizeTokens, p.cfg.Chunking.OverlapFraction)
	if len(chunks) == 0 {
		return Result{}, &EmptyContentError{Stage: "chunking"}
	}

	summary := p.summarizer.SummarizeChunks(reqID, chunks)
	bullets := p.summarizer.BulletPoints(reqID, normalized)

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	embeddings := p.engine.EmbedBatch(reqID, texts)

	result := Result{
		Info:       acq.Info,
		Transcript: normalized,
		Chunks:     chunks,
		Summary:    summary,
		Bullets:    bullets,
		Language:   detectLanguage(acq),
		Method:     acq.Method,
		Notice:     acq.Notice,
	}

	p.mu.Lock()
	p.session = &session{
		result:     result,
		chunks:     chunks,
		embeddings: embeddings,
	}
	p.mu.Unlock()

	p.logger.Info(reqID, "video processing completed: method=%s chunks=%d language=%s",
		result.Method, len(chunks), result.Language)
	return result, nil
}

// AnswerQuestion answers against the indexed session and records the
// exchange in history. Without a processed video it returns the
// no-content answer.
func (p *Pipeline) AnswerQuestion(reqID *string, question string) (QA, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.session == nil {
		return QA{Question: question, Answer: qa.NoContentAnswer}, nil
	}

	answer, citations, err := p.composer.Answer(reqID, question, p.session.chunks, p.session.embeddings)
	if err != nil {
		return QA{}, err
	}

	entry := QA{Question: question, Answer: answer, Citations: citations}
	p.session.history = append(p.session.history, entry)
	return entry, nil
}

// Session returns the current result and history, or false when no
// video has been processed yet.
func (p *Pipeline) Session() (Result, []QA, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.session == nil {
		return Result{}, nil, false
	}
	history := make([]QA, len(p.session.history))
	copy(history, p.session.history)
	return p.session.result, history, true
}

// TranslateContent renders text in the target language. Only English is
// supported as a target; any other language returns the text unchanged.
func (p *Pipeline) TranslateContent(reqID *string, text, targetLanguage string) string {
	if strings.ToLower(targetLanguage) != "en" {
		p.logger.Info(reqID, "Translation to %s not supported, returning original", targetLanguage)
		return text
	}
	return p.composer.TranslateToEnglish(reqID, text)
}

// TranslateToEnglish rewrites the session's summary and bullets in English
// in place and returns the updated result. Sessions already in English are
// returned untouched; without a session it reports false.
func (p *Pipeline) TranslateToEnglish(reqID *string) (Result, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.session == nil {
		return Result{}, false
	}
	if p.session.result.Language == "en" {
		return p.session.result, true
	}

	p.session.result.Summary = p.composer.TranslateToEnglish(reqID, p.session.result.Summary)
	for i, bullet := range p.session.result.Bullets {
		p.session.result.Bullets[i] = p.composer.TranslateToEnglish(reqID, bullet)
	}

	p.logger.Info(reqID, "Translated session summary and %d bullets to English", len(p.session.result.Bullets))
	return p.session.result, true
}

// ClearSession drops the indexed session and the embedding cache.
func (p *Pipeline) ClearSession(reqID *string) {
	p.mu.Lock()
	p.session = nil
	p.mu.Unlock()

	p.engine.ClearCache()
	p.logger.Info(reqID, "session cleared")
}

// TranscriptPreview truncates the transcript for display, breaking on
// a line boundary when one falls late enough in the window.
func TranscriptPreview(transcriptText string, maxChars int) string {
	if maxChars <= 0 {
		maxChars = previewMaxChars
	}
	if len(transcriptText) <= maxChars {
		return transcriptText
	}

	truncated := transcriptText[:maxChars]
	if idx := strings.LastIndex(truncated, "\n"); idx > int(float64(maxChars)*0.8) {
		truncated = truncated[:idx]
	}
	return truncated + "\n\n... (transcript continues)"
}

// ExportMarkdown renders the current session as a Markdown document:
// metadata, bullet summary, Q&A history and a fenced transcript
// preview.
func (p *Pipeline) ExportMarkdown() (string, error) {
	result, history, ok := p.Session()
	if !ok {
		return "", fmt.Errorf("no processed video to export")
	}

	var parts []string

	title := result.Info.Title
	if title == "" {
		title = "Video Analysis"
	}
	channel := result.Info.Channel
	if channel == "" {
		channel = "Unknown Channel"
	}

	parts = append(parts, fmt.Sprintf("# %s", title))
	parts = append(parts, fmt.Sprintf("**Channel:** %s", channel))
	if result.Info.URL != "" {
		parts = append(parts, fmt.Sprintf("**URL:** %s", result.Info.URL))
	}
	parts = append(parts, fmt.Sprintf("**Processing Method:** %s", result.Method))
	parts = append(parts, fmt.Sprintf("**Language:** %s", result.Language))
	parts = append(parts, "")

	parts = append(parts, "## Summary")
	parts = append(parts, result.Bullets...)
	parts = append(parts, "")

	if len(history) > 0 {
		parts = append(parts, "## Questions & Answers")
		for i, entry := range history {
			parts = append(parts, fmt.Sprintf("### Q%d: %s", i+1, entry.Question))
			parts = append(parts, fmt.Sprintf("**A:** %s", entry.Answer))
			parts = append(parts, "")
		}
	}

	parts = append(parts, "## Transcript Preview")
	parts = append(parts, "```")
	parts = append(parts, TranscriptPreview(result.Transcript, previewMaxChars))
	parts = append(parts, "```")

	return strings.Join(parts, "\n"), nil
}

func detectLanguage(acq source.Acquisition) string {
	if acq.Info.Language != "" {
		return acq.Info.Language
	}
	return "en"
}
