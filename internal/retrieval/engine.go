package retrieval

import (
	"crypto/md5"
	"encoding/hex"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/wgomg/kukulkan/internal/config"
	"github.com/wgomg/kukulkan/internal/processor"
	"github.com/wgomg/kukulkan/internal/utils"
)

// Engine computes, caches and ranks embeddings for transcript chunks and
// queries. It never returns an error from Embed: when the collaborator is
// unreachable it degrades to a deterministic pseudo-embedding and says so.
type Engine struct {
	embedder Embedder
	cache    *utils.VectorCache
	logger   *utils.Logger
	cfg      *config.RetrievalConfig
	pacing   time.Duration
}

func NewEngine(embedder Embedder, cfg *config.Config, logger *utils.Logger) *Engine {
	return &Engine{
		embedder: embedder,
		cache:    utils.NewVectorCache(),
		logger:   logger,
		cfg:      &cfg.Retrieval,
		pacing:   cfg.HuggingFace.BatchPacingDelay,
	}
}

// Embed returns the vector for text, consulting the cache first. Cache keys
// are the exact text, no normalization. On collaborator failure the result
// is a mock embedding flagged as Fallback.
func (e *Engine) Embed(reqID *string, text string) Result {
	if vector, ok := e.cache.Get(text); ok {
		return Result{Vector: vector}
	}

	vector, err := e.embedder.FeatureExtraction(reqID, text)
	if err != nil {
		e.logger.Error(reqID, "Embedding collaborator failed, using mock embedding: %v", err)
		mock := e.mockEmbedding(text)
		e.cache.Set(text, mock)
		return Result{Vector: mock, Fallback: true, Reason: err.Error()}
	}

	e.cache.Set(text, vector)

	return Result{Vector: vector}
}

// EmbedBatch embeds texts in input order. A failure on one text degrades
// that position to a zero vector without aborting the batch. A short
// pacing delay between calls keeps the collaborator's rate limiter quiet;
// this is not concurrency control.
func (e *Engine) EmbedBatch(reqID *string, texts []string) []Embedding {
	embeddings := make([]Embedding, len(texts))

	for i, text := range texts {
		result := e.Embed(reqID, text)
		if result.Fallback {
			e.logger.Info(reqID, "Batch position %d degraded to fallback embedding", i)
		}

		vector := result.Vector
		if len(vector) == 0 {
			// Zero vector keeps the position aligned with its chunk.
			vector = make(Embedding, e.cfg.EmbeddingDimension)
		}
		embeddings[i] = vector

		if i < len(texts)-1 && e.pacing > 0 {
			time.Sleep(e.pacing)
		}
	}

	e.logger.Info(reqID, "Embedded batch of %d texts", len(texts))

	return embeddings
}

// Rank scores every chunk against the query by cosine similarity, keeps
// scores at or above threshold, and returns at most topK results in
// descending score order. Ties keep original chunk order.
func (e *Engine) Rank(
	reqID *string,
	query string,
	chunks []processor.Chunk,
	embeddings []Embedding,
	topK int,
	threshold float64,
) ([]Scored, error) {
	if len(chunks) != len(embeddings) {
		return nil, &InputMismatchError{Chunks: len(chunks), Embeddings: len(embeddings)}
	}
	if len(chunks) == 0 {
		return nil, nil
	}

	queryResult := e.Embed(reqID, query)
	if queryResult.Fallback {
		e.logger.Info(reqID, "Query embedding degraded to fallback: %s", queryResult.Reason)
	}

	scored := make([]Scored, len(chunks))
	for i := range chunks {
		scored[i] = Scored{
			Chunk: chunks[i],
			Score: CosineSimilarity(queryResult.Vector, embeddings[i]),
		}
	}

	sort.SliceStable(scored, func(a, b int) bool {
		return scored[a].Score > scored[b].Score
	})

	var filtered []Scored
	for _, s := range scored {
		if s.Score >= threshold {
			filtered = append(filtered, s)
		}
	}
	if len(filtered) > topK {
		filtered = filtered[:topK]
	}

	e.logger.Info(reqID, "Found %d chunks above threshold %.2f", len(filtered), threshold)

	return filtered, nil
}

// AssembleContext concatenates "{text} {citation}" blocks from ranked
// results, blank-line separated, stopping before a block would exceed
// maxChars. The first block is always included, truncated to fit with its
// citation preserved.
func AssembleContext(ranked []Scored, maxChars int) string {
	if len(ranked) == 0 {
		return ""
	}

	separator := "\n\n"
	var parts []string
	currentLength := 0

	for _, s := range ranked {
		citation := s.Chunk.Citation()
		block := s.Chunk.Text + " " + citation

		if len(parts) > 0 && currentLength+len(separator)+len(block) > maxChars {
			break
		}

		if len(parts) == 0 && len(block) > maxChars {
			available := maxChars - len(citation) - 1
			if available < 0 {
				available = 0
			}
			block = s.Chunk.Text[:min(available, len(s.Chunk.Text))] + " " + citation
		}

		if len(parts) > 0 {
			currentLength += len(separator)
		}
		currentLength += len(block)
		parts = append(parts, block)
	}

	return strings.Join(parts, separator)
}

// ClearCache drops every cached embedding. Called on session reset.
func (e *Engine) ClearCache() {
	e.cache.Clear()
	e.logger.Info(nil, "Cleared embedding cache")
}

func (e *Engine) CacheSize() int {
	return e.cache.Size()
}

// CosineSimilarity is dot(a,b) / (|a|*|b|), defined as 0.0 when either
// norm is zero so a zero vector never divides by zero.
func CosineSimilarity(a, b Embedding) float64 {
	n := min(len(a), len(b))

	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += a[i] * b[i]
	}
	for _, v := range a {
		normA += v * v
	}
	for _, v := range b {
		normB += v * v
	}

	if normA == 0 || normB == 0 {
		return 0.0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// mockEmbedding derives a deterministic unit vector from an md5 digest of
// the text plus coarse text statistics. It keeps retrieval functional when
// the collaborator is down, at the cost of semantic quality.
func (e *Engine) mockEmbedding(text string) Embedding {
	dim := e.cfg.EmbeddingDimension
	if dim <= 0 {
		dim = 384
	}

	digest := md5.Sum([]byte(text))
	hash := hex.EncodeToString(digest[:])

	var lengthFeature, spaceFeature, upperFeature float64
	if len(text) > 0 {
		lengthFeature = float64(len(text)) / 1000.0
		spaceFeature = float64(strings.Count(text, " ")) / float64(len(text))
		upperCount := 0
		for _, r := range text {
			if r >= 'A' && r <= 'Z' {
				upperCount++
			}
		}
		upperFeature = float64(upperCount) / float64(len(text))
	}
	features := []float64{lengthFeature, spaceFeature, upperFeature}

	vector := make(Embedding, dim)
	for i := 0; i < dim; i++ {
		charVal := float64(hash[i%len(hash)]) / 255.0
		vector[i] = (charVal + features[i%len(features)]) / 2.0
	}

	var norm float64
	for _, v := range vector {
		norm += v * v
	}
	norm = math.Sqrt(norm)
	if norm > 0 {
		for i := range vector {
			vector[i] /= norm
		}
	}

	return vector
}
