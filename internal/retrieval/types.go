package retrieval

import (
	"fmt"

	"github.com/wgomg/kukulkan/internal/processor"
)

type Embedding []float64

// Embedder is the external embedding collaborator. hf.Client satisfies it.
type Embedder interface {
	FeatureExtraction(reqID *string, text string) ([]float64, error)
}

// Result distinguishes a real collaborator embedding from the degraded
// deterministic fallback, so callers and tests never conflate the two.
type Result struct {
	Vector   Embedding
	Fallback bool
	Reason   string
}

// Scored pairs a chunk with its similarity to a query.
type Scored struct {
	Chunk processor.Chunk
	Score float64
}

// InputMismatchError reports a chunk/embedding count mismatch. This is a
// programmer error and fails fast instead of degrading.
type InputMismatchError struct {
	Chunks     int
	Embeddings int
}

func (e *InputMismatchError) Error() string {
	return fmt.Sprintf("chunk/embedding count mismatch: %d chunks, %d embeddings", e.Chunks, e.Embeddings)
}
