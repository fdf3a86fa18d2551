package llm

import (
	"context"
	"errors"
)

var (
	// ErrIncompleteEmbedding is returned when the backend produced a vector
	// whose length does not match the configured dimension.
	ErrIncompleteEmbedding = errors.New("embedding has unexpected dimension")

	// ErrEmbeddingUnavailable is returned when no embedding backend is
	// configured. Callers recover by falling back to lexical retrieval.
	ErrEmbeddingUnavailable = errors.New("embedding backend unavailable")

	// ErrImageUnsupported is returned by backends without vision support.
	ErrImageUnsupported = errors.New("image input not supported by this backend")
)

// Generator produces raw model output expected to contain a JSON object,
// possibly wrapped in Markdown code fences. Two implementations exist: the
// live Gemini client and the deterministic mock, which is always
// constructible and serves as the fallback target when the live call fails.
type Generator interface {
	GenerateJSON(ctx context.Context, systemInstruction, userPrompt string) (string, error)
	GenerateWithImage(ctx context.Context, systemInstruction, userPrompt, imageBase64, mimeType string) (string, error)
}

// Embedder attaches fixed-dimension vectors to text. Callers must check
// IsAvailable before embedding and treat any failure as non-fatal.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	IsAvailable() bool
	Dimension() int
}
