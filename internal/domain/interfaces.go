package domain

import "context"

// Embedder converts free text into a numeric vector representation under a
// model pinned at construction time. Vectors from different models are not
// comparable.
type Embedder interface {
	// Model returns the pinned embedding model identity.
	Model() string
	// Dimension returns the vector length, 0 until the first embedding.
	Dimension() int
	// Embed returns the vector for a single text.
	Embed(ctx context.Context, text string) ([]float64, error)
	// EmbedBatch embeds texts independently, preserving order. It is
	// equivalent to calling Embed per text.
	EmbedBatch(ctx context.Context, texts []string) ([][]float64, error)
}

// Chunker splits raw text into overlapping segments suitable for indexing.
type Chunker interface {
	Split(text string) []string
}

// AnswerGenerator produces an answer from a system instruction and a user
// question. It is an injected capability so tests can substitute a stub.
type AnswerGenerator interface {
	Complete(ctx context.Context, system, user string) (string, error)
}
