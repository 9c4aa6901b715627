package index

import (
	"errors"
	"math"
	"sort"

	"campusmind/internal/domain"
)

// Entry is one indexed chunk together with its embedding vector.
type Entry struct {
	Vector []float64
	Chunk  domain.Chunk
}

// Index is the full in-memory collection of embedded chunks. Entries are
// append-only and every vector must come from the embedding model named by
// Model; there is no delete or update.
type Index struct {
	Model     string
	Dimension int
	Entries   []Entry
}

// New returns an empty index pinned to the given embedding model.
func New(model string) *Index {
	return &Index{Model: model}
}

// Len returns the number of entries.
func (ix *Index) Len() int { return len(ix.Entries) }

// InsertAll appends chunks with their vectors. Pure in-memory mutation; the
// caller persists through Store.Mutate.
func (ix *Index) InsertAll(chunks []domain.Chunk, vectors [][]float64) error {
	if len(chunks) != len(vectors) {
		return errors.New("chunks and vectors length mismatch")
	}
	for _, v := range vectors {
		if len(v) == 0 {
			return errors.New("empty vector")
		}
		if ix.Dimension == 0 {
			ix.Dimension = len(v)
		}
		if len(v) != ix.Dimension {
			return errors.New("vector dimension mismatch")
		}
	}
	for i := range chunks {
		ix.Entries = append(ix.Entries, Entry{Vector: vectors[i], Chunk: chunks[i]})
	}
	return nil
}

// Search returns up to k entries by descending cosine similarity, ties
// broken by insertion order (earliest first). An empty index yields an empty
// result, never an error.
func (ix *Index) Search(vector []float64, k int) []domain.SearchResult {
	if k <= 0 || len(ix.Entries) == 0 {
		return nil
	}
	scores := make([]float64, len(ix.Entries))
	for i := range ix.Entries {
		scores[i] = cosine(ix.Entries[i].Vector, vector)
	}
	order := make([]int, len(ix.Entries))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return scores[order[i]] > scores[order[j]]
	})
	if k > len(order) {
		k = len(order)
	}
	results := make([]domain.SearchResult, 0, k)
	for _, idx := range order[:k] {
		results = append(results, domain.SearchResult{Chunk: ix.Entries[idx].Chunk, Score: scores[idx]})
	}
	return results
}

func cosine(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
