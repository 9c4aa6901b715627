package query

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"campusmind/internal/domain"
	"campusmind/internal/index"
)

// NoDocumentsContext is the grounding context used when no index has been
// created yet. The generation call still runs against it.
const NoDocumentsContext = "No documents uploaded yet."

// contextSeparator joins retrieved chunk texts in relevance order.
const contextSeparator = "\n---\n"

// Engine answers natural-language questions grounded in the indexed corpus:
// embed the query, retrieve the most relevant chunks, and ask the generator
// constrained to that context.
type Engine struct {
	embedder  domain.Embedder
	store     *index.Store
	generator domain.AnswerGenerator
	topK      int
	cycle     string
	log       *slog.Logger
}

// New creates a query engine. topK bounds retrieval; cycle is the academic
// cycle preferred when several dates appear in context.
func New(embedder domain.Embedder, store *index.Store, generator domain.AnswerGenerator, topK int, cycle string, log *slog.Logger) *Engine {
	if topK <= 0 {
		topK = 7
	}
	if cycle == "" {
		cycle = "2026"
	}
	if log == nil {
		log = slog.Default()
	}
	return &Engine{
		embedder:  embedder,
		store:     store,
		generator: generator,
		topK:      topK,
		cycle:     cycle,
		log:       log,
	}
}

// Answer returns the generated answer for question, steered by the asking
// role. Queries never mutate the index; they read the latest persisted
// snapshot and may run concurrently.
func (e *Engine) Answer(ctx context.Context, question string, role domain.Role) (string, error) {
	if role == "" {
		role = domain.RoleStudent
	}
	vec, err := e.embedder.Embed(ctx, question)
	if err != nil {
		return "", fmt.Errorf("embed query: %w", err)
	}

	contextText := NoDocumentsContext
	retrieved := 0
	ix, err := e.store.Load()
	switch {
	case errors.Is(err, index.ErrNoIndex):
		// No corpus yet: answer from the sentinel context.
	case err != nil:
		return "", err
	default:
		results := ix.Search(vec, e.topK)
		if len(results) > 0 {
			parts := make([]string, 0, len(results))
			for _, r := range results {
				parts = append(parts, r.Chunk.Text)
			}
			contextText = strings.Join(parts, contextSeparator)
			retrieved = len(results)
		}
	}

	e.log.Debug("answering query", "role", string(role), "retrieved", retrieved)

	answer, err := e.generator.Complete(ctx, e.systemPrompt(role, contextText), question)
	if err != nil {
		return "", err
	}
	return answer, nil
}

func (e *Engine) systemPrompt(role domain.Role, contextText string) string {
	var b strings.Builder
	b.WriteString("You are CampusMind AI. ")
	fmt.Fprintf(&b, "User is a %s. ", role)
	b.WriteString("ONLY answer based on context. ")
	b.WriteString("If the context does not contain the answer, say that the documents do not cover it. ")
	fmt.Fprintf(&b, "Prioritize %s dates. ", e.cycle)
	b.WriteString("Context: ")
	b.WriteString(contextText)
	return b.String()
}
