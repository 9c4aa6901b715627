package ingest

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"log/slog"
	"strings"

	"campusmind/internal/chunker"
	"campusmind/internal/domain"
	"campusmind/internal/extract"
	"campusmind/internal/index"
	"campusmind/internal/summary"
)

// Pipeline stage names used in failure reports.
const (
	StageExtract = "extract"
	StageChunk   = "chunk"
	StageEmbed   = "embed"
	StageIndex   = "index"
)

// StageError reports which pipeline stage an ingestion failed in, so an
// operator can tell a bad file from an infra outage.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string { return e.Stage + ": " + e.Err.Error() }

func (e *StageError) Unwrap() error { return e.Err }

// Ingestor turns an uploaded document into indexed chunks: extract pages,
// chunk with the category's profile, embed all chunks in one batch, then
// append to the persisted index under the mutation lock. Any failure before
// persist leaves the index exactly as it was.
type Ingestor struct {
	embedder domain.Embedder
	store    *index.Store
	exam     *chunker.Splitter
	general  *chunker.Splitter
	log      *slog.Logger
}

// New creates an ingestor with one chunking profile per ingestion path.
func New(embedder domain.Embedder, store *index.Store, examProfile, generalProfile chunker.Profile, log *slog.Logger) *Ingestor {
	if log == nil {
		log = slog.Default()
	}
	return &Ingestor{
		embedder: embedder,
		store:    store,
		exam:     chunker.New(examProfile),
		general:  chunker.New(generalProfile),
		log:      log,
	}
}

// Ingest runs the full pipeline for the stored document described by doc.
// doc.Path must point at the durably stored file; indexing failure does not
// undo that separate write.
func (ing *Ingestor) Ingest(ctx context.Context, doc domain.Document) (*domain.IngestReport, error) {
	pages, err := extract.Pages(ctx, doc.Path)
	if err != nil {
		return nil, &StageError{Stage: StageExtract, Err: err}
	}
	text := strings.Join(pages, "\n")

	parts := ing.splitterFor(doc.Category).Split(text)
	if len(parts) == 0 {
		return nil, &StageError{Stage: StageChunk, Err: extract.ErrEmptyDocument}
	}
	chunks := make([]domain.Chunk, len(parts))
	for i, p := range parts {
		chunks[i] = domain.Chunk{
			DocumentID: doc.ID,
			Index:      i,
			Text:       p,
			Category:   doc.Category,
			Meta:       doc.Meta,
		}
	}

	vectors, err := ing.embedder.EmbedBatch(ctx, parts)
	if err != nil {
		return nil, &StageError{Stage: StageEmbed, Err: err}
	}

	err = ing.store.Mutate(ctx, func(ix *index.Index) error {
		return ix.InsertAll(chunks, vectors)
	})
	if err != nil {
		return nil, &StageError{Stage: StageIndex, Err: err}
	}

	ing.log.Info("document ingested",
		"document_id", doc.ID,
		"category", string(doc.Category),
		"pages", len(pages),
		"chunks", len(chunks))

	return &domain.IngestReport{
		DocumentID: doc.ID,
		Pages:      len(pages),
		Chunks:     len(chunks),
		Summary:    summary.Digest(text, 3),
	}, nil
}

func (ing *Ingestor) splitterFor(category domain.Category) *chunker.Splitter {
	if category == domain.CategoryExamArchive {
		return ing.exam
	}
	return ing.general
}

// DocumentID derives a stable identifier from the document's storage path.
func DocumentID(path string) string {
	h := sha1.Sum([]byte(path))
	return hex.EncodeToString(h[:8])
}
