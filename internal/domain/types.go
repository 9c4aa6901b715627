package domain

// Category identifies the ingestion path a document arrived through.
type Category string

const (
	// CategoryExamArchive marks previous-year question papers.
	CategoryExamArchive Category = "exam-archive"
	// CategoryGeneral marks general reference material, qualified by DocType.
	CategoryGeneral Category = "general"
)

// Document is an uploaded artifact loaded into the system. It is immutable
// once ingested; re-uploading the same name overwrites the stored file but
// does not remove previously indexed chunks.
type Document struct {
	ID       string
	Path     string
	Category Category
	Pages    []string
	Meta     DocumentMeta
}

// DocumentMeta carries catalog fields attached to every chunk for provenance.
// Subject fields apply to exam-archive documents only.
type DocumentMeta struct {
	Subject     string
	SubjectCode string
	Year        int
	DocType     string
}

// Chunk is a bounded slice of a document's text stored as one retrievable
// unit, with the document's metadata attached.
type Chunk struct {
	DocumentID string
	Index      int
	Text       string
	Category   Category
	Meta       DocumentMeta
}

// SearchResult is a matching chunk with a relevance score, higher is better.
type SearchResult struct {
	Chunk Chunk
	Score float64
}

// CatalogEntry is a question-paper record from the relational catalog.
type CatalogEntry struct {
	Subject     string `json:"name"`
	SubjectCode string `json:"code"`
	Year        int    `json:"year"`
	School      string `json:"school,omitempty"`
	Course      string `json:"course,omitempty"`
	FilePath    string `json:"path"`
}

// Role is the asking user's role, used only to steer the answer prompt.
type Role string

const (
	RoleStudent Role = "student"
	RoleStaff   Role = "staff"
	RoleAdmin   Role = "admin"
)

// IngestReport describes a completed ingestion.
type IngestReport struct {
	DocumentID string
	Pages      int
	Chunks     int
	Summary    string
}
