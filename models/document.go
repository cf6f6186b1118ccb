package models

// DocType identifies the source format of a loaded document.
type DocType string

const (
	DocTypeWord      DocType = "word_document"
	DocTypeMarkdown  DocType = "markdown"
	DocTypePlainText DocType = "plain_text"
	DocTypeCSV       DocType = "csv"
	DocTypePDF       DocType = "pdf"
)

// SourceDocument is a normalized text unit produced by the loader.
// It is immutable once loaded; the chunker is its only consumer.
type SourceDocument struct {
	ID         string  `json:"id"`
	Text       string  `json:"text"`
	SourcePath string  `json:"source_path"`
	Filename   string  `json:"filename"`
	DocType    DocType `json:"doc_type"`
	ByteLength int     `json:"byte_length"`
}

// ChunkMetadata carries the source document metadata down to each chunk so
// answers can cite their origin.
type ChunkMetadata struct {
	SourcePath string  `json:"source_path"`
	Filename   string  `json:"filename"`
	DocType    DocType `json:"doc_type"`
	Sequence   int     `json:"sequence"`
}

// Chunk is the unit of embedding, storage, and retrieval. Chunks are
// append-only records in the vector index; re-ingestion replaces the whole
// collection rather than updating chunks in place.
type Chunk struct {
	ID         string        `json:"id"`
	DocumentID string        `json:"document_id"`
	Text       string        `json:"text"`
	Offset     int           `json:"offset"`
	Metadata   ChunkMetadata `json:"metadata"`
}

// RetrievalCandidate pairs a chunk with its raw similarity to the query
// vector. Candidates are ephemeral, produced per query and discarded after
// ranking. Vector is populated when the backing index has the embedding at
// hand, sparing the relevance filter a re-embed.
type RetrievalCandidate struct {
	Chunk      Chunk
	Similarity float64
	Vector     []float32
}

// ScoredCandidate is a candidate after the relevance filter applied its
// lexical bonuses.
type ScoredCandidate struct {
	Chunk      Chunk
	FinalScore float64
}

// PromptContext is everything the generation invoker needs for one request.
// It is assembled per request and discarded afterwards.
type PromptContext struct {
	Context  string
	History  string
	Question string
}
