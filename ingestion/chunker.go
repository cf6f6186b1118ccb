package ingestion

import (
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/textsplitter"

	"github.com/cotin/chatcotin/models"
)

// Separators is the split ladder, coarsest first: paragraph break, line
// break, sentence-ending punctuation, clause punctuation, whitespace. The
// splitter only falls through to a finer separator when no coarser boundary
// fits the size limit.
var Separators = []string{"\n\n", "\n", ". ", "! ", "? ", ", ", " "}

// SplitDocuments splits every document into overlapping chunks. Size and
// overlap are per-call so retrieval quality can be tuned without touching
// code paths.
func SplitDocuments(docs []models.SourceDocument, chunkSize, chunkOverlap int) ([]models.Chunk, error) {
	splitter := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(chunkSize),
		textsplitter.WithChunkOverlap(chunkOverlap),
		textsplitter.WithSeparators(Separators),
	)

	var chunks []models.Chunk
	for _, doc := range docs {
		docChunks, err := splitDocument(splitter, doc)
		if err != nil {
			return nil, fmt.Errorf("could not split %s: %w", doc.Filename, err)
		}
		chunks = append(chunks, docChunks...)
	}
	return chunks, nil
}

func splitDocument(splitter textsplitter.RecursiveCharacter, doc models.SourceDocument) ([]models.Chunk, error) {
	pieces, err := splitter.SplitText(doc.Text)
	if err != nil {
		return nil, err
	}

	chunks := make([]models.Chunk, 0, len(pieces))
	searchFrom := 0
	for i, text := range pieces {
		if strings.TrimSpace(text) == "" {
			continue
		}
		// Chunks are contiguous substrings of the parent in order, so the
		// offset search can advance monotonically. The splitter trims edge
		// whitespace, hence best-effort.
		offset := strings.Index(doc.Text[searchFrom:], text)
		if offset >= 0 {
			offset += searchFrom
			searchFrom = offset + 1
		}
		chunks = append(chunks, models.Chunk{
			ID:         fmt.Sprintf("%s-chunk%d", doc.ID, i),
			DocumentID: doc.ID,
			Text:       text,
			Offset:     offset,
			Metadata: models.ChunkMetadata{
				SourcePath: doc.SourcePath,
				Filename:   doc.Filename,
				DocType:    doc.DocType,
				Sequence:   i,
			},
		})
	}
	return chunks, nil
}
