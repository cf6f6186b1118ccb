package vectorindex

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	chromago "github.com/amikos-tech/chroma-go/pkg/api/v2"
	chromaemb "github.com/amikos-tech/chroma-go/pkg/embeddings"

	"github.com/cotin/chatcotin/models"
)

// ChromaStore manages collections on a Chroma server using the v2 API.
type ChromaStore struct {
	client chromago.Client
}

// NewChromaStore connects to the Chroma server at baseURL.
func NewChromaStore(baseURL string) (*ChromaStore, error) {
	client, err := chromago.NewHTTPClient(chromago.WithBaseURL(baseURL))
	if err != nil {
		return nil, fmt.Errorf("failed to create chroma client: %w", err)
	}
	return &ChromaStore{client: client}, nil
}

// Close releases client resources.
func (s *ChromaStore) Close() error {
	return s.client.Close()
}

// Collection gets or creates the named collection.
func (s *ChromaStore) Collection(ctx context.Context, name string) (Index, error) {
	collection, err := s.client.GetOrCreateCollection(
		ctx,
		name,
		chromago.WithCollectionMetadataCreate(
			chromago.NewMetadata(
				chromago.NewStringAttribute("description", "ChatCOTIN knowledge base collection"),
				chromago.NewStringAttribute("created_by", "chatcotin_ingest"),
			),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get or create collection %s: %w", name, err)
	}
	return &ChromaCollection{collection: collection}, nil
}

// Drop deletes the named collection on the server.
func (s *ChromaStore) Drop(ctx context.Context, name string) error {
	if err := s.client.DeleteCollection(ctx, name); err != nil {
		return fmt.Errorf("failed to delete collection %s: %w", name, err)
	}
	return nil
}

// ChromaCollection adapts one Chroma collection to the Index interface.
type ChromaCollection struct {
	collection chromago.Collection
}

// Upsert adds the chunks with their vectors and metadata to the collection.
func (c *ChromaCollection) Upsert(ctx context.Context, chunks []models.Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("chunks and vectors length mismatch: %d vs %d", len(chunks), len(vectors))
	}
	for i, chunk := range chunks {
		embedding := chromaemb.NewEmbeddingFromFloat32(vectors[i])
		metadata := chromago.NewDocumentMetadata(
			chromago.NewStringAttribute("document_id", chunk.DocumentID),
			chromago.NewStringAttribute("source_path", chunk.Metadata.SourcePath),
			chromago.NewStringAttribute("filename", chunk.Metadata.Filename),
			chromago.NewStringAttribute("doc_type", string(chunk.Metadata.DocType)),
			chromago.NewIntAttribute("sequence", int64(chunk.Metadata.Sequence)),
			chromago.NewIntAttribute("offset", int64(chunk.Offset)),
		)
		err := c.collection.Add(ctx,
			chromago.WithIDs(chromago.DocumentID(chunk.ID)),
			chromago.WithTexts(chunk.Text),
			chromago.WithEmbeddings(embedding),
			chromago.WithMetadatas(metadata),
		)
		if err != nil {
			return fmt.Errorf("failed to add chunk %s to chromadb: %w", chunk.ID, err)
		}
	}
	return nil
}

// Query embeds nothing itself; it searches by the provided vector and maps
// Chroma distances back to similarities (similarity = 1 - distance in the
// cosine space).
func (c *ChromaCollection) Query(ctx context.Context, vector []float32, k int) ([]models.RetrievalCandidate, error) {
	if k <= 0 {
		k = 5
	}
	embedding := chromaemb.NewEmbeddingFromFloat32(vector)
	results, err := c.collection.Query(
		ctx,
		chromago.WithQueryEmbeddings(embedding),
		chromago.WithNResults(k),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query chromadb: %w", err)
	}

	idGroups := results.GetIDGroups()
	documentGroups := results.GetDocumentsGroups()
	metadataGroups := results.GetMetadatasGroups()
	distanceGroups := results.GetDistancesGroups()
	if len(documentGroups) == 0 {
		return nil, nil
	}

	var candidates []models.RetrievalCandidate
	for i, doc := range documentGroups[0] {
		text := doc.ContentString()
		if text == "" {
			continue
		}
		chunk := models.Chunk{Text: text}
		if len(idGroups) > 0 && i < len(idGroups[0]) {
			chunk.ID = string(idGroups[0][i])
		}
		if len(metadataGroups) > 0 && i < len(metadataGroups[0]) {
			applyChromaMetadata(&chunk, metadataGroups[0][i])
		}
		similarity := 0.0
		if len(distanceGroups) > 0 && i < len(distanceGroups[0]) {
			similarity = 1 - float64(distanceGroups[0][i])
		}
		candidates = append(candidates, models.RetrievalCandidate{
			Chunk:      chunk,
			Similarity: similarity,
		})
	}
	return candidates, nil
}

func (c *ChromaCollection) Count(ctx context.Context) (int, error) {
	count, err := c.collection.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count items in collection: %w", err)
	}
	return int(count), nil
}

// applyChromaMetadata recovers chunk fields from the stored document
// metadata. The DocumentMetadata struct has no public accessor for its
// values, so it is round-tripped through JSON into a map.
func applyChromaMetadata(chunk *models.Chunk, metadata chromago.DocumentMetadata) {
	if metadata == nil {
		return
	}
	jsonBytes, err := json.Marshal(metadata)
	if err != nil {
		log.Printf("WARN: could not marshal metadata for chunk %s: %v", chunk.ID, err)
		return
	}
	var metaMap map[string]interface{}
	if err := json.Unmarshal(jsonBytes, &metaMap); err != nil {
		log.Printf("WARN: could not unmarshal metadata for chunk %s: %v", chunk.ID, err)
		return
	}
	if v, ok := metaMap["document_id"].(string); ok {
		chunk.DocumentID = v
	}
	if v, ok := metaMap["source_path"].(string); ok {
		chunk.Metadata.SourcePath = v
	}
	if v, ok := metaMap["filename"].(string); ok {
		chunk.Metadata.Filename = v
	}
	if v, ok := metaMap["doc_type"].(string); ok {
		chunk.Metadata.DocType = models.DocType(v)
	}
	if v, ok := metaMap["sequence"].(float64); ok {
		chunk.Metadata.Sequence = int(v)
	}
	if v, ok := metaMap["offset"].(float64); ok {
		chunk.Offset = int(v)
	}
}
