package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/cotin/chatcotin/config"
	"github.com/cotin/chatcotin/embeddings"
	"github.com/cotin/chatcotin/ingestion"
	"github.com/cotin/chatcotin/vectorindex"
)

// debounceDelay batches rapid file events into one rebuild. Editors often
// write a file as create-temp-then-rename, which fires several events.
const debounceDelay = 2 * time.Second

// IngestService rebuilds the knowledge base: load documents, chunk, embed,
// write a fresh collection, and atomically promote it. The previous
// collection keeps serving queries until promotion succeeds.
type IngestService struct {
	provider embeddings.Provider
	store    vectorindex.Store
	cfg      *config.Config
}

// NewIngestService wires the ingestion pipeline from configuration.
func NewIngestService(cfg *config.Config, provider embeddings.Provider, store vectorindex.Store) *IngestService {
	return &IngestService{provider: provider, store: store, cfg: cfg}
}

// Run executes one full rebuild and returns the promoted collection name.
// Index-write failures abort before promotion so a partial index is never
// exposed to queries.
func (s *IngestService) Run(ctx context.Context) (string, error) {
	log.Printf("INDEXER: Starting ingestion from %s", s.cfg.DocsPath)

	docs, err := ingestion.LoadFolder(s.cfg.DocsPath)
	if err != nil {
		return "", fmt.Errorf("could not load documents: %w", err)
	}
	log.Printf("INDEXER: Loaded %d documents", len(docs))

	chunks, err := ingestion.SplitDocuments(docs, s.cfg.Chunking.Size, s.cfg.Chunking.Overlap)
	if err != nil {
		return "", fmt.Errorf("could not split documents: %w", err)
	}
	log.Printf("INDEXER: Split into %d chunks", len(chunks))

	vectors := make([][]float32, len(chunks))
	for i, chunk := range chunks {
		vec, err := s.provider.Embed(ctx, chunk.Text)
		if err != nil {
			return "", fmt.Errorf("could not embed chunk %s: %w", chunk.ID, err)
		}
		vectors[i] = vec
	}

	name := vectorindex.CollectionName(s.cfg.Index.CollectionPrefix, time.Now())
	index, err := s.store.Collection(ctx, name)
	if err != nil {
		return "", fmt.Errorf("could not create collection %s: %w", name, err)
	}
	if err := index.Upsert(ctx, chunks, vectors); err != nil {
		return "", fmt.Errorf("index write failed, previous collection retained: %w", err)
	}

	count, err := index.Count(ctx)
	if err != nil {
		return "", fmt.Errorf("could not verify collection %s: %w", name, err)
	}
	if count != len(chunks) {
		return "", fmt.Errorf("collection %s holds %d chunks, expected %d; previous collection retained", name, count, len(chunks))
	}

	previous := vectorindex.CurrentCollection(s.cfg.Index.DataDir, "")
	if err := vectorindex.Promote(s.cfg.Index.DataDir, name); err != nil {
		return "", fmt.Errorf("could not promote collection %s: %w", name, err)
	}
	log.Printf("INDEXER: Promoted collection %s (%d chunks)", name, count)

	if s.cfg.Index.DropPrevious && previous != "" && previous != name {
		if err := s.store.Drop(ctx, previous); err != nil {
			log.Printf("INDEXER WARN: could not drop superseded collection %s: %v", previous, err)
		}
	}
	return name, nil
}

// Watch re-runs ingestion whenever the documents folder changes. Events are
// debounced so one save triggers one rebuild. Blocks until ctx is
// cancelled.
func (s *IngestService) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("could not create file watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(s.cfg.DocsPath); err != nil {
		return fmt.Errorf("could not watch %s: %w", s.cfg.DocsPath, err)
	}
	log.Printf("WATCHER: Watching directory: %s", s.cfg.DocsPath)

	debounce := time.NewTimer(debounceDelay)
	if !debounce.Stop() {
		<-debounce.C
	}

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !ingestion.IsSupportedFile(event.Name) {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) ||
				event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				log.Printf("WATCHER EVENT: %s", event)
				debounce.Reset(debounceDelay)
			}

		case <-debounce.C:
			log.Println("WATCHER: Changes settled, rebuilding knowledge base...")
			if _, err := s.Run(ctx); err != nil {
				log.Printf("WATCHER ERROR: rebuild failed: %v", err)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Printf("WATCHER ERROR: %v", err)

		case <-ctx.Done():
			log.Println("WATCHER: Context cancelled, shutting down watcher.")
			return ctx.Err()
		}
	}
}
