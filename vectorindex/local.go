package vectorindex

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/cotin/chatcotin/models"
)

// LocalStore keeps collections as JSON snapshot files under
// <dataDir>/collections. It is the zero-infrastructure backend: brute-force
// cosine over the loaded snapshot, which is plenty for a single-domain
// corpus of a few thousand chunks.
type LocalStore struct {
	dataDir string

	mu   sync.Mutex
	open map[string]*LocalCollection
}

// NewLocalStore creates a store rooted at dataDir.
func NewLocalStore(dataDir string) *LocalStore {
	return &LocalStore{dataDir: dataDir, open: make(map[string]*LocalCollection)}
}

func (s *LocalStore) collectionPath(name string) string {
	return filepath.Join(s.dataDir, "collections", name+".json")
}

// Collection opens the named collection, loading its snapshot when present.
func (s *LocalStore) Collection(_ context.Context, name string) (Index, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if col, ok := s.open[name]; ok {
		return col, nil
	}
	col := &LocalCollection{path: s.collectionPath(name)}
	if err := col.load(); err != nil {
		return nil, err
	}
	s.open[name] = col
	return col, nil
}

// Drop removes the collection snapshot from disk.
func (s *LocalStore) Drop(_ context.Context, name string) error {
	s.mu.Lock()
	delete(s.open, name)
	s.mu.Unlock()
	err := os.Remove(s.collectionPath(name))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("could not drop collection %s: %w", name, err)
	}
	return nil
}

// localRecord is one chunk+vector pair in a snapshot file.
type localRecord struct {
	Chunk  models.Chunk `json:"chunk"`
	Vector []float32    `json:"vector"`
}

// LocalCollection is one named collection backed by a JSON snapshot.
type LocalCollection struct {
	path string

	mu      sync.RWMutex
	records []localRecord
}

func (c *LocalCollection) load() error {
	data, err := os.ReadFile(c.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("could not read collection snapshot: %w", err)
	}
	if err := json.Unmarshal(data, &c.records); err != nil {
		return fmt.Errorf("could not parse collection snapshot: %w", err)
	}
	return nil
}

// Upsert writes the records, replacing any existing record with the same
// chunk ID, and rewrites the snapshot. The snapshot is written to a temp
// file and renamed, so a crashed write leaves the previous snapshot intact
// and queryable.
func (c *LocalCollection) Upsert(_ context.Context, chunks []models.Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("chunks and vectors length mismatch: %d vs %d", len(chunks), len(vectors))
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	byID := make(map[string]int, len(c.records))
	for i, rec := range c.records {
		byID[rec.Chunk.ID] = i
	}
	for i := range chunks {
		rec := localRecord{Chunk: chunks[i], Vector: vectors[i]}
		if at, ok := byID[rec.Chunk.ID]; ok {
			c.records[at] = rec
			continue
		}
		byID[rec.Chunk.ID] = len(c.records)
		c.records = append(c.records, rec)
	}

	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("could not create collections dir: %w", err)
	}
	data, err := json.Marshal(c.records)
	if err != nil {
		return fmt.Errorf("could not encode collection snapshot: %w", err)
	}
	tmp := c.path + ".tmp-" + uuid.New().String()
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("could not write collection snapshot: %w", err)
	}
	if err := os.Rename(tmp, c.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("could not replace collection snapshot: %w", err)
	}
	return nil
}

// Query scores every record against the vector and returns the top k by
// cosine similarity.
func (c *LocalCollection) Query(_ context.Context, vector []float32, k int) ([]models.RetrievalCandidate, error) {
	if k <= 0 {
		k = 5
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	candidates := make([]models.RetrievalCandidate, 0, len(c.records))
	for _, rec := range c.records {
		candidates = append(candidates, models.RetrievalCandidate{
			Chunk:      rec.Chunk,
			Similarity: Cosine(vector, rec.Vector),
			Vector:     rec.Vector,
		})
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Similarity > candidates[j].Similarity
	})
	if k > len(candidates) {
		k = len(candidates)
	}
	return candidates[:k], nil
}

func (c *LocalCollection) Count(_ context.Context) (int, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.records), nil
}
