package services

import (
	"context"

	"github.com/cotin/chatcotin/config"
	"github.com/cotin/chatcotin/models"
	"github.com/cotin/chatcotin/vectorindex"
)

// CollectionService reports which collection the query path is serving from.
type CollectionService struct {
	store   vectorindex.Store
	dataDir string
	prefix  string
}

// NewCollectionService wires the collection inspector.
func NewCollectionService(cfg *config.Config, store vectorindex.Store) *CollectionService {
	return &CollectionService{
		store:   store,
		dataDir: cfg.Index.DataDir,
		prefix:  cfg.Index.CollectionPrefix,
	}
}

// Current returns the promoted collection name and its chunk count.
func (s *CollectionService) Current(ctx context.Context) (*models.CollectionResponse, error) {
	name := vectorindex.CurrentCollection(s.dataDir, s.prefix)
	index, err := s.store.Collection(ctx, name)
	if err != nil {
		return nil, err
	}
	count, err := index.Count(ctx)
	if err != nil {
		return nil, err
	}
	return &models.CollectionResponse{Collection: name, Chunks: count}, nil
}
