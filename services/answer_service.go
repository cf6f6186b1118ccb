package services

import (
	"context"
	"log"

	"github.com/cotin/chatcotin/config"
	"github.com/cotin/chatcotin/conversation"
	"github.com/cotin/chatcotin/embeddings"
	"github.com/cotin/chatcotin/llm"
	"github.com/cotin/chatcotin/models"
	"github.com/cotin/chatcotin/retrieval"
	"github.com/cotin/chatcotin/vectorindex"
)

// Invoker drives the generation backend. Satisfied by *llm.Invoker.
type Invoker interface {
	Invoke(ctx context.Context, pc models.PromptContext, params llm.Params) (llm.Result, error)
}

// AnswerService runs the query-time RAG pipeline: retrieve, filter,
// assemble, and generate. Every failure past retrieval resolves to a
// displayable answer; the only error Answer returns is context
// cancellation.
type AnswerService struct {
	provider embeddings.Provider
	store    vectorindex.Store
	filter   *retrieval.Filter
	catalog  *retrieval.CatalogDetector
	history  *conversation.HistoryBuilder
	invoker  Invoker

	retrievalCfg config.RetrievalConfig
	dataDir      string
	collection   string
	defaults     llm.Params
}

// NewAnswerService wires the query pipeline from configuration.
func NewAnswerService(cfg *config.Config, provider embeddings.Provider, store vectorindex.Store, invoker Invoker) *AnswerService {
	defaults := llm.DefaultParams()
	if cfg.Generation.Temperature > 0 {
		defaults.Temperature = cfg.Generation.Temperature
	}
	return &AnswerService{
		provider:     provider,
		store:        store,
		filter:       retrieval.NewFilter(provider, cfg.Retrieval.DomainKeywords),
		catalog:      retrieval.NewCatalogDetector(cfg.Retrieval.CatalogKeywords),
		history:      conversation.NewHistoryBuilder(cfg.History.MaxTurns),
		invoker:      invoker,
		retrievalCfg: cfg.Retrieval,
		dataDir:      cfg.Index.DataDir,
		collection:   cfg.Index.CollectionPrefix,
		defaults:     defaults,
	}
}

// Answer runs one chat turn through the pipeline.
func (s *AnswerService) Answer(ctx context.Context, req models.ChatRequest) (*models.ChatResponse, error) {
	question := req.Message
	isCatalog := s.catalog.IsCatalogQuery(question)

	k := s.retrievalCfg.K
	if isCatalog {
		k = s.retrievalCfg.CatalogK
	}

	selected := s.retrieve(ctx, question, k, isCatalog)
	contextText := retrieval.BuildContext(selected)
	historyText := s.history.Build(req.Turns)

	result, err := s.invoker.Invoke(ctx, models.PromptContext{
		Context:  contextText,
		History:  historyText,
		Question: question,
	}, s.params(req))
	if err != nil {
		return nil, err
	}

	return &models.ChatResponse{
		Answer:   result.Answer,
		Sources:  sourceRefs(selected),
		Degraded: result.Degraded,
	}, nil
}

// retrieve finds and ranks context chunks. Retrieval failures degrade to an
// empty selection so the caller still gets an answer.
func (s *AnswerService) retrieve(ctx context.Context, question string, k int, isCatalog bool) []models.Chunk {
	queryVec, err := s.provider.Embed(ctx, question)
	if err != nil {
		log.Printf("SERVICE WARN: could not embed question, answering without context: %v", err)
		return nil
	}

	name := vectorindex.CurrentCollection(s.dataDir, s.collection)
	index, err := s.store.Collection(ctx, name)
	if err != nil {
		log.Printf("SERVICE WARN: could not open collection %s, answering without context: %v", name, err)
		return nil
	}

	candidates, err := index.Query(ctx, queryVec, k)
	if err != nil {
		log.Printf("SERVICE WARN: index query failed, answering without context: %v", err)
		return nil
	}

	selected := s.filter.Filter(ctx, question, candidates, s.retrievalCfg.Threshold, s.retrievalCfg.TopN)
	if isCatalog {
		selected = s.catalog.EnsureCatalogChunk(selected, candidates)
	}
	return selected
}

// params merges per-request overrides onto the configured defaults.
func (s *AnswerService) params(req models.ChatRequest) llm.Params {
	p := s.defaults
	if req.Temperature != nil {
		p.Temperature = *req.Temperature
	}
	if req.TopP != nil {
		p.TopP = *req.TopP
	}
	if req.TopK != nil {
		p.TopK = *req.TopK
	}
	if req.NumCtx != nil {
		p.NumCtx = *req.NumCtx
	}
	if req.RepeatPenalty != nil {
		p.RepeatPenalty = *req.RepeatPenalty
	}
	return p
}

func sourceRefs(chunks []models.Chunk) []models.SourceRef {
	refs := make([]models.SourceRef, 0, len(chunks))
	for _, chunk := range chunks {
		refs = append(refs, models.SourceRef{
			Filename: chunk.Metadata.Filename,
			DocType:  chunk.Metadata.DocType,
			ChunkID:  chunk.ID,
		})
	}
	return refs
}
