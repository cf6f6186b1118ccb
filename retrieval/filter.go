// Package retrieval re-ranks vector index candidates with lexical
// heuristics tuned for the COTIN corpus and assembles the final context
// window. The scoring is deliberately domain-specific, not a general search
// ranking.
package retrieval

import (
	"context"
	"log"
	"sort"
	"strings"

	"github.com/cotin/chatcotin/embeddings"
	"github.com/cotin/chatcotin/models"
	"github.com/cotin/chatcotin/vectorindex"
)

// Scoring weights: each domain keyword found in a chunk and each long
// question word found in a chunk nudge the embedding similarity.
const (
	keywordWeight   = 0.05
	wordMatchWeight = 0.10
	// minWordLen filters out articles and prepositions from the question
	// word overlap; only words longer than this count.
	minWordLen = 3
)

// DefaultDomainKeywords is the built-in vocabulary of the public procurement
// transparency domain.
var DefaultDomainKeywords = []string{
	"transparência", "dados abertos", "licitação", "compras", "governo",
	"lai", "normativo", "portal", "sistema", "acesso", "informação",
	"lei", "decreto",
}

// Filter combines embedding similarity with keyword and question-term
// overlap to pick the chunks worth sending to the generator.
type Filter struct {
	provider embeddings.Provider
	keywords []string
}

// NewFilter creates a relevance filter. An empty keyword list falls back to
// DefaultDomainKeywords.
func NewFilter(provider embeddings.Provider, domainKeywords []string) *Filter {
	keywords := domainKeywords
	if len(keywords) == 0 {
		keywords = DefaultDomainKeywords
	}
	lowered := make([]string, len(keywords))
	for i, kw := range keywords {
		lowered[i] = strings.ToLower(kw)
	}
	return &Filter{provider: provider, keywords: lowered}
}

// Filter re-ranks candidates and returns at most topN chunks. It never
// returns an empty result for a non-empty candidate set: when no candidate
// clears the threshold it falls back to the top topN by raw similarity, and
// when the question cannot be embedded it degrades to the first topN
// unranked.
func (f *Filter) Filter(ctx context.Context, question string, candidates []models.RetrievalCandidate, threshold float64, topN int) []models.Chunk {
	if len(candidates) == 0 {
		return nil
	}
	if topN <= 0 {
		topN = 5
	}

	scored, err := f.score(ctx, question, candidates)
	if err != nil {
		log.Printf("FILTER: recoverable embedding failure, returning unranked candidates: %v", err)
		return firstChunks(candidates, topN)
	}

	passing := make([]models.ScoredCandidate, 0, len(scored))
	for _, sc := range scored {
		if sc.FinalScore >= threshold {
			passing = append(passing, sc)
		}
	}
	sort.SliceStable(passing, func(i, j int) bool {
		return passing[i].FinalScore > passing[j].FinalScore
	})
	if len(passing) > topN {
		passing = passing[:topN]
	}
	if len(passing) > 0 {
		chunks := make([]models.Chunk, len(passing))
		for i, sc := range passing {
			chunks[i] = sc.Chunk
		}
		return chunks
	}

	// Nothing cleared the threshold: best-effort top-N by raw similarity.
	bySim := append([]models.RetrievalCandidate(nil), candidates...)
	sort.SliceStable(bySim, func(i, j int) bool {
		return bySim[i].Similarity > bySim[j].Similarity
	})
	return firstChunks(bySim, topN)
}

// score computes final_score for every candidate. The similarity term comes
// from the candidate's own vector when the index supplied it, otherwise from
// the similarity the index reported; both use the same cosine metric.
func (f *Filter) score(ctx context.Context, question string, candidates []models.RetrievalCandidate) ([]models.ScoredCandidate, error) {
	questionLower := strings.ToLower(question)
	questionWords := strings.Fields(questionLower)

	var questionVec []float32
	needVec := false
	for _, cand := range candidates {
		if cand.Vector != nil {
			needVec = true
			break
		}
	}
	if needVec {
		var err error
		questionVec, err = f.provider.Embed(ctx, question)
		if err != nil {
			return nil, err
		}
	}

	scored := make([]models.ScoredCandidate, len(candidates))
	for i, cand := range candidates {
		similarity := cand.Similarity
		if cand.Vector != nil && questionVec != nil {
			similarity = vectorindex.Cosine(questionVec, cand.Vector)
		}

		chunkLower := strings.ToLower(cand.Chunk.Text)
		keywordScore := 0
		for _, kw := range f.keywords {
			if strings.Contains(chunkLower, kw) {
				keywordScore++
			}
		}
		wordMatchScore := 0
		for _, word := range questionWords {
			if len([]rune(word)) > minWordLen && strings.Contains(chunkLower, word) {
				wordMatchScore++
			}
		}

		scored[i] = models.ScoredCandidate{
			Chunk: cand.Chunk,
			FinalScore: similarity +
				float64(keywordScore)*keywordWeight +
				float64(wordMatchScore)*wordMatchWeight,
		}
	}
	return scored, nil
}

func firstChunks(candidates []models.RetrievalCandidate, n int) []models.Chunk {
	if n > len(candidates) {
		n = len(candidates)
	}
	chunks := make([]models.Chunk, n)
	for i := 0; i < n; i++ {
		chunks[i] = candidates[i].Chunk
	}
	return chunks
}
