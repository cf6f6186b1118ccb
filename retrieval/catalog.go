package retrieval

import (
	"strings"

	"github.com/cotin/chatcotin/models"
)

// DefaultCatalogKeywords marks questions that ask for an exhaustive
// enumeration, like "quais painéis existem". The list is configurable;
// making it data-driven instead is a known extension point.
var DefaultCatalogKeywords = []string{
	"painel", "painéis", "paineis", "dashboard", "dashboards",
	"quais painéis", "quais paineis", "lista de painéis",
}

// CatalogDetector classifies catalog queries and locates catalog-bearing
// chunks by the same keyword list.
type CatalogDetector struct {
	keywords []string
}

// NewCatalogDetector builds a detector; an empty list falls back to
// DefaultCatalogKeywords.
func NewCatalogDetector(keywords []string) *CatalogDetector {
	kws := keywords
	if len(kws) == 0 {
		kws = DefaultCatalogKeywords
	}
	lowered := make([]string, len(kws))
	for i, kw := range kws {
		lowered[i] = strings.ToLower(kw)
	}
	return &CatalogDetector{keywords: lowered}
}

// IsCatalogQuery reports whether the question asks for an enumerable
// catalog. Catalog queries widen retrieval and trigger forced inclusion so
// no catalog entry is lost to ranking.
func (d *CatalogDetector) IsCatalogQuery(question string) bool {
	q := strings.ToLower(question)
	for _, kw := range d.keywords {
		if strings.Contains(q, kw) {
			return true
		}
	}
	return false
}

// markerCount counts catalog keywords present in the text.
func (d *CatalogDetector) markerCount(text string) int {
	lower := strings.ToLower(text)
	count := 0
	for _, kw := range d.keywords {
		if strings.Contains(lower, kw) {
			count++
		}
	}
	return count
}

// EnsureCatalogChunk guarantees that a catalog-bearing chunk reaches the
// result set for a catalog query. If none of the selected chunks carries a
// catalog marker but some candidate does, the lowest-ranked slot is evicted
// in its favor.
func (d *CatalogDetector) EnsureCatalogChunk(selected []models.Chunk, candidates []models.RetrievalCandidate) []models.Chunk {
	for _, chunk := range selected {
		if d.markerCount(chunk.Text) > 0 {
			return selected
		}
	}

	best := -1
	bestCount := 0
	for i, cand := range candidates {
		if count := d.markerCount(cand.Chunk.Text); count > bestCount {
			best, bestCount = i, count
		}
	}
	if best < 0 {
		return selected
	}

	catalog := candidates[best].Chunk
	if len(selected) == 0 {
		return []models.Chunk{catalog}
	}
	out := append([]models.Chunk(nil), selected...)
	out[len(out)-1] = catalog
	return out
}
