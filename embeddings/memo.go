package embeddings

import (
	"context"
	"sync"
)

// Memo wraps a Provider with a bounded memoization keyed by exact text.
// Queries repeat often in a chat session. When the map fills up it is reset
// wholesale.
type Memo struct {
	inner Provider
	max   int

	mu    sync.Mutex
	cache map[string][]float32
}

// NewMemo wraps provider with a cache of at most max entries. A max of zero
// disables caching.
func NewMemo(provider Provider, max int) *Memo {
	return &Memo{
		inner: provider,
		max:   max,
		cache: make(map[string][]float32),
	}
}

func (m *Memo) Model() string { return m.inner.Model() }

func (m *Memo) Embed(ctx context.Context, text string) ([]float32, error) {
	if m.max <= 0 {
		return m.inner.Embed(ctx, text)
	}

	m.mu.Lock()
	vec, ok := m.cache[text]
	m.mu.Unlock()
	if ok {
		return vec, nil
	}

	vec, err := m.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	if len(m.cache) >= m.max {
		m.cache = make(map[string][]float32)
	}
	m.cache[text] = vec
	m.mu.Unlock()
	return vec, nil
}
