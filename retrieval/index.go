package retrieval

import (
	"context"
	"fmt"
	"math"
	"sort"
)

// Default MMR search parameters.
const (
	DefaultK      = 5
	DefaultFetchK = 20
	DefaultLambda = 0.5
)

// SearchOptions tunes maximal marginal relevance search.
type SearchOptions struct {
	// K is the number of chunks returned.
	K int
	// FetchK is how many nearest chunks are considered.
	FetchK int
	// Lambda trades relevance (1) against diversity (0).
	Lambda float64
}

// DefaultSearchOptions returns k=5, fetch 20, λ=0.5.
func DefaultSearchOptions() SearchOptions {
	return SearchOptions{K: DefaultK, FetchK: DefaultFetchK, Lambda: DefaultLambda}
}

// Index is an in-memory vector index over chunks for one run.
type Index struct {
	embedder Embedder
	chunks   []Chunk
	vectors  [][]float32
}

// BuildIndex embeds chunks and returns an index over them.
func BuildIndex(ctx context.Context, embedder Embedder, chunks []Chunk) (*Index, error) {
	if len(chunks) == 0 {
		return nil, ErrEmptyIndex
	}
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	vectors, err := embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(chunks) {
		return nil, fmt.Errorf("embedded %d of %d chunks", len(vectors), len(chunks))
	}
	return &Index{embedder: embedder, chunks: chunks, vectors: vectors}, nil
}

// Len returns the number of indexed chunks.
func (ix *Index) Len() int {
	return len(ix.chunks)
}

// Search returns up to K chunks for query, chosen by maximal marginal
// relevance among the FetchK most similar.
func (ix *Index) Search(ctx context.Context, query string, opts SearchOptions) ([]Chunk, error) {
	if ix.Len() == 0 {
		return nil, ErrEmptyIndex
	}
	q, err := ix.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, err
	}

	picked, err := mmr(q, ix.vectors, opts)
	if err != nil {
		return nil, err
	}
	out := make([]Chunk, len(picked))
	for i, idx := range picked {
		out[i] = ix.chunks[idx]
	}
	return out, nil
}

// mmr returns indexes into vectors in selection order.
func mmr(query []float32, vectors [][]float32, opts SearchOptions) ([]int, error) {
	if opts.K <= 0 {
		opts.K = DefaultK
	}
	if opts.FetchK < opts.K {
		opts.FetchK = opts.K
	}

	type scored struct {
		idx int
		sim float64
	}
	cands := make([]scored, len(vectors))
	for i, v := range vectors {
		sim, err := cosine(query, v)
		if err != nil {
			return nil, err
		}
		cands[i] = scored{i, sim}
	}
	sort.SliceStable(cands, func(i, j int) bool { return cands[i].sim > cands[j].sim })
	if len(cands) > opts.FetchK {
		cands = cands[:opts.FetchK]
	}

	var selected []int
	for len(selected) < opts.K && len(cands) > 0 {
		best, bestScore := 0, math.Inf(-1)
		for ci, c := range cands {
			redundancy := 0.0
			for _, s := range selected {
				sim, _ := cosine(vectors[c.idx], vectors[s])
				redundancy = math.Max(redundancy, sim)
			}
			score := opts.Lambda*c.sim - (1-opts.Lambda)*redundancy
			if score > bestScore {
				best, bestScore = ci, score
			}
		}
		selected = append(selected, cands[best].idx)
		cands = append(cands[:best], cands[best+1:]...)
	}
	return selected, nil
}

func cosine(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d", ErrDimensionMismatch, len(a), len(b))
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb)), nil
}
