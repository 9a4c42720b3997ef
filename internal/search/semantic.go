// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"math"
	"sort"

	"github.com/tmc/langchaingo/embeddings"

	"github.com/pdiddy/paperbot/pkg/types"
)

// DefaultTopK bounds semantic ranking results when the caller passes no
// explicit limit.
const DefaultTopK = 50

// RankedPaper pairs a paper with its similarity score.
type RankedPaper struct {
	Paper types.Paper
	Score float64
}

// Ranker orders papers by cosine similarity between the query embedding
// and each paper's title+abstract embedding. The embedder is injected
// once at construction; a nil embedder disables ranking.
type Ranker struct {
	embedder embeddings.Embedder
}

// NewRanker returns a Ranker over the given embedder. Pass nil to get a
// ranker that preserves input order.
func NewRanker(embedder embeddings.Embedder) *Ranker {
	return &Ranker{embedder: embedder}
}

// Enabled reports whether an embedding capability is available.
func (r *Ranker) Enabled() bool {
	return r != nil && r.embedder != nil
}

// Rank returns up to topK papers ordered by descending similarity to
// the query. Embedding failures never reach the caller: without a
// usable embedder every paper scores 1.0 and input order is kept.
func (r *Ranker) Rank(ctx context.Context, query string, papers []types.Paper, topK int) []RankedPaper {
	if topK <= 0 {
		topK = DefaultTopK
	}
	if !r.Enabled() || len(papers) == 0 {
		return passthrough(papers, topK)
	}

	queryVec, err := r.embedder.EmbedQuery(ctx, query)
	if err != nil || len(queryVec) == 0 {
		return passthrough(papers, topK)
	}

	texts := make([]string, len(papers))
	for i, p := range papers {
		texts[i] = p.Title + " " + p.Abstract
	}
	docVecs, err := r.embedder.EmbedDocuments(ctx, texts)
	if err != nil || len(docVecs) != len(papers) {
		return passthrough(papers, topK)
	}

	ranked := make([]RankedPaper, len(papers))
	for i, p := range papers {
		ranked[i] = RankedPaper{Paper: p, Score: cosineSimilarity(queryVec, docVecs[i])}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	if len(ranked) > topK {
		ranked = ranked[:topK]
	}
	return ranked
}

func passthrough(papers []types.Paper, topK int) []RankedPaper {
	n := len(papers)
	if n > topK {
		n = topK
	}
	ranked := make([]RankedPaper, n)
	for i := 0; i < n; i++ {
		ranked[i] = RankedPaper{Paper: papers[i], Score: 1.0}
	}
	return ranked
}

// cosineSimilarity is the dot product of the unit-normalized vectors.
// Mismatched lengths and zero vectors score 0.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
