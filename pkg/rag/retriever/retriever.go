package retriever

import (
	"context"
	"fmt"
	"sort"

	"doc-assistant-be/pkg/fingerprint"
	"doc-assistant-be/pkg/store"
	"doc-assistant-be/pkg/vectorindex"

	"go.uber.org/zap"
)

// Reranker is an optional secondary relevance capability: it re-scores a
// candidate's text against the raw query. Implementations live outside the
// core (a cross-encoder service, a lexical scorer).
type Reranker interface {
	Score(ctx context.Context, query, text string) (float64, error)
}

// Retriever fingerprints queries and turns index matches into ranked
// candidates.
type Retriever struct {
	generator *fingerprint.Generator
	index     vectorindex.Index
	reranker  Reranker
	logger    *zap.Logger
}

// New creates a Retriever. reranker may be nil to keep index order.
func New(generator *fingerprint.Generator, index vectorindex.Index, reranker Reranker, logger *zap.Logger) *Retriever {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Retriever{
		generator: generator,
		index:     index,
		reranker:  reranker,
		logger:    logger,
	}
}

// Retrieve returns at most topK candidates for the query, descending by
// score with 1-based ranks. An unreachable index is an error, never an
// empty result: "no matches" and "subsystem down" stay distinguishable.
func (r *Retriever) Retrieve(ctx context.Context, query string, topK int) ([]store.Candidate, error) {
	vector := r.generator.Fingerprint(query)

	matches, err := r.index.Search(ctx, vector, topK)
	if err != nil {
		r.logger.Error("vector search failed", zap.Error(err))
		return nil, fmt.Errorf("retrieve: %w", err)
	}

	candidates := make([]store.Candidate, len(matches))
	for i, m := range matches {
		candidates[i] = store.Candidate{
			UnitId:         m.UnitId,
			SourceDocument: m.SourceName,
			Text:           m.Text,
			Score:          m.Score,
			Rank:           i + 1,
		}
	}

	if r.reranker != nil && len(candidates) > 0 {
		candidates = r.rerank(ctx, query, candidates)
	}

	r.logger.Debug("retrieval complete",
		zap.Int("candidates", len(candidates)),
		zap.Int("top_k", topK))
	return candidates, nil
}

// RetrieveFiltered retrieves and then applies keep as a post-filter. The
// index is only queryable by fingerprint similarity, so metadata predicates
// run after the fact; ranks are reassigned on the survivors.
func (r *Retriever) RetrieveFiltered(ctx context.Context, query string, topK int, keep func(store.Candidate) bool) ([]store.Candidate, error) {
	candidates, err := r.Retrieve(ctx, query, topK)
	if err != nil {
		return nil, err
	}
	if keep == nil {
		return candidates, nil
	}

	filtered := make([]store.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if keep(c) {
			c.Rank = len(filtered) + 1
			filtered = append(filtered, c)
		}
	}
	return filtered, nil
}

// rerank re-scores every candidate against the raw query and re-sorts.
// Ties fall back to the original index rank. A reranker failure on one
// candidate keeps that candidate's index score rather than dropping it.
func (r *Retriever) rerank(ctx context.Context, query string, candidates []store.Candidate) []store.Candidate {
	originalRank := make(map[int]int, len(candidates))
	for i := range candidates {
		originalRank[i] = candidates[i].Rank
		score, err := r.reranker.Score(ctx, query, candidates[i].Text)
		if err != nil {
			r.logger.Warn("rerank scoring failed, keeping index score",
				zap.Int("rank", candidates[i].Rank), zap.Error(err))
			continue
		}
		candidates[i].Score = score
	}

	idx := make([]int, len(candidates))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		if candidates[idx[a]].Score != candidates[idx[b]].Score {
			return candidates[idx[a]].Score > candidates[idx[b]].Score
		}
		return originalRank[idx[a]] < originalRank[idx[b]]
	})

	reranked := make([]store.Candidate, len(candidates))
	for pos, i := range idx {
		c := candidates[i]
		c.Rank = pos + 1
		reranked[pos] = c
	}
	return reranked
}
