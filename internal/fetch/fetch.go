// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fetch retrieves papers from the supported sources: PubMed,
// bioRxiv, and arXiv. Each source implements Fetcher; MultiFetcher
// fans out across them concurrently with per-source error isolation.
package fetch

import (
	"context"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/pdiddy/paperbot/pkg/types"
)

// Fetcher retrieves papers from a single source.
type Fetcher interface {
	// Name returns the source tag stamped onto fetched papers.
	Name() string

	// Fetch returns recent papers matching any of the keywords,
	// published within the last daysBack days, up to max results.
	Fetch(ctx context.Context, keywords []string, daysBack, max int) ([]types.Paper, error)

	// Search returns papers matching a free-form query, up to max
	// results, without a recency restriction.
	Search(ctx context.Context, query string, max int) ([]types.Paper, error)
}

// MultiFetcher queries several sources concurrently. One source
// failing never hides the results of the others; failures are logged
// and returned as a per-source error map.
type MultiFetcher struct {
	fetchers []Fetcher
	log      zerolog.Logger
}

// NewMultiFetcher returns a MultiFetcher over the given sources.
func NewMultiFetcher(log zerolog.Logger, fetchers ...Fetcher) *MultiFetcher {
	return &MultiFetcher{fetchers: fetchers, log: log}
}

// Sources returns the names of the configured sources.
func (m *MultiFetcher) Sources() []string {
	names := make([]string, len(m.fetchers))
	for i, f := range m.fetchers {
		names[i] = f.Name()
	}
	return names
}

type sourceResult struct {
	source string
	papers []types.Paper
	err    error
}

// Fetch runs Fetch on every source concurrently and merges the
// results. DOI duplicates across sources are dropped, first source
// wins. The error map holds one entry per failed source and is empty
// when everything succeeded.
func (m *MultiFetcher) Fetch(ctx context.Context, keywords []string, daysBack, max int) ([]types.Paper, map[string]error) {
	return m.fanOut(ctx, func(ctx context.Context, f Fetcher) ([]types.Paper, error) {
		return f.Fetch(ctx, keywords, daysBack, max)
	})
}

// Search runs Search on every source concurrently and merges the
// results the same way Fetch does.
func (m *MultiFetcher) Search(ctx context.Context, query string, max int) ([]types.Paper, map[string]error) {
	return m.fanOut(ctx, func(ctx context.Context, f Fetcher) ([]types.Paper, error) {
		return f.Search(ctx, query, max)
	})
}

func (m *MultiFetcher) fanOut(ctx context.Context, run func(context.Context, Fetcher) ([]types.Paper, error)) ([]types.Paper, map[string]error) {
	results := make(chan sourceResult, len(m.fetchers))

	var wg sync.WaitGroup
	for _, f := range m.fetchers {
		wg.Add(1)
		go func(f Fetcher) {
			defer wg.Done()
			papers, err := run(ctx, f)
			results <- sourceResult{source: f.Name(), papers: papers, err: err}
		}(f)
	}
	wg.Wait()
	close(results)

	var merged []types.Paper
	errs := make(map[string]error)
	seen := make(map[string]struct{})

	for r := range results {
		if r.err != nil {
			m.log.Warn().Err(r.err).Str("source", r.source).Msg("source fetch failed")
			errs[r.source] = r.err
			continue
		}
		for _, p := range r.papers {
			if p.DOI != "" {
				key := strings.ToLower(p.DOI)
				if _, dup := seen[key]; dup {
					continue
				}
				seen[key] = struct{}{}
			}
			merged = append(merged, p)
		}
	}
	return merged, errs
}
