// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package digest runs the daily pipeline: fetch recent papers, filter
// by journal, score relevance, and keep only papers not seen before.
package digest

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/pdiddy/paperbot/internal/journal"
	"github.com/pdiddy/paperbot/pkg/types"
)

// PaperSource is the multi-source fetch surface the pipeline consumes.
// Implemented by fetch.MultiFetcher.
type PaperSource interface {
	Fetch(ctx context.Context, keywords []string, daysBack, max int) ([]types.Paper, map[string]error)
}

// Scorer rates and filters papers by relevance. Implemented by
// relevance.Scorer.
type Scorer interface {
	FilterPapers(ctx context.Context, papers []types.Paper, minScore float64) []types.Paper
}

// PaperStore is the persistence surface the pipeline consumes.
// Implemented by store.Store.
type PaperStore interface {
	ExistingDOIs(dois []string) (map[string]struct{}, error)
	SavePapers(papers []types.Paper) ([]int64, error)
}

// Pipeline assembles one digest run. Scorer may be nil when relevance
// scoring is unconfigured; the journal filter always applies.
type Pipeline struct {
	source   PaperSource
	journals types.JournalConfig
	scorer   Scorer
	minScore float64
	store    PaperStore
	log      zerolog.Logger
}

// NewPipeline wires a digest pipeline.
func NewPipeline(source PaperSource, journals types.JournalConfig, scorer Scorer, minScore float64, store PaperStore, log zerolog.Logger) *Pipeline {
	return &Pipeline{
		source:   source,
		journals: journals,
		scorer:   scorer,
		minScore: minScore,
		store:    store,
		log:      log,
	}
}

// Run executes the pipeline and returns the papers that survived every
// stage and were not already stored. Source failures reduce coverage
// but never abort the run; only a storage failure does.
func (p *Pipeline) Run(ctx context.Context, keywords []string, daysBack, maxPerSource int) ([]types.Paper, error) {
	papers, errs := p.source.Fetch(ctx, keywords, daysBack, maxPerSource)
	for source, err := range errs {
		p.log.Warn().Err(err).Str("source", source).Msg("digest fetch degraded")
	}
	p.log.Info().Int("fetched", len(papers)).Msg("papers fetched")
	if len(papers) == 0 {
		return nil, nil
	}

	filtered, excluded := journal.Filter(papers, p.journals)
	p.log.Info().
		Int("kept", len(filtered)).
		Strs("excluded_journals", excluded).
		Msg("journal filter applied")

	if p.scorer != nil && len(filtered) > 0 {
		filtered = p.scorer.FilterPapers(ctx, filtered, p.minScore)
		p.log.Info().Int("kept", len(filtered)).Float64("min_score", p.minScore).Msg("relevance filter applied")
	}
	if len(filtered) == 0 {
		return nil, nil
	}

	fresh, err := p.dropKnown(filtered)
	if err != nil {
		return nil, err
	}
	if len(fresh) == 0 {
		return nil, nil
	}

	if _, err := p.store.SavePapers(fresh); err != nil {
		return nil, fmt.Errorf("saving digest papers: %w", err)
	}
	return fresh, nil
}

// dropKnown removes papers whose DOI is already stored. Papers without
// a DOI are always kept.
func (p *Pipeline) dropKnown(papers []types.Paper) ([]types.Paper, error) {
	var dois []string
	for _, paper := range papers {
		if paper.DOI != "" {
			dois = append(dois, paper.DOI)
		}
	}

	known, err := p.store.ExistingDOIs(dois)
	if err != nil {
		return nil, fmt.Errorf("checking stored papers: %w", err)
	}

	fresh := make([]types.Paper, 0, len(papers))
	for _, paper := range papers {
		if paper.DOI != "" {
			if _, seen := known[paper.DOI]; seen {
				continue
			}
		}
		fresh = append(fresh, paper)
	}
	return fresh, nil
}
