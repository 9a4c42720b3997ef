// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/rs/zerolog"

	"github.com/pdiddy/paperbot/pkg/types"
)

// Filters narrows a result set. Nil or empty fields impose no
// constraint; set fields combine with logical AND.
type Filters struct {
	// Authors keeps papers with at least one author containing any of
	// these names (case-folded substring).
	Authors []string `json:"authors,omitempty"`

	// DateFrom and DateTo bound the publication date inclusively, by
	// ISO string comparison.
	DateFrom string `json:"date_from,omitempty"`
	DateTo   string `json:"date_to,omitempty"`

	// TitleKeywords keeps papers whose title contains any keyword.
	TitleKeywords []string `json:"title_keywords,omitempty"`

	// AbstractKeywords keeps papers whose abstract contains any keyword.
	AbstractKeywords []string `json:"abstract_keywords,omitempty"`

	// ExcludeTerms drops papers whose title or abstract contains any term.
	ExcludeTerms []string `json:"exclude_terms,omitempty"`

	// Journals keeps papers whose journal matches exactly (case-folded).
	Journals []string `json:"journals,omitempty"`

	// Sources keeps papers whose source tag matches exactly (case-folded).
	Sources []string `json:"sources,omitempty"`

	// MinRelevanceScore keeps papers scored at or above the threshold.
	// Unscored papers are excluded once this is set.
	MinRelevanceScore *float64 `json:"min_relevance_score,omitempty"`
}

// HistoryStore records executed searches. Implemented by store.Store.
type HistoryStore interface {
	SaveSearchQuery(q types.SearchQuery) (int64, error)
}

// Engine combines boolean matching, attribute filters, and semantic
// re-ranking into one ranked result list.
type Engine struct {
	history HistoryStore
	ranker  *Ranker
	log     zerolog.Logger
}

// NewEngine returns an Engine. history may be nil to skip query
// recording; ranker may be nil to disable semantic re-ranking.
func NewEngine(history HistoryStore, ranker *Ranker, log zerolog.Logger) *Engine {
	if ranker == nil {
		ranker = NewRanker(nil)
	}
	return &Engine{history: history, ranker: ranker, log: log}
}

// Search runs the pipeline in fixed order: boolean query match on
// title+abstract, attribute filters, optional semantic re-rank, then a
// best-effort history record. A history failure never fails the search.
func (e *Engine) Search(ctx context.Context, query string, papers []types.Paper, filters *Filters, useSemantic bool, requester string) []types.Paper {
	if len(papers) == 0 {
		return nil
	}

	parsed := ParseQuery(query)

	matched := make([]types.Paper, 0, len(papers))
	for _, p := range papers {
		if parsed.Matches(p.Title + " " + p.Abstract) {
			matched = append(matched, p)
		}
	}

	if filters != nil {
		matched = applyFilters(matched, *filters)
	}

	if useSemantic && e.ranker.Enabled() && len(matched) > 0 {
		ranked := e.ranker.Rank(ctx, query, matched, 0)
		matched = matched[:0]
		for _, r := range ranked {
			matched = append(matched, r.Paper)
		}
	}

	e.recordHistory(query, filters, len(matched), requester)
	return matched
}

func (e *Engine) recordHistory(query string, filters *Filters, count int, requester string) {
	if e.history == nil {
		return
	}
	var serialized string
	if filters != nil {
		if data, err := json.Marshal(filters); err == nil {
			serialized = string(data)
		}
	}
	_, err := e.history.SaveSearchQuery(types.SearchQuery{
		Query:       query,
		Filters:     serialized,
		ResultCount: count,
		Requester:   requester,
	})
	if err != nil {
		e.log.Warn().Err(err).Str("query", query).Msg("failed to record search history")
	}
}

func applyFilters(papers []types.Paper, f Filters) []types.Paper {
	filtered := papers

	if len(f.Authors) > 0 {
		filtered = keep(filtered, func(p types.Paper) bool {
			for _, want := range f.Authors {
				w := strings.ToLower(want)
				for _, a := range p.Authors {
					if strings.Contains(strings.ToLower(a), w) {
						return true
					}
				}
			}
			return false
		})
	}

	if f.DateFrom != "" {
		filtered = keep(filtered, func(p types.Paper) bool {
			return p.PublicationDate >= f.DateFrom
		})
	}
	if f.DateTo != "" {
		filtered = keep(filtered, func(p types.Paper) bool {
			return p.PublicationDate <= f.DateTo
		})
	}

	if len(f.TitleKeywords) > 0 {
		filtered = keep(filtered, func(p types.Paper) bool {
			return containsAny(p.Title, f.TitleKeywords)
		})
	}
	if len(f.AbstractKeywords) > 0 {
		filtered = keep(filtered, func(p types.Paper) bool {
			return containsAny(p.Abstract, f.AbstractKeywords)
		})
	}
	if len(f.ExcludeTerms) > 0 {
		filtered = keep(filtered, func(p types.Paper) bool {
			return !containsAny(p.Title+" "+p.Abstract, f.ExcludeTerms)
		})
	}

	if len(f.Journals) > 0 {
		wanted := foldSet(f.Journals)
		filtered = keep(filtered, func(p types.Paper) bool {
			_, ok := wanted[strings.ToLower(p.Journal)]
			return ok
		})
	}
	if len(f.Sources) > 0 {
		wanted := foldSet(f.Sources)
		filtered = keep(filtered, func(p types.Paper) bool {
			_, ok := wanted[strings.ToLower(p.Source)]
			return ok
		})
	}

	if f.MinRelevanceScore != nil {
		filtered = keep(filtered, func(p types.Paper) bool {
			return p.Scored() && p.Score() >= *f.MinRelevanceScore
		})
	}

	return filtered
}

func keep(papers []types.Paper, pred func(types.Paper) bool) []types.Paper {
	kept := make([]types.Paper, 0, len(papers))
	for _, p := range papers {
		if pred(p) {
			kept = append(kept, p)
		}
	}
	return kept
}

func containsAny(text string, terms []string) bool {
	folded := strings.ToLower(text)
	for _, t := range terms {
		if strings.Contains(folded, strings.ToLower(t)) {
			return true
		}
	}
	return false
}

func foldSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[strings.ToLower(v)] = struct{}{}
	}
	return set
}
