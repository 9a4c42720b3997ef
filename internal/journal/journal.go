// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package journal normalizes journal names, assigns tier labels, and
// filters papers by journal.
package journal

import (
	"strings"

	"github.com/pdiddy/paperbot/pkg/types"
)

// Tier is a coarse journal-quality bucket used for grouping and filtering.
type Tier string

const (
	// TierNone marks journals that match no tier list.
	TierNone Tier = ""

	Tier1        Tier = "tier1"
	Tier2        Tier = "tier2"
	TierML       Tier = "ml"
	TierPreprint Tier = "preprint"
)

// Info describes one journal lookup. It is derived on every call and
// carries no identity beyond its inputs.
type Info struct {
	// Name is the journal name as given.
	Name string

	// NormalizedName is the canonical full name when a known alias
	// matched, otherwise the trimmed input.
	NormalizedName string

	// Tier is the matched tier, or TierNone.
	Tier Tier

	// Emoji is the display icon for the tier.
	Emoji string
}

// IsPreprint reports whether the journal is a preprint server.
func (i Info) IsPreprint() bool { return i.Tier == TierPreprint }

// aliases maps case-folded abbreviations to canonical full names.
var aliases = map[string]string{
	"nejm":                            "The New England Journal of Medicine",
	"new england journal of medicine": "The New England Journal of Medicine",
	"pnas":                            "Proceedings of the National Academy of Sciences",
	"proc natl acad sci":              "Proceedings of the National Academy of Sciences",
	"jmlr":                            "Journal of Machine Learning Research",
	"nat methods":                     "Nature Methods",
	"nat commun":                      "Nature Communications",
	"nat biotechnol":                  "Nature Biotechnology",
	"nat genet":                       "Nature Genetics",
	"nat med":                         "Nature Medicine",
	"nat mach intell":                 "Nature Machine Intelligence",
}

// tierLists holds the fixed journal tier membership tables.
var tierLists = map[Tier][]string{
	Tier1: {
		"Nature",
		"Science",
		"Cell",
		"The New England Journal of Medicine",
		"NEJM",
		"Lancet",
		"The Lancet",
	},
	Tier2: {
		"Nature Methods",
		"Nature Communications",
		"PNAS",
		"Proceedings of the National Academy of Sciences",
		"eLife",
		"Nature Biotechnology",
		"Nature Genetics",
	},
	TierML: {
		"NeurIPS",
		"ICML",
		"Nature Machine Intelligence",
		"ICLR",
		"Journal of Machine Learning Research",
	},
	TierPreprint: {
		"bioRxiv",
		"arXiv",
		"medRxiv",
	},
}

// tierOrder fixes the lookup order so an input matching several lists
// lands in the highest tier.
var tierOrder = []Tier{Tier1, Tier2, TierML, TierPreprint}

// tierEmoji maps each tier to its display icon.
var tierEmoji = map[Tier]string{
	Tier1:        "🏆",
	Tier2:        "🥈",
	TierML:       "🤖",
	TierPreprint: "📝",
}

// defaultEmoji marks journals outside every tier list.
const defaultEmoji = "📰"

// Classify normalizes a journal name and looks up its tier.
//
// Tier matching tries an exact case-folded match first, then falls back
// to substring containment in either direction. The fallback is
// deliberately permissive and can mislabel short names ("Cell Reports"
// matches the Tier1 entry "Cell"); callers that need exact membership
// should compare NormalizedName themselves.
func Classify(name string) Info {
	trimmed := strings.TrimSpace(name)
	normalized := trimmed
	if full, ok := aliases[strings.ToLower(trimmed)]; ok {
		normalized = full
	}

	tier := lookupTier(trimmed)
	if tier == TierNone && normalized != trimmed {
		tier = lookupTier(normalized)
	}

	emoji := defaultEmoji
	if e, ok := tierEmoji[tier]; ok {
		emoji = e
	}

	return Info{
		Name:           name,
		NormalizedName: normalized,
		Tier:           tier,
		Emoji:          emoji,
	}
}

func lookupTier(name string) Tier {
	folded := strings.ToLower(strings.TrimSpace(name))
	if folded == "" {
		return TierNone
	}

	for _, tier := range tierOrder {
		for _, entry := range tierLists[tier] {
			if strings.ToLower(entry) == folded {
				return tier
			}
		}
	}

	// Substring fallback, both directions.
	for _, tier := range tierOrder {
		for _, entry := range tierLists[tier] {
			e := strings.ToLower(entry)
			if strings.Contains(folded, e) || strings.Contains(e, folded) {
				return tier
			}
		}
	}
	return TierNone
}

// TierOther keys unclassified papers in Categorize results.
const TierOther Tier = "other"

// Categorize groups papers by journal tier. Unclassified journals land
// under TierOther. Only non-empty buckets appear in the result.
func Categorize(papers []types.Paper) map[Tier][]types.Paper {
	grouped := make(map[Tier][]types.Paper)
	for _, p := range papers {
		tier := Classify(p.Journal).Tier
		if tier == TierNone {
			tier = TierOther
		}
		grouped[tier] = append(grouped[tier], p)
	}
	return grouped
}

// PreprintSplit is the two-bucket grouping of papers.
type PreprintSplit struct {
	Journals  []types.Paper
	Preprints []types.Paper
}

// CategorizeByPreprint splits papers into preprints and everything else.
func CategorizeByPreprint(papers []types.Paper) PreprintSplit {
	var split PreprintSplit
	for _, p := range papers {
		if Classify(p.Journal).IsPreprint() {
			split.Preprints = append(split.Preprints, p)
		} else {
			split.Journals = append(split.Journals, p)
		}
	}
	return split
}

// Filter applies the configured journal policy and returns the papers
// that pass along with the exclusion list that was applied.
func Filter(papers []types.Paper, cfg types.JournalConfig) ([]types.Paper, []string) {
	if cfg.Policy == types.PolicyIncludeGated {
		return filterIncludeGated(papers, cfg)
	}
	return FilterExcluded(papers, cfg.Exclude)
}

// FilterExcluded keeps every paper whose journal matches nothing on the
// exclude list. Matching is case-folded and substring-based in both
// directions. The applied exclusion list is echoed back.
func FilterExcluded(papers []types.Paper, exclude []string) ([]types.Paper, []string) {
	if len(papers) == 0 {
		return nil, nil
	}

	excluded := foldSet(exclude)
	filtered := make([]types.Paper, 0, len(papers))
	for _, p := range papers {
		if matchesAny(strings.ToLower(p.Journal), excluded) {
			continue
		}
		filtered = append(filtered, p)
	}
	return filtered, exclude
}

// filterIncludeGated keeps only papers admitted by the configured tiers,
// include list, or preprint flag, then subtracts exclusions.
func filterIncludeGated(papers []types.Paper, cfg types.JournalConfig) ([]types.Paper, []string) {
	if len(papers) == 0 {
		return nil, nil
	}

	allowed := allowedJournals(cfg)
	excluded := foldSet(cfg.Exclude)

	filtered := make([]types.Paper, 0, len(papers))
	for _, p := range papers {
		folded := strings.ToLower(p.Journal)
		if !matchesAny(folded, allowed) {
			continue
		}
		if matchesAny(folded, excluded) {
			continue
		}
		filtered = append(filtered, p)
	}
	return filtered, cfg.Exclude
}

// allowedJournals expands the configured tiers, include list, and
// preprint flag into one case-folded set.
func allowedJournals(cfg types.JournalConfig) map[string]struct{} {
	allowed := foldSet(cfg.Include)
	for _, tier := range cfg.Tiers {
		var t Tier
		switch strings.ToLower(tier) {
		case "tier1":
			t = Tier1
		case "tier2":
			t = Tier2
		case "ml", "ml-focused":
			t = TierML
		default:
			continue
		}
		for _, entry := range tierLists[t] {
			allowed[strings.ToLower(entry)] = struct{}{}
		}
	}
	if cfg.ShowPreprints {
		for _, entry := range tierLists[TierPreprint] {
			allowed[strings.ToLower(entry)] = struct{}{}
		}
	}
	return allowed
}

func foldSet(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[strings.ToLower(n)] = struct{}{}
	}
	return set
}

// matchesAny reports whether journal matches any set entry exactly or by
// substring containment in either direction.
func matchesAny(journal string, set map[string]struct{}) bool {
	if _, ok := set[journal]; ok {
		return true
	}
	for entry := range set {
		if strings.Contains(journal, entry) || strings.Contains(entry, journal) {
			return true
		}
	}
	return false
}
