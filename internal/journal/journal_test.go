// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package journal

import (
	"reflect"
	"testing"

	"github.com/pdiddy/paperbot/pkg/types"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		journal  string
		wantTier Tier
	}{
		{"tier1 exact", "Nature", Tier1},
		{"tier1 case insensitive", "SCIENCE", Tier1},
		{"tier2 exact", "Nature Methods", Tier2},
		{"ml venue", "NeurIPS", TierML},
		{"preprint server", "bioRxiv", TierPreprint},
		{"preprint case folded", "ARXIV", TierPreprint},
		{"unknown journal", "Journal of Obscure Results", TierNone},
		{"empty", "", TierNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.journal)
			if got.Tier != tt.wantTier {
				t.Errorf("Classify(%q).Tier = %q, want %q", tt.journal, got.Tier, tt.wantTier)
			}
		})
	}
}

func TestClassifyAlias(t *testing.T) {
	info := Classify("nejm")
	if info.NormalizedName != "The New England Journal of Medicine" {
		t.Errorf("NormalizedName = %q, want the full NEJM name", info.NormalizedName)
	}
	if info.Tier != Tier1 {
		t.Errorf("Tier = %q, want tier1", info.Tier)
	}
}

func TestClassifyExactBeatsSubstring(t *testing.T) {
	// "Nature Methods" contains "Nature" but the exact tier2 entry wins.
	if got := Classify("Nature Methods").Tier; got != Tier2 {
		t.Errorf("Tier = %q, want tier2", got)
	}
}

func TestClassifyEmoji(t *testing.T) {
	if got := Classify("Nature").Emoji; got != "🏆" {
		t.Errorf("Emoji = %q, want 🏆", got)
	}
	if got := Classify("Unknown Journal").Emoji; got != "📰" {
		t.Errorf("Emoji = %q, want 📰", got)
	}
}

func TestIsPreprint(t *testing.T) {
	if !Classify("medRxiv").IsPreprint() {
		t.Error("medRxiv should be a preprint")
	}
	if Classify("Cell").IsPreprint() {
		t.Error("Cell should not be a preprint")
	}
}

func TestCategorize(t *testing.T) {
	papers := []types.Paper{
		{Title: "a", Journal: "Nature"},
		{Title: "b", Journal: "bioRxiv"},
		{Title: "c", Journal: "Unknown Weekly"},
		{Title: "d", Journal: "Science"},
	}

	grouped := Categorize(papers)
	if len(grouped[Tier1]) != 2 {
		t.Errorf("tier1 count = %d, want 2", len(grouped[Tier1]))
	}
	if len(grouped[TierPreprint]) != 1 {
		t.Errorf("preprint count = %d, want 1", len(grouped[TierPreprint]))
	}
	if len(grouped[TierOther]) != 1 {
		t.Errorf("other count = %d, want 1", len(grouped[TierOther]))
	}
	if _, ok := grouped[Tier2]; ok {
		t.Error("empty buckets should not appear")
	}
}

func TestCategorizeByPreprint(t *testing.T) {
	papers := []types.Paper{
		{Title: "a", Journal: "Nature"},
		{Title: "b", Journal: "arXiv [cs.LG]"},
		{Title: "c", Journal: "eLife"},
	}

	split := CategorizeByPreprint(papers)
	if len(split.Preprints) != 1 || split.Preprints[0].Title != "b" {
		t.Errorf("Preprints = %v, want just b", split.Preprints)
	}
	if len(split.Journals) != 2 {
		t.Errorf("Journals count = %d, want 2", len(split.Journals))
	}
}

func TestFilterExcluded(t *testing.T) {
	papers := []types.Paper{
		{Title: "a", Journal: "Nature"},
		{Title: "b", Journal: "Predatory Reports"},
		{Title: "c", Journal: "Cell"},
	}

	filtered, applied := FilterExcluded(papers, []string{"Predatory Reports"})
	if len(filtered) != 2 {
		t.Fatalf("len(filtered) = %d, want 2", len(filtered))
	}
	if !reflect.DeepEqual(applied, []string{"Predatory Reports"}) {
		t.Errorf("applied = %v, want the exclusion list echoed back", applied)
	}
}

func TestFilterExcludedSubstring(t *testing.T) {
	papers := []types.Paper{
		{Title: "a", Journal: "International Journal of Predatory Reports"},
		{Title: "b", Journal: "Nature"},
	}

	filtered, _ := FilterExcluded(papers, []string{"predatory"})
	if len(filtered) != 1 || filtered[0].Title != "b" {
		t.Errorf("filtered = %v, want only Nature paper", filtered)
	}
}

func TestFilterExcludedEmptyInput(t *testing.T) {
	filtered, applied := FilterExcluded(nil, []string{"anything"})
	if filtered != nil || applied != nil {
		t.Errorf("got (%v, %v), want (nil, nil)", filtered, applied)
	}
}

func TestFilterDefaultPolicyIsExcludeOnly(t *testing.T) {
	papers := []types.Paper{
		{Title: "a", Journal: "Totally Unknown Journal"},
		{Title: "b", Journal: "Bad Venue"},
	}
	cfg := types.JournalConfig{Exclude: []string{"Bad Venue"}}

	filtered, _ := Filter(papers, cfg)
	if len(filtered) != 1 || filtered[0].Title != "a" {
		t.Errorf("filtered = %v, want unknown journal kept under exclude-only", filtered)
	}
}

func TestFilterIncludeGated(t *testing.T) {
	papers := []types.Paper{
		{Title: "a", Journal: "Nature"},
		{Title: "b", Journal: "Unknown Weekly"},
		{Title: "c", Journal: "bioRxiv"},
		{Title: "d", Journal: "My Favorite Journal"},
		{Title: "e", Journal: "Science"},
	}
	cfg := types.JournalConfig{
		Policy:        types.PolicyIncludeGated,
		Tiers:         []string{"tier1"},
		Include:       []string{"My Favorite Journal"},
		Exclude:       []string{"Science"},
		ShowPreprints: true,
	}

	filtered, _ := Filter(papers, cfg)
	titles := make([]string, len(filtered))
	for i, p := range filtered {
		titles[i] = p.Title
	}
	want := []string{"a", "c", "d"}
	if !reflect.DeepEqual(titles, want) {
		t.Errorf("titles = %v, want %v", titles, want)
	}
}
