// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"path/filepath"
	"testing"

	"github.com/pdiddy/paperbot/pkg/types"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "papers.db"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func samplePaper() types.Paper {
	score := 87.5
	return types.Paper{
		Title:                "CRISPR screening in organoids",
		Authors:              []string{"Ada Smith", "Bo Chen"},
		Abstract:             "A pooled screen.",
		DOI:                  "10.1038/test-0001",
		Journal:              "Nature",
		PublicationDate:      "2026-05-01",
		URL:                  "https://doi.org/10.1038/test-0001",
		Source:               "pubmed",
		RelevanceScore:       &score,
		RelevanceExplanation: "novel method",
	}
}

func TestSavePaperRoundTrip(t *testing.T) {
	s := newTestStore(t)

	id, err := s.SavePaper(samplePaper())
	if err != nil {
		t.Fatalf("SavePaper: %v", err)
	}
	if id == 0 {
		t.Fatal("id = 0, want a real row id")
	}

	got, err := s.PaperByDOI("10.1038/test-0001")
	if err != nil {
		t.Fatalf("PaperByDOI: %v", err)
	}
	if got == nil {
		t.Fatal("paper not found")
	}
	if got.Title != "CRISPR screening in organoids" {
		t.Errorf("Title = %q", got.Title)
	}
	if len(got.Authors) != 2 || got.Authors[1] != "Bo Chen" {
		t.Errorf("Authors = %v", got.Authors)
	}
	if !got.Scored() || got.Score() != 87.5 {
		t.Errorf("Score = %v, want 87.5", got.Score())
	}
	if got.CreatedAt == "" {
		t.Error("CreatedAt should be set")
	}
}

func TestSavePaperSkipsEmptyTitle(t *testing.T) {
	s := newTestStore(t)

	p := samplePaper()
	p.Title = "   "
	id, err := s.SavePaper(p)
	if err != nil {
		t.Fatalf("SavePaper: %v", err)
	}
	if id != 0 {
		t.Errorf("id = %d, want 0 for a skipped paper", id)
	}

	exists, err := s.PaperExists(p.DOI)
	if err != nil {
		t.Fatalf("PaperExists: %v", err)
	}
	if exists {
		t.Error("skipped paper should not be stored")
	}
}

func TestSavePaperFirstWriteWins(t *testing.T) {
	s := newTestStore(t)

	first := samplePaper()
	id1, err := s.SavePaper(first)
	if err != nil {
		t.Fatalf("SavePaper: %v", err)
	}

	second := samplePaper()
	second.Title = "A different title, same DOI"
	id2, err := s.SavePaper(second)
	if err != nil {
		t.Fatalf("SavePaper duplicate: %v", err)
	}
	if id2 != id1 {
		t.Errorf("id2 = %d, want the existing id %d", id2, id1)
	}

	got, err := s.PaperByDOI(first.DOI)
	if err != nil {
		t.Fatalf("PaperByDOI: %v", err)
	}
	if got.Title != first.Title {
		t.Errorf("Title = %q, want the first write kept", got.Title)
	}
}

func TestSavePaperWithoutDOI(t *testing.T) {
	s := newTestStore(t)

	p := samplePaper()
	p.DOI = ""
	id1, err := s.SavePaper(p)
	if err != nil {
		t.Fatalf("SavePaper: %v", err)
	}
	id2, err := s.SavePaper(p)
	if err != nil {
		t.Fatalf("SavePaper again: %v", err)
	}
	if id1 == 0 || id2 == 0 || id1 == id2 {
		t.Errorf("ids = %d, %d; papers without DOI should insert separately", id1, id2)
	}
}

func TestExistingDOIs(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.SavePaper(samplePaper()); err != nil {
		t.Fatalf("SavePaper: %v", err)
	}

	got, err := s.ExistingDOIs([]string{"10.1038/test-0001", "10.1038/unknown"})
	if err != nil {
		t.Fatalf("ExistingDOIs: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("len(got) = %d, want 1", len(got))
	}
	if _, ok := got["10.1038/test-0001"]; !ok {
		t.Errorf("got = %v, want the stored DOI", got)
	}
}

func TestExistingDOIsEmptyInput(t *testing.T) {
	s := newTestStore(t)
	got, err := s.ExistingDOIs(nil)
	if err != nil {
		t.Fatalf("ExistingDOIs: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got = %v, want empty", got)
	}
}

func TestRecentPapers(t *testing.T) {
	s := newTestStore(t)

	p1 := samplePaper()
	p2 := samplePaper()
	p2.DOI = "10.1101/test-0002"
	p2.Source = "biorxiv"
	if _, err := s.SavePapers([]types.Paper{p1, p2}); err != nil {
		t.Fatalf("SavePapers: %v", err)
	}

	all, err := s.RecentPapers(1, "")
	if err != nil {
		t.Fatalf("RecentPapers: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("len(all) = %d, want 2", len(all))
	}

	biorxiv, err := s.RecentPapers(1, "biorxiv")
	if err != nil {
		t.Fatalf("RecentPapers(source): %v", err)
	}
	if len(biorxiv) != 1 || biorxiv[0].Source != "biorxiv" {
		t.Errorf("biorxiv = %v, want only the biorxiv paper", biorxiv)
	}
}

func TestSearchPapers(t *testing.T) {
	s := newTestStore(t)

	p1 := samplePaper()
	p2 := samplePaper()
	p2.DOI = "10.1101/test-0002"
	p2.Title = "Protein folding dynamics"
	p2.Abstract = "Simulations of misfolding."
	if _, err := s.SavePapers([]types.Paper{p1, p2}); err != nil {
		t.Fatalf("SavePapers: %v", err)
	}

	got, err := s.SearchPapers("folding", 10)
	if err != nil {
		t.Fatalf("SearchPapers: %v", err)
	}
	if len(got) != 1 || got[0].Title != "Protein folding dynamics" {
		t.Errorf("got = %v, want the folding paper", got)
	}
}

func TestCleanupOldPapers(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.SavePaper(samplePaper()); err != nil {
		t.Fatalf("SavePaper: %v", err)
	}

	// Nothing is older than a day yet.
	removed, err := s.CleanupOldPapers(1)
	if err != nil {
		t.Fatalf("CleanupOldPapers: %v", err)
	}
	if removed != 0 {
		t.Errorf("removed = %d, want 0", removed)
	}

	// A negative window puts the cutoff in the future and removes
	// everything.
	removed, err = s.CleanupOldPapers(-1)
	if err != nil {
		t.Fatalf("CleanupOldPapers(-1): %v", err)
	}
	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}
}

func TestSearchHistoryRoundTrip(t *testing.T) {
	s := newTestStore(t)

	_, err := s.SaveSearchQuery(types.SearchQuery{
		Query: "crispr", Filters: `{"sources":["pubmed"]}`, ResultCount: 3, Requester: "U123",
	})
	if err != nil {
		t.Fatalf("SaveSearchQuery: %v", err)
	}
	if _, err := s.SaveSearchQuery(types.SearchQuery{Query: "folding", ResultCount: 1, Requester: "U456"}); err != nil {
		t.Fatalf("SaveSearchQuery: %v", err)
	}

	all, err := s.SearchHistory("", 10)
	if err != nil {
		t.Fatalf("SearchHistory: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("len(all) = %d, want 2", len(all))
	}
	// Newest first.
	if all[0].Query != "folding" {
		t.Errorf("all[0].Query = %q, want folding first", all[0].Query)
	}

	mine, err := s.SearchHistory("U123", 10)
	if err != nil {
		t.Fatalf("SearchHistory(requester): %v", err)
	}
	if len(mine) != 1 || mine[0].Query != "crispr" {
		t.Errorf("mine = %v, want only U123's search", mine)
	}
	if mine[0].Filters != `{"sources":["pubmed"]}` {
		t.Errorf("Filters = %q", mine[0].Filters)
	}
}

func TestUserPreferenceUpsert(t *testing.T) {
	s := newTestStore(t)

	if err := s.SaveUserPreference(types.UserPreference{
		UserID:             "U123",
		PreferredJournals:  []string{"Nature"},
		SubscribedKeywords: []string{"crispr"},
	}); err != nil {
		t.Fatalf("SaveUserPreference: %v", err)
	}

	if err := s.SaveUserPreference(types.UserPreference{
		UserID:             "U123",
		PreferredJournals:  []string{"Nature", "Cell"},
		SubscribedKeywords: []string{"crispr", "organoids"},
	}); err != nil {
		t.Fatalf("SaveUserPreference update: %v", err)
	}

	got, err := s.UserPreference("U123")
	if err != nil {
		t.Fatalf("UserPreference: %v", err)
	}
	if got == nil {
		t.Fatal("preference not found")
	}
	if len(got.PreferredJournals) != 2 || got.PreferredJournals[1] != "Cell" {
		t.Errorf("PreferredJournals = %v, want the updated list", got.PreferredJournals)
	}

	missing, err := s.UserPreference("U999")
	if err != nil {
		t.Fatalf("UserPreference(missing): %v", err)
	}
	if missing != nil {
		t.Errorf("missing = %v, want nil", missing)
	}
}
