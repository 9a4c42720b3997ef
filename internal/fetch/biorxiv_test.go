// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pdiddy/paperbot/internal/httputil"
)

const biorxivPageJSON = `{
	"messages": [{"status": "ok"}],
	"collection": [
		{
			"title": "Spatial transcriptomics of the zebrafish brain",
			"authors": "Smith, A.; Chen, B.; Diaz, C.",
			"abstract": "We map gene expression across the zebrafish brain.",
			"doi": "10.1101/2026.06.01.123456",
			"date": "2026-06-01"
		},
		{
			"title": "Protein folding dynamics",
			"authors": "Evans, D.",
			"abstract": "Molecular dynamics simulations of folding.",
			"doi": "10.1101/2026.06.02.654321",
			"date": "2026-06-02"
		}
	]
}`

func newBiorxivServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	old := biorxivAPIBase
	biorxivAPIBase = ts.URL
	t.Cleanup(func() { biorxivAPIBase = old })
	return ts
}

func TestBioRxivFetchFiltersKeywords(t *testing.T) {
	ts := newBiorxivServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(biorxivPageJSON))
	})

	b := NewBioRxiv(httputil.NewTestClient(ts.Client()))
	papers, err := b.Fetch(context.Background(), []string{"zebrafish"}, 7, 10)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(papers) != 1 {
		t.Fatalf("len(papers) = %d, want 1", len(papers))
	}

	got := papers[0]
	if got.Title != "Spatial transcriptomics of the zebrafish brain" {
		t.Errorf("Title = %q", got.Title)
	}
	if got.Journal != "bioRxiv" {
		t.Errorf("Journal = %q, want bioRxiv", got.Journal)
	}
	if got.URL != "https://doi.org/10.1101/2026.06.01.123456" {
		t.Errorf("URL = %q, want a doi.org link", got.URL)
	}
	if got.Source != "biorxiv" {
		t.Errorf("Source = %q, want biorxiv", got.Source)
	}
	if len(got.Authors) != 3 || got.Authors[0] != "Smith, A." {
		t.Errorf("Authors = %v, want the semicolon-split list", got.Authors)
	}
}

func TestBioRxivFetchNoKeywordsKeepsAll(t *testing.T) {
	ts := newBiorxivServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(biorxivPageJSON))
	})

	b := NewBioRxiv(httputil.NewTestClient(ts.Client()))
	papers, err := b.Fetch(context.Background(), nil, 7, 10)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(papers) != 2 {
		t.Errorf("len(papers) = %d, want 2", len(papers))
	}
}

func TestBioRxivFetchStopsOnNoPosts(t *testing.T) {
	var calls int
	ts := newBiorxivServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte(`{"messages": [{"status": "no posts found"}], "collection": []}`))
	})

	b := NewBioRxiv(httputil.NewTestClient(ts.Client()))
	papers, err := b.Fetch(context.Background(), []string{"anything"}, 1, 10)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(papers) != 0 {
		t.Errorf("len(papers) = %d, want 0", len(papers))
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestBioRxivFetchPaginates(t *testing.T) {
	var cursors []string
	ts := newBiorxivServer(t, func(w http.ResponseWriter, r *http.Request) {
		// Path is /{from}/{to}/{cursor}.
		parts := r.URL.Path
		cursors = append(cursors, parts[len(parts)-1:])

		if len(cursors) == 1 {
			// Full page of 100 filler items forces a second request.
			fmt.Fprint(w, `{"messages": [{"status": "ok"}], "collection": [`)
			for i := 0; i < 100; i++ {
				if i > 0 {
					fmt.Fprint(w, ",")
				}
				fmt.Fprintf(w, `{"title": "filler %d", "authors": "X", "abstract": "none", "doi": "10.1101/f%d", "date": "2026-06-01"}`, i, i)
			}
			fmt.Fprint(w, `]}`)
			return
		}
		w.Write([]byte(`{"messages": [{"status": "ok"}], "collection": []}`))
	})

	b := NewBioRxiv(httputil.NewTestClient(ts.Client()))
	papers, err := b.Fetch(context.Background(), []string{"zebrafish"}, 1, 10)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(papers) != 0 {
		t.Errorf("len(papers) = %d, want 0 matches among filler", len(papers))
	}
	if len(cursors) != 2 {
		t.Fatalf("requests = %d, want 2 (pagination)", len(cursors))
	}
}

func TestBioRxivFetchStopsAtMax(t *testing.T) {
	ts := newBiorxivServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(biorxivPageJSON))
	})

	b := NewBioRxiv(httputil.NewTestClient(ts.Client()))
	papers, err := b.Fetch(context.Background(), nil, 7, 1)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(papers) != 1 {
		t.Errorf("len(papers) = %d, want max 1", len(papers))
	}
}

func TestBioRxivSearchKeywords(t *testing.T) {
	tests := []struct {
		query string
		want  []string
	}{
		{"crispr AND genomics", []string{"crispr", "genomics"}},
		{"genomics OR proteomics", []string{"genomics", "proteomics"}},
		{"crispr NOT review", []string{"crispr"}},
		{`"machine learning" AND genomics`, []string{"machine learning", "genomics"}},
		{"CRISPR", []string{"crispr"}},
		{`"unterminated phrase`, []string{"unterminated", "phrase"}},
		{"NOT review", nil},
	}
	for _, tt := range tests {
		got := searchKeywords(tt.query)
		if len(got) != len(tt.want) {
			t.Errorf("searchKeywords(%q) = %v, want %v", tt.query, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("searchKeywords(%q) = %v, want %v", tt.query, got, tt.want)
				break
			}
		}
	}
}
