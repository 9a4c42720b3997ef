// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pdiddy/paperbot/internal/httputil"
	"github.com/pdiddy/paperbot/pkg/types"
)

// arxivAPIBase is the arXiv Atom query endpoint. Variable so tests can
// point it at a local server.
var arxivAPIBase = "http://export.arxiv.org/api/query"

// Arxiv fetches preprints from the arXiv Atom API, newest submissions
// first. The API has no server-side date filter, so the recency window
// is applied client-side.
type Arxiv struct {
	client *httputil.Client
}

// NewArxiv returns an Arxiv fetcher.
func NewArxiv(client *httputil.Client) *Arxiv {
	return &Arxiv{client: client}
}

func (a *Arxiv) Name() string { return "arxiv" }

// Fetch searches for any of the keywords and keeps papers published in
// the last daysBack days.
func (a *Arxiv) Fetch(ctx context.Context, keywords []string, daysBack, max int) ([]types.Paper, error) {
	terms := make([]string, len(keywords))
	for i, kw := range keywords {
		terms[i] = fmt.Sprintf("all:%q", kw)
	}
	papers, err := a.query(ctx, strings.Join(terms, " OR "), max)
	if err != nil {
		return nil, err
	}
	if daysBack > 0 {
		papers = filterByCutoff(papers, time.Now().AddDate(0, 0, -daysBack))
	}
	return papers, nil
}

// Search runs a query in arXiv syntax. Queries without a field prefix
// get all: prepended.
func (a *Arxiv) Search(ctx context.Context, query string, max int) ([]types.Paper, error) {
	if !hasArxivPrefix(query) {
		query = "all:" + query
	}
	return a.query(ctx, query, max)
}

func hasArxivPrefix(query string) bool {
	for _, prefix := range []string{"all:", "ti:", "au:", "abs:", "cat:"} {
		if strings.Contains(query, prefix) {
			return true
		}
	}
	return false
}

type arxivFeed struct {
	Entries []arxivEntry `xml:"entry"`
}

type arxivEntry struct {
	ID        string `xml:"id"`
	Title     string `xml:"title"`
	Summary   string `xml:"summary"`
	Published string `xml:"published"`
	Authors   []struct {
		Name string `xml:"name"`
	} `xml:"author"`
	Links []struct {
		Href string `xml:"href,attr"`
		Type string `xml:"type,attr"`
	} `xml:"link"`
	PrimaryCategory struct {
		Term string `xml:"term,attr"`
	} `xml:"primary_category"`
}

func (a *Arxiv) query(ctx context.Context, query string, max int) ([]types.Paper, error) {
	params := url.Values{}
	params.Set("search_query", query)
	params.Set("start", "0")
	params.Set("max_results", strconv.Itoa(max))
	params.Set("sortBy", "submittedDate")
	params.Set("sortOrder", "descending")

	resp, err := a.client.Get(ctx, arxivAPIBase+"?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("arxiv fetch: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("arxiv fetch: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading arxiv response: %w", err)
	}

	var feed arxivFeed
	if err := xml.Unmarshal(body, &feed); err != nil {
		return nil, fmt.Errorf("parsing arxiv xml: %w", err)
	}

	papers := make([]types.Paper, 0, len(feed.Entries))
	for _, e := range feed.Entries {
		papers = append(papers, entryToPaper(e))
	}
	return papers, nil
}

func entryToPaper(e arxivEntry) types.Paper {
	var authors []string
	for _, au := range e.Authors {
		if au.Name != "" {
			authors = append(authors, au.Name)
		}
	}

	pageURL := ""
	for _, link := range e.Links {
		if link.Type == "text/html" {
			pageURL = link.Href
			break
		}
	}
	if pageURL == "" {
		pageURL = e.ID
	}

	// The abs URL carries the arXiv identifier; DOIs follow the DataCite
	// scheme for arXiv.
	var doi string
	if idx := strings.Index(pageURL, "/abs/"); idx >= 0 {
		doi = "10.48550/arXiv." + pageURL[idx+len("/abs/"):]
	}

	journal := "arXiv"
	if e.PrimaryCategory.Term != "" {
		journal = fmt.Sprintf("arXiv [%s]", e.PrimaryCategory.Term)
	}

	pubDate := e.Published
	if len(pubDate) > 10 {
		pubDate = pubDate[:10]
	}

	return types.Paper{
		Title:           collapseWhitespace(e.Title),
		Authors:         authors,
		Abstract:        collapseWhitespace(e.Summary),
		DOI:             doi,
		Journal:         journal,
		PublicationDate: pubDate,
		URL:             pageURL,
		Source:          "arxiv",
	}
}

// collapseWhitespace flattens the newline-wrapped text arXiv returns.
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func filterByCutoff(papers []types.Paper, cutoff time.Time) []types.Paper {
	kept := make([]types.Paper, 0, len(papers))
	for _, p := range papers {
		t, err := time.Parse("2006-01-02", p.PublicationDate)
		if err != nil {
			continue
		}
		if !t.Before(cutoff.Truncate(24 * time.Hour)) {
			kept = append(kept, p)
		}
	}
	return kept
}
