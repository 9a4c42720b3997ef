// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/pdiddy/paperbot/internal/httputil"
	"github.com/pdiddy/paperbot/pkg/types"
)

// biorxivAPIBase is the bioRxiv details endpoint. Variable so tests can
// point it at a local server.
var biorxivAPIBase = "https://api.biorxiv.org/details/biorxiv"

// biorxivPageSize is the fixed page size of the details endpoint.
const biorxivPageSize = 100

// BioRxiv fetches preprints from the bioRxiv details API. The API has
// no search endpoint, so keyword matching happens client-side over a
// date window.
type BioRxiv struct {
	client *httputil.Client
}

// NewBioRxiv returns a BioRxiv fetcher.
func NewBioRxiv(client *httputil.Client) *BioRxiv {
	return &BioRxiv{client: client}
}

func (b *BioRxiv) Name() string { return "biorxiv" }

type biorxivResponse struct {
	Messages []struct {
		Status string `json:"status"`
	} `json:"messages"`
	Collection []struct {
		Title    string `json:"title"`
		Authors  string `json:"authors"`
		Abstract string `json:"abstract"`
		DOI      string `json:"doi"`
		Date     string `json:"date"`
	} `json:"collection"`
}

// Fetch pages through the date window and keeps papers whose title or
// abstract contains any keyword. An empty keyword list keeps everything.
func (b *BioRxiv) Fetch(ctx context.Context, keywords []string, daysBack, max int) ([]types.Paper, error) {
	now := time.Now()
	from := now.AddDate(0, 0, -daysBack).Format("2006-01-02")
	to := now.Format("2006-01-02")

	var papers []types.Paper
	cursor := 0

	for len(papers) < max {
		page, err := b.fetchPage(ctx, from, to, cursor)
		if err != nil {
			return nil, err
		}
		if len(page.Messages) > 0 && strings.Contains(strings.ToLower(page.Messages[0].Status), "no posts") {
			break
		}
		if len(page.Collection) == 0 {
			break
		}

		for _, item := range page.Collection {
			paper := types.Paper{
				Title:           item.Title,
				Authors:         splitAuthors(item.Authors),
				Abstract:        item.Abstract,
				DOI:             item.DOI,
				Journal:         "bioRxiv",
				PublicationDate: item.Date,
				Source:          "biorxiv",
			}
			if item.DOI != "" {
				paper.URL = "https://doi.org/" + item.DOI
			}
			if matchesKeywords(paper, keywords) {
				papers = append(papers, paper)
				if len(papers) >= max {
					break
				}
			}
		}

		cursor += len(page.Collection)
		if len(page.Collection) < biorxivPageSize {
			break
		}
	}
	return papers, nil
}

// Search tokenizes the query into keywords and scans the last 30 days.
func (b *BioRxiv) Search(ctx context.Context, query string, max int) ([]types.Paper, error) {
	return b.Fetch(ctx, searchKeywords(query), 30, max)
}

// searchKeywords reduces a boolean query to plain keywords for
// client-side matching: quoted phrases stay whole, operator tokens and
// negated terms are dropped. Full boolean semantics are applied
// downstream.
func searchKeywords(query string) []string {
	query = strings.ToLower(query)

	var keywords []string
	for {
		start := strings.Index(query, `"`)
		if start < 0 {
			break
		}
		rest := query[start+1:]
		end := strings.Index(rest, `"`)
		if end < 0 {
			query = query[:start] + " " + rest
			break
		}
		if phrase := strings.TrimSpace(rest[:end]); phrase != "" {
			keywords = append(keywords, phrase)
		}
		query = query[:start] + " " + rest[end+1:]
	}

	skipNext := false
	for _, tok := range strings.Fields(query) {
		switch tok {
		case "and", "or":
			continue
		case "not":
			skipNext = true
			continue
		}
		if skipNext {
			skipNext = false
			continue
		}
		keywords = append(keywords, tok)
	}
	return keywords
}

func (b *BioRxiv) fetchPage(ctx context.Context, from, to string, cursor int) (*biorxivResponse, error) {
	url := fmt.Sprintf("%s/%s/%s/%d", biorxivAPIBase, from, to, cursor)
	resp, err := b.client.Get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("biorxiv fetch: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("biorxiv fetch: status %d", resp.StatusCode)
	}

	var page biorxivResponse
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("decoding biorxiv response: %w", err)
	}
	return &page, nil
}

// splitAuthors splits the semicolon-delimited author string the API
// returns.
func splitAuthors(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, "; ")
	authors := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			authors = append(authors, p)
		}
	}
	return authors
}

func matchesKeywords(p types.Paper, keywords []string) bool {
	if len(keywords) == 0 {
		return true
	}
	text := strings.ToLower(p.Title + " " + p.Abstract)
	for _, kw := range keywords {
		if strings.Contains(text, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}
