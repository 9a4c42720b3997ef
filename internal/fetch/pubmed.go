// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"context"
	"encoding/json"
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

// pubmedAPIBase is the NCBI E-utilities endpoint. Variable so tests can
// point it at a local server.
var pubmedAPIBase = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils"

// PubMed fetches papers through the NCBI E-utilities API: esearch for
// PMIDs, efetch for article details. An API key raises the rate limit.
type PubMed struct {
	client *httputil.Client
	apiKey string
}

// NewPubMed returns a PubMed fetcher. apiKey may be empty.
func NewPubMed(client *httputil.Client, apiKey string) *PubMed {
	return &PubMed{client: client, apiKey: apiKey}
}

func (p *PubMed) Name() string { return "pubmed" }

// Fetch searches for any of the keywords restricted to the last
// daysBack days of publication dates.
func (p *PubMed) Fetch(ctx context.Context, keywords []string, daysBack, max int) ([]types.Paper, error) {
	quoted := make([]string, len(keywords))
	for i, kw := range keywords {
		quoted[i] = fmt.Sprintf("%q", kw)
	}
	query := strings.Join(quoted, " OR ")

	if daysBack > 0 {
		now := time.Now()
		from := now.AddDate(0, 0, -daysBack).Format("2006/01/02")
		to := now.Format("2006/01/02")
		query = fmt.Sprintf("(%s) AND (%s[PDAT] : %s[PDAT])", query, from, to)
	}
	return p.run(ctx, query, max)
}

// Search runs a free-form PubMed term query without a date window.
func (p *PubMed) Search(ctx context.Context, query string, max int) ([]types.Paper, error) {
	return p.run(ctx, query, max)
}

func (p *PubMed) run(ctx context.Context, query string, max int) ([]types.Paper, error) {
	pmids, err := p.searchPMIDs(ctx, query, max)
	if err != nil {
		return nil, err
	}
	if len(pmids) == 0 {
		return nil, nil
	}
	return p.fetchDetails(ctx, pmids)
}

func (p *PubMed) searchPMIDs(ctx context.Context, query string, max int) ([]string, error) {
	params := url.Values{}
	params.Set("db", "pubmed")
	params.Set("term", query)
	params.Set("retmax", strconv.Itoa(max))
	params.Set("retmode", "json")
	params.Set("sort", "pub_date")
	if p.apiKey != "" {
		params.Set("api_key", p.apiKey)
	}

	resp, err := p.client.Get(ctx, pubmedAPIBase+"/esearch.fcgi?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("pubmed search: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("pubmed search: status %d", resp.StatusCode)
	}

	var result struct {
		ESearchResult struct {
			IDList []string `json:"idlist"`
		} `json:"esearchresult"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding pubmed search response: %w", err)
	}
	return result.ESearchResult.IDList, nil
}

func (p *PubMed) fetchDetails(ctx context.Context, pmids []string) ([]types.Paper, error) {
	params := url.Values{}
	params.Set("db", "pubmed")
	params.Set("id", strings.Join(pmids, ","))
	params.Set("retmode", "xml")
	if p.apiKey != "" {
		params.Set("api_key", p.apiKey)
	}

	resp, err := p.client.Get(ctx, pubmedAPIBase+"/efetch.fcgi?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("pubmed fetch: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("pubmed fetch: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading pubmed response: %w", err)
	}
	return parsePubmedXML(body)
}

// pubmedArticleSet mirrors the slice of the efetch XML we consume.
type pubmedArticleSet struct {
	Articles []pubmedArticle `xml:"PubmedArticle"`
}

type pubmedArticle struct {
	Citation struct {
		PMID    string `xml:"PMID"`
		Article struct {
			Title    string `xml:"ArticleTitle"`
			Abstract struct {
				Text []string `xml:"AbstractText"`
			} `xml:"Abstract"`
			Journal struct {
				Title string `xml:"Title"`
				Issue struct {
					PubDate struct {
						Year  string `xml:"Year"`
						Month string `xml:"Month"`
						Day   string `xml:"Day"`
					} `xml:"PubDate"`
				} `xml:"JournalIssue"`
			} `xml:"Journal"`
			Authors []struct {
				LastName string `xml:"LastName"`
				ForeName string `xml:"ForeName"`
			} `xml:"AuthorList>Author"`
		} `xml:"Article"`
	} `xml:"MedlineCitation"`
	IDs []struct {
		Type  string `xml:"IdType,attr"`
		Value string `xml:",chardata"`
	} `xml:"PubmedData>ArticleIdList>ArticleId"`
}

func parsePubmedXML(body []byte) ([]types.Paper, error) {
	var set pubmedArticleSet
	if err := xml.Unmarshal(body, &set); err != nil {
		return nil, fmt.Errorf("parsing pubmed xml: %w", err)
	}

	papers := make([]types.Paper, 0, len(set.Articles))
	for _, a := range set.Articles {
		art := a.Citation.Article

		var authors []string
		for _, au := range art.Authors {
			if au.LastName == "" {
				continue
			}
			name := au.LastName
			if au.ForeName != "" {
				name = au.ForeName + " " + name
			}
			authors = append(authors, name)
		}

		pd := art.Journal.Issue.PubDate
		pubDate := pd.Year
		if pubDate != "" && pd.Month != "" {
			pubDate += "-" + pd.Month
			if pd.Day != "" {
				pubDate += "-" + pd.Day
			}
		}

		var doi string
		for _, id := range a.IDs {
			if id.Type == "doi" {
				doi = strings.TrimSpace(id.Value)
				break
			}
		}

		var pageURL string
		if a.Citation.PMID != "" {
			pageURL = fmt.Sprintf("https://pubmed.ncbi.nlm.nih.gov/%s/", a.Citation.PMID)
		}

		papers = append(papers, types.Paper{
			Title:           strings.TrimSpace(art.Title),
			Authors:         authors,
			Abstract:        strings.TrimSpace(strings.Join(art.Abstract.Text, " ")),
			DOI:             doi,
			Journal:         art.Journal.Title,
			PublicationDate: pubDate,
			URL:             pageURL,
			Source:          "pubmed",
		})
	}
	return papers, nil
}
