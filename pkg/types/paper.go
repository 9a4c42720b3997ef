// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Paper holds the metadata for a discovered scientific paper. Fetch
// adapters construct Papers from raw source payloads; the relevance
// scorer and search engine enrich them; the store persists them keyed
// by DOI.
type Paper struct {
	// ID is the persisted row identifier, zero until saved.
	ID int64 `json:"id,omitempty" yaml:"id,omitempty"`

	// Title is the paper title. Papers with an empty or whitespace-only
	// title are never persisted.
	Title string `json:"title" yaml:"title"`

	// Authors lists the author names in source order.
	Authors []string `json:"authors" yaml:"authors"`

	// Abstract is the paper abstract.
	Abstract string `json:"abstract" yaml:"abstract"`

	// DOI is the digital object identifier, when the source reports one.
	// It serves as the natural deduplication key.
	DOI string `json:"doi,omitempty" yaml:"doi,omitempty"`

	// Journal is the journal name as reported by the source, free text.
	Journal string `json:"journal" yaml:"journal"`

	// PublicationDate is an ISO-like date string; partial dates such as
	// "2024" or "2024-03" are allowed.
	PublicationDate string `json:"publication_date" yaml:"publication_date"`

	// URL is the canonical link to the paper.
	URL string `json:"url" yaml:"url"`

	// Source identifies which adapter produced the paper
	// (e.g. "pubmed", "biorxiv", "arxiv").
	Source string `json:"source" yaml:"source"`

	// RelevanceScore is the 0-100 relevance rating assigned by the
	// scorer, nil while unscored.
	RelevanceScore *float64 `json:"relevance_score,omitempty" yaml:"relevance_score,omitempty"`

	// RelevanceExplanation is the scorer's free-text justification.
	RelevanceExplanation string `json:"relevance_explanation,omitempty" yaml:"relevance_explanation,omitempty"`

	// CreatedAt is the persistence timestamp, set by the store.
	CreatedAt string `json:"created_at,omitempty" yaml:"created_at,omitempty"`
}

// Scored reports whether the paper carries a relevance score.
func (p Paper) Scored() bool {
	return p.RelevanceScore != nil
}

// Score returns the relevance score, or 0 when unscored.
func (p Paper) Score() float64 {
	if p.RelevanceScore == nil {
		return 0
	}
	return *p.RelevanceScore
}

// SetScore records a relevance score and its explanation on the paper.
func (p *Paper) SetScore(score float64, explanation string) {
	p.RelevanceScore = &score
	p.RelevanceExplanation = explanation
}

// SearchQuery is one entry in the search history.
type SearchQuery struct {
	ID          int64  `json:"id,omitempty"`
	Query       string `json:"query"`
	Filters     string `json:"filters,omitempty"` // serialized filter set, JSON
	ResultCount int    `json:"result_count"`
	Requester   string `json:"requester,omitempty"`
	CreatedAt   string `json:"created_at,omitempty"`
}

// UserPreference stores a requester's saved journals and keyword subscriptions.
type UserPreference struct {
	ID                 int64    `json:"id,omitempty"`
	UserID             string   `json:"user_id"`
	PreferredJournals  []string `json:"preferred_journals"`
	SubscribedKeywords []string `json:"subscribed_keywords"`
	UpdatedAt          string   `json:"updated_at,omitempty"`
}
