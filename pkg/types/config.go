// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"
	"strings"
	"time"
)

// HTTPConfig holds shared HTTP settings used by components that make
// network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "paperbot/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// SearchConfig holds settings for paper fetching and on-demand search.
type SearchConfig struct {
	HTTPConfig `yaml:",inline"`

	// Keywords are the digest search terms.
	Keywords []string `json:"keywords" yaml:"keywords"`

	// Sources lists the enabled paper sources: pubmed, biorxiv, arxiv.
	Sources []string `json:"sources" yaml:"sources"`

	// DaysBack is how far the digest looks back (default 1).
	DaysBack int `json:"days_back" yaml:"days_back"`

	// MaxResultsPerSource caps results from each source (default 50).
	MaxResultsPerSource int `json:"max_results_per_source" yaml:"max_results_per_source"`
}

// FilterPolicy selects how the journal filter treats its include and
// exclude lists.
type FilterPolicy string

const (
	// PolicyExcludeOnly passes every journal except explicit exclusions.
	PolicyExcludeOnly FilterPolicy = "exclude-only"

	// PolicyIncludeGated passes only journals admitted by the configured
	// tiers, include list, or preprint flag, then subtracts exclusions.
	PolicyIncludeGated FilterPolicy = "include-gated"
)

// JournalConfig holds journal filtering settings.
type JournalConfig struct {
	// Policy selects the filtering policy. Empty means exclude-only.
	Policy FilterPolicy `json:"policy" yaml:"policy"`

	// Include lists journals admitted under the include-gated policy in
	// addition to the configured tiers.
	Include []string `json:"include" yaml:"include"`

	// Exclude lists journals removed under either policy. Matching is
	// case-folded and substring-based in both directions.
	Exclude []string `json:"exclude" yaml:"exclude"`

	// Tiers names the journal tiers admitted under the include-gated
	// policy: tier1, tier2, ml.
	Tiers []string `json:"tiers" yaml:"tiers"`

	// ShowPreprints admits preprint servers under the include-gated
	// policy (default true).
	ShowPreprints bool `json:"show_preprints" yaml:"show_preprints"`
}

// LLMConfig holds settings for the relevance-scoring model.
type LLMConfig struct {
	// Provider selects the scoring backend: "openai" (or any
	// OpenAI-compatible endpoint via BaseURL) or "ollama" for a local
	// server.
	Provider string `json:"provider" yaml:"provider"`

	// Model is the model identifier (e.g. "gpt-4o-mini", "llama2").
	Model string `json:"model" yaml:"model"`

	// BaseURL overrides the API endpoint for OpenAI-compatible services.
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`

	// Rubric is the system prompt describing how to rate relevance.
	// Empty uses the built-in default.
	Rubric string `json:"rubric,omitempty" yaml:"rubric,omitempty"`

	// MinScore is the minimum relevance score a paper must reach to
	// survive filtering (default 50).
	MinScore float64 `json:"min_score" yaml:"min_score"`

	// BatchSize is the number of papers scored per model call (default 5).
	BatchSize int `json:"batch_size" yaml:"batch_size"`
}

// EmbeddingConfig holds settings for the semantic-ranking embedder.
type EmbeddingConfig struct {
	// Enabled controls whether semantic re-ranking is used.
	Enabled bool `json:"enabled" yaml:"enabled"`

	// BaseURL is the OpenAI-compatible embedding endpoint. Empty uses
	// the provider default.
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`

	// Model is the embedding model identifier (e.g. "text-embedding-3-small").
	Model string `json:"model" yaml:"model"`
}

// SlackConfig holds Slack delivery settings.
type SlackConfig struct {
	// BotToken is the xoxb- bot token.
	BotToken string `json:"bot_token,omitempty" yaml:"bot_token,omitempty"`

	// ChannelID is the channel digests are posted to.
	ChannelID string `json:"channel_id" yaml:"channel_id"`
}

// ScheduleConfig holds digest scheduling settings.
type ScheduleConfig struct {
	// Enabled controls whether the serve command schedules digests.
	Enabled bool `json:"enabled" yaml:"enabled"`

	// Time is the daily posting time in HH:MM.
	Time string `json:"time" yaml:"time"`

	// Timezone is an IANA timezone name (default UTC).
	Timezone string `json:"timezone" yaml:"timezone"`
}

// StorageConfig holds persistence settings.
type StorageConfig struct {
	// DatabasePath is the SQLite database file (default "papers.db").
	DatabasePath string `json:"database_path" yaml:"database_path"`

	// CacheDays is how long papers are kept before cleanup (default 30).
	CacheDays int `json:"cache_days" yaml:"cache_days"`
}

// Config groups all component configurations.
type Config struct {
	Search    SearchConfig    `json:"search" yaml:"search"`
	Journals  JournalConfig   `json:"journals" yaml:"journals"`
	LLM       LLMConfig       `json:"llm" yaml:"llm"`
	Embedding EmbeddingConfig `json:"embedding" yaml:"embedding"`
	Slack     SlackConfig     `json:"slack" yaml:"slack"`
	Schedule  ScheduleConfig  `json:"schedule" yaml:"schedule"`
	Storage   StorageConfig   `json:"storage" yaml:"storage"`

	// NCBIAPIKey raises the PubMed rate limit when set.
	NCBIAPIKey string `json:"ncbi_api_key,omitempty" yaml:"ncbi_api_key,omitempty"`

	// OpenAIAPIKey authenticates the scoring and embedding services.
	// Relevance scoring is disabled when empty and the provider is not
	// a local one.
	OpenAIAPIKey string `json:"openai_api_key,omitempty" yaml:"openai_api_key,omitempty"`
}

// ValidateForServe checks the settings the long-running bot requires.
// Missing credentials are the one failure class that surfaces to the
// operator instead of being recovered internally.
func (c Config) ValidateForServe() error {
	var missing []string
	if c.Slack.BotToken == "" {
		missing = append(missing, "slack bot token")
	}
	if c.Slack.ChannelID == "" {
		missing = append(missing, "slack channel id")
	}
	if c.LLM.Provider == "openai" && c.OpenAIAPIKey == "" {
		missing = append(missing, "openai api key")
	}
	if len(missing) > 0 {
		return fmt.Errorf("configuration incomplete: %s required", strings.Join(missing, ", "))
	}
	return nil
}
