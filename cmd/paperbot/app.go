package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/pdiddy/paperbot/internal/ai"
	"github.com/pdiddy/paperbot/internal/fetch"
	"github.com/pdiddy/paperbot/internal/httputil"
	"github.com/pdiddy/paperbot/internal/relevance"
	"github.com/pdiddy/paperbot/internal/search"
	"github.com/pdiddy/paperbot/internal/secrets"
	"github.com/pdiddy/paperbot/internal/store"
	"github.com/pdiddy/paperbot/pkg/types"
)

// newLogger builds the process logger. PAPERBOT_LOG_LEVEL controls
// verbosity; output is human-readable console format on stderr.
func newLogger() zerolog.Logger {
	level := zerolog.InfoLevel
	if l, err := zerolog.ParseLevel(viper.GetString("log_level")); err == nil && l != zerolog.NoLevel {
		level = l
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(level).
		With().Timestamp().Logger()
}

// buildConfig assembles the runtime configuration from viper, with
// secrets filling in credentials not set in the config file.
func buildConfig() types.Config {
	v := viper.GetViper()

	v.SetDefault("search.days_back", 1)
	v.SetDefault("search.max_results_per_source", 50)
	v.SetDefault("search.sources", []string{"pubmed", "biorxiv", "arxiv"})
	v.SetDefault("search.timeout", "30s")
	v.SetDefault("search.user_agent", "paperbot/"+version)
	v.SetDefault("journals.show_preprints", true)
	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.min_score", 50)
	v.SetDefault("llm.batch_size", 5)
	v.SetDefault("schedule.time", "09:00")
	v.SetDefault("schedule.timezone", "UTC")
	v.SetDefault("storage.database_path", "papers.db")
	v.SetDefault("storage.cache_days", 30)

	cfg := types.Config{
		Search: types.SearchConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   v.GetDuration("search.timeout"),
				UserAgent: v.GetString("search.user_agent"),
			},
			Keywords:            v.GetStringSlice("search.keywords"),
			Sources:             v.GetStringSlice("search.sources"),
			DaysBack:            v.GetInt("search.days_back"),
			MaxResultsPerSource: v.GetInt("search.max_results_per_source"),
		},
		Journals: types.JournalConfig{
			Policy:        types.FilterPolicy(v.GetString("journals.policy")),
			Include:       v.GetStringSlice("journals.include"),
			Exclude:       v.GetStringSlice("journals.exclude"),
			Tiers:         v.GetStringSlice("journals.tiers"),
			ShowPreprints: v.GetBool("journals.show_preprints"),
		},
		LLM: types.LLMConfig{
			Provider:  v.GetString("llm.provider"),
			Model:     v.GetString("llm.model"),
			BaseURL:   v.GetString("llm.base_url"),
			Rubric:    v.GetString("llm.rubric"),
			MinScore:  v.GetFloat64("llm.min_score"),
			BatchSize: v.GetInt("llm.batch_size"),
		},
		Embedding: types.EmbeddingConfig{
			Enabled: v.GetBool("embedding.enabled"),
			BaseURL: v.GetString("embedding.base_url"),
			Model:   v.GetString("embedding.model"),
		},
		Slack: types.SlackConfig{
			BotToken:  secretDefault(secrets.KeySlackBot, v.GetString("slack.bot_token")),
			ChannelID: v.GetString("slack.channel_id"),
		},
		Schedule: types.ScheduleConfig{
			Enabled:  v.GetBool("schedule.enabled"),
			Time:     v.GetString("schedule.time"),
			Timezone: v.GetString("schedule.timezone"),
		},
		Storage: types.StorageConfig{
			DatabasePath: v.GetString("storage.database_path"),
			CacheDays:    v.GetInt("storage.cache_days"),
		},
		NCBIAPIKey:   secretDefault(secrets.KeyNCBI, v.GetString("ncbi_api_key")),
		OpenAIAPIKey: secretDefault(secrets.KeyOpenAI, v.GetString("openai_api_key")),
	}
	return cfg
}

// newFetcher wires the configured sources into a MultiFetcher.
func newFetcher(cfg types.Config, log zerolog.Logger) (*fetch.MultiFetcher, error) {
	client := httputil.NewClient(cfg.Search.HTTPConfig)

	var fetchers []fetch.Fetcher
	for _, source := range cfg.Search.Sources {
		switch strings.ToLower(source) {
		case "pubmed":
			fetchers = append(fetchers, fetch.NewPubMed(client, cfg.NCBIAPIKey))
		case "biorxiv":
			fetchers = append(fetchers, fetch.NewBioRxiv(client))
		case "arxiv":
			fetchers = append(fetchers, fetch.NewArxiv(client))
		default:
			return nil, fmt.Errorf("unknown source %q", source)
		}
	}
	if len(fetchers) == 0 {
		return nil, fmt.Errorf("no sources configured")
	}
	return fetch.NewMultiFetcher(log, fetchers...), nil
}

// newScorer builds the relevance scorer, or nil when scoring is
// unconfigured.
func newScorer(cfg types.Config, log zerolog.Logger) (*relevance.Scorer, error) {
	model, err := ai.NewChatModel(cfg.LLM, cfg.OpenAIAPIKey)
	if err != nil {
		return nil, fmt.Errorf("configuring scoring model: %w", err)
	}
	if model == nil {
		return nil, nil
	}
	return relevance.NewScorer(model, cfg.LLM.Rubric, cfg.LLM.BatchSize, log), nil
}

// newRanker builds the semantic ranker. Disabled embedding yields a
// passthrough ranker.
func newRanker(cfg types.Config) (*search.Ranker, error) {
	embedder, err := ai.NewEmbedder(cfg.Embedding, cfg.OpenAIAPIKey)
	if err != nil {
		return nil, fmt.Errorf("configuring embedder: %w", err)
	}
	return search.NewRanker(embedder), nil
}

// openStore opens the configured database.
func openStore(cfg types.Config) (*store.Store, error) {
	return store.NewStore(cfg.Storage.DatabasePath)
}

// printPapers writes a compact console listing.
func printPapers(papers []types.Paper) {
	if len(papers) == 0 {
		fmt.Println("No papers found.")
		return
	}
	for i, p := range papers {
		fmt.Printf("%d. %s\n", i+1, p.Title)
		if len(p.Authors) > 0 {
			authors := p.Authors
			if len(authors) > 3 {
				authors = append(authors[:3:3], "et al.")
			}
			fmt.Printf("   %s\n", strings.Join(authors, ", "))
		}
		fmt.Printf("   %s", p.Journal)
		if p.PublicationDate != "" {
			fmt.Printf(" | %s", p.PublicationDate)
		}
		if p.Scored() {
			fmt.Printf(" | relevance %.0f/100", p.Score())
		}
		fmt.Println()
		if p.URL != "" {
			fmt.Printf("   %s\n", p.URL)
		}
		fmt.Println()
	}
}
