package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paperbot/internal/search"
	"github.com/pdiddy/paperbot/internal/slack"
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search paper sources with a boolean query",
	Long: `Search runs an on-demand query across the configured sources. Queries
support AND, OR, NOT operators and quoted phrases:

  paperbot search '"machine learning" AND genomics NOT review'

Results can be narrowed with attribute filters and re-ranked by semantic
similarity when an embedding model is configured. With --post the results
are delivered to a Slack channel instead of printed.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query := args[0]
		cfg := buildConfig()
		log := newLogger()

		fetcher, err := newFetcher(cfg, log)
		if err != nil {
			return err
		}
		st, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		ranker, err := newRanker(cfg)
		if err != nil {
			return err
		}

		maxResults, _ := cmd.Flags().GetInt("max-results")
		papers, errs := fetcher.Search(cmd.Context(), query, maxResults)
		if len(errs) == len(fetcher.Sources()) {
			return fmt.Errorf("all sources failed")
		}

		filters := filtersFromFlags(cmd)
		useSemantic, _ := cmd.Flags().GetBool("semantic")
		requester, _ := cmd.Flags().GetString("requester")

		engine := search.NewEngine(st, ranker, log)
		results := engine.Search(cmd.Context(), query, papers, filters, useSemantic, requester)

		if post, _ := cmd.Flags().GetBool("post"); post {
			channel := cfg.Slack.ChannelID
			if override, _ := cmd.Flags().GetString("channel"); override != "" {
				channel = override
			}
			if cfg.Slack.BotToken == "" || channel == "" {
				return fmt.Errorf("slack bot token and channel id required to post")
			}
			client := slack.NewClient(cfg.Slack.BotToken, channel, log)
			return client.PostSearchResults(cmd.Context(), results, query)
		}

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(results)
		}
		printPapers(results)
		return nil
	},
}

func filtersFromFlags(cmd *cobra.Command) *search.Filters {
	f := &search.Filters{}
	f.Authors, _ = cmd.Flags().GetStringSlice("author")
	f.DateFrom, _ = cmd.Flags().GetString("from")
	f.DateTo, _ = cmd.Flags().GetString("to")
	f.ExcludeTerms, _ = cmd.Flags().GetStringSlice("exclude")
	f.Journals, _ = cmd.Flags().GetStringSlice("journal")
	f.Sources, _ = cmd.Flags().GetStringSlice("source")
	if cmd.Flags().Changed("min-score") {
		min, _ := cmd.Flags().GetFloat64("min-score")
		f.MinRelevanceScore = &min
	}
	return f
}

func init() {
	searchCmd.Flags().StringSlice("author", nil, "filter by author name (repeatable)")
	searchCmd.Flags().String("from", "", "publication date range start (YYYY-MM-DD)")
	searchCmd.Flags().String("to", "", "publication date range end (YYYY-MM-DD)")
	searchCmd.Flags().StringSlice("exclude", nil, "drop papers containing a term (repeatable)")
	searchCmd.Flags().StringSlice("journal", nil, "filter by journal name (repeatable)")
	searchCmd.Flags().StringSlice("source", nil, "filter by source tag (repeatable)")
	searchCmd.Flags().Float64("min-score", 0, "minimum relevance score")
	searchCmd.Flags().Int("max-results", 50, "maximum results per source")
	searchCmd.Flags().Bool("semantic", false, "re-rank results by semantic similarity")
	searchCmd.Flags().String("requester", "", "requester recorded in search history")
	searchCmd.Flags().Bool("json", false, "output results as JSON")
	searchCmd.Flags().Bool("post", false, "post results to Slack instead of printing")
	searchCmd.Flags().String("channel", "", "Slack channel to post to (default: configured channel)")

	rootCmd.AddCommand(searchCmd)
}
