package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paperbot/internal/digest"
	"github.com/pdiddy/paperbot/internal/slack"
)

var digestCmd = &cobra.Command{
	Use:   "digest",
	Short: "Run the digest pipeline once",
	Long: `Digest fetches recent papers for the configured keywords, filters them by
journal, scores relevance, drops papers already seen, and posts the rest to
the configured Slack channel. With --dry-run the papers are printed instead
of posted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := buildConfig()
		log := newLogger()

		keywords := cfg.Search.Keywords
		minScore := cfg.LLM.MinScore
		rubric := cfg.LLM.Rubric

		if profilePath, _ := cmd.Flags().GetString("profile"); profilePath != "" {
			profile, err := digest.LoadProfile(profilePath)
			if err != nil {
				return err
			}
			keywords = profile.Keywords
			if len(profile.Sources) > 0 {
				cfg.Search.Sources = profile.Sources
			}
			if profile.Rubric != "" {
				rubric = profile.Rubric
			}
			if profile.MinScore > 0 {
				minScore = profile.MinScore
			}
			log.Info().Str("profile", profile.Name).Msg("using topic profile")
		}
		if len(keywords) == 0 {
			return fmt.Errorf("no keywords configured")
		}

		days := cfg.Search.DaysBack
		if cmd.Flags().Changed("days") {
			days, _ = cmd.Flags().GetInt("days")
		}

		fetcher, err := newFetcher(cfg, log)
		if err != nil {
			return err
		}
		st, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		cfg.LLM.Rubric = rubric
		scorer, err := newScorer(cfg, log)
		if err != nil {
			return err
		}
		if scorer == nil {
			log.Warn().Msg("relevance scoring unconfigured, skipping")
		}

		// A nil interface value, not a typed nil, so the pipeline's nil
		// check works.
		var pipelineScorer digest.Scorer
		if scorer != nil {
			pipelineScorer = scorer
		}

		pipeline := digest.NewPipeline(fetcher, cfg.Journals, pipelineScorer, minScore, st, log)
		papers, err := pipeline.Run(cmd.Context(), keywords, days, cfg.Search.MaxResultsPerSource)
		if err != nil {
			return err
		}
		log.Info().Int("papers", len(papers)).Msg("digest complete")

		if dryRun, _ := cmd.Flags().GetBool("dry-run"); dryRun {
			printPapers(papers)
			return nil
		}

		if cfg.Slack.BotToken == "" || cfg.Slack.ChannelID == "" {
			return fmt.Errorf("slack bot token and channel id required to post (use --dry-run to print)")
		}
		client := slack.NewClient(cfg.Slack.BotToken, cfg.Slack.ChannelID, log)
		return client.PostDigest(cmd.Context(), papers)
	},
}

func init() {
	digestCmd.Flags().Int("days", 1, "days to look back")
	digestCmd.Flags().Bool("dry-run", false, "print papers instead of posting to Slack")
	digestCmd.Flags().String("profile", "", "topic profile YAML file")

	rootCmd.AddCommand(digestCmd)
}
