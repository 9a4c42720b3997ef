package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/pdiddy/paperbot/internal/digest"
	"github.com/pdiddy/paperbot/internal/slack"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the bot with a scheduled daily digest",
	Long: `Serve validates the configuration, schedules the digest pipeline at the
configured daily time, and runs until interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := buildConfig()
		log := newLogger()

		if err := cfg.ValidateForServe(); err != nil {
			return err
		}
		if len(cfg.Search.Keywords) == 0 {
			return fmt.Errorf("no keywords configured")
		}

		spec, err := cronSpec(cfg.Schedule.Time)
		if err != nil {
			return err
		}
		location, err := time.LoadLocation(cfg.Schedule.Timezone)
		if err != nil {
			return fmt.Errorf("loading timezone %q: %w", cfg.Schedule.Timezone, err)
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

		scorer, err := newScorer(cfg, log)
		if err != nil {
			return err
		}
		var pipelineScorer digest.Scorer
		if scorer != nil {
			pipelineScorer = scorer
		}
		pipeline := digest.NewPipeline(fetcher, cfg.Journals, pipelineScorer, cfg.LLM.MinScore, st, log)
		client := slack.NewClient(cfg.Slack.BotToken, cfg.Slack.ChannelID, log)

		runDigest := func() {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
			defer cancel()

			papers, err := pipeline.Run(ctx, cfg.Search.Keywords, cfg.Search.DaysBack, cfg.Search.MaxResultsPerSource)
			if err != nil {
				log.Error().Err(err).Msg("digest run failed")
				return
			}
			if err := client.PostDigest(ctx, papers); err != nil {
				log.Error().Err(err).Msg("posting digest failed")
				return
			}
			log.Info().Int("papers", len(papers)).Msg("digest posted")
		}

		scheduler := cron.New(cron.WithLocation(location))
		if _, err := scheduler.AddFunc(spec, runDigest); err != nil {
			return fmt.Errorf("scheduling digest: %w", err)
		}
		scheduler.Start()
		defer scheduler.Stop()

		log.Info().
			Str("time", cfg.Schedule.Time).
			Str("timezone", cfg.Schedule.Timezone).
			Msg("digest scheduled")

		stop := make(chan os.Signal, 1)
		signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
		<-stop
		log.Info().Msg("shutting down")
		return nil
	},
}

// cronSpec converts a HH:MM daily time into a cron expression.
func cronSpec(hhmm string) (string, error) {
	parts := strings.SplitN(hhmm, ":", 2)
	if len(parts) != 2 {
		return "", fmt.Errorf("invalid schedule time %q, want HH:MM", hhmm)
	}
	var hour, minute int
	if _, err := fmt.Sscanf(hhmm, "%d:%d", &hour, &minute); err != nil {
		return "", fmt.Errorf("invalid schedule time %q, want HH:MM", hhmm)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return "", fmt.Errorf("invalid schedule time %q, want HH:MM", hhmm)
	}
	return fmt.Sprintf("%d %d * * *", minute, hour), nil
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
