package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Delete cached papers older than the retention window",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := buildConfig()

		days := cfg.Storage.CacheDays
		if cmd.Flags().Changed("days") {
			days, _ = cmd.Flags().GetInt("days")
		}

		st, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		removed, err := st.CleanupOldPapers(days)
		if err != nil {
			return err
		}
		fmt.Printf("Removed %d papers older than %d days.\n", removed, days)
		return nil
	},
}

func init() {
	cleanupCmd.Flags().Int("days", 0, "retention window in days (default from config)")

	rootCmd.AddCommand(cleanupCmd)
}
