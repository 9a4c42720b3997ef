package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recorded searches",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := buildConfig()

		st, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		requester, _ := cmd.Flags().GetString("requester")
		limit, _ := cmd.Flags().GetInt("limit")

		history, err := st.SearchHistory(requester, limit)
		if err != nil {
			return err
		}
		if len(history) == 0 {
			fmt.Println("No searches recorded.")
			return nil
		}

		for _, q := range history {
			fmt.Printf("%s  %q  %d results", q.CreatedAt, q.Query, q.ResultCount)
			if q.Requester != "" {
				fmt.Printf("  (%s)", q.Requester)
			}
			fmt.Println()
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().String("requester", "", "show only one requester's searches")
	historyCmd.Flags().Int("limit", 20, "maximum entries to show")

	rootCmd.AddCommand(historyCmd)
}
