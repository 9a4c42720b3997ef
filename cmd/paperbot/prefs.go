package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paperbot/pkg/types"
)

var prefsCmd = &cobra.Command{
	Use:   "prefs",
	Short: "Manage per-user journal and keyword preferences",
}

var prefsShowCmd = &cobra.Command{
	Use:   "show <user>",
	Short: "Show one user's saved preferences",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := buildConfig()

		st, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		pref, err := st.UserPreference(args[0])
		if err != nil {
			return err
		}
		if pref == nil {
			fmt.Printf("No preferences stored for %s.\n", args[0])
			return nil
		}
		fmt.Printf("Journals: %s\n", strings.Join(pref.PreferredJournals, ", "))
		fmt.Printf("Keywords: %s\n", strings.Join(pref.SubscribedKeywords, ", "))
		if pref.UpdatedAt != "" {
			fmt.Printf("Updated:  %s\n", pref.UpdatedAt)
		}
		return nil
	},
}

var prefsSetCmd = &cobra.Command{
	Use:   "set <user>",
	Short: "Save a user's preferred journals and keyword subscriptions",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := buildConfig()

		st, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		journals, _ := cmd.Flags().GetStringSlice("journals")
		keywords, _ := cmd.Flags().GetStringSlice("keywords")
		if len(journals) == 0 && len(keywords) == 0 {
			return fmt.Errorf("nothing to set: pass --journals and/or --keywords")
		}

		err = st.SaveUserPreference(types.UserPreference{
			UserID:             args[0],
			PreferredJournals:  journals,
			SubscribedKeywords: keywords,
		})
		if err != nil {
			return err
		}
		fmt.Printf("Saved preferences for %s.\n", args[0])
		return nil
	},
}

func init() {
	prefsSetCmd.Flags().StringSlice("journals", nil, "preferred journals, comma-separated")
	prefsSetCmd.Flags().StringSlice("keywords", nil, "subscribed keywords, comma-separated")

	prefsCmd.AddCommand(prefsShowCmd)
	prefsCmd.AddCommand(prefsSetCmd)
	rootCmd.AddCommand(prefsCmd)
}
