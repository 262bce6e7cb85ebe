package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/repeticio/repeticio/internal/store"
)

var requestsCmd = &cobra.Command{
	Use:   "requests",
	Short: "List recent backend requests",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		failed, _ := cmd.Flags().GetBool("failed")

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		st, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		events, err := st.EventRepo().QueryRequestEvents(cmd.Context(), store.QueryOpts{})
		if err != nil {
			return fmt.Errorf("query events: %w", err)
		}
		if limit > 0 && len(events) > limit {
			events = events[len(events)-limit:]
		}

		out := cmd.OutOrStdout()
		if len(events) == 0 {
			fmt.Fprintln(out, "No requests found.")
			return nil
		}

		fmt.Fprintf(out, "%-5s  %-19s  %-7s  %-38s  %-7s  %-3s  %s\n",
			"ID", "Timestamp", "Op", "Exercise", "Ms", "OK", "Error")
		fmt.Fprintln(out, strings.Repeat("─", 100))

		for _, e := range events {
			if failed && e.Success {
				continue
			}
			ok := "✓"
			if !e.Success {
				ok = "✗"
			}
			fmt.Fprintf(out, "%-5d  %-19s  %-7s  %-38s  %-7d  %-3s  %s\n",
				e.ID,
				e.Timestamp.Local().Format("2006-01-02 15:04:05"),
				e.Operation,
				e.ExerciseID,
				e.LatencyMs,
				ok,
				e.ErrorMessage,
			)
		}
		return nil
	},
}

func init() {
	requestsCmd.Flags().Int("limit", 20, "Maximum number of requests to show")
	requestsCmd.Flags().Bool("failed", false, "Only show failed requests")
}
