package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/repeticio/repeticio/internal/store"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show answered exercises",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		sessionID, _ := cmd.Flags().GetString("session")

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		st, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		ctx := cmd.Context()
		repo := st.EventRepo()
		attempts, err := repo.QueryAttempts(ctx, store.QueryOpts{Limit: limit, SessionID: sessionID})
		if err != nil {
			return fmt.Errorf("query attempts: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(attempts) == 0 {
			fmt.Fprintln(out, "No answers recorded.")
			return nil
		}

		fmt.Fprintf(out, "%-19s  %-10s  %-24s  %s\n", "Timestamp", "Result", "Answer", "Prompt")
		fmt.Fprintln(out, strings.Repeat("─", 90))
		for _, a := range attempts {
			result := "recorded"
			if a.Correct != nil {
				result = "✗"
				if *a.Correct {
					result = "✓"
				}
			}
			fmt.Fprintf(out, "%-19s  %-10s  %-24s  %s\n",
				a.Timestamp.Local().Format("2006-01-02 15:04:05"),
				result,
				truncate(a.AnswerText, 24),
				a.Prompt,
			)
		}

		stats, err := repo.AttemptStats(ctx)
		if err != nil {
			return fmt.Errorf("query stats: %w", err)
		}
		fmt.Fprintln(out)
		fmt.Fprintf(out, "%d answers, %d graded, %d correct\n", stats.Total, stats.Graded, stats.Correct)
		return nil
	},
}

func init() {
	historyCmd.Flags().Int("limit", 20, "Maximum number of answers to show")
	historyCmd.Flags().String("session", "", "Only show answers from this session")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
