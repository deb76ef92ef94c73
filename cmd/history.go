package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/joescharf/mdb/internal/output"
	"github.com/joescharf/mdb/internal/store"
)

var (
	historyProject string
	historyLimit   int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent publish attempts",
	Long: `Show the publish attempts recorded on this machine, newest first.

A publish that hit a name or domain conflict shows up as two rows: the
conflicting attempt and its retry.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return historyRun(cmd.Context())
	},
}

func init() {
	historyCmd.Flags().StringVarP(&historyProject, "project", "p", "", "Only show attempts for this project name")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "l", 20, "Maximum number of attempts to show (0 for all)")
	rootCmd.AddCommand(historyCmd)
}

func historyRun(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	s, err := getStore()
	if err != nil {
		return err
	}

	attempts, err := s.ListAttempts(ctx, store.AttemptFilter{ProjectName: historyProject, Limit: historyLimit})
	if err != nil {
		return err
	}
	if len(attempts) == 0 {
		ui.Info("No publish attempts recorded. Use 'mdb publish' to get started.")
		return nil
	}

	table := ui.Table([]string{"Project", "Method", "Try", "Outcome", "Domain", "URL / Message", "When"})
	for _, a := range attempts {
		detail := a.URL
		if detail == "" {
			detail = truncate(a.Message, 60)
		}
		table.Append([]string{
			output.Cyan(a.ProjectName),
			string(a.Method),
			fmt.Sprintf("%d", a.Number),
			output.OutcomeColor(a.Outcome),
			a.Domain,
			detail,
			timeAgo(a.CreatedAt),
		})
	}
	table.Render()
	return nil
}

// timeAgo returns a human-readable duration from a time.
func timeAgo(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		days := int(d.Hours() / 24)
		if days == 1 {
			return "1d ago"
		}
		return fmt.Sprintf("%dd ago", days)
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
