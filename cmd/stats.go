package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/skillprobe/internal/interview"
	"github.com/abhisek/skillprobe/internal/scoring"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show interview counts and benchmark pools per role",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore(cmd)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer s.Close()

		ctx := cmd.Context()
		counts, err := s.Sessions().CountByStatus(ctx)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%-18s  %11s  %9s  %9s  %9s  %s\n",
			"Role", "In progress", "Completed", "Abandoned", "Avg score", "Benchmark")
		fmt.Fprintln(out, strings.Repeat("─", 80))

		for _, role := range interview.AllRoles() {
			scores, err := s.Sessions().CompletedScoresByRole(ctx, role, "")
			if err != nil {
				return err
			}
			avg := "-"
			if len(scores) > 0 {
				sum := 0
				for _, sc := range scores {
					sum += sc
				}
				avg = fmt.Sprintf("%.1f", float64(sum)/float64(len(scores)))
			}
			bench := "active"
			if len(scores) < scoring.MinBenchmarkSamples {
				bench = fmt.Sprintf("needs %d more", scoring.MinBenchmarkSamples-len(scores))
			}
			byStatus := counts[role]
			fmt.Fprintf(out, "%-18s  %11d  %9d  %9d  %9s  %s\n",
				role.DisplayName(),
				byStatus[interview.StatusInProgress],
				byStatus[interview.StatusCompleted],
				byStatus[interview.StatusAbandoned],
				avg,
				bench,
			)
		}
		return nil
	},
}
