package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/skillprobe/internal/interview"
	"github.com/abhisek/skillprobe/internal/store"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "List answer analyses and how their scores were obtained",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		sessionID, _ := cmd.Flags().GetString("session")
		degradedOnly, _ := cmd.Flags().GetBool("degraded")
		showRaw, _ := cmd.Flags().GetBool("raw")

		s, err := openStore(cmd)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer s.Close()

		audits, err := s.EventRepo().QueryAnalysisAudits(cmd.Context(), store.QueryOpts{
			Limit:     limit,
			SessionID: sessionID,
		})
		if err != nil {
			return fmt.Errorf("query audits: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(audits) == 0 {
			fmt.Fprintln(out, "No analyses recorded.")
			return nil
		}

		fmt.Fprintf(out, "%-5s  %-19s  %-36s  %4s  %-16s  %s\n",
			"ID", "Timestamp", "Session", "Turn", "Provenance", "Coerced")
		fmt.Fprintln(out, strings.Repeat("─", 100))
		for _, a := range audits {
			if degradedOnly && a.Provenance != interview.ProvenanceFallback {
				continue
			}
			coerced := make([]string, len(a.Coerced))
			for i, c := range a.Coerced {
				coerced[i] = c.Metric
			}
			fmt.Fprintf(out, "%-5d  %-19s  %-36s  %4d  %-16s  %s\n",
				a.ID,
				a.Timestamp.Local().Format("2006-01-02 15:04:05"),
				a.SessionID,
				a.Turn,
				a.Provenance,
				strings.Join(coerced, ","),
			)
			if a.ErrorMessage != "" {
				fmt.Fprintf(out, "       error: %s\n", a.ErrorMessage)
			}
			if showRaw && a.RawText != "" {
				fmt.Fprintf(out, "       raw: %s\n", truncate(strings.ReplaceAll(a.RawText, "\n", " "), 200))
			}
		}
		return nil
	},
}

func init() {
	auditCmd.Flags().IntP("limit", "n", 50, "Number of analyses to show")
	auditCmd.Flags().StringP("session", "s", "", "Only show analyses of this session")
	auditCmd.Flags().Bool("degraded", false, "Only show analyses that fell back to default scores")
	auditCmd.Flags().Bool("raw", false, "Include the raw model output")
}
