package cmd

import (
	"github.com/spf13/cobra"

	"github.com/abhisek/skillprobe/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "skillprobe",
	Short: "Adaptive AI-scored interviews",
	Long: "skillprobe runs adaptive interviews for designers, product and project managers.\n" +
		"Every answer is scored by a language model and the next question adapts to the results.",
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogging(cmd)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("db", "", "Path to SQLite database file (overrides SKILLPROBE_DB env var)")
	pf.String("log-level", "info", "Log level (debug, info, warn, error)")
	pf.String("log-format", "text", "Log format (text, json)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(interviewCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(auditCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
}

// resolveDBPath returns the database path using --db flag (highest priority),
// then SKILLPROBE_DB env var or config file, then the default XDG path.
func resolveDBPath(cmd *cobra.Command) (string, error) {
	if p := viperForCmd(cmd).GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	return store.DefaultDBPath()
}

// openStore resolves the database path and opens it.
func openStore(cmd *cobra.Command) (*store.Store, error) {
	dbPath, err := resolveDBPath(cmd)
	if err != nil {
		return nil, err
	}
	return store.Open(dbPath)
}
