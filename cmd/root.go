package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/repeticio/repeticio/internal/config"
	"github.com/repeticio/repeticio/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "repeticio",
	Short: "Terminal Spanish practice client",
	Long:  "Repeticio fetches one fill-in-the-blank exercise at a time from a practice backend, takes your answer and shows the result.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runApp(cmd)
	},
	SilenceUsage: true,
}

// ExecuteContext runs the root command with ctx, cancelled on interrupt by
// the caller.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "Path to YAML config file (overrides REPETICIO_CONFIG env var)")
	pf.String("db", "", "Path to SQLite database file (overrides REPETICIO_DB env var)")
	pf.String("base-url", "", "Practice backend base URL")
	pf.String("user", "", "User identity sent to the backend")
	pf.String("log-level", "", "Log level (trace, debug, info, warn, error)")

	rootCmd.AddCommand(exerciseCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(requestsCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig loads the configuration file and environment, then applies the
// persistent flags on top.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	flags := map[string]*string{
		"db":        &cfg.Store.Path,
		"base-url":  &cfg.Backend.BaseURL,
		"user":      &cfg.User.Identity,
		"log-level": &cfg.Log.Level,
	}
	for name, dst := range flags {
		if v, _ := cmd.Flags().GetString(name); v != "" {
			*dst = v
		}
	}
	return cfg, nil
}

// resolveDBPath returns the configured database path (--db flag, then
// store.path / REPETICIO_DB), falling back to the default XDG path.
func resolveDBPath(cfg *config.Config) (string, error) {
	if p := cfg.Store.Path; p != "" {
		return p, store.EnsureDir(p)
	}
	return store.DefaultDBPath()
}
