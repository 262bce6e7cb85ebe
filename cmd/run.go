package cmd

import (
	"github.com/spf13/cobra"

	"github.com/repeticio/repeticio/internal/app"
)

// runApp wires the session and launches the TUI. Logs go to the log file so
// they do not corrupt the screen.
func runApp(cmd *cobra.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	env, err := openClient(cmd.Context(), cfg, nil)
	if err != nil {
		return err
	}
	defer env.Close()

	env.log.Info().Str("session", env.machine.SessionID()).Msg("tui started")
	return app.Run(cmd.Context(), app.Options{
		Machine:   env.machine,
		EventRepo: env.store.EventRepo(),
	})
}
