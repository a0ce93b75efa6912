// Package main provides the CLI entrypoint for shottrack.
package main

import (
	"fmt"
	"os"
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/shottrack/internal/tui"
)

var (
	rootDBPath   string
	rootLogLevel string
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "shottrack",
		Short:         "Basketball shot tracker",
		SilenceUsage:  true,
		SilenceErrors: false,
		Args:          cobra.NoArgs,
		RunE:          runCourtCmd,
	}

	rootCmd.PersistentFlags().StringVar(&rootDBPath, "db", "", "database path (default: $XDG_DATA_HOME/shottrack/shottrack.db)")
	rootCmd.PersistentFlags().StringVar(&rootLogLevel, "log-level", "", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(newShotCmd())
	rootCmd.AddCommand(newParamCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newExportCmd())
	rootCmd.AddCommand(newImportCmd())
	rootCmd.AddCommand(newInfoCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newServeCmd())

	return rootCmd
}

// saveErrorRelay forwards background save failures to the running program.
// Saves fire from debounce timers, so the program is published atomically.
type saveErrorRelay struct {
	program atomic.Pointer[tea.Program]
}

func (r *saveErrorRelay) attach(p *tea.Program) {
	r.program.Store(p)
}

func (r *saveErrorRelay) send(collection string, err error) {
	if p := r.program.Load(); p != nil {
		p.Send(tui.SaveErrorMsg{Collection: collection, Err: err})
	}
}

func runCourtCmd(cmd *cobra.Command, _ []string) error {
	relay := &saveErrorRelay{}
	a, err := openApp(cmd, appOptions{
		logToFile:   true,
		onSaveError: relay.send,
	})
	if err != nil {
		return err
	}
	defer a.close(commandContext(cmd))

	program := tea.NewProgram(tui.NewModel(a.state), tea.WithAltScreen())
	relay.attach(program)
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
