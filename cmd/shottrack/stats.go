package main

import (
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/shottrack/internal/court"
	"github.com/verte-zerg/shottrack/internal/stats"
	"github.com/verte-zerg/shottrack/internal/statsui"
)

const defaultTrendWindow = 10

var (
	statsPlain  bool
	statsSince  string
	statsValue  string
	statsWindow int
	statsColor  bool
)

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show shooting stats",
		Args:  cobra.NoArgs,
		RunE:  runStatsCmd,
	}
	cmd.Flags().BoolVar(&statsPlain, "plain", false, "print a text report instead of the dashboard")
	cmd.Flags().StringVar(&statsSince, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&statsValue, "value", "", "only 2 or 3 point shots")
	cmd.Flags().IntVar(&statsWindow, "window", defaultTrendWindow, "moving average window for the trend")
	cmd.Flags().BoolVar(&statsColor, "color", false, "force colour in the plain report")
	return cmd
}

func runStatsCmd(cmd *cobra.Command, _ []string) error {
	filter, err := statsui.ParseFilter(statsSince, statsValue)
	if err != nil {
		return err
	}
	if statsWindow < 1 {
		return fmt.Errorf("--window must be >= 1")
	}

	a, err := openApp(cmd, appOptions{logToFile: !statsPlain})
	if err != nil {
		return err
	}
	defer a.close(commandContext(cmd))

	if statsPlain {
		report := stats.BuildReport(a.state, a.state.Table(), filter, statsWindow)
		return writePlainReport(cmd.OutOrStdout(), report, a.state.Table(), statsWindow, statsColor)
	}

	model := statsui.NewModel(a.state, statsui.Config{Filter: filter, TrendWindow: statsWindow})
	program := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run stats TUI: %w", err)
	}
	return nil
}

func writePlainReport(w io.Writer, report stats.Report, courtTable court.Table, window int, forceColor bool) error {
	if err := stats.RenderSummary(w, report.Summary); err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}
	if report.Summary.Overall.Total == 0 {
		return nil
	}
	if err := stats.RenderHeatMap(w, report.Summary, courtTable, 0, 0, forceColor); err != nil {
		return fmt.Errorf("failed to write heat map: %w", err)
	}
	if err := stats.RenderSegmentTable(w, report.Summary); err != nil {
		return fmt.Errorf("failed to write segments: %w", err)
	}
	if err := stats.RenderParameterTables(w, report.Summary); err != nil {
		return fmt.Errorf("failed to write parameters: %w", err)
	}
	if err := stats.RenderTrend(w, report.Trend, window); err != nil {
		return fmt.Errorf("failed to write trend: %w", err)
	}
	return nil
}
