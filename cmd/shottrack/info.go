package main

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/shottrack/internal/store"
)

const (
	quotaHint = "Storage is full. Export a backup (shottrack export backup) and clear old shots."
	// sizeWarnBytes triggers the export reminder before the disk fills up.
	sizeWarnBytes = 50 << 20
)

func newInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show storage usage and counts",
		Args:  cobra.NoArgs,
		RunE:  runInfoCmd,
	}
}

func runInfoCmd(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd, appOptions{})
	if err != nil {
		return err
	}
	defer a.close(commandContext(cmd))

	info, err := a.store.Info(commandContext(cmd))
	if err != nil {
		return fmt.Errorf("failed to read storage info: %w", err)
	}
	return writeInfo(cmd.OutOrStdout(), info)
}

func writeInfo(w io.Writer, info store.Info) error {
	lastSaved := "never"
	if info.LastSaved != nil {
		lastSaved = fmt.Sprintf("%s (%s)", info.LastSaved.Local().Format("2006-01-02 15:04:05"), humanize.Time(*info.LastSaved))
	}
	lines := []string{
		fmt.Sprintf("Database:    %s", info.Path),
		fmt.Sprintf("Size:        %s", humanize.IBytes(uint64(info.SizeBytes))),
		fmt.Sprintf("Shots:       %d", info.Shots),
		fmt.Sprintf("Parameters:  %d", info.Parameters),
		fmt.Sprintf("Last saved:  %s", lastSaved),
		fmt.Sprintf("App version: %s", info.AppVersion),
	}
	if info.SizeBytes >= sizeWarnBytes {
		lines = append(lines, "", "Storage is getting large. Consider exporting a backup and clearing old shots.")
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}
