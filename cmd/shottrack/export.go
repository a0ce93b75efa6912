package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/shottrack/internal/export"
)

var exportOut string

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export shots as CSV or a JSON backup",
		Long:  "csv writes the analysis export with statistics; shots writes the plain per-shot table.",
	}
	cmd.PersistentFlags().StringVar(&exportOut, "out", "", "output file, or - for stdout (default: dated file in the export dir)")
	cmd.AddCommand(&cobra.Command{
		Use:   "csv",
		Short: "Write a CSV analysis export",
		Args:  cobra.NoArgs,
		RunE:  runExportCSVCmd,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "shots",
		Short: "Write one CSV row per shot",
		Args:  cobra.NoArgs,
		RunE:  runExportShotsCmd,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "backup",
		Short: "Write a JSON backup of shots and parameters",
		Args:  cobra.NoArgs,
		RunE:  runExportBackupCmd,
	})
	return cmd
}

func runExportCSVCmd(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd, appOptions{})
	if err != nil {
		return err
	}
	defer a.close(commandContext(cmd))

	shots := a.state.Shots()
	params := a.state.Parameters()
	if len(shots) == 0 {
		return fmt.Errorf("no shots to export")
	}
	var buf bytes.Buffer
	opts := export.Options{Quoting: a.quoting, Table: a.state.Table()}
	if err := export.WriteCSV(&buf, shots, params, a.state.Summary(), opts); err != nil {
		return fmt.Errorf("failed to build csv: %w", err)
	}
	now := time.Now()
	return writeExport(cmd, a.exportDir(), export.CSVFilename(now), buf.Bytes())
}

func runExportShotsCmd(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd, appOptions{})
	if err != nil {
		return err
	}
	defer a.close(commandContext(cmd))

	shots := a.state.Shots()
	if len(shots) == 0 {
		return fmt.Errorf("no shots to export")
	}
	var buf bytes.Buffer
	if err := export.WriteShotsCSV(&buf, shots, a.state.Parameters(), export.Options{Quoting: a.quoting}); err != nil {
		return fmt.Errorf("failed to build csv: %w", err)
	}
	return writeExport(cmd, a.exportDir(), export.ShotsCSVFilename, buf.Bytes())
}

func runExportBackupCmd(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd, appOptions{})
	if err != nil {
		return err
	}
	defer a.close(commandContext(cmd))

	now := time.Now()
	data, err := export.EncodeBackup(a.state.Export(now))
	if err != nil {
		return fmt.Errorf("failed to encode backup: %w", err)
	}
	return writeExport(cmd, a.exportDir(), export.BackupFilename(now), data)
}

func writeExport(cmd *cobra.Command, dir, name string, data []byte) error {
	if exportOut == "-" {
		if _, err := cmd.OutOrStdout().Write(data); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		return nil
	}
	path := exportOut
	if path == "" {
		path = filepath.Join(dir, name)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create export directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	if _, err := fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func newImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Replace all shots and parameters with a JSON backup",
		Args:  cobra.ExactArgs(1),
		RunE:  runImportCmd,
	}
}

func runImportCmd(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read backup: %w", err)
	}
	a, err := openApp(cmd, appOptions{})
	if err != nil {
		return err
	}
	defer a.close(commandContext(cmd))

	if !a.state.Import(data) {
		return fmt.Errorf("invalid backup file %s: expected shots and customParameters lists", args[0])
	}
	if err := a.flush(commandContext(cmd)); err != nil {
		return err
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Imported %d shots and %d parameters\n", len(a.state.Shots()), len(a.state.Parameters()))
	return err
}
