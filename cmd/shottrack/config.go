package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/shottrack/internal/config"
	"github.com/verte-zerg/shottrack/internal/export"
	"github.com/verte-zerg/shottrack/internal/httpapi"
	"github.com/verte-zerg/shottrack/internal/logging"
	"github.com/verte-zerg/shottrack/internal/state"
)

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# shottrack configuration
# Uncomment a value to enable it. CLI flags override config values.

[storage]
# path = "/path/to/shottrack.db"  # Database file (default under $XDG_DATA_HOME)
# debounce-ms = %d               # Delay before changes are written

[export]
# dir = "."                      # Where export files are written
# csv-quoting = %q           # "rfc4180" or "naive"

[log]
# level = %q                   # debug, info, warn or error

[serve]
# addr = %q          # Listen address for shottrack serve
`,
		state.DefaultDebounce.Milliseconds(),
		string(export.QuotingRFC4180),
		logging.DefaultLevel,
		httpapi.DefaultAddr,
	)
}
