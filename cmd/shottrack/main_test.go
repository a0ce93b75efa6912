package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/shottrack/internal/export"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := runCLI(t, args...)
	if err != nil {
		t.Fatalf("%v: %v\n%s", args, err, out)
	}
	return out
}

func setupCLI(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))
	t.Setenv("NO_COLOR", "1")
	return dir
}

func TestShotWorkflow(t *testing.T) {
	dir := setupCLI(t)
	db := filepath.Join(dir, "shots.db")

	mustRun(t, "--db", db, "param", "add", "--name", "Fatigue", "--type", "numeric", "--min", "1", "--max", "10")
	out := mustRun(t, "--db", db, "shot", "add", "--x", "50", "--y", "80", "--made", "--field", "Fatigue=3")
	if !strings.Contains(out, "Paint  Made  2pt") {
		t.Fatalf("unexpected add output: %q", out)
	}
	mustRun(t, "--db", db, "shot", "add", "--x", "10", "--y", "90", "--contest", "Contested")

	out = mustRun(t, "--db", db, "shot", "list")
	for _, want := range []string{"Left Corner", "Contested", "Fatigue=3", "Missed"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in list:\n%s", want, out)
		}
	}

	out = mustRun(t, "--db", db, "stats", "--plain")
	for _, want := range []string{"Shots: 2", "Court Heat Map", "Paint", "Fatigue (custom)"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in stats:\n%s", want, out)
		}
	}

	out = mustRun(t, "--db", db, "stats", "--plain", "--value", "3")
	if !strings.Contains(out, "Shots: 1") {
		t.Fatalf("expected filtered stats:\n%s", out)
	}
}

func TestShotAddRejectsInvalidInput(t *testing.T) {
	dir := setupCLI(t)
	db := filepath.Join(dir, "shots.db")

	if _, err := runCLI(t, "--db", db, "shot", "add", "--x", "50"); err == nil {
		t.Fatalf("expected error for x without y")
	}
	if _, err := runCLI(t, "--db", db, "shot", "add", "--x", "150", "--y", "10"); err == nil {
		t.Fatalf("expected error for off-court coordinates")
	}
	if _, err := runCLI(t, "--db", db, "shot", "add", "--made"); err == nil {
		t.Fatalf("expected error for missing coordinates")
	}
	if _, err := runCLI(t, "--db", db, "shot", "add", "--x", "50", "--y", "80", "--contest", "Sometimes"); err == nil {
		t.Fatalf("expected error for unknown contest level")
	}
	if _, err := runCLI(t, "--db", db, "shot", "delete", "missing"); err == nil {
		t.Fatalf("expected error deleting unknown shot")
	}
	if _, err := runCLI(t, "--db", db, "shot", "clear"); err == nil {
		t.Fatalf("expected clear to require --yes")
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	dir := setupCLI(t)
	db := filepath.Join(dir, "shots.db")
	backup := filepath.Join(dir, "backup.json")
	csvPath := filepath.Join(dir, "out", "shots.csv")

	mustRun(t, "--db", db, "param", "add", "--name", "Drill", "--option", "Spot,Game")
	mustRun(t, "--db", db, "shot", "add", "--x", "50", "--y", "10", "--made", "--field", "Drill=Spot")
	mustRun(t, "--db", db, "shot", "add", "--x", "50", "--y", "85")

	mustRun(t, "--db", db, "export", "backup", "--out", backup)
	mustRun(t, "--db", db, "export", "csv", "--out", csvPath)
	data, err := os.ReadFile(csvPath)
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if !strings.HasPrefix(string(data), export.SectionRaw+"\n") || !strings.Contains(string(data), "Three Point Top") {
		t.Fatalf("unexpected csv:\n%s", data)
	}

	out := mustRun(t, "--db", db, "export", "shots", "--out", "-")
	if !strings.HasPrefix(out, "x,y,contestLevel,") || !strings.Contains(out, "50,10,,,,,,0,Made,Spot") {
		t.Fatalf("unexpected shots csv:\n%s", out)
	}

	mustRun(t, "--db", db, "shot", "clear", "--yes")
	out = mustRun(t, "--db", db, "shot", "list")
	if !strings.Contains(out, "No shots found.") {
		t.Fatalf("expected empty list:\n%s", out)
	}

	out = mustRun(t, "--db", db, "import", backup)
	if !strings.Contains(out, "Imported 2 shots and 1 parameters") {
		t.Fatalf("unexpected import output: %q", out)
	}
	out = mustRun(t, "--db", db, "info")
	if !strings.Contains(out, "Shots:       2") || !strings.Contains(out, "Parameters:  1") {
		t.Fatalf("unexpected info:\n%s", out)
	}
}

func TestImportRejectsInvalidBackup(t *testing.T) {
	dir := setupCLI(t)
	db := filepath.Join(dir, "shots.db")
	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte(`{"shots": []}`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	mustRun(t, "--db", db, "shot", "add", "--x", "50", "--y", "80")
	if _, err := runCLI(t, "--db", db, "import", bad); err == nil {
		t.Fatalf("expected import error")
	}
	out := mustRun(t, "--db", db, "shot", "list")
	if strings.Contains(out, "No shots found.") {
		t.Fatalf("rejected import must keep existing shots")
	}
}

func TestParamUpdateKeepsUnsetFields(t *testing.T) {
	dir := setupCLI(t)
	db := filepath.Join(dir, "shots.db")

	out := mustRun(t, "--db", db, "param", "add", "--name", "Drill", "--option", "Spot", "--option", "Game")
	id := strings.Fields(out)[0]
	mustRun(t, "--db", db, "param", "update", id, "--name", "Session")
	out = mustRun(t, "--db", db, "param", "list")
	if !strings.Contains(out, "Session") || !strings.Contains(out, "Spot, Game") || strings.Contains(out, "Drill") {
		t.Fatalf("unexpected params:\n%s", out)
	}
	if _, err := runCLI(t, "--db", db, "param", "update", "missing", "--name", "X"); err == nil {
		t.Fatalf("expected not found")
	}
	mustRun(t, "--db", db, "param", "delete", id)
	out = mustRun(t, "--db", db, "param", "list")
	if !strings.Contains(out, "No custom parameters defined.") {
		t.Fatalf("expected no params:\n%s", out)
	}
}

func TestConfigOverridesDatabasePath(t *testing.T) {
	dir := setupCLI(t)
	db := filepath.Join(dir, "from-config.db")
	cfgDir := filepath.Join(dir, "config", "shottrack")
	if err := os.MkdirAll(cfgDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	cfg := "[storage]\npath = \"" + filepath.ToSlash(db) + "\"\n"
	if err := os.WriteFile(filepath.Join(cfgDir, "config.toml"), []byte(cfg), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	mustRun(t, "shot", "add", "--x", "50", "--y", "80")
	if _, err := os.Stat(db); err != nil {
		t.Fatalf("expected database at config path: %v", err)
	}
	out := mustRun(t, "info")
	if !strings.Contains(out, db) {
		t.Fatalf("expected config path in info:\n%s", out)
	}
}

func TestDefaultConfigTemplateParses(t *testing.T) {
	dir := setupCLI(t)
	cfgDir := filepath.Join(dir, "config", "shottrack")
	if err := os.MkdirAll(cfgDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(cfgDir, "config.toml"), []byte(defaultConfigTemplate()), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	mustRun(t, "--db", filepath.Join(dir, "shots.db"), "info")
}

func TestShotSeed(t *testing.T) {
	dir := setupCLI(t)
	db := filepath.Join(dir, "shots.db")

	out := mustRun(t, "--db", db, "shot", "seed", "--count", "12", "--seed", "3")
	if !strings.Contains(out, "Recorded 12 shots") {
		t.Fatalf("unexpected seed output: %q", out)
	}
	out = mustRun(t, "--db", db, "info")
	if !strings.Contains(out, "Shots:       12") {
		t.Fatalf("unexpected info:\n%s", out)
	}
	if _, err := runCLI(t, "--db", db, "shot", "seed", "--count", "0"); err == nil {
		t.Fatalf("expected error for zero count")
	}
}

func TestSaveErrorRelayConcurrentAttach(t *testing.T) {
	relay := &saveErrorRelay{}
	relay.send("shots", errors.New("before attach"))

	// A program whose context is already done drops messages instead of blocking.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	program := tea.NewProgram(nil, tea.WithContext(ctx), tea.WithInput(nil), tea.WithOutput(io.Discard))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			relay.send("shots", errors.New("disk full"))
		}()
	}
	relay.attach(program)
	wg.Wait()
	if relay.program.Load() != program {
		t.Fatalf("expected attached program")
	}
}
