package main

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/shottrack/internal/generator"
	"github.com/verte-zerg/shottrack/internal/model"
	"github.com/verte-zerg/shottrack/internal/state"
)

var (
	shotX         float64
	shotY         float64
	shotMade      bool
	shotValue     string
	shotContest   string
	shotCreation  string
	shotDefense   string
	shotType      string
	shotPostMove  string
	shotDribbles  int
	shotFields    []string
	shotClearYes  bool
	shotListLimit int
	seedCount     int
	seedValue     int64
	seedAttrPct   float64
)

func newShotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shot",
		Short: "Record and manage shots",
	}
	cmd.AddCommand(newShotAddCmd())
	cmd.AddCommand(newShotListCmd())
	cmd.AddCommand(newShotDeleteCmd())
	cmd.AddCommand(newShotClearCmd())
	cmd.AddCommand(newShotSeedCmd())
	return cmd
}

func newShotAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a shot",
		Args:  cobra.NoArgs,
		RunE:  runShotAddCmd,
	}
	cmd.Flags().Float64Var(&shotX, "x", 0, "horizontal position in percent (0-100)")
	cmd.Flags().Float64Var(&shotY, "y", 0, "vertical position in percent (0-100, 100 is the baseline)")
	cmd.Flags().BoolVar(&shotMade, "made", false, "the shot went in")
	cmd.Flags().StringVar(&shotValue, "value", "", "shot value 2 or 3 (default: from court position)")
	cmd.Flags().StringVar(&shotContest, "contest", "", "contest level")
	cmd.Flags().StringVar(&shotCreation, "creation", "", "shot creation type")
	cmd.Flags().StringVar(&shotDefense, "defense", "", "defense type")
	cmd.Flags().StringVar(&shotType, "type", "", "shot type")
	cmd.Flags().StringVar(&shotPostMove, "post-move", "", "post move")
	cmd.Flags().IntVar(&shotDribbles, "dribbles", 0, "dribble count")
	cmd.Flags().StringArrayVar(&shotFields, "field", nil, "custom parameter value as name=value (repeatable)")
	_ = cmd.MarkFlagRequired("x")
	_ = cmd.MarkFlagRequired("y")
	return cmd
}

func runShotAddCmd(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd, appOptions{})
	if err != nil {
		return err
	}
	defer a.close(commandContext(cmd))

	fields, err := parseFieldFlags(shotFields, a.state.Parameters())
	if err != nil {
		return err
	}
	in := state.ShotInput{
		Coordinates:      &model.Point{X: shotX, Y: shotY},
		Made:             shotMade,
		ShotValue:        model.ShotValue(shotValue),
		ContestLevel:     shotContest,
		ShotCreationType: shotCreation,
		DefenseType:      shotDefense,
		ShotType:         shotType,
		PostMove:         shotPostMove,
		DribbleCount:     shotDribbles,
		CustomFields:     fields,
	}
	shot, err := a.state.AddShot(in)
	if err != nil {
		return fmt.Errorf("failed to add shot: %w", err)
	}
	if err := a.flush(commandContext(cmd)); err != nil {
		return err
	}
	segment := a.state.Table().SegmentName(shot)
	if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  %s  %spt\n", shot.ID, segment, madeLabel(shot.Made), shot.ShotValue); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// parseFieldFlags turns name=value pairs into custom field values, reading
// numbers for numeric parameters and text for everything else.
func parseFieldFlags(raw []string, params []model.CustomParameter) (model.CustomFields, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	fields := make(model.CustomFields, len(raw))
	for _, item := range raw {
		name, value, ok := strings.Cut(item, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid --field %q (expected name=value)", item)
		}
		value = strings.TrimSpace(value)
		numeric := false
		for _, p := range params {
			if p.Name == name {
				numeric = p.Type == model.ParameterNumeric
				break
			}
		}
		if !numeric {
			fields[name] = model.TextValue(value)
			continue
		}
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid --field %q (%s is numeric)", item, name)
		}
		fields[name] = model.NumberValue(n)
	}
	return fields, nil
}

func newShotListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded shots",
		Args:  cobra.NoArgs,
		RunE:  runShotListCmd,
	}
	cmd.Flags().IntVar(&shotListLimit, "last", 0, "only show the last N shots")
	return cmd
}

func runShotListCmd(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd, appOptions{})
	if err != nil {
		return err
	}
	defer a.close(commandContext(cmd))

	shots := a.state.Shots()
	if shotListLimit > 0 && len(shots) > shotListLimit {
		shots = shots[len(shots)-shotListLimit:]
	}
	if len(shots) == 0 {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), "No shots found.")
		return err
	}
	courtTable := a.state.Table()
	rows := make([][]string, 0, len(shots))
	for _, shot := range shots {
		pos := "-"
		if shot.Coordinates != nil {
			pos = fmt.Sprintf("%.1f,%.1f", shot.Coordinates.X, shot.Coordinates.Y)
		}
		rows = append(rows, []string{
			string(shot.ID),
			shot.Timestamp.Local().Format("2006-01-02 15:04"),
			pos,
			courtTable.SegmentName(shot),
			string(shot.ShotValue),
			madeLabel(shot.Made),
			shotDetails(shot),
		})
	}
	out := listTable([]string{"ID", "Time", "Pos", "Segment", "Pts", "Result", "Details"}, rows)
	if _, err := fmt.Fprintln(cmd.OutOrStdout(), out); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func shotDetails(shot model.Shot) string {
	parts := make([]string, 0, len(model.BuiltinAttributes)+len(shot.CustomFields))
	for _, attr := range model.BuiltinAttributes {
		if attr.Key == model.AttrShotValue {
			continue
		}
		if v := shot.Attribute(attr.Key); v != "" {
			parts = append(parts, v)
		}
	}
	if shot.DribbleCount > 0 {
		parts = append(parts, fmt.Sprintf("%d dribbles", shot.DribbleCount))
	}
	names := make([]string, 0, len(shot.CustomFields))
	for name := range shot.CustomFields {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		parts = append(parts, name+"="+shot.CustomFields[name].String())
	}
	return strings.Join(parts, ", ")
}

func newShotDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a shot",
		Args:  cobra.ExactArgs(1),
		RunE:  runShotDeleteCmd,
	}
}

func runShotDeleteCmd(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd, appOptions{})
	if err != nil {
		return err
	}
	defer a.close(commandContext(cmd))

	if !a.state.DeleteShot(model.ID(args[0])) {
		return fmt.Errorf("shot %q not found", args[0])
	}
	return a.flush(commandContext(cmd))
}

func newShotClearCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every recorded shot",
		Args:  cobra.NoArgs,
		RunE:  runShotClearCmd,
	}
	cmd.Flags().BoolVar(&shotClearYes, "yes", false, "confirm deleting all shots")
	return cmd
}

func runShotClearCmd(cmd *cobra.Command, _ []string) error {
	if !shotClearYes {
		return fmt.Errorf("refusing to delete all shots without --yes")
	}
	a, err := openApp(cmd, appOptions{})
	if err != nil {
		return err
	}
	defer a.close(commandContext(cmd))

	a.state.ClearShots()
	return a.flush(commandContext(cmd))
}

func newShotSeedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Record random demo shots",
		Args:  cobra.NoArgs,
		RunE:  runShotSeedCmd,
	}
	cmd.Flags().IntVar(&seedCount, "count", 50, "number of shots")
	cmd.Flags().Int64Var(&seedValue, "seed", 0, "random seed (default: current time)")
	cmd.Flags().Float64Var(&seedAttrPct, "attrs", 0.5, "probability of filling each attribute (0-1)")
	return cmd
}

func runShotSeedCmd(cmd *cobra.Command, _ []string) error {
	if seedCount <= 0 {
		return fmt.Errorf("--count must be > 0")
	}
	if seedAttrPct < 0 || seedAttrPct > 1 {
		return fmt.Errorf("--attrs must be between 0 and 1")
	}
	a, err := openApp(cmd, appOptions{})
	if err != nil {
		return err
	}
	defer a.close(commandContext(cmd))

	gen := generator.New()
	if cmd.Flags().Changed("seed") {
		gen = generator.NewSeeded(seedValue)
	}
	for _, in := range gen.Generate(a.state.Table(), seedCount, seedAttrPct) {
		if _, err := a.state.AddShot(in); err != nil {
			return fmt.Errorf("failed to add shot: %w", err)
		}
	}
	if err := a.flush(commandContext(cmd)); err != nil {
		return err
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Recorded %d shots\n", seedCount)
	return err
}

func madeLabel(made bool) string {
	if made {
		return "Made"
	}
	return "Missed"
}

func listTable(headers []string, rows [][]string) string {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("#4A4A4A"))).
		Headers(headers...).
		Rows(rows...).
		String()
}
