package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/shottrack/internal/model"
	"github.com/verte-zerg/shottrack/internal/state"
)

var (
	paramName    string
	paramType    string
	paramOptions []string
	paramMin     int
	paramMax     int
	paramIcon    string
)

func newParamCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "param",
		Short: "Manage custom tracking parameters",
	}
	cmd.AddCommand(newParamAddCmd())
	cmd.AddCommand(newParamListCmd())
	cmd.AddCommand(newParamUpdateCmd())
	cmd.AddCommand(newParamDeleteCmd())
	return cmd
}

func addParamFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&paramName, "name", "", "parameter name")
	cmd.Flags().StringVar(&paramType, "type", string(model.ParameterCategorical), "categorical or numeric")
	cmd.Flags().StringSliceVar(&paramOptions, "option", nil, "option for categorical parameters (repeatable or comma separated)")
	cmd.Flags().IntVar(&paramMin, "min", 0, "minimum for numeric parameters")
	cmd.Flags().IntVar(&paramMax, "max", 10, "maximum for numeric parameters")
	cmd.Flags().StringVar(&paramIcon, "icon", "", "icon shown next to the parameter")
}

func newParamAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Define a custom parameter",
		Args:  cobra.NoArgs,
		RunE:  runParamAddCmd,
	}
	addParamFlags(cmd)
	return cmd
}

func runParamAddCmd(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd, appOptions{})
	if err != nil {
		return err
	}
	defer a.close(commandContext(cmd))

	p, err := a.state.AddParameter(state.ParameterInput{
		Name:    paramName,
		Type:    model.ParameterType(paramType),
		Options: paramOptions,
		Min:     paramMin,
		Max:     paramMax,
		Icon:    paramIcon,
	})
	if err != nil {
		return fmt.Errorf("failed to add parameter: %w", err)
	}
	if err := a.flush(commandContext(cmd)); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%s  %s %s\n", p.ID, p.Icon, p.Name); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func newParamListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List custom parameters",
		Args:  cobra.NoArgs,
		RunE:  runParamListCmd,
	}
}

func runParamListCmd(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd, appOptions{})
	if err != nil {
		return err
	}
	defer a.close(commandContext(cmd))

	params := a.state.Parameters()
	if len(params) == 0 {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), "No custom parameters defined.")
		return err
	}
	rows := make([][]string, 0, len(params))
	for _, p := range params {
		rows = append(rows, []string{string(p.ID), p.Icon, p.Name, string(p.Type), parameterRange(p)})
	}
	out := listTable([]string{"ID", "", "Name", "Type", "Values"}, rows)
	if _, err := fmt.Fprintln(cmd.OutOrStdout(), out); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func parameterRange(p model.CustomParameter) string {
	if p.Type == model.ParameterNumeric {
		return strconv.Itoa(p.Min) + ".." + strconv.Itoa(p.Max)
	}
	return strings.Join(p.Options, ", ")
}

func newParamUpdateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Edit a custom parameter",
		Args:  cobra.ExactArgs(1),
		RunE:  runParamUpdateCmd,
	}
	addParamFlags(cmd)
	return cmd
}

func runParamUpdateCmd(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd, appOptions{})
	if err != nil {
		return err
	}
	defer a.close(commandContext(cmd))

	id := model.ID(args[0])
	var current *model.CustomParameter
	for _, p := range a.state.Parameters() {
		if p.ID == id {
			current = &p
			break
		}
	}
	if current == nil {
		return fmt.Errorf("parameter %q not found", args[0])
	}
	in := parameterUpdate(cmd, *current)
	p, err := a.state.UpdateParameter(id, in)
	if err != nil {
		if errors.Is(err, state.ErrNotFound) {
			return fmt.Errorf("parameter %q not found", args[0])
		}
		return fmt.Errorf("failed to update parameter: %w", err)
	}
	if err := a.flush(commandContext(cmd)); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%s  %s %s\n", p.ID, p.Icon, p.Name); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// parameterUpdate starts from the current definition and applies only the
// flags given on the command line.
func parameterUpdate(cmd *cobra.Command, current model.CustomParameter) state.ParameterInput {
	in := state.ParameterInput{
		Name:    current.Name,
		Type:    current.Type,
		Options: current.Options,
		Min:     current.Min,
		Max:     current.Max,
		Icon:    current.Icon,
	}
	flags := cmd.Flags()
	if flags.Changed("name") {
		in.Name = paramName
	}
	if flags.Changed("type") {
		in.Type = model.ParameterType(paramType)
	}
	if flags.Changed("option") {
		in.Options = paramOptions
	}
	if flags.Changed("min") {
		in.Min = paramMin
	}
	if flags.Changed("max") {
		in.Max = paramMax
	}
	if flags.Changed("icon") {
		in.Icon = paramIcon
	}
	return in
}

func newParamDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a custom parameter (recorded values stay on the shots)",
		Args:  cobra.ExactArgs(1),
		RunE:  runParamDeleteCmd,
	}
}

func runParamDeleteCmd(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd, appOptions{})
	if err != nil {
		return err
	}
	defer a.close(commandContext(cmd))

	if !a.state.DeleteParameter(model.ID(args[0])) {
		return fmt.Errorf("parameter %q not found", args[0])
	}
	return a.flush(commandContext(cmd))
}
