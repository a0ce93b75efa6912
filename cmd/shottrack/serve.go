package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/shottrack/internal/httpapi"
)

var serveAddr string

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the local HTTP API",
		Args:  cobra.NoArgs,
		RunE:  runServeCmd,
	}
	cmd.Flags().StringVar(&serveAddr, "addr", httpapi.DefaultAddr, "listen address")
	return cmd
}

func runServeCmd(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd, appOptions{})
	if err != nil {
		return err
	}
	defer a.close(commandContext(cmd))
	applyStringConfig(cmd, "addr", &serveAddr, a.cfg.Serve.Addr)

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := httpapi.New(a.state, httpapi.Options{
		Logger:  a.log.Named("http"),
		Metrics: a.metrics,
		Quoting: a.quoting,
	})
	if _, err := fmt.Fprintf(cmd.OutOrStdout(), "Listening on http://%s\n", serveAddr); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if err := srv.ListenAndServe(ctx, serveAddr); err != nil {
		return fmt.Errorf("failed to serve: %w", err)
	}
	return nil
}
