package main

import (
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"cinepick/internal/api"
	"cinepick/internal/daemon"
	"cinepick/internal/logging"
	"cinepick/internal/preflight"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var bind string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API daemon in the foreground",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if b := strings.TrimSpace(bind); b != "" {
				cfg.Server.Bind = b
			}

			app, err := newApplicationFromContext(signalCtx, ctx, nil)
			if err != nil {
				return err
			}
			defer app.Close()

			for _, r := range preflight.Failed(preflight.RunAll(signalCtx, cfg)) {
				logging.WarnWithContext(app.logger, "preflight check failed", "preflight_failed",
					logging.String("check", r.Name),
					logging.String("detail", r.Detail),
					logging.String(logging.FieldErrorHint, "run 'cinepick doctor' for details"),
					logging.String(logging.FieldImpact, "affected features degrade until the check passes"),
				)
			}

			handler := api.NewServer(app.sessions, api.Options{Metrics: cfg.Server.Metrics}, app.logger)
			d, err := daemon.New(cfg, app.sessions, handler, app.logger)
			if err != nil {
				return fmt.Errorf("create daemon: %w", err)
			}
			if err := d.Start(signalCtx); err != nil {
				return fmt.Errorf("start daemon: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "cinepick listening on http://%s\n", d.Addr())

			<-signalCtx.Done()
			app.logger.Info("cinepick daemon shutting down")
			d.Stop()
			return nil
		},
	}

	cmd.Flags().StringVar(&bind, "bind", "", "Override server.bind (host:port)")
	return cmd
}
