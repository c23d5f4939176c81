package main

import (
	"context"
	"errors"
	"os/signal"
	"strings"
	"syscall"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"cinepick/internal/agenttools"
	"cinepick/internal/delivery"
	"cinepick/internal/memory"
)

func newMCPCommand(ctx *commandContext) *cobra.Command {
	var userID string

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve the catalog and memory tools over MCP on stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			app, err := newApplicationFromContext(signalCtx, ctx, delivery.Noop{})
			if err != nil {
				return err
			}
			defer app.Close()

			var mem *memory.Client
			if app.cfg.Memory.Backend != "none" {
				mem = app.memory
			}
			toolkit := agenttools.New(agenttools.Deps{
				Catalog:  app.catalog,
				Pipeline: app.pipeline,
				Memory:   mem,
				UserID:   strings.TrimSpace(userID),
				Logger:   app.logger,
			})
			mcpServer := agenttools.NewServer(toolkit, version)

			app.logger.Info("mcp server listening on stdio")
			stdio := server.NewStdioServer(mcpServer)
			if err := stdio.Listen(signalCtx, cmd.InOrStdin(), cmd.OutOrStdout()); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&userID, "user", "u", "", "User id that scopes the memory tools")
	return cmd
}
