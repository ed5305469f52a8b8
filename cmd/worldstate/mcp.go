package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/MrWong99/worldstate/internal/app"
	"github.com/MrWong99/worldstate/internal/mcp"
)

func mcpCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve the world-state tools to MCP clients",
		Long:  `Serve the world-state tools to MCP clients.

The poller runs in the background, so the tools always see the latest
resolved document. With the stdio transport all logging goes to stderr.`,
		Args: cobra.NoArgs,
		RunE: runMCP,
	}
	cmd.Flags().String("transport", string(mcp.TransportStdio), "stdio or streamable-http")
	cmd.Flags().String("listen", "127.0.0.1:8081", "listen address for streamable-http")
	return cmd
}

func runMCP(cmd *cobra.Command, args []string) error {
	raw, _ := cmd.Flags().GetString("transport")
	transport, err := mcp.ParseTransport(raw)
	if err != nil {
		return err
	}
	listen, _ := cmd.Flags().GetString("listen")

	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	newLogger(cfg.Server.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg, app.WithVersion(version))
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		_ = application.Shutdown(shutdownCtx)
	}()

	return application.RunMCP(ctx, transport, listen)
}
