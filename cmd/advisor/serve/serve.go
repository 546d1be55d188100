// Package servecmder provides the serve command, which exposes the knowledge
// store over HTTP and MCP.
package servecmder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/advisor/api"
	"github.com/papercomputeco/advisor/api/mcp"
	"github.com/papercomputeco/advisor/cmd/advisor/setup"
	"github.com/papercomputeco/advisor/pkg/config"
	knowledgeutils "github.com/papercomputeco/advisor/pkg/knowledge/utils"
	"github.com/papercomputeco/advisor/pkg/sessionlog"
)

type serveCommander struct {
	watch   bool
	noMCP   bool
	logFile string

	env    *setup.Env
	logger *slog.Logger
}

const serveLongDesc string = `Serve the knowledge store.

Starts the HTTP API for saving, listing and searching advisory sessions, with
an MCP endpoint at /mcp exposing the retrieve_similar_sessions and
list_client_sessions tools.

Use --watch to reload the store when the session file is edited by another
process. Use --log-file to also write JSON logs to a file.

Examples:
  advisor serve
  advisor serve --listen :9000 --watch
  advisor serve --vector-index-provider qdrant --vector-index-target localhost:6334`

const serveShortDesc string = "Serve the knowledge store over HTTP and MCP"

var serveFlags = append([]string{config.FlagListen}, setup.StoreFlags...)

func NewServeCmd() *cobra.Command {
	cmder := &serveCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.env, err = setup.Load(cmd, serveFlags)
			return err
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			var extra []io.Writer
			if cmder.logFile != "" {
				f, err := os.OpenFile(cmder.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
				if err != nil {
					return fmt.Errorf("opening log file: %w", err)
				}
				defer f.Close()
				extra = append(extra, f)
			}
			cmder.logger = setup.Logger(cmd, extra...)

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			return cmder.run(ctx)
		},
	}

	cmd.Flags().BoolVarP(&cmder.watch, "watch", "w", false, "Reload the store when the session file changes on disk")
	cmd.Flags().BoolVar(&cmder.noMCP, "no-mcp", false, "Do not register MCP tools")
	cmd.Flags().StringVar(&cmder.logFile, "log-file", "", "Also write JSON logs to this file")
	setup.AddFlags(cmd, serveFlags...)

	return cmd
}

func (c *serveCommander) run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := knowledgeutils.NewStore(ctx, c.env.StoreOpts(c.logger))
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			c.logger.Error("closing knowledge store", "error", err)
		}
	}()

	mcpServer, err := mcp.NewServer(mcp.Config{
		Store:  store,
		Noop:   c.noMCP,
		Logger: c.logger,
	})
	if err != nil {
		return fmt.Errorf("creating MCP server: %w", err)
	}

	server := api.NewServer(api.Config{
		ListenAddr: c.env.Config.API.Listen,
		MCPHandler: mcpServer.Handler(),
	}, store, c.logger)

	errChan := make(chan error, 2)

	if c.watch {
		watcher, err := sessionlog.NewWatcher(sessionlog.WatcherConfig{
			Log:      store.Log(),
			OnChange: store.Reload,
			Logger:   c.logger,
		})
		if err != nil {
			return err
		}
		go func() {
			if err := watcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				errChan <- fmt.Errorf("session log watcher: %w", err)
			}
		}()
		c.logger.Info("watching session log", "path", store.Log().Path())
	}

	go func() {
		if err := server.Run(); err != nil {
			errChan <- fmt.Errorf("API server error: %w", err)
		}
	}()

	c.logger.Info("starting api server",
		"listen", c.env.Config.API.Listen,
		"sessions", store.Len(),
		"mcp", !c.noMCP,
	)

	select {
	case err := <-errChan:
		_ = server.Shutdown()
		return err
	case <-ctx.Done():
		c.logger.Info("received signal, shutting down")
		return server.Shutdown()
	}
}
