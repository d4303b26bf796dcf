// Package serve provides the serve command, the long-running API server.
package serve

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/perimeterlabs/graphgate/internal/config"
	"github.com/perimeterlabs/graphgate/internal/graph"
	"github.com/perimeterlabs/graphgate/internal/server"
)

// ServeCmd starts the HTTP API server.
var ServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the graph API server",
	Long: "Start the graph API server.\n\n" +
		"Connects to the configured Neo4j database and serves the v1 REST API " +
		"until interrupted. SIGHUP reloads the configuration file; SIGINT and " +
		"SIGTERM trigger a graceful shutdown.",
	Example: `  # Start with the default config search path
  graphgate serve

  # Point at an explicit config directory
  GRAPHGATE_CONFIG_DIR=/etc/graphgate graphgate serve`,
	PreRunE: validateServe,
	RunE:    runServe,
}

func validateServe(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := slog.Default()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := graph.NewClient(
		graph.WithLogger(logger),
		graph.WithConfig(graph.Config{
			URI:         cfg.Neo4j.URI,
			Username:    cfg.Neo4j.Username,
			Password:    cfg.Neo4j.ResolvePassword(),
			Database:    cfg.Neo4j.Database,
			MaxPoolSize: cfg.Neo4j.MaxPoolSize,
			IndexLabels: cfg.Neo4j.IndexLabels,
		}),
	)

	if err := client.Start(ctx); err != nil {
		return err
	}
	defer func() { _ = client.Stop(context.Background()) }()

	srv := server.New(client, logger, server.Config{
		Bind:           cfg.Server.Bind,
		Port:           cfg.Server.Port,
		RequestTimeout: time.Duration(cfg.Server.RequestTimeout) * time.Second,
	})

	// SIGHUP re-reads the config file
	config.SetupSignalHandler()
	defer config.StopSignalHandler()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(ctx)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down", "timeout_seconds", cfg.Server.ShutdownTimeout)

	shutdownCtx, cancel := context.WithTimeout(context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	return <-errCh
}
