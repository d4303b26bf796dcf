package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	configcmd "github.com/perimeterlabs/graphgate/cmd/config"
	"github.com/perimeterlabs/graphgate/cmd/serve"
	"github.com/perimeterlabs/graphgate/cmd/version"
	"github.com/perimeterlabs/graphgate/internal/config"
	"github.com/perimeterlabs/graphgate/internal/logging"
)

// logManager is the global logging manager, created in init() and upgraded after config loads
var logManager *logging.Manager

var graphgateCmd = &cobra.Command{
	Use:   "graphgate",
	Short: "A REST API Gateway for Neo4j Property Graphs",
	Long: "Graphgate exposes node and relationship CRUD, filtered queries, and graph " +
		"traversals over a Neo4j database as a JSON REST API.\n\n" +
		"Queries are built with parameter binding throughout; labels, relationship types, " +
		"and property keys are validated against a strict identifier grammar before they " +
		"ever reach query text.",
	PersistentPreRunE: runInitialize,
}

func init() {
	// Create logging Manager in bootstrap mode (stderr text only)
	logManager = logging.NewManager()

	graphgateCmd.AddCommand(serve.ServeCmd)
	graphgateCmd.AddCommand(configcmd.ConfigCmd)
	graphgateCmd.AddCommand(version.VersionCmd)
}

func runInitialize(cmd *cobra.Command, args []string) error {
	logger := logManager.Logger()

	// Initialize config subsystem
	if err := config.Init(); err != nil {
		return err
	}

	// Upgrade logging after config is available
	logFile := config.GetPath("log_file")
	levelStr := config.GetString("log_level")
	level, ok := logging.ParseLevel(levelStr)
	if !ok {
		level = logging.DefaultLevel
		if levelStr != "" {
			logger.Warn("invalid log level configured, using default", "configured", levelStr, "default", "info")
		}
	}

	if err := logManager.Upgrade(logFile, level); err != nil {
		logger.Warn("failed to enable file logging, continuing with stderr only", "error", err)
		// Don't return error - continue with bootstrap mode
	}

	slog.SetDefault(logManager.Logger())

	// Re-apply the log level after a SIGHUP config reload
	config.RegisterReloadHook(func() {
		if level, ok := logging.ParseLevel(config.GetString("log_level")); ok {
			logManager.SetLevel(level)
		}
	})

	return nil
}

func Execute() error {
	graphgateCmd.SilenceErrors = true
	graphgateCmd.SilenceUsage = true

	// Ensure logging is properly closed on exit
	defer func() { _ = logManager.Close() }()

	err := graphgateCmd.Execute()

	if err != nil {
		cmd, _, _ := graphgateCmd.Find(os.Args[1:])
		if cmd == nil {
			cmd = graphgateCmd
		}

		fmt.Printf("Error: %v\n", err)
		if !cmd.SilenceUsage {
			fmt.Printf("\n")
			cmd.SetOut(os.Stdout)
			_ = cmd.Usage()
		}

		return err
	}

	return nil
}
