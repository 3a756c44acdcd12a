package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/gnana997/varscan/pkg/config"
	"github.com/gnana997/varscan/pkg/monitor"
	"github.com/gnana997/varscan/pkg/util"
	"github.com/gnana997/varscan/pkg/workspace"
)

var (
	cfgFile   string
	logLevel  string
	logFormat string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "varscan",
	Short: "Multi-language variable extraction and cross-reference engine",
	Long: `varscan scans source files to extract variable declarations, imports and
references. JavaScript, TypeScript, Python, Vue, JSON and YAML are supported.

Quick Start:
  varscan scan .                  Scan every supported file below .
  varscan vars src/app.js         List the variables of one file
  varscan refs src/app.js apiUrl  Find the references of a name
  varscan watch .                 Rescan files as they change
  varscan serve .                 Expose the engine as MCP tools over stdio`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", config.DefaultPath, "config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error); overrides the config file")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format (text, json); overrides the config file")
}

// loadConfig reads the config file, applies the log flag overrides, and
// installs the resulting logger as the slog default.
func loadConfig() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if logFormat != "" {
		cfg.Log.Format = logFormat
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	logger := util.NewLogger(cfg.LoggerConfig())
	util.SetDefault(logger)
	return cfg, logger, nil
}

// newService builds the workspace service. metrics may be nil.
func newService(cfg *config.Config, logger *slog.Logger, metrics *monitor.Metrics) (*workspace.Service, error) {
	wc := cfg.Workspace()
	wc.Logger = logger
	wc.Metrics = metrics
	return workspace.New(wc)
}

// workspaceRoot returns the absolute directory named by args[0], or the
// working directory.
func workspaceRoot(args []string) (string, error) {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}
	root, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", dir, err)
	}
	return root, nil
}

// commandContext returns the command's context, or Background when the
// command was not started through Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
}
