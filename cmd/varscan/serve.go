package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	mcpserver "github.com/gnana997/varscan/pkg/mcp"
	"github.com/gnana997/varscan/pkg/monitor"
	"github.com/gnana997/varscan/pkg/watcher"
)

var serveCmd = &cobra.Command{
	Use:   "serve [dir]",
	Short: "Expose the engine as MCP tools over stdio",
	Long: `Start an MCP server on stdin/stdout. Relative paths in tool calls resolve
against dir (default: the working directory).

Examples:
  varscan serve .
  varscan serve . --watch --metrics-addr :9090
  varscan serve . --call-log .varscan/calls.jsonl`,
	Args: cobra.MaximumNArgs(1),
	RunE: runServe,
}

var (
	serveMetricsAddr string
	serveCallLog     string
	serveWatch       bool
)

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveMetricsAddr, "metrics-addr", "", "Serve Prometheus metrics at this address, e.g. :9090")
	serveCmd.Flags().StringVar(&serveCallLog, "call-log", "", "Append a JSONL entry per tool call to this file")
	serveCmd.Flags().BoolVar(&serveWatch, "watch", false, "Keep results fresh by watching the workspace")
}

func runServe(cmd *cobra.Command, args []string) error {
	root, err := workspaceRoot(args)
	if err != nil {
		return err
	}

	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := monitor.NewMetrics(reg)

	svc, err := newService(cfg, logger, metrics)
	if err != nil {
		return err
	}
	defer svc.Close()
	svc.Start()

	if serveMetricsAddr != "" {
		srv := startMetricsServer(serveMetricsAddr, reg, logger)
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(ctx)
		}()
	}

	if serveWatch {
		fw, err := watcher.NewFileWatcher(svc, cfg.WatchOptions(), logger)
		if err != nil {
			return err
		}
		if err := fw.Start(root); err != nil {
			return err
		}
		defer fw.Stop()
	}

	callLog, err := mcpserver.OpenCallLog(serveCallLog)
	if err != nil {
		return err
	}
	defer callLog.Close()

	logger.Info("mcp server starting", "root", root, "version", version)
	srv := mcpserver.NewServer(svc, root, callLog, logger)
	if err := srv.ServeStdio(); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

func startMetricsServer(addr string, reg *prometheus.Registry, logger *slog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("metrics server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", "error", err)
		}
	}()
	return srv
}
