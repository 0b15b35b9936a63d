// Package main provides the qhistory CLI.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dan-solli/qhistory/pkg/command"
	"github.com/dan-solli/qhistory/pkg/metrics"
	"github.com/dan-solli/qhistory/pkg/qhistory"
)

var rootCmd = &cobra.Command{
	Use:   "qhistory [input-file]",
	Short: "Track quantum particle histories and their energies",
	Long: `qhistory reads history commands (DECLARE, REMOVE, VALID, ENERGY, EQUAL)
one per line from the input file or stdin, and writes one reply per command.
Replies go to stdout; ERROR goes to stderr.`,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runRoot,
}

var (
	configPath  string
	logLevel    string
	metricsOn   bool
	metricsAddr string
	tracePath   string
	journalPath string
)

func init() {
	bindFlags(rootCmd)
}

func bindFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configPath, "config", "", "Path to a YAML config file")
	cmd.Flags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
	cmd.Flags().BoolVar(&metricsOn, "metrics", false, "Serve Prometheus metrics")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Metrics listen address (default :9464)")
	cmd.Flags().StringVar(&tracePath, "trace", "", "Write JSON Lines command traces to this file")
	cmd.Flags().StringVar(&journalPath, "journal", "", "Record commands in this SQLite database")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// resolveConfig layers the config file, environment and flags, in that order.
func resolveConfig(cmd *cobra.Command, lookup func(string) (string, bool)) (qhistory.Config, error) {
	var cfg qhistory.Config
	if configPath != "" {
		if err := loadConfigFile(configPath, &cfg); err != nil {
			return cfg, err
		}
	}
	if err := applyEnv(&cfg, lookup); err != nil {
		return cfg, err
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.LogLevel = logLevel
	}
	if flags.Changed("metrics") {
		cfg.MetricsEnabled = metricsOn
	}
	if flags.Changed("metrics-addr") {
		cfg.MetricsAddr = metricsAddr
	}
	if flags.Changed("trace") {
		cfg.TracePath = tracePath
	}
	if flags.Changed("journal") {
		cfg.JournalPath = journalPath
	}

	cfg.ApplyDefaults()
	return cfg, nil
}

func runRoot(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, os.LookupEnv)
	if err != nil {
		return err
	}

	level, err := parseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	var in io.Reader = os.Stdin
	if len(args) == 1 {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("opening input: %w", err)
		}
		defer f.Close()
		in = f
	}

	engine, err := qhistory.New(cfg)
	if err != nil {
		return err
	}
	engine.WithLogger(logger)
	defer func() {
		if err := engine.Close(); err != nil {
			logger.Warn("close engine", "error", err)
		}
	}()

	if mc, ok := engine.Metrics().(*metrics.MetricsCollector); ok {
		srv := serveMetrics(cfg.MetricsAddr, mc, logger)
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(ctx)
		}()
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The printer flushes after every reply.
	out := bufio.NewWriter(os.Stdout)
	defer out.Flush()

	logger.Info("session started", "session_id", engine.SessionID())
	err = engine.Run(ctx, in, command.NewPrinter(out, os.Stderr))
	switch {
	case errors.Is(err, context.Canceled) && ctx.Err() != nil:
		logger.Info("session interrupted", "session_id", engine.SessionID())
	case err != nil:
		return fmt.Errorf("running commands: %w", err)
	}
	if err := out.Flush(); err != nil {
		return fmt.Errorf("writing replies: %w", err)
	}
	stats := engine.Stats()
	logger.Info("session finished", "nodes", stats.Nodes, "edges", stats.Edges)
	return nil
}

func serveMetrics(addr string, mc *metrics.MetricsCollector, logger *slog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", mc.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("metrics server stopped", "addr", addr, "error", err)
		}
	}()
	logger.Info("serving metrics", "addr", addr)
	return srv
}
