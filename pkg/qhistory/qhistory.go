// Package qhistory runs history engine commands with logging, metrics,
// tracing and an optional command journal around them.
package qhistory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/dan-solli/qhistory/pkg/command"
	"github.com/dan-solli/qhistory/pkg/history"
	"github.com/dan-solli/qhistory/pkg/journal"
	"github.com/dan-solli/qhistory/pkg/metrics"
	"github.com/dan-solli/qhistory/pkg/trace"
)

// Config holds configuration for an Engine
type Config struct {
	// Log level for the CLI handler: debug, info, warn, error (default: "warn")
	LogLevel string `yaml:"log_level"`

	// Enable Prometheus metrics (default: false)
	MetricsEnabled bool `yaml:"metrics_enabled"`

	// Address serving /metrics when metrics are enabled (default: ":9464")
	MetricsAddr string `yaml:"metrics_addr"`

	// JSON Lines trace file; empty disables tracing
	TracePath string `yaml:"trace_path"`

	// Trace file size before rotation (default: 10MB)
	TraceMaxSizeBytes int64 `yaml:"trace_max_size_bytes"`

	// Rotated trace files to keep (default: 5)
	TraceMaxRotatedFiles int `yaml:"trace_max_rotated_files"`

	// SQLite command journal; empty disables the journal
	JournalPath string `yaml:"journal_path"`
}

// ApplyDefaults fills unset fields with their defaults.
func (c *Config) ApplyDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "warn"
	}
	if c.MetricsAddr == "" {
		c.MetricsAddr = ":9464"
	}
	if c.TraceMaxSizeBytes <= 0 {
		c.TraceMaxSizeBytes = 10 * 1024 * 1024
	}
	if c.TraceMaxRotatedFiles <= 0 {
		c.TraceMaxRotatedFiles = 5
	}
}

// Engine owns one history store and serializes every command against it.
type Engine struct {
	config    Config
	store     *history.Store
	sessionID string
	seq       int64
	mu        sync.Mutex

	logger  *slog.Logger
	metrics metrics.Collector
	tracer  trace.Exporter
	journal journal.Journal // nil when disabled
}

// New creates an Engine with sinks built from cfg.
func New(cfg Config) (*Engine, error) {
	cfg.ApplyDefaults()

	var collector metrics.Collector = metrics.NewNoopCollector()
	if cfg.MetricsEnabled {
		collector = metrics.NewCollector()
	}

	exporter, err := trace.NewFileExporter(cfg.TracePath,
		trace.WithMaxSize(cfg.TraceMaxSizeBytes),
		trace.WithMaxRotatedFiles(cfg.TraceMaxRotatedFiles),
	)
	if err != nil {
		return nil, fmt.Errorf("create trace exporter: %w", err)
	}

	var j journal.Journal
	if cfg.JournalPath != "" {
		sj, err := journal.NewSQLiteJournal(cfg.JournalPath)
		if err != nil {
			exporter.Close()
			return nil, fmt.Errorf("open journal: %w", err)
		}
		j = sj
	}

	return NewWithSinks(cfg, collector, exporter, j), nil
}

// NewWithSinks creates an Engine with caller-provided sinks.
// A nil collector or exporter disables that sink; a nil journal disables journaling.
func NewWithSinks(cfg Config, collector metrics.Collector, exporter trace.Exporter, j journal.Journal) *Engine {
	cfg.ApplyDefaults()
	if collector == nil {
		collector = metrics.NewNoopCollector()
	}
	if exporter == nil {
		exporter = &trace.NoopExporter{}
	}

	return &Engine{
		config:    cfg,
		store:     history.NewStore(),
		sessionID: uuid.New().String(),
		metrics:   collector,
		tracer:    exporter,
		journal:   j,
	}
}

// WithLogger sets the logger and returns the engine for chaining.
// A nil logger disables logging.
func (e *Engine) WithLogger(logger *slog.Logger) *Engine {
	e.logger = logger
	return e
}

// SessionID identifies this engine in traces and the journal.
func (e *Engine) SessionID() string {
	return e.sessionID
}

// Metrics returns the configured collector.
func (e *Engine) Metrics() metrics.Collector {
	return e.metrics
}

// Stats returns the current size of the history store.
func (e *Engine) Stats() history.Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.Stats()
}

// Run executes every line of in, printing replies through p, until the
// input ends or ctx is cancelled. Cancellation is noticed while waiting for
// input too. A final line without a newline is reported as ERROR and ends
// the run.
func (e *Engine) Run(ctx context.Context, in io.Reader, p *command.Printer) error {
	readCtx, stopReading := context.WithCancel(ctx)
	defer stopReading()
	lines := command.NewLineReader(in).Lines(readCtx)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		var next command.Line
		select {
		case <-ctx.Done():
			return ctx.Err()
		case l, ok := <-lines:
			if !ok {
				return ctx.Err()
			}
			next = l
		}

		line, err := next.Text, next.Err
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			e.readFailed(ctx, err)
			if perr := p.Error(); perr != nil {
				return fmt.Errorf("write reply: %w", perr)
			}
			if errors.Is(err, command.ErrUnexpectedEOF) {
				return nil
			}
			return err
		}

		if command.Skip(line) {
			continue
		}

		if err := p.Print(e.Exec(ctx, line)); err != nil {
			return fmt.Errorf("write reply: %w", err)
		}
	}
}

// Exec parses and executes a single command line (without its newline).
func (e *Engine) Exec(ctx context.Context, line string) command.Result {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.seq++
	op := newOperation(e.sessionID, e.seq)

	parse := newSpanTimer("parse")
	cmd, err := command.Parse(line)
	op.addSpan(parse.finish(err, map[string]int64{"lineLength": int64(len(line))}))
	if err != nil {
		op.args = splitArgs(line)
		res := command.Result{Err: err}
		e.finish(ctx, op, res)
		return res
	}

	op.name = cmd.Op.String()
	op.args = cmd.Args

	execute := newSpanTimer("execute")
	res := command.Execute(e.store, cmd)
	op.addSpan(execute.finish(res.Err, e.executeCounters(cmd, res)))

	e.finish(ctx, op, res)
	return res
}

// Close tears down the store and releases the trace exporter and journal.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.store.Reset()

	var errs []error
	if err := e.tracer.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close trace exporter: %w", err))
	}
	if e.journal != nil {
		if err := e.journal.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close journal: %w", err))
		}
	}
	return errors.Join(errs...)
}

func (e *Engine) executeCounters(cmd command.Command, res command.Result) map[string]int64 {
	stats := e.store.Stats()
	counters := map[string]int64{
		"nodes": stats.Nodes,
		"edges": stats.Edges,
	}
	if res.Err == nil && (cmd.Op == command.OpEnergySet || cmd.Op == command.OpEqual) {
		counters["classSize"] = int64(e.store.ClassSize(cmd.A))
	}
	return counters
}

// finish reports a completed command to every sink. Sink failures are
// logged and never change the command result.
func (e *Engine) finish(ctx context.Context, op *operation, res command.Result) {
	status := "success"
	errType := ClassifyError(res.Err)
	if res.Err != nil {
		status = "error"
		e.metrics.RecordError(ctx, op.name, errType)
		if e.logger != nil {
			e.logger.Debug("command rejected",
				"operation", op.name,
				"seq", op.seq,
				"error_type", errType,
				"error", res.Err,
			)
		}
	}

	for _, s := range op.spans {
		e.metrics.RecordStage(ctx, op.name, s.Name, s.duration)
	}
	e.metrics.RecordOperation(ctx, op.name, status, op.elapsed())

	stats := e.store.Stats()
	e.metrics.SetStorageCount(ctx, "nodes", stats.Nodes)
	e.metrics.SetStorageCount(ctx, "edges", stats.Edges)

	if err := e.tracer.Export(ctx, op.record(status, errType)); err != nil && e.logger != nil {
		e.logger.Warn("trace export failed", "operation", op.name, "error", err)
	}

	if e.journal != nil {
		entry := &journal.Entry{
			ID:        op.id,
			SessionID: e.sessionID,
			Seq:       op.seq,
			Operation: op.name,
			Args:      op.args,
			Status:    status,
			ErrorType: errType,
			CreatedAt: op.start,
		}
		if err := e.journal.Record(ctx, entry); err != nil && e.logger != nil {
			e.logger.Warn("journal record failed", "operation", op.name, "error", err)
		}
	}
}

// readFailed reports an input failure that prevented a command from being read.
func (e *Engine) readFailed(ctx context.Context, err error) {
	errType := ClassifyError(err)
	e.metrics.RecordError(ctx, "read", errType)
	if e.logger != nil {
		e.logger.Warn("input ended unexpectedly", "error_type", errType, "error", err)
	}
}
