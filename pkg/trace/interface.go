// Package trace exports one structured record per executed history command.
package trace

import (
	"context"
	"time"
)

// Exporter defines the interface for exporting command traces.
// Implementations must be safe for concurrent use.
type Exporter interface {
	// Export writes a trace record to the configured destination.
	Export(ctx context.Context, record *TraceRecord) error

	// Close flushes any buffered records and releases resources.
	Close() error
}

// TraceRecord is the exported form of one command.
// It never carries history contents, only their lengths.
type TraceRecord struct {
	// Timestamp is the command start time
	Timestamp time.Time `json:"timestamp"`

	// SessionID identifies the engine instance that ran the command
	SessionID string `json:"sessionId,omitempty"`

	// OperationID uniquely identifies this command (for correlation with the journal)
	OperationID string `json:"operationId"`

	// Operation is the command type: "declare", "remove", "valid", "energy_set", "energy_get", "equal", or "invalid" when parsing failed
	Operation string `json:"operation"`

	// DurationUs is the total command duration in microseconds
	DurationUs int64 `json:"durationUs"`

	// Status is "success" or "error"
	Status string `json:"status"`

	// Spans contains per-stage timing and status
	Spans []SpanRecord `json:"spans"`

	// ErrorType classifies the error (if Status == "error")
	// Values: syntax, invalid_history, unknown_history, invalid_number, no_energy, io, unknown
	ErrorType string `json:"errorType,omitempty"`
}

// SpanRecord represents a single stage within a command.
type SpanRecord struct {
	// Name is the stage name (parse, execute)
	Name string `json:"name"`

	DurationUs int64 `json:"durationUs"`

	// OK indicates success (true) or failure (false)
	OK bool `json:"ok"`

	ErrorType string `json:"errorType,omitempty"`

	// Counters provides stage-specific values (lineLength, classSize, nodes, edges)
	Counters map[string]int64 `json:"counters,omitempty"`
}

// FileExporterOption configures a FileExporter.
type FileExporterOption func(*FileExporter)
