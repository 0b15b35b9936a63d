package metrics

import (
	"context"
	"time"
)

// Collector is the interface for metrics collection.
// Implementations include the Prometheus-backed collector and the no-op collector.
type Collector interface {
	RecordOperation(ctx context.Context, operation string, status string, duration time.Duration)
	RecordStage(ctx context.Context, operation string, stage string, duration time.Duration)
	RecordError(ctx context.Context, operation string, errorType string)
	SetStorageCount(ctx context.Context, storageType string, count int64)
}

// Compile-time interface checks
var (
	_ Collector = (*MetricsCollector)(nil)
	_ Collector = (*NoopCollector)(nil)
)
