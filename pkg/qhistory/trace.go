package qhistory

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dan-solli/qhistory/pkg/trace"
)

// operation collects timing for one command while it runs.
// Stage names are stable:
//   - "parse": Command line parsing and argument validation
//   - "execute": Store operation, including energy propagation
type operation struct {
	id        string
	sessionID string
	seq       int64
	name      string
	args      []string
	start     time.Time
	spans     []span
}

// span is a completed stage with its full-precision duration.
type span struct {
	trace.SpanRecord
	duration time.Duration
}

func newOperation(sessionID string, seq int64) *operation {
	return &operation{
		id:        uuid.New().String(),
		sessionID: sessionID,
		seq:       seq,
		name:      "invalid",
		start:     time.Now(),
		spans:     make([]span, 0, 2),
	}
}

// addSpan appends a completed span to the operation
func (o *operation) addSpan(s span) {
	o.spans = append(o.spans, s)
}

func (o *operation) elapsed() time.Duration {
	return time.Since(o.start)
}

// record builds the exported form of the operation.
func (o *operation) record(status, errType string) *trace.TraceRecord {
	spans := make([]trace.SpanRecord, len(o.spans))
	for i, s := range o.spans {
		spans[i] = s.SpanRecord
	}
	return &trace.TraceRecord{
		Timestamp:   o.start,
		SessionID:   o.sessionID,
		OperationID: o.id,
		Operation:   o.name,
		DurationUs:  o.elapsed().Microseconds(),
		Status:      status,
		Spans:       spans,
		ErrorType:   errType,
	}
}

// spanTimer is a helper for measuring span duration
type spanTimer struct {
	name  string
	start time.Time
}

// newSpanTimer creates a timer for a named span
func newSpanTimer(name string) *spanTimer {
	return &spanTimer{name: name, start: time.Now()}
}

// finish completes the span
func (st *spanTimer) finish(err error, counters map[string]int64) span {
	d := time.Since(st.start)
	return span{
		SpanRecord: trace.SpanRecord{
			Name:       st.name,
			DurationUs: d.Microseconds(),
			OK:         err == nil,
			ErrorType:  ClassifyError(err),
			Counters:   counters,
		},
		duration: d,
	}
}

// splitArgs recovers the arguments of a line that failed to parse, for the journal.
func splitArgs(line string) []string {
	fields := strings.Fields(line)
	if len(fields) <= 1 {
		return nil
	}
	return fields[1:]
}
