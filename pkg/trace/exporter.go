package trace

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

var (
	// ErrExporterClosed is returned by Export after Close.
	ErrExporterClosed = errors.New("trace exporter closed")

	// ErrIncompleteRecord is returned for records without an operation or operation id.
	ErrIncompleteRecord = errors.New("trace record needs an operation and an operation id")
)

// FileExporter appends command records to a JSON Lines file that only ever
// holds one session. A record from a new session, or one that would push
// the file past its size limit, first moves the current file aside as
// "<path>.<session>.<n>". Only the newest rotated files are kept.
type FileExporter struct {
	path            string
	maxSizeBytes    int64
	maxRotatedFiles int

	mu      sync.Mutex
	file    *os.File
	size    int64
	session string // session owning the current file; "" for content of an earlier run
	lastSeq int64  // suffix of the newest rotation, kept strictly increasing
	closed  bool
}

// WithMaxSize sets the file size that triggers rotation within a session (default: 10MB).
func WithMaxSize(bytes int64) FileExporterOption {
	return func(fe *FileExporter) {
		if bytes > 0 {
			fe.maxSizeBytes = bytes
		}
	}
}

// WithMaxRotatedFiles sets how many rotated files to keep (default: 5).
func WithMaxRotatedFiles(count int) FileExporterOption {
	return func(fe *FileExporter) {
		if count > 0 {
			fe.maxRotatedFiles = count
		}
	}
}

// NewFileExporter creates a file-based trace exporter.
// An empty path yields a NoopExporter.
func NewFileExporter(path string, opts ...FileExporterOption) (Exporter, error) {
	if path == "" {
		return &NoopExporter{}, nil
	}

	fe := &FileExporter{
		path:            path,
		maxSizeBytes:    10 * 1024 * 1024,
		maxRotatedFiles: 5,
	}
	for _, opt := range opts {
		opt(fe)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create trace directory: %w", err)
	}
	if err := fe.open(); err != nil {
		return nil, err
	}
	return fe, nil
}

// Export appends one command record.
func (fe *FileExporter) Export(ctx context.Context, record *TraceRecord) error {
	if record == nil || record.Operation == "" || record.OperationID == "" {
		return ErrIncompleteRecord
	}

	line, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode trace record %s: %w", record.OperationID, err)
	}
	line = append(line, '\n')

	fe.mu.Lock()
	defer fe.mu.Unlock()

	if fe.closed {
		return ErrExporterClosed
	}

	if fe.shouldRotate(record.SessionID, int64(len(line))) {
		if err := fe.rotate(); err != nil {
			return fmt.Errorf("rotate trace file: %w", err)
		}
	}

	n, err := fe.file.Write(line)
	fe.size += int64(n)
	if err != nil {
		return fmt.Errorf("write trace record %s: %w", record.OperationID, err)
	}
	fe.session = record.SessionID
	return nil
}

// Close syncs and closes the trace file.
func (fe *FileExporter) Close() error {
	fe.mu.Lock()
	defer fe.mu.Unlock()

	if fe.closed {
		return nil
	}
	fe.closed = true

	syncErr := fe.file.Sync()
	closeErr := fe.file.Close()
	if syncErr != nil {
		return fmt.Errorf("sync trace file: %w", syncErr)
	}
	return closeErr
}

// shouldRotate reports whether the current file must be moved aside before
// writing next bytes for session. Must be called with lock held.
func (fe *FileExporter) shouldRotate(session string, next int64) bool {
	if fe.size == 0 {
		return false
	}
	if session != fe.session {
		return true
	}
	return fe.size+next > fe.maxSizeBytes
}

func (fe *FileExporter) open() error {
	file, err := os.OpenFile(fe.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("open trace file: %w", err)
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return fmt.Errorf("stat trace file: %w", err)
	}
	fe.file = file
	fe.size = info.Size()
	fe.session = ""
	return nil
}

// rotate moves the current file aside, prunes old rotations and reopens.
// Must be called with lock held.
func (fe *FileExporter) rotate() error {
	if err := fe.file.Close(); err != nil {
		return fmt.Errorf("close trace file: %w", err)
	}

	seq := time.Now().UnixNano()
	if seq <= fe.lastSeq {
		seq = fe.lastSeq + 1
	}
	fe.lastSeq = seq

	target := fmt.Sprintf("%s.%s.%d", fe.path, sessionLabel(fe.session), seq)
	if err := os.Rename(fe.path, target); err != nil {
		return fmt.Errorf("move trace file aside: %w", err)
	}
	if err := fe.prune(); err != nil {
		return err
	}
	return fe.open()
}

// prune removes the oldest rotated files beyond maxRotatedFiles.
func (fe *FileExporter) prune() error {
	rotated, err := RotatedFiles(fe.path)
	if err != nil {
		return err
	}
	for len(rotated) > fe.maxRotatedFiles {
		if err := os.Remove(rotated[0]); err != nil {
			return fmt.Errorf("remove rotated trace file: %w", err)
		}
		rotated = rotated[1:]
	}
	return nil
}

// RotatedFiles lists the rotated files of the trace file at path, oldest first.
func RotatedFiles(path string) ([]string, error) {
	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list trace directory: %w", err)
	}

	type rotation struct {
		path string
		seq  int64
	}
	var found []rotation
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, base+".") {
			continue
		}
		dot := strings.LastIndexByte(name, '.')
		if dot <= len(base) {
			continue
		}
		seq, err := strconv.ParseInt(name[dot+1:], 10, 64)
		if err != nil {
			continue
		}
		found = append(found, rotation{path: filepath.Join(dir, name), seq: seq})
	}

	sort.Slice(found, func(i, j int) bool { return found[i].seq < found[j].seq })
	paths := make([]string, len(found))
	for i, r := range found {
		paths[i] = r.path
	}
	return paths, nil
}

// sessionLabel shortens a session id for use in a file name.
func sessionLabel(session string) string {
	if session == "" {
		return "previous"
	}
	if len(session) > 8 {
		return session[:8]
	}
	return session
}
