package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCmd(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "qhistory"}
	bindFlags(cmd)
	require.NoError(t, cmd.ParseFlags(args))
	return cmd
}

func envMap(m map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

func TestResolveConfig_Defaults(t *testing.T) {
	cfg, err := resolveConfig(newTestCmd(t), envMap(nil))
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.LogLevel)
	assert.False(t, cfg.MetricsEnabled)
	assert.Equal(t, ":9464", cfg.MetricsAddr)
	assert.Empty(t, cfg.TracePath)
	assert.Empty(t, cfg.JournalPath)
}

func TestResolveConfig_Layering(t *testing.T) {
	path := filepath.Join(t.TempDir(), "qhistory.yaml")
	yamlBody := `log_level: info
metrics_enabled: true
metrics_addr: ":9000"
trace_path: file-trace.jsonl
trace_max_rotated_files: 2
journal_path: file.db
`
	require.NoError(t, os.WriteFile(path, []byte(yamlBody), 0o600))

	cmd := newTestCmd(t, "--config", path, "--journal", "flag.db")
	cfg, err := resolveConfig(cmd, envMap(map[string]string{
		"QHISTORY_TRACE":   "env-trace.jsonl",
		"QHISTORY_JOURNAL": "env.db",
	}))
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.True(t, cfg.MetricsEnabled)
	assert.Equal(t, ":9000", cfg.MetricsAddr)
	assert.Equal(t, 2, cfg.TraceMaxRotatedFiles)
	assert.Equal(t, "env-trace.jsonl", cfg.TracePath)
	assert.Equal(t, "flag.db", cfg.JournalPath)
}

func TestResolveConfig_Errors(t *testing.T) {
	_, err := resolveConfig(newTestCmd(t, "--config", filepath.Join(t.TempDir(), "missing.yaml")), envMap(nil))
	assert.Error(t, err)

	_, err = resolveConfig(newTestCmd(t), envMap(map[string]string{"QHISTORY_METRICS": "maybe"}))
	assert.Error(t, err)
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"ERROR", slog.LevelError},
	}
	for _, tt := range tests {
		got, err := parseLevel(tt.name)
		require.NoError(t, err, tt.name)
		assert.Equal(t, tt.want, got, tt.name)
	}

	_, err := parseLevel("loud")
	assert.Error(t, err)
}
