package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeWorkloadFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "workloads.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "s", cfg.TimeUnit)
	assert.Equal(t, "info", cfg.SummaryLevel)
	assert.False(t, cfg.EmitEach)
	assert.Empty(t, cfg.SinkPath)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("TRACKTIME_UNIT", "ms")
	t.Setenv("TRACKTIME_EMIT_EACH", "true")
	t.Setenv("TRACKTIME_SUMMARY_LEVEL", "debug")
	t.Setenv("TRACKTIME_SINK", "events.log")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "ms", cfg.TimeUnit)
	assert.True(t, cfg.EmitEach)
	assert.Equal(t, "debug", cfg.SummaryLevel)
	assert.Equal(t, "events.log", cfg.SinkPath)
}

func TestLoad_InvalidEmitEach(t *testing.T) {
	t.Setenv("TRACKTIME_EMIT_EACH", "sometimes")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TRACKTIME_EMIT_EACH")
}

func TestLoadWorkloads(t *testing.T) {
	path := writeWorkloadFile(t, `
workloads:
  - name: fetch-blocks
    level: debug
    iterations: 5
    duration: 25ms
    jitter: 10ms
  - name: persist
    fail_every: 3
`)

	workloads, err := LoadWorkloads(path)
	require.NoError(t, err)
	require.Len(t, workloads, 2)

	assert.Equal(t, "fetch-blocks", workloads[0].Name)
	assert.Equal(t, "debug", workloads[0].Level)
	assert.Equal(t, 5, workloads[0].Iterations)
	assert.Equal(t, Duration(25*time.Millisecond), workloads[0].Duration)
	assert.Equal(t, Duration(10*time.Millisecond), workloads[0].Jitter)

	// Defaults are applied to sparse entries.
	assert.Equal(t, "info", workloads[1].Level)
	assert.Equal(t, 1, workloads[1].Iterations)
	assert.Equal(t, 3, workloads[1].FailEvery)
}

func TestLoadWorkloads_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		errText string
	}{
		{
			name:    "empty document",
			content: "workloads: []\n",
			errText: "defines no workloads",
		},
		{
			name: "missing name",
			content: `
workloads:
  - level: info
`,
			errText: "missing a name",
		},
		{
			name: "bad duration",
			content: `
workloads:
  - name: x
    duration: fast
`,
			errText: "invalid duration",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeWorkloadFile(t, tt.content)
			_, err := LoadWorkloads(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errText)
		})
	}
}

func TestLoadWorkloads_MissingFile(t *testing.T) {
	_, err := LoadWorkloads(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}
