package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/filetools/internal/allocator"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadAppliesOverrides(t *testing.T) {
	path := writeConfig(t, "generator:\n  chunk_size: 4MB\nlogging:\n  level: warn\n")

	ctx := NewContext()
	require.NoError(t, ctx.Load(path, true, "error"))
	t.Cleanup(func() { _ = ctx.Close() })

	assert.True(t, ctx.Settings.Debug)
	assert.Equal(t, "error", ctx.Settings.Logging.Level)
	assert.Equal(t, int64(4<<20), ctx.Settings.Generator.ChunkSizeBytes())
	assert.Equal(t, path, ctx.Settings.ConfigFile)
}

func TestLoadRejectsInvalidLevelOverride(t *testing.T) {
	path := writeConfig(t, "debug: false\n")

	ctx := NewContext()
	require.Error(t, ctx.Load(path, false, "loud"))
}

func TestLoadMissingExplicitFile(t *testing.T) {
	ctx := NewContext()
	require.Error(t, ctx.Load(filepath.Join(t.TempDir(), "missing.yaml"), false, ""))
}

func TestConstructorsUseSettings(t *testing.T) {
	t.Parallel()

	ctx := NewContext()
	ctx.Settings.Generator.CheckFreeSpace = false

	alloc := ctx.Allocator(0)
	assert.Equal(t, ctx.Settings.Generator.ChunkSizeBytes(), alloc.ChunkSize())
	assert.Equal(t, int64(1024), ctx.Allocator(1024).ChunkSize())
	assert.Equal(t, int64(allocator.DefaultChunkSize), ctx.Settings.Generator.ChunkSizeBytes())

	enum, err := ctx.Enumerator()
	require.NoError(t, err)
	assert.NotNil(t, enum)

	assert.NotNil(t, ctx.Generator(alloc, enum))
	assert.NotNil(t, ctx.Poller(enum))
}

func TestEnableMetricsIsIdempotent(t *testing.T) {
	t.Parallel()

	ctx := NewContext()
	require.NoError(t, ctx.EnableMetrics())
	first := ctx.Metrics
	require.NoError(t, ctx.EnableMetrics())
	assert.Same(t, first, ctx.Metrics)

	enum, err := ctx.Enumerator()
	require.NoError(t, err)
	assert.NotNil(t, enum)
}

func TestEnumeratorRejectsUnknownSource(t *testing.T) {
	t.Parallel()

	ctx := NewContext()
	ctx.Settings.Volumes.Source = "smoke-signals"
	_, err := ctx.Enumerator()
	require.Error(t, err)
}
