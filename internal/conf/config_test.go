package conf

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/filetools/internal/errors"
	"github.com/tphakala/filetools/internal/units"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefaults(t *testing.T) {
	t.Parallel()

	s := Defaults()
	assert.Equal(t, int64(100<<20), s.Generator.ChunkSizeBytes())
	assert.Equal(t, units.GB, s.DefaultUnit())
	assert.True(t, s.Generator.CheckFreeSpace)
	assert.Equal(t, int64(1<<20), s.Volumes.MinSizeBytes())
	assert.Equal(t, time.Second, s.Volumes.PollInterval)
	assert.Equal(t, units.GB, s.DisplayUnit())
	assert.Equal(t, "127.0.0.1:7860", s.Server.Listen)
	assert.Equal(t, time.Hour, s.Server.JobTTL)
	assert.Equal(t, "info", s.Logging.Level)
	assert.False(t, s.Logging.File.Enabled)
}

func TestLoadConfigFile(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
generator:
  chunk_size: 8MB
  default_unit: mb
volumes:
  poll_interval: 2s
  display_unit: TB
server:
  job_ttl: 10m
logging:
  level: DEBUG
`)

	s, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, path, s.ConfigFile)
	assert.Equal(t, int64(8<<20), s.Generator.ChunkSizeBytes())
	assert.Equal(t, units.MB, s.DefaultUnit())
	assert.True(t, s.Generator.CheckFreeSpace, "unset keys keep their defaults")
	assert.Equal(t, 2*time.Second, s.Volumes.PollInterval)
	assert.Equal(t, units.TB, s.DisplayUnit())
	assert.Equal(t, 10*time.Minute, s.Server.JobTTL)
	assert.Equal(t, "debug", s.Logging.Level)
}

// Not parallel: t.Setenv
func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("FILETOOLS_GENERATOR_CHUNK_SIZE", "4MB")
	t.Setenv("FILETOOLS_SERVER_LISTEN", "0.0.0.0:9000")

	s, err := Load(writeConfig(t, "generator:\n  chunk_size: 8MB\n"))
	require.NoError(t, err)
	assert.Equal(t, int64(4<<20), s.Generator.ChunkSizeBytes())
	assert.Equal(t, "0.0.0.0:9000", s.Server.Listen)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryConfiguration))
}

func TestLoadInvalidSettings(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
generator:
  chunk_size: "0"
  default_unit: PB
volumes:
  source: wmi
  min_size: huge
  poll_interval: 1ms
server:
  listen: nope
logging:
  level: loud
  timezone: Mars/Olympus
`)

	_, err := Load(path)
	require.Error(t, err)

	var ve ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Len(t, ve.Errors, 8)
	assert.True(t, errors.IsCategory(err, errors.CategoryConfiguration))
}

func TestWriteYAMLRoundTrip(t *testing.T) {
	t.Parallel()

	s := Defaults()
	s.Generator.ChunkSize = "16MB"
	s.Server.JobTTL = 90 * time.Minute

	path := filepath.Join(t.TempDir(), "out.yaml")
	require.NoError(t, s.WriteYAML(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, int64(16<<20), loaded.Generator.ChunkSizeBytes())
	assert.Equal(t, 90*time.Minute, loaded.Server.JobTTL)
	assert.Equal(t, s.Volumes, loaded.Volumes)
}

func TestLoggingConfig(t *testing.T) {
	t.Parallel()

	s := Defaults()
	cfg := s.LoggingConfig()
	assert.Equal(t, "info", cfg.DefaultLevel)
	assert.Nil(t, cfg.FileOutput)

	s.Debug = true
	s.Logging.File.Enabled = true
	cfg = s.LoggingConfig()
	assert.Equal(t, "debug", cfg.Console.Level)
	require.NotNil(t, cfg.FileOutput)
	assert.Equal(t, "logs/filetools.log", cfg.FileOutput.Path)
}

func TestGetDefaultConfigPaths(t *testing.T) {
	t.Parallel()

	paths := GetDefaultConfigPaths()
	require.NotEmpty(t, paths)
	assert.Equal(t, ".", paths[0])
	assert.Equal(t, "config.yaml", filepath.Base(DefaultConfigFile()))
}
