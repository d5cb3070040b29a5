package logger_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tphakala/filetools/internal/logger"
)

// decodeLines parses JSON log lines from buf
func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()

	var entries []map[string]any
	scanner := bufio.NewScanner(buf)
	for scanner.Scan() {
		var entry map[string]any
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &entry))
		entries = append(entries, entry)
	}
	return entries
}

func TestSlogLoggerStructuredFields(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	log := logger.NewSlogLogger(buf, logger.LogLevelDebug, time.UTC).Module("allocator")

	log.Info("Allocation finished",
		logger.String("path", "/tmp/a.bin"),
		logger.Int64("size_bytes", 5120),
		logger.Float64("ratio", 0.123456),
		logger.Duration("elapsed", 1500*time.Millisecond),
	)

	entries := decodeLines(t, buf)
	require.Len(t, entries, 1)
	entry := entries[0]
	assert.Equal(t, "Allocation finished", entry["msg"])
	assert.Equal(t, "allocator", entry["module"])
	assert.Equal(t, "/tmp/a.bin", entry["path"])
	assert.InDelta(t, 5120, entry["size_bytes"], 0)
	assert.InDelta(t, 0.123, entry["ratio"], 0.0001)
	assert.Equal(t, "1.5s", entry["elapsed"])
}

func TestSlogLoggerLevelFiltering(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	log := logger.NewSlogLogger(buf, logger.LogLevelWarn, time.UTC)

	log.Debug("hidden")
	log.Info("hidden")
	log.Log(logger.LogLevelInfo, "hidden")
	log.Warn("shown")
	log.Error("shown", logger.Error(os.ErrNotExist))

	entries := decodeLines(t, buf)
	require.Len(t, entries, 2)
	assert.Equal(t, "file does not exist", entries[1]["error"])
}

func TestModuleAndWithAreImmutable(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	base := logger.NewSlogLogger(buf, logger.LogLevelInfo, time.UTC).Module("volumes")
	child := base.With(logger.String("platform", "darwin")).Module("policy")

	base.Info("parent")
	child.Info("child")

	entries := decodeLines(t, buf)
	require.Len(t, entries, 2)
	assert.Equal(t, "volumes", entries[0]["module"])
	assert.NotContains(t, entries[0], "platform")
	assert.Equal(t, "volumes.policy", entries[1]["module"])
	assert.Equal(t, "darwin", entries[1]["platform"])
}

func TestWithContextAddsTraceID(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	log := logger.NewSlogLogger(buf, logger.LogLevelInfo, time.UTC)

	ctx := logger.WithTraceID(context.Background(), "job-42")
	log.WithContext(ctx).Info("with trace")
	log.WithContext(context.Background()).Info("without trace")

	entries := decodeLines(t, buf)
	require.Len(t, entries, 2)
	assert.Equal(t, "job-42", entries[0]["trace_id"])
	assert.NotContains(t, entries[1], "trace_id")
}

func TestCentralLoggerFileOutput(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "filetools.log")
	cl, err := logger.NewCentralLogger(&logger.LoggingConfig{
		DefaultLevel: "debug",
		Timezone:     "UTC",
		Console:      &logger.ConsoleOutput{Enabled: false},
		FileOutput:   &logger.FileOutput{Enabled: true, Path: path},
	})
	require.NoError(t, err)

	cl.Module("monitor").Debug("Poll completed", logger.Int("volumes", 3))
	require.NoError(t, cl.Flush())
	require.NoError(t, cl.Close())
	require.NoError(t, cl.Close(), "close must be idempotent")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	line := strings.TrimSpace(string(data))
	assert.Contains(t, line, `"module":"monitor"`)
	assert.Contains(t, line, `"volumes":3`)
	assert.Contains(t, line, `Z"`, "timestamps are written in UTC")
}

func TestCentralLoggerInvalidTimezone(t *testing.T) {
	t.Parallel()

	_, err := logger.NewCentralLogger(&logger.LoggingConfig{Timezone: "Mars/Olympus"})
	require.Error(t, err)

	_, err = logger.NewCentralLogger(nil)
	require.Error(t, err)
}

func TestBufferedFileWriterClosedWrite(t *testing.T) {
	t.Parallel()

	w, err := logger.NewBufferedFileWriter(filepath.Join(t.TempDir(), "w.log"), logger.WithFlushInterval(0))
	require.NoError(t, err)

	_, err = w.Write([]byte("line\n"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	_, err = w.Write([]byte("late\n"))
	require.Error(t, err)
}
