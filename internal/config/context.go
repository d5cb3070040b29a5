// Package config holds the application context shared by the CLI commands: the
// loaded settings, the central logger and optional metrics, plus constructors that
// pass the settings explicitly into the core packages.
package config

import (
	"io"
	"os"

	"github.com/tphakala/filetools/internal/allocator"
	"github.com/tphakala/filetools/internal/conf"
	"github.com/tphakala/filetools/internal/errors"
	"github.com/tphakala/filetools/internal/filegen"
	"github.com/tphakala/filetools/internal/logger"
	"github.com/tphakala/filetools/internal/monitor"
	"github.com/tphakala/filetools/internal/observability"
	"github.com/tphakala/filetools/internal/volumes"
)

// Context holds the overall application state for one CLI invocation
type Context struct {
	Settings *conf.Settings
	Metrics  *observability.Metrics
	Out      io.Writer
	ErrOut   io.Writer

	logger *logger.CentralLogger
}

// NewContext creates a Context writing to stdout/stderr with default settings
func NewContext() *Context {
	return &Context{
		Settings: conf.Defaults(),
		Out:      os.Stdout,
		ErrOut:   os.Stderr,
	}
}

// Load reads the configuration and installs the global logger. debug and
// logLevel override the configured values when set.
func (c *Context) Load(configFile string, debug bool, logLevel string) error {
	settings, err := conf.Load(configFile)
	if err != nil {
		return err
	}
	if debug {
		settings.Debug = true
	}
	if logLevel != "" {
		settings.Logging.Level = logLevel
		if err := conf.ValidateSettings(settings); err != nil {
			return err
		}
	}
	c.Settings = settings

	central, err := logger.NewCentralLogger(settings.LoggingConfig())
	if err != nil {
		return errors.New(err).
			Component("config").
			Category(errors.CategoryConfiguration).
			Context("operation", "init_logger").
			Build()
	}
	c.logger = central
	logger.SetGlobal(central)
	return nil
}

// EnableMetrics creates the metrics registry. Components built afterwards record into it.
func (c *Context) EnableMetrics() error {
	if c.Metrics != nil {
		return nil
	}
	m, err := observability.NewMetrics()
	if err != nil {
		return err
	}
	c.Metrics = m
	return nil
}

// Enumerator builds a volume enumerator from the volume settings
func (c *Context) Enumerator() (*volumes.Enumerator, error) {
	src, err := volumes.NewSource(c.Settings.Volumes.Source)
	if err != nil {
		return nil, err
	}

	opts := []volumes.Option{
		volumes.WithSource(src),
		volumes.WithMinSize(uint64(c.Settings.Volumes.MinSizeBytes())), //nolint:gosec // validated positive
	}
	if c.Metrics != nil {
		opts = append(opts, volumes.WithRecorder(c.Metrics.Volumes))
	}
	return volumes.NewEnumerator(opts...), nil
}

// Allocator builds an allocator from the generator settings. chunkSize overrides
// the configured chunk size when positive.
func (c *Context) Allocator(chunkSize int64) *allocator.Allocator {
	if chunkSize <= 0 {
		chunkSize = c.Settings.Generator.ChunkSizeBytes()
	}
	opts := []allocator.Option{allocator.WithChunkSize(chunkSize)}
	if c.Metrics != nil {
		opts = append(opts, allocator.WithRecorder(c.Metrics.Allocator))
	}
	return allocator.New(opts...)
}

// Generator builds a file generator. lister is used for the free-space check and may be nil.
func (c *Context) Generator(alloc *allocator.Allocator, lister filegen.Lister) *filegen.Generator {
	opts := []filegen.Option{
		filegen.WithAllocator(alloc),
		filegen.WithFreeSpaceCheck(c.Settings.Generator.CheckFreeSpace),
	}
	if lister != nil {
		opts = append(opts, filegen.WithLister(lister))
	}
	return filegen.New(opts...)
}

// Poller builds a volume poller using the configured interval
func (c *Context) Poller(lister monitor.Lister) *monitor.Poller {
	return monitor.NewPoller(lister, monitor.WithInterval(c.Settings.Volumes.PollInterval))
}

// Close flushes and closes the logger installed by Load
func (c *Context) Close() error {
	if c.logger == nil {
		return nil
	}
	return c.logger.Close()
}
