// Package conf loads and validates the filetools configuration.
//
// Settings come from built-in defaults, an optional config.yaml and FILETOOLS_*
// environment variables, in increasing order of precedence.
package conf

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/moby/sys/atomicwriter"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/tphakala/filetools/internal/errors"
	"github.com/tphakala/filetools/internal/logger"
	"github.com/tphakala/filetools/internal/units"
)

// EnvPrefix prefixes environment overrides, e.g. FILETOOLS_GENERATOR_CHUNK_SIZE
const EnvPrefix = "FILETOOLS"

// Written config files stay readable by other users
const (
	configFilePermissions = 0o644
	configDirPermissions  = 0o755
)

// GetLogger returns the config package logger
func GetLogger() logger.Logger {
	return logger.Global().Module("config")
}

// GeneratorSettings controls file generation
type GeneratorSettings struct {
	ChunkSize      string `mapstructure:"chunk_size" yaml:"chunk_size"`             // write granularity, e.g. "100MB"
	DefaultUnit    string `mapstructure:"default_unit" yaml:"default_unit"`         // unit used when none is given
	CheckFreeSpace bool   `mapstructure:"check_free_space" yaml:"check_free_space"` // refuse requests larger than the free space

	chunkSizeBytes int64
}

// ChunkSizeBytes returns the parsed chunk size. Valid after ValidateSettings.
func (g *GeneratorSettings) ChunkSizeBytes() int64 {
	return g.chunkSizeBytes
}

// VolumeSettings controls volume enumeration and polling
type VolumeSettings struct {
	Source       string        `mapstructure:"source" yaml:"source"`               // gopsutil or mountinfo
	MinSize      string        `mapstructure:"min_size" yaml:"min_size"`           // pseudo-device threshold, e.g. "1MB"
	PollInterval time.Duration `mapstructure:"poll_interval" yaml:"poll_interval"` // refresh cadence for watchers
	DisplayUnit  string        `mapstructure:"display_unit" yaml:"display_unit"`   // unit for sizes in output

	minSizeBytes int64
}

// MinSizeBytes returns the parsed minimum volume size. Valid after ValidateSettings.
func (v *VolumeSettings) MinSizeBytes() int64 {
	return v.minSizeBytes
}

// ServerSettings controls the HTTP API
type ServerSettings struct {
	Listen  string        `mapstructure:"listen" yaml:"listen"`   // listen address
	JobTTL  time.Duration `mapstructure:"job_ttl" yaml:"job_ttl"` // how long finished jobs stay queryable
	Metrics bool          `mapstructure:"metrics" yaml:"metrics"` // expose /metrics
}

// LogFileSettings controls the optional JSON log file
type LogFileSettings struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Path    string `mapstructure:"path" yaml:"path"`
}

// LogSettings controls logging
type LogSettings struct {
	Level    string          `mapstructure:"level" yaml:"level"`       // trace, debug, info, warn or error
	Timezone string          `mapstructure:"timezone" yaml:"timezone"` // "Local", "UTC" or an IANA name
	File     LogFileSettings `mapstructure:"file" yaml:"file"`
}

// Settings is the complete filetools configuration
type Settings struct {
	Debug     bool              `mapstructure:"debug" yaml:"debug"`
	Generator GeneratorSettings `mapstructure:"generator" yaml:"generator"`
	Volumes   VolumeSettings    `mapstructure:"volumes" yaml:"volumes"`
	Server    ServerSettings    `mapstructure:"server" yaml:"server"`
	Logging   LogSettings       `mapstructure:"logging" yaml:"logging"`

	// ConfigFile is the file the settings were read from, empty when none was found
	ConfigFile string `mapstructure:"-" yaml:"-"`
}

// DefaultUnit returns the parsed generator default unit. Valid after ValidateSettings.
func (s *Settings) DefaultUnit() units.Unit {
	u, _ := units.ParseUnit(s.Generator.DefaultUnit)
	return u
}

// DisplayUnit returns the parsed volume display unit. Valid after ValidateSettings.
func (s *Settings) DisplayUnit() units.Unit {
	u, _ := units.ParseUnit(s.Volumes.DisplayUnit)
	return u
}

// Load reads the configuration. An empty configFile searches the default config
// paths; a missing file there is not an error and leaves the defaults in place.
// An explicit configFile must exist.
func Load(configFile string) (*Settings, error) {
	v, err := newViper(configFile)
	if err != nil {
		return nil, err
	}

	settings := &Settings{ConfigFile: v.ConfigFileUsed()}
	if err := v.Unmarshal(settings); err != nil {
		return nil, errors.New(err).
			Component("config").
			Category(errors.CategoryConfiguration).
			Context("operation", "unmarshal").
			Build()
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, errors.New(err).
			Component("config").
			Category(errors.CategoryConfiguration).
			Context("config_file", settings.ConfigFile).
			Build()
	}

	return settings, nil
}

// Defaults returns validated settings built only from defaults
func Defaults() *Settings {
	v := viper.New()
	setDefaultConfig(v)

	settings := &Settings{}
	if err := v.Unmarshal(settings); err != nil {
		panic("default configuration does not unmarshal: " + err.Error())
	}
	if err := ValidateSettings(settings); err != nil {
		panic("default configuration is invalid: " + err.Error())
	}
	return settings
}

// newViper creates a viper instance with defaults, env overrides and the config file
func newViper(configFile string) (*viper.Viper, error) {
	v := viper.New()
	setDefaultConfig(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		for _, path := range GetDefaultConfigPaths() {
			v.AddConfigPath(path)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile == "" && errors.As(err, &notFound) {
			GetLogger().Debug("No config file found, using defaults")
			return v, nil
		}
		return nil, errors.New(err).
			Component("config").
			Category(errors.CategoryConfiguration).
			Context("operation", "read_config").
			Context("config_file", configFile).
			Build()
	}

	GetLogger().Debug("Config file loaded", logger.String("path", v.ConfigFileUsed()))
	return v, nil
}

// YAML renders the settings as a YAML document
func (s *Settings) YAML() ([]byte, error) {
	data, err := yaml.Marshal(s)
	if err != nil {
		return nil, errors.New(err).
			Component("config").
			Category(errors.CategoryConfiguration).
			Context("operation", "marshal").
			Build()
	}
	return data, nil
}

// WriteYAML atomically writes the settings to path, creating its directory
func (s *Settings) WriteYAML(path string) error {
	data, err := s.YAML()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), configDirPermissions); err != nil {
		return errors.New(err).
			Component("config").
			Category(errors.CategoryFileIO).
			Context("path", filepath.Dir(path)).
			Build()
	}

	if err := atomicwriter.WriteFile(path, data, configFilePermissions); err != nil {
		return errors.New(err).
			Component("config").
			Category(errors.CategoryFileIO).
			FileContext(path, int64(len(data))).
			Build()
	}
	return nil
}

// LoggingConfig converts the settings into a logger configuration.
// Debug forces the debug level on the console.
func (s *Settings) LoggingConfig() *logger.LoggingConfig {
	level := s.Logging.Level
	if s.Debug {
		level = string(logger.LogLevelDebug)
	}

	cfg := &logger.LoggingConfig{
		DefaultLevel: level,
		Timezone:     s.Logging.Timezone,
		Console:      &logger.ConsoleOutput{Enabled: true, Level: level},
	}
	if s.Logging.File.Enabled {
		cfg.FileOutput = &logger.FileOutput{
			Enabled: true,
			Path:    s.Logging.File.Path,
			Level:   level,
		}
	}
	return cfg
}
