// conf/validate.go

package conf

import (
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/tphakala/filetools/internal/errors"
	"github.com/tphakala/filetools/internal/units"
	"github.com/tphakala/filetools/internal/volumes"
)

// ValidationError represents a collection of validation errors
type ValidationError struct {
	Errors []string
}

// Error returns a string representation of the validation errors
func (ve ValidationError) Error() string {
	return fmt.Sprintf("validation errors: %s", strings.Join(ve.Errors, "; "))
}

// ErrorCategory implements errors.CategorizedError
func (ve ValidationError) ErrorCategory() errors.ErrorCategory {
	return errors.CategoryConfiguration
}

// ValidateSettings validates the entire Settings struct and caches parsed sizes
func ValidateSettings(settings *Settings) error {
	ve := ValidationError{}

	for _, validate := range []func(*Settings) []string{
		validateGeneratorSettings,
		validateVolumeSettings,
		validateServerSettings,
		validateLogSettings,
	} {
		ve.Errors = append(ve.Errors, validate(settings)...)
	}

	if len(ve.Errors) > 0 {
		return ve
	}
	return nil
}

func validateGeneratorSettings(settings *Settings) []string {
	var problems []string
	g := &settings.Generator

	size, err := units.ParseSize(g.ChunkSize)
	switch {
	case err != nil:
		problems = append(problems, fmt.Sprintf("generator.chunk_size: %v", err))
	case size <= 0:
		problems = append(problems, "generator.chunk_size must be greater than zero")
	default:
		g.chunkSizeBytes = size
	}

	if _, err := units.ParseUnit(g.DefaultUnit); err != nil {
		problems = append(problems, fmt.Sprintf("generator.default_unit: %v", err))
	}
	return problems
}

func validateVolumeSettings(settings *Settings) []string {
	var problems []string
	v := &settings.Volumes

	if _, err := volumes.NewSource(v.Source); err != nil {
		problems = append(problems, fmt.Sprintf("volumes.source: %v", err))
	}

	size, err := units.ParseSize(v.MinSize)
	if err != nil {
		problems = append(problems, fmt.Sprintf("volumes.min_size: %v", err))
	} else {
		v.minSizeBytes = size
	}

	if v.PollInterval < 100*time.Millisecond {
		problems = append(problems, fmt.Sprintf("volumes.poll_interval must be at least 100ms, got %s", v.PollInterval))
	}
	if _, err := units.ParseUnit(v.DisplayUnit); err != nil {
		problems = append(problems, fmt.Sprintf("volumes.display_unit: %v", err))
	}
	return problems
}

func validateServerSettings(settings *Settings) []string {
	var problems []string
	s := &settings.Server

	if _, _, err := net.SplitHostPort(s.Listen); err != nil {
		problems = append(problems, fmt.Sprintf("server.listen: invalid address %q: %v", s.Listen, err))
	}
	if s.JobTTL <= 0 {
		problems = append(problems, "server.job_ttl must be greater than zero")
	}
	return problems
}

func validateLogSettings(settings *Settings) []string {
	var problems []string
	l := &settings.Logging

	switch strings.ToLower(l.Level) {
	case "trace", "debug", "info", "warn", "error":
		l.Level = strings.ToLower(l.Level)
	default:
		problems = append(problems, fmt.Sprintf("logging.level: unknown level %q", l.Level))
	}

	if l.Timezone != "" && l.Timezone != "Local" {
		if _, err := time.LoadLocation(l.Timezone); err != nil {
			problems = append(problems, fmt.Sprintf("logging.timezone: %v", err))
		}
	}
	if l.File.Enabled && l.File.Path == "" {
		problems = append(problems, "logging.file.path is required when file logging is enabled")
	}
	return problems
}
