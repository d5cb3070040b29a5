// conf/defaults.go default values for settings
package conf

import (
	"time"

	"github.com/spf13/viper"

	"github.com/tphakala/filetools/internal/logger"
)

// Sets default values for the configuration.
func setDefaultConfig(v *viper.Viper) {
	v.SetDefault("debug", false)

	v.SetDefault("generator.chunk_size", "100MB")
	v.SetDefault("generator.default_unit", "GB")
	v.SetDefault("generator.check_free_space", true)

	v.SetDefault("volumes.source", "gopsutil")
	v.SetDefault("volumes.min_size", "1MB")
	v.SetDefault("volumes.poll_interval", time.Second)
	v.SetDefault("volumes.display_unit", "GB")

	v.SetDefault("server.listen", "127.0.0.1:7860")
	v.SetDefault("server.job_ttl", time.Hour)
	v.SetDefault("server.metrics", true)

	v.SetDefault("logging.level", logger.DefaultLogLevel)
	v.SetDefault("logging.timezone", "Local")
	v.SetDefault("logging.file.enabled", false)
	v.SetDefault("logging.file.path", logger.DefaultLogPath)
}
