package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v2"
)

// Configuration represents the complete configuration for the atomicfs
// command-line tool and its optional metrics/health server. The write
// and streaming-write engines themselves take plain Options struct
// literals (see internal/atomicwrite, internal/streamwrite) and never
// read this type directly.
type Configuration struct {
	Global      GlobalConfig      `yaml:"global"`
	WriteBuffer WriteBufferConfig `yaml:"write_buffer"`
	Durability  DurabilityConfig  `yaml:"durability"`
	Monitoring  MonitoringConfig  `yaml:"monitoring"`
}

// GlobalConfig represents global application settings.
type GlobalConfig struct {
	LogLevel    string `yaml:"log_level"`
	LogFile     string `yaml:"log_file"`
	MetricsPort int    `yaml:"metrics_port"`
	HealthPort  int    `yaml:"health_port"`
	ProfilePort int    `yaml:"profile_port"`
}

// WriteBufferConfig sizes the buffer pool the streaming engine's
// buffer-pull and one-shot chunk-sequence APIs borrow from.
type WriteBufferConfig struct {
	PoolMaxBufferSize string        `yaml:"pool_max_buffer_size"`
	FlushInterval     time.Duration `yaml:"flush_interval"`
}

// DurabilityConfig selects the default durability mode new writes use
// when a caller doesn't override it per-call.
type DurabilityConfig struct {
	// Default is one of "full", "data_only", "none".
	Default string `yaml:"default"`
}

// MonitoringConfig represents monitoring settings.
type MonitoringConfig struct {
	Metrics      MetricsConfig      `yaml:"metrics"`
	HealthChecks HealthChecksConfig `yaml:"health_checks"`
	Logging      LoggingConfig      `yaml:"logging"`
}

// MetricsConfig represents metrics settings.
type MetricsConfig struct {
	Enabled      bool              `yaml:"enabled"`
	Prometheus   bool              `yaml:"prometheus"`
	CustomLabels map[string]string `yaml:"custom_labels"`
}

// HealthChecksConfig represents health check settings.
type HealthChecksConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Interval time.Duration `yaml:"interval"`
	Timeout  time.Duration `yaml:"timeout"`

	// OrphanTempTTL is how old an abandoned .atomic.*.tmp or
	// .streaming.*.tmp file must be before the reaper check reports it.
	OrphanTempTTL time.Duration `yaml:"orphan_temp_ttl"`
}

// LoggingConfig represents logging settings.
type LoggingConfig struct {
	Structured bool           `yaml:"structured"`
	Format     string         `yaml:"format"`
	Sampling   SamplingConfig `yaml:"sampling"`
}

// SamplingConfig represents log sampling settings.
type SamplingConfig struct {
	Enabled bool `yaml:"enabled"`
	Rate    int  `yaml:"rate"`
}

// NewDefault returns a configuration with sensible defaults.
func NewDefault() *Configuration {
	return &Configuration{
		Global: GlobalConfig{
			LogLevel:    "INFO",
			LogFile:     "",
			MetricsPort: 8080,
			HealthPort:  8081,
			ProfilePort: 6060,
		},
		WriteBuffer: WriteBufferConfig{
			PoolMaxBufferSize: "16MB",
			FlushInterval:     30 * time.Second,
		},
		Durability: DurabilityConfig{
			Default: "full",
		},
		Monitoring: MonitoringConfig{
			Metrics: MetricsConfig{
				Enabled:    true,
				Prometheus: true,
				CustomLabels: map[string]string{
					"service": "atomicfs",
				},
			},
			HealthChecks: HealthChecksConfig{
				Enabled:       true,
				Interval:      30 * time.Second,
				Timeout:       5 * time.Second,
				OrphanTempTTL: 1 * time.Hour,
			},
			Logging: LoggingConfig{
				Structured: true,
				Format:     "json",
				Sampling: SamplingConfig{
					Enabled: true,
					Rate:    1000,
				},
			},
		},
	}
}

// LoadFromFile loads configuration from a YAML file.
func (c *Configuration) LoadFromFile(filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// LoadFromEnv loads configuration from environment variables.
func (c *Configuration) LoadFromEnv() error {
	if val := os.Getenv("ATOMICFS_LOG_LEVEL"); val != "" {
		c.Global.LogLevel = val
	}
	if val := os.Getenv("ATOMICFS_LOG_FILE"); val != "" {
		c.Global.LogFile = val
	}
	if val := os.Getenv("ATOMICFS_METRICS_PORT"); val != "" {
		if port, err := strconv.Atoi(val); err == nil {
			c.Global.MetricsPort = port
		}
	}
	if val := os.Getenv("ATOMICFS_HEALTH_PORT"); val != "" {
		if port, err := strconv.Atoi(val); err == nil {
			c.Global.HealthPort = port
		}
	}

	if val := os.Getenv("ATOMICFS_WRITE_BUFFER_SIZE"); val != "" {
		c.WriteBuffer.PoolMaxBufferSize = val
	}
	if val := os.Getenv("ATOMICFS_DURABILITY"); val != "" {
		c.Durability.Default = val
	}
	if val := os.Getenv("ATOMICFS_METRICS_ENABLED"); val != "" {
		c.Monitoring.Metrics.Enabled = strings.ToLower(val) == "true"
	}

	return nil
}

// SaveToFile saves the configuration to a YAML file.
func (c *Configuration) SaveToFile(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(filename), 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(filename, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

var validDurabilityModes = []string{"full", "data_only", "none"}

// Validate validates the configuration.
func (c *Configuration) Validate() error {
	if c.Global.MetricsPort == c.Global.HealthPort {
		return fmt.Errorf("metrics_port and health_port cannot be the same")
	}

	validLogLevels := []string{"DEBUG", "INFO", "WARN", "ERROR"}
	logLevelValid := false
	for _, level := range validLogLevels {
		if c.Global.LogLevel == level {
			logLevelValid = true
			break
		}
	}
	if !logLevelValid {
		return fmt.Errorf("invalid log_level: %s (must be one of: %s)",
			c.Global.LogLevel, strings.Join(validLogLevels, ", "))
	}

	durabilityValid := false
	for _, mode := range validDurabilityModes {
		if c.Durability.Default == mode {
			durabilityValid = true
			break
		}
	}
	if !durabilityValid {
		return fmt.Errorf("invalid durability.default: %s (must be one of: %s)",
			c.Durability.Default, strings.Join(validDurabilityModes, ", "))
	}

	return nil
}

// ParseSize parses a human-readable size string (e.g. "2GB", "512MB") to
// bytes. An empty or unrecognized string defaults to 1GB.
func ParseSize(sizeStr string) int64 {
	sizeStr = strings.ToUpper(strings.TrimSpace(sizeStr))

	var multiplier int64 = 1
	var numStr string

	switch {
	case strings.HasSuffix(sizeStr, "GB"):
		multiplier = 1024 * 1024 * 1024
		numStr = strings.TrimSuffix(sizeStr, "GB")
	case strings.HasSuffix(sizeStr, "MB"):
		multiplier = 1024 * 1024
		numStr = strings.TrimSuffix(sizeStr, "MB")
	case strings.HasSuffix(sizeStr, "KB"):
		multiplier = 1024
		numStr = strings.TrimSuffix(sizeStr, "KB")
	case strings.HasSuffix(sizeStr, "B"):
		multiplier = 1
		numStr = strings.TrimSuffix(sizeStr, "B")
	default:
		numStr = sizeStr
	}

	var num int64 = 1024 * 1024 * 1024
	if numStr != "" {
		if parsed, err := strconv.ParseInt(numStr, 10, 64); err == nil {
			num = parsed
		}
	}

	return num * multiplier
}
