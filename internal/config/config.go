// Package config provides configuration management for skysched.
package config

import (
	"strconv"
	"time"
)

// Config is the root configuration structure for skysched.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Watch     WatchConfig     `mapstructure:"watch"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host to bind the server to
	Host string `mapstructure:"host"`

	// Port to listen on
	Port int `mapstructure:"port"`

	// Request timeouts
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`

	// Maximum request body size in bytes
	MaxBodySize int64 `mapstructure:"max_body_size"`
}

// DatabaseConfig holds run-history database settings.
type DatabaseConfig struct {
	// Path to SQLite database file
	Path string `mapstructure:"path"`

	// Enable WAL mode (recommended)
	WALMode bool `mapstructure:"wal_mode"`

	// Cache size in KB (negative for KB, positive for pages)
	CacheSize int `mapstructure:"cache_size"`

	// Busy timeout
	BusyTimeout time.Duration `mapstructure:"busy_timeout"`

	// Maximum open connections
	MaxOpenConns int `mapstructure:"max_open_conns"`

	// Maximum idle connections
	MaxIdleConns int `mapstructure:"max_idle_conns"`
}

// SchedulerConfig holds the default engine tuning applied when a request
// or invocation does not carry its own parameters.
type SchedulerConfig struct {
	// Algorithm: accumulative or hybrid_accumulative
	Algorithm string `mapstructure:"algorithm"`

	// Candidate search bound; 0 means the engine default
	MaxIterations int `mapstructure:"max_iterations"`

	// Wall-clock bound per run in seconds; 0 means unlimited
	TimeLimitSeconds float64 `mapstructure:"time_limit_seconds"`

	// Randomization seed; negative means non-deterministic
	Seed int64 `mapstructure:"seed"`

	// Hybrid worker pool size; 0 means available hardware parallelism
	Workers int `mapstructure:"workers"`

	// Visibility sampling step
	SampleStep time.Duration `mapstructure:"sample_step"`

	// Reject unknown block types instead of skipping them
	StrictBlocks bool `mapstructure:"strict_blocks"`
}

// StorageConfig holds artifact storage settings.
type StorageConfig struct {
	// Backend to write run artifacts to; empty disables artifact export
	Default string `mapstructure:"default"`

	// Named backends
	Backends map[string]BackendConfig `mapstructure:"backends"`
}

// BackendConfig holds one storage backend.
type BackendConfig struct {
	// Backend type: filesystem or s3
	Type string `mapstructure:"type"`

	// Filesystem settings (required when type is filesystem)
	Filesystem *FilesystemConfig `mapstructure:"filesystem"`

	// S3 settings (required when type is s3)
	S3 *S3Config `mapstructure:"s3"`
}

// FilesystemConfig holds filesystem backend settings.
type FilesystemConfig struct {
	// Root directory for stored artifacts
	Path string `mapstructure:"path"`
}

// S3Config holds S3 backend settings.
type S3Config struct {
	// AWS region
	Region string `mapstructure:"region"`

	// Bucket name
	Bucket string `mapstructure:"bucket"`

	// Key prefix inside the bucket
	Prefix string `mapstructure:"prefix"`

	// Custom endpoint (for S3-compatible services)
	Endpoint string `mapstructure:"endpoint"`

	// Static credentials (optional; the SDK default chain is used when empty)
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`

	// Use path-style addressing (required by MinIO and some proxies)
	UsePathStyle bool `mapstructure:"use_path_style"`
}

// WatchConfig holds input directory watching settings.
type WatchConfig struct {
	// Directory to watch for pipeline input files
	Path string `mapstructure:"path"`

	// Glob pattern for input files
	Pattern string `mapstructure:"pattern"`

	// Optional cron expression for periodic re-scans
	Schedule string `mapstructure:"schedule"`

	// Debounce window for filesystem events
	Debounce time.Duration `mapstructure:"debounce"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Log level (debug, info, warn, error)
	Level string `mapstructure:"level"`

	// Log format (json, console)
	Format string `mapstructure:"format"`

	// Include caller info
	Caller bool `mapstructure:"caller"`

	// Include timestamp
	Timestamp bool `mapstructure:"timestamp"`

	// Output file (empty for stdout)
	Output string `mapstructure:"output"`
}

// MetricsConfig holds Prometheus metrics settings.
type MetricsConfig struct {
	// Expose /metrics
	Enabled bool `mapstructure:"enabled"`
}

// Address returns the server address in host:port format.
func (s *ServerConfig) Address() string {
	return s.Host + ":" + strconv.Itoa(s.Port)
}
