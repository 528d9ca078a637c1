package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/meridian-obs/skysched/internal/engine"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("configuration validation failed:\n")
	for _, err := range e {
		sb.WriteString("  - ")
		sb.WriteString(err.Error())
		sb.WriteString("\n")
	}
	return sb.String()
}

func Validate(cfg *Config) error {
	var errs ValidationErrors

	errs = append(errs, validateServer(&cfg.Server)...)
	errs = append(errs, validateDatabase(&cfg.Database)...)
	errs = append(errs, validateScheduler(&cfg.Scheduler)...)
	errs = append(errs, validateStorage(&cfg.Storage)...)
	errs = append(errs, validateWatch(&cfg.Watch)...)
	errs = append(errs, validateLogging(&cfg.Logging)...)

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func validateServer(cfg *ServerConfig) ValidationErrors {
	var errs ValidationErrors

	if cfg.Port < 1 || cfg.Port > 65535 {
		errs = append(errs, ValidationError{
			Field:   "server.port",
			Message: "must be between 1 and 65535",
		})
	}

	if cfg.ReadTimeout < 0 {
		errs = append(errs, ValidationError{
			Field:   "server.read_timeout",
			Message: "must be non-negative",
		})
	}

	if cfg.WriteTimeout < 0 {
		errs = append(errs, ValidationError{
			Field:   "server.write_timeout",
			Message: "must be non-negative",
		})
	}

	if cfg.MaxBodySize < 0 {
		errs = append(errs, ValidationError{
			Field:   "server.max_body_size",
			Message: "must be non-negative",
		})
	}

	return errs
}

func validateDatabase(cfg *DatabaseConfig) ValidationErrors {
	var errs ValidationErrors

	if cfg.Path == "" {
		errs = append(errs, ValidationError{
			Field:   "database.path",
			Message: "required",
		})
	}

	if cfg.MaxOpenConns < 1 {
		errs = append(errs, ValidationError{
			Field:   "database.max_open_conns",
			Message: "must be at least 1",
		})
	}

	return errs
}

func validateScheduler(cfg *SchedulerConfig) ValidationErrors {
	var errs ValidationErrors

	if _, err := engine.ParseAlgorithm(cfg.Algorithm); err != nil {
		errs = append(errs, ValidationError{
			Field:   "scheduler.algorithm",
			Message: "must be 'accumulative' or 'hybrid_accumulative'",
		})
	}

	if cfg.MaxIterations < 0 {
		errs = append(errs, ValidationError{
			Field:   "scheduler.max_iterations",
			Message: "must be non-negative",
		})
	}

	if cfg.TimeLimitSeconds < 0 {
		errs = append(errs, ValidationError{
			Field:   "scheduler.time_limit_seconds",
			Message: "must be non-negative",
		})
	}

	if cfg.Workers < 0 {
		errs = append(errs, ValidationError{
			Field:   "scheduler.workers",
			Message: "must be non-negative",
		})
	}

	if cfg.SampleStep != 0 && cfg.SampleStep < time.Second {
		errs = append(errs, ValidationError{
			Field:   "scheduler.sample_step",
			Message: "must be at least 1 second",
		})
	}

	return errs
}

func validateStorage(cfg *StorageConfig) ValidationErrors {
	var errs ValidationErrors

	if cfg.Default != "" {
		if _, ok := cfg.Backends[cfg.Default]; !ok {
			errs = append(errs, ValidationError{
				Field:   "storage.default",
				Message: fmt.Sprintf("references undefined backend '%s'", cfg.Default),
			})
		}
	}

	for name, backend := range cfg.Backends {
		switch backend.Type {
		case "":
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("storage.backends.%s.type", name),
				Message: "required (must be 'filesystem' or 's3')",
			})

		case "filesystem":
			if backend.Filesystem == nil || backend.Filesystem.Path == "" {
				errs = append(errs, ValidationError{
					Field:   fmt.Sprintf("storage.backends.%s.filesystem.path", name),
					Message: "required when type is 'filesystem'",
				})
				break
			}
			if strings.Contains(backend.Filesystem.Path, "..") {
				errs = append(errs, ValidationError{
					Field:   fmt.Sprintf("storage.backends.%s.filesystem.path", name),
					Message: "path traversal (..) not allowed",
				})
			}

		case "s3":
			if backend.S3 == nil {
				errs = append(errs, ValidationError{
					Field:   fmt.Sprintf("storage.backends.%s.s3", name),
					Message: "required when type is 's3'",
				})
				break
			}
			if backend.S3.Region == "" {
				errs = append(errs, ValidationError{
					Field:   fmt.Sprintf("storage.backends.%s.s3.region", name),
					Message: "required",
				})
			}
			if backend.S3.Bucket == "" {
				errs = append(errs, ValidationError{
					Field:   fmt.Sprintf("storage.backends.%s.s3.bucket", name),
					Message: "required",
				})
			}

		default:
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("storage.backends.%s.type", name),
				Message: "must be 'filesystem' or 's3'",
			})
		}
	}

	return errs
}

func validateWatch(cfg *WatchConfig) ValidationErrors {
	var errs ValidationErrors

	if cfg.Path == "" {
		return errs
	}

	if cfg.Pattern == "" {
		errs = append(errs, ValidationError{
			Field:   "watch.pattern",
			Message: "required when watch.path is set",
		})
	}

	if cfg.Debounce < 0 {
		errs = append(errs, ValidationError{
			Field:   "watch.debounce",
			Message: "must be non-negative",
		})
	}

	return errs
}

func validateLogging(cfg *LoggingConfig) ValidationErrors {
	var errs ValidationErrors

	validLevels := map[string]bool{
		"trace": true, "debug": true, "info": true,
		"warn": true, "error": true, "fatal": true, "panic": true,
	}
	if !validLevels[cfg.Level] {
		errs = append(errs, ValidationError{
			Field:   "logging.level",
			Message: "must be one of: trace, debug, info, warn, error, fatal, panic",
		})
	}

	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[cfg.Format] {
		errs = append(errs, ValidationError{
			Field:   "logging.format",
			Message: "must be 'json' or 'console'",
		})
	}

	return errs
}

// EngineParams converts the scheduler section into engine parameters.
func (s *SchedulerConfig) EngineParams() (engine.Params, error) {
	algorithm, err := engine.ParseAlgorithm(s.Algorithm)
	if err != nil {
		return engine.Params{}, err
	}
	return engine.Params{
		Algorithm:        algorithm,
		MaxIterations:    s.MaxIterations,
		TimeLimitSeconds: s.TimeLimitSeconds,
		Seed:             s.Seed,
		Workers:          s.Workers,
	}, nil
}
