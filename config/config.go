package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/jobala/clockbuf/storage/disk"
	"gopkg.in/yaml.v3"
)

const (
	EnvPoolSize = "CLOCKBUF_POOL_SIZE"
	EnvDataFile = "CLOCKBUF_DATA_FILE"
	EnvLogLevel = "CLOCKBUF_LOG_LEVEL"
)

// Options configures a buffer pool and the data file it caches.
type Options struct {
	PoolSize  int    `yaml:"pool_size"`
	PageSize  int    `yaml:"page_size"`
	DataFile  string `yaml:"data_file"`
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

func DefaultOptions() Options {
	return Options{
		PoolSize:  1000, // 4MB of frames
		PageSize:  disk.PAGE_SIZE,
		DataFile:  "clockbuf.db",
		LogLevel:  "info",
		LogFormat: "text",
	}
}

// Load reads YAML options from path on top of the defaults. Fields missing
// from the file keep their default.
func Load(path string) (Options, error) {
	opts := DefaultOptions()

	data, err := os.ReadFile(os.ExpandEnv(path))
	if err != nil {
		return opts, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &opts); err != nil {
		return opts, fmt.Errorf("failed to parse config file: %w", err)
	}

	return opts, opts.Validate()
}

// ApplyEnv overrides options from CLOCKBUF_* environment variables. A pool
// size that is not an integer is an error and leaves the options untouched.
func (o *Options) ApplyEnv() error {
	if v := os.Getenv(EnvPoolSize); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %q is not an integer", EnvPoolSize, v)
		}
		o.PoolSize = n
	}
	if v := os.Getenv(EnvDataFile); v != "" {
		o.DataFile = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		o.LogLevel = v
	}

	return nil
}

func (o Options) Validate() error {
	var errs []string

	if o.PoolSize <= 0 {
		errs = append(errs, fmt.Sprintf("invalid pool_size: %d (must be positive)", o.PoolSize))
	}
	if o.PageSize != disk.PAGE_SIZE {
		errs = append(errs, fmt.Sprintf("invalid page_size: %d (must be %d)", o.PageSize, disk.PAGE_SIZE))
	}
	if o.DataFile == "" {
		errs = append(errs, "data_file cannot be empty")
	}
	if _, err := parseLevel(o.LogLevel); err != nil {
		errs = append(errs, err.Error())
	}
	switch o.LogFormat {
	case "text", "json":
	default:
		errs = append(errs, fmt.Sprintf("invalid log_format: %s (must be text or json)", o.LogFormat))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// Logger builds the structured logger described by the options.
func (o Options) Logger(w io.Writer) *slog.Logger {
	level, err := parseLevel(o.LogLevel)
	if err != nil {
		level = slog.LevelInfo
	}

	handlerOpts := &slog.HandlerOptions{Level: level}
	if o.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, handlerOpts))
	}
	return slog.New(slog.NewTextHandler(w, handlerOpts))
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid log_level: %s (must be debug, info, warn, or error)", s)
	}
}
