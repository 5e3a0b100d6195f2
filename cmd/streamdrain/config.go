package main

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/loykin/streamdrain/cmd/streamdrain/sink/clickhouse"
	"github.com/loykin/streamdrain/cmd/streamdrain/sink/common"
	"github.com/loykin/streamdrain/cmd/streamdrain/sink/console"
	"github.com/loykin/streamdrain/cmd/streamdrain/sink/file"
	"github.com/loykin/streamdrain/cmd/streamdrain/sink/opensearch"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
)

// CaptureConfig controls how the child process is run and drained.
type CaptureConfig struct {
	Dir      string        `mapstructure:"dir"`
	Encoding string        `mapstructure:"encoding"` // WHATWG name, e.g. utf-8, windows-1252, utf-16le
	MaxLines int           `mapstructure:"max-lines"`
	Timeout  time.Duration `mapstructure:"timeout"` // 0 means no limit
}

// resolveEncoding maps the configured name to a decoder; "" means raw UTF-8.
func (c CaptureConfig) resolveEncoding() (encoding.Encoding, error) {
	if c.Encoding == "" {
		return nil, nil
	}
	enc, err := htmlindex.Get(c.Encoding)
	if err != nil {
		return nil, fmt.Errorf("unknown capture.encoding %q: %w", c.Encoding, err)
	}
	return enc, nil
}

type SinkConfig struct {
	Type          string            `mapstructure:"type"` // "" (disabled), "console", "file", "clickhouse", "opensearch"
	Streams       []string          `mapstructure:"streams"`
	Include       []string          `mapstructure:"include"`
	Exclude       []string          `mapstructure:"exclude"`
	BatchSize     int               `mapstructure:"batch-size"`
	BatchInterval time.Duration     `mapstructure:"batch-interval"`
	Host          string            `mapstructure:"host"`   // override host; default os.Hostname()
	Labels        map[string]string `mapstructure:"labels"` // optional key-value labels

	Console    console.Config    `mapstructure:"console"`
	File       file.Config       `mapstructure:"file"`
	ClickHouse clickhouse.Config `mapstructure:"clickhouse"`
	OpenSearch opensearch.Config `mapstructure:"opensearch"`
}

// StoreConfig enables the SQLite run history.
type StoreConfig struct {
	Enable bool   `mapstructure:"enable"`
	DBPath string `mapstructure:"db-path"`
}

type PrometheusConfig struct {
	Enable bool   `mapstructure:"enable"`
	Addr   string `mapstructure:"addr"`
}

// LogConfig selects the slog level and an optional rotated log file.
type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

// Config holds all configuration options for the streamdrain command.
type Config struct {
	// Optional config file path (flag/env only)
	ConfigFile string
	Capture    CaptureConfig    `mapstructure:"capture"`
	Sink       SinkConfig       `mapstructure:"sink"`
	Store      StoreConfig      `mapstructure:"store"`
	Prometheus PrometheusConfig `mapstructure:"prometheus"`
	Log        LogConfig        `mapstructure:"log"`
}

// DefaultConfig returns a Config with default values
func DefaultConfig() *Config {
	return &Config{
		Sink: SinkConfig{
			Type:          "console",
			Streams:       []string{},
			Include:       []string{},
			Exclude:       []string{},
			BatchSize:     200,
			BatchInterval: time.Second,
			Labels:        map[string]string{},
			Console:       console.Config{Stream: console.StreamAuto},
			ClickHouse:    clickhouse.Config{RetryElapsed: common.DefaultRetryElapsed},
			OpenSearch:    opensearch.Config{RetryElapsed: common.DefaultRetryElapsed},
		},
		Store:      StoreConfig{Enable: false, DBPath: "streamdrain.db"},
		Prometheus: PrometheusConfig{Enable: false, Addr: ":2112"},
		Log:        LogConfig{Level: "info"},
	}
}

// SetupFlags adds all command line flags to the provided cobra command.
// Flag names match the mapstructure paths so viper can overlay them.
func (c *Config) SetupFlags(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&c.ConfigFile, "config", c.ConfigFile, "Path to config file (yaml/json/toml)")

	fs.StringVarP(&c.Capture.Dir, "capture.dir", "C", c.Capture.Dir, "Working directory for the command")
	fs.StringVarP(&c.Capture.Encoding, "capture.encoding", "e", c.Capture.Encoding, "Encoding of the command's output (e.g. windows-1252, utf-16le)")
	fs.IntVar(&c.Capture.MaxLines, "capture.max-lines", c.Capture.MaxLines, "Keep only the last N lines per stream (0 = unbounded)")
	fs.DurationVarP(&c.Capture.Timeout, "capture.timeout", "t", c.Capture.Timeout, "Kill the command after this long (0 = no limit)")

	fs.StringVar(&c.Sink.Type, "sink.type", c.Sink.Type, "Where captured lines go: console, file, clickhouse, opensearch, or empty to disable")
	fs.StringSliceVar(&c.Sink.Streams, "sink.streams", c.Sink.Streams, "Only forward these streams (stdout, stderr)")
	fs.StringVar(&c.Sink.Console.Stream, "sink.console.stream", c.Sink.Console.Stream, "Console target: auto, stdout or stderr")
	fs.StringVar(&c.Sink.File.Path, "sink.file.path", c.Sink.File.Path, "Output path for the file sink")

	// Remaining sink options (batching, filters, backend credentials) come
	// from the config file or STREAMDRAIN_* environment variables.

	fs.BoolVar(&c.Store.Enable, "store.enable", c.Store.Enable, "Record each run in a SQLite database")
	fs.StringVar(&c.Store.DBPath, "store.db-path", c.Store.DBPath, "Path to the run history database")

	fs.BoolVar(&c.Prometheus.Enable, "prometheus.enable", c.Prometheus.Enable, "Enable Prometheus metrics HTTP endpoint")
	fs.StringVar(&c.Prometheus.Addr, "prometheus.addr", c.Prometheus.Addr, "Prometheus metrics listen address (e.g., :2112)")

	fs.StringVar(&c.Log.Level, "log.level", c.Log.Level, "Log level: debug, info, warn, error")
	fs.StringVar(&c.Log.File, "log.file", c.Log.File, "Write logs to this file (rotated) instead of stderr")
}

// LoadFromViper binds flags to viper, reads file/env, and populates the Config fields via mapstructure.
func (c *Config) LoadFromViper(cmd *cobra.Command, v *viper.Viper) error {
	v.SetEnvPrefix("STREAMDRAIN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	// --config flag or STREAMDRAIN_CONFIG env
	if c.ConfigFile == "" {
		c.ConfigFile = v.GetString("config")
	}
	if c.ConfigFile != "" {
		v.SetConfigFile(c.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}

	return v.Unmarshal(c)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Capture.MaxLines < 0 {
		return fmt.Errorf("capture.max-lines must be >= 0")
	}
	if c.Capture.Timeout < 0 {
		return fmt.Errorf("capture.timeout must be >= 0")
	}
	if _, err := c.Capture.resolveEncoding(); err != nil {
		return err
	}

	for _, s := range c.Sink.Streams {
		if s != "stdout" && s != "stderr" {
			return fmt.Errorf("sink.streams entries must be 'stdout' or 'stderr', got %q", s)
		}
	}
	switch c.Sink.Type {
	case "":
	case "console":
		if err := c.Sink.Console.Validate(); err != nil {
			return err
		}
	case "file":
		if err := c.Sink.File.Validate(); err != nil {
			return err
		}
	case "clickhouse":
		if err := c.Sink.ClickHouse.Validate(); err != nil {
			return err
		}
	case "opensearch":
		if err := c.Sink.OpenSearch.Validate(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("invalid sink.type: %s", c.Sink.Type)
	}
	if c.Sink.Type != "" {
		if c.Sink.BatchSize <= 0 {
			return fmt.Errorf("sink.batch-size must be > 0")
		}
		if c.Sink.BatchInterval <= 0 {
			return fmt.Errorf("sink.batch-interval must be > 0")
		}
	}

	if c.Store.Enable && c.Store.DBPath == "" {
		return fmt.Errorf("store.db-path must be set when store.enable is true")
	}
	if c.Prometheus.Enable && c.Prometheus.Addr == "" {
		return fmt.Errorf("prometheus.addr must be set when prometheus.enable is true")
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}

func parseLevel(s string) (slog.Level, error) {
	var lvl slog.Level
	if s == "" {
		return slog.LevelInfo, nil
	}
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return lvl, fmt.Errorf("invalid log.level %q: %w", s, err)
	}
	return lvl, nil
}
