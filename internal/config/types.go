package config

import (
	"net"
	"strconv"
	"time"
)

// CurrentConfigVersion is the schema version for the config file.
const CurrentConfigVersion = 1

// Config represents the complete .lowvr.yaml configuration file.
type Config struct {
	Version int `yaml:"version" mapstructure:"version"`

	// WandbDir is the directory holding run-* and offline-run-* folders.
	// Supports ~ and ${HOME}/${USER} expansion.
	WandbDir string `yaml:"wandb_dir" mapstructure:"wandb_dir"`

	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Dashboard DashboardConfig `yaml:"dashboard" mapstructure:"dashboard"`
	Fetch     FetchConfig     `yaml:"fetch" mapstructure:"fetch"`
	Output    OutputConfig    `yaml:"output" mapstructure:"output"`
}

// ServerConfig controls the REST API started by `lowvr serve`.
type ServerConfig struct {
	Host         string        `yaml:"host" mapstructure:"host"`
	Port         int           `yaml:"port" mapstructure:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
}

// Addr is the host:port the server listens on.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// DashboardConfig controls the terminal comparison view.
type DashboardConfig struct {
	// Columns is the number of panels per row (1-6).
	Columns int `yaml:"columns" mapstructure:"columns"`

	// DefaultHeight is the row height, in layout pixels, for rows never resized.
	DefaultHeight int `yaml:"default_height" mapstructure:"default_height"`

	// Refresh is how often series are refetched.
	Refresh time.Duration `yaml:"refresh" mapstructure:"refresh"`

	// XAxisKey is the preferred x-axis metric.
	XAxisKey string `yaml:"x_axis_key" mapstructure:"x_axis_key"`

	// Metrics are glob patterns selecting which metrics get a panel.
	// Empty means every numeric metric.
	Metrics []string `yaml:"metrics" mapstructure:"metrics"`

	// MaxRuns caps how many runs are compared when none are named; 0 means all.
	MaxRuns int `yaml:"max_runs" mapstructure:"max_runs"`
}

// FetchConfig controls how series are loaded.
type FetchConfig struct {
	Concurrency int           `yaml:"concurrency" mapstructure:"concurrency"`
	Timeout     time.Duration `yaml:"timeout" mapstructure:"timeout"`
	Retries     int           `yaml:"retries" mapstructure:"retries"`
	RetryDelay  time.Duration `yaml:"retry_delay" mapstructure:"retry_delay"`

	// Remote is the base URL of a `lowvr serve` instance. When set, runs are
	// read over HTTP instead of from WandbDir.
	Remote string `yaml:"remote" mapstructure:"remote"`
}

// OutputConfig controls terminal output formatting.
type OutputConfig struct {
	// Color mode: "auto", "always", or "never".
	// "auto" disables color when output is piped.
	Color string `yaml:"color" mapstructure:"color"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Version:  CurrentConfigVersion,
		WandbDir: "./wandb",
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8765,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 60 * time.Second,
		},
		Dashboard: DashboardConfig{
			Columns:       2,
			DefaultHeight: 240,
			Refresh:       10 * time.Second,
			XAxisKey:      "_step",
			Metrics:       []string{},
		},
		Fetch: FetchConfig{
			Concurrency: 8,
			Timeout:     30 * time.Second,
			Retries:     3,
			RetryDelay:  200 * time.Millisecond,
		},
		Output: OutputConfig{
			Color: "auto",
		},
	}
}
