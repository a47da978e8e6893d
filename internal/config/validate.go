package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/MandiZhao/lowvr/internal/compare"
	"github.com/MandiZhao/lowvr/internal/errors"
)

// MinRefresh is the fastest allowed dashboard refresh.
const MinRefresh = 500 * time.Millisecond

// Validate checks the config for errors and returns structured error messages.
func Validate(cfg *Config) error {
	if cfg.Version > CurrentConfigVersion {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("This config is from the future (version %d, but lowvr only knows up to %d)", cfg.Version, CurrentConfigVersion),
			"Upgrade lowvr or lower the version field.")
	}

	if err := validateServer(cfg.Server); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, err.Error(), "Check the 'server' section in your "+ConfigFileName+".")
	}

	if err := validateDashboard(cfg.Dashboard); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, err.Error(), "Check the 'dashboard' section in your "+ConfigFileName+".")
	}

	if err := validateFetch(cfg.Fetch); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, err.Error(), "Check the 'fetch' section in your "+ConfigFileName+".")
	}

	if err := validateOutput(cfg.Output); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, err.Error(), "Check the 'output' section in your "+ConfigFileName+".")
	}

	return nil
}

func validateServer(s ServerConfig) error {
	if s.Port < 1 || s.Port > 65535 {
		return fmt.Errorf("server.port %d is out of range - use 1-65535", s.Port)
	}
	if s.ReadTimeout < 0 || s.WriteTimeout < 0 {
		return fmt.Errorf("server timeouts can't be negative")
	}
	return nil
}

func validateDashboard(d DashboardConfig) error {
	if d.Columns < compare.MinColumns || d.Columns > compare.MaxColumns {
		return fmt.Errorf("dashboard.columns %d is out of range - use %d-%d", d.Columns, compare.MinColumns, compare.MaxColumns)
	}
	h := float64(d.DefaultHeight)
	if h < compare.MinRowHeight || h > compare.MaxRowHeight {
		return fmt.Errorf("dashboard.default_height %d is out of range - use %.0f-%.0f",
			d.DefaultHeight, compare.MinRowHeight, compare.MaxRowHeight)
	}
	if d.Refresh < MinRefresh {
		return fmt.Errorf("dashboard.refresh %s is too fast - use at least %s", d.Refresh, MinRefresh)
	}
	if d.MaxRuns < 0 {
		return fmt.Errorf("dashboard.max_runs can't be negative")
	}
	if err := ValidateMetricPatterns(d.Metrics); err != nil {
		return err
	}
	return nil
}

// ValidateMetricPatterns checks that each metric selector is a valid glob.
func ValidateMetricPatterns(patterns []string) error {
	for _, p := range patterns {
		if p == "" {
			return fmt.Errorf("empty metric pattern")
		}
		if !doublestar.ValidatePattern(p) {
			return fmt.Errorf("metric pattern '%s' isn't a valid glob", p)
		}
	}
	return nil
}

func validateFetch(f FetchConfig) error {
	if f.Concurrency < 1 {
		return fmt.Errorf("fetch.concurrency must be at least 1")
	}
	if f.Timeout <= 0 {
		return fmt.Errorf("fetch.timeout must be positive")
	}
	if f.Retries < 1 {
		return fmt.Errorf("fetch.retries must be at least 1 (1 means no retry)")
	}
	if f.RetryDelay < 0 {
		return fmt.Errorf("fetch.retry_delay can't be negative")
	}
	if f.Remote != "" {
		u, err := url.Parse(f.Remote)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("fetch.remote '%s' isn't an http(s) URL", f.Remote)
		}
	}
	return nil
}

func validateOutput(out OutputConfig) error {
	validColors := map[string]bool{"auto": true, "always": true, "never": true, "": true}
	if !validColors[out.Color] {
		return fmt.Errorf("output.color '%s' isn't valid - use 'auto', 'always', or 'never'", out.Color)
	}
	return nil
}
