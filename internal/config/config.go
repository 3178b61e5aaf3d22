// Package config loads and validates scanner configuration. Values come
// from defaults, an optional config file, PINGNETWORKS_* environment
// variables, and explicit CLI flag overrides, in ascending precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/Slade-Bennett/pingnetworks/internal/subnet"
	"github.com/Slade-Bennett/pingnetworks/pkg/models"
)

// Validation errors for conflicting flags. These are input errors: they
// surface before any probing starts.
var (
	ErrConflictingParity = errors.New("scan.odd_only and scan.even_only are mutually exclusive")
	ErrConflictingAlerts = errors.New("compare.alert_new_only and compare.alert_offline_only are mutually exclusive")
)

// Config wraps a viper instance with typed accessors for every knob the
// scanning core honors.
type Config struct {
	v *viper.Viper
}

// Load builds a Config from defaults, the optional file at path, and the
// environment.
func Load(path string) (*Config, error) {
	v := viper.New()

	// Scan engine defaults.
	v.SetDefault("scan.throttle", 50)
	v.SetDefault("scan.timeout", 2*time.Second)
	v.SetDefault("scan.retries", 1)
	v.SetDefault("scan.count", 4)
	v.SetDefault("scan.max_pings", 0)
	v.SetDefault("scan.rate_limit", 0)
	v.SetDefault("probe.mode", "icmp")
	v.SetDefault("probe.tcp_port", 80)
	v.SetDefault("checkpoint.interval", 50)
	v.SetDefault("compare.min_changes", 0)
	v.SetDefault("compare.min_change_pct", 0.0)

	v.SetEnvPrefix("PINGNETWORKS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %q: %w", path, err)
		}
	}

	return &Config{v: v}, nil
}

// Set applies one override, typically from an explicitly passed CLI flag.
func (c *Config) Set(key string, value any) {
	c.v.Set(key, value)
}

// Validate checks every knob before any scanning starts, so bad input
// always fails fast.
func (c *Config) Validate() error {
	if c.Throttle() <= 0 {
		return fmt.Errorf("scan.throttle must be positive, got %d", c.Throttle())
	}
	if c.Timeout() <= 0 {
		return fmt.Errorf("scan.timeout must be positive, got %v", c.Timeout())
	}
	if c.Retries() < 0 {
		return fmt.Errorf("scan.retries must not be negative, got %d", c.Retries())
	}
	if c.PingsPerHost() <= 0 {
		return fmt.Errorf("scan.count must be positive, got %d", c.PingsPerHost())
	}
	if c.MaxHostsPerNetwork() < 0 {
		return fmt.Errorf("scan.max_pings must not be negative, got %d", c.MaxHostsPerNetwork())
	}
	if c.CheckpointInterval() <= 0 {
		return fmt.Errorf("checkpoint.interval must be positive, got %d", c.CheckpointInterval())
	}
	if c.OddOnly() && c.EvenOnly() {
		return ErrConflictingParity
	}
	if c.AlertNewOnly() && c.AlertOfflineOnly() {
		return ErrConflictingAlerts
	}
	if mode := c.ProbeMode(); mode != "icmp" && mode != "tcp" {
		return fmt.Errorf("probe.mode must be icmp or tcp, got %q", mode)
	}
	if _, err := subnet.ParseExclusions(c.ExcludeIPs()); err != nil {
		return fmt.Errorf("scan.exclude: %w", err)
	}
	return nil
}

// Parameters collects the scan-shaping knobs into the persistable form
// carried by checkpoints.
func (c *Config) Parameters() models.ScanParameters {
	return models.ScanParameters{
		Throttle:           c.Throttle(),
		Timeout:            c.Timeout(),
		Retries:            c.Retries(),
		PingsPerHost:       c.PingsPerHost(),
		MaxHostsPerNetwork: c.MaxHostsPerNetwork(),
		ExcludeIPs:         c.ExcludeIPs(),
		OddOnly:            c.OddOnly(),
		EvenOnly:           c.EvenOnly(),
		RateLimit:          c.RateLimit(),
	}
}

func (c *Config) Networks() []string   { return c.v.GetStringSlice("scan.networks") }
func (c *Config) InputFile() string    { return c.v.GetString("scan.input_file") }
func (c *Config) Throttle() int        { return c.v.GetInt("scan.throttle") }
func (c *Config) Timeout() time.Duration {
	return c.v.GetDuration("scan.timeout")
}
func (c *Config) Retries() int            { return c.v.GetInt("scan.retries") }
func (c *Config) PingsPerHost() int       { return c.v.GetInt("scan.count") }
func (c *Config) MaxHostsPerNetwork() int { return c.v.GetInt("scan.max_pings") }
func (c *Config) ExcludeIPs() []string    { return c.v.GetStringSlice("scan.exclude") }
func (c *Config) OddOnly() bool           { return c.v.GetBool("scan.odd_only") }
func (c *Config) EvenOnly() bool          { return c.v.GetBool("scan.even_only") }
func (c *Config) RateLimit() int          { return c.v.GetInt("scan.rate_limit") }

func (c *Config) ProbeMode() string { return c.v.GetString("probe.mode") }
func (c *Config) ProbeTCPPort() int { return c.v.GetInt("probe.tcp_port") }

func (c *Config) CheckpointPath() string  { return c.v.GetString("checkpoint.path") }
func (c *Config) CheckpointInterval() int { return c.v.GetInt("checkpoint.interval") }
func (c *Config) ResumeCheckpoint() string {
	return c.v.GetString("checkpoint.resume")
}

func (c *Config) CompareBaseline() string { return c.v.GetString("compare.baseline") }
func (c *Config) CompareLast() bool       { return c.v.GetBool("compare.last") }
func (c *Config) MinChangesToAlert() int  { return c.v.GetInt("compare.min_changes") }
func (c *Config) MinChangePercentage() float64 {
	return c.v.GetFloat64("compare.min_change_pct")
}
func (c *Config) AlertNewOnly() bool     { return c.v.GetBool("compare.alert_new_only") }
func (c *Config) AlertOfflineOnly() bool { return c.v.GetBool("compare.alert_offline_only") }

func (c *Config) OutputJSON() string { return c.v.GetString("output.json") }
func (c *Config) OutputCSV() string  { return c.v.GetString("output.csv") }
func (c *Config) HistoryDB() string  { return c.v.GetString("output.history_db") }

func (c *Config) MetricsAddr() string { return c.v.GetString("metrics.addr") }
