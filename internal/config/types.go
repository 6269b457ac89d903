package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Config is the full daemon configuration. All durations are Go duration
// strings (e.g. "500ms", "10s", "72h").
type Config struct {
	Logging   LoggingConfig   `json:"logging"`
	Storage   StorageConfig   `json:"storage"`
	Gateway   GatewayConfig   `json:"gateway"`
	Window    WindowConfig    `json:"window"`
	Rules     RulesConfig     `json:"rules,omitempty"`
	Scheduler SchedulerConfig `json:"scheduler"`
	Dispatch  DispatchConfig  `json:"dispatch,omitempty"`
	Admin     AdminConfig     `json:"admin,omitempty"`
	Debug     DebugConfig     `json:"debug,omitempty"`
}

type LoggingConfig struct {
	Level   string      `json:"level"`
	Console bool        `json:"console"`
	File    LoggingFile `json:"file"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

type StorageConfig struct {
	Driver      string `json:"driver"`
	Path        string `json:"path"`
	BusyTimeout string `json:"busy_timeout,omitempty"`
}

// GatewayConfig points at the push gateway credentials.
type GatewayConfig struct {
	// CredentialsFile is the path to the service-account key JSON.
	CredentialsFile string `json:"credentials_file"`
	// BaseURL overrides the gateway host (tests / staging). Empty = production.
	BaseURL string `json:"base_url,omitempty"`
}

// WindowConfig is the push window: local hours during which non-urgent
// notifications may go out, plus the fallback zone for users without one.
type WindowConfig struct {
	StartHour       int    `json:"start_hour"`
	EndHour         int    `json:"end_hour"`
	DefaultTimezone string `json:"default_timezone"`
}

// RulesConfig holds the per-job eligibility constants.
type RulesConfig struct {
	EngagementCooldown string `json:"engagement_cooldown,omitempty"` // default "72h"
	IdleThreshold      string `json:"idle_threshold,omitempty"`      // default "168h"
	MaxSubjects        int    `json:"max_subjects,omitempty"`
	MaxRunDuration     string `json:"max_run_duration,omitempty"`
}

type SchedulerConfig struct {
	Enabled     bool              `json:"enabled"`
	Timezone    string            `json:"timezone,omitempty"`
	HistorySize int               `json:"history_size,omitempty"`
	Schedules   map[string]string `json:"schedules"`
}

type DispatchConfig struct {
	RatePerSec int `json:"rate_per_sec,omitempty"`
}

// AdminConfig controls the manual-trigger HTTP API.
//
// Security note:
//   - Prefer binding to localhost (e.g. "127.0.0.1:8686").
//   - If you bind to a non-loopback address, set a token.
type AdminConfig struct {
	Enabled bool   `json:"enabled"`
	Addr    string `json:"addr,omitempty"`  // default "127.0.0.1:8686"
	Token   string `json:"token,omitempty"` // optional bearer token (do not log)
}

// DebugConfig holds the optional debug surfaces.
type DebugConfig struct {
	Pprof PprofConfig `json:"pprof,omitempty"`
}

type PprofConfig struct {
	Enabled              bool   `json:"enabled"`
	Address              string `json:"address,omitempty"` // default 127.0.0.1:6060
	BlockProfileRate     int    `json:"block_profile_rate,omitempty"`
	MutexProfileFraction int    `json:"mutex_profile_fraction,omitempty"`
}

// Validate rejects configs that cannot possibly run. It is also installed as
// the hot-reload validator, so a bad edit never replaces a good config.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Storage.Path) == "" {
		return errors.New("storage.path is required")
	}
	if strings.TrimSpace(c.Gateway.CredentialsFile) == "" {
		return errors.New("gateway.credentials_file is required")
	}
	if c.Window.StartHour < 0 || c.Window.StartHour > 23 {
		return fmt.Errorf("window.start_hour %d out of range", c.Window.StartHour)
	}
	if c.Window.EndHour < 0 || c.Window.EndHour > 23 {
		return fmt.Errorf("window.end_hour %d out of range", c.Window.EndHour)
	}
	for _, field := range []struct{ path, raw string }{
		{"storage.busy_timeout", c.Storage.BusyTimeout},
		{"rules.engagement_cooldown", c.Rules.EngagementCooldown},
		{"rules.idle_threshold", c.Rules.IdleThreshold},
		{"rules.max_run_duration", c.Rules.MaxRunDuration},
	} {
		if _, err := ParseDurationField(field.path, field.raw); err != nil {
			return err
		}
	}
	return nil
}

// Normalize fills defaults after a successful parse.
func (c *Config) Normalize() {
	if strings.TrimSpace(c.Logging.Level) == "" {
		c.Logging.Level = "info"
	}
	if strings.TrimSpace(c.Admin.Addr) == "" {
		c.Admin.Addr = "127.0.0.1:8686"
	}
	if c.Window.StartHour == 0 && c.Window.EndHour == 0 {
		c.Window.StartHour, c.Window.EndHour = 8, 21
	}
	if strings.TrimSpace(c.Window.DefaultTimezone) == "" {
		c.Window.DefaultTimezone = "UTC"
	}
}

// EngagementCooldown returns the parsed cooldown (default 72h).
func (c *Config) EngagementCooldown() time.Duration {
	d, _ := ParseDurationOrDefault("rules.engagement_cooldown", c.Rules.EngagementCooldown, 72*time.Hour)
	return d
}

// IdleThreshold returns the parsed inactivity threshold (default 7 days).
func (c *Config) IdleThreshold() time.Duration {
	d, _ := ParseDurationOrDefault("rules.idle_threshold", c.Rules.IdleThreshold, 7*24*time.Hour)
	return d
}

// MaxRunDuration returns the per-batch wall-clock cap (default 10m).
func (c *Config) MaxRunDuration() time.Duration {
	d, _ := ParseDurationOrDefault("rules.max_run_duration", c.Rules.MaxRunDuration, 10*time.Minute)
	return d
}

// StorageBusyTimeout returns the parsed sqlite busy timeout.
func (c *Config) StorageBusyTimeout() time.Duration {
	d, _ := ParseDurationField("storage.busy_timeout", c.Storage.BusyTimeout)
	return d
}
