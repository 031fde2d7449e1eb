package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
)

const (
	// AppDir is the directory name under os.UserConfigDir().
	AppDir = "jarvis"

	// ConfigFile is the configuration filename inside the config directory.
	ConfigFile = "voiceid.yaml"

	// ConfigDirEnv overrides the configuration directory.
	ConfigDirEnv = "JARVIS_CONFIG_DIR"
)

// Store backends.
const (
	BackendDir    = "dir"
	BackendBadger = "badger"
	BackendS3     = "s3"
)

// Config is the voiceid CLI configuration file.
type Config struct {
	// Store selects where speaker profiles live.
	Store StoreConfig `yaml:"store"`

	// Threshold is the cosine distance below which a speaker is accepted.
	Threshold float64 `yaml:"threshold"`

	// Samples is the number of recordings per enrollment.
	Samples int `yaml:"samples"`

	// RecordSeconds is the length of one recording.
	RecordSeconds float64 `yaml:"record_seconds"`

	// CaptureSampleRate is the rate requested from the microphone.
	// 0 uses the device default; audio is resampled before extraction.
	CaptureSampleRate int `yaml:"capture_sample_rate"`

	// LeadInMillis is the pause between the prompt and the recording.
	LeadInMillis int `yaml:"lead_in_ms"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`

	// path is the file the config was loaded from.
	path string
}

// StoreConfig configures the profile store backend.
type StoreConfig struct {
	// Backend is one of dir, badger, s3.
	Backend string `yaml:"backend"`

	// Dir is the profile directory (dir) or database directory (badger).
	// Empty means a default below the config directory.
	Dir string `yaml:"dir,omitempty"`

	// Bucket, Prefix, Region and Endpoint configure the s3 backend.
	Bucket   string `yaml:"bucket,omitempty"`
	Prefix   string `yaml:"prefix,omitempty"`
	Region   string `yaml:"region,omitempty"`
	Endpoint string `yaml:"endpoint,omitempty"`

	// AccessKey and SecretKey are static S3 credentials. When empty the
	// default AWS credential chain is used.
	AccessKey string `yaml:"access_key,omitempty"`
	SecretKey string `yaml:"secret_key,omitempty"`
}

// Defaults returns the configuration used when no file exists.
func Defaults() *Config {
	return &Config{
		Store:             StoreConfig{Backend: BackendDir},
		Threshold:         0.45,
		Samples:           3,
		RecordSeconds:     2.5,
		CaptureSampleRate: 22050,
		LeadInMillis:      500,
		LogLevel:          "info",
	}
}

// DefaultConfigDir returns $JARVIS_CONFIG_DIR, or os.UserConfigDir()/jarvis.
func DefaultConfigDir() (string, error) {
	if dir := os.Getenv(ConfigDirEnv); dir != "" {
		return dir, nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine config directory: %w", err)
	}
	return filepath.Join(base, AppDir), nil
}

// DefaultConfigPath returns the config file path in DefaultConfigDir.
func DefaultConfigPath() (string, error) {
	dir, err := DefaultConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ConfigFile), nil
}

// LoadConfig reads the config file at path. A missing file yields Defaults.
// Fields absent from the file keep their default values.
func LoadConfig(path string) (*Config, error) {
	cfg := Defaults()
	cfg.path = path

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the configuration back to the file it was loaded from.
func (c *Config) Save() error {
	if c.path == "" {
		return errors.New("config has no file path")
	}
	if err := c.Validate(); err != nil {
		return err
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(c.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Path returns the config file path.
func (c *Config) Path() string {
	return c.path
}

// Dir returns the config directory path.
func (c *Config) Dir() string {
	return filepath.Dir(c.path)
}

// StoreDir returns the directory used by the dir and badger backends.
func (c *Config) StoreDir() string {
	if c.Store.Dir != "" {
		return c.Store.Dir
	}
	if c.Store.Backend == BackendBadger {
		return filepath.Join(c.Dir(), "speakers.badger")
	}
	return filepath.Join(c.Dir(), "speakers")
}

// RecordDuration returns RecordSeconds as a duration.
func (c *Config) RecordDuration() time.Duration {
	return time.Duration(c.RecordSeconds * float64(time.Second))
}

// LeadIn returns LeadInMillis as a duration.
func (c *Config) LeadIn() time.Duration {
	return time.Duration(c.LeadInMillis) * time.Millisecond
}

// Masked returns a copy with credentials masked for display.
func (c *Config) Masked() *Config {
	m := *c
	m.Store.AccessKey = MaskAPIKey(c.Store.AccessKey)
	m.Store.SecretKey = MaskAPIKey(c.Store.SecretKey)
	return &m
}

// MaskAPIKey masks a secret for display, keeping four characters at each end.
func MaskAPIKey(key string) string {
	if len(key) <= 8 {
		return strings.Repeat("*", len(key))
	}
	return key[:4] + strings.Repeat("*", len(key)-8) + key[len(key)-4:]
}

// Validate checks field ranges.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case BackendDir, BackendBadger:
	case BackendS3:
		if c.Store.Bucket == "" {
			return errors.New("store.bucket is required for the s3 backend")
		}
	default:
		return fmt.Errorf("unknown store.backend %q (want dir, badger or s3)", c.Store.Backend)
	}
	if c.Threshold <= 0 || c.Threshold > 2 {
		return fmt.Errorf("threshold %g out of range (0, 2]", c.Threshold)
	}
	if c.Samples < 1 {
		return fmt.Errorf("samples must be at least 1, got %d", c.Samples)
	}
	if c.RecordSeconds <= 0 {
		return fmt.Errorf("record_seconds must be positive, got %g", c.RecordSeconds)
	}
	if c.CaptureSampleRate < 0 {
		return fmt.Errorf("capture_sample_rate must not be negative, got %d", c.CaptureSampleRate)
	}
	if c.LeadInMillis < 0 {
		return fmt.Errorf("lead_in_ms must not be negative, got %d", c.LeadInMillis)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// configKeys maps dotted keys to setters.
var configKeys = map[string]func(c *Config, v string) error{
	"store.backend":    func(c *Config, v string) error { c.Store.Backend = v; return nil },
	"store.dir":        func(c *Config, v string) error { c.Store.Dir = v; return nil },
	"store.bucket":     func(c *Config, v string) error { c.Store.Bucket = v; return nil },
	"store.prefix":     func(c *Config, v string) error { c.Store.Prefix = v; return nil },
	"store.region":     func(c *Config, v string) error { c.Store.Region = v; return nil },
	"store.endpoint":   func(c *Config, v string) error { c.Store.Endpoint = v; return nil },
	"store.access_key": func(c *Config, v string) error { c.Store.AccessKey = v; return nil },
	"store.secret_key": func(c *Config, v string) error { c.Store.SecretKey = v; return nil },
	"threshold":        func(c *Config, v string) error { return parseFloat(v, &c.Threshold) },
	"samples":          func(c *Config, v string) error { return parseInt(v, &c.Samples) },
	"record_seconds":   func(c *Config, v string) error { return parseFloat(v, &c.RecordSeconds) },
	"capture_sample_rate": func(c *Config, v string) error {
		return parseInt(v, &c.CaptureSampleRate)
	},
	"lead_in_ms": func(c *Config, v string) error { return parseInt(v, &c.LeadInMillis) },
	"log_level":  func(c *Config, v string) error { c.LogLevel = strings.ToLower(v); return nil },
}

// ConfigKeys returns the keys accepted by Set, sorted.
func ConfigKeys() []string {
	keys := make([]string, 0, len(configKeys))
	for k := range configKeys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Set assigns a value by dotted key and validates the result.
// On error the config is unchanged.
func (c *Config) Set(key, value string) error {
	set, ok := configKeys[key]
	if !ok {
		return fmt.Errorf("unknown config key %q (valid: %s)", key, strings.Join(ConfigKeys(), ", "))
	}
	next := *c
	if err := set(&next, value); err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	if err := next.Validate(); err != nil {
		return err
	}
	*c = next
	return nil
}

func parseFloat(s string, dst *float64) error {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("not a number: %q", s)
	}
	*dst = v
	return nil
}

func parseInt(s string, dst *int) error {
	v, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("not an integer: %q", s)
	}
	*dst = v
	return nil
}

// ParseLevel converts a log level name to a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("invalid log_level %q", s)
	}
	return l, nil
}
