// Package config loads daemon configuration from YAML and the environment.
package config

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

const (
	envPrefix         = "TABFOCUS_"
	maxConfigFileSize = 1024 * 1024
)

// defaults is loaded before the user file so that boolean switches default to on.
const defaults = `
http:
  addr: 127.0.0.1:17345
tracking:
  check_interval: 2s
  flush_interval: 60s
  tolerance: 2s
notify:
  plugin_path: ""
  welcome: true
log:
  level: info
  format: console
metrics:
  enabled: true
`

// Config is the full daemon configuration.
type Config struct {
	DataDir  string         `koanf:"data_dir"`
	HTTP     HTTPConfig     `koanf:"http"`
	Tracking TrackingConfig `koanf:"tracking"`
	Notify   NotifyConfig   `koanf:"notify"`
	Log      LogConfig      `koanf:"log"`
	Metrics  MetricsConfig  `koanf:"metrics"`
}

type HTTPConfig struct {
	Addr string `koanf:"addr"`
}

// TrackingConfig holds the two timer cadences and the reminder tolerance window.
type TrackingConfig struct {
	CheckInterval Duration `koanf:"check_interval"`
	FlushInterval Duration `koanf:"flush_interval"`
	Tolerance     Duration `koanf:"tolerance"`
}

type NotifyConfig struct {
	PluginPath string `koanf:"plugin_path"`
	Welcome    bool   `koanf:"welcome"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

type MetricsConfig struct {
	Enabled bool `koanf:"enabled"`
}

// Duration wraps time.Duration for text unmarshaling (YAML, env vars).
type Duration time.Duration

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	if parsed < 0 {
		return fmt.Errorf("duration cannot be negative: %s", text)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration().String()), nil
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Duration().String())
}

func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// Load reads configuration with precedence env > file > defaults.
// An empty path means ~/.config/tabfocus/config.yaml; a missing file is not an error.
func Load(path string) (Config, error) {
	k := koanf.New(".")
	if err := k.Load(rawbytes.Provider([]byte(defaults)), yaml.Parser()); err != nil {
		return Config{}, fmt.Errorf("load defaults: %w", err)
	}

	if path == "" {
		path = DefaultPath()
	}
	content, err := readConfigFile(path)
	if err != nil {
		return Config{}, err
	}
	if content != nil {
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envKey), nil); err != nil {
		return Config{}, fmt.Errorf("load environment: %w", err)
	}

	cfg := Config{}
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if cfg.DataDir == "" {
		cfg.DataDir = DefaultDataDir()
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// envKey maps TABFOCUS_TRACKING_CHECK_INTERVAL to tracking.check_interval and
// TABFOCUS_DATA_DIR to data_dir.
func envKey(s string) string {
	lower := strings.ToLower(strings.TrimPrefix(s, envPrefix))
	parts := strings.SplitN(lower, "_", 2)
	if len(parts) == 2 {
		switch parts[0] {
		case "http", "tracking", "notify", "log", "metrics":
			return parts[0] + "." + parts[1]
		}
	}
	return lower
}

func readConfigFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open config file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat config file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("config path %s is a directory", path)
	}
	if info.Size() > maxConfigFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes", info.Size())
	}
	content, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	return content, nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.DataDir) == "" {
		return fmt.Errorf("data dir is required")
	}
	if strings.TrimSpace(c.HTTP.Addr) == "" {
		return fmt.Errorf("http addr is required")
	}
	if c.Tracking.CheckInterval.Duration() <= 0 {
		return fmt.Errorf("tracking check interval must be > 0")
	}
	if c.Tracking.FlushInterval.Duration() <= 0 {
		return fmt.Errorf("tracking flush interval must be > 0")
	}
	if c.Tracking.Tolerance.Duration() <= 0 {
		return fmt.Errorf("tracking tolerance must be > 0")
	}
	if c.Log.Format != "json" && c.Log.Format != "console" {
		return fmt.Errorf("log format must be 'json' or 'console', got %q", c.Log.Format)
	}
	return nil
}

func (c Config) DBPath() string       { return filepath.Join(c.DataDir, "tabfocus.db") }
func (c Config) SettingsPath() string { return filepath.Join(c.DataDir, "settings.yaml") }
func (c Config) SocketPath() string   { return filepath.Join(c.DataDir, "daemon.sock") }
func (c Config) PIDPath() string      { return filepath.Join(c.DataDir, "daemon.pid") }
func (c Config) LogPath() string      { return filepath.Join(c.DataDir, "daemon.log") }

func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".tabfocus", "config.yaml")
	}
	return filepath.Join(home, ".config", "tabfocus", "config.yaml")
}

func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".tabfocus"
	}
	return filepath.Join(home, ".local", "share", "tabfocus")
}
