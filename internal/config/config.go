// Package config manages the client configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"
)

const (
	dirName        = ".venue-client"
	fileName       = "config.yaml"
	envPrefix      = "VENUE"
	defaultBaseURL = "http://localhost:4000/api"
)

// Config is the client configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Session  SessionConfig  `mapstructure:"session"`
	Search   SearchConfig   `mapstructure:"search"`
	Queue    QueueConfig    `mapstructure:"queue"`
	UI       UIConfig       `mapstructure:"ui"`
	Log      LogConfig      `mapstructure:"log"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Identity IdentityConfig `mapstructure:"identity"`
}

// ServerConfig locates the venue backend.
type ServerConfig struct {
	URL     string        `mapstructure:"url"` // API base, including the /api prefix
	Market  string        `mapstructure:"market"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// SessionConfig tunes the session lifecycle.
type SessionConfig struct {
	HeartbeatInterval time.Duration `mapstructure:"heartbeat_interval"`
	ActivityWindow    time.Duration `mapstructure:"activity_window"`
	RedirectDelay     time.Duration `mapstructure:"redirect_delay"`
	CloseOnExit       bool          `mapstructure:"close_on_exit"`
}

// SearchConfig tunes catalog search.
type SearchConfig struct {
	Debounce time.Duration `mapstructure:"debounce"`
	Limit    int           `mapstructure:"limit"`
}

// QueueConfig tunes queue position polling.
type QueueConfig struct {
	PollInterval time.Duration `mapstructure:"poll_interval"`
}

// UIConfig holds notice timings.
type UIConfig struct {
	NoticeTTL   time.Duration `mapstructure:"notice_ttl"`
	ReturnAfter time.Duration `mapstructure:"return_after"`
}

// LogConfig selects log level, format and destination.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // console or json
	File   string `mapstructure:"file"`   // empty logs to stderr
}

// MetricsConfig exposes prometheus metrics when Addr is set.
type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

// IdentityConfig is the persisted table session.
type IdentityConfig struct {
	SessionID string `mapstructure:"session_id"`
	TableID   string `mapstructure:"table_id"`
}

var (
	mu         sync.RWMutex
	v          *viper.Viper
	cfg        *Config
	configPath string
	configDir  string
)

// Init loads ~/.venue-client/config.yaml, creating it with defaults on first
// run.
func Init() error {
	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("resolve home directory: %w", err)
	}
	return InitAt(filepath.Join(home, dirName))
}

// InitAt loads the config file from dir.
func InitAt(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	path := filepath.Join(dir, fileName)

	nv := viper.New()
	nv.SetConfigFile(path)
	nv.SetConfigType("yaml")
	setDefaults(nv)

	nv.SetEnvPrefix(envPrefix)
	nv.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	nv.AutomaticEnv()

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := writeDefaults(path); err != nil {
			return fmt.Errorf("write default config: %w", err)
		}
	}
	if err := nv.ReadInConfig(); err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	next := &Config{}
	if err := nv.Unmarshal(next); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}

	mu.Lock()
	v, cfg, configDir, configPath = nv, next, dir, path
	mu.Unlock()
	return nil
}

// writeDefaults creates the file from defaults alone, without env overrides.
func writeDefaults(path string) error {
	plain := viper.New()
	plain.SetConfigType("yaml")
	setDefaults(plain)
	return plain.WriteConfigAs(path)
}

func setDefaults(nv *viper.Viper) {
	nv.SetDefault("server.url", defaultBaseURL)
	nv.SetDefault("server.market", "CO")
	nv.SetDefault("server.timeout", 15*time.Second)

	nv.SetDefault("session.heartbeat_interval", 70*time.Second)
	nv.SetDefault("session.activity_window", 90*time.Second)
	nv.SetDefault("session.redirect_delay", 4*time.Second)
	nv.SetDefault("session.close_on_exit", true)

	nv.SetDefault("search.debounce", 350*time.Millisecond)
	nv.SetDefault("search.limit", 12)

	nv.SetDefault("queue.poll_interval", 5*time.Second)

	nv.SetDefault("ui.notice_ttl", 4*time.Second)
	nv.SetDefault("ui.return_after", 0)

	nv.SetDefault("log.level", "info")
	nv.SetDefault("log.format", "console")
	nv.SetDefault("log.file", "")

	nv.SetDefault("metrics.addr", "")

	nv.SetDefault("identity.session_id", "")
	nv.SetDefault("identity.table_id", "")
}

// Get returns the loaded configuration, or nil before Init.
func Get() *Config {
	mu.RLock()
	defer mu.RUnlock()
	return cfg
}

// Path returns the config file location.
func Path() string {
	mu.RLock()
	defer mu.RUnlock()
	return configPath
}

// Dir returns the config directory.
func Dir() string {
	mu.RLock()
	defer mu.RUnlock()
	return configDir
}

// GetServerURL returns the API base URL.
func GetServerURL() string {
	mu.RLock()
	defer mu.RUnlock()
	if cfg == nil || cfg.Server.URL == "" {
		return defaultBaseURL
	}
	return cfg.Server.URL
}

// SetServerURL overrides the API base for this run. A bare host gets the /api
// prefix appended.
func SetServerURL(url string) {
	url = NormalizeServerURL(url)

	mu.Lock()
	defer mu.Unlock()
	if v != nil {
		v.Set("server.url", url)
	}
	if cfg != nil {
		cfg.Server.URL = url
	}
}

// NormalizeServerURL trims trailing slashes and appends /api when missing.
func NormalizeServerURL(url string) string {
	url = strings.TrimRight(strings.TrimSpace(url), "/")
	if url == "" {
		return defaultBaseURL
	}
	if !strings.HasSuffix(url, "/api") {
		url += "/api"
	}
	return url
}
