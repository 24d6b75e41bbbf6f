package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// EnvPrefix prefixes environment overrides, e.g. CREATORBRIDGE_SERVER_PORT
	EnvPrefix = "CREATORBRIDGE"

	EditorSimulated = "sim"
	EditorBridge    = "bridge"

	StoreMemory = "memory"
	StoreRedis  = "redis"
)

// Config represents the creatorbridge configuration
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Editor  EditorConfig  `mapstructure:"editor"`
	Store   StoreConfig   `mapstructure:"store"`
	Journal JournalConfig `mapstructure:"journal"`
	Auth    AuthConfig    `mapstructure:"auth"`
	Log     LogConfig     `mapstructure:"log"`
}

// ServerConfig represents the tool server listener
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	// RateLimit caps tool calls per client and minute; 0 disables the limit
	RateLimit int  `mapstructure:"rate_limit"`
	Pprof     bool `mapstructure:"pprof"`
}

// EditorConfig selects and reaches the editor
type EditorConfig struct {
	// Mode is "sim" for the simulated editor or "bridge" for a real editor
	// connecting over websocket
	Mode string `mapstructure:"mode"`
	// URL is the server's editor endpoint, dialed by `creatorbridge simulate`
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
	// Scripts is the project directory script assets are read from
	Scripts string `mapstructure:"scripts"`
}

// StoreConfig configures the simulated editor's state
type StoreConfig struct {
	Backend string      `mapstructure:"backend"`
	Fixture string      `mapstructure:"fixture"`
	Redis   RedisConfig `mapstructure:"redis"`
}

// RedisConfig represents the redis connection of the redis store
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

// JournalConfig locates the mutation journal. An empty path disables it.
type JournalConfig struct {
	Path string `mapstructure:"path"`
}

// AuthConfig enables bearer authentication when Secret is set
type AuthConfig struct {
	Secret   string        `mapstructure:"secret"`
	Issuer   string        `mapstructure:"issuer"`
	TokenTTL time.Duration `mapstructure:"token_ttl"`
}

// LogConfig represents logger settings
type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// Address returns the listen address
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 8585)
	v.SetDefault("server.rate_limit", 0)
	v.SetDefault("server.pprof", false)
	v.SetDefault("editor.mode", EditorSimulated)
	v.SetDefault("editor.url", "ws://127.0.0.1:8585/editor")
	v.SetDefault("editor.timeout", 10*time.Second)
	v.SetDefault("editor.scripts", ".")
	v.SetDefault("store.backend", StoreMemory)
	v.SetDefault("store.fixture", "")
	v.SetDefault("store.redis.addr", "127.0.0.1:6379")
	v.SetDefault("store.redis.password", "")
	v.SetDefault("store.redis.db", 0)
	v.SetDefault("store.redis.prefix", "creatorbridge:")
	v.SetDefault("journal.path", "creatorbridge.db")
	v.SetDefault("auth.secret", "")
	v.SetDefault("auth.issuer", "creatorbridge")
	v.SetDefault("auth.token_ttl", 24*time.Hour)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
}

// Load reads creatorbridge.yaml from the working directory, or file when
// set, then applies CREATORBRIDGE_* environment overrides and flags.
// A missing default file is not an error; a missing explicit file is.
func Load(file string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("creatorbridge")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if flags != nil {
		if err := bindFlags(v, flags); err != nil {
			return nil, err
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, err
	}
	return &config, nil
}

// flagKeys maps command flags to configuration keys
var flagKeys = map[string]string{
	"host":       "server.host",
	"port":       "server.port",
	"rate-limit": "server.rate_limit",
	"pprof":      "server.pprof",
	"editor":     "editor.mode",
	"url":        "editor.url",
	"timeout":    "editor.timeout",
	"scripts":    "editor.scripts",
	"store":      "store.backend",
	"fixture":    "store.fixture",
	"redis":      "store.redis.addr",
	"journal":    "journal.path",
	"secret":     "auth.secret",
	"log-level":  "log.level",
	"dev":        "log.development",
}

// bindFlags lets flags the user set override file and environment values
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for name, key := range flagKeys {
		f := flags.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind flag %s: %w", name, err)
		}
	}
	return nil
}

// validateConfig validates the configuration
func validateConfig(cfg *Config) error {
	if cfg.Server.Port < 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 0 and 65535, got: %d", cfg.Server.Port)
	}
	if cfg.Server.RateLimit < 0 {
		return fmt.Errorf("server.rate_limit must not be negative, got: %d", cfg.Server.RateLimit)
	}
	switch cfg.Editor.Mode {
	case EditorSimulated, EditorBridge:
	default:
		return fmt.Errorf("editor.mode must be %q or %q, got: %s", EditorSimulated, EditorBridge, cfg.Editor.Mode)
	}
	switch cfg.Store.Backend {
	case StoreMemory, StoreRedis:
	default:
		return fmt.Errorf("store.backend must be %q or %q, got: %s", StoreMemory, StoreRedis, cfg.Store.Backend)
	}
	if cfg.Editor.Timeout <= 0 {
		return fmt.Errorf("editor.timeout must be positive, got: %s", cfg.Editor.Timeout)
	}
	return nil
}
