// Package config reads the flowcanvas configuration file.
package config

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/aretw0/flowcanvas/internal/logging"
)

// DefaultPath is the configuration file looked up when none is given.
const DefaultPath = "flowcanvas.yaml"

// EnvEncryptionKey overrides security.encryption_key so the key can stay out
// of the file.
const EnvEncryptionKey = "FLOWCANVAS_ENCRYPTION_KEY"

// Store backends.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
)

var ErrInvalidConfig = errors.New("invalid configuration")

type Config struct {
	Document string         `yaml:"document" json:"document"`
	Log      LogConfig      `yaml:"log" json:"log"`
	History  HistoryConfig  `yaml:"history" json:"history"`
	Catalog  CatalogConfig  `yaml:"catalog" json:"catalog"`
	Store    StoreConfig    `yaml:"store" json:"store"`
	Security SecurityConfig `yaml:"security" json:"security"`
	Server   ServerConfig   `yaml:"server" json:"server"`
}

type LogConfig struct {
	Level string `yaml:"level" json:"level"`
}

type HistoryConfig struct {
	MaxSize int `yaml:"max_size" json:"max_size"`
}

type CatalogConfig struct {
	// Path is a definitions file or a directory of them.
	Path string `yaml:"path" json:"path"`
}

type StoreConfig struct {
	Backend string      `yaml:"backend" json:"backend"`
	Path    string      `yaml:"path" json:"path"`
	Redis   RedisConfig `yaml:"redis" json:"redis"`
	// Lock serializes saves across processes. Requires the redis backend.
	Lock bool `yaml:"lock" json:"lock"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr" json:"addr"`
	Password string `yaml:"password" json:"password"`
	DB       int    `yaml:"db" json:"db"`
	Prefix   string `yaml:"prefix" json:"prefix"`
	// TTL is a Go duration ("24h"); empty keeps documents forever.
	TTL string `yaml:"ttl" json:"ttl"`
}

type SecurityConfig struct {
	// EncryptionKey is a hex encoded AES-256 key.
	EncryptionKey string `yaml:"encryption_key" json:"encryption_key"`
	// Redact lists regular expressions of data keys masked before saving.
	Redact []string `yaml:"redact" json:"redact"`
}

type ServerConfig struct {
	Addr string `yaml:"addr" json:"addr"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Document: "default",
		Log:      LogConfig{Level: "info"},
		History:  HistoryConfig{MaxSize: 100},
		Store: StoreConfig{
			Backend: BackendFile,
			Path:    filepath.Join(".flowcanvas", "documents"),
			Redis:   RedisConfig{Addr: "localhost:6379"},
		},
		Server: ServerConfig{Addr: ":8080"},
	}
}

// Load reads path (YAML, or JSON by extension) over the defaults. A missing
// file yields the defaults. The encryption key environment variable wins
// over the file.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return cfg, fmt.Errorf("failed to read config: %w", err)
	default:
		if strings.EqualFold(filepath.Ext(path), ".json") {
			err = json.Unmarshal(data, &cfg)
		} else {
			err = yaml.Unmarshal(data, &cfg)
		}
		if err != nil {
			return cfg, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
		}
	}

	if key := os.Getenv(EnvEncryptionKey); key != "" {
		cfg.Security.EncryptionKey = key
	}
	return cfg, nil
}

// Validate reports every problem of the configuration at once.
func (c Config) Validate() error {
	var errs []error
	if c.Document == "" {
		errs = append(errs, errors.New("document is required"))
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	if c.History.MaxSize < 1 {
		errs = append(errs, fmt.Errorf("history.max_size must be positive, got %d", c.History.MaxSize))
	}

	switch c.Store.Backend {
	case BackendMemory:
	case BackendFile:
		if c.Store.Path == "" {
			errs = append(errs, errors.New("store.path is required by the file backend"))
		}
	case BackendRedis:
		if c.Store.Redis.Addr == "" {
			errs = append(errs, errors.New("store.redis.addr is required by the redis backend"))
		}
		if _, err := c.RedisTTL(); err != nil {
			errs = append(errs, err)
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store.backend %q", c.Store.Backend))
	}
	if c.Store.Lock && c.Store.Backend != BackendRedis {
		errs = append(errs, errors.New("store.lock requires the redis backend"))
	}

	if _, err := c.EncryptionKey(); err != nil {
		errs = append(errs, err)
	}
	for _, p := range c.Security.Redact {
		if _, err := regexp.Compile(p); err != nil {
			errs = append(errs, fmt.Errorf("security.redact: %w", err))
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
}

// LogLevel returns the parsed log level, Info when invalid.
func (c Config) LogLevel() slog.Level {
	level, _ := logging.ParseLevel(c.Log.Level)
	return level
}

// EncryptionKey decodes the configured key. It returns nil when encryption
// is off.
func (c Config) EncryptionKey() ([]byte, error) {
	if c.Security.EncryptionKey == "" {
		return nil, nil
	}
	key, err := hex.DecodeString(c.Security.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("security.encryption_key is not hex: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("security.encryption_key must be 32 bytes, got %d", len(key))
	}
	return key, nil
}

// RedisTTL parses store.redis.ttl. Zero means no expiry.
func (c Config) RedisTTL() (time.Duration, error) {
	if c.Store.Redis.TTL == "" {
		return 0, nil
	}
	ttl, err := time.ParseDuration(c.Store.Redis.TTL)
	if err != nil {
		return 0, fmt.Errorf("store.redis.ttl: %w", err)
	}
	if ttl < 0 {
		return 0, errors.New("store.redis.ttl must not be negative")
	}
	return ttl, nil
}
