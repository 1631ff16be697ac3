// Package config loads orchard.toml.
//
// Settings are layered: built-in defaults, then the TOML file, then
// environment variables (ORCHARD_REDIS_ADDR, ORCHARD_MONGO_URI), then
// command-line flags applied by the caller.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	errs "github.com/matzehuels/orchard/pkg/errors"
	"github.com/matzehuels/orchard/pkg/export"
)

// FileName is the settings file name.
const FileName = "orchard.toml"

// Environment overrides.
const (
	EnvRedisAddr = "ORCHARD_REDIS_ADDR"
	EnvMongoURI  = "ORCHARD_MONGO_URI"
)

// Backend names.
const (
	BackendFile  = "file"
	BackendMongo = "mongo"
	BackendRedis = "redis"
	BackendNone  = "none"
)

// Config is the full settings tree.
type Config struct {
	Log     Log     `toml:"log"`
	Storage Storage `toml:"storage"`
	Cache   Cache   `toml:"cache"`
	Server  Server  `toml:"server"`
	Export  Export  `toml:"export"`
	// ImageDir resolves relative image paths in records.
	ImageDir string `toml:"image_dir"`

	path string
}

// Log configures logging.
type Log struct {
	Level string `toml:"level"`
}

// Storage selects where studio state and applied layouts live.
type Storage struct {
	Backend string `toml:"backend"`
	Dir     string `toml:"dir"`
	Mongo   Mongo  `toml:"mongo"`
}

// Mongo configures the MongoDB backend.
type Mongo struct {
	URI      string `toml:"uri"`
	Database string `toml:"database"`
	StateKey string `toml:"state_key"`
}

// Cache selects the artifact and record cache.
type Cache struct {
	Backend string `toml:"backend"`
	Dir     string `toml:"dir"`
	Redis   Redis  `toml:"redis"`
}

// Redis configures the Redis cache backend.
type Redis struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
	Prefix   string `toml:"prefix"`
}

// Server configures orchard serve.
type Server struct {
	Addr    string `toml:"addr"`
	Timeout string `toml:"timeout"`
	MaxBody int64  `toml:"max_body"`
}

// Export holds export defaults.
type Export struct {
	export.Options
	OutputDir    string `toml:"output_dir"`
	SettleDelay  string `toml:"settle_delay"`
	CleanupDelay string `toml:"cleanup_delay"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Log:     Log{Level: "info"},
		Storage: Storage{Backend: BackendFile},
		Cache:   Cache{Backend: BackendFile, Redis: Redis{Prefix: "orchard:"}},
		Server:  Server{Addr: ":8080", Timeout: "60s"},
		Export: Export{
			Options:      export.DefaultOptions(),
			OutputDir:    ".",
			SettleDelay:  export.DefaultSettleDelay.String(),
			CleanupDelay: export.DefaultCleanupDelay.String(),
		},
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/orchard/orchard.toml, falling back
// to ~/.config.
func DefaultPath() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "orchard", FileName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "orchard", FileName), nil
}

// Load reads path, or the default location when path is empty. A missing
// default file is not an error; a missing explicit file is.
func Load(path string) (*Config, error) {
	cfg := Default()
	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err == nil {
			path = p
		}
	}

	if path != "" {
		md, err := toml.DecodeFile(path, &cfg)
		switch {
		case err == nil:
			cfg.path = path
			if undecoded := md.Undecoded(); len(undecoded) > 0 {
				keys := make([]string, len(undecoded))
				for i, k := range undecoded {
					keys[i] = k.String()
				}
				sort.Strings(keys)
				return nil, errs.New(errs.ErrCodeInvalidConfig, "%s: unknown keys: %s", path, strings.Join(keys, ", "))
			}
		case errors.Is(err, fs.ErrNotExist):
			if explicit {
				return nil, errs.Wrap(errs.ErrCodeFileNotFound, err, "config file %s", path)
			}
		default:
			return nil, errs.Wrap(errs.ErrCodeInvalidConfig, err, "parse %s", path)
		}
	}

	cfg.ApplyEnv(os.Getenv)
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Path returns the file the settings were read from, if any.
func (c *Config) Path() string { return c.path }

// ApplyEnv applies environment overrides. Setting an address or URI also
// selects the matching backend.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := strings.TrimSpace(getenv(EnvRedisAddr)); v != "" {
		c.Cache.Backend = BackendRedis
		c.Cache.Redis.Addr = v
	}
	if v := strings.TrimSpace(getenv(EnvMongoURI)); v != "" {
		c.Storage.Backend = BackendMongo
		c.Storage.Mongo.URI = v
	}
}

// SetDefaults fills empty fields.
func (c *Config) SetDefaults() {
	def := Default()
	if c.Log.Level == "" {
		c.Log.Level = def.Log.Level
	}
	if c.Storage.Backend == "" {
		c.Storage.Backend = def.Storage.Backend
	}
	if c.Cache.Backend == "" {
		c.Cache.Backend = def.Cache.Backend
	}
	if c.Server.Addr == "" {
		c.Server.Addr = def.Server.Addr
	}
	if c.Server.Timeout == "" {
		c.Server.Timeout = def.Server.Timeout
	}
	if c.Export.OutputDir == "" {
		c.Export.OutputDir = def.Export.OutputDir
	}
	if c.Export.SettleDelay == "" {
		c.Export.SettleDelay = def.Export.SettleDelay
	}
	if c.Export.CleanupDelay == "" {
		c.Export.CleanupDelay = def.Export.CleanupDelay
	}
	c.Export.Options.SetDefaults()
}

// Validate checks backend names, durations and export options.
func (c *Config) Validate() error {
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return errs.New(errs.ErrCodeInvalidConfig, "log.level must be debug, info, warn or error, got %q", c.Log.Level)
	}
	switch c.Storage.Backend {
	case BackendFile:
	case BackendMongo:
		if c.Storage.Mongo.URI == "" {
			return errs.New(errs.ErrCodeInvalidConfig, "storage.mongo.uri is required for the mongo backend")
		}
	default:
		return errs.New(errs.ErrCodeInvalidConfig, "storage.backend must be file or mongo, got %q", c.Storage.Backend)
	}
	switch c.Cache.Backend {
	case BackendFile, BackendNone:
	case BackendRedis:
		if c.Cache.Redis.Addr == "" {
			return errs.New(errs.ErrCodeInvalidConfig, "cache.redis.addr is required for the redis backend")
		}
	default:
		return errs.New(errs.ErrCodeInvalidConfig, "cache.backend must be file, redis or none, got %q", c.Cache.Backend)
	}
	for name, v := range map[string]string{
		"server.timeout":       c.Server.Timeout,
		"export.settle_delay":  c.Export.SettleDelay,
		"export.cleanup_delay": c.Export.CleanupDelay,
	} {
		if _, err := parseDuration(name, v); err != nil {
			return err
		}
	}
	if err := c.Export.Options.Validate(); err != nil {
		return errs.Wrap(errs.ErrCodeInvalidConfig, err, "export")
	}
	return nil
}

// ServerTimeout returns the parsed server timeout.
func (c *Config) ServerTimeout() time.Duration {
	d, _ := parseDuration("server.timeout", c.Server.Timeout)
	return d
}

// Delays returns the parsed export settle and cleanup delays.
func (c *Config) Delays() (settle, cleanup time.Duration) {
	settle, _ = parseDuration("export.settle_delay", c.Export.SettleDelay)
	cleanup, _ = parseDuration("export.cleanup_delay", c.Export.CleanupDelay)
	return settle, cleanup
}

func parseDuration(name, v string) (time.Duration, error) {
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		return 0, errs.New(errs.ErrCodeInvalidConfig, "%s: invalid duration %q", name, v)
	}
	return d, nil
}

// Write encodes c as TOML to path, creating parent directories.
func (c *Config) Write(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	if err := toml.NewEncoder(f).Encode(c); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}
