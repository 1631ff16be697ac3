package config

import (
	"context"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/orchard/pkg/cache"
	errs "github.com/matzehuels/orchard/pkg/errors"
	"github.com/matzehuels/orchard/pkg/store"
)

// CacheDir returns the file cache directory: cache.dir, then
// $XDG_CACHE_HOME/orchard, then ~/.cache/orchard.
func (c *Config) CacheDir() (string, error) {
	if c.Cache.Dir != "" {
		return c.Cache.Dir, nil
	}
	if dir := os.Getenv("XDG_CACHE_HOME"); dir != "" {
		return filepath.Join(dir, "orchard"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", "orchard"), nil
}

// OpenCache opens the configured cache. When disabled is set, or the
// cache cannot be opened, caching is turned off rather than failing.
func (c *Config) OpenCache(ctx context.Context, disabled bool, logger *log.Logger) cache.Cache {
	if disabled || c.Cache.Backend == BackendNone {
		return cache.NewNullCache()
	}
	if c.Cache.Backend == BackendRedis {
		rc, err := cache.NewRedisCache(ctx, cache.RedisOptions{
			Addr:     c.Cache.Redis.Addr,
			Password: c.Cache.Redis.Password,
			DB:       c.Cache.Redis.DB,
			Prefix:   c.Cache.Redis.Prefix,
		})
		if err != nil {
			logger.Warn("redis cache unavailable, caching disabled", "addr", c.Cache.Redis.Addr, "error", err)
			return cache.NewNullCache()
		}
		return rc
	}
	dir, err := c.CacheDir()
	if err != nil {
		logger.Warn("no cache directory, caching disabled", "error", err)
		return cache.NewNullCache()
	}
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		logger.Warn("file cache unavailable, caching disabled", "dir", dir, "error", err)
		return cache.NewNullCache()
	}
	return fc
}

// OpenStore opens the configured persistence backend.
func (c *Config) OpenStore(ctx context.Context) (store.Backend, error) {
	switch c.Storage.Backend {
	case BackendMongo:
		return store.NewMongoStore(ctx, store.MongoOptions{
			URI:      c.Storage.Mongo.URI,
			Database: c.Storage.Mongo.Database,
			StateKey: c.Storage.Mongo.StateKey,
		})
	case BackendFile, "":
		return store.NewFileStore(c.Storage.Dir)
	}
	return nil, errs.New(errs.ErrCodeInvalidConfig, "unknown storage backend %q", c.Storage.Backend)
}

// LogLevel returns the configured level.
func (c *Config) LogLevel() log.Level {
	lvl, err := log.ParseLevel(c.Log.Level)
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}
