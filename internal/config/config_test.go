package config

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/orchard/pkg/cache"
	errs "github.com/matzehuels/orchard/pkg/errors"
	"github.com/matzehuels/orchard/pkg/store"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), FileName)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	settle, cleanup := cfg.Delays()
	if settle != 100*time.Millisecond || cleanup != time.Second {
		t.Errorf("Delays() = %v, %v", settle, cleanup)
	}
	if !cfg.Export.IncludeBranding || cfg.Export.Scale != 2 {
		t.Errorf("export defaults = %+v", cfg.Export.Options)
	}
}

func TestLoadFile(t *testing.T) {
	t.Setenv(EnvRedisAddr, "")
	t.Setenv(EnvMongoURI, "")
	path := writeFile(t, `
image_dir = "/srv/images"

[log]
level = "debug"

[storage]
dir = "/tmp/orchard-state"

[cache]
backend = "none"

[server]
addr = ":9000"
timeout = "30s"

[export]
scale = 3
quality = 0.2
page_size = "Letter"
orientation = "landscape"
output_dir = "out"
settle_delay = "0s"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Path() != path || cfg.LogLevel() != log.DebugLevel || cfg.ImageDir != "/srv/images" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Server.Addr != ":9000" || cfg.ServerTimeout() != 30*time.Second {
		t.Errorf("server = %+v", cfg.Server)
	}
	e := cfg.Export
	if e.Scale != 3 || e.Quality != 0.5 || e.PageSize != "letter" || e.Orientation != "landscape" || e.OutputDir != "out" {
		t.Errorf("export = %+v", e)
	}
	if !e.IncludeBranding {
		t.Error("unset include_branding should keep the default")
	}
	if settle, _ := cfg.Delays(); settle != 0 {
		t.Errorf("settle = %v", settle)
	}
}

func TestLoadErrors(t *testing.T) {
	t.Setenv(EnvRedisAddr, "")
	t.Setenv(EnvMongoURI, "")
	tests := []struct {
		name string
		body string
		code errs.Code
	}{
		{"syntax", "[log\n", errs.ErrCodeInvalidConfig},
		{"unknown key", "[log]\ncolour = true\n", errs.ErrCodeInvalidConfig},
		{"backend", "[storage]\nbackend = \"sqlite\"\n", errs.ErrCodeInvalidConfig},
		{"mongo without uri", "[storage]\nbackend = \"mongo\"\n", errs.ErrCodeInvalidConfig},
		{"duration", "[server]\ntimeout = \"soon\"\n", errs.ErrCodeInvalidConfig},
		{"scale", "[export]\nscale = 9\n", errs.ErrCodeInvalidConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeFile(t, tt.body)); !errs.Is(err, tt.code) {
				t.Errorf("Load() = %v, want %s", err, tt.code)
			}
		})
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); !errs.Is(err, errs.ErrCodeFileNotFound) {
		t.Errorf("explicit missing file = %v, want FILE_NOT_FOUND", err)
	}
}

func TestLoadMissingDefaultFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv(EnvRedisAddr, "")
	t.Setenv(EnvMongoURI, "")
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Path() != "" || cfg.Storage.Backend != BackendFile {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		EnvRedisAddr: "redis:6379",
		EnvMongoURI:  "mongodb://db:27017",
	}
	cfg := Default()
	cfg.ApplyEnv(func(k string) string { return env[k] })
	if cfg.Cache.Backend != BackendRedis || cfg.Cache.Redis.Addr != "redis:6379" {
		t.Errorf("cache = %+v", cfg.Cache)
	}
	if cfg.Storage.Backend != BackendMongo || cfg.Storage.Mongo.URI != "mongodb://db:27017" {
		t.Errorf("storage = %+v", cfg.Storage)
	}
	if err := cfg.Validate(); err != nil {
		t.Error(err)
	}
}

func TestWriteRoundTrip(t *testing.T) {
	t.Setenv(EnvRedisAddr, "")
	t.Setenv(EnvMongoURI, "")
	cfg := Default()
	cfg.Server.Addr = ":7000"
	cfg.Export.Quality = 0.75
	path := filepath.Join(t.TempDir(), "nested", FileName)
	if err := cfg.Write(path); err != nil {
		t.Fatal(err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.Server.Addr != ":7000" || got.Export.Quality != 0.75 {
		t.Errorf("round trip = %+v", got)
	}
}

func TestOpenBackends(t *testing.T) {
	logger := log.New(io.Discard)
	cfg := Default()
	cfg.Cache.Dir = t.TempDir()
	cfg.Storage.Dir = t.TempDir()

	if _, ok := cfg.OpenCache(context.Background(), false, logger).(*cache.FileCache); !ok {
		t.Error("file backend should open a FileCache")
	}
	if _, ok := cfg.OpenCache(context.Background(), true, logger).(cache.NullCache); !ok {
		t.Error("disabled cache should be a NullCache")
	}
	cfg.Cache.Backend = BackendRedis
	cfg.Cache.Redis.Addr = "127.0.0.1:1"
	if _, ok := cfg.OpenCache(context.Background(), false, logger).(cache.NullCache); !ok {
		t.Error("unreachable redis should fall back to a NullCache")
	}

	b, err := cfg.OpenStore(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	defer b.Close()
	if _, ok := b.(*store.FileStore); !ok {
		t.Errorf("store = %T", b)
	}
}
