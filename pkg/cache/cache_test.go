package cache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	data, hit, err := c.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if hit || data != nil {
		t.Errorf("Get = (%v, %v), want miss", data, hit)
	}
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

func TestFileCache(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}

	if _, hit, _ := c.Get(ctx, "missing"); hit {
		t.Error("Get(missing) hit, want miss")
	}

	if err := c.Set(ctx, "k", []byte("v"), time.Hour); err != nil {
		t.Fatalf("Set: %v", err)
	}
	data, hit, err := c.Get(ctx, "k")
	if err != nil || !hit || string(data) != "v" {
		t.Fatalf("Get = (%q, %v, %v), want (v, true, nil)", data, hit, err)
	}

	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("Get after Delete hit")
	}
	if err := c.Delete(ctx, "k"); err != nil {
		t.Errorf("Delete(missing) = %v, want nil", err)
	}
}

func TestFileCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())

	if err := c.Set(ctx, "short", []byte("x"), time.Nanosecond); err != nil {
		t.Fatal(err)
	}
	time.Sleep(2 * time.Millisecond)
	if _, hit, _ := c.Get(ctx, "short"); hit {
		t.Error("expired entry was returned")
	}

	if err := c.Set(ctx, "forever", []byte("y"), 0); err != nil {
		t.Fatal(err)
	}
	if _, hit, _ := c.Get(ctx, "forever"); !hit {
		t.Error("zero ttl entry should not expire")
	}
}

func TestFileCacheCorruptEntry(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())
	path := c.path("bad")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, hit, err := c.Get(ctx, "bad"); hit || err != nil {
		t.Errorf("Get(corrupt) = (%v, %v), want miss", hit, err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("corrupt entry should be removed")
	}
}

func TestFileCacheStatsAndPrune(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())
	_ = c.Set(ctx, "a", []byte("1"), time.Hour)
	_ = c.Set(ctx, "b", []byte("2"), time.Nanosecond)
	time.Sleep(2 * time.Millisecond)

	st, err := c.Stats()
	if err != nil {
		t.Fatal(err)
	}
	if st.Entries != 2 || st.Expired != 1 {
		t.Errorf("Stats = %+v, want 2 entries 1 expired", st)
	}

	n, err := c.Prune(false)
	if err != nil || n != 1 {
		t.Errorf("Prune(false) = (%d, %v), want 1", n, err)
	}
	n, _ = c.Prune(true)
	if n != 1 {
		t.Errorf("Prune(true) = %d, want 1", n)
	}
}

func TestHash(t *testing.T) {
	h1 := Hash([]byte("hello"))
	if h1 != Hash([]byte("hello")) {
		t.Error("Hash should be deterministic")
	}
	if h1 == Hash([]byte("world")) {
		t.Error("different inputs should produce different hashes")
	}
	if len(h1) != 64 {
		t.Errorf("len(Hash) = %d, want 64", len(h1))
	}
}

func TestHashJSONKeyOrder(t *testing.T) {
	a, _ := HashJSON(map[string]any{"x": 1, "y": 2})
	b, _ := HashJSON(map[string]any{"y": 2, "x": 1})
	if a != b {
		t.Error("HashJSON should not depend on map insertion order")
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()

	if got := k.RecordKey("abc"); got != "record:abc" {
		t.Errorf("RecordKey = %q, want record:abc", got)
	}

	png2 := k.ArtifactKey("h", ArtifactKeyOpts{Format: "png", Scope: "full", Scale: 2})
	png3 := k.ArtifactKey("h", ArtifactKeyOpts{Format: "png", Scope: "full", Scale: 3})
	if png2 == png3 {
		t.Error("different scales should produce different keys")
	}
	if !strings.HasPrefix(png2, "artifact:") {
		t.Errorf("ArtifactKey = %q, want artifact: prefix", png2)
	}
	if png2 != k.ArtifactKey("h", ArtifactKeyOpts{Format: "png", Scope: "full", Scale: 2}) {
		t.Error("ArtifactKey should be deterministic")
	}
}

func TestScopedKeyer(t *testing.T) {
	k := NewScopedKeyer(nil, "studio:demo:")
	if got := k.RecordKey("abc"); got != "studio:demo:record:abc" {
		t.Errorf("RecordKey = %q", got)
	}
	base := NewDefaultKeyer().ArtifactKey("h", ArtifactKeyOpts{Format: "pdf"})
	if got := k.ArtifactKey("h", ArtifactKeyOpts{Format: "pdf"}); got != "studio:demo:"+base {
		t.Errorf("ArtifactKey = %q, want prefixed %q", got, base)
	}
}

func TestRetryWithBackoff(t *testing.T) {
	old := BaseDelay
	BaseDelay = time.Millisecond
	defer func() { BaseDelay = old }()

	t.Run("retries transient", func(t *testing.T) {
		calls := 0
		err := RetryWithBackoff(context.Background(), func() error {
			calls++
			if calls < 3 {
				return Retryable(errors.New("flaky"))
			}
			return nil
		})
		if err != nil || calls != 3 {
			t.Errorf("got (%v, %d calls), want (nil, 3)", err, calls)
		}
	})

	t.Run("stops on permanent", func(t *testing.T) {
		calls := 0
		perm := errors.New("permanent")
		err := RetryWithBackoff(context.Background(), func() error {
			calls++
			return perm
		})
		if !errors.Is(err, perm) || calls != 1 {
			t.Errorf("got (%v, %d calls), want (permanent, 1)", err, calls)
		}
	})
}

func TestNewRedisCacheEmptyAddr(t *testing.T) {
	_, err := NewRedisCache(context.Background(), RedisOptions{})
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("err = %v, want ErrUnavailable", err)
	}
}
