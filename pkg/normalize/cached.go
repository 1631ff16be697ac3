package normalize

import (
	"context"
	"encoding/json"
	"io"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/orchard/pkg/cache"
	"github.com/matzehuels/orchard/pkg/observability"
	"github.com/matzehuels/orchard/pkg/record"
)

// Normalizer runs Normalize behind a record cache. The API server uses it
// so repeated previews of the same raw record skip the work.
type Normalizer struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
	Opts   []Option
}

// NewNormalizer creates a Normalizer. Nil arguments fall back to a null
// cache, the default keyer and a discarding logger.
func NewNormalizer(c cache.Cache, keyer cache.Keyer, logger *log.Logger, opts ...Option) *Normalizer {
	if c == nil {
		c = cache.NewNullCache()
	}
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Normalizer{Cache: c, Keyer: keyer, Logger: logger, Opts: opts}
}

// Normalize returns the canonical record for raw, consulting the cache
// first. Cache failures are logged and never fail the call.
func (n *Normalizer) Normalize(ctx context.Context, raw map[string]any) (record.Record, bool) {
	if raw == nil {
		return nil, false
	}
	opts := append([]Option{WithLogger(n.Logger)}, n.Opts...)

	hash, err := cache.HashJSON(raw)
	if err != nil {
		n.Logger.Debug("record not hashable, skipping cache", "err", err)
		return Normalize(raw, opts...), false
	}
	key := n.Keyer.RecordKey(hash + ":" + n.productType())

	if data, hit, err := n.Cache.Get(ctx, key); err != nil {
		n.Logger.Warn("record cache read failed", "err", err)
	} else if hit {
		var rec record.Record
		if err := json.Unmarshal(data, &rec); err == nil {
			observability.Cache().OnCacheHit(ctx, "record")
			return rec, true
		}
	}
	observability.Cache().OnCacheMiss(ctx, "record")

	rec := Normalize(raw, opts...)
	if data, err := json.Marshal(rec); err == nil {
		if err := n.Cache.Set(ctx, key, data, cache.TTLRecord); err != nil {
			n.Logger.Warn("record cache write failed", "err", err)
		} else {
			observability.Cache().OnCacheSet(ctx, "record", len(data))
		}
	}
	return rec, false
}

// productType is the product type the configured options apply, so
// normalizers with different options never share cache entries.
func (n *Normalizer) productType() string {
	var o options
	for _, opt := range n.Opts {
		opt(&o)
	}
	return o.productType
}
