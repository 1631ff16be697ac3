// Package cache provides artifact and record caching for Orchard Studio.
//
// Exports are deterministic for a given surface content and option set, so
// the encoded bytes are cached under a content-derived key. Three backends
// implement [Cache]:
//
//   - [FileCache]: JSON envelope files under the XDG cache dir, for the CLI
//   - [RedisCache]: shared cache for multi-instance API deployments
//   - [NullCache]: disables caching
//
// Keys are produced by a [Keyer] so that the CLI and the API agree on key
// layout; [ScopedKeyer] adds a namespace prefix per tenant or per studio.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value store with per-entry TTL.
//
// Get reports a miss with (nil, false, nil); errors are reserved for
// backend failures. A TTL of zero means the entry never expires.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Default time-to-live values per entry kind.
const (
	// TTLArtifact is how long an encoded export is kept.
	TTLArtifact = 24 * time.Hour

	// TTLRecord is how long a normalized record is kept.
	TTLRecord = time.Hour
)

// ArtifactKeyOpts are the export options that change the encoded bytes.
type ArtifactKeyOpts struct {
	Format      string  `json:"format"`
	Scope       string  `json:"scope"`
	Scale       float64 `json:"scale,omitempty"`
	Quality     float64 `json:"quality,omitempty"`
	Transparent bool    `json:"transparent,omitempty"`
	Branding    bool    `json:"branding,omitempty"`
	PageSize    string  `json:"page_size,omitempty"`
	Orientation string  `json:"orientation,omitempty"`
}

// Keyer builds cache keys.
type Keyer interface {
	// RecordKey keys a normalized record by the hash of its raw input.
	RecordKey(rawHash string) string

	// ArtifactKey keys an encoded export by the hash of its source content.
	ArtifactKey(contentHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer produces unprefixed keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default key layout.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// RecordKey returns "record:<hash>".
func (DefaultKeyer) RecordKey(rawHash string) string {
	return "record:" + rawHash
}

// ArtifactKey returns "artifact:<sha256(contentHash, opts)>".
func (DefaultKeyer) ArtifactKey(contentHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", contentHash, opts)
}
