package cache

// ScopedKeyer wraps a Keyer with a prefix so several studios (or API
// tenants) can share one backend without key collisions.
//
//	k := NewScopedKeyer(NewDefaultKeyer(), "studio:demo:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// A nil inner keyer falls back to [DefaultKeyer].
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// RecordKey returns the prefixed record key.
func (k *ScopedKeyer) RecordKey(rawHash string) string {
	return k.prefix + k.inner.RecordKey(rawHash)
}

// ArtifactKey returns the prefixed artifact key.
func (k *ScopedKeyer) ArtifactKey(contentHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(contentHash, opts)
}
