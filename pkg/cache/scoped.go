package cache

// ScopedKeyer wraps a Keyer with a prefix so that several tenants can share
// one backend:
//
//	keyer := cache.NewScopedKeyer(cache.NewDefaultKeyer(), "web:reef:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix. A nil inner keyer means
// [DefaultKeyer].
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// AnalysisKey generates a prefixed analysis key.
func (k *ScopedKeyer) AnalysisKey(graphHash string, opts AnalysisKeyOpts) string {
	return k.prefix + k.inner.AnalysisKey(graphHash, opts)
}

// ArtifactKey generates a prefixed artifact key.
func (k *ScopedKeyer) ArtifactKey(analysisHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(analysisHash, opts)
}
