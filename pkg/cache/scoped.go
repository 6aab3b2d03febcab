package cache

// ScopedKeyer wraps a Keyer with a prefix so several datasets can share
// one cache without mixing entries.
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "dataset:train:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix. A nil inner keyer means
// [DefaultKeyer].
func NewScopedKeyer(inner Keyer, prefix string) *ScopedKeyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// RenderKey generates a prefixed render key.
func (k *ScopedKeyer) RenderKey(docHash string, opts RenderKeyOpts) string {
	return k.prefix + k.inner.RenderKey(docHash, opts)
}

// TreeKey generates a prefixed diagram key.
func (k *ScopedKeyer) TreeKey(docHash string, opts TreeKeyOpts) string {
	return k.prefix + k.inner.TreeKey(docHash, opts)
}

var _ Keyer = (*ScopedKeyer)(nil)
