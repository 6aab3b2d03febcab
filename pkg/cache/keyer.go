package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// DocumentHash identifies a page metadata document by the SHA-256 of its
// bytes, hex encoded. Keys built from it change whenever the layout does.
func DocumentHash(doc []byte) string {
	sum := sha256.Sum256(doc)
	return hex.EncodeToString(sum[:])
}

// Keyer derives cache keys for artifacts.
type Keyer interface {
	// RenderKey keys a rendered page image.
	RenderKey(docHash string, opts RenderKeyOpts) string
	// TreeKey keys a panel tree diagram.
	TreeKey(docHash string, opts TreeKeyOpts) string
}

// RenderKeyOpts holds everything besides the page document that changes a
// rendered page.
type RenderKeyOpts struct {
	Format  string `json:"format"`
	Colored bool   `json:"colored"`
	// Settings is the render configuration; any JSON-encodable value.
	Settings any `json:"settings"`
}

// TreeKeyOpts holds the diagram options.
type TreeKeyOpts struct {
	Format   string `json:"format"`
	Detailed bool   `json:"detailed"`
}

// DefaultKeyer is the standard Keyer.
type DefaultKeyer struct{}

// NewDefaultKeyer creates a DefaultKeyer.
func NewDefaultKeyer() *DefaultKeyer { return &DefaultKeyer{} }

// RenderKey hashes the document hash together with opts.
func (DefaultKeyer) RenderKey(docHash string, opts RenderKeyOpts) string {
	return artifactKey("render", docHash, opts)
}

// TreeKey hashes the document hash together with opts.
func (DefaultKeyer) TreeKey(docHash string, opts TreeKeyOpts) string {
	return artifactKey("tree", docHash, opts)
}

// artifactKey is "<kind>:<doc hash>:<options digest>". The document hash
// stays readable so every artifact of one page shares a key prefix.
func artifactKey(kind, docHash string, opts any) string {
	enc, _ := json.Marshal(opts)
	sum := sha256.Sum256(enc)
	return kind + ":" + docHash + ":" + hex.EncodeToString(sum[:8])
}

var _ Keyer = (*DefaultKeyer)(nil)
