package offline

import (
	"fmt"
	"net/url"
	"strings"
)

// DefaultAssets is the app shell needed for the terminals to start offline.
var DefaultAssets = []string{
	"/",
	"/manifest.json",
	"/icons/icon-192x192.png",
	"/icons/icon-512x512.png",
}

// AssetManifest is the ordered, fixed list of URLs pre-populated at install.
// It is immutable once built.
type AssetManifest struct {
	urls []string
}

// NewAssetManifest validates urls and returns a manifest. Entries must be
// non-empty and unique.
func NewAssetManifest(urls ...string) (AssetManifest, error) {
	seen := make(map[string]struct{}, len(urls))
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		u = strings.TrimSpace(u)
		if u == "" {
			return AssetManifest{}, fmt.Errorf("offline: empty asset url")
		}
		if _, err := url.Parse(u); err != nil {
			return AssetManifest{}, fmt.Errorf("offline: asset %q: %w", u, err)
		}
		if _, dup := seen[u]; dup {
			return AssetManifest{}, fmt.Errorf("offline: duplicate asset %q", u)
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	return AssetManifest{urls: out}, nil
}

// MustAssetManifest is like NewAssetManifest but panics on error.
func MustAssetManifest(urls ...string) AssetManifest {
	m, err := NewAssetManifest(urls...)
	if err != nil {
		panic(err)
	}
	return m
}

// URLs returns a copy of the manifest entries in order.
func (m AssetManifest) URLs() []string {
	out := make([]string, len(m.urls))
	copy(out, m.urls)
	return out
}

// Len returns the number of assets.
func (m AssetManifest) Len() int { return len(m.urls) }

// Resolve returns the absolute URL of every asset relative to base.
func (m AssetManifest) Resolve(base *url.URL) ([]*url.URL, error) {
	out := make([]*url.URL, 0, len(m.urls))
	for _, raw := range m.urls {
		ref, err := url.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("offline: asset %q: %w", raw, err)
		}
		abs := base.ResolveReference(ref)
		if !abs.IsAbs() {
			return nil, fmt.Errorf("offline: asset %q does not resolve to an absolute url", raw)
		}
		out = append(out, abs)
	}
	return out, nil
}
