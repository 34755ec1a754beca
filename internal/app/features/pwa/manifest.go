// internal/app/features/pwa/manifest.go
package pwa

import (
	"net/http"

	uierrors "github.com/dalemusser/laundrypos/internal/app/features/errors"
)

type manifestIcon struct {
	Src     string `json:"src"`
	Sizes   string `json:"sizes"`
	Type    string `json:"type"`
	Purpose string `json:"purpose,omitempty"`
}

type webManifest struct {
	Name            string         `json:"name"`
	ShortName       string         `json:"short_name"`
	StartURL        string         `json:"start_url"`
	Scope           string         `json:"scope"`
	Display         string         `json:"display"`
	BackgroundColor string         `json:"background_color"`
	ThemeColor      string         `json:"theme_color"`
	Icons           []manifestIcon `json:"icons"`
}

func newWebManifest(cfg Config) webManifest {
	return webManifest{
		Name:            cfg.Name,
		ShortName:       cfg.ShortName,
		StartURL:        "/",
		Scope:           "/",
		Display:         "standalone",
		BackgroundColor: cfg.BackgroundColor,
		ThemeColor:      cfg.ThemeColor,
		Icons: []manifestIcon{
			{Src: "/icons/icon-192x192.png", Sizes: "192x192", Type: "image/png", Purpose: "any maskable"},
			{Src: "/icons/icon-512x512.png", Sizes: "512x512", Type: "image/png"},
		},
	}
}

// ServeManifest handles GET /manifest.json.
func (h *Handler) ServeManifest(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/manifest+json")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	_, _ = w.Write(h.manifest)
}

// ServeServiceWorker handles GET /sw.js. It must be served from the root
// so the worker controls the whole origin.
func (h *Handler) ServeServiceWorker(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/javascript")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Service-Worker-Allowed", "/")
	_, _ = w.Write(h.sw)
}

// ServeShell handles GET /.
func (h *Handler) ServeShell(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	_, _ = w.Write(h.shell)
}

// OfflineAssets is the body of GET /offline/assets.
type OfflineAssets struct {
	Prefix string   `json:"prefix"`
	Tag    string   `json:"tag"`
	Bucket string   `json:"bucket"`
	Assets []string `json:"assets"`
}

// ServeOfflineAssets handles GET /offline/assets. Counter proxies read it
// to configure their worker.
func (h *Handler) ServeOfflineAssets(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-cache")
	uierrors.WriteJSON(w, http.StatusOK, OfflineAssets{
		Prefix: h.Version.Prefix,
		Tag:    h.Version.Tag,
		Bucket: h.Version.BucketName(),
		Assets: h.Assets.URLs(),
	})
}
