// internal/app/features/pwa/routes.go
package pwa

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Register adds the app surface to the root router. The service worker and
// manifest must sit at the origin root, so these are not mounted under a
// prefix.
func Register(r chi.Router, h *Handler) {
	r.Get("/", h.ServeShell)
	r.Get("/manifest.json", h.ServeManifest)
	r.Get("/sw.js", h.ServeServiceWorker)
	r.Get("/offline/assets", h.ServeOfflineAssets)
	r.Handle("/icons/*", http.StripPrefix("/icons/", iconServer(h)))
}

func iconServer(h *Handler) http.Handler {
	files := http.FileServer(http.FS(h.icons))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=86400")
		files.ServeHTTP(w, r)
	})
}
