// internal/app/features/cloudsync/routes.go
package cloudsync

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes mounts under /api/sync. limit throttles uploads per client; pass
// nil to leave them unthrottled.
func Routes(h *Handler, limit func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	if limit != nil {
		r.Use(limit)
	}
	r.Post("/", h.HandleSync)
	return r
}
