// internal/app/features/inventory/routes.go
package inventory

import "github.com/go-chi/chi/v5"

// Routes mounts under /api/inventory.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ServeList)
	r.Get("/low", h.ServeLow)
	r.Post("/", h.HandleCreate)
	r.Post("/import", h.HandleImport)

	r.Get("/{id}", h.ServeItem)
	r.Patch("/{id}", h.HandleUpdate)
	r.Delete("/{id}", h.HandleDelete)
	r.Post("/{id}/adjust", h.HandleAdjust)

	return r
}
