// internal/app/features/sales/routes.go
package sales

import "github.com/go-chi/chi/v5"

// Routes mounts under /api/sales.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ServeList)
	r.Get("/summary", h.ServeSummary)
	r.Post("/", h.HandleCreate)

	r.Get("/{id}", h.ServeSale)
	r.Put("/{id}", h.HandleUpdate)
	r.Delete("/{id}", h.HandleDelete)

	return r
}
