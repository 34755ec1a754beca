// internal/app/features/export/routes.go
package export

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes mounts under /api/export. emailLimit throttles report emails;
// pass nil to leave them unthrottled.
func Routes(h *Handler, emailLimit func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/sales.csv", h.ServeSalesCSV)
	r.Get("/timesheets.csv", h.ServeTimesheetsCSV)
	r.Get("/inventory.csv", h.ServeInventoryCSV)

	r.Group(func(r chi.Router) {
		if emailLimit != nil {
			r.Use(emailLimit)
		}
		r.Post("/email", h.HandleEmail)
	})

	return r
}
