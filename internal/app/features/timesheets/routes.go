// internal/app/features/timesheets/routes.go
package timesheets

import "github.com/go-chi/chi/v5"

// Routes mounts under /api/timesheets.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ServeList)
	r.Post("/clock-in", h.HandleClockIn)
	r.Post("/clock-out", h.HandleClockOut)
	r.Get("/open/{employeeID}", h.ServeOpenShift)

	r.Get("/{id}", h.ServeTimesheet)
	r.Patch("/{id}", h.HandleCorrect)
	r.Delete("/{id}", h.HandleDelete)

	return r
}
