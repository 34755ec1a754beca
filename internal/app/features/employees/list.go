// internal/app/features/employees/list.go
package employees

import (
	"context"
	"net/http"

	uierrors "github.com/dalemusser/laundrypos/internal/app/features/errors"
	employeestore "github.com/dalemusser/laundrypos/internal/app/store/employees"
	"github.com/dalemusser/laundrypos/internal/app/system/paging"
	"github.com/dalemusser/laundrypos/internal/app/system/status"
	"github.com/dalemusser/laundrypos/internal/app/system/timeouts"
	"github.com/dalemusser/laundrypos/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
)

// ServeList handles GET /api/employees?status=&q=&before=&after=.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	st := query.Get(r, "status")
	if st != "" && !status.IsValid(st) {
		uierrors.WriteError(w, http.StatusBadRequest, "status must be active or disabled")
		return
	}
	before, after := paging.Cursors(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	page, err := h.Store.List(ctx, employeestore.Filter{Status: st, Search: query.Get(r, "q")}, before, after)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "database error listing employees", err, "A database error occurred.")
		return
	}
	if page.Items == nil {
		page.Items = []models.Employee{}
	}
	uierrors.WriteJSON(w, http.StatusOK, page)
}

// ServeActive handles GET /api/employees/active, the clock-in picker list.
func (h *Handler) ServeActive(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	emps, err := h.Store.ListActive(ctx)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "database error listing active employees", err, "A database error occurred.")
		return
	}
	if emps == nil {
		emps = []models.Employee{}
	}
	uierrors.WriteJSON(w, http.StatusOK, emps)
}
