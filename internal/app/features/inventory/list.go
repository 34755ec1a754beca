// internal/app/features/inventory/list.go
package inventory

import (
	"context"
	"net/http"

	uierrors "github.com/dalemusser/laundrypos/internal/app/features/errors"
	"github.com/dalemusser/laundrypos/internal/app/system/paging"
	"github.com/dalemusser/laundrypos/internal/app/system/timeouts"
	"github.com/dalemusser/laundrypos/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
)

// ServeList handles GET /api/inventory?q=&before=&after=.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	before, after := paging.Cursors(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	page, err := h.Store.List(ctx, query.Get(r, "q"), before, after)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "database error listing inventory", err, "A database error occurred.")
		return
	}
	if page.Items == nil {
		page.Items = []models.InventoryItem{}
	}
	uierrors.WriteJSON(w, http.StatusOK, page)
}

// ServeLow handles GET /api/inventory/low.
func (h *Handler) ServeLow(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	items, err := h.Store.LowStock(ctx)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "database error listing low stock", err, "A database error occurred.")
		return
	}
	if items == nil {
		items = []models.InventoryItem{}
	}
	uierrors.WriteJSON(w, http.StatusOK, items)
}
