// internal/app/features/sales/list.go
package sales

import (
	"context"
	"net/http"
	"time"

	uierrors "github.com/dalemusser/laundrypos/internal/app/features/errors"
	salestore "github.com/dalemusser/laundrypos/internal/app/store/sales"
	"github.com/dalemusser/laundrypos/internal/app/system/paging"
	"github.com/dalemusser/laundrypos/internal/app/system/timeouts"
	"github.com/dalemusser/laundrypos/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
)

// businessDate reads ?date=, defaulting to today (UTC).
func businessDate(r *http.Request) (string, bool) {
	d := query.Get(r, "date")
	if d == "" {
		return time.Now().UTC().Format(salestore.DateLayout), true
	}
	if _, err := time.Parse(salestore.DateLayout, d); err != nil {
		return "", false
	}
	return d, true
}

// ServeList handles GET /api/sales?date=YYYY-MM-DD&before=&after=.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	date, ok := businessDate(r)
	if !ok {
		uierrors.WriteError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}
	before, after := paging.Cursors(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	page, err := h.Sales.ListByDate(ctx, date, before, after)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "database error listing sales", err, "A database error occurred.")
		return
	}
	if page.Items == nil {
		page.Items = []models.Sale{}
	}
	uierrors.WriteJSON(w, http.StatusOK, page)
}

// ServeSummary handles GET /api/sales/summary?date=YYYY-MM-DD.
func (h *Handler) ServeSummary(w http.ResponseWriter, r *http.Request) {
	date, ok := businessDate(r)
	if !ok {
		uierrors.WriteError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	sum, err := h.Sales.DailySummary(ctx, date)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "database error summarizing sales", err, "A database error occurred.")
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, sum)
}
