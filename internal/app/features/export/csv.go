// internal/app/features/export/csv.go
package export

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	uierrors "github.com/dalemusser/laundrypos/internal/app/features/errors"
	salestore "github.com/dalemusser/laundrypos/internal/app/store/sales"
	"github.com/dalemusser/laundrypos/internal/app/system/csvutil"
	"github.com/dalemusser/laundrypos/internal/app/system/timeouts"
	"github.com/dalemusser/laundrypos/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// maxRangeDays bounds a single export.
const maxRangeDays = 366

// period is an inclusive range of business dates.
type period struct {
	From, To string
}

// parsePeriod validates from/to (YYYY-MM-DD). A missing bound defaults to
// the other one, and both default to today (UTC).
func parsePeriod(from, to string) (period, error) {
	if from == "" && to == "" {
		today := time.Now().UTC().Format(salestore.DateLayout)
		return period{today, today}, nil
	}
	if from == "" {
		from = to
	}
	if to == "" {
		to = from
	}
	f, err := time.Parse(salestore.DateLayout, from)
	if err != nil {
		return period{}, errors.New("from must be YYYY-MM-DD")
	}
	t, err := time.Parse(salestore.DateLayout, to)
	if err != nil {
		return period{}, errors.New("to must be YYYY-MM-DD")
	}
	if t.Before(f) {
		return period{}, errors.New("to is before from")
	}
	if t.Sub(f) > maxRangeDays*24*time.Hour {
		return period{}, fmt.Errorf("range is longer than %d days", maxRangeDays)
	}
	return period{from, to}, nil
}

// times returns [from 00:00, to+1 00:00) in UTC.
func (p period) times() (time.Time, time.Time) {
	f, _ := time.Parse(salestore.DateLayout, p.From)
	t, _ := time.Parse(salestore.DateLayout, p.To)
	return f, t.AddDate(0, 0, 1)
}

func (p period) filename(kind string) string {
	if p.From == p.To {
		return fmt.Sprintf("%s-%s.csv", kind, p.From)
	}
	return fmt.Sprintf("%s-%s_%s.csv", kind, p.From, p.To)
}

func csvHeaders(w http.ResponseWriter, filename string) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, url.PathEscape(filename)))
}

// ServeSalesCSV handles GET /api/export/sales.csv?from=&to=.
func (h *Handler) ServeSalesCSV(w http.ResponseWriter, r *http.Request) {
	p, err := parsePeriod(query.Get(r, "from"), query.Get(r, "to"))
	if err != nil {
		uierrors.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	sales, err := h.Sales.ListRange(ctx, p.From, p.To)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "database error loading sales for export", err, "A database error occurred.")
		return
	}

	csvHeaders(w, p.filename("sales"))
	if err := csvutil.WriteSales(w, sales); err != nil {
		h.Log.Warn("write sales csv", zap.Error(err))
	}
}

// ServeTimesheetsCSV handles GET /api/export/timesheets.csv?from=&to=.
// Shifts are selected by clock-in time.
func (h *Handler) ServeTimesheetsCSV(w http.ResponseWriter, r *http.Request) {
	p, err := parsePeriod(query.Get(r, "from"), query.Get(r, "to"))
	if err != nil {
		uierrors.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	from, to := p.times()

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	shifts, err := h.Timesheets.ListByRange(ctx, from, to, nil)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "database error loading timesheets for export", err, "A database error occurred.")
		return
	}
	names, err := h.Employees.Names(ctx, employeeIDs(shifts))
	if err != nil {
		h.ErrLog.LogServerError(w, r, "database error loading employee names", err, "A database error occurred.")
		return
	}

	csvHeaders(w, p.filename("timesheets"))
	if err := csvutil.WriteTimesheets(w, shifts, names); err != nil {
		h.Log.Warn("write timesheets csv", zap.Error(err))
	}
}

// ServeInventoryCSV handles GET /api/export/inventory.csv.
func (h *Handler) ServeInventoryCSV(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	items, err := h.Inventory.All(ctx)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "database error loading inventory for export", err, "A database error occurred.")
		return
	}

	csvHeaders(w, "inventory-"+time.Now().UTC().Format(salestore.DateLayout)+".csv")
	if err := csvutil.WriteInventory(w, items); err != nil {
		h.Log.Warn("write inventory csv", zap.Error(err))
	}
}

func employeeIDs(shifts []models.Timesheet) []primitive.ObjectID {
	seen := make(map[primitive.ObjectID]bool, len(shifts))
	ids := make([]primitive.ObjectID, 0, len(shifts))
	for _, s := range shifts {
		if !seen[s.EmployeeID] {
			seen[s.EmployeeID] = true
			ids = append(ids, s.EmployeeID)
		}
	}
	return ids
}
