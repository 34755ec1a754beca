// internal/app/features/timesheets/list.go
package timesheets

import (
	"context"
	"net/http"
	"time"

	uierrors "github.com/dalemusser/laundrypos/internal/app/features/errors"
	"github.com/dalemusser/laundrypos/internal/app/system/timeouts"
	"github.com/dalemusser/laundrypos/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const dateLayout = "2006-01-02"

// DayRange parses inclusive from/to dates (YYYY-MM-DD) into the half-open
// instant range [from 00:00, to+1 00:00) in UTC. Both default to today.
func DayRange(fromStr, toStr string) (from, to time.Time, ok bool) {
	today := time.Now().UTC().Truncate(24 * time.Hour)
	from, to = today, today
	var err error
	if fromStr != "" {
		if from, err = time.Parse(dateLayout, fromStr); err != nil {
			return time.Time{}, time.Time{}, false
		}
	}
	if toStr != "" {
		if to, err = time.Parse(dateLayout, toStr); err != nil {
			return time.Time{}, time.Time{}, false
		}
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, false
	}
	return from, to.AddDate(0, 0, 1), true
}

// ServeList handles GET /api/timesheets?from=&to=&employee_id=.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	from, to, ok := DayRange(query.Get(r, "from"), query.Get(r, "to"))
	if !ok {
		uierrors.WriteError(w, http.StatusBadRequest, "from and to must be YYYY-MM-DD with from <= to")
		return
	}
	var empID *primitive.ObjectID
	if hex := query.Get(r, "employee_id"); hex != "" {
		oid, err := primitive.ObjectIDFromHex(hex)
		if err != nil {
			uierrors.WriteError(w, http.StatusBadRequest, "invalid employee_id")
			return
		}
		empID = &oid
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	shifts, err := h.Timesheets.ListByRange(ctx, from, to, empID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "database error listing timesheets", err, "A database error occurred.")
		return
	}
	if shifts == nil {
		shifts = []models.Timesheet{}
	}
	uierrors.WriteJSON(w, http.StatusOK, shifts)
}
