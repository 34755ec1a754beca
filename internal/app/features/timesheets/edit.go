// internal/app/features/timesheets/edit.go
package timesheets

import (
	"context"
	"errors"
	"net/http"
	"time"

	uierrors "github.com/dalemusser/laundrypos/internal/app/features/errors"
	timesheetstore "github.com/dalemusser/laundrypos/internal/app/store/timesheets"
	"github.com/dalemusser/laundrypos/internal/app/system/htmlsanitize"
	"github.com/dalemusser/laundrypos/internal/app/system/limits"
	"github.com/dalemusser/laundrypos/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type correctionInput struct {
	ClockIn  *time.Time `json:"clock_in"`
	ClockOut *time.Time `json:"clock_out"`
	Notes    *string    `json:"notes"`
}

func (h *Handler) idParam(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		uierrors.WriteError(w, http.StatusBadRequest, "invalid timesheet id")
		return primitive.NilObjectID, false
	}
	return id, true
}

// ServeTimesheet handles GET /api/timesheets/{id}.
func (h *Handler) ServeTimesheet(w http.ResponseWriter, r *http.Request) {
	id, ok := h.idParam(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	ts, err := h.Timesheets.GetByID(ctx, id)
	if errors.Is(err, timesheetstore.ErrNotFound) {
		uierrors.WriteError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "database error loading timesheet", err, "A database error occurred.")
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, ts)
}

// HandleCorrect handles PATCH /api/timesheets/{id}.
func (h *Handler) HandleCorrect(w http.ResponseWriter, r *http.Request) {
	id, ok := h.idParam(w, r)
	if !ok {
		return
	}
	var in correctionInput
	if err := uierrors.DecodeJSON(w, r, &in, limits.MaxJSONBody); err != nil {
		uierrors.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	c := timesheetstore.Correction{ClockIn: in.ClockIn, ClockOut: in.ClockOut}
	if in.Notes != nil {
		notes := htmlsanitize.StripTags(*in.Notes)
		c.Notes = &notes
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	ts, err := h.Timesheets.Update(ctx, id, c)
	switch {
	case errors.Is(err, timesheetstore.ErrNotFound):
		uierrors.WriteError(w, http.StatusNotFound, err.Error())
		return
	case errors.Is(err, timesheetstore.ErrClockOutBeforeIn):
		uierrors.WriteError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		h.ErrLog.LogServerError(w, r, "database error correcting timesheet", err, "A database error occurred.")
		return
	}

	h.Audit.TimesheetCorrected(ctx, r, ts.ID, ts.EmployeeID)
	uierrors.WriteJSON(w, http.StatusOK, ts)
}

// HandleDelete handles DELETE /api/timesheets/{id}.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.idParam(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	n, err := h.Timesheets.Delete(ctx, id)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "database error deleting timesheet", err, "A database error occurred.")
		return
	}
	if n == 0 {
		uierrors.WriteError(w, http.StatusNotFound, timesheetstore.ErrNotFound.Error())
		return
	}

	h.Audit.TimesheetDeleted(ctx, r, id)
	w.WriteHeader(http.StatusNoContent)
}
