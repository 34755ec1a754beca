// internal/app/features/timesheets/clock.go
package timesheets

import (
	"context"
	"errors"
	"net/http"
	"time"

	uierrors "github.com/dalemusser/laundrypos/internal/app/features/errors"
	employeestore "github.com/dalemusser/laundrypos/internal/app/store/employees"
	timesheetstore "github.com/dalemusser/laundrypos/internal/app/store/timesheets"
	"github.com/dalemusser/laundrypos/internal/app/system/htmlsanitize"
	"github.com/dalemusser/laundrypos/internal/app/system/limits"
	"github.com/dalemusser/laundrypos/internal/app/system/status"
	"github.com/dalemusser/laundrypos/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type clockInput struct {
	EmployeeID string     `json:"employee_id"`
	At         *time.Time `json:"at"` // defaults to now
	ClientID   string     `json:"client_id"`
	Notes      string     `json:"notes"`
}

func (in clockInput) at() time.Time {
	if in.At == nil || in.At.IsZero() {
		return time.Now().UTC()
	}
	return in.At.UTC()
}

// activeEmployee resolves the employee of a clock request and writes the
// error response when it cannot be used.
func (h *Handler) activeEmployee(ctx context.Context, w http.ResponseWriter, r *http.Request, hex string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		uierrors.WriteError(w, http.StatusBadRequest, "invalid employee_id")
		return primitive.NilObjectID, false
	}
	emp, err := h.Employees.GetByID(ctx, id)
	switch {
	case errors.Is(err, employeestore.ErrNotFound):
		uierrors.WriteError(w, http.StatusNotFound, err.Error())
		return primitive.NilObjectID, false
	case err != nil:
		h.ErrLog.LogServerError(w, r, "database error loading employee", err, "A database error occurred.")
		return primitive.NilObjectID, false
	case emp.Status != status.Active:
		uierrors.WriteError(w, http.StatusConflict, "employee is disabled")
		return primitive.NilObjectID, false
	}
	return id, true
}

// HandleClockIn handles POST /api/timesheets/clock-in.
func (h *Handler) HandleClockIn(w http.ResponseWriter, r *http.Request) {
	var in clockInput
	if err := uierrors.DecodeJSON(w, r, &in, limits.MaxJSONBody); err != nil {
		uierrors.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	empID, ok := h.activeEmployee(ctx, w, r, in.EmployeeID)
	if !ok {
		return
	}

	ts, err := h.Timesheets.ClockIn(ctx, empID, in.at(), in.ClientID, htmlsanitize.StripTags(in.Notes))
	if errors.Is(err, timesheetstore.ErrShiftOpen) {
		uierrors.WriteError(w, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "database error clocking in", err, "A database error occurred.")
		return
	}
	uierrors.WriteJSON(w, http.StatusCreated, ts)
}

// HandleClockOut handles POST /api/timesheets/clock-out.
func (h *Handler) HandleClockOut(w http.ResponseWriter, r *http.Request) {
	var in clockInput
	if err := uierrors.DecodeJSON(w, r, &in, limits.MaxJSONBody); err != nil {
		uierrors.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	empID, err := primitive.ObjectIDFromHex(in.EmployeeID)
	if err != nil {
		uierrors.WriteError(w, http.StatusBadRequest, "invalid employee_id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	ts, err := h.Timesheets.ClockOut(ctx, empID, in.at())
	switch {
	case errors.Is(err, timesheetstore.ErrNoOpenShift):
		uierrors.WriteError(w, http.StatusConflict, err.Error())
		return
	case errors.Is(err, timesheetstore.ErrClockOutBeforeIn):
		uierrors.WriteError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		h.ErrLog.LogServerError(w, r, "database error clocking out", err, "A database error occurred.")
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, ts)
}

// ServeOpenShift handles GET /api/timesheets/open/{employeeID}.
func (h *Handler) ServeOpenShift(w http.ResponseWriter, r *http.Request) {
	empID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "employeeID"))
	if err != nil {
		uierrors.WriteError(w, http.StatusBadRequest, "invalid employee id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	ts, err := h.Timesheets.OpenShift(ctx, empID)
	if errors.Is(err, timesheetstore.ErrNoOpenShift) {
		uierrors.WriteError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "database error loading open shift", err, "A database error occurred.")
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, ts)
}
