// internal/app/features/employees/edit.go
package employees

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	uierrors "github.com/dalemusser/laundrypos/internal/app/features/errors"
	employeestore "github.com/dalemusser/laundrypos/internal/app/store/employees"
	"github.com/dalemusser/laundrypos/internal/app/system/limits"
	"github.com/dalemusser/laundrypos/internal/app/system/timeouts"
	"github.com/dalemusser/laundrypos/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type employeeInput struct {
	FullName        string `json:"full_name"`
	Role            string `json:"role"`
	HourlyRateCents int64  `json:"hourly_rate_cents"`
	Status          string `json:"status"`
}

func (in employeeInput) model() models.Employee {
	return models.Employee{
		FullName:        in.FullName,
		Role:            in.Role,
		HourlyRateCents: in.HourlyRateCents,
		Status:          in.Status,
	}
}

// validationError reports whether err is one the client can fix.
func validationError(err error) bool {
	return errors.Is(err, employeestore.ErrNameRequired) ||
		errors.Is(err, employeestore.ErrInvalidRole) ||
		errors.Is(err, employeestore.ErrInvalidStatus) ||
		errors.Is(err, employeestore.ErrInvalidRate)
}

func (h *Handler) idParam(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		uierrors.WriteError(w, http.StatusBadRequest, "invalid employee id")
		return primitive.NilObjectID, false
	}
	return id, true
}

// ServeEmployee handles GET /api/employees/{id}.
func (h *Handler) ServeEmployee(w http.ResponseWriter, r *http.Request) {
	id, ok := h.idParam(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	emp, err := h.Store.GetByID(ctx, id)
	if errors.Is(err, employeestore.ErrNotFound) {
		uierrors.WriteError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "database error loading employee", err, "A database error occurred.")
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, emp)
}

// HandleCreate handles POST /api/employees.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var in employeeInput
	if err := uierrors.DecodeJSON(w, r, &in, limits.MaxJSONBody); err != nil {
		uierrors.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	emp, err := h.Store.Create(ctx, in.model())
	if validationError(err) {
		uierrors.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "database error creating employee", err, "A database error occurred.")
		return
	}

	h.Audit.EmployeeCreated(ctx, r, emp.ID, emp.FullName, emp.Role)
	uierrors.WriteJSON(w, http.StatusCreated, emp)
}

// HandleUpdate handles PATCH /api/employees/{id}. Empty fields are left
// unchanged.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := h.idParam(w, r)
	if !ok {
		return
	}
	var in employeeInput
	if err := uierrors.DecodeJSON(w, r, &in, limits.MaxJSONBody); err != nil {
		uierrors.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	err := h.Store.Update(ctx, id, in.model())
	switch {
	case errors.Is(err, employeestore.ErrNotFound):
		uierrors.WriteError(w, http.StatusNotFound, err.Error())
		return
	case validationError(err):
		uierrors.WriteError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		h.ErrLog.LogServerError(w, r, "database error updating employee", err, "A database error occurred.")
		return
	}

	emp, err := h.Store.GetByID(ctx, id)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "database error reloading employee", err, "A database error occurred.")
		return
	}

	changed := map[string]string{}
	if in.FullName != "" {
		changed["full_name"] = emp.FullName
	}
	if in.Role != "" {
		changed["role"] = emp.Role
	}
	if in.Status != "" {
		changed["status"] = emp.Status
	}
	if in.HourlyRateCents > 0 {
		changed["hourly_rate_cents"] = strconv.FormatInt(emp.HourlyRateCents, 10)
	}
	h.Audit.EmployeeUpdated(ctx, r, id, changed)

	uierrors.WriteJSON(w, http.StatusOK, emp)
}

// HandleDelete handles DELETE /api/employees/{id}. Past sales and shifts
// keep their employee_id.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.idParam(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	n, err := h.Store.Delete(ctx, id)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "database error deleting employee", err, "A database error occurred.")
		return
	}
	if n == 0 {
		uierrors.WriteError(w, http.StatusNotFound, employeestore.ErrNotFound.Error())
		return
	}

	h.Audit.EmployeeDeleted(ctx, r, id)
	w.WriteHeader(http.StatusNoContent)
}
