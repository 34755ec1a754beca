// internal/app/features/sales/edit.go
package sales

import (
	"context"
	"errors"
	"net/http"

	uierrors "github.com/dalemusser/laundrypos/internal/app/features/errors"
	salestore "github.com/dalemusser/laundrypos/internal/app/store/sales"
	"github.com/dalemusser/laundrypos/internal/app/system/limits"
	"github.com/dalemusser/laundrypos/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func (h *Handler) idParam(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		uierrors.WriteError(w, http.StatusBadRequest, "invalid sale id")
		return primitive.NilObjectID, false
	}
	return id, true
}

// ServeSale handles GET /api/sales/{id}.
func (h *Handler) ServeSale(w http.ResponseWriter, r *http.Request) {
	id, ok := h.idParam(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	sale, err := h.Sales.GetByID(ctx, id)
	if errors.Is(err, salestore.ErrNotFound) {
		uierrors.WriteError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "database error loading sale", err, "A database error occurred.")
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, sale)
}

// HandleCreate handles POST /api/sales. With a client_id the call is
// idempotent: a replay answers 200 with the stored sale instead of 201.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var in SaleInput
	if err := uierrors.DecodeJSON(w, r, &in, limits.MaxJSONBody); err != nil {
		uierrors.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	sale, err := in.Model()
	if err != nil {
		uierrors.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	created := true
	if sale.ClientID != "" {
		sale, created, err = h.Sales.UpsertByClientID(ctx, sale)
	} else {
		sale, err = h.Sales.Create(ctx, sale)
	}
	switch {
	case errors.Is(err, salestore.ErrInvalid):
		uierrors.WriteError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, salestore.ErrDuplicateReceipt):
		uierrors.WriteError(w, http.StatusConflict, err.Error())
		return
	case err != nil:
		h.ErrLog.LogServerError(w, r, "database error recording sale", err, "A database error occurred.")
		return
	}

	if !created {
		uierrors.WriteJSON(w, http.StatusOK, sale)
		return
	}
	DrawStock(ctx, h.Inventory, sale, h.Log)
	uierrors.WriteJSON(w, http.StatusCreated, sale)
}

// HandleUpdate handles PUT /api/sales/{id}: a correction of lines, payment
// or notes. Stock already drawn is not re-balanced.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := h.idParam(w, r)
	if !ok {
		return
	}
	var in SaleInput
	if err := uierrors.DecodeJSON(w, r, &in, limits.MaxJSONBody); err != nil {
		uierrors.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	patch, err := in.Model()
	if err != nil {
		uierrors.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	sale, err := h.Sales.Update(ctx, id, patch)
	switch {
	case errors.Is(err, salestore.ErrNotFound):
		uierrors.WriteError(w, http.StatusNotFound, err.Error())
		return
	case errors.Is(err, salestore.ErrInvalid):
		uierrors.WriteError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		h.ErrLog.LogServerError(w, r, "database error updating sale", err, "A database error occurred.")
		return
	}

	h.Audit.SaleUpdated(ctx, r, sale.ID, sale.Receipt, sale.TotalCents)
	uierrors.WriteJSON(w, http.StatusOK, sale)
}

// HandleDelete handles DELETE /api/sales/{id}.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.idParam(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	n, err := h.Sales.Delete(ctx, id)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "database error deleting sale", err, "A database error occurred.")
		return
	}
	if n == 0 {
		uierrors.WriteError(w, http.StatusNotFound, salestore.ErrNotFound.Error())
		return
	}

	h.Audit.SaleDeleted(ctx, r, id)
	w.WriteHeader(http.StatusNoContent)
}
