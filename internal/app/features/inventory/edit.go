// internal/app/features/inventory/edit.go
package inventory

import (
	"context"
	"errors"
	"net/http"

	uierrors "github.com/dalemusser/laundrypos/internal/app/features/errors"
	inventorystore "github.com/dalemusser/laundrypos/internal/app/store/inventory"
	"github.com/dalemusser/laundrypos/internal/app/system/htmlsanitize"
	"github.com/dalemusser/laundrypos/internal/app/system/limits"
	"github.com/dalemusser/laundrypos/internal/app/system/timeouts"
	"github.com/dalemusser/laundrypos/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type itemInput struct {
	Name         string `json:"name"`
	SKU          string `json:"sku"`
	Unit         string `json:"unit"`
	Quantity     int    `json:"quantity"`
	ReorderLevel int    `json:"reorder_level"`
}

func (in itemInput) model() models.InventoryItem {
	return models.InventoryItem{
		Name:         htmlsanitize.StripTags(in.Name),
		SKU:          in.SKU,
		Unit:         in.Unit,
		Quantity:     in.Quantity,
		ReorderLevel: in.ReorderLevel,
	}
}

type adjustInput struct {
	Delta  int    `json:"delta"`
	Reason string `json:"reason"`
}

// writeStoreError maps client-fixable store errors to 4xx. It reports
// whether it wrote a response.
func writeStoreError(w http.ResponseWriter, err error) bool {
	switch {
	case errors.Is(err, inventorystore.ErrNotFound):
		uierrors.WriteError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, inventorystore.ErrNameRequired), errors.Is(err, inventorystore.ErrNegative):
		uierrors.WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, inventorystore.ErrDuplicate), errors.Is(err, inventorystore.ErrInsufficientStock):
		uierrors.WriteError(w, http.StatusConflict, err.Error())
	default:
		return false
	}
	return true
}

func (h *Handler) idParam(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		uierrors.WriteError(w, http.StatusBadRequest, "invalid item id")
		return primitive.NilObjectID, false
	}
	return id, true
}

// ServeItem handles GET /api/inventory/{id}.
func (h *Handler) ServeItem(w http.ResponseWriter, r *http.Request) {
	id, ok := h.idParam(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	item, err := h.Store.GetByID(ctx, id)
	if err != nil {
		if !writeStoreError(w, err) {
			h.ErrLog.LogServerError(w, r, "database error loading item", err, "A database error occurred.")
		}
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, item)
}

// HandleCreate handles POST /api/inventory.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var in itemInput
	if err := uierrors.DecodeJSON(w, r, &in, limits.MaxJSONBody); err != nil {
		uierrors.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	item, err := h.Store.Create(ctx, in.model())
	if err != nil {
		if !writeStoreError(w, err) {
			h.ErrLog.LogServerError(w, r, "database error creating item", err, "A database error occurred.")
		}
		return
	}
	uierrors.WriteJSON(w, http.StatusCreated, item)
}

// HandleUpdate handles PATCH /api/inventory/{id}. The stock count is not
// changed here; use adjust.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := h.idParam(w, r)
	if !ok {
		return
	}
	var in itemInput
	if err := uierrors.DecodeJSON(w, r, &in, limits.MaxJSONBody); err != nil {
		uierrors.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.Store.Update(ctx, id, in.model()); err != nil {
		if !writeStoreError(w, err) {
			h.ErrLog.LogServerError(w, r, "database error updating item", err, "A database error occurred.")
		}
		return
	}
	item, err := h.Store.GetByID(ctx, id)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "database error reloading item", err, "A database error occurred.")
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, item)
}

// HandleAdjust handles POST /api/inventory/{id}/adjust with {"delta": n}.
// Stock never goes below zero.
func (h *Handler) HandleAdjust(w http.ResponseWriter, r *http.Request) {
	id, ok := h.idParam(w, r)
	if !ok {
		return
	}
	var in adjustInput
	if err := uierrors.DecodeJSON(w, r, &in, limits.MaxJSONBody); err != nil {
		uierrors.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if in.Delta == 0 {
		uierrors.WriteError(w, http.StatusBadRequest, "delta must not be zero")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	item, err := h.Store.Adjust(ctx, id, in.Delta)
	if err != nil {
		if !writeStoreError(w, err) {
			h.ErrLog.LogServerError(w, r, "database error adjusting stock", err, "A database error occurred.")
		}
		return
	}

	h.Audit.StockAdjusted(ctx, r, item.ID, in.Delta, item.Quantity, htmlsanitize.StripTags(in.Reason))
	uierrors.WriteJSON(w, http.StatusOK, item)
}

// HandleDelete handles DELETE /api/inventory/{id}.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.idParam(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	item, err := h.Store.GetByID(ctx, id)
	if err != nil {
		if !writeStoreError(w, err) {
			h.ErrLog.LogServerError(w, r, "database error loading item", err, "A database error occurred.")
		}
		return
	}
	if _, err := h.Store.Delete(ctx, id); err != nil {
		h.ErrLog.LogServerError(w, r, "database error deleting item", err, "A database error occurred.")
		return
	}

	h.Audit.ItemDeleted(ctx, r, id, item.Name)
	w.WriteHeader(http.StatusNoContent)
}
