// internal/app/features/inventory/import.go
package inventory

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"

	uierrors "github.com/dalemusser/laundrypos/internal/app/features/errors"
	"github.com/dalemusser/laundrypos/internal/app/system/csvutil"
	"github.com/dalemusser/laundrypos/internal/app/system/timeouts"
	"github.com/dalemusser/laundrypos/internal/domain/models"
	"go.uber.org/zap"
)

type importResult struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
}

// csvBody returns the uploaded CSV: the "csv" part of a multipart form, or
// the raw body for text/csv.
func csvBody(r *http.Request) (io.ReadCloser, error) {
	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mt == "multipart/form-data" {
		file, _, err := r.FormFile("csv")
		if err != nil {
			return nil, err
		}
		return file, nil
	}
	return r.Body, nil
}

// HandleImport handles POST /api/inventory/import. Rows are matched to
// existing items by name; counts and reorder levels are overwritten. Any
// invalid row rejects the whole file.
func (h *Handler) HandleImport(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, csvutil.MaxUploadSize)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Batch(), h.Log, "inventory CSV import")
	defer cancel()

	body, err := csvBody(r)
	if err != nil {
		msg := "CSV file is required."
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) || strings.Contains(err.Error(), "request body too large") {
			msg = "CSV file is too large. Maximum size is 5 MB."
		}
		uierrors.WriteError(w, http.StatusBadRequest, msg)
		return
	}
	defer body.Close()

	parsed, err := csvutil.ParseInventoryCSV(body, csvutil.ParseOptions{MaxRows: csvutil.MaxRows})
	if err != nil {
		uierrors.WriteError(w, http.StatusBadRequest, "CSV file could not be parsed: "+err.Error())
		return
	}
	if parsed.HasErrors() {
		uierrors.WriteErrorDetails(w, http.StatusBadRequest, "CSV file has invalid rows", parsed.Errors)
		return
	}
	if len(parsed.Rows) == 0 {
		uierrors.WriteError(w, http.StatusBadRequest, "CSV file has no rows")
		return
	}

	var res importResult
	for _, row := range parsed.Rows {
		_, created, err := h.Store.UpsertByName(ctx, models.InventoryItem{
			Name:         row.Name,
			SKU:          row.SKU,
			Unit:         row.Unit,
			Quantity:     row.Quantity,
			ReorderLevel: row.ReorderLevel,
		})
		if err != nil {
			if writeStoreError(w, err) {
				h.Log.Warn("inventory import stopped", zap.Int("line", row.Line), zap.Error(err))
				return
			}
			h.ErrLog.LogServerError(w, r, "database error importing inventory", err, "A database error occurred.")
			return
		}
		if created {
			res.Created++
		} else {
			res.Updated++
		}
	}

	h.Audit.StockImported(ctx, r, res.Created, res.Updated)
	uierrors.WriteJSON(w, http.StatusOK, res)
}
