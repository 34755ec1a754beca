// internal/app/features/cloudsync/sync.go
package cloudsync

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	uierrors "github.com/dalemusser/laundrypos/internal/app/features/errors"
	"github.com/dalemusser/laundrypos/internal/app/features/sales"
	employeestore "github.com/dalemusser/laundrypos/internal/app/store/employees"
	salestore "github.com/dalemusser/laundrypos/internal/app/store/sales"
	timesheetstore "github.com/dalemusser/laundrypos/internal/app/store/timesheets"
	"github.com/dalemusser/laundrypos/internal/app/system/htmlsanitize"
	"github.com/dalemusser/laundrypos/internal/app/system/limits"
	"github.com/dalemusser/laundrypos/internal/app/system/timeouts"
	"github.com/dalemusser/laundrypos/internal/domain/models"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Record outcomes.
const (
	StatusCreated   = "created"
	StatusDuplicate = "duplicate"
	StatusRejected  = "rejected"
)

// ShiftInput is a completed shift recorded on a terminal.
type ShiftInput struct {
	ClientID   string     `json:"client_id"`
	EmployeeID string     `json:"employee_id"`
	ClockIn    time.Time  `json:"clock_in"`
	ClockOut   *time.Time `json:"clock_out"`
	Notes      string     `json:"notes"`
}

// Batch is the body of POST /api/sync.
type Batch struct {
	Sales      []sales.SaleInput `json:"sales"`
	Timesheets []ShiftInput      `json:"timesheets"`
}

// RecordResult reports what happened to one record.
type RecordResult struct {
	ClientID string `json:"client_id"`
	Status   string `json:"status"`
	ID       string `json:"id,omitempty"`
	Receipt  string `json:"receipt,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Result is the response of POST /api/sync.
type Result struct {
	BatchID    string         `json:"batch_id"`
	Accepted   int            `json:"accepted"`
	Duplicates int            `json:"duplicates"`
	Rejected   int            `json:"rejected"`
	Sales      []RecordResult `json:"sales"`
	Timesheets []RecordResult `json:"timesheets"`
}

func (res *Result) add(list *[]RecordResult, rr RecordResult) {
	switch rr.Status {
	case StatusCreated:
		res.Accepted++
	case StatusDuplicate:
		res.Duplicates++
	default:
		res.Rejected++
	}
	*list = append(*list, rr)
}

// HandleSync handles POST /api/sync. Each record is upserted by its
// client_id, so a terminal may resend a batch after a dropped connection.
// Invalid records are rejected individually; a database failure aborts the
// batch with 500 and the terminal retries it.
func (h *Handler) HandleSync(w http.ResponseWriter, r *http.Request) {
	var in Batch
	if err := uierrors.DecodeJSON(w, r, &in, limits.MaxSyncBody); err != nil {
		uierrors.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if n := len(in.Sales) + len(in.Timesheets); n > limits.MaxSyncRecords {
		uierrors.WriteError(w, http.StatusRequestEntityTooLarge, "too many records in one batch")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Batch())
	defer cancel()

	res := Result{
		BatchID:    uuid.NewString(),
		Sales:      []RecordResult{},
		Timesheets: []RecordResult{},
	}
	log := h.Log.With(zap.String("batch_id", res.BatchID))

	for _, s := range in.Sales {
		rr, err := h.syncSale(ctx, s)
		if err != nil {
			h.ErrLog.LogServerError(w, r, "database error syncing sale", err, "A database error occurred.")
			return
		}
		res.add(&res.Sales, rr)
	}

	known := map[primitive.ObjectID]bool{}
	for _, s := range in.Timesheets {
		rr, err := h.syncShift(ctx, s, known)
		if err != nil {
			h.ErrLog.LogServerError(w, r, "database error syncing timesheet", err, "A database error occurred.")
			return
		}
		res.add(&res.Timesheets, rr)
	}

	h.Audit.SyncBatch(ctx, r, res.Accepted, res.Duplicates, res.Rejected)
	log.Info("sync batch processed",
		zap.Int("accepted", res.Accepted),
		zap.Int("duplicates", res.Duplicates),
		zap.Int("rejected", res.Rejected))

	uierrors.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) syncSale(ctx context.Context, in sales.SaleInput) (RecordResult, error) {
	rr := RecordResult{ClientID: strings.TrimSpace(in.ClientID)}

	sale, err := in.Model()
	if err != nil {
		return rejected(rr, err), nil
	}
	stored, created, err := h.Sales.UpsertByClientID(ctx, sale)
	switch {
	case errors.Is(err, salestore.ErrInvalid),
		errors.Is(err, salestore.ErrClientIDRequired),
		errors.Is(err, salestore.ErrDuplicateReceipt):
		return rejected(rr, err), nil
	case err != nil:
		return rr, err
	}

	rr.ID = stored.ID.Hex()
	rr.Receipt = stored.Receipt
	if !created {
		rr.Status = StatusDuplicate
		return rr, nil
	}
	rr.Status = StatusCreated
	sales.DrawStock(ctx, h.Inventory, stored, h.Log)
	return rr, nil
}

func (h *Handler) syncShift(ctx context.Context, in ShiftInput, known map[primitive.ObjectID]bool) (RecordResult, error) {
	rr := RecordResult{ClientID: strings.TrimSpace(in.ClientID)}

	empID, err := primitive.ObjectIDFromHex(strings.TrimSpace(in.EmployeeID))
	if err != nil {
		return rejected(rr, errors.New("invalid employee_id")), nil
	}
	if !known[empID] {
		if _, err := h.Employees.GetByID(ctx, empID); err != nil {
			if errors.Is(err, employeestore.ErrNotFound) {
				return rejected(rr, err), nil
			}
			return rr, err
		}
		known[empID] = true
	}

	stored, created, err := h.Timesheets.UpsertByClientID(ctx, models.Timesheet{
		ClientID:   in.ClientID,
		EmployeeID: empID,
		ClockIn:    in.ClockIn,
		ClockOut:   in.ClockOut,
		Notes:      htmlsanitize.StripTags(in.Notes),
	})
	switch {
	case errors.Is(err, timesheetstore.ErrClientIDRequired),
		errors.Is(err, timesheetstore.ErrShiftIncomplete),
		errors.Is(err, timesheetstore.ErrClockOutBeforeIn):
		return rejected(rr, err), nil
	case err != nil:
		return rr, err
	}

	rr.ID = stored.ID.Hex()
	if created {
		rr.Status = StatusCreated
	} else {
		rr.Status = StatusDuplicate
	}
	return rr, nil
}

func rejected(rr RecordResult, err error) RecordResult {
	rr.Status = StatusRejected
	rr.Error = err.Error()
	return rr
}
