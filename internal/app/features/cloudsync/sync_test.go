package cloudsync_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/laundrypos/internal/app/features/cloudsync"
	uierrors "github.com/dalemusser/laundrypos/internal/app/features/errors"
	"github.com/dalemusser/laundrypos/internal/app/store/audit"
	"github.com/dalemusser/laundrypos/internal/app/system/auditlog"
	"github.com/dalemusser/laundrypos/internal/app/system/limits"
	"github.com/dalemusser/laundrypos/internal/domain/models"
	"github.com/dalemusser/laundrypos/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) (*cloudsync.Handler, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupIndexedDB(t)
	logger := zap.NewNop()
	auditLog := auditlog.New(audit.New(db), logger, auditlog.Config{Changes: "db", Sync: "db"})
	return cloudsync.NewHandler(db, uierrors.NewErrorLogger(logger), auditLog, logger), testutil.NewFixtures(t, db)
}

func TestHandleSync_MixedBatchThenReplay(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	emp := fx.CreateEmployee(ctx, "Jordan Park", models.RoleAttendant)
	soap := fx.CreateInventoryItem(ctx, "Soap", 10, 2)
	in := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	out := in.Add(4 * time.Hour)

	batch := map[string]any{
		"sales": []map[string]any{
			{
				"client_id":     "term-1:0001",
				"business_date": "2025-03-01",
				"items": []map[string]any{
					{"kind": "wash", "quantity": 1, "unit_cents": 350},
					{"kind": "product", "quantity": 2, "unit_cents": 125, "inventory_id": soap.ID.Hex()},
				},
			},
			{
				"client_id": "term-1:0002",
				"items":     []map[string]any{{"kind": "ironing", "quantity": 1, "unit_cents": 100}},
			},
		},
		"timesheets": []map[string]any{
			{"client_id": "term-1:s1", "employee_id": emp.ID.Hex(), "clock_in": in, "clock_out": out},
			{"client_id": "term-1:s2", "employee_id": emp.ID.Hex(), "clock_in": in},
		},
	}

	rec := testutil.NewRecorder()
	h.HandleSync(rec, testutil.NewJSONRequest(t, http.MethodPost, "/api/sync", batch))
	rec.AssertStatus(t, http.StatusOK)

	var first cloudsync.Result
	rec.DecodeJSON(t, &first)
	if first.BatchID == "" {
		t.Error("expected a batch id")
	}
	if first.Accepted != 2 || first.Duplicates != 0 || first.Rejected != 2 {
		t.Fatalf("first = %+v", first)
	}
	if first.Sales[0].Status != cloudsync.StatusCreated || first.Sales[0].Receipt == "" {
		t.Errorf("sale 0 = %+v", first.Sales[0])
	}
	if first.Sales[1].Status != cloudsync.StatusRejected || first.Sales[1].Error == "" {
		t.Errorf("sale 1 = %+v", first.Sales[1])
	}
	if first.Timesheets[0].Status != cloudsync.StatusCreated {
		t.Errorf("shift 0 = %+v", first.Timesheets[0])
	}
	if first.Timesheets[1].Status != cloudsync.StatusRejected {
		t.Errorf("shift 1 = %+v", first.Timesheets[1])
	}

	var item models.InventoryItem
	if err := fx.DB().Collection("inventory").FindOne(ctx, bson.M{"_id": soap.ID}).Decode(&item); err != nil {
		t.Fatalf("load item: %v", err)
	}
	if item.Quantity != 8 {
		t.Errorf("stock = %d, want 8", item.Quantity)
	}

	// Resending the batch stores nothing new and draws no more stock.
	rec = testutil.NewRecorder()
	h.HandleSync(rec, testutil.NewJSONRequest(t, http.MethodPost, "/api/sync", batch))
	rec.AssertStatus(t, http.StatusOK)

	var second cloudsync.Result
	rec.DecodeJSON(t, &second)
	if second.Accepted != 0 || second.Duplicates != 2 || second.Rejected != 2 {
		t.Fatalf("second = %+v", second)
	}
	if second.Sales[0].ID != first.Sales[0].ID || second.Timesheets[0].ID != first.Timesheets[0].ID {
		t.Error("replay should return the stored records")
	}

	if err := fx.DB().Collection("inventory").FindOne(ctx, bson.M{"_id": soap.ID}).Decode(&item); err != nil {
		t.Fatalf("load item: %v", err)
	}
	if item.Quantity != 8 {
		t.Errorf("stock after replay = %d, want 8", item.Quantity)
	}

	n, err := fx.DB().Collection("sales").CountDocuments(ctx, bson.M{})
	if err != nil {
		t.Fatalf("count sales: %v", err)
	}
	if n != 1 {
		t.Errorf("sales = %d, want 1", n)
	}

	events, err := fx.DB().Collection("audit_events").CountDocuments(ctx, bson.M{"event_type": audit.EventSyncBatch})
	if err != nil {
		t.Fatalf("count audit: %v", err)
	}
	if events != 2 {
		t.Errorf("sync audit events = %d, want 2", events)
	}
}

func TestHandleSync_UnknownEmployee(t *testing.T) {
	h, _ := newTestHandler(t)

	in := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	rec := testutil.NewRecorder()
	h.HandleSync(rec, testutil.NewJSONRequest(t, http.MethodPost, "/api/sync", map[string]any{
		"timesheets": []map[string]any{
			{"client_id": "s1", "employee_id": "64b000000000000000000000", "clock_in": in, "clock_out": in.Add(time.Hour)},
			{"client_id": "s2", "employee_id": "nope", "clock_in": in, "clock_out": in.Add(time.Hour)},
		},
	}))
	rec.AssertStatus(t, http.StatusOK)

	var res cloudsync.Result
	rec.DecodeJSON(t, &res)
	if res.Rejected != 2 {
		t.Errorf("res = %+v", res)
	}
}

func TestHandleSync_TooManyRecords(t *testing.T) {
	h, _ := newTestHandler(t)

	sales := make([]map[string]any, limits.MaxSyncRecords+1)
	for i := range sales {
		sales[i] = map[string]any{}
	}
	rec := testutil.NewRecorder()
	h.HandleSync(rec, testutil.NewJSONRequest(t, http.MethodPost, "/api/sync", map[string]any{"sales": sales}))
	rec.AssertStatus(t, http.StatusRequestEntityTooLarge)
}

func TestHandleSync_BadBody(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := testutil.NewRecorder()
	h.HandleSync(rec, testutil.NewJSONRequest(t, http.MethodPost, "/api/sync", map[string]any{"refunds": []int{1}}))
	rec.AssertStatus(t, http.StatusBadRequest)
}
