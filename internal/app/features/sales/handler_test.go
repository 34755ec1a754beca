package sales_test

import (
	"net/http"
	"testing"

	uierrors "github.com/dalemusser/laundrypos/internal/app/features/errors"
	"github.com/dalemusser/laundrypos/internal/app/features/sales"
	"github.com/dalemusser/laundrypos/internal/app/store/audit"
	salestore "github.com/dalemusser/laundrypos/internal/app/store/sales"
	"github.com/dalemusser/laundrypos/internal/app/system/auditlog"
	"github.com/dalemusser/laundrypos/internal/app/system/paging"
	"github.com/dalemusser/laundrypos/internal/domain/models"
	"github.com/dalemusser/laundrypos/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) (*sales.Handler, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupIndexedDB(t)
	logger := zap.NewNop()
	auditLog := auditlog.New(audit.New(db), logger, auditlog.Config{Changes: "db", Sync: "db"})
	return sales.NewHandler(db, uierrors.NewErrorLogger(logger), auditLog, logger), testutil.NewFixtures(t, db)
}

func TestHandleCreate_ComputesTotalAndDrawsStock(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	soap := fx.CreateInventoryItem(ctx, "Soap", 10, 2)

	req := testutil.NewJSONRequest(t, http.MethodPost, "/api/sales", map[string]any{
		"business_date": "2025-03-14",
		"payment":       "card",
		"notes":         "<b>regular</b> customer",
		"items": []map[string]any{
			{"kind": "wash", "quantity": 2, "unit_cents": 350},
			{"kind": "product", "quantity": 3, "unit_cents": 125, "inventory_id": soap.ID.Hex()},
		},
	})
	rec := testutil.NewRecorder()
	h.HandleCreate(rec, req)
	rec.AssertStatus(t, http.StatusCreated)

	var sale models.Sale
	rec.DecodeJSON(t, &sale)
	if sale.TotalCents != 2*350+3*125 {
		t.Errorf("TotalCents = %d", sale.TotalCents)
	}
	if sale.Receipt == "" {
		t.Error("expected a receipt number")
	}
	if sale.Notes != "regular customer" {
		t.Errorf("Notes = %q", sale.Notes)
	}

	var item models.InventoryItem
	if err := fx.DB().Collection("inventory").FindOne(ctx, bson.M{"_id": soap.ID}).Decode(&item); err != nil {
		t.Fatalf("load item: %v", err)
	}
	if item.Quantity != 7 {
		t.Errorf("stock = %d, want 7", item.Quantity)
	}
}

func TestHandleCreate_ClientIDIsIdempotent(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	soap := fx.CreateInventoryItem(ctx, "Soap", 10, 2)
	body := map[string]any{
		"client_id": "term-1:0001",
		"items": []map[string]any{
			{"kind": "product", "quantity": 1, "unit_cents": 125, "inventory_id": soap.ID.Hex()},
		},
	}

	rec := testutil.NewRecorder()
	h.HandleCreate(rec, testutil.NewJSONRequest(t, http.MethodPost, "/api/sales", body))
	rec.AssertStatus(t, http.StatusCreated)
	var first models.Sale
	rec.DecodeJSON(t, &first)

	rec = testutil.NewRecorder()
	h.HandleCreate(rec, testutil.NewJSONRequest(t, http.MethodPost, "/api/sales", body))
	rec.AssertStatus(t, http.StatusOK)
	var second models.Sale
	rec.DecodeJSON(t, &second)
	if first.ID != second.ID {
		t.Errorf("replay created a new sale: %s vs %s", first.ID.Hex(), second.ID.Hex())
	}

	var item models.InventoryItem
	_ = fx.DB().Collection("inventory").FindOne(ctx, bson.M{"_id": soap.ID}).Decode(&item)
	if item.Quantity != 9 {
		t.Errorf("stock = %d, want 9 (drawn once)", item.Quantity)
	}
}

func TestHandleCreate_Invalid(t *testing.T) {
	h, _ := newTestHandler(t)

	tests := []struct {
		name string
		body any
		want int
	}{
		{"no items", map[string]any{"items": []any{}}, http.StatusBadRequest},
		{"bad kind", map[string]any{"items": []map[string]any{{"kind": "iron", "quantity": 1}}}, http.StatusBadRequest},
		{"bad date", map[string]any{"business_date": "14/03/2025", "items": []map[string]any{{"kind": "wash", "quantity": 1}}}, http.StatusBadRequest},
		{"bad employee", map[string]any{"employee_id": "nope", "items": []map[string]any{{"kind": "wash", "quantity": 1}}}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := testutil.NewRecorder()
			h.HandleCreate(rec, testutil.NewJSONRequest(t, http.MethodPost, "/api/sales", tt.body))
			rec.AssertStatus(t, tt.want)
		})
	}
}

func TestHandleUpdate_AndDelete(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	sale := fx.CreateSale(ctx, "2025-03-14", 1, 350)

	req := testutil.NewJSONRequest(t, http.MethodPut, "/", map[string]any{
		"payment": "card",
		"items":   []map[string]any{{"kind": "wash", "quantity": 3, "unit_cents": 350}},
	})
	rec := testutil.NewRecorder()
	h.HandleUpdate(rec, testutil.WithChiURLParam(req, "id", sale.ID.Hex()))
	rec.AssertStatus(t, http.StatusOK)

	var got models.Sale
	rec.DecodeJSON(t, &got)
	if got.TotalCents != 1050 || got.Payment != "card" || got.Receipt != sale.Receipt {
		t.Errorf("unexpected updated sale: %+v", got)
	}

	n, _ := fx.DB().Collection("audit_events").CountDocuments(ctx, bson.M{"event_type": audit.EventSaleUpdated})
	if n != 1 {
		t.Errorf("expected 1 sale_updated audit event, got %d", n)
	}

	rec = testutil.NewRecorder()
	h.HandleDelete(rec, testutil.WithChiURLParam(testutil.NewRequest(http.MethodDelete, "/"), "id", sale.ID.Hex()))
	rec.AssertStatus(t, http.StatusNoContent)

	rec = testutil.NewRecorder()
	h.ServeSale(rec, testutil.WithChiURLParam(testutil.NewRequest(http.MethodGet, "/"), "id", sale.ID.Hex()))
	rec.AssertStatus(t, http.StatusNotFound)

	rec = testutil.NewRecorder()
	h.HandleDelete(rec, testutil.WithChiURLParam(testutil.NewRequest(http.MethodDelete, "/"), "id", primitive.NewObjectID().Hex()))
	rec.AssertStatus(t, http.StatusNotFound)
}

func TestServeList_And_Summary(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx.CreateSale(ctx, "2025-03-14", 1, 350)
	fx.CreateSale(ctx, "2025-03-14", 2, 350)
	fx.CreateSale(ctx, "2025-03-15", 1, 350)

	rec := testutil.NewRecorder()
	h.ServeList(rec, testutil.NewRequest(http.MethodGet, "/api/sales?date=2025-03-14"))
	rec.AssertStatus(t, http.StatusOK)
	var page paging.Page[models.Sale]
	rec.DecodeJSON(t, &page)
	if len(page.Items) != 2 {
		t.Errorf("got %d sales, want 2", len(page.Items))
	}

	rec = testutil.NewRecorder()
	h.ServeSummary(rec, testutil.NewRequest(http.MethodGet, "/api/sales/summary?date=2025-03-14"))
	rec.AssertStatus(t, http.StatusOK)
	var sum salestore.Summary
	rec.DecodeJSON(t, &sum)
	if sum.Sales != 2 || sum.TotalCents != 1050 {
		t.Errorf("summary = %+v", sum)
	}
	if sum.ByKind[models.ItemWash].Quantity != 3 {
		t.Errorf("wash quantity = %d", sum.ByKind[models.ItemWash].Quantity)
	}

	rec = testutil.NewRecorder()
	h.ServeList(rec, testutil.NewRequest(http.MethodGet, "/api/sales?date=yesterday"))
	rec.AssertStatus(t, http.StatusBadRequest)
}
