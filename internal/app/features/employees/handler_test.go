package employees_test

import (
	"net/http"
	"testing"

	"github.com/dalemusser/laundrypos/internal/app/features/employees"
	uierrors "github.com/dalemusser/laundrypos/internal/app/features/errors"
	"github.com/dalemusser/laundrypos/internal/app/store/audit"
	"github.com/dalemusser/laundrypos/internal/app/system/auditlog"
	"github.com/dalemusser/laundrypos/internal/app/system/paging"
	"github.com/dalemusser/laundrypos/internal/domain/models"
	"github.com/dalemusser/laundrypos/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) (*employees.Handler, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()
	errLog := uierrors.NewErrorLogger(logger)
	auditLog := auditlog.New(audit.New(db), logger, auditlog.Config{Changes: "db", Sync: "db"})
	return employees.NewHandler(db, errLog, auditLog, logger), testutil.NewFixtures(t, db)
}

func TestHandleCreate_Success(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	req := testutil.NewJSONRequest(t, http.MethodPost, "/api/employees", map[string]any{
		"full_name":         "  Ana Lima ",
		"hourly_rate_cents": 1600,
	})
	rec := testutil.NewRecorder()
	h.HandleCreate(rec, req)
	rec.AssertStatus(t, http.StatusCreated)

	var emp models.Employee
	rec.DecodeJSON(t, &emp)
	if emp.FullName != "Ana Lima" {
		t.Errorf("FullName = %q", emp.FullName)
	}
	if emp.Role != models.RoleAttendant || emp.Status != "active" {
		t.Errorf("defaults not applied: role=%q status=%q", emp.Role, emp.Status)
	}

	n, err := fx.DB().Collection("audit_events").CountDocuments(ctx, bson.M{"event_type": audit.EventEmployeeCreated, "subject_id": emp.ID})
	if err != nil {
		t.Fatalf("CountDocuments: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 audit event, got %d", n)
	}
}

func TestHandleCreate_Invalid(t *testing.T) {
	h, _ := newTestHandler(t)

	tests := []struct {
		name string
		body any
	}{
		{"missing name", map[string]any{"role": "manager"}},
		{"bad role", map[string]any{"full_name": "X", "role": "owner"}},
		{"negative rate", map[string]any{"full_name": "X", "hourly_rate_cents": -1}},
		{"unknown field", map[string]any{"full_name": "X", "email": "x@y"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := testutil.NewRecorder()
			h.HandleCreate(rec, testutil.NewJSONRequest(t, http.MethodPost, "/api/employees", tt.body))
			rec.AssertStatus(t, http.StatusBadRequest)
		})
	}
}

func TestServeEmployee(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	emp := fx.CreateEmployee(ctx, "Bo Chen", models.RoleManager)

	rec := testutil.NewRecorder()
	h.ServeEmployee(rec, testutil.WithChiURLParam(testutil.NewRequest(http.MethodGet, "/"), "id", emp.ID.Hex()))
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, "Bo Chen")

	rec = testutil.NewRecorder()
	h.ServeEmployee(rec, testutil.WithChiURLParam(testutil.NewRequest(http.MethodGet, "/"), "id", primitive.NewObjectID().Hex()))
	rec.AssertStatus(t, http.StatusNotFound)

	rec = testutil.NewRecorder()
	h.ServeEmployee(rec, testutil.WithChiURLParam(testutil.NewRequest(http.MethodGet, "/"), "id", "zzz"))
	rec.AssertStatus(t, http.StatusBadRequest)
}

func TestHandleUpdate(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	emp := fx.CreateEmployee(ctx, "Cy Doe", models.RoleAttendant)

	req := testutil.NewJSONRequest(t, http.MethodPatch, "/", map[string]any{"status": "disabled"})
	req = testutil.WithChiURLParam(req, "id", emp.ID.Hex())
	rec := testutil.NewRecorder()
	h.HandleUpdate(rec, req)
	rec.AssertStatus(t, http.StatusOK)

	var got models.Employee
	rec.DecodeJSON(t, &got)
	if got.Status != "disabled" {
		t.Errorf("Status = %q", got.Status)
	}
	if got.FullName != "Cy Doe" || got.HourlyRateCents != 1500 {
		t.Errorf("unchanged fields altered: %+v", got)
	}

	req = testutil.NewJSONRequest(t, http.MethodPatch, "/", map[string]any{"status": "gone"})
	req = testutil.WithChiURLParam(req, "id", emp.ID.Hex())
	rec = testutil.NewRecorder()
	h.HandleUpdate(rec, req)
	rec.AssertStatus(t, http.StatusBadRequest)

	req = testutil.NewJSONRequest(t, http.MethodPatch, "/", map[string]any{"role": "manager"})
	req = testutil.WithChiURLParam(req, "id", primitive.NewObjectID().Hex())
	rec = testutil.NewRecorder()
	h.HandleUpdate(rec, req)
	rec.AssertStatus(t, http.StatusNotFound)
}

func TestHandleDelete(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	emp := fx.CreateEmployee(ctx, "Di Ek", models.RoleAttendant)

	rec := testutil.NewRecorder()
	h.HandleDelete(rec, testutil.WithChiURLParam(testutil.NewRequest(http.MethodDelete, "/"), "id", emp.ID.Hex()))
	rec.AssertStatus(t, http.StatusNoContent)

	rec = testutil.NewRecorder()
	h.HandleDelete(rec, testutil.WithChiURLParam(testutil.NewRequest(http.MethodDelete, "/"), "id", emp.ID.Hex()))
	rec.AssertStatus(t, http.StatusNotFound)
}

func TestServeList_And_Active(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx.CreateEmployee(ctx, "Alice", models.RoleAttendant)
	fx.CreateEmployee(ctx, "Albert", models.RoleManager)
	gone := fx.CreateEmployee(ctx, "Bea", models.RoleAttendant)
	if _, err := fx.DB().Collection("employees").UpdateByID(ctx, gone.ID, bson.M{"$set": bson.M{"status": "disabled"}}); err != nil {
		t.Fatalf("disable: %v", err)
	}

	rec := testutil.NewRecorder()
	h.ServeList(rec, testutil.NewRequest(http.MethodGet, "/api/employees?q=al"))
	rec.AssertStatus(t, http.StatusOK)
	var page paging.Page[models.Employee]
	rec.DecodeJSON(t, &page)
	if len(page.Items) != 2 {
		t.Errorf("search returned %d employees, want 2", len(page.Items))
	}

	rec = testutil.NewRecorder()
	h.ServeList(rec, testutil.NewRequest(http.MethodGet, "/api/employees?status=bogus"))
	rec.AssertStatus(t, http.StatusBadRequest)

	rec = testutil.NewRecorder()
	h.ServeActive(rec, testutil.NewRequest(http.MethodGet, "/api/employees/active"))
	rec.AssertStatus(t, http.StatusOK)
	var active []models.Employee
	rec.DecodeJSON(t, &active)
	if len(active) != 2 {
		t.Errorf("active = %d, want 2", len(active))
	}
}
