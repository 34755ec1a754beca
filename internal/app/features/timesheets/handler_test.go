package timesheets_test

import (
	"net/http"
	"testing"
	"time"

	uierrors "github.com/dalemusser/laundrypos/internal/app/features/errors"
	"github.com/dalemusser/laundrypos/internal/app/features/timesheets"
	"github.com/dalemusser/laundrypos/internal/app/store/audit"
	"github.com/dalemusser/laundrypos/internal/app/system/auditlog"
	"github.com/dalemusser/laundrypos/internal/domain/models"
	"github.com/dalemusser/laundrypos/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) (*timesheets.Handler, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupIndexedDB(t)
	logger := zap.NewNop()
	auditLog := auditlog.New(audit.New(db), logger, auditlog.Config{Changes: "db", Sync: "db"})
	return timesheets.NewHandler(db, uierrors.NewErrorLogger(logger), auditLog, logger), testutil.NewFixtures(t, db)
}

func TestClockInOut(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	emp := fx.CreateEmployee(ctx, "Eve", models.RoleAttendant)

	in := time.Date(2025, 3, 14, 8, 0, 0, 0, time.UTC)
	out := in.Add(8*time.Hour + 30*time.Minute)

	rec := testutil.NewRecorder()
	h.HandleClockIn(rec, testutil.NewJSONRequest(t, http.MethodPost, "/", map[string]any{"employee_id": emp.ID.Hex(), "at": in}))
	rec.AssertStatus(t, http.StatusCreated)

	rec = testutil.NewRecorder()
	h.HandleClockIn(rec, testutil.NewJSONRequest(t, http.MethodPost, "/", map[string]any{"employee_id": emp.ID.Hex()}))
	rec.AssertStatus(t, http.StatusConflict)

	rec = testutil.NewRecorder()
	h.ServeOpenShift(rec, testutil.WithChiURLParam(testutil.NewRequest(http.MethodGet, "/"), "employeeID", emp.ID.Hex()))
	rec.AssertStatus(t, http.StatusOK)

	rec = testutil.NewRecorder()
	h.HandleClockOut(rec, testutil.NewJSONRequest(t, http.MethodPost, "/", map[string]any{"employee_id": emp.ID.Hex(), "at": out}))
	rec.AssertStatus(t, http.StatusOK)
	var ts models.Timesheet
	rec.DecodeJSON(t, &ts)
	if ts.Minutes != 510 || ts.Open {
		t.Errorf("unexpected closed shift: minutes=%d open=%v", ts.Minutes, ts.Open)
	}

	rec = testutil.NewRecorder()
	h.HandleClockOut(rec, testutil.NewJSONRequest(t, http.MethodPost, "/", map[string]any{"employee_id": emp.ID.Hex()}))
	rec.AssertStatus(t, http.StatusConflict)

	rec = testutil.NewRecorder()
	h.ServeOpenShift(rec, testutil.WithChiURLParam(testutil.NewRequest(http.MethodGet, "/"), "employeeID", emp.ID.Hex()))
	rec.AssertStatus(t, http.StatusNotFound)
}

func TestClockIn_EmployeeChecks(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	gone := fx.CreateEmployee(ctx, "Gone", models.RoleAttendant)
	if _, err := fx.DB().Collection("employees").UpdateByID(ctx, gone.ID, bson.M{"$set": bson.M{"status": "disabled"}}); err != nil {
		t.Fatalf("disable: %v", err)
	}

	tests := []struct {
		name string
		id   string
		want int
	}{
		{"malformed", "nope", http.StatusBadRequest},
		{"unknown", primitive.NewObjectID().Hex(), http.StatusNotFound},
		{"disabled", gone.ID.Hex(), http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := testutil.NewRecorder()
			h.HandleClockIn(rec, testutil.NewJSONRequest(t, http.MethodPost, "/", map[string]any{"employee_id": tt.id}))
			rec.AssertStatus(t, tt.want)
		})
	}
}

func TestCorrectAndList(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	emp := fx.CreateEmployee(ctx, "Fay", models.RoleAttendant)

	in := time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)
	rec := testutil.NewRecorder()
	h.HandleClockIn(rec, testutil.NewJSONRequest(t, http.MethodPost, "/", map[string]any{"employee_id": emp.ID.Hex(), "at": in}))
	rec.AssertStatus(t, http.StatusCreated)
	rec = testutil.NewRecorder()
	h.HandleClockOut(rec, testutil.NewJSONRequest(t, http.MethodPost, "/", map[string]any{"employee_id": emp.ID.Hex(), "at": in.Add(2 * time.Hour)}))
	rec.AssertStatus(t, http.StatusOK)
	var ts models.Timesheet
	rec.DecodeJSON(t, &ts)

	req := testutil.NewJSONRequest(t, http.MethodPatch, "/", map[string]any{"clock_out": in.Add(4 * time.Hour), "notes": "forgot to clock out"})
	rec = testutil.NewRecorder()
	h.HandleCorrect(rec, testutil.WithChiURLParam(req, "id", ts.ID.Hex()))
	rec.AssertStatus(t, http.StatusOK)
	var fixed models.Timesheet
	rec.DecodeJSON(t, &fixed)
	if fixed.Minutes != 240 || fixed.Notes != "forgot to clock out" {
		t.Errorf("unexpected correction: %+v", fixed)
	}

	req = testutil.NewJSONRequest(t, http.MethodPatch, "/", map[string]any{"clock_out": in.Add(-time.Hour)})
	rec = testutil.NewRecorder()
	h.HandleCorrect(rec, testutil.WithChiURLParam(req, "id", ts.ID.Hex()))
	rec.AssertStatus(t, http.StatusBadRequest)

	rec = testutil.NewRecorder()
	h.ServeList(rec, testutil.NewRequest(http.MethodGet, "/api/timesheets?from=2025-03-14&to=2025-03-14&employee_id="+emp.ID.Hex()))
	rec.AssertStatus(t, http.StatusOK)
	var shifts []models.Timesheet
	rec.DecodeJSON(t, &shifts)
	if len(shifts) != 1 {
		t.Errorf("got %d shifts, want 1", len(shifts))
	}

	rec = testutil.NewRecorder()
	h.ServeList(rec, testutil.NewRequest(http.MethodGet, "/api/timesheets?from=2025-03-15&to=2025-03-14"))
	rec.AssertStatus(t, http.StatusBadRequest)

	n, _ := fx.DB().Collection("audit_events").CountDocuments(ctx, bson.M{"event_type": audit.EventTimesheetCorrected})
	if n != 1 {
		t.Errorf("expected 1 correction audit event, got %d", n)
	}

	rec = testutil.NewRecorder()
	h.HandleDelete(rec, testutil.WithChiURLParam(testutil.NewRequest(http.MethodDelete, "/"), "id", ts.ID.Hex()))
	rec.AssertStatus(t, http.StatusNoContent)
}

func TestDayRange(t *testing.T) {
	from, to, ok := timesheets.DayRange("2025-03-01", "2025-03-07")
	if !ok {
		t.Fatal("expected valid range")
	}
	if !from.Equal(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)) || !to.Equal(time.Date(2025, 3, 8, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("range = %v .. %v", from, to)
	}
	if _, _, ok := timesheets.DayRange("2025-03-07", "2025-03-01"); ok {
		t.Error("reversed range accepted")
	}
	if _, _, ok := timesheets.DayRange("03/01/2025", ""); ok {
		t.Error("bad date accepted")
	}
	from, to, ok = timesheets.DayRange("", "")
	if !ok || to.Sub(from) != 24*time.Hour {
		t.Errorf("default range = %v .. %v", from, to)
	}
}
