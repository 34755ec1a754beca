package audit_test

import (
	"testing"
	"time"

	"github.com/dalemusser/laundrypos/internal/app/store/audit"
	"github.com/dalemusser/laundrypos/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_Log(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	saleID := primitive.NewObjectID()
	err := store.Log(ctx, audit.Event{
		Category:  audit.CategoryChanges,
		EventType: audit.EventSaleDeleted,
		SubjectID: &saleID,
		IP:        "192.168.1.20",
		Success:   true,
		Details:   map[string]string{"receipt": "R20250314-AAAA0001"},
	})
	if err != nil {
		t.Fatalf("Log failed: %v", err)
	}

	events, err := store.GetBySubject(ctx, saleID, 10)
	if err != nil {
		t.Fatalf("GetBySubject failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	ev := events[0]
	if ev.ID.IsZero() {
		t.Error("expected ID to be generated")
	}
	if ev.Timestamp.IsZero() {
		t.Error("expected Timestamp to be set")
	}
	if ev.Details["receipt"] != "R20250314-AAAA0001" {
		t.Errorf("details = %v", ev.Details)
	}
}

func TestStore_GetRecent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	empty, err := store.GetRecent(ctx, 10)
	if err != nil {
		t.Fatalf("GetRecent failed: %v", err)
	}
	if empty == nil || len(empty) != 0 {
		t.Errorf("expected empty non-nil slice, got %v", empty)
	}

	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		if err := store.Log(ctx, audit.Event{
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			Category:  audit.CategoryChanges,
			EventType: audit.EventStockAdjusted,
			Success:   true,
		}); err != nil {
			t.Fatalf("Log failed: %v", err)
		}
	}

	events, err := store.GetRecent(ctx, 3)
	if err != nil {
		t.Fatalf("GetRecent failed: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	if !events[0].Timestamp.After(events[1].Timestamp) {
		t.Error("expected newest first")
	}
}

func TestStore_Query(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	actor := primitive.NewObjectID()
	now := time.Now().UTC()
	events := []audit.Event{
		{Timestamp: now.Add(-3 * time.Hour), Category: audit.CategoryChanges, EventType: audit.EventSaleUpdated, ActorID: &actor, Success: true},
		{Timestamp: now.Add(-2 * time.Hour), Category: audit.CategoryChanges, EventType: audit.EventSaleDeleted, Success: true},
		{Timestamp: now.Add(-1 * time.Hour), Category: audit.CategorySync, EventType: audit.EventSyncBatch, Terminal: "front-1", Success: false, FailureReason: "partial"},
	}
	for _, ev := range events {
		if err := store.Log(ctx, ev); err != nil {
			t.Fatalf("Log failed: %v", err)
		}
	}

	tests := []struct {
		name   string
		filter audit.QueryFilter
		want   int
	}{
		{"by category", audit.QueryFilter{Category: audit.CategoryChanges}, 2},
		{"by event type", audit.QueryFilter{EventType: audit.EventSyncBatch}, 1},
		{"by actor", audit.QueryFilter{ActorID: &actor}, 1},
		{"by time range", audit.QueryFilter{StartTime: ptr(now.Add(-150 * time.Minute)), EndTime: ptr(now)}, 2},
		{"with offset", audit.QueryFilter{Offset: 2}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.Query(ctx, tt.filter)
			if err != nil {
				t.Fatalf("Query failed: %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("got %d events, want %d", len(got), tt.want)
			}
			n, err := store.CountByFilter(ctx, audit.QueryFilter{Category: tt.filter.Category, EventType: tt.filter.EventType, ActorID: tt.filter.ActorID, StartTime: tt.filter.StartTime, EndTime: tt.filter.EndTime})
			if err != nil {
				t.Fatalf("CountByFilter failed: %v", err)
			}
			if tt.filter.Offset == 0 && n != int64(tt.want) {
				t.Errorf("count = %d, want %d", n, tt.want)
			}
		})
	}
}

func ptr(t time.Time) *time.Time { return &t }

func TestStore_DeleteBefore(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	now := time.Now().UTC()
	for _, age := range []time.Duration{100 * 24 * time.Hour, 40 * 24 * time.Hour, time.Hour} {
		if err := store.Log(ctx, audit.Event{
			Timestamp: now.Add(-age),
			Category:  audit.CategorySync,
			EventType: audit.EventSyncBatch,
			Success:   true,
		}); err != nil {
			t.Fatalf("Log failed: %v", err)
		}
	}

	n, err := store.DeleteBefore(ctx, now.Add(-30*24*time.Hour))
	if err != nil {
		t.Fatalf("DeleteBefore failed: %v", err)
	}
	if n != 2 {
		t.Errorf("deleted %d, want 2", n)
	}

	left, err := store.CountByFilter(ctx, audit.QueryFilter{})
	if err != nil {
		t.Fatalf("CountByFilter failed: %v", err)
	}
	if left != 1 {
		t.Errorf("remaining = %d, want 1", left)
	}
}
