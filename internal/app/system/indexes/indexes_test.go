package indexes_test

import (
	"context"
	"testing"
	"time"

	"github.com/dalemusser/laundrypos/internal/app/system/indexes"
	"github.com/dalemusser/laundrypos/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func indexNames(t *testing.T, ctx context.Context, db *mongo.Database, coll string) map[string]bool {
	t.Helper()
	cur, err := db.Collection(coll).Indexes().List(ctx)
	if err != nil {
		t.Fatalf("List indexes on %s failed: %v", coll, err)
	}
	defer cur.Close(ctx)

	names := make(map[string]bool)
	for cur.Next(ctx) {
		var idx bson.M
		if err := cur.Decode(&idx); err != nil {
			continue
		}
		if name, ok := idx["name"].(string); ok {
			names[name] = true
		}
	}
	return names
}

func TestEnsureAll_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("first EnsureAll failed: %v", err)
	}
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("second EnsureAll failed: %v", err)
	}
}

func TestEnsureAll_CreatesIndexes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	want := map[string][]string{
		"employees":     {"idx_employees_status_fullnameci_id", "idx_employees_fullnameci_id"},
		"sales":         {"uniq_sales_clientid", "uniq_sales_receipt", "idx_sales_date_receipt_id", "idx_sales_employee_date"},
		"timesheets":    {"uniq_timesheets_clientid", "uniq_timesheets_open_shift", "idx_timesheets_employee_clockin", "idx_timesheets_clockin"},
		"inventory":     {"uniq_inventory_nameci", "uniq_inventory_sku", "idx_inventory_nameci_id"},
		"cache_buckets": {"uniq_cachebuckets_name"},
		"cache_entries": {"uniq_cacheentries_bucket_key"},
		"audit_events":  {"idx_audit_timestamp_id", "idx_audit_category_timestamp", "idx_audit_subject_timestamp"},
	}
	for coll, names := range want {
		got := indexNames(t, ctx, db, coll)
		for _, n := range names {
			if !got[n] {
				t.Errorf("expected index %q on %s", n, coll)
			}
		}
	}
}

func TestEnsureAll_OneOpenShiftPerEmployee(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	emp := primitive.NewObjectID()
	now := time.Now().UTC()
	coll := db.Collection("timesheets")

	if _, err := coll.InsertOne(ctx, bson.M{"_id": primitive.NewObjectID(), "employee_id": emp, "clock_in": now, "open": false}); err != nil {
		t.Fatalf("closed shift insert failed: %v", err)
	}
	if _, err := coll.InsertOne(ctx, bson.M{"_id": primitive.NewObjectID(), "employee_id": emp, "clock_in": now, "open": true}); err != nil {
		t.Fatalf("open shift insert failed: %v", err)
	}
	if _, err := coll.InsertOne(ctx, bson.M{"_id": primitive.NewObjectID(), "employee_id": emp, "clock_in": now, "open": true}); !mongo.IsDuplicateKeyError(err) {
		t.Errorf("expected duplicate key error for second open shift, got %v", err)
	}
}

func TestEnsureCache_OnlyCacheCollections(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureCache(ctx, db); err != nil {
		t.Fatalf("EnsureCache failed: %v", err)
	}
	if !indexNames(t, ctx, db, "cache_buckets")["uniq_cachebuckets_name"] {
		t.Error("expected uniq_cachebuckets_name on cache_buckets")
	}
	if !indexNames(t, ctx, db, "cache_entries")["uniq_cacheentries_bucket_key"] {
		t.Error("expected uniq_cacheentries_bucket_key on cache_entries")
	}

	colls, err := db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		t.Fatalf("ListCollectionNames failed: %v", err)
	}
	for _, c := range colls {
		if c != "cache_buckets" && c != "cache_entries" {
			t.Errorf("unexpected collection %q", c)
		}
	}
}
