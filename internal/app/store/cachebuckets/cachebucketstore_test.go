package cachebucketstore_test

import (
	"errors"
	"io"
	"net/http"
	"net/url"
	"testing"
	"time"

	cachebucketstore "github.com/dalemusser/laundrypos/internal/app/store/cachebuckets"
	"github.com/dalemusser/laundrypos/internal/app/system/offline"
	"github.com/dalemusser/laundrypos/internal/testutil"
	"github.com/jarcoal/httpmock"
)

func TestStore_OpenHasNamesDelete(t *testing.T) {
	db := testutil.SetupIndexedDB(t)
	store := cachebucketstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	for _, name := range []string{"laundrypos-v2", "laundrypos-v1", "laundrypos-v2"} {
		if _, err := store.Open(ctx, name); err != nil {
			t.Fatalf("Open(%s) failed: %v", name, err)
		}
	}

	names, err := store.Names(ctx)
	if err != nil {
		t.Fatalf("Names failed: %v", err)
	}
	if len(names) != 2 || names[0] != "laundrypos-v1" || names[1] != "laundrypos-v2" {
		t.Errorf("Names = %v", names)
	}

	if ok, _ := store.Has(ctx, "laundrypos-v1"); !ok {
		t.Error("expected laundrypos-v1 to exist")
	}
	if ok, _ := store.Has(ctx, "laundrypos-v9"); ok {
		t.Error("laundrypos-v9 should not exist")
	}

	deleted, err := store.Delete(ctx, "laundrypos-v1")
	if err != nil || !deleted {
		t.Fatalf("Delete = %v, %v", deleted, err)
	}
	deleted, err = store.Delete(ctx, "laundrypos-v1")
	if err != nil || deleted {
		t.Errorf("second Delete = %v, %v", deleted, err)
	}
}

func TestBucket_PutMatchKeys(t *testing.T) {
	db := testutil.SetupIndexedDB(t)
	store := cachebucketstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	b, err := store.Open(ctx, "laundrypos-v1")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if b.Name() != "laundrypos-v1" {
		t.Errorf("Name = %q", b.Name())
	}

	if _, err := b.Match(ctx, "http://laundry.test/"); !errors.Is(err, offline.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	resp := offline.Response{
		URL:      "http://laundry.test/manifest.json",
		Status:   http.StatusOK,
		Header:   http.Header{"Content-Type": {"application/manifest+json"}},
		Body:     []byte(`{"name":"LaundryPOS"}`),
		StoredAt: time.Now().UTC().Truncate(time.Millisecond),
	}
	if err := b.Put(ctx, resp.URL, resp); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := b.Put(ctx, "http://laundry.test/", offline.Response{URL: "http://laundry.test/", Status: 200, Body: []byte("v1")}); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	// Overwrite keeps a single entry per key.
	if err := b.Put(ctx, "http://laundry.test/", offline.Response{URL: "http://laundry.test/", Status: 200, Body: []byte("v2")}); err != nil {
		t.Fatalf("Put overwrite failed: %v", err)
	}

	got, err := b.Match(ctx, resp.URL)
	if err != nil {
		t.Fatalf("Match failed: %v", err)
	}
	if got.Status != 200 || string(got.Body) != `{"name":"LaundryPOS"}` {
		t.Errorf("Match = %+v", got)
	}
	if got.Header.Get("Content-Type") != "application/manifest+json" {
		t.Errorf("header lost: %v", got.Header)
	}
	if !got.StoredAt.Equal(resp.StoredAt) {
		t.Errorf("StoredAt = %v, want %v", got.StoredAt, resp.StoredAt)
	}

	shell, _ := b.Match(ctx, "http://laundry.test/")
	if string(shell.Body) != "v2" {
		t.Errorf("overwritten body = %q", shell.Body)
	}

	keys, err := b.Keys(ctx)
	if err != nil {
		t.Fatalf("Keys failed: %v", err)
	}
	if len(keys) != 2 || keys[0] != "http://laundry.test/" || keys[1] != resp.URL {
		t.Errorf("Keys = %v", keys)
	}

	if _, err := store.Delete(ctx, "laundrypos-v1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	reopened, _ := store.Open(ctx, "laundrypos-v1")
	if keys, _ := reopened.Keys(ctx); len(keys) != 0 {
		t.Errorf("entries survived bucket deletion: %v", keys)
	}
}

func TestStore_WorkerLifecycle(t *testing.T) {
	db := testutil.SetupIndexedDB(t)
	store := cachebucketstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	network := httpmock.NewMockTransport()
	network.RegisterResponder(http.MethodGet, "http://laundry.test/", httpmock.NewStringResponder(200, "<html>shell</html>"))
	network.RegisterResponder(http.MethodGet, "http://laundry.test/manifest.json", httpmock.NewStringResponder(200, `{}`))

	origin, _ := url.Parse("http://laundry.test")
	reg, err := offline.NewRegistration(offline.RegistrationConfig{Origin: origin, Storage: store, Network: network})
	if err != nil {
		t.Fatalf("NewRegistration failed: %v", err)
	}
	defer reg.Close()

	// A stale generation left by an earlier run.
	if _, err := store.Open(ctx, "laundrypos-v0"); err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	manifest := offline.MustAssetManifest("/", "/manifest.json")
	if _, err := reg.Register(ctx, offline.Version{Prefix: "laundrypos", Tag: "v1"}, manifest); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	names, _ := store.Names(ctx)
	if len(names) != 1 || names[0] != "laundrypos-v1" {
		t.Errorf("buckets after activate = %v", names)
	}

	// Served from Mongo with the network gone.
	network.Reset()
	client := &http.Client{Transport: reg}
	res, err := client.Get("http://laundry.test/")
	if err != nil {
		t.Fatalf("GET / failed: %v", err)
	}
	body, _ := io.ReadAll(res.Body)
	res.Body.Close()
	if string(body) != "<html>shell</html>" {
		t.Errorf("cached body = %q", body)
	}
	if network.GetTotalCallCount() != 0 {
		t.Errorf("network called %d times after reset", network.GetTotalCallCount())
	}
}
