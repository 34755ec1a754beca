package offline_test

import (
	"context"
	"errors"
	"testing"

	"github.com/dalemusser/laundrypos/internal/app/system/offline"
)

func TestMemoryStorage_OpenCreatesOnce(t *testing.T) {
	ctx := context.Background()
	s := offline.NewMemoryStorage()

	b1, err := s.Open(ctx, "laundrypos-v1")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := b1.Put(ctx, key("/"), offline.Response{URL: key("/"), Status: 200, Body: []byte("x")}); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	b2, err := s.Open(ctx, "laundrypos-v1")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	got, err := b2.Match(ctx, key("/"))
	if err != nil {
		t.Fatalf("Match failed: %v", err)
	}
	if string(got.Body) != "x" {
		t.Errorf("body: got %q", got.Body)
	}
}

func TestMemoryStorage_NamesAndDelete(t *testing.T) {
	ctx := context.Background()
	s := offline.NewMemoryStorage()

	for _, n := range []string{"laundrypos-v2", "laundrypos-v1", "other-v9"} {
		if _, err := s.Open(ctx, n); err != nil {
			t.Fatalf("Open %s failed: %v", n, err)
		}
	}

	names, _ := s.Names(ctx)
	want := []string{"laundrypos-v1", "laundrypos-v2", "other-v9"}
	if len(names) != len(want) {
		t.Fatalf("names: got %v", names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("names[%d]: got %q, want %q", i, names[i], want[i])
		}
	}

	removed, err := s.Delete(ctx, "laundrypos-v1")
	if err != nil || !removed {
		t.Fatalf("Delete: removed=%v err=%v", removed, err)
	}
	removed, _ = s.Delete(ctx, "laundrypos-v1")
	if removed {
		t.Error("second delete should report nothing removed")
	}
	if has, _ := s.Has(ctx, "laundrypos-v1"); has {
		t.Error("deleted bucket still present")
	}
}

func TestMemoryBucket_MissAndKeys(t *testing.T) {
	ctx := context.Background()
	b, _ := offline.NewMemoryStorage().Open(ctx, "laundrypos-v1")

	if _, err := b.Match(ctx, key("/nothing")); !errors.Is(err, offline.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	_ = b.Put(ctx, key("/manifest.json"), offline.Response{Status: 200})
	_ = b.Put(ctx, key("/"), offline.Response{Status: 200})

	keys, err := b.Keys(ctx)
	if err != nil {
		t.Fatalf("Keys failed: %v", err)
	}
	if len(keys) != 2 || keys[0] != key("/") || keys[1] != key("/manifest.json") {
		t.Errorf("keys: got %v", keys)
	}
}

func TestMemoryStorage_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := offline.NewMemoryStorage().Open(ctx, "laundrypos-v1"); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
