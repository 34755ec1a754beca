package main

import (
	"testing"
	"time"

	"github.com/dalemusser/laundrypos/internal/app/proxy"
	"github.com/dalemusser/laundrypos/internal/testutil"
	"github.com/spf13/viper"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

func TestConfigFrom_Defaults(t *testing.T) {
	v := viper.New()
	_ = newRootCmd(v)

	cfg := configFrom(v)
	if cfg.Origin != "http://localhost:8080" {
		t.Errorf("origin = %q", cfg.Origin)
	}
	if cfg.Storage != proxy.StorageMemory {
		t.Errorf("storage = %q", cfg.Storage)
	}
	if cfg.Refresh != 5*time.Minute {
		t.Errorf("refresh = %v", cfg.Refresh)
	}
	if _, err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestConfigFrom_EnvOverrides(t *testing.T) {
	t.Setenv("POSPROXY_ORIGIN", "https://pos.example.com")
	t.Setenv("POSPROXY_MONGO_DATABASE", "counter1")
	t.Setenv("POSPROXY_REFRESH", "30s")

	v := viper.New()
	_ = newRootCmd(v)

	cfg := configFrom(v)
	if cfg.Origin != "https://pos.example.com" {
		t.Errorf("origin = %q", cfg.Origin)
	}
	if cfg.MongoDatabase != "counter1" {
		t.Errorf("mongo database = %q", cfg.MongoDatabase)
	}
	if cfg.Refresh != 30*time.Second {
		t.Errorf("refresh = %v", cfg.Refresh)
	}
}

func TestConfigFrom_Flags(t *testing.T) {
	v := viper.New()
	cmd := newRootCmd(v)
	if err := cmd.Flags().Parse([]string{"--storage", "mongo", "--listen", ":9000"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	cfg := configFrom(v)
	if cfg.Storage != proxy.StorageMongo || cfg.Listen != ":9000" {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestNewLogger(t *testing.T) {
	if _, err := newLogger("debug"); err != nil {
		t.Errorf("debug: %v", err)
	}
	if _, err := newLogger("loud"); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestOpenStorage_MongoIndexesCacheCollectionsOnly(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	cfg := proxy.Config{
		Storage:       proxy.StorageMongo,
		MongoURI:      testutil.MongoURI(),
		MongoDatabase: db.Name(),
	}
	storage, closeStorage, err := openStorage(ctx, cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("openStorage: %v", err)
	}
	defer closeStorage()

	if _, err := storage.Open(ctx, "laundrypos-v1"); err != nil {
		t.Fatalf("Open bucket: %v", err)
	}

	colls, err := db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		t.Fatalf("ListCollectionNames: %v", err)
	}
	for _, c := range colls {
		if c != "cache_buckets" && c != "cache_entries" {
			t.Errorf("terminal database got collection %q", c)
		}
	}
}
