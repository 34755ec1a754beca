package offline_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dalemusser/laundrypos/internal/app/system/offline"
	"github.com/jarcoal/httpmock"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/goleak"
)

func startWorker(t *testing.T, cfg offline.Config) (*offline.Worker, func()) {
	t.Helper()
	w, err := offline.NewWorker(cfg)
	if err != nil {
		t.Fatalf("NewWorker failed: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = w.Run(ctx) }()
	return w, func() {
		cancel()
		<-w.Stopped()
	}
}

func workerConfig(t *testing.T, storage offline.Storage, network http.RoundTripper, tag string) offline.Config {
	return offline.Config{
		Version:  v(tag),
		Manifest: offline.MustAssetManifest(threeAssets...),
		Origin:   originURL(t),
		Storage:  storage,
		Network:  network,
	}
}

func TestWorker_Lifecycle(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := testContext()
	defer cancel()

	network := newNetwork()
	w, stop := startWorker(t, workerConfig(t, offline.NewMemoryStorage(), network, "v1"))
	defer stop()

	if got := w.State(); got != offline.StateUninstalled {
		t.Fatalf("initial state: got %s", got)
	}
	if err := w.Install(ctx); err != nil {
		t.Fatalf("Install failed: %v", err)
	}
	if got := w.State(); got != offline.StateInstalled {
		t.Fatalf("after install: got %s", got)
	}
	if err := w.Activate(ctx); err != nil {
		t.Fatalf("Activate failed: %v", err)
	}
	if got := w.State(); got != offline.StateActive {
		t.Fatalf("after activate: got %s", got)
	}

	req := httptest.NewRequest(http.MethodGet, key("/"), nil)
	res, src, err := w.Fetch(req)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	res.Body.Close()
	if src != offline.FromCache {
		t.Errorf("source: got %q, want cache", src)
	}
	if n := network.GetTotalCallCount(); n != len(threeAssets) {
		t.Errorf("network calls: got %d, want %d (install only)", n, len(threeAssets))
	}
}

func TestWorker_FetchBeforeActivationPassesThrough(t *testing.T) {
	defer goleak.VerifyNone(t)

	network := newNetwork()
	w, stop := startWorker(t, workerConfig(t, offline.NewMemoryStorage(), network, "v1"))
	defer stop()

	req := httptest.NewRequest(http.MethodGet, key("/manifest.json"), nil)
	res, src, err := w.Fetch(req)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	res.Body.Close()

	if src != offline.FromNetwork {
		t.Errorf("source: got %q, want network", src)
	}
	if n := network.GetTotalCallCount(); n != 1 {
		t.Errorf("network calls: got %d, want 1", n)
	}
}

func TestWorker_ActivateBeforeInstall(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := testContext()
	defer cancel()

	w, stop := startWorker(t, workerConfig(t, offline.NewMemoryStorage(), newNetwork(), "v1"))
	defer stop()

	err := w.Activate(ctx)
	if !errors.Is(err, offline.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	if got := w.State(); got != offline.StateUninstalled {
		t.Errorf("state changed to %s", got)
	}
}

func TestWorker_InstallFailureMakesRedundant(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := testContext()
	defer cancel()

	network := newNetwork()
	network.RegisterResponder(http.MethodGet, origin+"/icons/icon-192x192.png",
		httpmock.NewStringResponder(http.StatusNotFound, "gone"))

	w, stop := startWorker(t, workerConfig(t, offline.NewMemoryStorage(), network, "v1"))
	defer stop()

	if err := w.Install(ctx); !errors.Is(err, offline.ErrInstallFailed) {
		t.Fatalf("expected ErrInstallFailed, got %v", err)
	}
	if got := w.State(); got != offline.StateRedundant {
		t.Fatalf("state: got %s, want redundant", got)
	}
	if err := w.Install(ctx); !errors.Is(err, offline.ErrRedundant) {
		t.Errorf("second install: expected ErrRedundant, got %v", err)
	}
}

func TestWorker_ActivateDeletesPreviousGeneration(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := testContext()
	defer cancel()

	storage := offline.NewMemoryStorage()
	_, _ = storage.Open(ctx, "laundrypos-v0")

	w, stop := startWorker(t, workerConfig(t, storage, newNetwork(), "v1"))
	defer stop()

	if err := w.Install(ctx); err != nil {
		t.Fatalf("Install failed: %v", err)
	}
	if has, _ := storage.Has(ctx, "laundrypos-v0"); !has {
		t.Fatal("install must not touch other buckets")
	}
	if err := w.Activate(ctx); err != nil {
		t.Fatalf("Activate failed: %v", err)
	}
	names, _ := storage.Names(ctx)
	if len(names) != 1 || names[0] != "laundrypos-v1" {
		t.Errorf("buckets after activate: %v", names)
	}
}

func TestWorker_AsClientTransport(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := testContext()
	defer cancel()

	network := newNetwork()
	w, stop := startWorker(t, workerConfig(t, offline.NewMemoryStorage(), network, "v1"))
	defer stop()

	if err := w.Install(ctx); err != nil {
		t.Fatalf("Install failed: %v", err)
	}
	if err := w.Activate(ctx); err != nil {
		t.Fatalf("Activate failed: %v", err)
	}
	installCalls := network.GetTotalCallCount()

	client := &http.Client{Transport: w}
	res, err := client.Get(key("/icons/icon-192x192.png"))
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	body, _ := io.ReadAll(res.Body)
	res.Body.Close()

	if string(body) != "png-192" {
		t.Errorf("body: got %q", body)
	}
	if network.GetTotalCallCount() != installCalls {
		t.Error("cached asset should not reach the network")
	}

	res, err = client.Get(key("/api/sales"))
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	res.Body.Close()
	if network.GetCallCountInfo()["GET "+key("/api/sales")] != 1 {
		t.Errorf("expected exactly one network call for uncached url, got %v", network.GetCallCountInfo())
	}
}

func TestWorker_ServeHTTPSetsSource(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := testContext()
	defer cancel()

	w, stop := startWorker(t, workerConfig(t, offline.NewMemoryStorage(), newNetwork(), "v1"))
	defer stop()

	if err := w.Install(ctx); err != nil {
		t.Fatalf("Install failed: %v", err)
	}
	if err := w.Activate(ctx); err != nil {
		t.Fatalf("Activate failed: %v", err)
	}

	tests := []struct {
		path   string
		status int
		source string
	}{
		{"/manifest.json", http.StatusOK, "cache"},
		{"/api/sales", http.StatusOK, "network"},
		{"/missing", http.StatusBadGateway, ""},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		w.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

		if rec.Code != tt.status {
			t.Errorf("%s: status got %d, want %d", tt.path, rec.Code, tt.status)
		}
		if got := rec.Header().Get(offline.SourceHeader); got != tt.source {
			t.Errorf("%s: source got %q, want %q", tt.path, got, tt.source)
		}
	}
}

func TestWorker_ConcurrentCachedFetches(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := testContext()
	defer cancel()

	network := newNetwork()
	w, stop := startWorker(t, workerConfig(t, offline.NewMemoryStorage(), network, "v1"))
	defer stop()

	if err := w.Install(ctx); err != nil {
		t.Fatalf("Install failed: %v", err)
	}
	if err := w.Activate(ctx); err != nil {
		t.Fatalf("Activate failed: %v", err)
	}
	before := network.GetTotalCallCount()

	var wg sync.WaitGroup
	errs := make(chan error, 32)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, src, err := w.Fetch(httptest.NewRequest(http.MethodGet, key("/"), nil))
			if err != nil {
				errs <- err
				return
			}
			res.Body.Close()
			if src != offline.FromCache {
				errs <- errors.New("expected cache hit")
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
	if network.GetTotalCallCount() != before {
		t.Error("cached fetches reached the network")
	}
}

func TestWorker_SupersedeMakesRedundant(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := testContext()
	defer cancel()

	network := newNetwork()
	w, stop := startWorker(t, workerConfig(t, offline.NewMemoryStorage(), network, "v1"))
	defer stop()

	if err := w.Install(ctx); err != nil {
		t.Fatalf("Install failed: %v", err)
	}
	if err := w.Supersede(ctx); err != nil {
		t.Fatalf("Supersede failed: %v", err)
	}
	if got := w.State(); got != offline.StateRedundant {
		t.Fatalf("state: got %s", got)
	}
	if err := w.Activate(ctx); !errors.Is(err, offline.ErrRedundant) {
		t.Errorf("expected ErrRedundant, got %v", err)
	}

	res, src, err := w.Fetch(httptest.NewRequest(http.MethodGet, key("/"), nil))
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	res.Body.Close()
	if src != offline.FromNetwork {
		t.Errorf("redundant worker should not serve from cache, got %q", src)
	}
}

func TestWorker_StoppedRejectsEvents(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := testContext()
	defer cancel()

	w, stop := startWorker(t, workerConfig(t, offline.NewMemoryStorage(), newNetwork(), "v1"))
	stop()

	if err := w.Install(ctx); !errors.Is(err, offline.ErrStopped) {
		t.Errorf("expected ErrStopped, got %v", err)
	}
	if err := w.Run(context.Background()); err == nil {
		t.Error("expected second Run to fail")
	}
}

func TestWorker_RecordsMetrics(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := testContext()
	defer cancel()

	reg := prometheus.NewRegistry()
	metrics, err := offline.NewMetrics(reg)
	if err != nil {
		t.Fatalf("NewMetrics failed: %v", err)
	}

	cfg := workerConfig(t, offline.NewMemoryStorage(), newNetwork(), "v1")
	cfg.Metrics = metrics
	w, stop := startWorker(t, cfg)
	defer stop()

	if err := w.Install(ctx); err != nil {
		t.Fatalf("Install failed: %v", err)
	}
	if err := w.Activate(ctx); err != nil {
		t.Fatalf("Activate failed: %v", err)
	}
	for _, p := range []string{"/", "/manifest.json", "/api/sales"} {
		res, _, err := w.Fetch(httptest.NewRequest(http.MethodGet, key(p), nil))
		if err != nil {
			t.Fatalf("Fetch %s failed: %v", p, err)
		}
		res.Body.Close()
	}

	if got := counterValue(t, reg, "laundrypos_offline_fetch_total", "source", "cache"); got != 2 {
		t.Errorf("cache fetches: got %v, want 2", got)
	}
	if got := counterValue(t, reg, "laundrypos_offline_fetch_total", "source", "network"); got != 1 {
		t.Errorf("network fetches: got %v, want 1", got)
	}
	if got := counterValue(t, reg, "laundrypos_offline_lifecycle_total", "event", "activate"); got != 1 {
		t.Errorf("activate events: got %v, want 1", got)
	}
}

func counterValue(t *testing.T, reg *prometheus.Registry, name, label, value string) float64 {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}
	var total float64
	for _, f := range families {
		if f.GetName() != name {
			continue
		}
		for _, m := range f.GetMetric() {
			for _, lp := range m.GetLabel() {
				if lp.GetName() == label && lp.GetValue() == value {
					total += m.GetCounter().GetValue()
				}
			}
		}
	}
	return total
}

func TestWorker_RestoreServesStoredBucketWithoutNetwork(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := testContext()
	defer cancel()

	storage := offline.NewMemoryStorage()
	if err := offline.Install(ctx, storage, v("v1"), offline.MustAssetManifest(threeAssets...), originURL(t), newNetwork()); err != nil {
		t.Fatalf("seed install failed: %v", err)
	}

	offlineNet := httpmock.NewMockTransport()
	cfg := workerConfig(t, storage, offlineNet, "v1")
	cfg.Manifest = offline.AssetManifest{}
	w, stop := startWorker(t, cfg)
	defer stop()

	if err := w.Restore(ctx); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	if got := w.State(); got != offline.StateActive {
		t.Fatalf("state: got %s, want active", got)
	}

	res, src, err := w.Fetch(httptest.NewRequest(http.MethodGet, key("/"), nil))
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	res.Body.Close()
	if src != offline.FromCache {
		t.Errorf("source: got %q, want cache", src)
	}
	if n := offlineNet.GetTotalCallCount(); n != 0 {
		t.Errorf("network calls: got %d, want 0", n)
	}
}

func TestWorker_RestoreWithoutBucket(t *testing.T) {
	tests := []struct {
		name string
		seed func(ctx context.Context, s *offline.MemoryStorage)
	}{
		{"missing", func(context.Context, *offline.MemoryStorage) {}},
		{"empty", func(ctx context.Context, s *offline.MemoryStorage) { _, _ = s.Open(ctx, "laundrypos-v1") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer goleak.VerifyNone(t)

			ctx, cancel := testContext()
			defer cancel()

			storage := offline.NewMemoryStorage()
			tt.seed(ctx, storage)

			w, stop := startWorker(t, workerConfig(t, storage, newNetwork(), "v1"))
			defer stop()

			if err := w.Restore(ctx); !errors.Is(err, offline.ErrNoInstalledBucket) {
				t.Fatalf("expected ErrNoInstalledBucket, got %v", err)
			}
			if got := w.State(); got != offline.StateRedundant {
				t.Errorf("state: got %s, want redundant", got)
			}
		})
	}
}

// closeRecorder reports when the body it wraps is closed.
type closeRecorder struct {
	io.Reader
	closed chan struct{}
	once   sync.Once
}

func (c *closeRecorder) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}

func TestWorker_FetchClosesLateResponseAfterCancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	entered := make(chan struct{})
	release := make(chan struct{})
	body := &closeRecorder{Reader: strings.NewReader("late"), closed: make(chan struct{})}

	network := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		close(entered)
		<-release
		return &http.Response{StatusCode: http.StatusOK, Header: http.Header{}, Body: body, Request: req}, nil
	})

	w, stop := startWorker(t, workerConfig(t, offline.NewMemoryStorage(), network, "v1"))
	defer stop()

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, key("/api/sales"), nil).WithContext(ctx)

	errc := make(chan error, 1)
	go func() {
		res, _, err := w.Fetch(req)
		if res != nil {
			res.Body.Close()
		}
		errc <- err
	}()

	<-entered
	cancel()
	if err := <-errc; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	close(release)

	select {
	case <-body.closed:
	case <-time.After(2 * time.Second):
		t.Fatal("response body resolved after cancel was never closed")
	}
}
