package offline

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"

	"go.uber.org/zap"
)

// RegistrationConfig holds what every worker generation of a scope shares.
type RegistrationConfig struct {
	Origin  *url.URL
	Storage Storage
	Network http.RoundTripper
	Metrics *Metrics
	Logger  *zap.Logger
}

// Registration owns the active worker of one scope (an origin) and swaps
// in newer generations.
type Registration struct {
	cfg RegistrationConfig
	log *zap.Logger

	registerMu sync.Mutex // serializes Register calls

	mu     sync.RWMutex
	active *registered
}

type registered struct {
	w      *Worker
	cancel context.CancelFunc
}

// NewRegistration returns a registration with no active worker. Until
// Register succeeds every request passes through to the network.
func NewRegistration(cfg RegistrationConfig) (*Registration, error) {
	if cfg.Storage == nil {
		return nil, errors.New("offline: storage is required")
	}
	if cfg.Origin == nil || !cfg.Origin.IsAbs() {
		return nil, errors.New("offline: origin must be an absolute url")
	}
	if cfg.Network == nil {
		cfg.Network = http.DefaultTransport
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Registration{
		cfg: cfg,
		log: cfg.Logger.With(zap.String("scope", cfg.Origin.String())),
	}, nil
}

// Register installs and activates a worker for version. If version is
// already active it returns the active worker unchanged.
//
// When install fails the previously active worker keeps serving. Once the
// new worker is installed the previous one is superseded, and the new one
// activates, deleting the previous generation's bucket.
func (r *Registration) Register(ctx context.Context, version Version, manifest AssetManifest) (*Worker, error) {
	r.registerMu.Lock()
	defer r.registerMu.Unlock()

	prev := r.current()
	if prev != nil && prev.w.Version() == version {
		return prev.w, nil
	}

	w, err := NewWorker(Config{
		Version:  version,
		Manifest: manifest,
		Origin:   r.cfg.Origin,
		Storage:  r.cfg.Storage,
		Network:  r.cfg.Network,
		Metrics:  r.cfg.Metrics,
		Logger:   r.cfg.Logger,
	})
	if err != nil {
		return nil, err
	}
	next := start(w)

	if err := w.Install(ctx); err != nil {
		next.stop()
		r.log.Error("worker install failed; keeping previous generation",
			zap.String("version", version.String()),
			zap.Error(err))
		return nil, err
	}

	if prev != nil {
		if err := prev.w.Supersede(ctx); err != nil {
			r.log.Warn("supersede previous worker", zap.Error(err))
		}
	}

	if err := w.Activate(ctx); err != nil {
		next.stop()
		if prev != nil {
			r.setActive(nil)
			prev.stop()
		}
		return nil, err
	}

	r.setActive(next)
	if prev != nil {
		prev.stop()
	}

	r.log.Info("worker registered",
		zap.String("worker_id", w.ID()),
		zap.String("version", version.String()),
		zap.Int("assets", manifest.Len()))
	return w, nil
}

// Restore activates a worker over the bucket of version that is already
// in storage, fetching nothing. It is for starting with the generation an
// earlier run installed; a later Register of a newer version replaces it.
// Restore only applies while nothing is active.
func (r *Registration) Restore(ctx context.Context, version Version) (*Worker, error) {
	r.registerMu.Lock()
	defer r.registerMu.Unlock()

	if prev := r.current(); prev != nil {
		if prev.w.Version() == version {
			return prev.w, nil
		}
		return nil, fmt.Errorf("%w: restore %s while %s is active",
			ErrInvalidTransition, version, prev.w.Version())
	}

	w, err := NewWorker(Config{
		Version: version,
		Origin:  r.cfg.Origin,
		Storage: r.cfg.Storage,
		Network: r.cfg.Network,
		Metrics: r.cfg.Metrics,
		Logger:  r.cfg.Logger,
	})
	if err != nil {
		return nil, err
	}
	next := start(w)

	if err := w.Restore(ctx); err != nil {
		next.stop()
		return nil, err
	}
	r.setActive(next)

	r.log.Info("worker restored from storage",
		zap.String("worker_id", w.ID()),
		zap.String("version", version.String()))
	return w, nil
}

// Active returns the active worker, or nil.
func (r *Registration) Active() *Worker {
	if a := r.current(); a != nil {
		return a.w
	}
	return nil
}

// RoundTrip sends req through the active worker, or straight to the
// network when none is active.
func (r *Registration) RoundTrip(req *http.Request) (*http.Response, error) {
	res, _, err := r.fetch(req)
	return res, err
}

// ServeHTTP proxies to the origin through the active worker.
func (r *Registration) ServeHTTP(rw http.ResponseWriter, req *http.Request) {
	res, src, err := r.fetch(outboundRequest(req, r.cfg.Origin))
	writeProxied(rw, res, src, err, r.log)
}

// fetch answers req through the active worker. A worker is only stopped
// after it has been swapped out, so ErrStopped from a worker that is no
// longer active means the request raced a Register or Close; it is sent
// again through whatever is active now. ErrStopped is returned before any
// work starts, so the request body is untouched.
func (r *Registration) fetch(req *http.Request) (*http.Response, Source, error) {
	for {
		w := r.Active()
		if w == nil {
			res, err := r.cfg.Network.RoundTrip(req)
			return res, FromNetwork, err
		}
		res, src, err := w.Fetch(req)
		if errors.Is(err, ErrStopped) && r.Active() != w {
			continue
		}
		return res, src, err
	}
}

// Close stops the active worker's scheduler.
func (r *Registration) Close() {
	r.registerMu.Lock()
	defer r.registerMu.Unlock()

	if a := r.current(); a != nil {
		r.setActive(nil)
		a.stop()
	}
}

func (r *Registration) current() *registered {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.active
}

func (r *Registration) setActive(a *registered) {
	r.mu.Lock()
	r.active = a
	r.mu.Unlock()
}

func start(w *Worker) *registered {
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = w.Run(ctx) }()
	return &registered{w: w, cancel: cancel}
}

func (a *registered) stop() {
	a.cancel()
	<-a.w.Stopped()
}
