package offline

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// State is a worker lifecycle state.
type State int32

const (
	StateUninstalled State = iota
	StateInstalling
	StateInstalled
	StateActivating
	StateActive
	StateRedundant
)

var stateNames = [...]string{
	StateUninstalled: "uninstalled",
	StateInstalling:  "installing",
	StateInstalled:   "installed",
	StateActivating:  "activating",
	StateActive:      "active",
	StateRedundant:   "redundant",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// EventKind identifies an event submitted to a worker.
type EventKind int

const (
	EventInstall EventKind = iota + 1
	EventActivate
	EventFetch
	EventSupersede
	EventRestore
)

func (k EventKind) String() string {
	switch k {
	case EventInstall:
		return "install"
	case EventActivate:
		return "activate"
	case EventFetch:
		return "fetch"
	case EventSupersede:
		return "supersede"
	case EventRestore:
		return "restore"
	}
	return fmt.Sprintf("EventKind(%d)", int(k))
}

// Pending is the completion token of a submitted event. It resolves once,
// when the event's work has settled.
type Pending struct {
	done chan struct{}
	once sync.Once

	mu        sync.Mutex
	abandoned bool
	res       *http.Response
	src       Source
	err       error
}

func newPending() *Pending {
	return &Pending{done: make(chan struct{})}
}

func (p *Pending) resolve(res *http.Response, src Source, err error) {
	p.once.Do(func() {
		p.mu.Lock()
		p.res, p.src, p.err = res, src, err
		abandoned := p.abandoned
		if abandoned {
			p.res = nil
		}
		p.mu.Unlock()
		close(p.done)
		if abandoned {
			closeBody(res)
		}
	})
}

// abandon records that nobody will read the result. A response that has
// already arrived, or arrives later, has its body closed.
func (p *Pending) abandon() {
	p.mu.Lock()
	p.abandoned = true
	res := p.res
	p.res = nil
	p.mu.Unlock()
	closeBody(res)
}

func closeBody(res *http.Response) {
	if res != nil && res.Body != nil {
		_ = res.Body.Close()
	}
}

// Done is closed when the event has settled.
func (p *Pending) Done() <-chan struct{} { return p.done }

// Wait blocks until the event settles or ctx ends, and returns the event's
// error.
func (p *Pending) Wait(ctx context.Context) error {
	select {
	case <-p.done:
		return p.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Result blocks until the event settles. Only fetch events carry a response.
func (p *Pending) Result() (*http.Response, Source, error) {
	<-p.done
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.res, p.src, p.err
}

// Config describes one worker generation.
type Config struct {
	Version  Version
	Manifest AssetManifest
	// Origin is the base URL assets are resolved against and the upstream
	// ServeHTTP forwards to.
	Origin  *url.URL
	Storage Storage
	// Network performs real requests. Defaults to http.DefaultTransport.
	Network http.RoundTripper
	Metrics *Metrics
	Logger  *zap.Logger
}

// Worker runs the install/activate/fetch lifecycle of one cache generation.
//
// All lifecycle state is owned by the scheduler loop started with Run.
// Events are handed to the loop through Submit and each returns a Pending
// that resolves when the event settles. Install and activate run one at a
// time; fetches run concurrently once the worker is active and pass
// straight through to the network before that.
type Worker struct {
	id  string
	cfg Config
	log *zap.Logger

	events  chan event
	settled chan settlement
	quit    chan struct{}
	stopped chan struct{}
	started atomic.Bool
	state   atomic.Int32

	// loop-owned
	bucket   Bucket
	inflight context.CancelFunc
	wg       sync.WaitGroup
}

type event struct {
	ctx     context.Context
	kind    EventKind
	req     *http.Request
	pending *Pending
}

type settlement struct {
	ev     event
	bucket Bucket
	err    error
}

// NewWorker validates cfg and returns an uninstalled worker.
func NewWorker(cfg Config) (*Worker, error) {
	if err := cfg.Version.Validate(); err != nil {
		return nil, err
	}
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

	id := uuid.NewString()
	return &Worker{
		id:  id,
		cfg: cfg,
		log: cfg.Logger.With(
			zap.String("worker_id", id),
			zap.String("bucket", cfg.Version.BucketName()),
		),
		events:  make(chan event),
		settled: make(chan settlement),
		quit:    make(chan struct{}),
		stopped: make(chan struct{}),
	}, nil
}

// ID returns the worker's unique instance id.
func (w *Worker) ID() string { return w.id }

// Version returns the cache generation this worker owns.
func (w *Worker) Version() Version { return w.cfg.Version }

// State returns the current lifecycle state.
func (w *Worker) State() State { return State(w.state.Load()) }

// Stopped is closed after Run has returned.
func (w *Worker) Stopped() <-chan struct{} { return w.stopped }

// Run is the scheduler loop. It returns when ctx ends, after every
// in-flight event has finished.
func (w *Worker) Run(ctx context.Context) error {
	if !w.started.CompareAndSwap(false, true) {
		return errors.New("offline: worker already running")
	}
	defer close(w.stopped)

	w.log.Debug("worker scheduler started")
	for {
		select {
		case <-ctx.Done():
			close(w.quit)
			if w.inflight != nil {
				w.inflight()
				w.inflight = nil
			}
			w.wg.Wait()
			w.log.Debug("worker scheduler stopped")
			return ctx.Err()
		case ev := <-w.events:
			w.dispatch(ev)
		case s := <-w.settled:
			w.settle(s)
		}
	}
}

// Submit hands an event to the scheduler loop. It blocks until the loop
// accepts the event, the loop stops, or ctx ends; the returned Pending
// always resolves.
func (w *Worker) Submit(ctx context.Context, kind EventKind, req *http.Request) *Pending {
	p := newPending()
	if kind == EventFetch && req == nil {
		p.resolve(nil, "", errors.New("offline: fetch event requires a request"))
		return p
	}

	select {
	case w.events <- event{ctx: ctx, kind: kind, req: req, pending: p}:
	case <-w.quit:
		p.resolve(nil, "", ErrStopped)
	case <-ctx.Done():
		p.resolve(nil, "", ctx.Err())
	}
	return p
}

// Install runs the install event and waits for it to settle.
func (w *Worker) Install(ctx context.Context) error {
	return w.Submit(ctx, EventInstall, nil).Wait(ctx)
}

// Activate runs the activate event and waits for it to settle.
func (w *Worker) Activate(ctx context.Context) error {
	return w.Submit(ctx, EventActivate, nil).Wait(ctx)
}

// Restore activates the worker over a bucket an earlier run installed,
// without fetching anything. It fails with ErrNoInstalledBucket when the
// version's bucket is absent or empty.
func (w *Worker) Restore(ctx context.Context) error {
	return w.Submit(ctx, EventRestore, nil).Wait(ctx)
}

// Supersede marks the worker redundant, cancelling any lifecycle work in
// flight.
func (w *Worker) Supersede(ctx context.Context) error {
	return w.Submit(ctx, EventSupersede, nil).Wait(ctx)
}

// Fetch runs a fetch event for req and reports where the response came from.
func (w *Worker) Fetch(req *http.Request) (*http.Response, Source, error) {
	ctx := req.Context()
	p := w.Submit(ctx, EventFetch, req)
	if err := p.Wait(ctx); err != nil {
		if ctx.Err() != nil {
			p.abandon()
		}
		return nil, "", err
	}
	return p.Result()
}

// RoundTrip implements http.RoundTripper, so an http.Client built on the
// worker gets cache-first behaviour for every outgoing request.
func (w *Worker) RoundTrip(req *http.Request) (*http.Response, error) {
	res, _, err := w.Fetch(req)
	return res, err
}

func (w *Worker) dispatch(ev event) {
	switch ev.kind {
	case EventInstall:
		if err := w.expect(ev.kind, StateUninstalled); err != nil {
			ev.pending.resolve(nil, "", err)
			return
		}
		w.transition(StateInstalling)
		w.spawnLifecycle(ev, func(ctx context.Context) (Bucket, error) {
			return nil, Install(ctx, w.cfg.Storage, w.cfg.Version, w.cfg.Manifest, w.cfg.Origin, w.cfg.Network)
		})

	case EventActivate:
		if err := w.expect(ev.kind, StateInstalled); err != nil {
			ev.pending.resolve(nil, "", err)
			return
		}
		w.transition(StateActivating)
		w.spawnLifecycle(ev, w.activate)

	case EventRestore:
		if err := w.expect(ev.kind, StateUninstalled); err != nil {
			ev.pending.resolve(nil, "", err)
			return
		}
		w.transition(StateActivating)
		w.spawnLifecycle(ev, w.restore)

	case EventFetch:
		var bucket Bucket
		if w.State() == StateActive {
			bucket = w.bucket
		}
		w.wg.Add(1)
		go func() {
			defer w.wg.Done()
			var (
				res *http.Response
				src = FromNetwork
				err error
			)
			if bucket != nil {
				res, src, err = Intercept(ev.ctx, bucket, w.cfg.Network, ev.req)
			} else {
				res, err = w.cfg.Network.RoundTrip(ev.req)
			}
			w.cfg.Metrics.observeFetch(src, err)
			ev.pending.resolve(res, src, err)
		}()

	case EventSupersede:
		if w.State() != StateRedundant {
			if w.inflight != nil {
				w.inflight()
			}
			w.bucket = nil
			w.transition(StateRedundant)
		}
		ev.pending.resolve(nil, "", nil)

	default:
		ev.pending.resolve(nil, "", fmt.Errorf("offline: unknown event %s", ev.kind))
	}
}

func (w *Worker) activate(ctx context.Context) (Bucket, error) {
	deleted, err := Activate(ctx, w.cfg.Storage, w.cfg.Version)
	if err != nil {
		return nil, err
	}
	if len(deleted) > 0 {
		w.log.Info("deleted stale cache buckets", zap.Strings("deleted", deleted))
	}

	b, err := w.cfg.Storage.Open(ctx, w.cfg.Version.BucketName())
	if err != nil {
		return nil, fmt.Errorf("%w: open bucket: %w", ErrActivateFailed, err)
	}
	return b, nil
}

func (w *Worker) restore(ctx context.Context) (Bucket, error) {
	name := w.cfg.Version.BucketName()
	ok, err := w.cfg.Storage.Has(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrActivateFailed, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoInstalledBucket, name)
	}
	b, err := w.cfg.Storage.Open(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("%w: open bucket: %w", ErrActivateFailed, err)
	}
	keys, err := b.Keys(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrActivateFailed, err)
	}
	if len(keys) == 0 {
		return nil, fmt.Errorf("%w: %s is empty", ErrNoInstalledBucket, name)
	}
	return w.activate(ctx)
}

func (w *Worker) spawnLifecycle(ev event, work func(context.Context) (Bucket, error)) {
	ctx, cancel := context.WithCancel(ev.ctx)
	w.inflight = cancel

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		b, err := work(ctx)
		select {
		case w.settled <- settlement{ev: ev, bucket: b, err: err}:
		case <-w.quit:
			ev.pending.resolve(nil, "", ErrStopped)
		}
	}()
}

func (w *Worker) settle(s settlement) {
	if w.inflight != nil {
		w.inflight()
		w.inflight = nil
	}

	err := s.err
	if w.State() == StateRedundant {
		if err == nil {
			err = ErrRedundant
		} else {
			err = fmt.Errorf("%w: %w", ErrRedundant, err)
		}
		w.cfg.Metrics.observeLifecycle(s.ev.kind, err)
		s.ev.pending.resolve(nil, "", err)
		return
	}

	switch s.ev.kind {
	case EventInstall:
		if err != nil {
			w.log.Error("install failed", zap.Error(err))
			w.transition(StateRedundant)
		} else {
			w.transition(StateInstalled)
		}
	case EventActivate, EventRestore:
		if err != nil {
			w.log.Error(s.ev.kind.String()+" failed", zap.Error(err))
			w.transition(StateRedundant)
		} else {
			w.bucket = s.bucket
			w.transition(StateActive)
		}
	}

	w.cfg.Metrics.observeLifecycle(s.ev.kind, err)
	s.ev.pending.resolve(nil, "", err)
}

func (w *Worker) expect(kind EventKind, want State) error {
	cur := w.State()
	switch {
	case cur == want:
		return nil
	case cur == StateRedundant:
		return ErrRedundant
	default:
		return fmt.Errorf("%w: %s while %s", ErrInvalidTransition, kind, cur)
	}
}

func (w *Worker) transition(next State) {
	prev := State(w.state.Swap(int32(next)))
	w.log.Info("worker state changed",
		zap.Stringer("from", prev),
		zap.Stringer("to", next))
}
