// internal/app/proxy/server.go
package proxy

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	uierrors "github.com/dalemusser/laundrypos/internal/app/features/errors"
	"github.com/dalemusser/laundrypos/internal/app/system/offline"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Proxy-owned routes live under this prefix so they never shadow the origin.
const (
	MetricsPath = "/_proxy/metrics"
	StatusPath  = "/_proxy/status"
)

// Server runs a counter terminal's offline layer: a registration against
// the origin, refreshed from the origin's published cache generation.
type Server struct {
	cfg     Config
	origin  *url.URL
	client  *http.Client
	storage offline.Storage
	reg     *offline.Registration
	gather  prometheus.Gatherer
	log     *zap.Logger
}

// New builds a server over storage. network performs real requests and
// defaults to http.DefaultTransport.
func New(cfg Config, storage offline.Storage, network http.RoundTripper, logger *zap.Logger) (*Server, error) {
	origin, err := cfg.Validate()
	if err != nil {
		return nil, err
	}
	if network == nil {
		network = http.DefaultTransport
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	promReg := prometheus.NewRegistry()
	metrics, err := offline.NewMetrics(promReg)
	if err != nil {
		return nil, err
	}

	reg, err := offline.NewRegistration(offline.RegistrationConfig{
		Origin:  origin,
		Storage: storage,
		Network: network,
		Metrics: metrics,
		Logger:  logger,
	})
	if err != nil {
		return nil, err
	}

	return &Server{
		cfg:     cfg,
		origin:  origin,
		client:  &http.Client{Transport: network, Timeout: 30 * time.Second},
		storage: storage,
		reg:     reg,
		gather:  promReg,
		log:     logger,
	}, nil
}

// Registration exposes the underlying registration.
func (s *Server) Registration() *offline.Registration { return s.reg }

// Refresh reads the origin's cache generation and registers it. A
// generation that is already active is left alone.
func (s *Server) Refresh(ctx context.Context) error {
	version, manifest, err := FetchAssets(ctx, s.client, s.origin)
	if err != nil {
		return err
	}
	_, err = s.reg.Register(ctx, version, manifest)
	return err
}

// Restore activates the generation left in storage by a previous run, so
// the terminal serves its shell before the origin is reachable. It does
// nothing when storage holds no bucket and refuses to guess when it holds
// more than one.
func (s *Server) Restore(ctx context.Context) error {
	names, err := s.storage.Names(ctx)
	if err != nil {
		return fmt.Errorf("list buckets: %w", err)
	}

	var versions []offline.Version
	for _, name := range names {
		if v, err := offline.ParseVersion(name); err == nil {
			versions = append(versions, v)
		}
	}

	switch len(versions) {
	case 0:
		s.log.Info("no stored generation to restore")
		return nil
	case 1:
		_, err := s.reg.Restore(ctx, versions[0])
		return err
	default:
		return fmt.Errorf("%d stored generations, expected one: %v", len(versions), names)
	}
}

type statusResponse struct {
	Origin   string `json:"origin"`
	Active   bool   `json:"active"`
	Bucket   string `json:"bucket,omitempty"`
	State    string `json:"state,omitempty"`
	WorkerID string `json:"worker_id,omitempty"`
}

// Handler routes proxy endpoints and forwards everything else through
// the registration.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Handle(MetricsPath, promhttp.HandlerFor(s.gather, promhttp.HandlerOpts{}))
	r.Get(StatusPath, s.serveStatus)
	r.NotFound(s.reg.ServeHTTP)
	r.MethodNotAllowed(s.reg.ServeHTTP)
	return r
}

func (s *Server) serveStatus(w http.ResponseWriter, r *http.Request) {
	resp := statusResponse{Origin: s.origin.String()}
	if wk := s.reg.Active(); wk != nil {
		resp.Active = true
		resp.Bucket = wk.Version().BucketName()
		resp.State = wk.State().String()
		resp.WorkerID = wk.ID()
	}
	uierrors.WriteJSON(w, http.StatusOK, resp)
}

// Run serves until ctx ends. A generation left in storage is restored
// before the listener opens. The first refresh failing is logged, not
// fatal: with nothing active every request passes through to the origin.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Listen)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	if err := s.Restore(ctx); err != nil {
		s.log.Warn("restore from storage failed; waiting for origin", zap.Error(err))
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.log.Info("counter proxy listening",
			zap.String("addr", ln.Addr().String()),
			zap.String("origin", s.origin.String()))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		s.refreshLoop(gctx)
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		timeout := s.cfg.ShutdownTimeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		sctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		err := srv.Shutdown(sctx)
		s.reg.Close()
		s.log.Info("counter proxy stopped")
		return err
	})

	return g.Wait()
}

func (s *Server) refreshLoop(ctx context.Context) {
	s.refreshOnce(ctx)
	if s.cfg.Refresh <= 0 {
		return
	}

	ticker := time.NewTicker(s.cfg.Refresh)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.refreshOnce(ctx)
		}
	}
}

func (s *Server) refreshOnce(ctx context.Context) {
	if err := s.Refresh(ctx); err != nil {
		if ctx.Err() != nil {
			return
		}
		s.log.Warn("refresh from origin failed; keeping current generation", zap.Error(err))
	}
}
