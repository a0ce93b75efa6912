// Package httpapi exposes the shot store over a local HTTP API.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/verte-zerg/shottrack/internal/export"
	"github.com/verte-zerg/shottrack/internal/metrics"
	"github.com/verte-zerg/shottrack/internal/state"
)

// DefaultAddr is the listen address when none is configured.
const DefaultAddr = "127.0.0.1:8787"

const (
	maxBodyBytes    = 10 << 20
	shutdownTimeout = 5 * time.Second
)

// Options configures a Server. Zero values pick defaults.
type Options struct {
	Logger  *zap.Logger
	Metrics *metrics.Manager
	Quoting export.Quoting
	Now     func() time.Time
}

// Server routes HTTP requests to a State.
type Server struct {
	state   *state.State
	log     *zap.Logger
	metrics *metrics.Manager
	quoting export.Quoting
	now     func() time.Time
	mux     *http.ServeMux
}

// New builds the server and registers its routes.
func New(st *state.State, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.NewManager()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	s := &Server{
		state:   st,
		log:     opts.Logger,
		metrics: opts.Metrics,
		quoting: opts.Quoting,
		now:     opts.Now,
		mux:     http.NewServeMux(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.handle("GET /healthz", s.health)

	s.handle("GET /api/shots", s.listShots)
	s.handle("POST /api/shots", s.addShot)
	s.handle("DELETE /api/shots", s.clearShots)
	s.handle("DELETE /api/shots/{id}", s.deleteShot)

	s.handle("GET /api/parameters", s.listParameters)
	s.handle("POST /api/parameters", s.addParameter)
	s.handle("PUT /api/parameters/{id}", s.updateParameter)
	s.handle("DELETE /api/parameters/{id}", s.deleteParameter)

	s.handle("GET /api/stats", s.summary)
	s.handle("GET /api/export.csv", s.exportCSV)
	s.handle("GET /api/shots.csv", s.exportShotsCSV)
	s.handle("GET /api/backup", s.exportBackup)
	s.handle("POST /api/backup", s.importBackup)

	s.mux.Handle("GET /metrics", s.metrics.Handler())
}

func (s *Server) handle(pattern string, h http.HandlerFunc) {
	s.mux.Handle(pattern, s.instrument(pattern, h))
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	s.log.Info("serving", zap.String("addr", addr))

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Wrap(err, "listen")
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "shutdown")
	}
	return nil
}
