package metrics

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/m3rciful/celebguess/core/buildinfo"
	"github.com/m3rciful/celebguess/core/logger"
)

const timeout = 10 * time.Second

// HealthFunc reports whether a dependency is usable. Nil means healthy.
type HealthFunc func(ctx context.Context) error

// Server serves /metrics, /healthz and /version.
type Server struct {
	srv    *http.Server
	checks map[string]HealthFunc
}

// NewServer builds the ops server. checks are run by /healthz in no particular order.
func NewServer(listen string, m *Metrics, checks map[string]HealthFunc) *Server {
	s := &Server{checks: checks}

	mux := httprouter.New()
	mux.PanicHandler = func(w http.ResponseWriter, r *http.Request, v any) {
		logger.OPS.Error("panic recovered",
			slog.String("event", "ops.panic"),
			slog.String("path", r.URL.Path),
			slog.Any("err", v),
		)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
	mux.Handler(http.MethodGet, "/metrics", promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{
		ErrorLog: slog.NewLogLogger(logger.OPS.Handler(), slog.LevelError),
	}))
	mux.GET("/healthz", s.serveHealth)
	mux.GET("/version", serveVersion)

	s.srv = &http.Server{
		Addr:              listen,
		Handler:           mux,
		IdleTimeout:       time.Minute,
		ReadTimeout:       timeout,
		ReadHeaderTimeout: timeout,
		WriteTimeout:      timeout,
	}
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

// Run listens until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return fmt.Errorf("ops listen: %w", err)
	}
	logger.OPS.Info("ops server listening",
		slog.String("event", "ops.listen"),
		slog.String("listen", ln.Addr().String()),
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("ops serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("ops shutdown: %w", err)
	}
	logger.OPS.Info("ops server stopped", slog.String("event", "ops.stop"))
	return nil
}

func (s *Server) serveHealth(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	for name, check := range s.checks {
		if check == nil {
			continue
		}
		if err := check(ctx); err != nil {
			logger.OPS.Warn("health check failed",
				slog.String("event", "ops.health"),
				slog.String("check", name),
				slog.String("err", err.Error()),
			)
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = io.WriteString(w, name+": unavailable\n")
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, "ok\n")
}

func serveVersion(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "celebguess %s\n", buildinfo.Summary())
}
