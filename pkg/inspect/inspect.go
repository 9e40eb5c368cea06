// Package inspect serves a registry over HTTP for debugging.
//
// Routes:
//
//	GET  /stores                          names of constructed stores
//	GET  /stores/{name}                   JSON snapshot of a store
//	POST /stores/{name}/actions/{action}  dispatch an action
//	GET  /ws                              stream of state changes
//	GET  /metrics                         Prometheus metrics
//	GET  /healthz                         liveness
//
// Action responses are {"result": ...} on success and
// {"error": ..., "code": ...} on failure.
package inspect

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/vango-dev/statekit/pkg/auth"
	"github.com/vango-dev/statekit/pkg/metrics"
	"github.com/vango-dev/statekit/pkg/store"
)

const tracerName = "github.com/vango-dev/statekit/pkg/inspect"

// MaxPayloadBytes bounds action request bodies.
const MaxPayloadBytes = 1 << 20

// Config configures a Server.
type Config struct {
	// Registry is the registry to inspect. Required.
	Registry *store.Registry

	// Metrics records request counts and backs /metrics.
	// If nil, /metrics serves the default Prometheus registry.
	Metrics *metrics.Metrics

	// Logger defaults to the registry logger.
	Logger *slog.Logger

	// RateLimit limits action requests per second. Zero disables limiting.
	RateLimit rate.Limit

	// Burst is the limiter burst size (default: 1).
	Burst int

	// CheckOrigin validates WebSocket origins.
	// Default: same-origin requests only.
	CheckOrigin func(r *http.Request) bool

	// StreamBuffer is the number of changes queued per WebSocket client
	// before changes are dropped (default: 64).
	StreamBuffer int
}

// Server is the inspector.
type Server struct {
	registry *store.Registry
	metrics  *metrics.Metrics
	logger   *slog.Logger
	tracer   trace.Tracer
	limiter  *rate.Limiter
	upgrader websocket.Upgrader
	buffer   int
	router   chi.Router
}

// New creates an inspector for cfg.Registry.
func New(cfg Config) *Server {
	if cfg.Registry == nil {
		panic("inspect: Config.Registry is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = cfg.Registry.Logger()
	}
	if cfg.StreamBuffer <= 0 {
		cfg.StreamBuffer = 64
	}

	s := &Server{
		registry: cfg.Registry,
		metrics:  cfg.Metrics,
		logger:   cfg.Logger.With("component", "inspect"),
		tracer:   otel.Tracer(tracerName),
		buffer:   cfg.StreamBuffer,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     cfg.CheckOrigin,
		},
	}
	if cfg.RateLimit > 0 {
		burst := max(cfg.Burst, 1)
		s.limiter = rate.NewLimiter(cfg.RateLimit, burst)
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.observe)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		io.WriteString(w, "ok")
	})
	r.Handle("/metrics", s.metricsHandler())
	r.Get("/ws", s.handleStream)

	r.Route("/stores", func(r chi.Router) {
		r.Get("/", s.handleList)
		r.Get("/{name}", s.handleSnapshot)
		r.With(s.limit).Post("/{name}/actions/{action}", s.handleAction)
	})

	s.router = r
	return s
}

// Handler returns the inspector's HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is done, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("inspector listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) metricsHandler() http.Handler {
	if g := s.metrics.Gatherer(); g != nil {
		return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
	}
	return promhttp.Handler()
}

// observe traces every request and counts it by route pattern.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := s.tracer.Start(r.Context(), "inspect "+r.Method,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.method", r.Method),
				attribute.String("http.target", r.URL.Path),
			),
		)
		defer span.End()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r.WithContext(ctx))

		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		span.SetName("inspect " + r.Method + " " + route)
		span.SetAttributes(attribute.Int("http.status_code", status))
		s.metrics.InspectRequest(route, status)
	})
}

func (s *Server) limit(next http.Handler) http.Handler {
	if s.limiter == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow() {
			writeError(w, http.StatusTooManyRequests, errors.New("rate limit exceeded"), "")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleList(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"stores":  s.registry.Names(),
		"defined": s.registry.Defined(),
	})
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := s.registry.Snapshot(chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, statusFor(err), err, "")
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	action := chi.URLParam(r, "action")

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxPayloadBytes))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, err, "")
		return
	}

	result, err := s.registry.Dispatch(r.Context(), name, action, body)
	if err != nil {
		code := ""
		var ae *auth.Error
		if errors.As(err, &ae) {
			code = ae.Code
		}
		s.logger.Debug("action rejected", "store", name, "action", action, "error", err)
		writeError(w, statusFor(err), err, code)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"result": result})
}

// statusFor maps dispatch errors to HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, store.ErrUnknownStore), errors.Is(err, store.ErrUnknownAction):
		return http.StatusNotFound
	case errors.Is(err, store.ErrBadPayload):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrRegistryClosed):
		return http.StatusServiceUnavailable
	default:
		return http.StatusUnprocessableEntity
	}
}

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func writeError(w http.ResponseWriter, status int, err error, code string) {
	writeJSON(w, status, errorBody{Error: err.Error(), Code: code})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
