// Package web serves the demo page, the stats endpoint and a read-through
// resource proxy on top of a swapicache.Client.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/iagooteles/swapicache"
)

const shutdownTimeout = 10 * time.Second

// Runner is the demo pass triggered by GET /api.
type Runner interface {
	Run(ctx context.Context) error
	Runs() int64
}

// Server wires the HTTP surface.
type Server struct {
	client *swapicache.Client
	runner Runner
	log    zerolog.Logger
	addr   string
	router chi.Router

	mu         sync.Mutex
	closing    bool
	runs       sync.WaitGroup
	runCtx     context.Context
	cancelRuns context.CancelFunc
}

// NewServer builds the router. addr is only used by Run.
func NewServer(addr string, client *swapicache.Client, runner Runner, logger zerolog.Logger) *Server {
	runCtx, cancel := context.WithCancel(context.Background())
	s := &Server{
		client:     client,
		runner:     runner,
		log:        logger,
		addr:       addr,
		runCtx:     runCtx,
		cancelRuns: cancel,
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger(s.log))
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleIndex)
	r.Get("/index.html", s.handleIndex)
	r.Get("/api", s.handleAPI)
	r.Get("/stats", s.handleStats)
	r.Get("/resource/*", s.handleResource)
	if registry := s.client.Metrics().Registry(); registry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	r.NotFound(notFound)
	r.MethodNotAllowed(notFound)
	return r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Run listens on the configured address until ctx is cancelled, then shuts
// down gracefully, cancels background runs and waits for them to return.
func (s *Server) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              s.addr,
		Handler:           s,
		ReadHeaderTimeout: 5 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- httpServer.ListenAndServe()
	}()

	var err error
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		if shutdownErr := httpServer.Shutdown(shutdownCtx); shutdownErr != nil {
			err = fmt.Errorf("shutdown http server: %w", shutdownErr)
		}
		cancel()
	case serveErr := <-serveErr:
		if !errors.Is(serveErr, http.ErrServerClosed) {
			err = fmt.Errorf("serve http: %w", serveErr)
		}
	}

	s.Close()
	return err
}

// Close stops accepting demo runs, cancels the running ones and waits for
// them to return.
func (s *Server) Close() {
	s.mu.Lock()
	s.closing = true
	s.mu.Unlock()

	s.cancelRuns()
	s.Wait()
}

// Wait blocks until every background run started by GET /api has returned.
func (s *Server) Wait() {
	s.runs.Wait()
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTemplate.Execute(w, s.pageData()); err != nil {
		s.log.Error().Err(err).Msg("Could not render index page")
	}
}

func (s *Server) handleAPI(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	if s.closing {
		s.mu.Unlock()
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("Server is shutting down"))
		return
	}
	s.runs.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.runs.Done()
		if err := s.runner.Run(s.runCtx); err != nil {
			s.log.Warn().Err(err).Msg("Demo run finished with errors")
		}
	}()

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("Check server console for results"))
}

type statsResponse struct {
	APICalls          int64 `json:"api_calls"`
	RequestsCompleted int64 `json:"requests_completed"`
	CacheSize         int   `json:"cache_size"`
	DataSize          int64 `json:"data_size"`
	Errors            int64 `json:"errors"`
	Debug             bool  `json:"debug"`
	Timeout           int64 `json:"timeout"`
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	snapshot := s.client.Stats()
	writeJSON(w, http.StatusOK, statsResponse{
		APICalls:          s.runner.Runs(),
		RequestsCompleted: snapshot.RequestsCompleted,
		CacheSize:         snapshot.CacheSize,
		DataSize:          snapshot.CumulativeBytes,
		Errors:            snapshot.ErrorsObserved,
		Debug:             s.client.DebugEnabled(),
		Timeout:           s.client.Timeout().Milliseconds(),
	})
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
	Key   string `json:"key"`
}

func (s *Server) handleResource(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if r.URL.RawQuery != "" {
		key += "?" + r.URL.RawQuery
	}

	cacheStatus := "MISS"
	if _, ok := s.client.Cached(key); ok {
		cacheStatus = "HIT"
	}

	doc, err := s.client.Fetch(r.Context(), key)
	if err != nil {
		status := statusFor(err)
		s.log.Debug().Err(err).Str("key", key).Int("status", status).Msg("Resource fetch failed")
		writeJSON(w, status, errorResponse{Error: err.Error(), Kind: string(swapicache.KindOf(err)), Key: key})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Cache", cacheStatus)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc.Bytes())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, swapicache.ErrEmptyKey), errors.Is(err, swapicache.ErrInvalidKey):
		return http.StatusBadRequest
	case swapicache.IsNotFound(err):
		return http.StatusNotFound
	case errors.Is(err, swapicache.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

func notFound(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	_, _ = w.Write([]byte("Not Found"))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
