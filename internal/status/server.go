package status

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/rakaly/rakaly-uploader/internal/http/response"
)

// Server exposes the tracker on a local HTTP address.
type Server struct {
	router  *chi.Mux
	tracker *Tracker
	logger  *slog.Logger
	srv     *http.Server
	addr    string
}

// NewServer creates a status server. It does not listen until Start.
func NewServer(addr string, tracker *Tracker, logger *slog.Logger) *Server {
	s := &Server{
		router:  chi.NewRouter(),
		tracker: tracker,
		logger:  logger,
		addr:    addr,
	}

	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Recoverer)
	s.router.Use(s.logRequests)

	s.router.Get("/healthz", s.handleHealth)
	s.router.Get("/status", s.handleStatus)
	s.router.Get("/status/file", s.handleFile)
	s.router.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		response.NotFound(w, "not found", s.logger)
	})

	s.srv = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Start binds the listener and serves in the background. Bind failures are
// returned.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.addr = ln.Addr().String()

	go func() {
		s.logger.Info("status server starting", "addr", s.addr)
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("status server error", "error", err)
		}
	}()
	return nil
}

// Addr returns the bound address once started.
func (s *Server) Addr() string {
	return s.addr
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, "ok")
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	response.Success(w, s.tracker.Snapshot(), s.logger)
}

func (s *Server) handleFile(w http.ResponseWriter, r *http.Request) {
	fs, err := s.tracker.Lookup(r.URL.Query().Get("path"))
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.Success(w, fs, s.logger)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("status request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"elapsed", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
