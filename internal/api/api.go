// Package api implements the HTTP API server for diffgate.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/sprite-ai/diffgate/internal/config"
	"github.com/sprite-ai/diffgate/internal/logging"
)

// shutdownTimeout bounds how long in-flight checks get after a stop signal.
const shutdownTimeout = 10 * time.Second

// Server is the diffgate HTTP API server.
type Server struct {
	addr   string
	mux    *http.ServeMux
	server *http.Server
	log    *log.Logger

	// Version is stamped into every report.
	Version string
	// Defaults are the options a request starts from.
	Defaults config.Config
	// Getenv reads the environment for CI detection; defaults to os.Getenv.
	Getenv func(string) string
	// AllowExtensions lets requests run checks_dir and settings.extensions
	// executables from the requested repository.
	AllowExtensions bool
}

// New creates a new API server. A nil defaults uses config.Default.
func New(addr string, defaults *config.Config, logger *log.Logger) *Server {
	if defaults == nil {
		defaults = config.Default()
	}
	if logger == nil {
		logger = logging.Discard()
	}
	s := &Server{
		addr:     addr,
		log:      logger,
		Defaults: *defaults,
		Getenv:   os.Getenv,
	}
	s.mux = http.NewServeMux()
	s.registerRoutes()
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}
	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("POST /api/check", s.handleCheck)
	s.mux.HandleFunc("GET /api/ws", s.handleWebSocket)
}

// Serve runs the server until ctx is cancelled, then shuts it down
// gracefully.
func (s *Server) Serve(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.log.Info("API server listening", "addr", s.addr)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		s.log.Info("shutting down API server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return s.server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// Handler returns the HTTP handler for testing.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// writeJSON writes a JSON response.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		s.log.Error("json encode", "err", err)
	}
}

// writeError writes a JSON error response.
func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

// readJSON decodes a JSON request body into v.
func readJSON(r *http.Request, v any) error {
	if r.Body == nil {
		return fmt.Errorf("empty request body")
	}
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
