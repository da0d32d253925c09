// Package server exposes the progress of a running migration over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/koustreak/dbferry/internal/errs"
	"github.com/koustreak/dbferry/internal/logger"
	"github.com/koustreak/dbferry/internal/migrate"
)

// Tracker is the read side of a migration's progress.
type Tracker interface {
	Snapshot() migrate.Status
	Table(name string) (migrate.TableStatus, bool)
}

type Server struct {
	tracker Tracker
	log     *logger.Logger
	http    *http.Server
}

func New(addr string, tracker Tracker, log *logger.Logger) *Server {
	if log == nil {
		log = logger.Discard()
	}
	s := &Server{tracker: tracker, log: log.Component("status")}
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLog)

	r.Get("/healthz", s.handleHealth)
	r.Get("/status", s.handleStatus)
	r.Get("/status/tables/{table}", s.handleTable)
	return r
}

// Start listens on the configured address and serves in the background.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		return errs.Wrap(errs.ErrKindConnectionFailed, "failed to listen on "+s.http.Addr, err)
	}
	s.log.Infof("status server listening on %s", ln.Addr())

	go func() {
		if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.ErrorWith("status server stopped", err, nil)
		}
	}()
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.tracker.Snapshot())
}

func (s *Server) handleTable(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "table")
	st, ok := s.tracker.Table(name)
	if !ok {
		logger.FromContext(r.Context()).With().Str("table", name).Logger().Warn("status requested for unknown table")
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown table " + name})
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) requestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		reqID := middleware.GetReqID(r.Context())
		ctx := s.log.With().Str("request_id", reqID).Logger().WithContext(r.Context())
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r.WithContext(ctx))

		s.log.HTTPEvent().
			Str("request_id", reqID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
