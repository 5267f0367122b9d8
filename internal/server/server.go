// Package server relays analyses to browsers over WebSocket and serves the
// stored reports over a small JSON API.
package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/websocket"

	"github.com/acheong08/depguardian/internal/channel"
	"github.com/acheong08/depguardian/internal/errs"
	"github.com/acheong08/depguardian/internal/report"
	"github.com/acheong08/depguardian/internal/store"
)

// Server holds the shared backend client and report store
type Server struct {
	client   *channel.Client
	store    store.Store
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

// New creates a new server
func New(client *channel.Client, s store.Store, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		client: client,
		store:  s,
		logger: logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// Browser views are served from other origins during development
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// Handler returns the HTTP routes
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /ws", s.serveWs)
	mux.HandleFunc("GET /api/reports", s.handleListReports)
	mux.HandleFunc("GET /api/reports/{id}", s.handleGetReport)
	mux.HandleFunc("GET /api/reports/{id}/packages/{index}", s.handleGetPackage)
	mux.HandleFunc("DELETE /api/reports/{id}", s.handleDeleteReport)
	return mux
}

func (s *Server) serveWs(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("failed to upgrade connection", "error", err)
		return
	}

	session := newSession(conn, s)

	// Start goroutines for reading and writing
	go session.writePump()
	go session.readPump()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "busy": s.client.Busy()})
}

func (s *Server) handleListReports(w http.ResponseWriter, r *http.Request) {
	reports, err := s.store.List(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report.SummarizeAll(reports))
}

func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	q, err := report.CompileQuery(r.URL.Query().Get("where"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	stored, err := store.Find(r.Context(), s.store, r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	filter := report.Filter{Risk: r.URL.Query().Get("risk"), Query: r.URL.Query().Get("q")}
	view, err := report.Open(stored, filter, q)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleGetPackage(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		s.writeError(w, errs.Validation("server.GetPackage", fmt.Errorf("invalid package index %q", r.PathValue("index"))))
		return
	}

	stored, err := store.Find(r.Context(), s.store, r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	detail, err := report.PackageAt(stored, index)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (s *Server) handleDeleteReport(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Remove(r.Context(), r.PathValue("id")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err)
	}
	writeJSON(w, status, ErrorPayload{Message: err.Error(), Code: string(errs.KindOf(err))})
}

func statusFor(err error) int {
	switch errs.KindOf(err) {
	case errs.KindValidation:
		return http.StatusBadRequest
	case errs.KindNotFound:
		return http.StatusNotFound
	case errs.KindBusy:
		return http.StatusConflict
	case errs.KindTransport, errs.KindTimeout:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
