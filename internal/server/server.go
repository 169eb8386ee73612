// Package server exposes the conversation engine over HTTP: a chat
// endpoint, report export, and the usual health and metrics surfaces.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/pharmagen-dev/pharmagen/internal/chat"
	"github.com/pharmagen-dev/pharmagen/internal/report"
	"github.com/pharmagen-dev/pharmagen/pkg/observability"
)

// Server hosts the HTTP API. Sessions live in memory for the process
// lifetime, keyed by session ID.
type Server struct {
	engine   *chat.Engine
	exporter *report.Exporter
	health   *observability.HealthChecker
	logger   *slog.Logger

	mu       sync.RWMutex
	sessions map[string]*chat.Session

	admission  *admissionLimiter
	httpServer *http.Server
}

// New creates a Server bound to addr.
func New(addr string, engine *chat.Engine, exporter *report.Exporter, health *observability.HealthChecker, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if health == nil {
		health = observability.NewHealthChecker()
		health.RegisterCheck(observability.PingCheck())
	}
	s := &Server{
		engine:   engine,
		exporter: exporter,
		health:   health,
		logger:   logger.With("component", "server"),
		sessions: make(map[string]*chat.Session),

		// Generous per-IP bucket: real pacing is the engine's per-user
		// windows, this only sheds floods.
		admission: newAdmissionLimiter(10, 20),
	}
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	return s
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/chat", s.admit(s.instrument("/v1/chat", s.handleChat)))
	mux.HandleFunc("POST /v1/report", s.admit(s.instrument("/v1/report", s.handleReport)))
	mux.HandleFunc("POST /v1/sessions/{id}/reset", s.admit(s.instrument("/v1/sessions/reset", s.handleReset)))
	mux.HandleFunc("/health", s.health.Handler())
	mux.Handle("/metrics", observability.MetricsHandler())
	return mux
}

// Start serves until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("http server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server: listen on %s: %w", s.httpServer.Addr, err)
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Handler exposes the routing table for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

type chatRequest struct {
	SessionID string `json:"session_id,omitempty"`
	Message   string `json:"message"`
}

type chatResponse struct {
	SessionID         string `json:"session_id"`
	Reply             string `json:"reply"`
	EnglishSummary    string `json:"english_summary"`
	TranslatedSummary string `json:"translated_summary"`
	Stage             string `json:"stage"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	session, ok := s.session(req.SessionID)
	if !ok {
		if req.SessionID != "" {
			s.writeError(w, http.StatusNotFound, "unknown session")
			return
		}
		session = s.newSession()
	}

	result := s.engine.Process(r.Context(), req.Message, session)
	s.writeJSON(w, http.StatusOK, chatResponse{
		SessionID:         session.ID,
		Reply:             result.Reply,
		EnglishSummary:    result.EnglishSummary,
		TranslatedSummary: result.TranslatedSummary,
		Stage:             string(result.Stage),
	})
}

type reportRequest struct {
	SessionID string `json:"session_id"`
}

type reportResponse struct {
	Path string `json:"path"`
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	var req reportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	session, ok := s.session(req.SessionID)
	if !ok {
		s.writeError(w, http.StatusNotFound, "unknown session")
		return
	}

	path, err := s.exporter.Export(session)
	if err != nil {
		if errors.Is(err, report.ErrUnavailable) {
			s.writeError(w, http.StatusConflict, "no report available for this session yet")
			return
		}
		s.logger.Error("report export failed", "session", session.ID, "error", err)
		s.writeError(w, http.StatusInternalServerError, "report export failed")
		return
	}

	s.writeJSON(w, http.StatusOK, reportResponse{Path: path})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	session, ok := s.session(r.PathValue("id"))
	if !ok {
		s.writeError(w, http.StatusNotFound, "unknown session")
		return
	}

	s.mu.Lock()
	session.Reset()
	s.mu.Unlock()

	s.writeJSON(w, http.StatusOK, chatResponse{
		SessionID: session.ID,
		Stage:     string(session.Stage),
	})
}

func (s *Server) session(id string) (*chat.Session, bool) {
	if id == "" {
		return nil, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[id]
	return session, ok
}

func (s *Server) newSession() *chat.Session {
	session := chat.NewSession()
	s.mu.Lock()
	s.sessions[session.ID] = session
	s.mu.Unlock()
	return session
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("write response failed", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

// instrument wraps a handler with request metrics and a status
// recorder.
func (s *Server) instrument(path string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(rec, r)
		observability.RecordHTTPRequest(r.Method, path, strconv.Itoa(rec.status), time.Since(start))
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
