// Package restapi is the thin gorilla/mux REST surface over SessionManager
// and Aggregator described in §6.4. Every handler is a direct delegation;
// this package owns no state of its own.
package restapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/insighthire/engine/pkg/aggregator"
	"github.com/insighthire/engine/pkg/manager"
	"github.com/insighthire/engine/pkg/store/iface"
)

// Server wires SessionManager and Aggregator behind gorilla/mux routes.
type Server struct {
	manager *manager.SessionManager
	agg     *aggregator.Aggregator
	store   iface.Store
	logger  *slog.Logger
	router  *mux.Router
}

// NewServer builds a Server and registers its routes.
func NewServer(mgr *manager.SessionManager, agg *aggregator.Aggregator, store iface.Store, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{manager: mgr, agg: agg, store: store, logger: logger, router: mux.NewRouter()}
	s.setupRoutes()
	return s
}

// Router returns the underlying mux.Router so main can mount it under an
// http.Server.
func (s *Server) Router() *mux.Router { return s.router }

func (s *Server) setupRoutes() {
	s.router.HandleFunc("/session/{id}/start", s.handleStart).Methods(http.MethodPost)
	s.router.HandleFunc("/session/{id}/stop", s.handleStop).Methods(http.MethodPost)
	s.router.HandleFunc("/session/{id}/calculate-final-scores", s.handleCalculateFinalScores).Methods(http.MethodPost)
	s.router.HandleFunc("/session/{id}/final-scores", s.handleGetFinalScores).Methods(http.MethodGet)
}

type startRequest struct {
	JobRoleID string `json:"job_role_id"`
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	var req startRequest
	_ = json.NewDecoder(r.Body).Decode(&req) // empty body is valid: no job role

	resolvedID, err := s.manager.Start(r.Context(), sessionID, req.JobRoleID)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]any{"session_id": resolvedID, "status": "started"})
	case errors.Is(err, manager.ErrAlreadyRunning):
		writeError(w, http.StatusConflict, "session already running")
	default:
		s.logger.Error("start failed", slog.String("session_id", sessionID), slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	err := s.manager.Stop(sessionID)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]any{"session_id": sessionID, "status": "stopped"})
	case errors.Is(err, manager.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, "unknown session")
	default:
		s.logger.Error("stop failed", slog.String("session_id", sessionID), slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

type calculateFinalScoresRequest struct {
	UserID    string `json:"user_id"`
	JobRoleID string `json:"job_role_id"`
}

func (s *Server) handleCalculateFinalScores(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	var req calculateFinalScoresRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	final, err := s.agg.Finalize(r.Context(), sessionID, req.JobRoleID)
	if err != nil {
		s.logger.Error("finalize failed", slog.String("session_id", sessionID), slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, final)
}

func (s *Server) handleGetFinalScores(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	final, err := s.store.GetFinalScore(r.Context(), sessionID)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, final)
	case errors.Is(err, iface.ErrFinalScoreNotFound):
		writeError(w, http.StatusNotFound, "no final score for session")
	default:
		s.logger.Error("get final score failed", slog.String("session_id", sessionID), slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
