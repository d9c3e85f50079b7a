// Package api exposes the caller-facing session API over HTTP: start a
// session, submit an answer, read a session snapshot. It is a thin layer over
// the turn controller; all interview logic stays in internal/interview.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/hyerim-cho/techterview/internal/grading"
	"github.com/hyerim-cho/techterview/internal/interview"
	"github.com/hyerim-cho/techterview/internal/question"
	"github.com/hyerim-cho/techterview/internal/session"
)

// Server serves the interview session API.
type Server struct {
	conductor *interview.Conductor
	logger    *zap.Logger
	addr      string
}

// NewServer builds a Server around the conductor.
func NewServer(conductor *interview.Conductor, addr string, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{conductor: conductor, logger: log, addr: addr}
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)

	v1 := r.PathPrefix("/api/v1").Subrouter()
	v1.HandleFunc("/sessions", s.handleStartSession).Methods(http.MethodPost)
	v1.HandleFunc("/sessions/{id}", s.handleGetSession).Methods(http.MethodGet)
	v1.HandleFunc("/sessions/{id}/answers", s.handleSubmitAnswer).Methods(http.MethodPost)

	return r
}

// ListenAndServe runs the server until the context is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	s.logger.Info("session api listening", zap.String("addr", s.addr))

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

type startSessionRequest struct {
	SessionID string            `json:"session_id"`
	Grounding map[string]string `json:"grounding"`
}

type startSessionResponse struct {
	SessionID string             `json:"session_id"`
	Question  *question.Question `json:"question"`
}

type submitAnswerRequest struct {
	Answer string `json:"answer"`
}

type errorResponse struct {
	Error  string `json:"error"`
	Reason string `json:"reason"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	var req startSessionRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeError(w, http.StatusBadRequest, "bad_request", err)
			return
		}
	}

	sess, err := s.conductor.StartSession(r.Context(), req.SessionID, req.Grounding)
	if err != nil {
		s.writeFailure(w, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, startSessionResponse{
		SessionID: sess.ID,
		Question:  sess.CurrentQuestion,
	})
}

func (s *Server) handleSubmitAnswer(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req submitAnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	result, err := s.conductor.SubmitAnswer(r.Context(), id, req.Answer)
	if err != nil {
		s.writeFailure(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	sess, err := s.conductor.Store().Snapshot(id)
	if err != nil {
		s.writeFailure(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, sess)
}

// writeFailure maps core error classes onto HTTP statuses and reason codes.
// Turn-level failures are reported without touching session state, so the
// caller can retry the same turn.
func (s *Server) writeFailure(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrNotFound):
		s.writeError(w, http.StatusNotFound, "session_not_found", err)
	case errors.Is(err, session.ErrExists):
		s.writeError(w, http.StatusConflict, "session_exists", err)
	case errors.Is(err, session.ErrConflict):
		s.writeError(w, http.StatusConflict, "session_busy", err)
	case errors.Is(err, interview.ErrNoPendingQuestion):
		s.writeError(w, http.StatusConflict, "no_pending_question", err)
	case errors.Is(err, question.ErrExhausted):
		s.writeError(w, http.StatusConflict, "questions_exhausted", err)
	case errors.Is(err, grading.ErrOracleUnavailable):
		s.writeError(w, http.StatusBadGateway, "oracle_unavailable", err)
	case errors.Is(err, grading.ErrUngradable):
		s.writeError(w, http.StatusUnprocessableEntity, "ungradable_response", err)
	default:
		s.writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, reason string, err error) {
	s.logger.Warn("request failed",
		zap.Int("status", status),
		zap.String("reason", reason),
		zap.Error(err),
	)
	s.writeJSON(w, status, errorResponse{Error: err.Error(), Reason: reason})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Warn("encoding response failed", zap.Error(err))
	}
}
