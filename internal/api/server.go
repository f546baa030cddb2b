// Package api exposes the approvals surface over HTTP so employers can
// review clarification requests without shell access. It is a thin layer:
// every route delegates to the same workflow code the CLI uses.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/vrijenattawar/ZoATS/internal/backup"
	"github.com/vrijenattawar/ZoATS/internal/clarify"
	"github.com/vrijenattawar/ZoATS/internal/model"
	"github.com/vrijenattawar/ZoATS/internal/store"
)

// Server serves the approvals API.
type Server struct {
	store    *store.JobStore
	workflow *clarify.Workflow
	backup   *backup.Manager
}

// NewServer creates a Server.
func NewServer(st *store.JobStore, wf *clarify.Workflow, bm *backup.Manager) *Server {
	return &Server{store: st, workflow: wf, backup: bm}
}

// Router builds the HTTP routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/jobs/{job}", func(r chi.Router) {
		r.Get("/approvals", s.listApprovals)
		r.Get("/approvals/{requestID}", s.getApproval)
		r.Post("/approvals/{requestID}/decision", s.decideApproval)
		r.Get("/candidates/{candidate}/evaluation", s.getEvaluation)
		r.Get("/backup", s.listBackup)
		r.Post("/backup/{candidate}/promote", s.promoteBackup)
	})

	return r
}

func (s *Server) listApprovals(w http.ResponseWriter, r *http.Request) {
	job := chi.URLParam(r, "job")
	approvals, err := s.store.ListApprovals(job)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	if status := r.URL.Query().Get("status"); status != "" {
		filtered := approvals[:0]
		for _, a := range approvals {
			if a.Status == model.ApprovalStatus(status) {
				filtered = append(filtered, a)
			}
		}
		approvals = filtered
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"approvals": approvals,
		"count":     len(approvals),
	})
}

func (s *Server) getApproval(w http.ResponseWriter, r *http.Request) {
	req, err := s.store.FindApprovalByRequestID(chi.URLParam(r, "job"), chi.URLParam(r, "requestID"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

type decisionRequest struct {
	Action    string   `json:"action"`
	Questions []string `json:"questions,omitempty"`
	Feedback  string   `json:"feedback,omitempty"`
}

func (s *Server) decideApproval(w http.ResponseWriter, r *http.Request) {
	var body decisionRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.Action == "" {
		writeError(w, http.StatusBadRequest, "action is required")
		return
	}

	req, err := s.workflow.RecordDecision(r.Context(), chi.URLParam(r, "job"), chi.URLParam(r, "requestID"), body.Action, body.Questions, body.Feedback, false)
	if err != nil {
		if eris.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "approval request not found")
			return
		}
		zap.L().Warn("approval decision rejected", zap.Error(err))
		writeError(w, http.StatusConflict, eris.Cause(err).Error())
		return
	}
	writeJSON(w, http.StatusOK, req)
}

func (s *Server) getEvaluation(w http.ResponseWriter, r *http.Request) {
	eval, err := s.store.LoadEvaluation(chi.URLParam(r, "job"), chi.URLParam(r, "candidate"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, eval)
}

func (s *Server) listBackup(w http.ResponseWriter, r *http.Request) {
	parkedOnly := r.URL.Query().Get("parked") == "true"
	list, err := s.backup.List(chi.URLParam(r, "job"), parkedOnly)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) promoteBackup(w http.ResponseWriter, r *http.Request) {
	entry, err := s.backup.Promote(chi.URLParam(r, "job"), chi.URLParam(r, "candidate"))
	if err != nil {
		if eris.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "backup list not found")
			return
		}
		writeError(w, http.StatusConflict, eris.Cause(err).Error())
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("response encode failed", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeStoreError(w http.ResponseWriter, err error) {
	if eris.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	zap.L().Error("store error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal error")
}
