// Package api exposes the engine over HTTP.
//
// Routes:
//
//	POST /v1/runs                start a run for a document
//	GET  /v1/runs                list runs (?suspended=, ?status=, ?limit=)
//	GET  /v1/runs/{id}           fetch one run
//	POST /v1/runs/{id}/decision  deliver a reviewer decision
//	POST /v1/runs/{id}/cancel    cancel a suspended run
//
// Validation failures map to 400, unknown runs to 404, and operations
// invalid for the run's current state (resume of a non-suspended run,
// cancel of a settled one) to 409.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/xraph/invoiceflow"
	"github.com/xraph/invoiceflow/engine"
	"github.com/xraph/invoiceflow/id"
	"github.com/xraph/invoiceflow/invoice"
	"github.com/xraph/invoiceflow/run"
)

// Server handles HTTP requests against an engine.
type Server struct {
	engine *engine.Engine
	logger *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// NewServer creates a Server over the given engine.
func NewServer(e *engine.Engine, opts ...Option) *Server {
	s := &Server{engine: e, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Routes returns the HTTP handler for all API routes.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/runs", s.handleStart)
	mux.HandleFunc("GET /v1/runs", s.handleList)
	mux.HandleFunc("GET /v1/runs/{id}", s.handleGet)
	mux.HandleFunc("POST /v1/runs/{id}/decision", s.handleDecision)
	mux.HandleFunc("POST /v1/runs/{id}/cancel", s.handleCancel)

	return mux
}

// ──────────────────────────────────────────────────
// Request/response shapes
// ──────────────────────────────────────────────────

type startRequest struct {
	DocumentRef string `json:"document_ref"`
}

type decisionRequest struct {
	Action string `json:"action"`
	Note   string `json:"note,omitempty"`
}

type runResponse struct {
	RunID           string                  `json:"run_id"`
	Status          string                  `json:"status"`
	PendingStage    string                  `json:"pending_stage,omitempty"`
	InvoiceRef      string                  `json:"invoice_ref"`
	DocumentRef     string                  `json:"document_ref"`
	MatchScore      float64                 `json:"match_score"`
	ReviewLink      string                  `json:"review_link,omitempty"`
	ReviewSummary   string                  `json:"review_summary,omitempty"`
	ApprovalOutcome string                  `json:"approval_outcome,omitempty"`
	ExternalTxnID   string                  `json:"external_txn_id,omitempty"`
	RiskFlags       []invoice.RiskFlag      `json:"risk_flags,omitempty"`
	LedgerEntries   []invoice.LedgerEntry   `json:"ledger_entries,omitempty"`
	AuditLog        []string                `json:"audit_log,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// toResponse projects a checkpoint into the API view. A suspended run
// reports SUSPENDED regardless of the record's internal status.
func toResponse(cp *run.Checkpoint) runResponse {
	status := string(cp.Record.Status)
	if cp.Suspended {
		status = "SUSPENDED"
	}

	return runResponse{
		RunID:           cp.RunID.String(),
		Status:          status,
		PendingStage:    cp.PendingStage,
		InvoiceRef:      cp.Record.InvoiceRef,
		DocumentRef:     cp.Record.DocumentRef,
		MatchScore:      cp.Record.MatchScore,
		ReviewLink:      cp.Record.ReviewLink,
		ReviewSummary:   cp.Record.ReviewSummary,
		ApprovalOutcome: string(cp.Record.ApprovalOutcome),
		ExternalTxnID:   cp.Record.ExternalTxnID,
		RiskFlags:       cp.Record.RiskFlags,
		LedgerEntries:   cp.Record.LedgerEntries,
		AuditLog:        cp.Record.AuditLog,
	}
}

// ──────────────────────────────────────────────────
// Handlers
// ──────────────────────────────────────────────────

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	cp, err := s.engine.Start(r.Context(), req.DocumentRef)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, toResponse(cp))
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	runID, ok := s.parseRunID(w, r)
	if !ok {
		return
	}

	cp, err := s.engine.Get(r.Context(), runID)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, toResponse(cp))
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	var opts run.ListOpts

	if v := r.URL.Query().Get("suspended"); v != "" {
		suspended, err := strconv.ParseBool(v)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid suspended filter")
			return
		}
		opts.Suspended = &suspended
	}
	if v := r.URL.Query().Get("status"); v != "" {
		opts.Status = invoice.Status(v)
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 0 {
			s.writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		opts.Limit = limit
	}

	cps, err := s.engine.List(r.Context(), opts)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}

	out := make([]runResponse, 0, len(cps))
	for _, cp := range cps {
		out = append(out, toResponse(cp))
	}

	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleDecision(w http.ResponseWriter, r *http.Request) {
	runID, ok := s.parseRunID(w, r)
	if !ok {
		return
	}

	var req decisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	cp, err := s.engine.Resume(r.Context(), runID, invoice.Decision{
		Action: invoice.Action(req.Action),
		Note:   req.Note,
	})
	if err != nil {
		s.writeEngineError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, toResponse(cp))
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	runID, ok := s.parseRunID(w, r)
	if !ok {
		return
	}

	cp, err := s.engine.Cancel(r.Context(), runID)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, toResponse(cp))
}

// ──────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────

func (s *Server) parseRunID(w http.ResponseWriter, r *http.Request) (id.RunID, bool) {
	runID, err := id.ParseRunID(r.PathValue("id"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid run id")
		return id.Nil, false
	}

	return runID, true
}

func (s *Server) writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, invoiceflow.ErrValidation):
		s.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, invoiceflow.ErrRunNotFound):
		s.writeError(w, http.StatusNotFound, "run not found")
	case errors.Is(err, invoiceflow.ErrInvalidResume),
		errors.Is(err, invoiceflow.ErrNotSuspended),
		errors.Is(err, invoiceflow.ErrRunTerminated):
		s.writeError(w, http.StatusConflict, err.Error())
	default:
		s.logger.Error("request failed", slog.String("error", err.Error()))
		s.writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func (s *Server) writeError(w http.ResponseWriter, code int, msg string) {
	s.writeJSON(w, code, errorResponse{Error: msg})
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encode response", slog.String("error", err.Error()))
	}
}
