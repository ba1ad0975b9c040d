// Package httptransport exposes the case pipeline over HTTP: intake, reads,
// operator actions, and stage executions.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"vetra/internal/domain"
	"vetra/internal/stage"
	domainerrors "vetra/pkg/domain-errors"
	"vetra/pkg/platform/httputil"
	"vetra/pkg/requestcontext"
)

// Service defines the case operations the transport layer depends on.
type Service interface {
	Submit(ctx context.Context, cas *domain.Case) (*domain.Case, error)
	Get(ctx context.Context, id string) (*domain.Case, error)
	List(ctx context.Context) ([]domain.Projection, error)
	Timeline(ctx context.Context, caseID string) ([]domain.AuditEntry, error)
	Apply(ctx context.Context, caseID string, action stage.Action) (domain.Projection, error)
	Execute(ctx context.Context, caseID string, target domain.Stage) (stage.Outcome, error)
}

// Handler wires case endpoints to the stage service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a case handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Register mounts case endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/cases", h.HandleSubmit)
	r.Get("/cases", h.HandleList)
	r.Get("/cases/{caseID}", h.HandleGet)
	r.Get("/cases/{caseID}/timeline", h.HandleTimeline)
	r.Post("/cases/{caseID}/actions", h.HandleAction)
	r.Post("/cases/{caseID}/stages/{stage}/execute", h.HandleExecute)
}

// HandleSubmit handles POST /cases requests.
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()

	req, err := httputil.Decode[SubmitCaseRequest](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	cas, err := req.ToDomain()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	created, err := h.service.Submit(ctx, cas)
	if err != nil {
		h.logger.ErrorContext(ctx, "case submission failed",
			"request_id", requestcontext.RequestID(ctx),
			"legal_name", req.LegalName,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "case submitted",
		"request_id", requestcontext.RequestID(ctx),
		"case_id", created.ID,
		"tracking_code", created.TrackingCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusCreated, FromCase(created))
}

// HandleList handles GET /cases requests.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	projections, err := h.service.List(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "case listing failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"cases": projections})
}

// HandleGet handles GET /cases/{caseID} requests.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	cas, err := h.service.Get(ctx, chi.URLParam(r, "caseID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromCase(cas))
}

// HandleTimeline handles GET /cases/{caseID}/timeline requests.
func (h *Handler) HandleTimeline(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	entries, err := h.service.Timeline(ctx, chi.URLParam(r, "caseID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

// HandleAction handles POST /cases/{caseID}/actions requests.
func (h *Handler) HandleAction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caseID := chi.URLParam(r, "caseID")

	req, err := httputil.Decode[ActionRequest](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	projection, err := h.service.Apply(ctx, caseID, stage.Action(req.Action))
	if err != nil {
		h.logger.WarnContext(ctx, "operator action refused",
			"request_id", requestcontext.RequestID(ctx),
			"case_id", caseID,
			"action", req.Action,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "operator action applied",
		"request_id", requestcontext.RequestID(ctx),
		"case_id", caseID,
		"action", req.Action,
		"stage", string(projection.Stage),
		"client_ip", requestcontext.ClientIP(ctx),
		"user_agent", requestcontext.UserAgent(ctx),
	)
	httputil.WriteJSON(w, http.StatusOK, projection)
}

// HandleExecute handles POST /cases/{caseID}/stages/{stage}/execute requests.
func (h *Handler) HandleExecute(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caseID := chi.URLParam(r, "caseID")
	target := domain.Stage(chi.URLParam(r, "stage"))
	start := time.Now()

	if !target.Valid() {
		httputil.WriteError(w, domainerrors.Newf(domainerrors.CodeBadRequest, "unknown stage %q", string(target)))
		return
	}

	outcome, err := h.service.Execute(ctx, caseID, target)
	if err != nil {
		h.logger.ErrorContext(ctx, "stage execution failed",
			"request_id", requestcontext.RequestID(ctx),
			"case_id", caseID,
			"stage", string(target),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "stage executed",
		"request_id", requestcontext.RequestID(ctx),
		"case_id", caseID,
		"run_id", outcome.RunID,
		"stage", string(outcome.Case.Stage),
		"composite_score", outcome.Composite.Score,
		"risk_level", string(outcome.Composite.Level),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, outcome)
}
